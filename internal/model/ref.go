package model

// SymbolRef is a closed union over everything a graph node can stand for.
// The variants are ModuleRef, DirectiveRef, ComponentRef, PipeRef,
// InjectableRef, ElementRef and TemplateRef; code that switches on a
// SymbolRef must handle all of them.
type SymbolRef interface {
	isSymbolRef()
}

// ModuleRef points at a module.
type ModuleRef struct{ Module Module }

// DirectiveRef points at a directive that is not a component.
type DirectiveRef struct{ Directive Directive }

// ComponentRef points at a component.
type ComponentRef struct{ Component Directive }

// PipeRef points at a pipe.
type PipeRef struct{ Pipe Pipe }

// InjectableRef points at a provider.
type InjectableRef struct{ Injectable Injectable }

// ElementRef points at one element of a rendered template. Component and
// Directives are resolved against the workspace when the template graph is
// built; Component is nil for plain elements.
type ElementRef struct {
	Element    *TemplateElement
	Component  Directive
	Directives []Directive
}

// TemplateRef points at the template of a component.
type TemplateRef struct{ Component Directive }

func (ModuleRef) isSymbolRef()     {}
func (DirectiveRef) isSymbolRef()  {}
func (ComponentRef) isSymbolRef()  {}
func (PipeRef) isSymbolRef()       {}
func (InjectableRef) isSymbolRef() {}
func (ElementRef) isSymbolRef()    {}
func (TemplateRef) isSymbolRef()   {}

// RefOfDirective wraps d as a ComponentRef or DirectiveRef.
func RefOfDirective(d Directive) SymbolRef {
	if d.IsComponent() {
		return ComponentRef{Component: d}
	}
	return DirectiveRef{Directive: d}
}

// SymbolOf returns the compiler symbol behind ref, or nil for template
// elements and template placeholders, which have no symbol of their own.
func SymbolOf(ref SymbolRef) Symbol {
	switch r := ref.(type) {
	case ModuleRef:
		return r.Module
	case DirectiveRef:
		return r.Directive
	case ComponentRef:
		return r.Component
	case PipeRef:
		return r.Pipe
	case InjectableRef:
		return r.Injectable
	case ElementRef, TemplateRef:
		return nil
	default:
		return nil
	}
}
