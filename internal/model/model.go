// Package model defines the capability contract ngrev consumes from a compiler
// model: modules, directives, components, pipes, injectables and component
// template trees. Implementations own the symbols; ngrev only reads them.
package model

import "context"

// Symbol is the surface shared by every compiler symbol.
type Symbol interface {
	Name() string
	// Path is the originating source file.
	Path() string
	// Introspectable is false for symbols whose internals the model cannot
	// resolve (for example declarations shipped only as library typings).
	Introspectable() bool
}

// Module is an NgModule-like compilation unit.
type Module interface {
	Symbol
	Imports() []Module
	// Declarations yields DirectiveRef, ComponentRef and PipeRef values.
	Declarations() []SymbolRef
	// Exports yields declarables and re-exported modules (ModuleRef).
	Exports() []SymbolRef
	Bootstrap() []Directive
	Providers() []Injectable
	// Routes is the module summary used for lazy route discovery.
	Routes() []Route
}

// Directive covers directives and components.
type Directive interface {
	Symbol
	IsComponent() bool
	// Metadata is nil when the directive is not introspectable.
	Metadata() *DirectiveMetadata
	Dependencies() []Injectable
	Providers() []Injectable
	// TemplateAST is nil for plain directives.
	TemplateAST() *Template
}

// Pipe is a template pipe.
type Pipe interface {
	Symbol
	Metadata() *PipeMetadata
	Dependencies() []Injectable
}

// Injectable is a provider: the token it provides plus the class behind it.
type Injectable interface {
	Symbol
	Provider() ProviderMeta
	Dependencies() []Injectable
}

// Workspace is the project-level symbol source.
type Workspace interface {
	Modules() []Module
	// Directives includes components.
	Directives() []Directive
	Injectables() []Injectable
	Pipes() []Pipe
}

// Revisioned is implemented by workspaces that can fingerprint their sources.
type Revisioned interface {
	Revision() string
}

// Loader builds a Workspace from a project descriptor path.
type Loader interface {
	Load(ctx context.Context, path string) (Workspace, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, path string) (Workspace, error)

// Load implements Loader.
func (f LoaderFunc) Load(ctx context.Context, path string) (Workspace, error) {
	return f(ctx, path)
}
