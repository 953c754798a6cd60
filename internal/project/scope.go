package project

import (
	"fmt"
	"strings"

	"ngrev/internal/model"
	"ngrev/internal/project/template"
)

// frameworkElements are custom-looking elements the framework handles itself.
var frameworkElements = map[string]bool{
	"ng-container": true,
	"ng-content":   true,
	"ng-template":  true,
}

// templateScope lists the directives usable in templates of components
// declared by m: its own declarations plus everything exported by its
// imports, following re-exported modules.
func templateScope(m *module) []model.Directive {
	if m == nil {
		return nil
	}
	var out []model.Directive
	seen := make(map[model.Directive]bool)
	add := func(d model.Directive) {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}

	for _, ref := range m.declarations {
		switch r := ref.(type) {
		case model.DirectiveRef:
			add(r.Directive)
		case model.ComponentRef:
			add(r.Component)
		}
	}
	visited := make(map[model.Module]bool)
	for _, imp := range m.imports {
		collectExports(imp, visited, add)
	}
	return out
}

func collectExports(m model.Module, visited map[model.Module]bool, add func(model.Directive)) {
	if visited[m] {
		return
	}
	visited[m] = true
	for _, ref := range m.Exports() {
		switch r := ref.(type) {
		case model.ModuleRef:
			collectExports(r.Module, visited, add)
		case model.DirectiveRef:
			add(r.Directive)
		case model.ComponentRef:
			add(r.Component)
		}
	}
}

type scopedDirective struct {
	directive model.Directive
	selectors []selector
}

// compileTemplate parses the template of d and binds every element to the
// directives in scope whose selectors match it.
func compileTemplate(d *directive) *model.Template {
	src, err := d.source()
	if err != nil {
		return &model.Template{Errors: []model.TemplateError{{Kind: model.ParseError, Message: err.Error()}}}
	}
	tpl := template.Parse(src)
	if tpl.Failed() {
		d.logger.Debug("Template parse failed", "component", d.name, "errors", len(tpl.Errors))
		return tpl
	}

	var scope []scopedDirective
	for _, sd := range templateScope(d.declaredIn) {
		if md := sd.Metadata(); md != nil && md.Selector != "" {
			scope = append(scope, scopedDirective{directive: sd, selectors: parseSelectors(md.Selector)})
		}
	}

	var bind func([]*model.TemplateElement)
	bind = func(elements []*model.TemplateElement) {
		for _, el := range elements {
			tpl.Errors = append(tpl.Errors, bindElement(el, scope)...)
			bind(el.Children)
		}
	}
	bind(tpl.Roots)
	if tpl.Failed() {
		d.logger.Debug("Template binding failed", "component", d.name, "errors", len(tpl.Errors))
	}
	return tpl
}

func bindElement(el *model.TemplateElement, scope []scopedDirective) []model.TemplateError {
	var components []string
	for _, sd := range scope {
		for _, sel := range sd.selectors {
			if !sel.matches(el) {
				continue
			}
			el.Directives = append(el.Directives, model.TypeRef{
				Name: sd.directive.Name(),
				Path: sd.directive.Path(),
			})
			if sd.directive.IsComponent() {
				components = append(components, sd.directive.Name())
			}
			break
		}
	}

	var errs []model.TemplateError
	switch {
	case len(components) > 1:
		errs = append(errs, model.TemplateError{
			Kind:    model.BindingError,
			Message: fmt.Sprintf("more than one component matched <%s>: %s", el.Name, strings.Join(components, ", ")),
			Line:    el.Line,
		})
	case len(components) == 0 && strings.Contains(el.Name, "-") && !frameworkElements[el.Name]:
		errs = append(errs, model.TemplateError{
			Kind:    model.BindingError,
			Message: fmt.Sprintf("'%s' is not a known element", el.Name),
			Line:    el.Line,
		})
	}
	return errs
}
