// Package modeltest provides in-memory compiler models for tests.
package modeltest

import (
	"context"

	"ngrev/internal/model"
)

// Sym carries the fields shared by every fake symbol.
type Sym struct {
	SymName  string
	SymPath  string
	External bool // not introspectable
}

func (s *Sym) Name() string         { return s.SymName }
func (s *Sym) Path() string         { return s.SymPath }
func (s *Sym) Introspectable() bool { return !s.External }

// Module is a fake model.Module.
type Module struct {
	Sym
	ImportList      []model.Module
	DeclarationList []model.SymbolRef
	ExportList      []model.SymbolRef
	BootstrapList   []model.Directive
	ProviderList    []model.Injectable
	RouteList       []model.Route
}

func (m *Module) Imports() []model.Module         { return m.ImportList }
func (m *Module) Declarations() []model.SymbolRef { return m.DeclarationList }
func (m *Module) Exports() []model.SymbolRef      { return m.ExportList }
func (m *Module) Bootstrap() []model.Directive    { return m.BootstrapList }
func (m *Module) Providers() []model.Injectable   { return m.ProviderList }
func (m *Module) Routes() []model.Route           { return m.RouteList }

// Directive is a fake model.Directive; set Template to make it a component.
type Directive struct {
	Sym
	Component  bool
	Meta       *model.DirectiveMetadata
	Deps       []model.Injectable
	ProvidedBy []model.Injectable
	Template   *model.Template
	// TemplateCalls counts TemplateAST invocations.
	TemplateCalls int
}

func (d *Directive) IsComponent() bool                   { return d.Component }
func (d *Directive) Metadata() *model.DirectiveMetadata  { return d.Meta }
func (d *Directive) Dependencies() []model.Injectable    { return d.Deps }
func (d *Directive) Providers() []model.Injectable       { return d.ProvidedBy }
func (d *Directive) TemplateAST() *model.Template {
	d.TemplateCalls++
	return d.Template
}

// Pipe is a fake model.Pipe.
type Pipe struct {
	Sym
	Meta *model.PipeMetadata
	Deps []model.Injectable
}

func (p *Pipe) Metadata() *model.PipeMetadata     { return p.Meta }
func (p *Pipe) Dependencies() []model.Injectable { return p.Deps }

// Injectable is a fake model.Injectable.
type Injectable struct {
	Sym
	Meta model.ProviderMeta
	Deps []model.Injectable
}

func (i *Injectable) Provider() model.ProviderMeta     { return i.Meta }
func (i *Injectable) Dependencies() []model.Injectable { return i.Deps }

// Workspace is a fake model.Workspace.
type Workspace struct {
	ModuleList     []model.Module
	DirectiveList  []model.Directive
	InjectableList []model.Injectable
	PipeList       []model.Pipe
	Rev            string
}

func (w *Workspace) Modules() []model.Module         { return w.ModuleList }
func (w *Workspace) Directives() []model.Directive   { return w.DirectiveList }
func (w *Workspace) Injectables() []model.Injectable { return w.InjectableList }
func (w *Workspace) Pipes() []model.Pipe             { return w.PipeList }
func (w *Workspace) Revision() string                { return w.Rev }

// NewModule returns a module named name declared in path.
func NewModule(name, path string) *Module {
	return &Module{Sym: Sym{SymName: name, SymPath: path}}
}

// NewComponent returns a component with an empty template.
func NewComponent(name, path, selector string) *Directive {
	return &Directive{
		Sym:       Sym{SymName: name, SymPath: path},
		Component: true,
		Meta:      &model.DirectiveMetadata{Selector: selector},
		Template:  &model.Template{},
	}
}

// NewDirective returns a non-component directive.
func NewDirective(name, path, selector string) *Directive {
	return &Directive{
		Sym:  Sym{SymName: name, SymPath: path},
		Meta: &model.DirectiveMetadata{Selector: selector},
	}
}

// NewPipe returns a pipe registered under pipeName.
func NewPipe(name, path, pipeName string) *Pipe {
	return &Pipe{
		Sym:  Sym{SymName: name, SymPath: path},
		Meta: &model.PipeMetadata{PipeName: pipeName, Pure: true},
	}
}

// NewService returns a class provider whose token is the class itself.
func NewService(name, path string, deps ...model.Injectable) *Injectable {
	return &Injectable{
		Sym: Sym{SymName: name, SymPath: path},
		Meta: model.ProviderMeta{
			Token:    model.Token{Ref: &model.TypeRef{Name: name, Path: path}},
			UseClass: name,
		},
		Deps: deps,
	}
}

// NewValueProvider returns a provider keyed by a string token.
func NewValueProvider(token, value string) *Injectable {
	return &Injectable{
		Sym:  Sym{SymName: token},
		Meta: model.ProviderMeta{Token: model.Token{Value: token}, UseValue: value},
	}
}

// NewOpaqueProvider returns a provider whose token cannot be resolved.
func NewOpaqueProvider(label string) *Injectable {
	return &Injectable{
		Sym:  Sym{SymName: label},
		Meta: model.ProviderMeta{UseFactory: label},
	}
}

// Loader returns a model.Loader that hands out workspaces by path; unknown
// paths fail with err (or a generic error when err is nil).
func Loader(projects map[string]model.Workspace, err error) model.Loader {
	return model.LoaderFunc(func(_ context.Context, path string) (model.Workspace, error) {
		if ws, ok := projects[path]; ok {
			return ws, nil
		}
		if err != nil {
			return nil, err
		}
		return nil, &LoadError{Path: path}
	})
}

// LoadError is returned by Loader for unknown paths.
type LoadError struct{ Path string }

func (e *LoadError) Error() string { return "no such project: " + e.Path }
