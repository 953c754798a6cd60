package project

import (
	"log/slog"
	"sync"

	"ngrev/internal/model"
)

type symbol struct {
	name     string
	path     string
	external bool
}

func (s *symbol) Name() string         { return s.name }
func (s *symbol) Path() string         { return s.path }
func (s *symbol) Introspectable() bool { return !s.external }

type module struct {
	symbol
	imports      []model.Module
	declarations []model.SymbolRef
	exports      []model.SymbolRef
	bootstrap    []model.Directive
	providers    []model.Injectable
	routes       []model.Route
}

func (m *module) Imports() []model.Module         { return m.imports }
func (m *module) Declarations() []model.SymbolRef { return m.declarations }
func (m *module) Exports() []model.SymbolRef      { return m.exports }
func (m *module) Bootstrap() []model.Directive    { return m.bootstrap }
func (m *module) Providers() []model.Injectable   { return m.providers }
func (m *module) Routes() []model.Route           { return m.routes }

type directive struct {
	symbol
	component bool
	meta      *model.DirectiveMetadata
	deps      []model.Injectable
	providers []model.Injectable

	// declaredIn is the first module declaring the directive; it scopes
	// template resolution.
	declaredIn *module
	source     func() ([]byte, error)
	logger     *slog.Logger

	once sync.Once
	ast  *model.Template
}

func (d *directive) IsComponent() bool                  { return d.component }
func (d *directive) Metadata() *model.DirectiveMetadata { return d.meta }
func (d *directive) Dependencies() []model.Injectable   { return d.deps }
func (d *directive) Providers() []model.Injectable      { return d.providers }

// TemplateAST compiles the template on first use. Plain directives and
// external components have none.
func (d *directive) TemplateAST() *model.Template {
	if !d.component || d.external {
		return nil
	}
	d.once.Do(func() {
		d.ast = compileTemplate(d)
	})
	return d.ast
}

type pipe struct {
	symbol
	meta *model.PipeMetadata
	deps []model.Injectable
}

func (p *pipe) Metadata() *model.PipeMetadata    { return p.meta }
func (p *pipe) Dependencies() []model.Injectable { return p.deps }

type injectable struct {
	symbol
	meta model.ProviderMeta
	deps []model.Injectable
}

func (i *injectable) Provider() model.ProviderMeta     { return i.meta }
func (i *injectable) Dependencies() []model.Injectable { return i.deps }

// Workspace is a loaded manifest project.
type Workspace struct {
	Root     string
	Manifest *Manifest

	modules     []model.Module
	directives  []model.Directive
	injectables []model.Injectable
	pipes       []model.Pipe
	revision    string
}

func (w *Workspace) Modules() []model.Module         { return w.modules }
func (w *Workspace) Directives() []model.Directive   { return w.directives }
func (w *Workspace) Injectables() []model.Injectable { return w.injectables }
func (w *Workspace) Pipes() []model.Pipe             { return w.pipes }

// Revision is a digest of the manifest, its templates and its source globs.
func (w *Workspace) Revision() string { return w.revision }
