package project

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"ngrev/internal/identity"
	"ngrev/internal/model"
	"ngrev/internal/slogutil"
)

// Loader loads manifest projects. It implements model.Loader.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a manifest loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Loader{logger: logger}
}

// Load reads the manifest at path (a manifest file or a directory holding
// one) and links it into a workspace.
func (l *Loader) Load(ctx context.Context, path string) (model.Workspace, error) {
	file, err := DetectManifest(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	m, err := DecodeManifest(file, data)
	if err != nil {
		return nil, err
	}

	root := filepath.Dir(file)
	ws, err := Build(root, m, l.logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ws.revision, err = Revision(root, data, m); err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	l.logger.Info("Manifest loaded",
		"manifest", file,
		"modules", len(ws.modules),
		"directives", len(ws.directives),
		"revision", ws.revision,
	)
	return ws, nil
}

// Build links a decoded manifest. Relative template paths are resolved
// under root.
func Build(root string, m *Manifest, logger *slog.Logger) (*Workspace, error) {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	b := &builder{
		root:   root,
		logger: logger,
		ws:     &Workspace{Root: root, Manifest: m},
		byName: make(map[string][]model.Symbol),
		byID:   make(map[string]model.Symbol),
		tokens: make(map[string]model.Injectable),
	}
	if err := b.declare(m); err != nil {
		return nil, err
	}
	if err := b.link(m); err != nil {
		return nil, err
	}
	return b.ws, nil
}

type builder struct {
	root   string
	logger *slog.Logger
	ws     *Workspace

	byName map[string][]model.Symbol
	byID   map[string]model.Symbol
	// tokens maps string injection tokens to the provider declaring them.
	tokens map[string]model.Injectable

	modules     []*module
	directives  []*directive
	pipes       []*pipe
	injectables []*injectable
}

func (b *builder) register(kind string, spec SymbolSpec, sym model.Symbol) error {
	if spec.Name == "" {
		return fmt.Errorf("%s without a name", kind)
	}
	id := identity.IDOf(spec.Path, spec.Name)
	if _, ok := b.byID[id]; ok {
		return fmt.Errorf("duplicate symbol %s", id)
	}
	b.byID[id] = sym
	b.byName[spec.Name] = append(b.byName[spec.Name], sym)
	return nil
}

func newSymbol(spec SymbolSpec) symbol {
	return symbol{name: spec.Name, path: filepath.ToSlash(spec.Path), external: spec.External}
}

// declare creates every declared symbol so that links may point forward.
func (b *builder) declare(m *Manifest) error {
	for _, spec := range m.Modules {
		mod := &module{symbol: newSymbol(spec.SymbolSpec), routes: spec.Routes}
		if err := b.register("module", spec.SymbolSpec, mod); err != nil {
			return err
		}
		b.modules = append(b.modules, mod)
		b.ws.modules = append(b.ws.modules, mod)
	}

	declareDirective := func(spec DirectiveSpec, component bool) error {
		d := &directive{
			symbol:    newSymbol(spec.SymbolSpec),
			component: component,
			source:    b.templateSource(spec),
			logger:    b.logger,
		}
		if !spec.External {
			d.meta = &model.DirectiveMetadata{
				Selector:        spec.Selector,
				ExportAs:        spec.ExportAs,
				Inputs:          spec.Inputs,
				Outputs:         spec.Outputs,
				ChangeDetection: spec.ChangeDetection,
				Encapsulation:   spec.Encapsulation,
				TemplateURL:     spec.TemplateURL,
			}
		}
		kind := "directive"
		if component {
			kind = "component"
		}
		if err := b.register(kind, spec.SymbolSpec, d); err != nil {
			return err
		}
		b.directives = append(b.directives, d)
		b.ws.directives = append(b.ws.directives, d)
		return nil
	}
	for _, spec := range m.Components {
		if err := declareDirective(spec, true); err != nil {
			return err
		}
	}
	for _, spec := range m.Directives {
		if err := declareDirective(spec, false); err != nil {
			return err
		}
	}

	for _, spec := range m.Pipes {
		pure := spec.Pure == nil || *spec.Pure
		p := &pipe{symbol: newSymbol(spec.SymbolSpec)}
		if !spec.External {
			p.meta = &model.PipeMetadata{PipeName: spec.PipeName, Pure: pure}
		}
		if err := b.register("pipe", spec.SymbolSpec, p); err != nil {
			return err
		}
		b.pipes = append(b.pipes, p)
		b.ws.pipes = append(b.ws.pipes, p)
	}

	for _, spec := range m.Injectables {
		inj := &injectable{
			symbol: newSymbol(spec.SymbolSpec),
			meta: model.ProviderMeta{
				Token:    model.Token{Ref: &model.TypeRef{Name: spec.Name, Path: filepath.ToSlash(spec.Path)}},
				UseClass: spec.Name,
			},
		}
		if err := b.register("injectable", spec.SymbolSpec, inj); err != nil {
			return err
		}
		b.injectables = append(b.injectables, inj)
		b.ws.injectables = append(b.ws.injectables, inj)
	}
	return nil
}

// pendingProvider is a provider whose dependencies are resolved once every
// provider token is known.
type pendingProvider struct {
	inj     *injectable
	deps    []string
	inherit *injectable
}

// link resolves every reference of the manifest.
func (b *builder) link(m *Manifest) error {
	var pending []pendingProvider
	providers := func(owner string, specs []ProviderSpec) ([]model.Injectable, error) {
		var out []model.Injectable
		for _, spec := range specs {
			inj, p, err := b.provider(spec)
			if err != nil {
				return nil, fmt.Errorf("%s providers: %w", owner, err)
			}
			if p != nil {
				pending = append(pending, *p)
			}
			out = append(out, inj)
		}
		return out, nil
	}

	for i, spec := range m.Modules {
		var err error
		if b.modules[i].providers, err = providers(spec.Name, spec.Providers); err != nil {
			return err
		}
	}
	specs := append(append([]DirectiveSpec{}, m.Components...), m.Directives...)
	for i, spec := range specs {
		var err error
		if b.directives[i].providers, err = providers(spec.Name, spec.Providers); err != nil {
			return err
		}
	}

	for i, spec := range m.Injectables {
		deps, err := b.injectablesOf(spec.Deps)
		if err != nil {
			return fmt.Errorf("%s deps: %w", spec.Name, err)
		}
		b.injectables[i].deps = deps
	}
	for i, spec := range specs {
		deps, err := b.injectablesOf(spec.Deps)
		if err != nil {
			return fmt.Errorf("%s deps: %w", spec.Name, err)
		}
		b.directives[i].deps = deps
	}
	for i, spec := range m.Pipes {
		deps, err := b.injectablesOf(spec.Deps)
		if err != nil {
			return fmt.Errorf("%s deps: %w", spec.Name, err)
		}
		b.pipes[i].deps = deps
	}
	for _, p := range pending {
		if len(p.deps) == 0 && p.inherit != nil {
			p.inj.deps = p.inherit.deps
			continue
		}
		deps, err := b.injectablesOf(p.deps)
		if err != nil {
			return fmt.Errorf("%s deps: %w", p.inj.name, err)
		}
		p.inj.deps = deps
	}

	for i, spec := range m.Modules {
		if err := b.linkModule(b.modules[i], spec); err != nil {
			return fmt.Errorf("%s: %w", spec.Name, err)
		}
	}
	return nil
}

func (b *builder) linkModule(mod *module, spec ModuleSpec) error {
	for _, ref := range spec.Imports {
		imp, err := b.moduleOf(ref)
		if err != nil {
			return fmt.Errorf("imports: %w", err)
		}
		mod.imports = append(mod.imports, imp)
	}
	for _, ref := range spec.Declarations {
		decl, err := b.declarableOf(ref)
		if err != nil {
			return fmt.Errorf("declarations: %w", err)
		}
		if d, ok := model.SymbolOf(decl).(*directive); ok && d.declaredIn == nil {
			d.declaredIn = mod
		}
		mod.declarations = append(mod.declarations, decl)
	}
	for _, ref := range spec.Exports {
		sym, err := b.resolve(ref, guessKind(ref))
		if err != nil {
			return fmt.Errorf("exports: %w", err)
		}
		switch s := sym.(type) {
		case model.Module:
			mod.exports = append(mod.exports, model.ModuleRef{Module: s})
		case model.Directive:
			mod.exports = append(mod.exports, model.RefOfDirective(s))
		case model.Pipe:
			mod.exports = append(mod.exports, model.PipeRef{Pipe: s})
		default:
			return fmt.Errorf("exports: %s is not exportable", ref)
		}
	}
	for _, ref := range spec.Bootstrap {
		sym, err := b.resolve(ref, kindComponent)
		if err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
		d, ok := sym.(model.Directive)
		if !ok || !d.IsComponent() {
			return fmt.Errorf("bootstrap: %s is not a component", ref)
		}
		mod.bootstrap = append(mod.bootstrap, d)
	}
	return nil
}

// provider builds the injectable behind a provider entry. Class shorthands
// reuse the declared injectable; provider objects get a new one whose
// dependencies are resolved later.
func (b *builder) provider(spec ProviderSpec) (model.Injectable, *pendingProvider, error) {
	if spec.Class != "" {
		inj, err := b.injectableOf(spec.Class)
		return inj, nil, err
	}

	meta := model.ProviderMeta{
		UseClass:    spec.UseClass,
		UseFactory:  spec.UseFactory,
		UseExisting: spec.UseExisting,
		UseValue:    valueString(spec.UseValue),
		Multi:       spec.Multi,
	}
	sym := symbol{name: firstNonEmpty(spec.Provide, spec.UseClass, spec.UseFactory, spec.UseExisting, "anonymous provider")}

	if spec.Provide != "" {
		if known, ok := b.lookup(spec.Provide); ok {
			meta.Token.Ref = &model.TypeRef{Name: known.Name(), Path: known.Path()}
			sym.name, sym.path = known.Name(), known.Path()
		} else if file, name, ok := strings.Cut(spec.Provide, "#"); ok {
			meta.Token.Ref = &model.TypeRef{Name: name, Path: file}
			sym.name, sym.path = name, file
		} else {
			meta.Token.Value = spec.Provide
		}
	}

	p := &pendingProvider{deps: spec.Deps}
	if spec.UseClass != "" {
		if cls, err := b.injectableOf(spec.UseClass); err == nil {
			if c, ok := cls.(*injectable); ok {
				p.inherit = c
				if sym.path == "" {
					sym.path = c.path
				}
			}
		}
	}

	p.inj = &injectable{symbol: sym, meta: meta}
	if meta.Token.Value != "" {
		if _, ok := b.tokens[meta.Token.Value]; !ok {
			b.tokens[meta.Token.Value] = p.inj
		}
	}
	return p.inj, p, nil
}

type symbolKind int

const (
	kindModule symbolKind = iota
	kindDirective
	kindComponent
	kindPipe
	kindInjectable
)

// guessKind names the kind of an undeclared library symbol by its suffix.
func guessKind(ref string) symbolKind {
	name := ref
	if _, n, ok := strings.Cut(ref, "#"); ok {
		name = n
	}
	switch {
	case strings.HasSuffix(name, "Module"):
		return kindModule
	case strings.HasSuffix(name, "Component"):
		return kindComponent
	case strings.HasSuffix(name, "Pipe"):
		return kindPipe
	default:
		return kindDirective
	}
}

// lookup finds a declared symbol by "Name" or "path#Name".
func (b *builder) lookup(ref string) (model.Symbol, bool) {
	if file, name, ok := strings.Cut(ref, "#"); ok {
		sym, found := b.byID[identity.IDOf(file, name)]
		return sym, found
	}
	if syms := b.byName[ref]; len(syms) == 1 {
		return syms[0], true
	}
	return nil, false
}

// resolve returns the symbol ref points at. Unknown "path#Name" references
// become external symbols of kind; unknown bare names are errors.
func (b *builder) resolve(ref string, kind symbolKind) (model.Symbol, error) {
	if sym, ok := b.lookup(ref); ok {
		return sym, nil
	}
	file, name, ok := strings.Cut(ref, "#")
	if !ok {
		if len(b.byName[ref]) > 1 {
			return nil, fmt.Errorf("ambiguous reference %q, use path#%s", ref, ref)
		}
		return nil, fmt.Errorf("unknown symbol %q", ref)
	}
	if file == "" || name == "" {
		return nil, fmt.Errorf("malformed reference %q", ref)
	}

	sym := symbol{name: name, path: file, external: true}
	var ext model.Symbol
	switch kind {
	case kindModule:
		ext = &module{symbol: sym}
	case kindComponent:
		ext = &directive{symbol: sym, component: true, logger: b.logger}
	case kindDirective:
		ext = &directive{symbol: sym, logger: b.logger}
	case kindPipe:
		ext = &pipe{symbol: sym}
	case kindInjectable:
		ext = &injectable{symbol: sym, meta: model.ProviderMeta{
			Token:    model.Token{Ref: &model.TypeRef{Name: name, Path: file}},
			UseClass: name,
		}}
	}
	b.byID[identity.IDOf(file, name)] = ext
	b.logger.Debug("External symbol", "id", identity.IDOf(file, name))
	return ext, nil
}

func (b *builder) moduleOf(ref string) (model.Module, error) {
	sym, err := b.resolve(ref, kindModule)
	if err != nil {
		return nil, err
	}
	m, ok := sym.(model.Module)
	if !ok {
		return nil, fmt.Errorf("%s is not a module", ref)
	}
	return m, nil
}

func (b *builder) declarableOf(ref string) (model.SymbolRef, error) {
	kind := guessKind(ref)
	if kind == kindModule {
		kind = kindDirective
	}
	sym, err := b.resolve(ref, kind)
	if err != nil {
		return nil, err
	}
	switch s := sym.(type) {
	case model.Directive:
		return model.RefOfDirective(s), nil
	case model.Pipe:
		return model.PipeRef{Pipe: s}, nil
	default:
		return nil, fmt.Errorf("%s is not declarable", ref)
	}
}

// injectableOf resolves a dependency: a declared injectable, a string token
// provided somewhere in the manifest, or an external class.
func (b *builder) injectableOf(ref string) (model.Injectable, error) {
	if _, ok := b.lookup(ref); !ok {
		if inj, ok := b.tokens[ref]; ok {
			return inj, nil
		}
	}
	sym, err := b.resolve(ref, kindInjectable)
	if err != nil {
		return nil, err
	}
	inj, ok := sym.(model.Injectable)
	if !ok {
		return nil, fmt.Errorf("%s is not injectable", ref)
	}
	return inj, nil
}

func (b *builder) injectablesOf(refs []string) ([]model.Injectable, error) {
	var out []model.Injectable
	for _, ref := range refs {
		inj, err := b.injectableOf(ref)
		if err != nil {
			return nil, err
		}
		out = append(out, inj)
	}
	return out, nil
}

// templateSource returns the template loader of a component. templateUrl is
// relative to the component's file.
func (b *builder) templateSource(spec DirectiveSpec) func() ([]byte, error) {
	switch {
	case spec.Template != "":
		src := []byte(spec.Template)
		return func() ([]byte, error) { return src, nil }
	case spec.TemplateURL != "":
		file := filepath.Join(b.root, filepath.FromSlash(templateFile(spec)))
		return func() ([]byte, error) { return os.ReadFile(file) }
	default:
		return func() ([]byte, error) { return nil, nil }
	}
}

// templateFile is the root-relative slash path of spec's templateUrl.
func templateFile(spec DirectiveSpec) string {
	return path.Join(path.Dir(filepath.ToSlash(spec.Path)), filepath.ToSlash(spec.TemplateURL))
}

func valueString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(raw)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
