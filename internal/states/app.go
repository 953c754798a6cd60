package states

import (
	"ngrev/internal/graph"
	"ngrev/internal/identity"
)

// AppID is the symbol id of the application view.
const AppID = "app"

// AppState is the whole application at once: every module tree and, unless
// the modules-only filter is on, every directive, provider and pipe.
type AppState struct {
	arena
}

// NewAppState returns the application view over ctx.
func NewAppState(ctx *Context) *AppState {
	return &AppState{arena: newArena(ctx)}
}

func (s *AppState) Kind() Kind       { return KindApp }
func (s *AppState) SymbolID() string { return AppID }

// Data unions the graphs of the per-symbol states. Filters are read on every
// call.
func (s *AppState) Data() graph.VisualizationConfig {
	s.reset()
	b := graph.NewUnionBuilder()
	opts := *s.ctx.Options

	keep := func(id string) bool {
		return opts.ShowLibs || !identity.IsThirdPartyID(id)
	}

	var parts []State
	ws := s.ctx.Workspace
	for _, m := range ws.Modules() {
		parts = append(parts, NewModuleTreeState(s.ctx, m))
	}
	if !opts.ModulesOnly {
		for _, d := range ws.Directives() {
			parts = append(parts, NewDirectiveState(s.ctx, d))
		}
		for _, inj := range ws.Injectables() {
			parts = append(parts, NewProviderState(s.ctx, inj))
		}
		for _, p := range ws.Pipes() {
			parts = append(parts, NewPipeState(s.ctx, p))
		}
	}

	for _, part := range parts {
		b.Merge(part.Data().Graph, keep)
		s.absorb(part, keep)
		part.Destroy()
	}

	return graph.VisualizationConfig{
		Title:  "Application",
		Layout: graph.LayoutRegular,
		Graph:  b.Graph(),
	}
}

// absorb copies the arena entries of a part so nodes of the union stay
// navigable.
func (s *AppState) absorb(part State, keep func(string) bool) {
	var src *arena
	switch p := part.(type) {
	case *ModuleTreeState:
		src = &p.arena
	case *DirectiveState:
		src = &p.arena
	case *ProviderState:
		src = &p.arena
	case *PipeState:
		src = &p.arena
	default:
		return
	}
	for id, ref := range src.symbols {
		if _, ok := s.symbols[id]; !ok && keep(id) {
			s.symbols[id] = ref
		}
	}
	for id, ref := range src.opaque {
		if _, ok := s.opaque[id]; !ok && keep(id) {
			s.opaque[id] = ref
		}
	}
}

// Transition follows a node of the union; the view has no root of its own.
func (s *AppState) Transition(id string) Transition {
	return s.follow(id)
}
