package states

import (
	"ngrev/internal/graph"
	"ngrev/internal/identity"
	"ngrev/internal/model"
)

// ModuleTreeState shows a module with the modules it imports and the modules
// its routes load lazily.
type ModuleTreeState struct {
	arena
	module model.Module
	id     string
}

// NewModuleTreeState roots a module tree at m.
func NewModuleTreeState(ctx *Context, m model.Module) *ModuleTreeState {
	return &ModuleTreeState{arena: newArena(ctx), module: m, id: identity.ID(m)}
}

func (s *ModuleTreeState) Kind() Kind       { return KindModuleTree }
func (s *ModuleTreeState) SymbolID() string { return s.id }

func (s *ModuleTreeState) Data() graph.VisualizationConfig {
	s.reset()
	b := graph.NewBuilder()

	root := model.ModuleRef{Module: s.module}
	b.AddNode(symbolNode(s.id, s.module, identity.KindModule, root))
	s.remember(s.id, root)

	for _, imp := range s.module.Imports() {
		id := s.addModule(b, imp)
		b.Link(s.id, id)
	}

	lazy := make(map[string]bool)
	for _, ref := range model.LazyReferences(s.module.Routes()) {
		target, ok := s.ctx.ResolveLazy(s.module, ref)
		if !ok {
			s.ctx.Logger.Debug("Lazy module reference not resolved",
				"module", s.id,
				"loadChildren", ref,
			)
			continue
		}
		id := identity.ID(target)
		if lazy[id] {
			continue
		}
		lazy[id] = true
		s.addModule(b, target)
		b.AddEdge(graph.Edge{From: s.id, To: id, Direction: graph.DirectionTo, Dashes: true})
	}

	return graph.VisualizationConfig{
		Title:  s.module.Name(),
		Layout: graph.LayoutRegular,
		Graph:  b.Graph(),
	}
}

func (s *ModuleTreeState) addModule(b *graph.Builder, m model.Module) string {
	id := identity.ID(m)
	ref := model.ModuleRef{Module: m}
	if b.AddNode(symbolNode(id, m, identity.KindModule, ref)) {
		s.remember(id, ref)
	}
	return id
}

// Transition opens the module detail for the root and pivots the tree to any
// other module.
func (s *ModuleTreeState) Transition(id string) Transition {
	if id == s.id {
		if !s.module.Introspectable() {
			return outcome(NonIntrospectable)
		}
		return resolved(NewModuleState(s.ctx, s.module))
	}
	return s.follow(id)
}
