package states

import (
	"ngrev/internal/graph"
	"ngrev/internal/identity"
	"ngrev/internal/model"
)

// ModuleState shows a module's bootstrap components, declarations, exports
// and providers, each group behind a placeholder node.
type ModuleState struct {
	arena
	module model.Module
	id     string
}

// NewModuleState returns the detail view of m.
func NewModuleState(ctx *Context, m model.Module) *ModuleState {
	return &ModuleState{arena: newArena(ctx), module: m, id: identity.ID(m)}
}

func (s *ModuleState) Kind() Kind       { return KindModule }
func (s *ModuleState) SymbolID() string { return s.id }

func (s *ModuleState) Data() graph.VisualizationConfig {
	s.reset()
	b := graph.NewBuilder()

	root := model.ModuleRef{Module: s.module}
	b.AddNode(symbolNode(s.id, s.module, identity.KindModule, root))
	s.remember(s.id, root)

	if bootstrap := s.module.Bootstrap(); len(bootstrap) > 0 {
		group := s.group(b, "bootstrap", "Bootstrap")
		for _, d := range bootstrap {
			if id, ok := s.addRef(b, model.RefOfDirective(d)); ok {
				b.Link(group, id)
			}
		}
	}

	s.addRefGroup(b, "declarations", "Declarations", s.module.Declarations())
	s.addRefGroup(b, "exports", "Exports", s.module.Exports())

	if providers := s.module.Providers(); len(providers) > 0 {
		group := s.group(b, "providers", "Providers")
		seen := make(map[string]bool)
		for i, p := range providers {
			if id, ok := identity.ProviderID(p); ok {
				if seen[id] {
					continue
				}
				seen[id] = true
			}
			b.Link(group, s.addProvider(b, s.id, "providers", i, p))
		}
	}

	return graph.VisualizationConfig{
		Title:  s.module.Name(),
		Layout: graph.LayoutHierarchicalLR,
		Graph:  b.Graph(),
	}
}

func (s *ModuleState) group(b *graph.Builder, key, label string) string {
	id := placeholderID(s.id, key)
	b.AddNode(metaNode(id, label))
	b.Link(s.id, id)
	return id
}

func (s *ModuleState) addRefGroup(b *graph.Builder, key, label string, refs []model.SymbolRef) {
	if len(refs) == 0 {
		return
	}
	group := s.group(b, key, label)
	for _, ref := range refs {
		if id, ok := s.addRef(b, ref); ok {
			b.Link(group, id)
		}
	}
}

func (s *ModuleState) Transition(id string) Transition {
	if id == s.id {
		return outcome(SelfLoop)
	}
	return s.follow(id)
}
