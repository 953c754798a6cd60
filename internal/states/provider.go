package states

import (
	"ngrev/internal/graph"
	"ngrev/internal/identity"
	"ngrev/internal/model"
)

// ProviderState shows an injectable and its dependencies.
type ProviderState struct {
	arena
	injectable model.Injectable
	id         string
}

// NewProviderState returns the view of inj.
func NewProviderState(ctx *Context, inj model.Injectable) *ProviderState {
	id, ok := identity.ProviderID(inj)
	if !ok {
		id = identity.ID(inj)
	}
	return &ProviderState{arena: newArena(ctx), injectable: inj, id: id}
}

func (s *ProviderState) Kind() Kind       { return KindProvider }
func (s *ProviderState) SymbolID() string { return s.id }

// Data draws a single arrow per distinct dependency. One occurrence of the
// provider among its own dependencies is dropped before drawing, so a self
// loop only shows when the provider really depends on itself more than once.
func (s *ProviderState) Data() graph.VisualizationConfig {
	s.reset()
	b := graph.NewBuilder()

	root := model.InjectableRef{Injectable: s.injectable}
	n := symbolNode(s.id, s.injectable, identity.KindProvider, root)
	if name, ok := identity.ProviderName(s.injectable); ok {
		n.Label = name
	}
	b.AddNode(n)
	s.remember(s.id, root)

	deps := s.injectable.Dependencies()
	counts := make(map[string]int)
	var order []int
	for i, dep := range deps {
		id, ok := identity.ProviderID(dep)
		if !ok {
			b.Link(s.id, s.addProvider(b, s.id, "deps", i, dep))
			continue
		}
		if counts[id] == 0 {
			order = append(order, i)
		}
		counts[id]++
	}
	if counts[s.id] > 0 {
		counts[s.id]--
	}

	for _, i := range order {
		dep := deps[i]
		id, _ := identity.ProviderID(dep)
		if counts[id] == 0 {
			continue
		}
		b.Link(s.id, s.addProvider(b, s.id, "deps", i, dep))
	}

	return graph.VisualizationConfig{
		Title:  n.Label,
		Layout: graph.LayoutHierarchicalLR,
		Graph:  b.Graph(),
	}
}

func (s *ProviderState) Transition(id string) Transition {
	if id == s.id {
		return outcome(SelfLoop)
	}
	return s.follow(id)
}
