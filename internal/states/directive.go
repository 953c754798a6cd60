package states

import (
	"ngrev/internal/graph"
	"ngrev/internal/identity"
	"ngrev/internal/model"
)

// DirectiveState shows a directive or component with its injected
// dependencies and the providers it declares. Components also link to their
// template.
type DirectiveState struct {
	arena
	directive model.Directive
	id        string
}

// NewDirectiveState returns the view of d.
func NewDirectiveState(ctx *Context, d model.Directive) *DirectiveState {
	return &DirectiveState{arena: newArena(ctx), directive: d, id: identity.ID(d)}
}

func (s *DirectiveState) Kind() Kind       { return KindDirective }
func (s *DirectiveState) SymbolID() string { return s.id }

func (s *DirectiveState) Data() graph.VisualizationConfig {
	s.reset()
	b := graph.NewBuilder()

	root := model.RefOfDirective(s.directive)
	b.AddNode(symbolNode(s.id, s.directive, identity.KindComponentOrDirective, root))
	s.remember(s.id, root)

	if s.directive.IsComponent() {
		id := placeholderID(s.id, "template")
		b.AddNode(metaNode(id, "Template"))
		b.Link(s.id, id)
		s.remember(id, model.TemplateRef{Component: s.directive})
	}

	s.addInjectables(b, "deps", "Dependencies", s.directive.Dependencies())
	s.addInjectables(b, "providers", "Providers", s.directive.Providers())

	return graph.VisualizationConfig{
		Title:  s.directive.Name(),
		Layout: graph.LayoutHierarchicalLR,
		Graph:  b.Graph(),
	}
}

// addInjectables adds one node per distinct injectable but one edge per
// occurrence, so repeated dependencies show as parallel arrows.
func (s *DirectiveState) addInjectables(b *graph.Builder, key, label string, injs []model.Injectable) {
	if len(injs) == 0 {
		return
	}
	group := placeholderID(s.id, key)
	b.AddNode(metaNode(group, label))
	b.Link(s.id, group)
	for i, inj := range injs {
		b.Link(group, s.addProvider(b, s.id, key, i, inj))
	}
}

func (s *DirectiveState) Transition(id string) Transition {
	if id == s.id {
		return outcome(SelfLoop)
	}
	return s.follow(id)
}
