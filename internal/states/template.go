package states

import (
	"fmt"

	"ngrev/internal/graph"
	"ngrev/internal/identity"
	"ngrev/internal/model"
)

// TemplateErrorID is the id of the node a broken template renders as.
const TemplateErrorID = "template-error"

// TemplateState shows the element tree of a component template.
type TemplateState struct {
	arena
	component model.Directive
	id        string
	rootID    string
}

// NewTemplateState returns the template view of component c.
func NewTemplateState(ctx *Context, c model.Directive) *TemplateState {
	id := identity.ID(c)
	return &TemplateState{
		arena:     newArena(ctx),
		component: c,
		id:        id,
		rootID:    placeholderID(id, "template"),
	}
}

func (s *TemplateState) Kind() Kind       { return KindTemplate }
func (s *TemplateState) SymbolID() string { return s.id }

// Data walks the template. Element ids (el-0, el-1, ...) are only unique
// within one call. A template with errors renders as a single error node.
func (s *TemplateState) Data() graph.VisualizationConfig {
	s.reset()
	b := graph.NewBuilder()
	b.AddNode(metaNode(s.rootID, "Template"))

	cfg := graph.VisualizationConfig{
		Title:  s.component.Name(),
		Layout: graph.LayoutHierarchicalUD,
	}

	tpl := s.component.TemplateAST()
	if tpl.Failed() {
		b.AddNode(metaNode(TemplateErrorID, tpl.ErrorText()))
		b.Link(s.rootID, TemplateErrorID)
		cfg.Graph = b.Graph()
		return cfg
	}
	if tpl != nil {
		counter := 0
		s.walk(b, s.rootID, tpl.Roots, &counter)
	}

	cfg.Graph = b.Graph()
	return cfg
}

func (s *TemplateState) walk(b *graph.Builder, parent string, elements []*model.TemplateElement, counter *int) {
	for _, el := range elements {
		id := fmt.Sprintf("el-%d", *counter)
		*counter++

		ref := model.ElementRef{Element: el}
		for _, tr := range el.Directives {
			d, ok := s.ctx.Directive(tr)
			if !ok {
				s.ctx.Logger.Debug("Template directive not in workspace",
					"component", s.id,
					"element", el.Name,
					"directive", tr.Name,
				)
				continue
			}
			ref.Directives = append(ref.Directives, d)
			if ref.Component == nil && d.IsComponent() {
				ref.Component = d
			}
		}

		kind := identity.KindHTMLElement
		switch {
		case ref.Component != nil:
			kind = identity.KindComponentWithDirective
		case len(ref.Directives) > 0:
			kind = identity.KindHTMLElementWithDirective
		}

		b.AddNode(graph.Node{
			ID:    id,
			Label: el.Name,
			Type: &graph.NodeType{
				IsFrameworkSymbol: identity.IsFrameworkSymbol(ref.Component),
				Kind:              kind,
			},
			Data: ref,
		})
		s.remember(id, ref)
		b.Link(parent, id)

		s.walk(b, id, el.Children, counter)
	}
}

// Transition opens the component rendered by an element.
func (s *TemplateState) Transition(id string) Transition {
	if id == s.rootID {
		return outcome(SelfLoop)
	}
	return s.follow(id)
}
