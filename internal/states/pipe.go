package states

import (
	"ngrev/internal/graph"
	"ngrev/internal/identity"
	"ngrev/internal/model"
)

// PipeState shows a pipe and the injectables its constructor asks for.
type PipeState struct {
	arena
	pipe model.Pipe
	id   string
}

// NewPipeState returns the view of p.
func NewPipeState(ctx *Context, p model.Pipe) *PipeState {
	return &PipeState{arena: newArena(ctx), pipe: p, id: identity.ID(p)}
}

func (s *PipeState) Kind() Kind       { return KindPipe }
func (s *PipeState) SymbolID() string { return s.id }

// Data links the pipe to each dependency that resolves to an injectable.
// Dependencies without a token are skipped.
func (s *PipeState) Data() graph.VisualizationConfig {
	s.reset()
	b := graph.NewBuilder()

	root := model.PipeRef{Pipe: s.pipe}
	b.AddNode(symbolNode(s.id, s.pipe, identity.KindPipe, root))
	s.remember(s.id, root)

	skipped := 0
	for i, dep := range s.pipe.Dependencies() {
		if _, ok := identity.ProviderID(dep); !ok {
			skipped++
			continue
		}
		b.Link(s.id, s.addProvider(b, s.id, "deps", i, dep))
	}
	if skipped > 0 {
		s.ctx.Logger.Debug("Skipped pipe dependencies without a token",
			"pipe", s.id,
			"count", skipped,
		)
	}

	return graph.VisualizationConfig{
		Title:  s.pipe.Name(),
		Layout: graph.LayoutHierarchicalLR,
		Graph:  b.Graph(),
	}
}

func (s *PipeState) Transition(id string) Transition {
	if id == s.id {
		return outcome(SelfLoop)
	}
	return s.follow(id)
}
