// Package states implements the navigable views of a loaded project. Each
// state turns one symbol into a graph and knows which state every node of
// that graph leads to.
//
// The id-to-symbol arena a state keeps is only valid for the graph most
// recently returned by Data; Metadata and Transition calls with ids from an
// older graph have undefined results.
package states

import (
	"ngrev/internal/graph"
	"ngrev/internal/identity"
)

// Kind names the concrete state type.
type Kind string

const (
	KindModuleTree Kind = "module-tree"
	KindModule     Kind = "module"
	KindApp        Kind = "app"
	KindDirective  Kind = "directive"
	KindTemplate   Kind = "template"
	KindPipe       Kind = "pipe"
	KindProvider   Kind = "provider"
)

// Outcome classifies the result of a transition request.
type Outcome int

const (
	// NotFound means no symbol is behind the id: placeholders, synthetic
	// nodes, ids from another graph.
	NotFound Outcome = iota
	// SelfLoop means the id is the state's own root.
	SelfLoop
	// NonIntrospectable means the symbol exists but its internals cannot be
	// resolved by the compiler model.
	NonIntrospectable
	// Resolved means State holds the next state.
	Resolved
)

func (o Outcome) String() string {
	switch o {
	case NotFound:
		return "not-found"
	case SelfLoop:
		return "self-loop"
	case NonIntrospectable:
		return "non-introspectable"
	case Resolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Transition is the result of asking a state where a node leads.
type Transition struct {
	Outcome Outcome
	State   State
}

// State is one navigable view.
type State interface {
	Kind() Kind
	// SymbolID is the id of the symbol the state is rooted at.
	SymbolID() string
	// Data builds the graph. Repeated calls yield the same graph.
	Data() graph.VisualizationConfig
	// Metadata describes a node of the last graph, or returns nil.
	Metadata(id string) *identity.Metadata
	Transition(id string) Transition
	// Destroy releases the state's arena.
	Destroy()
}

// Next returns the state id leads to from s, or nil when it leads nowhere.
func Next(s State, id string) State {
	t := s.Transition(id)
	if t.Outcome != Resolved {
		return nil
	}
	return t.State
}

func resolved(s State) Transition {
	return Transition{Outcome: Resolved, State: s}
}

func outcome(o Outcome) Transition {
	return Transition{Outcome: o}
}
