// Package graph holds the renderable graph returned by every navigation state.
package graph

import "ngrev/internal/identity"

// Layout is a hint to the renderer.
type Layout string

const (
	LayoutHierarchicalLR Layout = "hierarchical-lr"
	LayoutHierarchicalUD Layout = "hierarchical-ud"
	LayoutRegular        Layout = "regular"
)

// Direction controls arrow heads on an edge.
type Direction string

const (
	DirectionNone Direction = "none"
	DirectionTo   Direction = "to"
	DirectionFrom Direction = "from"
	DirectionBoth Direction = "both"
)

// NodeType tells the renderer how to draw a node.
type NodeType struct {
	IsFrameworkSymbol bool                `json:"angular"`
	Kind              identity.SymbolKind `json:"type"`
}

// Node is a graph vertex. Data is the owning state's pointer back to the
// symbol and never leaves the process.
type Node struct {
	ID    string    `json:"id"`
	Label string    `json:"label"`
	Type  *NodeType `json:"type,omitempty"`
	Data  any       `json:"-"`
}

// Edge connects two node ids.
type Edge struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Direction Direction `json:"direction,omitempty"`
	Dashes    bool      `json:"dashes,omitempty"`
}

// Graph is the unit returned by a state.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// VisualizationConfig is a graph plus presentation hints.
type VisualizationConfig struct {
	Title  string `json:"title"`
	Layout Layout `json:"layout"`
	Graph  Graph  `json:"graph"`
}

// Stats summarizes a graph.
type Stats struct {
	TotalNodes int `json:"totalNodes"`
	TotalEdges int `json:"totalEdges"`
	Dashed     int `json:"dashedEdges"`
}

// Stats returns node and edge counts.
func (g Graph) Stats() Stats {
	s := Stats{TotalNodes: len(g.Nodes), TotalEdges: len(g.Edges)}
	for _, e := range g.Edges {
		if e.Dashes {
			s.Dashed++
		}
	}
	return s
}

// Node returns the node with the given id.
func (g Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}
