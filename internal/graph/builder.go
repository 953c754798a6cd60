package graph

// Builder accumulates a graph. Nodes are de-duplicated by id, first insert
// wins; edges are kept as added unless the builder was created with
// UniqueEdges.
type Builder struct {
	nodes     []Node
	nodeIdx   map[string]int
	edges     []Edge
	edgeSeen  map[Edge]bool
	uniqEdges bool
}

// NewBuilder returns a builder that keeps every edge.
func NewBuilder() *Builder {
	return &Builder{nodeIdx: make(map[string]int)}
}

// NewUnionBuilder returns a builder that also de-duplicates edges.
func NewUnionBuilder() *Builder {
	b := NewBuilder()
	b.uniqEdges = true
	b.edgeSeen = make(map[Edge]bool)
	return b
}

// AddNode adds n unless a node with the same id exists. It reports whether
// the node was added.
func (b *Builder) AddNode(n Node) bool {
	if _, ok := b.nodeIdx[n.ID]; ok {
		return false
	}
	b.nodeIdx[n.ID] = len(b.nodes)
	b.nodes = append(b.nodes, n)
	return true
}

// AddEdge appends an edge.
func (b *Builder) AddEdge(e Edge) {
	if b.uniqEdges {
		if b.edgeSeen[e] {
			return
		}
		b.edgeSeen[e] = true
	}
	b.edges = append(b.edges, e)
}

// Link adds an edge pointing from one id to another.
func (b *Builder) Link(from, to string) {
	b.AddEdge(Edge{From: from, To: to, Direction: DirectionTo})
}

// Merge adds every node and edge of g that passes keep. A nil keep accepts
// everything.
func (b *Builder) Merge(g Graph, keep func(id string) bool) {
	for _, n := range g.Nodes {
		if keep == nil || keep(n.ID) {
			b.AddNode(n)
		}
	}
	for _, e := range g.Edges {
		if keep == nil || (keep(e.From) && keep(e.To)) {
			b.AddEdge(e)
		}
	}
}

// Graph returns the accumulated graph.
func (b *Builder) Graph() Graph {
	g := Graph{
		Nodes: make([]Node, len(b.nodes)),
		Edges: make([]Edge, len(b.edges)),
	}
	copy(g.Nodes, b.nodes)
	copy(g.Edges, b.edges)
	return g
}
