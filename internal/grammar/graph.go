package grammar

import "sort"

// Node is a single vertex of a robot description graph. Attrs carries the
// DOT attributes declared on the node (part type, geometry, and so on).
type Node struct {
	// ID uniquely identifies the node within its graph, including nested
	// subgraphs.
	ID string

	// Label is the display label, distinct from the DOT "label" attribute
	// only in that it defaults to the ID.
	Label string

	// Attrs maps attribute names to values. Values are plain strings, as
	// in DOT source.
	Attrs map[string]string
}

// Edge is a directed connection between two nodes, identified by their IDs.
type Edge struct {
	From string
	To   string

	// Attrs carries edge attributes such as the joint type.
	Attrs map[string]string
}

// Graph is a directed attributed graph with optional nested subgraphs.
//
// Node IDs are unique across the graph and all of its subgraphs. Every edge
// endpoint references a node declared in the graph or one of its subgraphs.
// Node, edge, and subgraph order is declaration order and is significant:
// the matcher's determinism guarantee is anchored on it.
type Graph struct {
	Name      string
	Nodes     []Node
	Edges     []Edge
	Subgraphs []*Graph
}

// AllNodes returns the graph's nodes followed by every subgraph's nodes,
// depth-first in declaration order.
func (g *Graph) AllNodes() []Node {
	nodes := make([]Node, 0, len(g.Nodes))
	nodes = append(nodes, g.Nodes...)
	for _, sg := range g.Subgraphs {
		nodes = append(nodes, sg.AllNodes()...)
	}
	return nodes
}

// AllEdges returns the graph's edges followed by every subgraph's edges,
// depth-first in declaration order.
func (g *Graph) AllEdges() []Edge {
	edges := make([]Edge, 0, len(g.Edges))
	edges = append(edges, g.Edges...)
	for _, sg := range g.Subgraphs {
		edges = append(edges, sg.AllEdges()...)
	}
	return edges
}

// FindNode returns the node with the given ID, searching subgraphs too.
func (g *Graph) FindNode(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	for _, sg := range g.Subgraphs {
		if n, ok := sg.FindNode(id); ok {
			return n, true
		}
	}
	return Node{}, false
}

// HasNode reports whether a node with the given ID exists in the graph or
// any subgraph.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.FindNode(id)
	return ok
}

// Clone returns a deep copy of the graph. Attribute maps are copied, so
// mutating the clone never affects the original.
func (g *Graph) Clone() *Graph {
	c := &Graph{Name: g.Name}
	c.Nodes = make([]Node, len(g.Nodes))
	for i, n := range g.Nodes {
		c.Nodes[i] = Node{ID: n.ID, Label: n.Label, Attrs: cloneAttrs(n.Attrs)}
	}
	c.Edges = make([]Edge, len(g.Edges))
	for i, e := range g.Edges {
		c.Edges[i] = Edge{From: e.From, To: e.To, Attrs: cloneAttrs(e.Attrs)}
	}
	for _, sg := range g.Subgraphs {
		c.Subgraphs = append(c.Subgraphs, sg.Clone())
	}
	return c
}

func cloneAttrs(attrs map[string]string) map[string]string {
	if attrs == nil {
		return nil
	}
	c := make(map[string]string, len(attrs))
	for k, v := range attrs {
		c[k] = v
	}
	return c
}

// sortedKeys returns the attribute keys in lexicographic order. Attribute
// maps have no inherent order; every place that serializes or compares
// attributes goes through this so output is reproducible.
func sortedKeys(attrs map[string]string) []string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
