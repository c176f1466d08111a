package grammar

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/graph/formats/dot"
	"gonum.org/v1/gonum/graph/formats/dot/ast"
)

// LoadGraphs parses a DOT file containing one or more graphs and returns
// them in file order. Each graph in a grammar file defines one rule.
//
// Supported DOT constructs: node statements with attribute lists, edge
// statements (including chains), nested subgraphs, and node/edge attribute
// defaults. Defaults declared in a graph are inherited by its subgraphs and
// merged under each element's explicit attributes.
//
// A file with no graphs is an error (ErrNoGraphs), as is any parse failure.
func LoadGraphs(path string) ([]*Graph, error) {
	file, err := dot.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return graphsFromFile(file, path)
}

// ParseGraphs is LoadGraphs over in-memory DOT source. Used by tests.
func ParseGraphs(src string) ([]*Graph, error) {
	file, err := dot.ParseString(src)
	if err != nil {
		return nil, fmt.Errorf("parse graph source: %w", err)
	}
	return graphsFromFile(file, "source")
}

func graphsFromFile(file *ast.File, origin string) ([]*Graph, error) {
	if len(file.Graphs) == 0 {
		return nil, fmt.Errorf("%s: %w", origin, ErrNoGraphs)
	}
	graphs := make([]*Graph, 0, len(file.Graphs))
	for _, ag := range file.Graphs {
		b := &dotBuilder{seen: make(map[string]bool)}
		g := b.graph(ag.ID, ag.Stmts, defaults{})
		graphs = append(graphs, g)
	}
	return graphs, nil
}

// defaults holds the active node/edge default attributes for one scope.
type defaults struct {
	node map[string]string
	edge map[string]string
}

func (d defaults) clone() defaults {
	return defaults{node: cloneAttrs(d.node), edge: cloneAttrs(d.edge)}
}

// dotBuilder converts a DOT statement list into a Graph. seen tracks node
// IDs across the whole top-level graph so implicit declarations (an edge
// endpoint never declared by a node statement) are created exactly once.
type dotBuilder struct {
	seen map[string]bool
}

func (b *dotBuilder) graph(id string, stmts []ast.Stmt, inherited defaults) *Graph {
	g := &Graph{Name: unquote(id)}
	d := inherited.clone()

	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.NodeStmt:
			b.node(g, s.Node.ID, s.Attrs, d)
		case *ast.EdgeStmt:
			b.edges(g, s, d)
		case *ast.AttrStmt:
			switch s.Kind {
			case ast.NodeKind:
				if d.node == nil {
					d.node = make(map[string]string)
				}
				mergeAttrs(d.node, s.Attrs)
			case ast.EdgeKind:
				if d.edge == nil {
					d.edge = make(map[string]string)
				}
				mergeAttrs(d.edge, s.Attrs)
			}
		case *ast.Subgraph:
			g.Subgraphs = append(g.Subgraphs, b.graph(subgraphName(s.ID), s.Stmts, d))
		case *ast.Attr:
			// Graph-level attribute; nothing in the data model uses these.
		}
	}
	return g
}

// node declares a node in g unless its ID was already declared anywhere in
// the top-level graph, in which case the attributes are merged into the
// existing declaration.
func (b *dotBuilder) node(g *Graph, rawID string, attrs []*ast.Attr, d defaults) string {
	id := unquote(rawID)
	if b.seen[id] {
		if len(attrs) > 0 {
			if n := findNodePtr(g, id); n != nil {
				mergeAttrs(n.Attrs, attrs)
			}
		}
		return id
	}
	b.seen[id] = true
	n := Node{ID: id, Label: id, Attrs: cloneAttrs(d.node)}
	if n.Attrs == nil {
		n.Attrs = make(map[string]string)
	}
	mergeAttrs(n.Attrs, attrs)
	if label, ok := n.Attrs["label"]; ok {
		n.Label = label
	}
	g.Nodes = append(g.Nodes, n)
	return id
}

// edges expands an edge statement, including chains (a -> b -> c) and
// subgraph endpoints, into individual edges declared in g.
func (b *dotBuilder) edges(g *Graph, s *ast.EdgeStmt, d defaults) {
	from := b.vertex(g, s.From, d)
	for e := s.To; e != nil; e = e.To {
		to := b.vertex(g, e.Vertex, d)
		for _, f := range from {
			for _, t := range to {
				attrs := cloneAttrs(d.edge)
				if attrs == nil {
					attrs = make(map[string]string)
				}
				mergeAttrs(attrs, s.Attrs)
				g.Edges = append(g.Edges, Edge{From: f, To: t, Attrs: attrs})
			}
		}
		from = to
	}
}

// vertex resolves an edge endpoint to node IDs. A plain node endpoint
// yields one ID (declaring the node if needed); a subgraph endpoint yields
// every node the subgraph declares.
func (b *dotBuilder) vertex(g *Graph, v ast.Vertex, d defaults) []string {
	switch vt := v.(type) {
	case *ast.Node:
		return []string{b.node(g, vt.ID, nil, d)}
	case *ast.Subgraph:
		sg := b.graph(subgraphName(vt.ID), vt.Stmts, d)
		g.Subgraphs = append(g.Subgraphs, sg)
		ids := make([]string, 0, len(sg.Nodes))
		for _, n := range sg.Nodes {
			ids = append(ids, n.ID)
		}
		return ids
	}
	return nil
}

func findNodePtr(g *Graph, id string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	for _, sg := range g.Subgraphs {
		if n := findNodePtr(sg, id); n != nil {
			return n
		}
	}
	return nil
}

func mergeAttrs(dst map[string]string, attrs []*ast.Attr) {
	for _, a := range attrs {
		dst[unquote(a.Key)] = unquote(a.Val)
	}
}

// subgraphName strips the optional "cluster" prefix DOT tools attach and
// the "subgraph" keyword artifacts, leaving the bare name ("L", "R", ...).
func subgraphName(id string) string {
	name := unquote(id)
	name = strings.TrimPrefix(name, "cluster_")
	return strings.TrimPrefix(name, "cluster")
}

// unquote removes surrounding double quotes from a DOT identifier and
// unescapes embedded quotes. Unquoted identifiers pass through unchanged.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
		s = strings.ReplaceAll(s, `\"`, `"`)
	}
	return s
}
