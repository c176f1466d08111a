package grammar

import "fmt"

// Rule is one rewrite rule of the grammar: match LHS, replace with RHS.
//
// Common maps LHS node IDs to RHS node IDs for the nodes shared by both
// sides. When a rule is applied, matched nodes in the correspondence
// survive in place and edges crossing the matched region's boundary are
// rewired through it; a boundary edge touching a matched node outside the
// correspondence is a rule defect (ErrDanglingEdge at application time).
//
// Rules are built once by NewRule and never mutated.
type Rule struct {
	Name   string
	LHS    *Graph
	RHS    *Graph
	Common map[string]string
}

// NewRule builds a rule from a combined rule graph.
//
// Convention: the rule graph holds its pattern in a subgraph named "L" and
// its replacement in a subgraph named "R". A node belongs to a side if it
// is declared in that side's subgraph or referenced by one of its edges;
// DOT declares each node once, so a node shared by both sides is declared
// in one place and referenced from the other. Nodes declared at the rule's
// top level belong to both sides. Every node on both sides maps to itself
// in the correspondence.
//
// Edges declared inside a side belong to that side. A top-level edge
// belongs to each side that contains both its endpoints; one with no such
// side is malformed.
func NewRule(g *Graph) (*Rule, error) {
	var left, right *Graph
	for _, sg := range g.Subgraphs {
		switch sg.Name {
		case "L":
			left = sg
		case "R":
			right = sg
		}
	}
	if left == nil {
		return nil, &RuleError{Rule: g.Name, Err: fmt.Errorf(`%w: missing "L" subgraph`, ErrMalformedRule)}
	}
	if right == nil {
		return nil, &RuleError{Rule: g.Name, Err: fmt.Errorf(`%w: missing "R" subgraph`, ErrMalformedRule)}
	}

	nodeByID := make(map[string]Node)
	for _, n := range g.AllNodes() {
		nodeByID[n.ID] = n
	}

	lhsIDs := sideMembers(g, left)
	rhsIDs := sideMembers(g, right)
	inLHS := toSet(lhsIDs)
	inRHS := toSet(rhsIDs)

	lhs := &Graph{Name: g.Name + "/L"}
	rhs := &Graph{Name: g.Name + "/R"}
	for _, id := range lhsIDs {
		n := nodeByID[id]
		lhs.Nodes = append(lhs.Nodes, Node{ID: n.ID, Label: n.Label, Attrs: cloneAttrs(n.Attrs)})
	}
	for _, id := range rhsIDs {
		n := nodeByID[id]
		rhs.Nodes = append(rhs.Nodes, Node{ID: n.ID, Label: n.Label, Attrs: cloneAttrs(n.Attrs)})
	}

	common := make(map[string]string)
	for _, id := range lhsIDs {
		if inRHS[id] {
			common[id] = id
		}
	}

	for _, e := range left.AllEdges() {
		lhs.Edges = append(lhs.Edges, Edge{From: e.From, To: e.To, Attrs: cloneAttrs(e.Attrs)})
	}
	for _, e := range right.AllEdges() {
		rhs.Edges = append(rhs.Edges, Edge{From: e.From, To: e.To, Attrs: cloneAttrs(e.Attrs)})
	}

	// Top-level edges attach to whichever side has both endpoints.
	for _, e := range g.Edges {
		placed := false
		if inLHS[e.From] && inLHS[e.To] {
			lhs.Edges = append(lhs.Edges, Edge{From: e.From, To: e.To, Attrs: cloneAttrs(e.Attrs)})
			placed = true
		}
		if inRHS[e.From] && inRHS[e.To] {
			rhs.Edges = append(rhs.Edges, Edge{From: e.From, To: e.To, Attrs: cloneAttrs(e.Attrs)})
			placed = true
		}
		if !placed {
			return nil, &RuleError{
				Rule:    g.Name,
				Element: e.From + " -> " + e.To,
				Err:     fmt.Errorf("%w: edge spans pattern and replacement", ErrMalformedRule),
			}
		}
	}

	return &Rule{Name: g.Name, LHS: lhs, RHS: rhs, Common: common}, nil
}

// sideMembers returns the node IDs belonging to one side of a rule, in
// deterministic order: the rule's top-level nodes, the side's declared
// nodes, then nodes first referenced by the side's edges.
func sideMembers(rule, side *Graph) []string {
	var ids []string
	seen := make(map[string]bool)
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, n := range rule.Nodes {
		add(n.ID)
	}
	for _, n := range side.AllNodes() {
		add(n.ID)
	}
	for _, e := range side.AllEdges() {
		add(e.From)
		add(e.To)
	}
	return ids
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// NewRules converts each loaded graph into a rule, in order.
func NewRules(graphs []*Graph) ([]*Rule, error) {
	rules := make([]*Rule, 0, len(graphs))
	for _, g := range graphs {
		r, err := NewRule(g)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}
