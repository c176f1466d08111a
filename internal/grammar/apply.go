package grammar

import (
	"fmt"
	"strconv"
)

// ApplyRule rewrites target according to rule at the embedding m, returning
// a new graph. The target is never mutated.
//
// Matched nodes whose pattern node is in the rule's correspondence survive
// in place, keeping their ID and attributes with the RHS declaration's
// attributes overlaid. Matched nodes outside the correspondence are
// removed. RHS-only nodes are spliced in with fresh IDs. The pattern's
// edge image is replaced by the RHS's edges; every other edge is kept,
// rewired through the correspondence where it touches the matched region.
// An edge left touching a removed node is a defect in the rule: ApplyRule
// fails with an error wrapping ErrDanglingEdge rather than dropping it.
//
// The result is flat (no subgraphs) and well formed: every edge endpoint
// references a node present in the result, and node IDs are unique.
func ApplyRule(rule *Rule, target *Graph, m Mapping) (*Graph, error) {
	matched := make(map[string]bool, len(m.Nodes))
	for _, tid := range m.Nodes {
		matched[tid] = true
	}
	matchedEdge := make(map[int]bool, len(m.Edges))
	for _, tei := range m.Edges {
		matchedEdge[tei] = true
	}

	// reverse maps a matched target node back to its pattern node.
	reverse := make(map[string]string, len(m.Nodes))
	for pid, tid := range m.Nodes {
		reverse[tid] = pid
	}

	// survives maps a matched target node ID to the RHS node it now embodies.
	survives := make(map[string]string, len(rule.Common))
	// replacement maps RHS node IDs to result node IDs.
	replacement := make(map[string]string, len(rule.RHS.Nodes))
	for pid, rid := range rule.Common {
		if tid, ok := m.Nodes[pid]; ok {
			survives[tid] = rid
			replacement[rid] = tid
		}
	}

	rhsAttrs := make(map[string]Node, len(rule.RHS.Nodes))
	for _, rn := range rule.RHS.AllNodes() {
		rhsAttrs[rn.ID] = rn
	}

	out := &Graph{Name: target.Name}
	taken := make(map[string]bool)

	for _, n := range target.AllNodes() {
		if matched[n.ID] && survives[n.ID] == "" {
			continue // removed with the pattern region
		}
		node := Node{ID: n.ID, Label: n.Label, Attrs: cloneAttrs(n.Attrs)}
		if rid, ok := survives[n.ID]; ok {
			// Overlay the RHS declaration's attributes on the survivor.
			if node.Attrs == nil {
				node.Attrs = make(map[string]string)
			}
			for k, v := range rhsAttrs[rid].Attrs {
				node.Attrs[k] = v
			}
		}
		out.Nodes = append(out.Nodes, node)
		taken[n.ID] = true
	}

	// Splice in the RHS-only nodes. IDs are kept when free and
	// deterministically suffixed otherwise, so repeated applications of the
	// same rule never collide.
	for _, rn := range rule.RHS.AllNodes() {
		if _, ok := replacement[rn.ID]; ok {
			continue // correspondence target, already present
		}
		id := freshID(rn.ID, taken)
		taken[id] = true
		replacement[rn.ID] = id
		out.Nodes = append(out.Nodes, Node{ID: id, Label: rn.Label, Attrs: cloneAttrs(rn.Attrs)})
	}

	// rewire resolves an edge endpoint in the target to its endpoint in the
	// result. Surviving nodes keep their IDs, so only endpoints on removed
	// nodes can fail.
	rewire := func(id string) (string, error) {
		if !matched[id] || survives[id] != "" {
			return id, nil
		}
		return "", &RuleError{Rule: rule.Name, Element: id, Err: ErrDanglingEdge}
	}

	for tei, e := range target.AllEdges() {
		if matchedEdge[tei] {
			// The pattern's edge image is replaced by the RHS's edges.
			continue
		}
		from, err := rewire(e.From)
		if err != nil {
			return nil, fmt.Errorf("rewire edge %s -> %s: %w", e.From, e.To, err)
		}
		to, err := rewire(e.To)
		if err != nil {
			return nil, fmt.Errorf("rewire edge %s -> %s: %w", e.From, e.To, err)
		}
		out.Edges = append(out.Edges, Edge{From: from, To: to, Attrs: cloneAttrs(e.Attrs)})
	}

	for _, e := range rule.RHS.AllEdges() {
		out.Edges = append(out.Edges, Edge{
			From:  replacement[e.From],
			To:    replacement[e.To],
			Attrs: cloneAttrs(e.Attrs),
		})
	}

	return out, nil
}

// freshID returns base if unused, otherwise base_2, base_3, ...
func freshID(base string, taken map[string]bool) string {
	if !taken[base] {
		return base
	}
	for i := 2; ; i++ {
		id := base + "_" + strconv.Itoa(i)
		if !taken[id] {
			return id
		}
	}
}
