package grammar

// Mapping is one embedding of a rule's pattern in a target graph.
//
// Nodes maps pattern node IDs to target node IDs (injective). Edges maps
// pattern edge positions to target edge positions, both in AllEdges order.
// A mapping is scratch data: produced by FindMatches, consumed by
// ApplyRule, never retained.
type Mapping struct {
	Nodes map[string]string
	Edges map[int]int
}

// FindMatches enumerates every embedding of pattern in target.
//
// An embedding assigns each pattern node a distinct target node such that
// node attribute constraints hold and every pattern edge has a distinct
// target edge between the assigned endpoints with matching attributes.
// Attribute matching is a predicate, not equality of the full attribute
// map: each attribute declared on a pattern element must be present on the
// target element with the same value, and an empty pattern value matches
// any target value. Attributes the pattern does not declare are ignored.
//
// Results are deterministic: pattern nodes are assigned in declaration
// order and candidate target nodes are tried in declaration order, so
// repeated calls on equal inputs return mappings in the same order. The
// derivation driver's "first match" semantics rely on this.
//
// The search is an explicit-stack backtrack over partial assignments, so
// pattern size bounds memory, not goroutine stack depth.
func FindMatches(pattern, target *Graph) []Mapping {
	pnodes := pattern.AllNodes()
	tnodes := target.AllNodes()
	pedges := pattern.AllEdges()
	tedges := target.AllEdges()

	if len(pnodes) == 0 || len(pnodes) > len(tnodes) {
		return nil
	}

	// adjacent[i] lists the pattern edges whose endpoints are both assigned
	// once node i is; these are the constraints to check when extending a
	// partial assignment by node i.
	nodePos := make(map[string]int, len(pnodes))
	for i, n := range pnodes {
		nodePos[n.ID] = i
	}
	adjacent := make([][]int, len(pnodes))
	for ei, e := range pedges {
		fi, fok := nodePos[e.From]
		ti, tok := nodePos[e.To]
		if !fok || !tok {
			continue
		}
		last := fi
		if ti > last {
			last = ti
		}
		adjacent[last] = append(adjacent[last], ei)
	}

	var matches []Mapping
	assign := make([]int, len(pnodes)) // pattern node pos -> target node pos
	cursor := make([]int, len(pnodes)) // next candidate to try at each depth
	used := make([]bool, len(tnodes))

	depth := 0
	for depth >= 0 {
		if depth == len(pnodes) {
			if m, ok := assignEdges(pedges, tedges, pnodes, tnodes, assign, nodePos); ok {
				matches = append(matches, m)
			}
			depth--
			if depth >= 0 {
				used[assign[depth]] = false
			}
			continue
		}

		advanced := false
		for c := cursor[depth]; c < len(tnodes); c++ {
			if used[c] || !nodeMatches(pnodes[depth], tnodes[c]) {
				continue
			}
			assign[depth] = c
			if !edgesConsistent(adjacent[depth], pedges, tedges, pnodes, tnodes, assign, nodePos) {
				continue
			}
			cursor[depth] = c + 1
			used[c] = true
			depth++
			if depth < len(pnodes) {
				cursor[depth] = 0
			}
			advanced = true
			break
		}
		if !advanced {
			depth--
			if depth >= 0 {
				used[assign[depth]] = false
			}
		}
	}
	return matches
}

// edgesConsistent checks that every pattern edge in check has at least one
// target edge between the assigned endpoint images. This prunes the node
// search; the injective edge assignment happens in assignEdges.
func edgesConsistent(check []int, pedges, tedges []Edge, pnodes, tnodes []Node, assign []int, nodePos map[string]int) bool {
	for _, ei := range check {
		pe := pedges[ei]
		from := tnodes[assign[nodePos[pe.From]]].ID
		to := tnodes[assign[nodePos[pe.To]]].ID
		found := false
		for _, te := range tedges {
			if te.From == from && te.To == to && attrsMatch(pe.Attrs, te.Attrs) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// assignEdges finds an injective assignment of pattern edges to target
// edges for a complete node assignment, again by explicit-stack backtrack.
// Candidate target edges are tried in declaration order.
func assignEdges(pedges, tedges []Edge, pnodes, tnodes []Node, assign []int, nodePos map[string]int) (Mapping, bool) {
	edgeMap := make([]int, len(pedges))
	cursor := make([]int, len(pedges))
	usedEdge := make([]bool, len(tedges))

	depth := 0
	for depth >= 0 && depth < len(pedges) {
		pe := pedges[depth]
		from := tnodes[assign[nodePos[pe.From]]].ID
		to := tnodes[assign[nodePos[pe.To]]].ID

		advanced := false
		for c := cursor[depth]; c < len(tedges); c++ {
			te := tedges[c]
			if usedEdge[c] || te.From != from || te.To != to || !attrsMatch(pe.Attrs, te.Attrs) {
				continue
			}
			edgeMap[depth] = c
			cursor[depth] = c + 1
			usedEdge[c] = true
			depth++
			if depth < len(pedges) {
				cursor[depth] = 0
			}
			advanced = true
			break
		}
		if !advanced {
			depth--
			if depth >= 0 {
				usedEdge[edgeMap[depth]] = false
			}
		}
	}
	if depth < 0 {
		return Mapping{}, false
	}

	m := Mapping{Nodes: make(map[string]string, len(pnodes)), Edges: make(map[int]int, len(pedges))}
	for i, n := range pnodes {
		m.Nodes[n.ID] = tnodes[assign[i]].ID
	}
	for i, t := range edgeMap {
		m.Edges[i] = t
	}
	return m, true
}

func nodeMatches(pattern, target Node) bool {
	return attrsMatch(pattern.Attrs, target.Attrs)
}

// attrsMatch reports whether every pattern attribute is satisfied by the
// target's attributes. Empty pattern values are wildcards: the key must
// exist on the target, with any value.
func attrsMatch(pattern, target map[string]string) bool {
	for k, v := range pattern {
		if k == "label" {
			continue
		}
		tv, ok := target[k]
		if !ok {
			return false
		}
		if v != "" && v != tv {
			return false
		}
	}
	return true
}
