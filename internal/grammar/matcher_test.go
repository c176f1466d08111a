package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper to build a small graph without going through DOT parsing.
func makeGraph(name string, nodes []Node, edges []Edge) *Graph {
	return &Graph{Name: name, Nodes: nodes, Edges: edges}
}

func typedNode(id, typ string) Node {
	return Node{ID: id, Label: id, Attrs: map[string]string{"type": typ}}
}

func TestFindMatches_SingleNodeTwoCandidates(t *testing.T) {
	pattern := makeGraph("p", []Node{typedNode("x", "limb")}, nil)
	target := makeGraph("t", []Node{
		typedNode("a", "body"),
		typedNode("b", "limb"),
		typedNode("c", "limb"),
	}, nil)

	matches := FindMatches(pattern, target)
	require.Len(t, matches, 2, "two structurally identical candidates should yield two mappings")
	assert.Equal(t, "b", matches[0].Nodes["x"], "first match follows target declaration order")
	assert.Equal(t, "c", matches[1].Nodes["x"])
}

func TestFindMatches_EdgeConstraint(t *testing.T) {
	pattern := makeGraph("p",
		[]Node{typedNode("x", "body"), typedNode("y", "limb")},
		[]Edge{{From: "x", To: "y", Attrs: map[string]string{"joint": "hinge"}}},
	)
	target := makeGraph("t",
		[]Node{typedNode("root", "body"), typedNode("l1", "limb"), typedNode("l2", "limb")},
		[]Edge{
			{From: "root", To: "l1", Attrs: map[string]string{"joint": "hinge"}},
			{From: "root", To: "l2", Attrs: map[string]string{"joint": "fixed"}},
		},
	)

	matches := FindMatches(pattern, target)
	require.Len(t, matches, 1, "only the hinge edge satisfies the pattern")
	assert.Equal(t, "root", matches[0].Nodes["x"])
	assert.Equal(t, "l1", matches[0].Nodes["y"])
	assert.Equal(t, map[int]int{0: 0}, matches[0].Edges)
}

func TestFindMatches_InjectiveNodes(t *testing.T) {
	// Two pattern nodes of the same type must map to distinct target nodes.
	pattern := makeGraph("p", []Node{typedNode("x", "limb"), typedNode("y", "limb")}, nil)
	target := makeGraph("t", []Node{typedNode("only", "limb")}, nil)

	assert.Empty(t, FindMatches(pattern, target))
}

func TestFindMatches_WildcardAttribute(t *testing.T) {
	// An empty pattern value requires the key but matches any value.
	pattern := makeGraph("p", []Node{{ID: "x", Attrs: map[string]string{"type": ""}}}, nil)
	target := makeGraph("t", []Node{
		typedNode("a", "body"),
		{ID: "bare", Attrs: map[string]string{}},
	}, nil)

	matches := FindMatches(pattern, target)
	require.Len(t, matches, 1)
	assert.Equal(t, "a", matches[0].Nodes["x"])
}

func TestFindMatches_UnconstrainedPatternMatchesAll(t *testing.T) {
	pattern := makeGraph("p", []Node{{ID: "x", Attrs: map[string]string{}}}, nil)
	target := makeGraph("t", []Node{typedNode("a", "body"), typedNode("b", "limb")}, nil)

	assert.Len(t, FindMatches(pattern, target), 2)
}

func TestFindMatches_ParallelEdgesAssignedInjectively(t *testing.T) {
	pattern := makeGraph("p",
		[]Node{typedNode("x", "body"), typedNode("y", "limb")},
		[]Edge{
			{From: "x", To: "y", Attrs: map[string]string{}},
			{From: "x", To: "y", Attrs: map[string]string{}},
		},
	)
	single := makeGraph("t1",
		[]Node{typedNode("a", "body"), typedNode("b", "limb")},
		[]Edge{{From: "a", To: "b", Attrs: map[string]string{}}},
	)
	double := makeGraph("t2",
		[]Node{typedNode("a", "body"), typedNode("b", "limb")},
		[]Edge{
			{From: "a", To: "b", Attrs: map[string]string{}},
			{From: "a", To: "b", Attrs: map[string]string{}},
		},
	)

	assert.Empty(t, FindMatches(pattern, single), "two pattern edges cannot share one target edge")

	matches := FindMatches(pattern, double)
	require.Len(t, matches, 1)
	assert.Equal(t, map[int]int{0: 0, 1: 1}, matches[0].Edges)
}

func TestFindMatches_DeterministicOrder(t *testing.T) {
	pattern := makeGraph("p", []Node{typedNode("x", "limb")}, nil)
	target := makeGraph("t", []Node{
		typedNode("n1", "limb"),
		typedNode("n2", "limb"),
		typedNode("n3", "limb"),
	}, nil)

	first := FindMatches(pattern, target)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, FindMatches(pattern, target), "match order must be reproducible")
	}
}

func TestFindMatches_MappingsAreValid(t *testing.T) {
	// Every returned mapping, re-checked against the pattern, must hold.
	pattern := makeGraph("p",
		[]Node{typedNode("x", "limb"), typedNode("y", "limb")},
		[]Edge{{From: "x", To: "y", Attrs: map[string]string{}}},
	)
	target := makeGraph("t",
		[]Node{typedNode("a", "limb"), typedNode("b", "limb"), typedNode("c", "limb")},
		[]Edge{
			{From: "a", To: "b", Attrs: map[string]string{}},
			{From: "b", To: "c", Attrs: map[string]string{}},
			{From: "c", To: "a", Attrs: map[string]string{}},
		},
	)

	matches := FindMatches(pattern, target)
	require.Len(t, matches, 3)
	tedges := target.AllEdges()
	for _, m := range matches {
		seen := make(map[string]bool)
		for pid, tid := range m.Nodes {
			assert.False(t, seen[tid], "mapping must be injective")
			seen[tid] = true
			tn, ok := target.FindNode(tid)
			require.True(t, ok)
			pn, ok := pattern.FindNode(pid)
			require.True(t, ok)
			assert.True(t, attrsMatch(pn.Attrs, tn.Attrs))
		}
		for pei, tei := range m.Edges {
			pe := pattern.AllEdges()[pei]
			te := tedges[tei]
			assert.Equal(t, m.Nodes[pe.From], te.From)
			assert.Equal(t, m.Nodes[pe.To], te.To)
		}
	}
}

func TestFindMatches_PatternLargerThanTarget(t *testing.T) {
	pattern := makeGraph("p", []Node{typedNode("x", "limb"), typedNode("y", "limb")}, nil)
	target := makeGraph("t", []Node{typedNode("a", "limb")}, nil)

	assert.Empty(t, FindMatches(pattern, target))
}
