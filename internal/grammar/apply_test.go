package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeRule builds a rule directly, bypassing DOT. common maps LHS node IDs
// to RHS node IDs.
func makeRule(name string, lhs, rhs *Graph, common map[string]string) *Rule {
	return &Rule{Name: name, LHS: lhs, RHS: rhs, Common: common}
}

func TestApplyRule_GrowsFromCommonNode(t *testing.T) {
	// body := body -> limb
	rule := makeRule("addLimb",
		makeGraph("L", []Node{typedNode("b", "body")}, nil),
		makeGraph("R",
			[]Node{typedNode("b", "body"), typedNode("limb", "limb")},
			[]Edge{{From: "b", To: "limb", Attrs: map[string]string{"joint": "hinge"}}},
		),
		map[string]string{"b": "b"},
	)
	target := makeGraph("robot", []Node{typedNode("root", "body")}, nil)

	matches := FindMatches(rule.LHS, target)
	require.Len(t, matches, 1)

	out, err := ApplyRule(rule, target, matches[0])
	require.NoError(t, err)
	require.Len(t, out.Nodes, 2)
	assert.Equal(t, "root", out.Nodes[0].ID, "matched common node keeps its identity")
	assert.Equal(t, "limb", out.Nodes[1].ID)
	require.Len(t, out.Edges, 1)
	assert.Equal(t, Edge{From: "root", To: "limb", Attrs: map[string]string{"joint": "hinge"}}, out.Edges[0])
}

func TestApplyRule_ChangesOnlySelectedNode(t *testing.T) {
	// Two identical candidates; applying with the first mapping must touch
	// only the node that mapping selected.
	rule := makeRule("extend",
		makeGraph("L", []Node{typedNode("l", "limb")}, nil),
		makeGraph("R",
			[]Node{typedNode("l", "limb"), typedNode("seg", "limb")},
			[]Edge{{From: "l", To: "seg", Attrs: map[string]string{}}},
		),
		map[string]string{"l": "l"},
	)
	target := makeGraph("robot",
		[]Node{typedNode("left", "limb"), typedNode("right", "limb")},
		nil,
	)

	matches := FindMatches(rule.LHS, target)
	require.Len(t, matches, 2)
	assert.Equal(t, "left", matches[0].Nodes["l"])

	out, err := ApplyRule(rule, target, matches[0])
	require.NoError(t, err)
	require.Len(t, out.Edges, 1)
	assert.Equal(t, "left", out.Edges[0].From, "growth attaches to the selected node")
	right, ok := out.FindNode("right")
	require.True(t, ok)
	assert.Equal(t, target.Nodes[1], right, "unselected node is untouched")
}

func TestApplyRule_RewiresBoundaryEdges(t *testing.T) {
	// limb := seg (replace a limb with a fresh segment); the incoming edge
	// from the body crosses the boundary and follows the correspondence.
	rule := makeRule("swap",
		makeGraph("L", []Node{typedNode("l", "limb")}, nil),
		makeGraph("R", []Node{{ID: "seg", Label: "seg", Attrs: map[string]string{"type": "limb", "length": "0.2"}}}, nil),
		map[string]string{"l": "seg"},
	)
	target := makeGraph("robot",
		[]Node{typedNode("root", "body"), typedNode("arm", "limb")},
		[]Edge{{From: "root", To: "arm", Attrs: map[string]string{"joint": "hinge"}}},
	)

	matches := FindMatches(rule.LHS, target)
	require.Len(t, matches, 1)

	out, err := ApplyRule(rule, target, matches[0])
	require.NoError(t, err)

	arm, ok := out.FindNode("arm")
	require.True(t, ok, "survivor keeps its target ID")
	assert.Equal(t, "0.2", arm.Attrs["length"], "RHS attributes overlay the survivor")
	require.Len(t, out.Edges, 1)
	assert.Equal(t, "root", out.Edges[0].From)
	assert.Equal(t, "arm", out.Edges[0].To, "boundary edge rewired to the survivor")
}

func TestApplyRule_DanglingBoundaryEdgeFails(t *testing.T) {
	// The rule deletes the limb with no correspondence, but the target has
	// an edge into it. That is a defect in the rule.
	rule := makeRule("deleteLimb",
		makeGraph("L", []Node{typedNode("l", "limb")}, nil),
		makeGraph("R", nil, nil),
		map[string]string{},
	)
	target := makeGraph("robot",
		[]Node{typedNode("root", "body"), typedNode("arm", "limb")},
		[]Edge{{From: "root", To: "arm", Attrs: map[string]string{}}},
	)

	matches := FindMatches(rule.LHS, target)
	require.Len(t, matches, 1)

	_, err := ApplyRule(rule, target, matches[0])
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDanglingEdge)
}

func TestApplyRule_PatternEdgeImageReplaced(t *testing.T) {
	// body -> limb := body -> knee -> limb; the matched edge disappears and
	// the RHS edges take its place.
	rule := makeRule("insertKnee",
		makeGraph("L",
			[]Node{typedNode("b", "body"), typedNode("l", "limb")},
			[]Edge{{From: "b", To: "l", Attrs: map[string]string{}}},
		),
		makeGraph("R",
			[]Node{typedNode("b", "body"), typedNode("knee", "joint"), typedNode("l", "limb")},
			[]Edge{
				{From: "b", To: "knee", Attrs: map[string]string{}},
				{From: "knee", To: "l", Attrs: map[string]string{}},
			},
		),
		map[string]string{"b": "b", "l": "l"},
	)
	target := makeGraph("robot",
		[]Node{typedNode("root", "body"), typedNode("arm", "limb")},
		[]Edge{{From: "root", To: "arm", Attrs: map[string]string{}}},
	)

	matches := FindMatches(rule.LHS, target)
	require.Len(t, matches, 1)

	out, err := ApplyRule(rule, target, matches[0])
	require.NoError(t, err)
	require.Len(t, out.Nodes, 3)
	require.Len(t, out.Edges, 2)
	assert.Equal(t, "root", out.Edges[0].From)
	assert.Equal(t, "knee", out.Edges[0].To)
	assert.Equal(t, "knee", out.Edges[1].From)
	assert.Equal(t, "arm", out.Edges[1].To)
}

func TestApplyRule_FreshIDsAvoidCollisions(t *testing.T) {
	rule := makeRule("addLimb",
		makeGraph("L", []Node{typedNode("b", "body")}, nil),
		makeGraph("R",
			[]Node{typedNode("b", "body"), typedNode("limb", "limb")},
			[]Edge{{From: "b", To: "limb", Attrs: map[string]string{}}},
		),
		map[string]string{"b": "b"},
	)
	g := makeGraph("robot", []Node{typedNode("root", "body")}, nil)

	for i := 0; i < 3; i++ {
		matches := FindMatches(rule.LHS, g)
		require.NotEmpty(t, matches)
		next, err := ApplyRule(rule, g, matches[0])
		require.NoError(t, err)
		g = next
	}

	ids := make(map[string]bool)
	for _, n := range g.Nodes {
		assert.False(t, ids[n.ID], "node IDs must stay unique: %s", n.ID)
		ids[n.ID] = true
	}
	assert.Len(t, g.Nodes, 4)
	assert.Len(t, g.Edges, 3)
}

func TestApplyRule_DoesNotMutateTarget(t *testing.T) {
	rule := makeRule("addLimb",
		makeGraph("L", []Node{typedNode("b", "body")}, nil),
		makeGraph("R",
			[]Node{typedNode("b", "body"), typedNode("limb", "limb")},
			[]Edge{{From: "b", To: "limb", Attrs: map[string]string{}}},
		),
		map[string]string{"b": "b"},
	)
	target := makeGraph("robot", []Node{typedNode("root", "body")}, nil)
	before := target.Clone()

	matches := FindMatches(rule.LHS, target)
	require.Len(t, matches, 1)
	_, err := ApplyRule(rule, target, matches[0])
	require.NoError(t, err)

	assert.Equal(t, before, target)
}
