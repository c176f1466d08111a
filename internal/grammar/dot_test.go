package grammar

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGraphs_NodesEdgesAttributes(t *testing.T) {
	graphs, err := ParseGraphs(`
digraph g {
  a [type=body, length="0.5"];
  b [type=limb];
  a -> b [joint=hinge];
}
`)
	require.NoError(t, err)
	require.Len(t, graphs, 1)

	g := graphs[0]
	assert.Equal(t, "g", g.Name)
	require.Len(t, g.Nodes, 2)
	assert.Equal(t, "a", g.Nodes[0].ID)
	assert.Equal(t, "0.5", g.Nodes[0].Attrs["length"])
	require.Len(t, g.Edges, 1)
	assert.Equal(t, "a", g.Edges[0].From)
	assert.Equal(t, "b", g.Edges[0].To)
	assert.Equal(t, "hinge", g.Edges[0].Attrs["joint"])
}

func TestParseGraphs_EdgeChain(t *testing.T) {
	graphs, err := ParseGraphs(`digraph g { a -> b -> c [joint=fixed]; }`)
	require.NoError(t, err)

	g := graphs[0]
	assert.Len(t, g.Nodes, 3, "edge endpoints are declared implicitly")
	require.Len(t, g.Edges, 2)
	assert.Equal(t, "a", g.Edges[0].From)
	assert.Equal(t, "b", g.Edges[0].To)
	assert.Equal(t, "b", g.Edges[1].From)
	assert.Equal(t, "c", g.Edges[1].To)
	assert.Equal(t, "fixed", g.Edges[1].Attrs["joint"])
}

func TestParseGraphs_NestedSubgraphs(t *testing.T) {
	graphs, err := ParseGraphs(`
digraph rule {
  shared [type=body];
  subgraph L {
    p [type=limb];
  }
  subgraph R {
    q [type=limb];
    r [type=limb];
  }
}
`)
	require.NoError(t, err)

	g := graphs[0]
	require.Len(t, g.Subgraphs, 2)
	assert.Equal(t, "L", g.Subgraphs[0].Name)
	assert.Equal(t, "R", g.Subgraphs[1].Name)
	assert.Len(t, g.Subgraphs[0].Nodes, 1)
	assert.Len(t, g.Subgraphs[1].Nodes, 2)
	assert.Len(t, g.AllNodes(), 4)
	assert.True(t, g.HasNode("r"))
}

func TestParseGraphs_NodeDefaults(t *testing.T) {
	graphs, err := ParseGraphs(`
digraph g {
  node [type=limb];
  a;
  b [type=body];
}
`)
	require.NoError(t, err)

	g := graphs[0]
	require.Len(t, g.Nodes, 2)
	assert.Equal(t, "limb", g.Nodes[0].Attrs["type"], "defaults apply to later nodes")
	assert.Equal(t, "body", g.Nodes[1].Attrs["type"], "explicit attributes win over defaults")
}

func TestParseGraphs_QuotedIdentifiers(t *testing.T) {
	graphs, err := ParseGraphs(`digraph g { "a node" [label="Body Part"]; }`)
	require.NoError(t, err)

	g := graphs[0]
	require.Len(t, g.Nodes, 1)
	assert.Equal(t, "a node", g.Nodes[0].ID)
	assert.Equal(t, "Body Part", g.Nodes[0].Label)
}

func TestParseGraphs_MultipleGraphs(t *testing.T) {
	graphs, err := ParseGraphs(`
digraph one { a; }
digraph two { b; }
`)
	require.NoError(t, err)
	require.Len(t, graphs, 2)
	assert.Equal(t, "one", graphs[0].Name)
	assert.Equal(t, "two", graphs[1].Name)
}

func TestLoadGraphs_EmptyFileIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.dot")
	require.NoError(t, os.WriteFile(path, []byte("\n"), 0o644))

	_, err := LoadGraphs(path)
	assert.Error(t, err, "an empty grammar file must be a fatal load error")
}

func TestLoadGraphs_MissingFileIsFatal(t *testing.T) {
	_, err := LoadGraphs(filepath.Join(t.TempDir(), "nope.dot"))
	assert.Error(t, err)
}

func TestEncodeDOT_RoundTripsDeterministically(t *testing.T) {
	graphs, err := ParseGraphs(`
digraph g {
  a [length="0.5", type=body];
  b [type=limb];
  a -> b [joint=hinge];
}
`)
	require.NoError(t, err)

	encoded := EncodeDOT(graphs[0])
	assert.Equal(t, `digraph g {
  a [length="0.5", type=body];
  b [type=limb];
  a -> b [joint=hinge];
}
`, encoded)

	reparsed, err := ParseGraphs(encoded)
	require.NoError(t, err)
	assert.Equal(t, graphs[0], reparsed[0])
	assert.Equal(t, encoded, EncodeDOT(reparsed[0]))
}
