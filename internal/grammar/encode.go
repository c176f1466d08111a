package grammar

import (
	"fmt"
	"strings"
)

// EncodeDOT renders a graph back to DOT source.
//
// The encoding is deterministic: nodes and edges appear in declaration
// order and attributes in lexicographic key order, so two structurally
// identical graphs always encode to identical bytes. The golden-file tests
// and the derive command both depend on this.
func EncodeDOT(g *Graph) string {
	var b strings.Builder
	fmt.Fprintf(&b, "digraph %s {\n", quoteID(g.Name))
	encodeBody(&b, g, "  ")
	b.WriteString("}\n")
	return b.String()
}

func encodeBody(b *strings.Builder, g *Graph, indent string) {
	for _, n := range g.Nodes {
		fmt.Fprintf(b, "%s%s%s;\n", indent, quoteID(n.ID), encodeAttrs(n.Attrs))
	}
	for _, e := range g.Edges {
		fmt.Fprintf(b, "%s%s -> %s%s;\n", indent, quoteID(e.From), quoteID(e.To), encodeAttrs(e.Attrs))
	}
	for _, sg := range g.Subgraphs {
		fmt.Fprintf(b, "%ssubgraph %s {\n", indent, quoteID(sg.Name))
		encodeBody(b, sg, indent+"  ")
		fmt.Fprintf(b, "%s}\n", indent)
	}
}

func encodeAttrs(attrs map[string]string) string {
	if len(attrs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(attrs))
	for _, k := range sortedKeys(attrs) {
		parts = append(parts, fmt.Sprintf("%s=%s", quoteID(k), quoteID(attrs[k])))
	}
	return " [" + strings.Join(parts, ", ") + "]"
}

// quoteID quotes an identifier unless it is a plain DOT ID (alphanumerics
// and underscores, not starting with a digit... digits-only is also plain).
func quoteID(s string) string {
	if s == "" {
		return `""`
	}
	plain := true
	for _, r := range s {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			plain = false
			break
		}
	}
	if plain {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
