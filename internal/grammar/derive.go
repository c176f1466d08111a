package grammar

import (
	"fmt"
	"log/slog"
)

// Derive grows a robot description graph by applying rules in sequence.
//
// For each index: an index outside the rule set is skipped; a rule whose
// pattern has no embedding in the current graph is skipped; otherwise the
// first match in the matcher's deterministic order is applied. Skips are
// deliberate, not errors: randomized rule-sequence search produces indices
// that frequently miss, and a miss simply leaves the graph unchanged.
//
// The fold never backtracks. Application failures (a malformed rule hit at
// rewrite time) abort the derivation.
func Derive(start *Graph, rules []*Rule, sequence []int) (*Graph, error) {
	g := start
	for step, idx := range sequence {
		if idx < 0 || idx >= len(rules) {
			slog.Debug("rule index out of range, skipping", "step", step, "index", idx, "rules", len(rules))
			continue
		}
		rule := rules[idx]
		matches := FindMatches(rule.LHS, g)
		if len(matches) == 0 {
			slog.Debug("rule has no match, skipping", "step", step, "rule", rule.Name)
			continue
		}
		next, err := ApplyRule(rule, g, matches[0])
		if err != nil {
			return nil, fmt.Errorf("derivation step %d: %w", step, err)
		}
		g = next
	}
	return g, nil
}

// Seed returns the canonical starting graph for a derivation: a single
// robot root node.
func Seed() *Graph {
	return &Graph{
		Name: "robot",
		Nodes: []Node{
			{ID: "robot", Label: "robot", Attrs: map[string]string{"type": "robot"}},
		},
	}
}
