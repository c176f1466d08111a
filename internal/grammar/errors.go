package grammar

import (
	"errors"
	"fmt"
)

// Sentinel errors for grammar loading and rule application.
var (
	// ErrNoGraphs indicates the DOT source parsed cleanly but contained no
	// graphs. Loading an empty grammar is always a configuration error.
	ErrNoGraphs = errors.New("grammar: source contains no graphs")

	// ErrMalformedRule indicates a rule graph is missing its "L" or "R"
	// subgraph, or declares an edge spanning both sides.
	ErrMalformedRule = errors.New("grammar: malformed rule graph")

	// ErrDanglingEdge indicates a rule application would orphan an edge: a
	// target edge crosses the matched region's boundary, but the rule's
	// correspondence has no replacement node for the matched endpoint.
	// This is a defect in the rule, not in the target graph.
	ErrDanglingEdge = errors.New("grammar: boundary edge has no corresponding replacement node")
)

// RuleError wraps a sentinel with the rule and element that triggered it.
type RuleError struct {
	Rule    string // rule graph name
	Element string // offending node ID or edge endpoints
	Err     error
}

func (e *RuleError) Error() string {
	if e.Element != "" {
		return fmt.Sprintf("rule %q: %s: %v", e.Rule, e.Element, e.Err)
	}
	return fmt.Sprintf("rule %q: %v", e.Rule, e.Err)
}

func (e *RuleError) Unwrap() error { return e.Err }
