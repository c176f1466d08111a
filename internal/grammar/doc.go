// Package grammar implements the graph-grammar engine that grows robot
// description graphs.
//
// A grammar is a sequence of rewrite rules loaded from a DOT file. Each
// rule graph carries an "L" subgraph (the pattern to match) and an "R"
// subgraph (the replacement); nodes that appear on both sides, by shared
// identifier, form the correspondence used to rewire edges that cross the
// matched region's boundary.
//
// Derivation is a left-to-right fold over a rule index sequence: each index
// selects a rule, the matcher enumerates all embeddings of the rule's
// pattern in the current graph, and the first match (in the matcher's
// deterministic order) is applied. Indices with no match, or outside the
// loaded rule set, are skipped without error. Exploratory rule sequences
// are expected to miss; a miss is not a failure.
//
// Thread-safety: graphs and rules are built once and read-only afterward.
// FindMatches and ApplyRule never mutate their inputs.
package grammar
