package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"morphgen/internal/grammar"
)

// DeriveOptions holds flags for the derive command.
type DeriveOptions struct {
	*RootOptions
	Out string
}

// NewDeriveCommand creates the derive command.
func NewDeriveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeriveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "derive <rules.dot> [rule-index...]",
		Short: "Apply a rule sequence and print the derived design",
		Long: `Derive a design graph by applying grammar rules to the seed graph.

The rule file holds one DOT graph per rule, each with L and R subgraphs.
Rule indices are applied left to right; indices that are out of range or
fail to match are skipped.

Example:
  morphgen derive rules/crawler.dot 0 1 2 1 2
  morphgen derive rules/crawler.dot 0 1 --out design.dot`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(opts.RootOptions)
			return runDerive(opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "write the derived graph to a file instead of stdout")

	return cmd
}

func runDerive(opts *DeriveOptions, rulesPath string, seqArgs []string, cmd *cobra.Command) error {
	design, _, err := deriveDesign(rulesPath, seqArgs)
	if err != nil {
		return err
	}

	out := grammar.EncodeDOT(design)
	if opts.Out != "" {
		if err := os.WriteFile(opts.Out, []byte(out), 0o644); err != nil {
			return WrapExitError(ExitCommandError, "failed to write design", err)
		}
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

// deriveDesign loads the rule file, parses the sequence arguments, and
// runs the derivation from the seed graph.
func deriveDesign(rulesPath string, seqArgs []string) (*grammar.Graph, []int, error) {
	sequence := make([]int, len(seqArgs))
	for i, arg := range seqArgs {
		idx, err := strconv.Atoi(arg)
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, fmt.Sprintf("rule index %q is not an integer", arg), err)
		}
		sequence[i] = idx
	}

	graphs, err := grammar.LoadGraphs(rulesPath)
	if err != nil {
		return nil, nil, WrapExitError(ExitFailure, "failed to load rules", err)
	}
	rules, err := grammar.NewRules(graphs)
	if err != nil {
		return nil, nil, WrapExitError(ExitFailure, "failed to build rules", err)
	}

	design, err := grammar.Derive(grammar.Seed(), rules, sequence)
	if err != nil {
		return nil, nil, WrapExitError(ExitFailure, "derivation failed", err)
	}
	return design, sequence, nil
}
