// Package cli wires the morphgen commands: deriving designs from rule
// files and optimizing their control trajectories.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
}

// NewRootCommand creates the root command for the morphgen CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "morphgen",
		Short: "Grammar-based design generation and trajectory optimization",
		Long: `morphgen grows robot designs by applying graph-rewriting rules and
optimizes their control trajectories with sampling-based MPPI.`,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewDeriveCommand(opts))
	cmd.AddCommand(NewOptimizeCommand(opts))

	return cmd
}

// setupLogging configures the process-wide logger from the global flags.
func setupLogging(opts *RootOptions) {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
