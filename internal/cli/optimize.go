package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"morphgen/internal/config"
	"morphgen/internal/episode"
	"morphgen/internal/grammar"
	"morphgen/internal/mppi"
	"morphgen/internal/render"
	"morphgen/internal/results"
	"morphgen/internal/sim"
)

// OptimizeOptions holds flags for the optimize command.
type OptimizeOptions struct {
	*RootOptions
	Config    string
	Database  string
	SaveImage string
	Seed      uint64
	Jobs      int
	Episodes  int
}

// NewOptimizeCommand creates the optimize command.
func NewOptimizeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OptimizeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "optimize <rules.dot> [rule-index...]",
		Short: "Optimize the control trajectory of a derived design",
		Long: `Derive a design, build its articulated body, and optimize a control
trajectory for it with sampling-based MPPI over several episodes.

Episode results can be persisted to a SQLite database and the best
trajectory can be dumped as a PNG plot.

Example:
  morphgen optimize rules/crawler.dot 0 1 2 -s 42 -j 8
  morphgen optimize rules/crawler.dot 0 1 2 --db runs.db --save-image best.png`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(opts.RootOptions)
			return runOptimize(opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "path to a YAML experiment config")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to a SQLite results database")
	cmd.Flags().StringVar(&opts.SaveImage, "save-image", "", "write the best trajectory as a PNG plot")
	cmd.Flags().Uint64VarP(&opts.Seed, "seed", "s", 0, "base random seed")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", 0, "rollout worker count (0 = GOMAXPROCS)")
	cmd.Flags().IntVarP(&opts.Episodes, "episodes", "e", 3, "number of episodes to run")

	return cmd
}

func runOptimize(opts *OptimizeOptions, rulesPath string, seqArgs []string, cmd *cobra.Command) error {
	cfg := config.Default()
	if opts.Config != "" {
		var err error
		cfg, err = config.Load(opts.Config)
		if err != nil {
			return WrapExitError(ExitCommandError, "bad experiment config", err)
		}
	}

	design, sequence, err := deriveDesign(rulesPath, seqArgs)
	if err != nil {
		return err
	}

	robot, err := sim.BuildRobot(design)
	if err != nil {
		return WrapExitError(ExitFailure, "design is not a buildable body", err)
	}
	if robot.DofCount() == 0 {
		return NewExitError(ExitFailure, "design has no actuated joints")
	}
	slog.Info("design built", "links", len(robot.Links), "dof", robot.DofCount())

	scene := &sim.Scene{
		TimeStep: cfg.TimeStep,
		Robot:    robot,
		Floor:    &sim.Prop{Shape: sim.PropBox, Friction: 0.9, HalfExtents: sim.Vec3{10, 1, 10}},
		Origin:   sim.Vec3{0, sim.RestOffset(cfg.TimeStep, robot), 0},
	}

	driverCfg := episode.Config{
		Episodes:      opts.Episodes,
		Length:        cfg.EpisodeLength,
		WarmupUpdates: cfg.WarmupUpdates,
		Seed:          opts.Seed,
		Ground:        scene.New(),
		Optimizer: mppi.Config{
			Kappa:       cfg.Kappa,
			Discount:    cfg.Discount,
			DofCount:    robot.DofCount(),
			Interval:    cfg.Interval,
			Horizon:     cfg.Horizon,
			SampleCount: cfg.SampleCount,
			ThreadCount: opts.Jobs,
			Seed:        opts.Seed,
			Factory:     scene,
			Robot:       robot,
			Objective:   mppi.NewForwardObjective(),
			Estimator:   mppi.NewLinearEstimator(robot.DofCount(), 1e-3),
			Sampler:     &mppi.GaussianSampler{StdDev: cfg.NoiseStdDev},
		},
	}

	if opts.Database != "" {
		store, err := results.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open results database", err)
		}
		defer func() {
			if closeErr := store.Close(); closeErr != nil {
				slog.Error("error closing results database", "error", closeErr)
			}
		}()
		run, err := store.NewRun(cmd.Context(), results.RunMeta{
			GraphDOT:     grammar.EncodeDOT(design),
			RuleSequence: sequence,
			Seed:         opts.Seed,
		})
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create run", err)
		}
		slog.Info("recording run", "id", run.ID(), "path", opts.Database)
		driverCfg.Recorder = run
	}

	driver, err := episode.NewDriver(driverCfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "bad driver configuration", err)
	}

	eps, err := driver.Run(cmd.Context())
	if err != nil {
		return WrapExitError(ExitFailure, "optimization failed", err)
	}

	best := 0
	for e, res := range eps {
		fmt.Fprintf(cmd.OutOrStdout(), "episode %d: total reward %.6f\n", res.Episode, res.TotalReward)
		if res.TotalReward > eps[best].TotalReward {
			best = e
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "best episode: %d\n", eps[best].Episode)

	// Image dump is peripheral: a failed render never fails the run.
	if opts.SaveImage != "" {
		if err := render.SavePNG(opts.SaveImage, eps[best].Trajectory); err != nil {
			slog.Warn("failed to save trajectory image", "path", opts.SaveImage, "error", err)
		}
	}

	return nil
}
