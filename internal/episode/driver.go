package episode

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"morphgen/internal/mppi"
	"morphgen/internal/sim"
)

// Recorder persists per-episode results. Implemented by results.Run; a nil
// Recorder in the config disables persistence.
type Recorder interface {
	RecordEpisode(ctx context.Context, idx int, totalReward float64, rewards, returns []float64) error
}

// Config fixes a driver's behavior at construction.
type Config struct {
	// Episodes is the number of episodes to run.
	Episodes int

	// Length is the number of planning steps per episode.
	Length int

	// WarmupUpdates is how many optimizer updates run before the first
	// step of each episode.
	WarmupUpdates int

	// Seed anchors the per-episode optimizer seeds.
	Seed uint64

	// Optimizer is the template configuration for each episode's fresh
	// optimizer; its Seed field is overwritten per episode.
	Optimizer mppi.Config

	// Ground is the ground-truth simulation the planned inputs execute on.
	Ground sim.Simulation

	// Recorder, when non-nil, receives each episode's results.
	Recorder Recorder
}

// Result summarizes one completed episode.
type Result struct {
	Episode     int
	TotalReward float64
	Rewards     []float64
	Returns     []float64
	// Trajectory is the executed input sequence, Length rows of DofCount.
	Trajectory [][]float64
}

// Driver runs episodes, maintains the replay buffer, and retrains the
// value estimator after each episode. It is single-threaded by design:
// the optimizer parallelizes internally, while the nominal trajectory,
// ground-truth simulation, and buffer all stay owned by the caller's
// goroutine.
type Driver struct {
	cfg    Config
	buffer Buffer
}

// NewDriver validates cfg and creates a driver.
func NewDriver(cfg Config) (*Driver, error) {
	if cfg.Episodes < 1 {
		return nil, fmt.Errorf("episode: episode count %d, need at least 1", cfg.Episodes)
	}
	if cfg.Length < 1 {
		return nil, fmt.Errorf("episode: episode length %d, need at least 1", cfg.Length)
	}
	if cfg.Ground == nil {
		return nil, fmt.Errorf("episode: nil ground-truth simulation")
	}
	if err := func() error { c := cfg.Optimizer; c.Seed = 1; _, err := mppi.New(c); return err }(); err != nil {
		return nil, err
	}
	return &Driver{cfg: cfg}, nil
}

// Buffer exposes the replay buffer, mainly for tests and inspection.
func (d *Driver) Buffer() *Buffer { return &d.buffer }

// Run executes all configured episodes and returns their results in order.
func (d *Driver) Run(ctx context.Context) ([]Result, error) {
	results := make([]Result, 0, d.cfg.Episodes)
	for e := 0; e < d.cfg.Episodes; e++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := d.runEpisode(ctx, e)
		if err != nil {
			return results, fmt.Errorf("episode %d: %w", e, err)
		}
		results = append(results, res)
		slog.Info("episode complete", "episode", e, "total_reward", res.TotalReward)
	}
	return results, nil
}

func (d *Driver) runEpisode(ctx context.Context, e int) (Result, error) {
	cfg := d.cfg.Optimizer
	cfg.Seed = deriveSeed(d.cfg.Seed, uint64(e))
	opt, err := mppi.New(cfg)
	if err != nil {
		return Result{}, err
	}
	for i := 0; i < d.cfg.WarmupUpdates; i++ {
		if err := opt.Update(ctx); err != nil {
			return Result{}, err
		}
	}

	estimator := cfg.Estimator
	ground := d.cfg.Ground
	robotIdx := ground.FindRobotIndex(cfg.Robot)
	if robotIdx < 0 {
		return Result{}, fmt.Errorf("robot not present in ground-truth simulation")
	}

	length := d.cfg.Length
	obsSize := estimator.ObservationSize()
	observations := make([][]float64, length+1)
	for i := range observations {
		observations[i] = make([]float64, obsSize)
	}
	rewards := make([]float64, length)
	trajectory := make([][]float64, length)

	// Planning happens against the live ground-truth state; the bracket
	// guarantees its side effects never leak into the next episode.
	ground.SaveState()
	for j := 0; j < length; j++ {
		if err := opt.Update(ctx); err != nil {
			return Result{}, err
		}
		input := opt.FirstInput()
		trajectory[j] = input
		opt.Advance(1)

		estimator.Observe(ground, robotIdx, observations[j])
		for i := 0; i < cfg.Interval; i++ {
			ground.SetJointTargetPositions(robotIdx, input)
			ground.Step()
			rewards[j] -= cfg.Objective.Cost(ground, robotIdx)
		}
	}
	estimator.Observe(ground, robotIdx, observations[length])
	ground.RestoreState()

	// Backward discounted-return recursion, seeded by the bootstrap value
	// of the terminal observation.
	returns := make([]float64, length+1)
	returns[length] = estimator.Estimate(observations[length])
	for j := length - 1; j >= 0; j-- {
		returns[j] = rewards[j] + cfg.Discount*returns[j+1]
	}

	d.buffer.Append(observations[:length], returns[:length])
	if err := estimator.Train(d.buffer.Observations(), d.buffer.Returns()); err != nil {
		return Result{}, err
	}

	total := 0.0
	for _, r := range rewards {
		total += r
	}
	if d.cfg.Recorder != nil {
		if err := d.cfg.Recorder.RecordEpisode(ctx, e, total, rewards, returns[:length]); err != nil {
			return Result{}, fmt.Errorf("record results: %w", err)
		}
	}

	return Result{
		Episode:     e,
		TotalReward: total,
		Rewards:     rewards,
		Returns:     returns,
		Trajectory:  trajectory,
	}, nil
}

// deriveSeed maps (base seed, component id) to an independent seed, so
// every stochastic component is reproducible without sharing one
// generator's draw order.
func deriveSeed(base, component uint64) uint64 {
	return rand.New(rand.NewPCG(base, component)).Uint64()
}
