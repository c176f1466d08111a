package mppi

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"morphgen/internal/sim"
)

// Configuration errors reported by New.
var (
	ErrNoSamples  = errors.New("mppi: sample count must be at least 1")
	ErrBadHorizon = errors.New("mppi: horizon must be at least 1")
	ErrBadConfig  = errors.New("mppi: invalid configuration")
)

// Config fixes an optimizer's behavior at construction.
type Config struct {
	// Kappa is the exploration weight: rollout i receives weight
	// proportional to exp(-(cost_i - minCost) / Kappa).
	Kappa float64

	// Discount is applied per planning step, not per physics sub-step.
	Discount float64

	// DofCount is the control dimensionality.
	DofCount int

	// Interval is the number of physics sub-steps each planned input is
	// held for.
	Interval int

	// Horizon is the number of planning steps in the nominal sequence.
	Horizon int

	// SampleCount is the number of rollouts per Update.
	SampleCount int

	// ThreadCount sizes the rollout worker pool; zero means one worker
	// per available CPU. The numeric result is independent of this value.
	ThreadCount int

	// Seed anchors every per-sample random stream.
	Seed uint64

	// Factory builds one independent simulation per rollout.
	Factory sim.Factory

	// Robot locates the controlled robot inside each fresh simulation.
	Robot *sim.Robot

	Objective Objective
	Estimator ValueEstimator
	Sampler   InputSampler
}

func (c *Config) validate() error {
	switch {
	case c.SampleCount < 1:
		return ErrNoSamples
	case c.Horizon < 1:
		return ErrBadHorizon
	case c.DofCount < 1:
		return fmt.Errorf("%w: dof count %d", ErrBadConfig, c.DofCount)
	case c.Interval < 1:
		return fmt.Errorf("%w: interval %d", ErrBadConfig, c.Interval)
	case c.Kappa <= 0:
		return fmt.Errorf("%w: kappa %v", ErrBadConfig, c.Kappa)
	case c.Discount <= 0 || c.Discount > 1:
		return fmt.Errorf("%w: discount %v", ErrBadConfig, c.Discount)
	case c.Factory == nil:
		return fmt.Errorf("%w: nil simulation factory", ErrBadConfig)
	case c.Robot == nil:
		return fmt.Errorf("%w: nil robot", ErrBadConfig)
	case c.Objective == nil:
		return fmt.Errorf("%w: nil objective", ErrBadConfig)
	case c.Estimator == nil:
		return fmt.Errorf("%w: nil value estimator", ErrBadConfig)
	case c.Sampler == nil:
		return fmt.Errorf("%w: nil input sampler", ErrBadConfig)
	}
	return nil
}

// Optimizer is an MPPI trajectory optimizer over a receding horizon.
//
// The nominal input sequence is owned by the calling goroutine; Update and
// Advance must not be invoked concurrently. Rollout workers never touch it
// — each evaluates a private perturbed copy in a private simulation, so no
// locking exists anywhere in the hot path.
type Optimizer struct {
	cfg       Config
	threads   int
	iteration uint64
	nominal   [][]float64 // Horizon rows of DofCount inputs
}

// New validates cfg and creates an optimizer with a zero nominal sequence.
func New(cfg Config) (*Optimizer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	threads := cfg.ThreadCount
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	nominal := make([][]float64, cfg.Horizon)
	for j := range nominal {
		nominal[j] = make([]float64, cfg.DofCount)
	}
	return &Optimizer{cfg: cfg, threads: threads, nominal: nominal}, nil
}

// Update runs one MPPI iteration: SampleCount perturbed rollouts evaluated
// on the worker pool, then an importance-weighted update of the nominal
// sequence. Calling it repeatedly without Advance replans the same window.
//
// Each sample's random stream is derived from the optimizer seed, the
// update ordinal, and the sample index, so the result is bit-identical for
// any worker pool size.
func (o *Optimizer) Update(ctx context.Context) error {
	k := o.cfg.SampleCount
	noise := make([][][]float64, k)
	costs := make([]float64, k)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.threads)
	for i := 0; i < k; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(o.cfg.Seed, o.iteration<<32|uint64(i)))
			noise[i] = o.cfg.Sampler.Sample(rng, o.cfg.Horizon, o.cfg.DofCount)
			costs[i] = o.rollout(noise[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("mppi update: %w", err)
	}
	o.iteration++

	weights := softmaxWeights(costs, o.cfg.Kappa)
	for j := 0; j < o.cfg.Horizon; j++ {
		for d := 0; d < o.cfg.DofCount; d++ {
			delta := 0.0
			for i := 0; i < k; i++ {
				delta += weights[i] * noise[i][j][d]
			}
			o.nominal[j][d] += delta
		}
	}
	return nil
}

// rollout evaluates one perturbed candidate in a fresh simulation and
// returns its discounted cost, bootstrapped past the horizon by the value
// estimator.
func (o *Optimizer) rollout(noise [][]float64) float64 {
	s := o.cfg.Factory.New()
	robotIdx := s.FindRobotIndex(o.cfg.Robot)

	input := make([]float64, o.cfg.DofCount)
	cost := 0.0
	stepDiscount := 1.0
	for j := 0; j < o.cfg.Horizon; j++ {
		for d := range input {
			input[d] = o.nominal[j][d] + noise[j][d]
		}
		for i := 0; i < o.cfg.Interval; i++ {
			s.SetJointTargetPositions(robotIdx, input)
			s.Step()
			cost += stepDiscount * o.cfg.Objective.Cost(s, robotIdx)
		}
		stepDiscount *= o.cfg.Discount
	}

	if size := o.cfg.Estimator.ObservationSize(); size > 0 {
		obs := make([]float64, size)
		o.cfg.Estimator.Observe(s, robotIdx, obs)
		cost -= stepDiscount * o.cfg.Estimator.Estimate(obs)
	}
	return cost
}

// softmaxWeights computes the normalized importance weights
// w_i ∝ exp(-(cost_i - minCost) / kappa). Subtracting the minimum first
// keeps the exponentials in range; identical costs collapse to a uniform
// average rather than dividing by zero.
func softmaxWeights(costs []float64, kappa float64) []float64 {
	minCost := floats.Min(costs)
	weights := make([]float64, len(costs))
	for i, c := range costs {
		weights[i] = math.Exp(-(c - minCost) / kappa)
	}
	floats.Scale(1/floats.Sum(weights), weights)
	return weights
}

// Advance shifts the nominal sequence left by n executed planning steps
// and zero-fills the exposed tail. Calling it without an intervening
// Update is allowed; the tail is simply unoptimized.
func (o *Optimizer) Advance(n int) {
	if n <= 0 {
		return
	}
	if n > o.cfg.Horizon {
		n = o.cfg.Horizon
	}
	copy(o.nominal, o.nominal[n:])
	for j := o.cfg.Horizon - n; j < o.cfg.Horizon; j++ {
		o.nominal[j] = make([]float64, o.cfg.DofCount)
	}
}

// InputSequence returns a copy of the nominal input sequence.
func (o *Optimizer) InputSequence() [][]float64 {
	out := make([][]float64, len(o.nominal))
	for j, row := range o.nominal {
		out[j] = append([]float64(nil), row...)
	}
	return out
}

// FirstInput returns a copy of the first planned input, the input the
// episode driver executes on the ground-truth simulation.
func (o *Optimizer) FirstInput() []float64 {
	return append([]float64(nil), o.nominal[0]...)
}
