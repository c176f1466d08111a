// Package mppi implements sampling-based model-predictive control: many
// parallel stochastic rollouts per planning step, aggregated into an
// importance-weighted update of a nominal input sequence, with optional
// value-estimator bootstrapping of the cost beyond the horizon.
package mppi

import "math/rand/v2"

// InputSampler produces the stochastic perturbation one rollout adds to
// the nominal input sequence. The returned slice is horizon rows of dof
// values. The sampler draws only from the supplied generator, so rollouts
// are reproducible regardless of scheduling.
type InputSampler interface {
	Sample(rng *rand.Rand, horizon, dof int) [][]float64
}

// GaussianSampler perturbs every input with independent N(0, StdDev²)
// noise, the default exploration distribution.
type GaussianSampler struct {
	StdDev float64
}

func (s *GaussianSampler) Sample(rng *rand.Rand, horizon, dof int) [][]float64 {
	noise := make([][]float64, horizon)
	for j := range noise {
		row := make([]float64, dof)
		for d := range row {
			row[d] = rng.NormFloat64() * s.StdDev
		}
		noise[j] = row
	}
	return noise
}
