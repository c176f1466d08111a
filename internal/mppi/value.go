package mppi

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"morphgen/internal/sim"
)

// ValueEstimator maps an observation to an estimate of the discounted
// return from that state, and is trainable from (observation, return)
// pairs accumulated by the episode driver.
type ValueEstimator interface {
	// ObservationSize is the fixed length of an observation vector.
	ObservationSize() int

	// Observe fills out (length ObservationSize) from the simulation state.
	Observe(s sim.Simulation, robotIdx int, out []float64)

	// Estimate returns the value of an observation.
	Estimate(obs []float64) float64

	// Train refits the estimator on the full dataset.
	Train(observations [][]float64, returns []float64) error
}

// NullEstimator is the no-learning default: zero-length observations and a
// zero bootstrap value. With it, MPPI optimizes the truncated-horizon cost
// alone.
type NullEstimator struct{}

func (NullEstimator) ObservationSize() int                   { return 0 }
func (NullEstimator) Observe(sim.Simulation, int, []float64) {}
func (NullEstimator) Estimate([]float64) float64             { return 0 }
func (NullEstimator) Train([][]float64, []float64) error     { return nil }

// LinearEstimator fits a ridge-regularized linear model over an
// observation of the robot's base velocity and joint state.
//
// Training solves the least-squares problem over the whole replay buffer
// every time; the buffer sizes seen in practice (episodes × steps) keep
// the QR factorization cheap.
type LinearEstimator struct {
	dof    int
	lambda float64
	theta  []float64 // len obsSize+1, bias last; nil until trained
}

// NewLinearEstimator creates an untrained estimator for a robot with the
// given degree-of-freedom count. Until the first Train call, Estimate
// returns 0.
func NewLinearEstimator(dof int, lambda float64) *LinearEstimator {
	return &LinearEstimator{dof: dof, lambda: lambda}
}

func (e *LinearEstimator) ObservationSize() int { return 6 + 2*e.dof }

func (e *LinearEstimator) Observe(s sim.Simulation, robotIdx int, out []float64) {
	vel := s.BaseVelocity(robotIdx)
	copy(out[:6], vel[:])
	s.JointPositions(robotIdx, out[6:6+e.dof])
	s.JointVelocities(robotIdx, out[6+e.dof:])
}

func (e *LinearEstimator) Estimate(obs []float64) float64 {
	if e.theta == nil {
		return 0
	}
	v := e.theta[len(e.theta)-1] // bias
	for i, x := range obs {
		v += e.theta[i] * x
	}
	return v
}

// Train refits theta by ridge least squares. Ridge rows sqrt(lambda)·I are
// appended to the design matrix so a rank-deficient observation set still
// factorizes.
func (e *LinearEstimator) Train(observations [][]float64, returns []float64) error {
	m := len(observations)
	if m == 0 {
		return nil
	}
	if m != len(returns) {
		return fmt.Errorf("train value estimator: %d observations but %d returns", m, len(returns))
	}
	d := e.ObservationSize() + 1

	a := mat.NewDense(m+d, d, nil)
	b := mat.NewVecDense(m+d, nil)
	for i, obs := range observations {
		if len(obs) != d-1 {
			return fmt.Errorf("train value estimator: observation %d has size %d, want %d", i, len(obs), d-1)
		}
		for j, x := range obs {
			a.Set(i, j, x)
		}
		a.Set(i, d-1, 1) // bias column
		b.SetVec(i, returns[i])
	}
	ridge := math.Sqrt(e.lambda)
	for j := 0; j < d; j++ {
		a.Set(m+j, j, ridge)
	}

	var theta mat.VecDense
	if err := theta.SolveVec(a, b); err != nil {
		return fmt.Errorf("train value estimator: %w", err)
	}
	e.theta = make([]float64, d)
	copy(e.theta, theta.RawVector().Data)
	return nil
}
