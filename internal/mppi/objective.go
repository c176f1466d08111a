package mppi

import "morphgen/internal/sim"

// Objective scores one simulation state. Lower is better; the episode
// driver reports reward as negated cost.
type Objective interface {
	Cost(s sim.Simulation, robotIdx int) float64
}

// SumOfSquares penalizes the squared, per-component-weighted deviation of
// the robot's base spatial velocity from a reference. The stock locomotion
// objective references forward linear velocity 1.0 with uniform weights.
type SumOfSquares struct {
	BaseVelRef    sim.Vec6
	BaseVelWeight sim.Vec6
}

// NewForwardObjective rewards moving the base forward at 1 m/s.
func NewForwardObjective() *SumOfSquares {
	return &SumOfSquares{
		BaseVelRef:    sim.Vec6{0, 0, 0, 1, 0, 0},
		BaseVelWeight: sim.Vec6{1, 1, 1, 1, 1, 1},
	}
}

func (o *SumOfSquares) Cost(s sim.Simulation, robotIdx int) float64 {
	vel := s.BaseVelocity(robotIdx)
	cost := 0.0
	for i := range vel {
		d := vel[i] - o.BaseVelRef[i]
		cost += o.BaseVelWeight[i] * d * d
	}
	return cost
}
