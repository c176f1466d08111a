package sim

import "math"

// Servo and drive gains for the articulated model. The exact values only
// shape the dynamics; determinism and responsiveness to joint targets are
// what the rest of the system depends on.
const (
	servoStiffness = 40.0
	servoDamping   = 4.0
	driveGain      = 0.6
	dragCoeff      = 1.2
)

// Articulated is a deterministic articulated-body simulation.
//
// Joints are position servos: each actuated joint accelerates toward its
// target with a damped spring. The base is propelled along x by joint
// motion against ground drag, a crawling surrogate that rewards
// well-phased joint trajectories. Integration is semi-implicit Euler at a
// fixed time step with no randomness, so identical command sequences
// always produce identical state.
type Articulated struct {
	timeStep float64
	robots   []*robotState
	props    []propState
	saved    []robotState
	hasSaved bool
}

type robotState struct {
	robot   *Robot
	basePos Vec3
	baseVel Vec3
	q       []float64
	qd      []float64
	target  []float64
}

type propState struct {
	prop *Prop
	pos  Vec3
}

// NewArticulated creates an empty world with the given time step.
func NewArticulated(timeStep float64) *Articulated {
	return &Articulated{timeStep: timeStep}
}

func (a *Articulated) TimeStep() float64 { return a.timeStep }

func (a *Articulated) AddRobot(r *Robot, pos Vec3, orn Quat) {
	dof := r.DofCount()
	a.robots = append(a.robots, &robotState{
		robot:   r,
		basePos: pos,
		q:       make([]float64, dof),
		qd:      make([]float64, dof),
		target:  make([]float64, dof),
	})
}

func (a *Articulated) AddProp(p *Prop, pos Vec3, orn Quat) {
	a.props = append(a.props, propState{prop: p, pos: pos})
}

func (a *Articulated) FindRobotIndex(r *Robot) int {
	for i, rs := range a.robots {
		if rs.robot == r {
			return i
		}
	}
	return -1
}

func (a *Articulated) RobotDofCount(robotIdx int) int {
	return len(a.robots[robotIdx].q)
}

func (a *Articulated) SetJointTargetPositions(robotIdx int, targets []float64) {
	copy(a.robots[robotIdx].target, targets)
}

func (a *Articulated) Step() {
	dt := a.timeStep
	for _, rs := range a.robots {
		drive := 0.0
		for i := range rs.q {
			qdd := servoStiffness*(rs.target[i]-rs.q[i]) - servoDamping*rs.qd[i]
			rs.qd[i] += dt * qdd
			rs.q[i] += dt * rs.qd[i]
			// Joint motion near the stroke center pushes hardest.
			drive += rs.qd[i] * math.Cos(rs.q[i])
		}
		if n := len(rs.q); n > 0 {
			drive = driveGain * drive / float64(n)
		}
		rs.baseVel[0] += dt * (drive - dragCoeff*rs.baseVel[0])
		rs.basePos[0] += dt * rs.baseVel[0]
	}
}

func (a *Articulated) RobotWorldAABB(robotIdx int) (lower, upper Vec3) {
	rs := a.robots[robotIdx]
	ext := rs.robot.TotalLength() / 2
	if ext == 0 {
		ext = defaultLinkLength
	}
	for i := 0; i < 3; i++ {
		lower[i] = rs.basePos[i] - ext
		upper[i] = rs.basePos[i] + ext
	}
	return lower, upper
}

func (a *Articulated) BaseVelocity(robotIdx int) Vec6 {
	rs := a.robots[robotIdx]
	return Vec6{0, 0, 0, rs.baseVel[0], rs.baseVel[1], rs.baseVel[2]}
}

func (a *Articulated) JointPositions(robotIdx int, out []float64) {
	copy(out, a.robots[robotIdx].q)
}

func (a *Articulated) JointVelocities(robotIdx int, out []float64) {
	copy(out, a.robots[robotIdx].qd)
}

func (a *Articulated) SaveState() {
	a.saved = a.saved[:0]
	for _, rs := range a.robots {
		a.saved = append(a.saved, rs.snapshot())
	}
	a.hasSaved = true
}

func (a *Articulated) RestoreState() {
	if !a.hasSaved {
		return
	}
	for i, rs := range a.robots {
		rs.restore(a.saved[i])
	}
}

func (rs *robotState) snapshot() robotState {
	s := robotState{robot: rs.robot, basePos: rs.basePos, baseVel: rs.baseVel}
	s.q = append([]float64(nil), rs.q...)
	s.qd = append([]float64(nil), rs.qd...)
	s.target = append([]float64(nil), rs.target...)
	return s
}

func (rs *robotState) restore(s robotState) {
	rs.basePos = s.basePos
	rs.baseVel = s.baseVel
	copy(rs.q, s.q)
	copy(rs.qd, s.qd)
	copy(rs.target, s.target)
}

// Scene is a Factory that builds identical worlds: a floor prop and one
// robot resting on it. It is the explicit capability object the optimizer
// receives instead of a captured closure.
type Scene struct {
	TimeStep float64
	Robot    *Robot
	Floor    *Prop
	Origin   Vec3
}

// New constructs a fresh world. Instances share only the immutable Robot
// and Prop definitions, never mutable state.
func (s *Scene) New() Simulation {
	w := NewArticulated(s.TimeStep)
	if s.Floor != nil {
		w.AddProp(s.Floor, Vec3{0, -1, 0}, IdentityQuat)
	}
	w.AddRobot(s.Robot, s.Origin, IdentityQuat)
	return w
}

// RestOffset probes a throwaway world for the vertical offset that places
// the robot exactly on the ground, mirroring how a scene is normally set
// up against a physics engine.
func RestOffset(timeStep float64, r *Robot) float64 {
	probe := NewArticulated(timeStep)
	probe.AddRobot(r, Vec3{}, IdentityQuat)
	lower, _ := probe.RobotWorldAABB(probe.FindRobotIndex(r))
	return -lower[1]
}
