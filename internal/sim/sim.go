// Package sim defines the simulation capability the optimizer consumes,
// the robot builder that turns a derived design graph into a simulatable
// robot, and a small deterministic articulated-body simulation.
//
// The optimizer and episode driver only ever talk to the Simulation and
// Factory interfaces. A production deployment would back them with a full
// rigid-body physics engine; the in-tree Articulated model exists so runs
// and tests are hermetic and bit-reproducible.
package sim

// Vec3 is a 3-component vector (x, y, z).
type Vec3 [3]float64

// Vec6 is a spatial velocity: angular (x, y, z) then linear (x, y, z).
type Vec6 [6]float64

// Quat is an orientation quaternion (w, x, y, z).
type Quat [4]float64

// IdentityQuat is the no-rotation orientation.
var IdentityQuat = Quat{1, 0, 0, 0}

// Simulation is a stateful physics world.
//
// Implementations are not safe for concurrent use; every rollout owns its
// own instance. SaveState and RestoreState operate on a single snapshot
// slot, matching the save/restore bracket the episode driver needs.
type Simulation interface {
	// AddRobot places a robot at the given base position and orientation.
	AddRobot(r *Robot, pos Vec3, orn Quat)

	// AddProp places a static or dynamic prop.
	AddProp(p *Prop, pos Vec3, orn Quat)

	// Step advances the world by one fixed time step.
	Step()

	// SaveState snapshots the full world state into the snapshot slot.
	SaveState()

	// RestoreState restores the last saved snapshot. Calling it with no
	// prior SaveState is a no-op.
	RestoreState()

	// FindRobotIndex returns the index of a previously added robot, or -1.
	FindRobotIndex(r *Robot) int

	// RobotDofCount returns the number of actuated degrees of freedom.
	RobotDofCount(robotIdx int) int

	// SetJointTargetPositions sets the position targets for the robot's
	// actuated joints. len(targets) must equal RobotDofCount(robotIdx).
	SetJointTargetPositions(robotIdx int, targets []float64)

	// RobotWorldAABB returns the robot's axis-aligned bounding box.
	RobotWorldAABB(robotIdx int) (lower, upper Vec3)

	// BaseVelocity returns the robot base's spatial velocity.
	BaseVelocity(robotIdx int) Vec6

	// JointPositions and JointVelocities fill out with the robot's joint
	// state; len(out) must equal RobotDofCount(robotIdx).
	JointPositions(robotIdx int, out []float64)
	JointVelocities(robotIdx int, out []float64)

	// TimeStep returns the fixed step duration in seconds.
	TimeStep() float64
}

// Factory constructs independent simulation instances. Every call returns
// a fresh world with no state shared with any other instance; the
// optimizer relies on this to run rollouts without locking.
type Factory interface {
	New() Simulation
}

// PropShape enumerates prop geometry.
type PropShape int

const (
	PropBox PropShape = iota
)

// Prop is a passive body such as the floor.
type Prop struct {
	Shape       PropShape
	Density     float64 // zero density makes the prop static
	Friction    float64
	HalfExtents Vec3
}
