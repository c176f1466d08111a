package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoJointRobot() *Robot {
	return &Robot{
		Name: "crawler",
		Links: []Link{
			{Name: "body", Parent: -1, Length: 0.6, Mass: 2},
			{Name: "front", Parent: 0, Joint: JointHinge, Length: 0.3, Mass: 1},
			{Name: "back", Parent: 0, Joint: JointHinge, Length: 0.3, Mass: 1},
		},
	}
}

func TestArticulated_Determinism(t *testing.T) {
	run := func() Vec6 {
		w := NewArticulated(1.0 / 240)
		r := twoJointRobot()
		w.AddRobot(r, Vec3{}, IdentityQuat)
		idx := w.FindRobotIndex(r)
		for i := 0; i < 200; i++ {
			w.SetJointTargetPositions(idx, []float64{0.4, -0.4})
			w.Step()
		}
		return w.BaseVelocity(idx)
	}

	first := run()
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, run(), "identical command sequences must yield identical state")
	}
}

func TestArticulated_ServoTracksTarget(t *testing.T) {
	w := NewArticulated(1.0 / 240)
	r := twoJointRobot()
	w.AddRobot(r, Vec3{}, IdentityQuat)
	idx := w.FindRobotIndex(r)

	for i := 0; i < 2000; i++ {
		w.SetJointTargetPositions(idx, []float64{0.5, -0.25})
		w.Step()
	}

	q := make([]float64, w.RobotDofCount(idx))
	w.JointPositions(idx, q)
	assert.InDelta(t, 0.5, q[0], 0.05)
	assert.InDelta(t, -0.25, q[1], 0.05)
}

func TestArticulated_SaveRestoreBracket(t *testing.T) {
	w := NewArticulated(1.0 / 240)
	r := twoJointRobot()
	w.AddRobot(r, Vec3{0, 0.3, 0}, IdentityQuat)
	idx := w.FindRobotIndex(r)

	w.SaveState()
	beforeVel := w.BaseVelocity(idx)
	before := make([]float64, w.RobotDofCount(idx))
	w.JointPositions(idx, before)

	for i := 0; i < 100; i++ {
		w.SetJointTargetPositions(idx, []float64{1, 1})
		w.Step()
	}
	w.RestoreState()

	after := make([]float64, w.RobotDofCount(idx))
	w.JointPositions(idx, after)
	assert.Equal(t, before, after, "restore must roll back joint state")
	assert.Equal(t, beforeVel, w.BaseVelocity(idx), "restore must roll back base state")
}

func TestArticulated_RestoreWithoutSaveIsNoop(t *testing.T) {
	w := NewArticulated(1.0 / 240)
	r := twoJointRobot()
	w.AddRobot(r, Vec3{}, IdentityQuat)
	assert.NotPanics(t, func() { w.RestoreState() })
}

func TestScene_InstancesAreIndependent(t *testing.T) {
	scene := &Scene{
		TimeStep: 1.0 / 240,
		Robot:    twoJointRobot(),
		Floor:    &Prop{Shape: PropBox, Friction: 0.9, HalfExtents: Vec3{10, 1, 10}},
		Origin:   Vec3{0, 0.3, 0},
	}

	a := scene.New()
	b := scene.New()
	ia := a.FindRobotIndex(scene.Robot)
	ib := b.FindRobotIndex(scene.Robot)
	require.Equal(t, ia, ib)

	for i := 0; i < 50; i++ {
		a.SetJointTargetPositions(ia, []float64{0.8, 0.8})
		a.Step()
	}

	assert.NotEqual(t, a.BaseVelocity(ia), b.BaseVelocity(ib), "stepping one world moved it")
	q := make([]float64, b.RobotDofCount(ib))
	b.JointPositions(ib, q)
	assert.Equal(t, []float64{0, 0}, q, "the sibling world never moved")
}

func TestRestOffset_PlacesRobotOnFloor(t *testing.T) {
	r := twoJointRobot()
	offset := RestOffset(1.0/240, r)
	assert.Equal(t, r.TotalLength()/2, offset)
}
