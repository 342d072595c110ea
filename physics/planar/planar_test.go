package planar

import (
	"math"
	"testing"

	"github.com/samuelfneumann/tripod/mjcf"
	"github.com/samuelfneumann/tripod/physics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

const ballXML = `
<mujoco model="ball">
  <worldbody>
    <geom name="floor" type="plane" size="2 2 0.1"/>
    <body name="ball" pos="0 0 1">
      <freejoint name="root"/>
      <geom type="sphere" size="0.1"/>
    </body>
  </worldbody>
</mujoco>`

const pendulumXML = `
<mujoco model="pendulum">
  <compiler angle="degree"/>
  <option gravity="0 0 0"/>
  <worldbody>
    <body name="pole" pos="0 0 1">
      <joint name="hinge" axis="0 1 0" range="-30 30"/>
      <geom type="capsule" fromto="0 0 0 0 0 -0.5" size="0.02"/>
      <body name="tip" pos="0 0 -0.5"/>
    </body>
  </worldbody>
  <actuator>
    <motor name="torque" joint="hinge" gear="2" ctrlrange="-1 1"/>
  </actuator>
</mujoco>`

func load(t *testing.T, xml string) *Physics {
	t.Helper()
	m, err := mjcf.FromString(xml)
	require.NoError(t, err)
	p, err := New(m)
	require.NoError(t, err)
	return p
}

func TestRegistered(t *testing.T) {
	assert.Contains(t, physics.Engines(), Name)

	m, err := mjcf.FromString(ballXML)
	require.NoError(t, err)
	p, err := physics.Load(Name, m)
	require.NoError(t, err)
	defer p.Close()
	assert.Equal(t, 7, p.NQ())
}

func TestFreeJointLayout(t *testing.T) {
	p := load(t, ballXML)

	assert.Equal(t, 7, p.NQ())
	assert.Equal(t, 6, p.NV())
	assert.Equal(t, 0, p.NU())
	assert.InDeltaSlice(t, []float64{0, 0, 1, 1, 0, 0, 0}, p.QPos(), 1e-12)
	assert.Equal(t, make([]float64, 6), p.QVel())

	root, err := p.JointQPos([]string{"root"})
	require.NoError(t, err)
	assert.Len(t, root, 7)

	_, err = p.JointQPos([]string{"nope"})
	assert.ErrorIs(t, err, physics.ErrNoSuchJoint)
}

func TestBallFallsUnderGravity(t *testing.T) {
	p := load(t, ballXML)

	require.NoError(t, p.Step(&mat.VecDense{}, 50))
	assert.InDelta(t, 50*p.Timestep(), p.Time(), 1e-12)

	pos, err := p.BodyXPos("ball")
	require.NoError(t, err)
	assert.Less(t, pos.Z, 1.0)
	assert.Less(t, p.QVel()[2], 0.0)
}

func TestSetFreeJointPoseAndReset(t *testing.T) {
	p := load(t, ballXML)

	quat := [4]float64{math.Cos(math.Pi / 8), 0, math.Sin(math.Pi / 8), 0}
	require.NoError(t, p.SetFreeJointPose("ball", r3.Vec{X: 0.5, Y: 0.25, Z: 0.2},
		quat))

	pos, err := p.BodyXPos("ball")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, pos.X, 1e-12)
	assert.InDelta(t, 0.25, pos.Y, 1e-12)
	assert.InDelta(t, 0.2, pos.Z, 1e-12)

	q := p.QPos()
	assert.InDelta(t, quat[0], q[3], 1e-9)
	assert.InDelta(t, quat[2], q[5], 1e-9)

	p.Reset()
	assert.Zero(t, p.Time())
	assert.InDeltaSlice(t, []float64{0, 0, 1, 1, 0, 0, 0}, p.QPos(), 1e-12)

	assert.ErrorIs(t, p.SetFreeJointPose("missing", r3.Vec{}, physics.IdentityQuat),
		physics.ErrNoSuchBody)
	assert.Error(t, p.SetFreeJointPose("floor", r3.Vec{}, physics.IdentityQuat))
}

func TestHingeAndMotor(t *testing.T) {
	p := load(t, pendulumXML)

	assert.Equal(t, 1, p.NQ())
	assert.Equal(t, 1, p.NV())
	assert.Equal(t, 1, p.NU())

	low, high := p.ActionBounds()
	assert.Equal(t, []float64{-1}, low)
	assert.Equal(t, []float64{1}, high)

	tip, err := p.BodyXPos("tip")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, tip.Z, 1e-12)

	// A positive torque about +y swings the tip towards -x
	require.NoError(t, p.Step(mat.NewVecDense(1, []float64{1}), 20))
	assert.Greater(t, p.QPos()[0], 0.0)
	assert.Greater(t, p.QVel()[0], 0.0)

	tip, err = p.BodyXPos("tip")
	require.NoError(t, err)
	assert.Less(t, tip.X, 0.0)

	assert.Error(t, p.Step(mat.NewVecDense(2, nil), 1))
	assert.Error(t, p.Step(mat.NewVecDense(1, nil), 0))
}

func TestBoundedPositionClipsToRange(t *testing.T) {
	p := load(t, pendulumXML)

	for i := 0; i < 200; i++ {
		require.NoError(t, p.Step(mat.NewVecDense(1, []float64{1}), 10))
	}
	limit := 30 * math.Pi / 180
	bounded := p.BoundedPosition()
	assert.LessOrEqual(t, bounded[0], limit)
	assert.InDelta(t, limit, bounded[0], 0.05)
}

func TestUnsupportedModels(t *testing.T) {
	cases := map[string]string{
		"slide joint": `<mujoco model="m"><worldbody><body name="b">
			<joint type="slide"/><geom size="0.1"/></body></worldbody></mujoco>`,
		"two joints": `<mujoco model="m"><worldbody><body name="b">
			<joint name="a"/><joint name="c"/><geom size="0.1"/></body>
			</worldbody></mujoco>`,
		"mesh geom": `<mujoco model="m"><worldbody><body name="b">
			<freejoint/><geom type="mesh"/></body></worldbody></mujoco>`,
		"motor on missing joint": `<mujoco model="m"><worldbody/>
			<actuator><motor joint="missing"/></actuator></mujoco>`,
	}

	for name, xml := range cases {
		t.Run(name, func(t *testing.T) {
			m, err := mjcf.FromString(xml)
			require.NoError(t, err)
			_, err = New(m)
			assert.Error(t, err)
		})
	}
}
