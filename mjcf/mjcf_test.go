package mjcf

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const creatureXML = `
<mujoco model="critter">
  <compiler angle="degree"/>
  <worldbody>
    <!-- root body -->
    <body name="base">
      <geom name="torso" type="sphere" size="0.05"/>
      <body name="leg" pos="0.05 0 0">
        <joint name="hip" axis="0 1 0" range="-90 90"/>
        <geom name="shin" type="capsule" fromto="0 0 0 0 0 -0.1" size="0.01"/>
      </body>
    </body>
  </worldbody>
  <actuator>
    <motor name="hip" joint="hip" ctrlrange="-1 1"/>
  </actuator>
</mujoco>`

const arenaXML = `
<mujoco model="arena">
  <compiler angle="radian"/>
  <worldbody>
    <geom name="ground" type="plane" size="1 1 0.1"/>
  </worldbody>
</mujoco>`

func TestFromPathMissingFile(t *testing.T) {
	_, err := FromPath(filepath.Join(t.TempDir(), "missing.xml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoad)
}

func TestFromPathMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.xml")
	require.NoError(t, os.WriteFile(path, []byte("<mujoco><worldbody>"), 0o644))

	_, err := FromPath(path)
	assert.ErrorIs(t, err, ErrLoad)

	_, err = FromString("<robot/>")
	assert.ErrorIs(t, err, ErrLoad)
}

func TestFindAll(t *testing.T) {
	m, err := FromString(creatureXML)
	require.NoError(t, err)

	assert.Equal(t, "critter", m.Name())
	assert.Equal(t, []string{"hip"}, m.Identifiers("joint"))
	assert.Equal(t, []string{"base", "leg"}, m.Identifiers("body"))
	assert.Equal(t, []string{"torso", "shin"}, m.Identifiers("geom"))

	actuators := m.FindAll("actuator")
	require.Len(t, actuators, 1)
	assert.Equal(t, "motor", actuators[0].Tag)

	assert.NotNil(t, m.Find("body", "leg"))
	assert.Nil(t, m.Find("body", "arm"))
	assert.InDelta(t, math.Pi/180, m.AngleScale(), 1e-12)
}

func TestAttach(t *testing.T) {
	arena, err := FromString(arenaXML)
	require.NoError(t, err)
	creature, err := FromString(creatureXML)
	require.NoError(t, err)

	frame, err := arena.Attach(creature, true)
	require.NoError(t, err)
	assert.Equal(t, "critter/", frame.Name())
	assert.Equal(t, "critter/", creature.Namespace())
	assert.Equal(t, "critter/base", creature.Identifier("base"))

	// The creature still reports its own elements, now namespaced
	assert.Equal(t, []string{"critter/hip"}, creature.Identifiers("joint"))

	// The composed scene contains the prefixed copy and a free joint
	assert.Equal(t, []string{"critter/", "critter/hip"},
		arena.Identifiers("joint"))
	assert.Equal(t, []string{"critter/", "critter/base", "critter/leg"},
		arena.Identifiers("body"))

	motor := arena.Find("actuator", "critter/hip")
	require.NotNil(t, motor)
	ref, _ := motor.Get("joint")
	assert.Equal(t, "critter/hip", ref)

	// Degrees are converted to the arena's radians
	hip := arena.Find("joint", "critter/hip")
	rng, err := hip.Floats("range", nil)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{-math.Pi / 2, math.Pi / 2}, rng, 1e-12)

	_, err = arena.Attach(creature, true)
	assert.Error(t, err, "attaching twice should fail")
}

func TestBytesRoundTrip(t *testing.T) {
	arena, err := FromString(arenaXML)
	require.NoError(t, err)
	arena.Worldbody().Add("light", "pos", "0 0 4")

	data, err := arena.Bytes()
	require.NoError(t, err)

	again, err := FromBytes(data)
	require.NoError(t, err)
	light := again.Worldbody().Child("light")
	require.NotNil(t, light)
	pos, err := light.Floats("pos", nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 4}, pos)
}

func TestTimestep(t *testing.T) {
	m := New("empty")
	dt, err := m.Timestep()
	require.NoError(t, err)
	assert.Equal(t, DefaultTimestep, dt)

	m.Section("option").Set("timestep", "0.01")
	dt, err = m.Timestep()
	require.NoError(t, err)
	assert.Equal(t, 0.01, dt)

	m.Section("option").Set("timestep", "-1")
	_, err = m.Timestep()
	assert.Error(t, err)
}
