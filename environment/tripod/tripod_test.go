package tripod

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/tripod/composer"
	"github.com/samuelfneumann/tripod/mjcf"
	"github.com/samuelfneumann/tripod/physics"
	"github.com/samuelfneumann/tripod/physics/physicstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestRewardPeaksAtRewardingZ(t *testing.T) {
	assert.Equal(t, 0.0, Reward(RewardingZ, RewardingZ))

	prev := Reward(RewardingZ, RewardingZ)
	for d := 0.05; d < 2; d += 0.05 {
		above := Reward(RewardingZ+d, RewardingZ)
		below := Reward(RewardingZ-d, RewardingZ)
		assert.Less(t, above, 0.0)
		assert.InDelta(t, above, below, 1e-12, "reward is symmetric")
		assert.LessOrEqual(t, above, prev+1e-12, "reward is non-increasing")
		prev = above
	}
}

func newTask(t *testing.T) *StandUp {
	t.Helper()
	creature, err := NewCreature(FilePath)
	require.NoError(t, err)
	task, err := NewStandUp(creature, NewStartAt(r3.Vec{Z: InitialZ}),
		RewardingZ, NumSubsteps*SubstepDuration, DefaultDiscount)
	require.NoError(t, err)
	return task
}

func TestGetRewardReadsBaseHeight(t *testing.T) {
	task := newTask(t)
	fake := physicstest.NewFake(10, 9, 3)

	for _, z := range []float64{0, 0.2, 0.7, 1.5} {
		fake.Bodies["tripod/base"] = r3.Vec{X: 3, Y: -1, Z: z}
		reward, err := task.GetReward(fake)
		require.NoError(t, err)
		assert.InDelta(t, -math.Abs(0.7-z), reward, 1e-12)
	}

	delete(fake.Bodies, "tripod/base")
	_, err := task.GetReward(fake)
	assert.ErrorIs(t, err, physics.ErrNoSuchBody)
}

func TestCreature(t *testing.T) {
	task := newTask(t)
	creature := task.Creature()

	assert.Len(t, creature.Actuators(), 3)
	assert.Equal(t, []string{"tripod/hip_1", "tripod/hip_2", "tripod/hip_3"},
		creature.Joints())

	for _, name := range []string{"joint_positions", "joint_velocities"} {
		o, ok := creature.Observables().Get(name)
		require.True(t, ok)
		assert.True(t, o.Enabled)
	}

	names := task.Arena().Model().Identifiers("light")
	assert.Empty(t, names, "the light is unnamed")
	assert.Len(t, task.Arena().Model().FindAll("light"), 1)
}

func TestMissingSceneFile(t *testing.T) {
	_, err := NewCreature(filepath.Join(t.TempDir(), "missing.xml"))
	assert.ErrorIs(t, err, mjcf.ErrLoad)

	_, err = NewCreature("no_such_tripod.xml")
	assert.ErrorIs(t, err, mjcf.ErrLoad)
}

func TestResolvePath(t *testing.T) {
	assert.Equal(t, "./scene.xml", ResolvePath("./scene.xml"))
	assert.Equal(t, "/tmp/scene.xml", ResolvePath("/tmp/scene.xml"))
	assert.Equal(t, filepath.Join(AssetsDir, FilePath), ResolvePath(FilePath))
}

func TestResetPlacesCreature(t *testing.T) {
	env, first, err := New(42)
	require.NoError(t, err)
	defer env.Close()

	assert.True(t, first.First())
	assert.Equal(t, []string{"position", "velocity", "tripod/joint_positions",
		"tripod/joint_velocities"}, first.Observation.Keys())

	p := env.Physics()
	position, ok := first.Observation.Get("position")
	require.True(t, ok)
	assert.Equal(t, p.NQ(), position.Len())
	assert.Equal(t, []float64{0, 0, 0.2}, []float64{position.AtVec(0),
		position.AtVec(1), position.AtVec(2)})

	base, err := p.BodyXPos("tripod/base")
	require.NoError(t, err)
	assert.Equal(t, r3.Vec{Z: 0.2}, base)

	reward, err := env.Task().GetReward(p)
	require.NoError(t, err)
	assert.InDelta(t, -0.5, reward, 1e-9)
}

func TestZeroActionRollout(t *testing.T) {
	env, _, err := New(42)
	require.NoError(t, err)
	defer env.Close()

	p := env.Physics()
	action := mat.NewVecDense(p.NU(), nil)
	for i := 0; i < 50; i++ {
		step, last, err := env.Step(action)
		require.NoError(t, err)
		require.False(t, last, "episodes without a time limit never end")

		position, _ := step.Observation.Get("position")
		velocity, _ := step.Observation.Get("velocity")
		require.Equal(t, p.NQ(), position.Len())
		require.Equal(t, p.NV(), velocity.Len())
		require.Equal(t, []string{"position", "velocity"},
			step.Observation.Keys()[:2])
		require.LessOrEqual(t, step.Reward, 0.0)
	}
	assert.InDelta(t, 50*NumSubsteps*SubstepDuration, p.Time(), 1e-9)
}

func TestToggleJointObservables(t *testing.T) {
	env, _, err := New(42)
	require.NoError(t, err)
	defer env.Close()

	task := env.Task().(*StandUp)
	require.NoError(t, task.Creature().Observables().SetEnabled(
		"joint_velocities", false))

	step, err := env.Reset()
	require.NoError(t, err)
	assert.Equal(t, []string{"position", "velocity", "tripod/joint_positions"},
		step.Observation.Keys())

	jointPositions, _ := step.Observation.Get("tripod/joint_positions")
	assert.Equal(t, 3, jointPositions.Len())
}

func TestRunsOnAnyPhysics(t *testing.T) {
	task := newTask(t)
	fake := physicstest.NewFake(10, 9, 3)
	fake.Joints["tripod/"] = physicstest.Joint{QPosAdr: 0, NQ: 7, DofAdr: 0, NV: 6}
	fake.FreeBodies["tripod/"] = "tripod/"
	fake.Bodies["tripod/base"] = r3.Vec{Z: RewardingZ}
	for i, name := range []string{"tripod/hip_1", "tripod/hip_2", "tripod/hip_3"} {
		fake.Joints[name] = physicstest.Joint{QPosAdr: 7 + i, NQ: 1,
			DofAdr: 6 + i, NV: 1}
	}

	env, _, err := composer.NewEnvironmentWithPhysics(task, fake, 42,
		math.Inf(1))
	require.NoError(t, err)
	assert.Equal(t, NumSubsteps, env.Substeps())
	assert.Equal(t, []float64{0, 0, InitialZ, 1, 0, 0, 0}, fake.QPos()[:7])

	step, _, err := env.Step(mat.NewVecDense(3, nil))
	require.NoError(t, err)
	assert.Equal(t, 0.0, step.Reward)
}
