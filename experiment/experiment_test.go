package experiment

import (
	"math"
	"testing"

	"github.com/samuelfneumann/tripod/agent"
	"github.com/samuelfneumann/tripod/environment"
	"github.com/samuelfneumann/tripod/experiment/tracker"
	"github.com/samuelfneumann/tripod/experiment/trackers"
	"github.com/samuelfneumann/tripod/observation"
	ts "github.com/samuelfneumann/tripod/timestep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// countdown is an environment whose episodes last a fixed number of
// steps, each rewarded -1
type countdown struct {
	length  int
	resets  int
	current ts.TimeStep
}

func (c *countdown) Reset() (ts.TimeStep, error) {
	c.resets++
	c.current = ts.New(ts.First, 0, 1, observation.NewDict(), 0)
	return c.current, nil
}

func (c *countdown) Step(*mat.VecDense) (ts.TimeStep, bool, error) {
	n := c.current.Number + 1
	stepType := ts.Mid
	if n >= c.length {
		stepType = ts.Last
	}
	c.current = ts.New(stepType, -1, 1, observation.NewDict(), n)
	return c.current, c.current.Last(), nil
}

func (c *countdown) CurrentTimeStep() ts.TimeStep { return c.current }
func (c *countdown) RewardSpec() environment.Spec {
	return environment.NewScalarSpec(environment.Reward, -1, -1)
}
func (c *countdown) DiscountSpec() environment.Spec {
	return environment.NewScalarSpec(environment.Discount, 1, 1)
}
func (c *countdown) ObservationSpec() environment.Spec {
	return environment.NewBoxSpec(environment.Observation, nil, nil)
}
func (c *countdown) ActionSpec() environment.Spec {
	return environment.NewBoxSpec(environment.Action, []float64{-1},
		[]float64{1})
}
func (c *countdown) Close() {}

func TestOnlineRunsUntilStepLimit(t *testing.T) {
	env := &countdown{length: 4}
	ret := trackers.NewReturn(t.TempDir() + "/return.bin")
	exp := NewOnline(env, agent.NewZero(env.ActionSpec()), 10, ret)

	steps := 0
	exp.OnStep = func(ts.TimeStep) { steps++ }
	require.NoError(t, exp.Run())

	assert.Equal(t, uint(10), exp.Steps())
	assert.Equal(t, 10, steps)
	assert.Equal(t, 3, env.resets)
	assert.Equal(t, []float64{-4, -4, -2}, ret.Returns())
	assert.NoError(t, exp.Save())
}

func TestRegisteredTracker(t *testing.T) {
	env := &countdown{length: math.MaxInt32}
	lengths := trackers.NewEpisodeLength(t.TempDir() + "/length.bin")
	exp := NewOnline(env, agent.NewZero(env.ActionSpec()), 3)
	exp.Register(tracker.Register(lengths, env))

	require.NoError(t, exp.Run())
	require.NoError(t, exp.Save())
}
