package agent

import (
	"math"
	"testing"

	"github.com/samuelfneumann/tripod/environment"
	"github.com/samuelfneumann/tripod/timestep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZero(t *testing.T) {
	var a Agent = NewZero(environment.NewBoxSpec(environment.Action,
		[]float64{-1, -1, -1}, []float64{1, 1, 1}))

	action := a.SelectAction(timestep.TimeStep{})
	assert.Equal(t, []float64{0, 0, 0}, action.RawVector().Data)
	assert.NoError(t, a.Step())

	assert.False(t, a.IsEval())
	a.Eval()
	assert.True(t, a.IsEval())
	a.Train()
	assert.False(t, a.IsEval())
}

func TestUniformRandom(t *testing.T) {
	spec := environment.NewBoxSpec(environment.Action, []float64{-1, 0},
		[]float64{1, 0.5})
	a, err := NewUniformRandom(spec, 42)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		action := a.SelectAction(timestep.TimeStep{})
		require.Equal(t, 2, action.Len())
		assert.GreaterOrEqual(t, action.AtVec(0), -1.0)
		assert.LessOrEqual(t, action.AtVec(0), 1.0)
		assert.GreaterOrEqual(t, action.AtVec(1), 0.0)
		assert.LessOrEqual(t, action.AtVec(1), 0.5)
	}

	b, err := NewUniformRandom(spec, 42)
	require.NoError(t, err)
	c, err := NewUniformRandom(spec, 42)
	require.NoError(t, err)
	assert.Equal(t, b.SelectAction(timestep.TimeStep{}).RawVector().Data,
		c.SelectAction(timestep.TimeStep{}).RawVector().Data)
}

func TestUniformRandomNeedsBounds(t *testing.T) {
	spec := environment.NewBoxSpec(environment.Action, []float64{math.Inf(-1)},
		[]float64{1})
	_, err := NewUniformRandom(spec, 42)
	assert.Error(t, err)
}
