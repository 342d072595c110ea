package timestep

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetEndOnlyAffectsLastStep(t *testing.T) {
	step := New(Mid, -0.5, 1.0, nil, 3)
	step.SetEnd(Timeout)
	assert.Equal(t, NotEnded, step.EndType())

	step.StepType = Last
	step.SetEnd(Timeout)
	assert.Equal(t, Timeout, step.EndType())
	assert.True(t, step.Last())
	assert.False(t, step.Mid())
}

func TestString(t *testing.T) {
	step := New(First, 0, 0.99, nil, 0)
	assert.Equal(t, "TimeStep | Type: First  |  Reward:  0.000  |  "+
		"Discount: 0.99  |  Step Number:  0", step.String())
}
