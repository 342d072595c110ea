package agent

import (
	"github.com/samuelfneumann/tripod/environment"
	"github.com/samuelfneumann/tripod/timestep"
	"gonum.org/v1/gonum/mat"
)

// Zero is an Agent which always takes the zero action
type Zero struct {
	noLearning
	mode
	actionDims int
}

// NewZero returns a new Zero agent for actions of the given spec
func NewZero(actionSpec environment.Spec) *Zero {
	return &Zero{actionDims: actionSpec.Shape.Len()}
}

// SelectAction returns the zero action
func (z *Zero) SelectAction(timestep.TimeStep) *mat.VecDense {
	if z.actionDims == 0 {
		return &mat.VecDense{}
	}
	return mat.NewVecDense(z.actionDims, nil)
}
