package agent

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/tripod/environment"
	"github.com/samuelfneumann/tripod/timestep"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"
)

// UniformRandom is an Agent which selects actions uniformly at random
// within the action bounds
type UniformRandom struct {
	noLearning
	mode
	seed       uint64
	actionDims int
	dist       *distmv.Uniform
}

// NewUniformRandom returns a new UniformRandom agent for actions of the
// given spec. Every action dimension must be bounded.
func NewUniformRandom(actionSpec environment.Spec,
	seed uint64) (*UniformRandom, error) {
	dims := actionSpec.Shape.Len()
	u := &UniformRandom{seed: seed, actionDims: dims}
	if dims == 0 {
		return u, nil
	}

	bounds := make([]r1.Interval, dims)
	for i := range bounds {
		low := actionSpec.LowerBound.AtVec(i)
		high := actionSpec.UpperBound.AtVec(i)
		if math.IsInf(low, 0) || math.IsInf(high, 0) {
			return nil, fmt.Errorf("newUniformRandom: action dimension %v "+
				"is unbounded", i)
		}
		bounds[i] = r1.Interval{Min: low, Max: high}
	}

	u.dist = distmv.NewUniform(bounds, rand.NewSource(seed))
	return u, nil
}

// SelectAction samples an action uniformly from the action bounds
func (u *UniformRandom) SelectAction(timestep.TimeStep) *mat.VecDense {
	if u.actionDims == 0 {
		return &mat.VecDense{}
	}
	return mat.NewVecDense(u.actionDims, u.dist.Rand(nil))
}
