package environment

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// SpecType determines what kind of specification a Spec is. A Spec can
// specify the layout of an action, an observation, a discount, or a
// reward
type SpecType int

const (
	Action SpecType = iota
	Observation
	Discount
	Reward
)

func (s SpecType) String() string {
	switch s {
	case Action:
		return "Action"
	case Observation:
		return "Observation"
	case Discount:
		return "Discount"
	case Reward:
		return "Reward"
	}
	return fmt.Sprintf("SpecType(%d)", int(s))
}

// Cardinality determines the cardinality of a number (discrete or
// continuous)
type Cardinality string

const (
	Continuous Cardinality = "Continuous"
	Discrete   Cardinality = "Discrete"
)

// Spec implements an environment specification, which tells the type,
// shape, and bounds of an action, observation, discount, or reward in
// an environment
type Spec struct {
	Shape      mat.Vector
	Type       SpecType
	LowerBound mat.Vector
	UpperBound mat.Vector
	Cardinality
}

// NewSpec constructs a new environment specification.
// The shape argument outlines the shape of the data described by the
// specification. The argument t outlines what the specification is
// describing (e.g. actions, observations, etc.). The cardinality
// argument describes whether the values that the spec describes are
// continuous or discrete.
func NewSpec(shape mat.Vector, t SpecType, lowerBound,
	upperBound mat.Vector, cardinality Cardinality) Spec {
	if shape.Len() != lowerBound.Len() {
		panic(fmt.Sprintf("shape length %v must match lower bounds length %v",
			shape.Len(), lowerBound.Len()))
	}
	if shape.Len() != upperBound.Len() {
		panic(fmt.Sprintf("shape length %v must match upper bounds length %v",
			shape.Len(), upperBound.Len()))
	}
	return Spec{shape, t, lowerBound, upperBound, cardinality}
}

// NewScalarSpec returns a continuous Spec of a single value bounded by
// [low, high]
func NewScalarSpec(t SpecType, low, high float64) Spec {
	return NewSpec(mat.NewVecDense(1, nil), t,
		mat.NewVecDense(1, []float64{low}),
		mat.NewVecDense(1, []float64{high}), Continuous)
}

// NewBoxSpec returns a continuous Spec of a vector bounded elementwise
// by low and high
func NewBoxSpec(t SpecType, low, high []float64) Spec {
	if len(low) != len(high) {
		panic(fmt.Sprintf("lower bounds length %v must match upper bounds "+
			"length %v", len(low), len(high)))
	}
	if len(low) == 0 {
		shape := &mat.VecDense{}
		return Spec{shape, t, &mat.VecDense{}, &mat.VecDense{}, Continuous}
	}
	return NewSpec(mat.NewVecDense(len(low), nil), t,
		mat.NewVecDense(len(low), append([]float64(nil), low...)),
		mat.NewVecDense(len(high), append([]float64(nil), high...)),
		Continuous)
}
