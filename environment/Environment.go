// Package environment outlines the interfaces and structs needed to
// implement and drive concrete environments
package environment

import (
	"github.com/samuelfneumann/tripod/timestep"
	"gonum.org/v1/gonum/mat"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines when episodes end. If an Ender ends an episode, it
// modifies the timestep so that its StepType is timestep.Last.
type Ender interface {
	End(*timestep.TimeStep) bool
}

// Environment implements a simulated environment. Environments start
// ready to use: constructors return the first timestep of the first
// episode.
type Environment interface {
	// Reset resets the environment between episodes
	Reset() (timestep.TimeStep, error)

	// Step takes one action in the environment and returns the next
	// timestep and whether the episode has ended
	Step(action *mat.VecDense) (timestep.TimeStep, bool, error)

	CurrentTimeStep() timestep.TimeStep

	RewardSpec() Spec
	DiscountSpec() Spec
	ObservationSpec() Spec
	ActionSpec() Spec

	Close()
}
