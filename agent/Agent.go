// Package agent defines an agent interface and simple agents which
// drive environments without learning
package agent

import (
	"github.com/samuelfneumann/tripod/timestep"
	"gonum.org/v1/gonum/mat"
)

// Agent determines the implementation details of an agent or algorithm
//
// An Agent is composed of a Learner, which learns weights, and a Policy
// which chooses actions in each state. The Policy chooses which actions
// are taken, and the Learner uses these actions to update the Policy.
type Agent interface {
	Learner
	Policy
}

// Learner implements a learning algorithm that defines how weights are
// updated.
type Learner interface {
	// Step performs a single update to the learner
	Step() error

	// Observe records that an action lead to some timestep
	Observe(action mat.Vector, nextObs timestep.TimeStep) error

	// ObserveFirst records the first timestep in an episode
	ObserveFirst(timestep.TimeStep) error

	// EndEpisode performs cleanup at the end of an episode
	EndEpisode()
}

// Policy represents a policy that an agent can have. Policies
// determine how agents select actions.
type Policy interface {
	SelectAction(t timestep.TimeStep) *mat.VecDense
	Eval()        // Set policy to evaluation mode
	Train()       // Set policy to training mode
	IsEval() bool // Indicates if in evaluation mode
}

// noLearning implements the Learner interface for agents which do not
// learn
type noLearning struct{}

func (noLearning) Step() error                                { return nil }
func (noLearning) Observe(mat.Vector, timestep.TimeStep) error { return nil }
func (noLearning) ObserveFirst(timestep.TimeStep) error        { return nil }
func (noLearning) EndEpisode()                                {}

// mode implements the evaluation and training modes of a Policy
type mode struct {
	eval bool
}

func (m *mode) Eval()        { m.eval = true }
func (m *mode) Train()       { m.eval = false }
func (m *mode) IsEval() bool { return m.eval }
