package composer

import (
	"github.com/samuelfneumann/tripod/observation"
	"github.com/samuelfneumann/tripod/physics"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r1"
)

// Task defines the scene, episode initialisation, reward and
// observation of an environment
type Task interface {
	// RootEntity returns the entity whose model is the whole scene
	RootEntity() Entity

	// TaskObservables returns observables owned by the task itself
	TaskObservables() *observation.Set

	// ControlTimestep returns the duration of one agent step
	ControlTimestep() float64

	// InitializeEpisode sets up the physics at the start of an episode
	InitializeEpisode(p physics.Physics, rng *rand.Rand) error

	GetReward(p physics.Physics) (float64, error)

	// GetObservation returns the task's own observation keys. Enabled
	// observables are appended to it by the environment.
	GetObservation(p physics.Physics) (*observation.Dict, error)

	Discount() float64
}

// RewardRanger is implemented by tasks which know the range of their
// rewards
type RewardRanger interface {
	RewardRange() r1.Interval
}
