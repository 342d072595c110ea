package tripod

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/tripod/arena"
	"github.com/samuelfneumann/tripod/composer"
	"github.com/samuelfneumann/tripod/environment"
	"github.com/samuelfneumann/tripod/observation"
	"github.com/samuelfneumann/tripod/physics"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// RewardingZ is the height of the base which earns the maximum
	// reward of 0
	RewardingZ = 0.7

	// InitialZ is the height the creature starts each episode at
	InitialZ = 0.2

	// NumSubsteps is the number of physics steps per control step
	NumSubsteps = 10

	// SubstepDuration is the duration of a physics step in seconds
	SubstepDuration = 0.002
)

// StandUp rewards the tripod for keeping its base at a target height.
//
// The reward of each step is -|rewardingZ - z|, where z is the height
// of the base. The observation is the bounded generalized position
// under "position" and the generalized velocity under "velocity",
// followed by the creature's joint positions and velocities.
type StandUp struct {
	creature *Creature
	arena    *arena.Floor
	starter  environment.Starter

	rewardingZ      float64
	controlTimestep float64
	discount        float64
}

// NewStandUp returns a new StandUp task for creature. The starter
// samples the (x, y, z) position of the creature at the start of each
// episode.
func NewStandUp(creature *Creature, starter environment.Starter,
	rewardingZ, controlTimestep, discount float64) (*StandUp, error) {
	if controlTimestep <= 0 {
		return nil, fmt.Errorf("newStandUp: control timestep should be "+
			"positive but got %v", controlTimestep)
	}

	floor, err := arena.NewFloor(arena.DefaultSize)
	if err != nil {
		return nil, fmt.Errorf("newStandUp: %w", err)
	}
	if err := floor.AddFreeEntity(creature); err != nil {
		return nil, fmt.Errorf("newStandUp: %w", err)
	}
	floor.Model().Worldbody().Add("light", "pos", "0 0 4")

	for _, name := range []string{"joint_positions", "joint_velocities"} {
		if err := creature.Observables().SetEnabled(name, true); err != nil {
			return nil, fmt.Errorf("newStandUp: %w", err)
		}
	}

	return &StandUp{
		creature:        creature,
		arena:           floor,
		starter:         starter,
		rewardingZ:      rewardingZ,
		controlTimestep: controlTimestep,
		discount:        discount,
	}, nil
}

// NewStartAt returns a Starter which always starts the creature at
// pos
func NewStartAt(pos r3.Vec) environment.Starter {
	return environment.NewUniformStarter([]r1.Interval{
		{Min: pos.X, Max: pos.X},
		{Min: pos.Y, Max: pos.Y},
		{Min: pos.Z, Max: pos.Z},
	}, 0)
}

// Reward returns the reward of a base at height z
func Reward(z, rewardingZ float64) float64 {
	return -math.Abs(rewardingZ - z)
}

// Creature returns the creature of the task
func (s *StandUp) Creature() *Creature {
	return s.creature
}

// Arena returns the floor the creature stands on
func (s *StandUp) Arena() *arena.Floor {
	return s.arena
}

// RootEntity returns the arena, which holds the whole scene
func (s *StandUp) RootEntity() composer.Entity {
	return s.arena
}

// TaskObservables returns nil: all observables belong to the creature
func (s *StandUp) TaskObservables() *observation.Set {
	return nil
}

// ControlTimestep returns the duration of one agent step
func (s *StandUp) ControlTimestep() float64 {
	return s.controlTimestep
}

// InitializeEpisode places the creature at a sampled starting position
// with no rotation
func (s *StandUp) InitializeEpisode(p physics.Physics, _ *rand.Rand) error {
	start := s.starter.Start()
	if start.Len() != 3 {
		return fmt.Errorf("initializeEpisode: starting position should "+
			"have 3 components but got %v", start.Len())
	}

	pos := r3.Vec{X: start.AtVec(0), Y: start.AtVec(1), Z: start.AtVec(2)}
	if err := s.creature.SetPose(p, pos, physics.IdentityQuat); err != nil {
		return fmt.Errorf("initializeEpisode: %w", err)
	}
	return nil
}

// GetReward returns -|rewardingZ - z| for the height z of the base
func (s *StandUp) GetReward(p physics.Physics) (float64, error) {
	pos, err := p.BodyXPos(s.creature.Model().Identifier("base"))
	if err != nil {
		return 0, fmt.Errorf("getReward: %w", err)
	}
	return Reward(pos.Z, s.rewardingZ), nil
}

// GetObservation returns the bounded generalized position and the
// generalized velocity, in that order
func (s *StandUp) GetObservation(p physics.Physics) (*observation.Dict, error) {
	obs := observation.NewDict()
	obs.SetSlice("position", p.BoundedPosition())
	obs.SetSlice("velocity", p.Velocity())
	return obs, nil
}

// Discount returns the discount of every step
func (s *StandUp) Discount() float64 {
	return s.discount
}

// RewardRange returns the range of rewards. The maximum of 0 is
// attained exactly when the base is at the rewarding height.
func (s *StandUp) RewardRange() r1.Interval {
	return r1.Interval{Min: math.Inf(-1), Max: 0}
}
