package tripod

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/tripod/composer"
	"github.com/samuelfneumann/tripod/physics"
	"github.com/samuelfneumann/tripod/timestep"
	"gonum.org/v1/gonum/spatial/r3"

	// Default physics engine
	_ "github.com/samuelfneumann/tripod/physics/planar"
)

// DefaultDiscount is the discount of the default environment
const DefaultDiscount = 1.0

// New returns the default tripod environment: the tripod from FilePath
// starting at height InitialZ, rewarded for reaching RewardingZ, on
// the default physics engine with episodes that never time out.
func New(seed uint64) (*composer.Environment, timestep.TimeStep, error) {
	creature, err := NewCreature(FilePath)
	if err != nil {
		return nil, timestep.TimeStep{}, fmt.Errorf("new: %w", err)
	}

	task, err := NewStandUp(creature, NewStartAt(r3.Vec{Z: InitialZ}),
		RewardingZ, NumSubsteps*SubstepDuration, DefaultDiscount)
	if err != nil {
		return nil, timestep.TimeStep{}, fmt.Errorf("new: %w", err)
	}

	env, step, err := composer.NewEnvironment(task, physics.DefaultEngine,
		seed, math.Inf(1))
	if err != nil {
		return nil, timestep.TimeStep{}, fmt.Errorf("new: %w", err)
	}
	return env, step, nil
}
