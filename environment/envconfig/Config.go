// Package envconfig provides configuration structs for configuring
// the tripod environment with physical parameters and task settings.
// Configurations in this package are JSON serializable.
package envconfig

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/samuelfneumann/tripod/composer"
	env "github.com/samuelfneumann/tripod/environment"
	"github.com/samuelfneumann/tripod/environment/tripod"
	"github.com/samuelfneumann/tripod/physics"
	ts "github.com/samuelfneumann/tripod/timestep"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Config implements a specific configuration of the tripod environment
// and its task
type Config struct {
	// ModelPath is the scene file of the creature, resolved by
	// tripod.ResolvePath
	ModelPath string

	// Engine is the registered physics engine to simulate with
	Engine string

	Seed        uint64
	NumSubsteps int
	RewardingZ  float64
	InitialZ    float64

	// TimeLimit is the duration of an episode in seconds of physics
	// time. A TimeLimit of 0 means episodes never time out.
	TimeLimit float64

	Discount float64

	// StepLimit ends episodes after a number of steps if positive
	StepLimit int

	// FallZ ends episodes once the creature's root falls below this
	// height if positive
	FallZ float64
}

// Default returns the default configuration
func Default() Config {
	return Config{
		ModelPath:   tripod.FilePath,
		Engine:      physics.DefaultEngine,
		Seed:        42,
		NumSubsteps: tripod.NumSubsteps,
		RewardingZ:  tripod.RewardingZ,
		InitialZ:    tripod.InitialZ,
		TimeLimit:   0,
		Discount:    tripod.DefaultDiscount,
	}
}

// Load reads a JSON configuration. Fields missing from the file keep
// their default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load: %v", err)
	}

	c := Default()
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("load: could not decode %v: %v", path,
			err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("load: %w", err)
	}
	return c, nil
}

// Save writes the configuration as JSON
func (c Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "\t")
	if err != nil {
		return fmt.Errorf("save: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	return nil
}

// Validate checks that the configuration describes a valid
// environment
func (c Config) Validate() error {
	switch {
	case c.ModelPath == "":
		return fmt.Errorf("validate: no model path")
	case c.NumSubsteps < 1:
		return fmt.Errorf("validate: number of substeps should be "+
			"positive but got %v", c.NumSubsteps)
	case c.TimeLimit < 0:
		return fmt.Errorf("validate: time limit should be non-negative "+
			"but got %v", c.TimeLimit)
	case c.Discount < 0 || c.Discount > 1:
		return fmt.Errorf("validate: discount should be in [0, 1] but "+
			"got %v", c.Discount)
	case c.StepLimit < 0:
		return fmt.Errorf("validate: step limit should be non-negative "+
			"but got %v", c.StepLimit)
	case math.IsNaN(c.RewardingZ) || math.IsNaN(c.InitialZ):
		return fmt.Errorf("validate: heights must be numbers")
	}
	return nil
}

// Create returns the environment described by the Config as well as
// the first timestep of the environment
func (c Config) Create() (*composer.Environment, ts.TimeStep, error) {
	if err := c.Validate(); err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("create: %w", err)
	}

	creature, err := tripod.NewCreature(c.ModelPath)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("create: %w", err)
	}

	starter := tripod.NewStartAt(r3.Vec{Z: c.InitialZ})
	controlTimestep := float64(c.NumSubsteps) * tripod.SubstepDuration
	task, err := tripod.NewStandUp(creature, starter, c.RewardingZ,
		controlTimestep, c.Discount)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("create: %w", err)
	}

	timeLimit := c.TimeLimit
	if timeLimit == 0 {
		timeLimit = math.Inf(1)
	}

	var enders []env.Ender
	if c.StepLimit > 0 {
		enders = append(enders, env.NewStepLimit(c.StepLimit))
	}
	if c.FallZ > 0 {
		// The root height is the third generalized position
		fallZ := c.FallZ
		enders = append(enders, env.NewFunctionEnder(func(v *mat.VecDense) bool {
			return v.AtVec(2) < fallZ
		}, ts.TerminalStateReached))
	}

	e, step, err := composer.NewEnvironment(task, c.Engine, c.Seed, timeLimit,
		enders...)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("create: %w", err)
	}
	return e, step, nil
}
