package composer

import (
	"errors"
	"fmt"
	"math"

	"github.com/samuelfneumann/tripod/environment"
	"github.com/samuelfneumann/tripod/observation"
	"github.com/samuelfneumann/tripod/physics"
	"github.com/samuelfneumann/tripod/timestep"
	"github.com/samuelfneumann/tripod/utils/floatutils"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// ErrActionShape is returned when an action does not have one value
// per actuator
var ErrActionShape = errors.New("action has the wrong shape")

// Environment runs a Task on a physics engine. Environment implements
// the environment.Environment interface.
type Environment struct {
	task      Task
	physics   physics.Physics
	rng       *rand.Rand
	seed      uint64
	substeps  int
	timeLimit float64
	enders    []environment.Ender

	low, high       []float64
	currentTimeStep timestep.TimeStep
}

// NewEnvironment compiles the task's scene with the named engine and
// returns a new Environment with the first timestep of its first
// episode. Episodes end with timestep.Timeout once timeLimit seconds
// of physics time have elapsed; use math.Inf(1) for episodes which
// never time out. Enders may end episodes earlier.
func NewEnvironment(task Task, engine string, seed uint64, timeLimit float64,
	enders ...environment.Ender) (*Environment, timestep.TimeStep, error) {
	p, err := physics.Load(engine, task.RootEntity().Model())
	if err != nil {
		return nil, timestep.TimeStep{}, fmt.Errorf("newEnvironment: %w", err)
	}

	env, step, err := NewEnvironmentWithPhysics(task, p, seed, timeLimit,
		enders...)
	if err != nil {
		p.Close()
		return nil, timestep.TimeStep{}, err
	}
	return env, step, nil
}

// NewEnvironmentWithPhysics is like NewEnvironment but runs the task on
// an already compiled physics
func NewEnvironmentWithPhysics(task Task, p physics.Physics, seed uint64,
	timeLimit float64, enders ...environment.Ender) (*Environment,
	timestep.TimeStep, error) {
	if !(timeLimit > 0) {
		return nil, timestep.TimeStep{}, fmt.Errorf("newEnvironment: time "+
			"limit should be positive but got %v", timeLimit)
	}

	substeps := int(math.Round(task.ControlTimestep() / p.Timestep()))
	if substeps < 1 {
		return nil, timestep.TimeStep{}, fmt.Errorf("newEnvironment: "+
			"control timestep %v is shorter than the physics timestep %v",
			task.ControlTimestep(), p.Timestep())
	}

	low, high := p.ActionBounds()
	e := &Environment{
		task:      task,
		physics:   p,
		rng:       rand.New(rand.NewSource(seed)),
		seed:      seed,
		substeps:  substeps,
		timeLimit: timeLimit,
		enders:    enders,
		low:       low,
		high:      high,
	}

	step, err := e.Reset()
	if err != nil {
		return nil, timestep.TimeStep{}, fmt.Errorf("newEnvironment: %w", err)
	}
	return e, step, nil
}

// Reset starts a new episode and returns its first timestep
func (e *Environment) Reset() (timestep.TimeStep, error) {
	e.physics.Reset()
	if err := e.task.InitializeEpisode(e.physics, e.rng); err != nil {
		return timestep.TimeStep{}, fmt.Errorf("reset: %w", err)
	}
	if err := e.physics.Forward(); err != nil {
		return timestep.TimeStep{}, fmt.Errorf("reset: %w", err)
	}

	obs, err := e.observe()
	if err != nil {
		return timestep.TimeStep{}, fmt.Errorf("reset: %w", err)
	}

	step := timestep.New(timestep.First, 0, e.task.Discount(), obs, 0)
	e.currentTimeStep = step
	return step, nil
}

// Step applies an action for one control timestep. Actions are clipped
// to the action bounds. Stepping after the last timestep of an episode
// starts a new episode.
func (e *Environment) Step(action *mat.VecDense) (timestep.TimeStep, bool,
	error) {
	if e.currentTimeStep.Last() {
		step, err := e.Reset()
		if err != nil {
			return timestep.TimeStep{}, false, fmt.Errorf("step: %w", err)
		}
		return step, false, nil
	}

	if action.Len() != e.physics.NU() {
		return timestep.TimeStep{}, false, fmt.Errorf("step: %w \n\t"+
			"have(%v) \n\twant(%v)", ErrActionShape, action.Len(),
			e.physics.NU())
	}

	ctrl := &mat.VecDense{}
	if n := action.Len(); n > 0 {
		data := make([]float64, n)
		for i := range data {
			data[i] = floatutils.Clip(action.AtVec(i), e.low[i], e.high[i])
		}
		ctrl = mat.NewVecDense(n, data)
	}

	if err := e.physics.Step(ctrl, e.substeps); err != nil {
		return timestep.TimeStep{}, false, fmt.Errorf("step: %w", err)
	}

	reward, err := e.task.GetReward(e.physics)
	if err != nil {
		return timestep.TimeStep{}, false, fmt.Errorf("step: %w", err)
	}
	obs, err := e.observe()
	if err != nil {
		return timestep.TimeStep{}, false, fmt.Errorf("step: %w", err)
	}

	step := timestep.New(timestep.Mid, reward, e.task.Discount(), obs,
		e.currentTimeStep.Number+1)
	if e.physics.Time() >= e.timeLimit {
		step.StepType = timestep.Last
		step.SetEnd(timestep.Timeout)
	}
	for _, ender := range e.enders {
		if step.Last() {
			break
		}
		ender.End(&step)
	}

	e.currentTimeStep = step
	return step, step.Last(), nil
}

// observe assembles the task's observation followed by every enabled
// observable of the task and its entities
func (e *Environment) observe() (*observation.Dict, error) {
	obs, err := e.task.GetObservation(e.physics)
	if err != nil {
		return nil, fmt.Errorf("observe: %w", err)
	}
	if obs == nil {
		obs = observation.NewDict()
	}

	if set := e.task.TaskObservables(); set != nil {
		for _, o := range set.Enabled() {
			v, err := o.Observe(e.physics)
			if err != nil {
				return nil, fmt.Errorf("observe: %w", err)
			}
			obs.Set(o.Name(), v)
		}
	}

	if err := e.observeEntity(obs, e.task.RootEntity()); err != nil {
		return nil, fmt.Errorf("observe: %w", err)
	}
	return obs, nil
}

func (e *Environment) observeEntity(obs *observation.Dict, ent Entity) error {
	for _, o := range ent.Observables().Enabled() {
		v, err := o.Observe(e.physics)
		if err != nil {
			return err
		}
		obs.Set(prefix(ent)+o.Name(), v)
	}
	for _, child := range ent.Attached() {
		if err := e.observeEntity(obs, child); err != nil {
			return err
		}
	}
	return nil
}

// CurrentTimeStep returns the last timestep returned by the
// Environment
func (e *Environment) CurrentTimeStep() timestep.TimeStep {
	return e.currentTimeStep
}

// Physics returns the physics the Environment runs on
func (e *Environment) Physics() physics.Physics {
	return e.physics
}

// Task returns the task of the Environment
func (e *Environment) Task() Task {
	return e.task
}

// Substeps returns the number of physics steps per control timestep
func (e *Environment) Substeps() int {
	return e.substeps
}

// Seed returns the seed of the Environment
func (e *Environment) Seed() uint64 {
	return e.seed
}

// RewardSpec returns the reward specification of the Environment
func (e *Environment) RewardSpec() environment.Spec {
	if r, ok := e.task.(RewardRanger); ok {
		rng := r.RewardRange()
		return environment.NewScalarSpec(environment.Reward, rng.Min, rng.Max)
	}
	return environment.NewScalarSpec(environment.Reward, math.Inf(-1),
		math.Inf(1))
}

// DiscountSpec returns the discount specification of the Environment
func (e *Environment) DiscountSpec() environment.Spec {
	d := e.task.Discount()
	return environment.NewScalarSpec(environment.Discount, d, d)
}

// ObservationSpec returns the observation specification of the
// Environment. Observations are unbounded.
func (e *Environment) ObservationSpec() environment.Spec {
	size := 0
	if obs := e.currentTimeStep.Observation; obs != nil {
		size = obs.Size()
	}

	low := make([]float64, size)
	high := make([]float64, size)
	for i := range high {
		low[i] = math.Inf(-1)
		high[i] = math.Inf(1)
	}
	return environment.NewBoxSpec(environment.Observation, low, high)
}

// ActionSpec returns the action specification of the Environment
func (e *Environment) ActionSpec() environment.Spec {
	return environment.NewBoxSpec(environment.Action, e.low, e.high)
}

// Close releases the physics of the Environment
func (e *Environment) Close() {
	e.physics.Close()
}
