// Package physics outlines the contract between environments and the
// physics engines which simulate their scenes. Engines compile an
// mjcf.Model and expose its state as generalized coordinates in the
// MuJoCo layout: a free joint has 7 positions (x, y, z, qw, qx, qy, qz)
// and 6 velocities, while a hinge joint has 1 of each.
//
// Engines register themselves with Register, usually from an init
// function, and are created by name with Load.
package physics

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/samuelfneumann/tripod/mjcf"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrNoSuchBody is returned when a body is looked up by a name
	// that does not exist in the scene
	ErrNoSuchBody = errors.New("no such body")

	// ErrNoSuchJoint is returned when a joint is looked up by a name
	// that does not exist in the scene
	ErrNoSuchJoint = errors.New("no such joint")

	// ErrUnknownEngine is returned when loading an engine which has
	// not been registered
	ErrUnknownEngine = errors.New("unknown physics engine")
)

// DefaultEngine is the engine used when no engine is configured
const DefaultEngine = "planar"

// IdentityQuat is the quaternion (w, x, y, z) of no rotation
var IdentityQuat = [4]float64{1, 0, 0, 0}

// Physics is a compiled, simulated scene
type Physics interface {
	// Reset returns the simulation to the initial state of the model
	Reset()

	// Forward recomputes derived quantities, such as body positions,
	// after the state has been changed directly
	Forward() error

	// Step applies the control vector and integrates the simulation
	// for a number of substeps
	Step(ctrl *mat.VecDense, substeps int) error

	// Timestep returns the fixed duration of a single substep
	Timestep() float64

	// Time returns the simulated time since the last Reset
	Time() float64

	// NQ, NV, and NU return the number of generalized positions,
	// degrees of freedom, and actuators
	NQ() int
	NV() int
	NU() int

	// QPos and QVel return copies of the generalized positions and
	// velocities
	QPos() []float64
	QVel() []float64

	// BoundedPosition returns the generalized positions with each
	// range-limited joint clipped into its range
	BoundedPosition() []float64

	// Velocity returns the generalized velocities
	Velocity() []float64

	// JointQPos and JointQVel return the positions and velocities of
	// the named joints, concatenated in the order of names
	JointQPos(names []string) ([]float64, error)
	JointQVel(names []string) ([]float64, error)

	// BodyXPos returns the position of a body's frame in world
	// coordinates
	BodyXPos(name string) (r3.Vec, error)

	// SetFreeJointPose sets the position and orientation of a body
	// with a free joint, carrying its descendants along
	SetFreeJointPose(body string, pos r3.Vec, quat [4]float64) error

	// ActionBounds returns the control range of each actuator
	ActionBounds() (low, high []float64)

	// Close releases the resources of the engine
	Close()
}

// Loader compiles a model into a Physics
type Loader func(model *mjcf.Model) (Physics, error)

var (
	enginesMu sync.RWMutex
	engines   = make(map[string]Loader)
)

// Register makes an engine available by name. Register panics if
// called twice with the same name or with a nil Loader.
func Register(name string, loader Loader) {
	enginesMu.Lock()
	defer enginesMu.Unlock()

	if loader == nil {
		panic("register: nil loader for engine " + name)
	}
	if _, dup := engines[name]; dup {
		panic("register: engine " + name + " registered twice")
	}
	engines[name] = loader
}

// Load compiles a model with the named engine
func Load(engine string, model *mjcf.Model) (Physics, error) {
	if engine == "" {
		engine = DefaultEngine
	}

	enginesMu.RLock()
	loader, ok := engines[engine]
	enginesMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("load: %w %q (registered: %v)",
			ErrUnknownEngine, engine, Engines())
	}

	p, err := loader(model)
	if err != nil {
		return nil, fmt.Errorf("load: %v: %w", engine, err)
	}
	return p, nil
}

// Engines returns the sorted names of all registered engines
func Engines() []string {
	enginesMu.RLock()
	defer enginesMu.RUnlock()

	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
