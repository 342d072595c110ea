//go:build mujoco

// Package mujoco implements a physics.Physics backed by the MuJoCo
// simulator. It is only built with the mujoco build tag and requires
// the MuJoCo headers and shared library to be installed.
package mujoco

// #cgo LDFLAGS: -lmujoco
// #include <mujoco/mujoco.h>
// #include <stdlib.h>
import "C"

import (
	"fmt"
	"math"
	"unsafe"

	"github.com/samuelfneumann/tripod/mjcf"
	"github.com/samuelfneumann/tripod/physics"
	"github.com/samuelfneumann/tripod/utils/floatutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Name is the name the MuJoCo engine is registered under
const Name = "mujoco"

func init() {
	physics.Register(Name, func(model *mjcf.Model) (physics.Physics, error) {
		return New(model)
	})
}

const (
	jointFree  = 0
	jointHinge = 3
	jointSlide = 2
)

// Physics is a MuJoCo simulation of an MJCF scene
type Physics struct {
	model *C.mjModel
	data  *C.mjData

	nq, nv, nu int
}

// New compiles a model with MuJoCo
func New(model *mjcf.Model) (*Physics, error) {
	m, d, err := loadModel(model)
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	return &Physics{
		model: m,
		data:  d,
		nq:    int(m.nq),
		nv:    int(m.nv),
		nu:    int(m.nu),
	}, nil
}

// Reset resets the simulation to the model's reference configuration
func (p *Physics) Reset() {
	C.mj_resetData(p.model, p.data)
}

// Forward recomputes all quantities derived from the state
func (p *Physics) Forward() error {
	C.mj_forward(p.model, p.data)
	return nil
}

// Step applies ctrl and steps the simulation substeps times
func (p *Physics) Step(ctrl *mat.VecDense, substeps int) error {
	if ctrl.Len() != p.nu {
		return fmt.Errorf("step: invalid control dimensions \n\t"+
			"have(%v) \n\twant(%v)", ctrl.Len(), p.nu)
	}
	if substeps < 1 {
		return fmt.Errorf("step: substeps should be positive but got %v",
			substeps)
	}

	action := make([]float64, ctrl.Len())
	for i := range action {
		action[i] = ctrl.AtVec(i)
	}
	f64SliceGo2C(p.data.ctrl, action)

	for i := 0; i < substeps; i++ {
		C.mj_step(p.model, p.data)
	}
	C.mj_forward(p.model, p.data)

	if !floatutils.AllFinite(p.QPos()) || !floatutils.AllFinite(p.QVel()) {
		return fmt.Errorf("step: simulation diverged at time %v", p.Time())
	}
	return nil
}

// Timestep returns the duration of a single substep
func (p *Physics) Timestep() float64 {
	return float64(p.model.opt.timestep)
}

// Time returns the simulated time
func (p *Physics) Time() float64 {
	return float64(p.data.time)
}

// NQ returns the number of generalized positions
func (p *Physics) NQ() int {
	return p.nq
}

// NV returns the number of degrees of freedom
func (p *Physics) NV() int {
	return p.nv
}

// NU returns the number of actuators
func (p *Physics) NU() int {
	return p.nu
}

// QPos returns the generalized positions
func (p *Physics) QPos() []float64 {
	return f64SliceC2Go(p.data.qpos, p.nq)
}

// QVel returns the generalized velocities
func (p *Physics) QVel() []float64 {
	return f64SliceC2Go(p.data.qvel, p.nv)
}

// BoundedPosition returns the generalized positions with the positions
// of limited hinge and slide joints clipped into their ranges
func (p *Physics) BoundedPosition() []float64 {
	q := p.QPos()

	njnt := int(p.model.njnt)
	types := i32SliceC2Go((*C.int)(unsafe.Pointer(p.model.jnt_type)), njnt)
	adrs := i32SliceC2Go(p.model.jnt_qposadr, njnt)
	limited := byteSliceC2Go(p.model.jnt_limited, njnt)
	ranges := f64SliceC2Go(p.model.jnt_range, 2*njnt)

	for j := 0; j < njnt; j++ {
		if !limited[j] || (types[j] != jointHinge && types[j] != jointSlide) {
			continue
		}
		q[adrs[j]] = floatutils.Clip(q[adrs[j]], ranges[2*j], ranges[2*j+1])
	}
	return q
}

// Velocity returns the generalized velocities
func (p *Physics) Velocity() []float64 {
	return p.QVel()
}

// JointQPos returns the positions of the named joints
func (p *Physics) JointQPos(names []string) ([]float64, error) {
	q := p.QPos()
	var out []float64
	for _, name := range names {
		id, err := p.jointID(name)
		if err != nil {
			return nil, fmt.Errorf("jointQPos: %w", err)
		}
		adr := int(unsafe.Slice(p.model.jnt_qposadr, id+1)[id])
		out = append(out, q[adr:adr+qposWidth(p.jointType(id))]...)
	}
	return out, nil
}

// JointQVel returns the velocities of the named joints
func (p *Physics) JointQVel(names []string) ([]float64, error) {
	v := p.QVel()
	var out []float64
	for _, name := range names {
		id, err := p.jointID(name)
		if err != nil {
			return nil, fmt.Errorf("jointQVel: %w", err)
		}
		adr := int(unsafe.Slice(p.model.jnt_dofadr, id+1)[id])
		out = append(out, v[adr:adr+dofWidth(p.jointType(id))]...)
	}
	return out, nil
}

// BodyXPos returns the world position of a body's frame
func (p *Physics) BodyXPos(name string) (r3.Vec, error) {
	id, err := p.bodyID(name)
	if err != nil {
		return r3.Vec{}, fmt.Errorf("bodyXPos: %w", err)
	}

	xpos := f64SliceC2Go(p.data.xpos, 3*int(p.model.nbody))
	return r3.Vec{X: xpos[3*id], Y: xpos[3*id+1], Z: xpos[3*id+2]}, nil
}

// SetFreeJointPose sets the position and orientation of a body with a
// free joint and recomputes derived quantities
func (p *Physics) SetFreeJointPose(name string, pos r3.Vec,
	quat [4]float64) error {
	id, err := p.bodyID(name)
	if err != nil {
		return fmt.Errorf("setFreeJointPose: %w", err)
	}

	nbody := int(p.model.nbody)
	jntnum := int(unsafe.Slice(p.model.body_jntnum, nbody)[id])
	jntadr := int(unsafe.Slice(p.model.body_jntadr, nbody)[id])
	if jntnum < 1 || p.jointType(jntadr) != jointFree {
		return fmt.Errorf("setFreeJointPose: body %q has no free joint", name)
	}

	q := p.QPos()
	adr := int(unsafe.Slice(p.model.jnt_qposadr, jntadr+1)[jntadr])
	copy(q[adr:], []float64{pos.X, pos.Y, pos.Z,
		quat[0], quat[1], quat[2], quat[3]})
	f64SliceGo2C(p.data.qpos, q)

	C.mj_forward(p.model, p.data)
	return nil
}

// ActionBounds returns the control range of each actuator. Actuators
// without a control limit are unbounded.
func (p *Physics) ActionBounds() (low, high []float64) {
	ranges := f64SliceC2Go(p.model.actuator_ctrlrange, 2*p.nu)
	limited := byteSliceC2Go(p.model.actuator_ctrllimited, p.nu)

	low = make([]float64, p.nu)
	high = make([]float64, p.nu)
	for i := 0; i < p.nu; i++ {
		if limited[i] {
			low[i], high[i] = ranges[2*i], ranges[2*i+1]
		} else {
			low[i], high[i] = math.Inf(-1), math.Inf(1)
		}
	}
	return low, high
}

// Close frees the MuJoCo model and data
func (p *Physics) Close() {
	if p.data != nil {
		C.mj_deleteData(p.data)
		p.data = nil
	}
	if p.model != nil {
		C.mj_deleteModel(p.model)
		p.model = nil
	}
}

func (p *Physics) bodyID(name string) (int, error) {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	id := int(C.mj_name2id(p.model, C.mjOBJ_BODY, cName))
	if id < 0 {
		return 0, fmt.Errorf("%w %q", physics.ErrNoSuchBody, name)
	}
	return id, nil
}

func (p *Physics) jointID(name string) (int, error) {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	id := int(C.mj_name2id(p.model, C.mjOBJ_JOINT, cName))
	if id < 0 {
		return 0, fmt.Errorf("%w %q", physics.ErrNoSuchJoint, name)
	}
	return id, nil
}

func (p *Physics) jointType(id int) int {
	types := unsafe.Slice((*C.int)(unsafe.Pointer(p.model.jnt_type)), id+1)
	return int(types[id])
}

func qposWidth(jointType int) int {
	switch jointType {
	case jointFree:
		return 7
	case jointHinge, jointSlide:
		return 1
	default:
		return 4
	}
}

func dofWidth(jointType int) int {
	switch jointType {
	case jointFree:
		return 6
	case jointHinge, jointSlide:
		return 1
	default:
		return 3
	}
}
