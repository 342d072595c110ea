// Package physicstest provides a scripted physics.Physics for testing
// code which consumes physics state without simulating anything.
package physicstest

import (
	"fmt"

	"github.com/samuelfneumann/tripod/physics"
	"github.com/samuelfneumann/tripod/utils/floatutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/spatial/r3"
)

// Joint describes a joint of a Fake by its slice of the generalized
// coordinates
type Joint struct {
	QPosAdr, NQ int
	DofAdr, NV  int
	Range       *r1.Interval
}

// Fake is a physics.Physics whose state is set directly by tests.
// Step does not integrate anything; it records its arguments and
// calls OnStep if set.
type Fake struct {
	Q, V      []float64
	Bodies    map[string]r3.Vec
	Joints    map[string]Joint
	Low, High []float64
	Dt        float64

	// FreeBodies maps bodies with a free joint to their free joint
	FreeBodies map[string]string

	// OnStep, if set, is called once per substep
	OnStep func(f *Fake, ctrl *mat.VecDense)

	Substeps int
	LastCtrl *mat.VecDense
	Closed   bool

	time         float64
	initQ, initV []float64
}

// NewFake returns a Fake with nq positions, nv velocities and nu
// actuators bounded to [-1, 1]
func NewFake(nq, nv, nu int) *Fake {
	low := make([]float64, nu)
	high := make([]float64, nu)
	for i := range low {
		low[i], high[i] = -1, 1
	}

	return &Fake{
		Q:          make([]float64, nq),
		V:          make([]float64, nv),
		Bodies:     make(map[string]r3.Vec),
		Joints:     make(map[string]Joint),
		FreeBodies: make(map[string]string),
		Low:        low,
		High:       high,
		Dt:         0.002,
		initQ:      make([]float64, nq),
		initV:      make([]float64, nv),
	}
}

// Reset satisfies the physics.Physics interface
func (f *Fake) Reset() {
	copy(f.Q, f.initQ)
	copy(f.V, f.initV)
	f.time = 0
}

// Forward satisfies the physics.Physics interface
func (f *Fake) Forward() error { return nil }

// Step records the control and the number of substeps
func (f *Fake) Step(ctrl *mat.VecDense, substeps int) error {
	if ctrl.Len() != len(f.Low) {
		return fmt.Errorf("step: invalid control dimensions \n\t"+
			"have(%v) \n\twant(%v)", ctrl.Len(), len(f.Low))
	}
	f.LastCtrl = mat.VecDenseCopyOf(ctrl)
	for i := 0; i < substeps; i++ {
		if f.OnStep != nil {
			f.OnStep(f, ctrl)
		}
		f.Substeps++
		f.time += f.Dt
	}
	return nil
}

// Timestep satisfies the physics.Physics interface
func (f *Fake) Timestep() float64 { return f.Dt }

// Time satisfies the physics.Physics interface
func (f *Fake) Time() float64 { return f.time }

// NQ satisfies the physics.Physics interface
func (f *Fake) NQ() int { return len(f.Q) }

// NV satisfies the physics.Physics interface
func (f *Fake) NV() int { return len(f.V) }

// NU satisfies the physics.Physics interface
func (f *Fake) NU() int { return len(f.Low) }

// QPos satisfies the physics.Physics interface
func (f *Fake) QPos() []float64 { return append([]float64(nil), f.Q...) }

// QVel satisfies the physics.Physics interface
func (f *Fake) QVel() []float64 { return append([]float64(nil), f.V...) }

// BoundedPosition clips the positions of joints with a Range
func (f *Fake) BoundedPosition() []float64 {
	q := f.QPos()
	for _, j := range f.Joints {
		if j.Range == nil {
			continue
		}
		for i := j.QPosAdr; i < j.QPosAdr+j.NQ; i++ {
			q[i] = floatutils.ClipInterval(q[i], *j.Range)
		}
	}
	return q
}

// Velocity satisfies the physics.Physics interface
func (f *Fake) Velocity() []float64 { return f.QVel() }

// JointQPos satisfies the physics.Physics interface
func (f *Fake) JointQPos(names []string) ([]float64, error) {
	var q []float64
	for _, name := range names {
		j, ok := f.Joints[name]
		if !ok {
			return nil, fmt.Errorf("jointQPos: %w %q", physics.ErrNoSuchJoint,
				name)
		}
		q = append(q, f.Q[j.QPosAdr:j.QPosAdr+j.NQ]...)
	}
	return q, nil
}

// JointQVel satisfies the physics.Physics interface
func (f *Fake) JointQVel(names []string) ([]float64, error) {
	var v []float64
	for _, name := range names {
		j, ok := f.Joints[name]
		if !ok {
			return nil, fmt.Errorf("jointQVel: %w %q", physics.ErrNoSuchJoint,
				name)
		}
		v = append(v, f.V[j.DofAdr:j.DofAdr+j.NV]...)
	}
	return v, nil
}

// BodyXPos satisfies the physics.Physics interface
func (f *Fake) BodyXPos(name string) (r3.Vec, error) {
	pos, ok := f.Bodies[name]
	if !ok {
		return r3.Vec{}, fmt.Errorf("bodyXPos: %w %q", physics.ErrNoSuchBody,
			name)
	}
	return pos, nil
}

// SetFreeJointPose moves a body listed in FreeBodies and writes the
// pose into the generalized positions of its free joint
func (f *Fake) SetFreeJointPose(body string, pos r3.Vec,
	quat [4]float64) error {
	jointName, ok := f.FreeBodies[body]
	if !ok {
		return fmt.Errorf("setFreeJointPose: %w %q with a free joint",
			physics.ErrNoSuchBody, body)
	}
	j := f.Joints[jointName]
	if j.NQ != 7 {
		return fmt.Errorf("setFreeJointPose: joint %q is not free",
			jointName)
	}

	f.Bodies[body] = pos
	copy(f.Q[j.QPosAdr:], []float64{pos.X, pos.Y, pos.Z,
		quat[0], quat[1], quat[2], quat[3]})
	return nil
}

// ActionBounds satisfies the physics.Physics interface
func (f *Fake) ActionBounds() (low, high []float64) {
	return append([]float64(nil), f.Low...), append([]float64(nil), f.High...)
}

// Close satisfies the physics.Physics interface
func (f *Fake) Close() { f.Closed = true }
