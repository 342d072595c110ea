// Package planar implements a physics.Physics which simulates an MJCF
// scene in two dimensions using the Box2D rigid body engine.
//
// The scene is projected onto the world's x-z plane: world x becomes
// Box2D x and world z becomes Box2D y. Each body with a joint becomes a
// Box2D body; bodies without joints are welded to their parent. Hinge
// joints become revolute joints rotating in the x-z plane, whatever
// their axis; the sign of the y component of the axis decides which
// direction is positive. Motor actuators apply gear * ctrl as a torque
// about their joint.
//
// Generalized coordinates follow the MuJoCo layout so that planar and
// MuJoCo physics are interchangeable: a free joint reports its full 7
// positions and 6 velocities, with the out-of-plane components fixed.
// Box2D reports linear velocities at the centre of mass, so free joint
// linear velocities are those of the centre of mass.
//
// Supported MJCF: <option timestep gravity>, <compiler angle>, bodies
// with pos, free and hinge joints (pos, axis, range, limited), sphere,
// capsule, cylinder, box and plane geoms (size, pos, fromto, density,
// friction), and motor or general actuators (joint, gear, ctrlrange,
// ctrllimited). Body orientations and default classes are not
// supported.
package planar

import (
	"fmt"
	"math"

	"github.com/ByteArena/box2d"
	"github.com/samuelfneumann/tripod/mjcf"
	"github.com/samuelfneumann/tripod/physics"
	"github.com/samuelfneumann/tripod/utils/floatutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/spatial/r3"
)

// Name is the name the planar engine is registered under
const Name = "planar"

func init() {
	physics.Register(Name, func(model *mjcf.Model) (physics.Physics, error) {
		return New(model)
	})
}

const (
	// Box2D body types
	staticBody  = 0
	dynamicBody = 2

	velocityIterations = 8
	positionIterations = 3
)

type jointKind int

const (
	freeJoint jointKind = iota
	hingeJoint
)

// body is an MJCF body. Several bodies may share one Box2D body when
// they are welded together.
type body struct {
	name   string
	b2     *box2d.B2Body
	offset box2d.B2Vec2 // Origin of the body frame in b2's local frame
	y      float64      // Out-of-plane world coordinate at compile time
	root   *body        // Top-level ancestor
	free   *joint

	yShift float64 // Out-of-plane displacement, tracked on root bodies
}

type joint struct {
	name    string
	kind    jointKind
	qposAdr int
	dofAdr  int
	body    *body

	// Hinge joints only
	rev              *box2d.B2RevoluteJoint
	parent           *box2d.B2Body
	anchorA, anchorB box2d.B2Vec2
	sign             float64
	limited          bool
	rng              r1.Interval
}

type actuator struct {
	name      string
	joint     *joint
	gear      float64
	limited   bool
	ctrlRange r1.Interval
}

// Physics is a planar simulation of an MJCF scene
type Physics struct {
	world  box2d.B2World
	ground *box2d.B2Body
	dt     float64
	time   float64

	bodies      []*body
	bodyByName  map[string]*body
	joints      []*joint
	jointByName map[string]*joint
	actuators   []*actuator
	dynamic     []*box2d.B2Body

	nq, nv   int
	initQPos []float64
}

// New compiles a model into a planar simulation
func New(model *mjcf.Model) (*Physics, error) {
	dt, err := model.Timestep()
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	gravity := []float64{0, 0, -9.81}
	if opt := model.Root().Child("option"); opt != nil {
		gravity, err = opt.Floats("gravity", gravity)
		if err != nil {
			return nil, fmt.Errorf("new: %v", err)
		}
		if len(gravity) != 3 {
			return nil, fmt.Errorf("new: gravity should have 3 components "+
				"but got %v", len(gravity))
		}
	}

	p := &Physics{
		dt:          dt,
		bodyByName:  make(map[string]*body),
		jointByName: make(map[string]*joint),
	}
	p.world = box2d.MakeB2World(box2d.MakeB2Vec2(gravity[0], gravity[2]))

	groundDef := box2d.MakeB2BodyDef()
	groundDef.Type = staticBody
	p.ground = p.world.CreateBody(&groundDef)

	b := builder{p: p, angleScale: model.AngleScale()}
	if err := b.build(model); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	p.initQPos = p.QPos()
	return p, nil
}

// Reset returns all bodies to their compiled positions at rest
func (p *Physics) Reset() {
	p.setQPos(p.initQPos)
	for _, b2 := range p.dynamic {
		b2.SetLinearVelocity(box2d.MakeB2Vec2(0, 0))
		b2.SetAngularVelocity(0)
	}
	p.time = 0
}

// Forward is a no-op: body positions are always consistent with the
// generalized positions in Box2D
func (p *Physics) Forward() error {
	return nil
}

// Step applies ctrl and integrates the simulation for substeps steps
func (p *Physics) Step(ctrl *mat.VecDense, substeps int) error {
	if ctrl.Len() != len(p.actuators) {
		return fmt.Errorf("step: invalid control dimensions \n\t"+
			"have(%v) \n\twant(%v)", ctrl.Len(), len(p.actuators))
	}
	if substeps < 1 {
		return fmt.Errorf("step: substeps should be positive but got %v",
			substeps)
	}

	for i := 0; i < substeps; i++ {
		// Box2D clears forces after each step, so torques are
		// reapplied on every substep
		for k, a := range p.actuators {
			u := ctrl.AtVec(k)
			if a.limited {
				u = floatutils.ClipInterval(u, a.ctrlRange)
			}
			torque := a.joint.sign * a.gear * u

			a.joint.body.b2.ApplyTorque(torque, true)
			if a.joint.parent.GetType() == dynamicBody {
				a.joint.parent.ApplyTorque(-torque, true)
			}
		}
		p.world.Step(p.dt, velocityIterations, positionIterations)
		p.time += p.dt
	}

	if !floatutils.AllFinite(p.QPos()) || !floatutils.AllFinite(p.QVel()) {
		return fmt.Errorf("step: simulation diverged at time %v", p.time)
	}
	return nil
}

// Timestep returns the duration of a single substep
func (p *Physics) Timestep() float64 {
	return p.dt
}

// Time returns the simulated time since the last Reset
func (p *Physics) Time() float64 {
	return p.time
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
	return len(p.actuators)
}

// QPos returns the generalized positions
func (p *Physics) QPos() []float64 {
	q := make([]float64, p.nq)
	for _, j := range p.joints {
		switch j.kind {
		case freeJoint:
			pos := j.body.b2.GetPosition()
			angle := j.body.b2.GetAngle()
			copy(q[j.qposAdr:], []float64{
				pos.X,
				j.body.y + j.body.yShift,
				pos.Y,
				math.Cos(angle / 2),
				0,
				-math.Sin(angle / 2),
				0,
			})

		case hingeJoint:
			q[j.qposAdr] = j.sign * j.rev.GetJointAngle()
		}
	}
	return q
}

// QVel returns the generalized velocities
func (p *Physics) QVel() []float64 {
	v := make([]float64, p.nv)
	for _, j := range p.joints {
		switch j.kind {
		case freeJoint:
			lin := j.body.b2.GetLinearVelocity()
			ang := j.body.b2.GetAngularVelocity()
			copy(v[j.dofAdr:], []float64{lin.X, 0, lin.Y, 0, -ang, 0})

		case hingeJoint:
			v[j.dofAdr] = j.sign * j.rev.GetJointSpeed()
		}
	}
	return v
}

// BoundedPosition returns the generalized positions with the angles
// of range-limited hinges clipped into their ranges
func (p *Physics) BoundedPosition() []float64 {
	q := p.QPos()
	for _, j := range p.joints {
		if j.kind == hingeJoint && j.limited {
			q[j.qposAdr] = floatutils.ClipInterval(q[j.qposAdr], j.rng)
		}
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
		j, ok := p.jointByName[name]
		if !ok {
			return nil, fmt.Errorf("jointQPos: %w %q", physics.ErrNoSuchJoint,
				name)
		}
		out = append(out, q[j.qposAdr:j.qposAdr+j.kind.nq()]...)
	}
	return out, nil
}

// JointQVel returns the velocities of the named joints
func (p *Physics) JointQVel(names []string) ([]float64, error) {
	v := p.QVel()
	var out []float64
	for _, name := range names {
		j, ok := p.jointByName[name]
		if !ok {
			return nil, fmt.Errorf("jointQVel: %w %q", physics.ErrNoSuchJoint,
				name)
		}
		out = append(out, v[j.dofAdr:j.dofAdr+j.kind.nv()]...)
	}
	return out, nil
}

// BodyXPos returns the world position of a body's frame
func (p *Physics) BodyXPos(name string) (r3.Vec, error) {
	b, ok := p.bodyByName[name]
	if !ok {
		return r3.Vec{}, fmt.Errorf("bodyXPos: %w %q", physics.ErrNoSuchBody,
			name)
	}

	pos := b.b2.GetPosition()
	world := transform(pos, b.b2.GetAngle(), b.offset)
	return r3.Vec{X: world.X, Y: b.y + b.root.yShift, Z: world.Y}, nil
}

// SetFreeJointPose places a body with a free joint, keeping the angles
// of all hinges below it
func (p *Physics) SetFreeJointPose(name string, pos r3.Vec,
	quat [4]float64) error {
	b, ok := p.bodyByName[name]
	if !ok {
		return fmt.Errorf("setFreeJointPose: %w %q", physics.ErrNoSuchBody,
			name)
	}
	if b.free == nil {
		return fmt.Errorf("setFreeJointPose: body %q has no free joint",
			name)
	}

	q := p.QPos()
	copy(q[b.free.qposAdr:], []float64{pos.X, pos.Y, pos.Z,
		quat[0], quat[1], quat[2], quat[3]})
	p.setQPos(q)
	return nil
}

// ActionBounds returns the control range of each actuator. Actuators
// without a control limit are unbounded.
func (p *Physics) ActionBounds() (low, high []float64) {
	low = make([]float64, len(p.actuators))
	high = make([]float64, len(p.actuators))
	for i, a := range p.actuators {
		if a.limited {
			low[i], high[i] = a.ctrlRange.Min, a.ctrlRange.Max
		} else {
			low[i], high[i] = math.Inf(-1), math.Inf(1)
		}
	}
	return low, high
}

// Close releases the simulation. The planar engine holds no external
// resources.
func (p *Physics) Close() {
	p.bodyByName = nil
	p.jointByName = nil
}

// setQPos moves every body to the configuration q. Joints are stored
// parents first, so each hinge is placed relative to an already placed
// parent.
func (p *Physics) setQPos(q []float64) {
	for _, j := range p.joints {
		switch j.kind {
		case freeJoint:
			adr := j.qposAdr
			angle := -2 * math.Atan2(q[adr+5], q[adr+3])
			j.body.b2.SetTransform(box2d.MakeB2Vec2(q[adr], q[adr+2]), angle)
			j.body.yShift = q[adr+1] - j.body.y

		case hingeJoint:
			parentAngle := j.parent.GetAngle()
			anchor := transform(j.parent.GetPosition(), parentAngle, j.anchorA)

			angle := parentAngle + j.sign*q[j.qposAdr]
			rotated := rotate(angle, j.anchorB)
			pos := box2d.MakeB2Vec2(anchor.X-rotated.X, anchor.Y-rotated.Y)
			j.body.b2.SetTransform(pos, angle)
		}
	}

	for _, b2 := range p.dynamic {
		b2.SetAwake(true)
	}
}

func (k jointKind) nq() int {
	if k == freeJoint {
		return 7
	}
	return 1
}

func (k jointKind) nv() int {
	if k == freeJoint {
		return 6
	}
	return 1
}

// rotate rotates v counter-clockwise by angle
func rotate(angle float64, v box2d.B2Vec2) box2d.B2Vec2 {
	c, s := math.Cos(angle), math.Sin(angle)
	return box2d.MakeB2Vec2(c*v.X-s*v.Y, s*v.X+c*v.Y)
}

// transform maps a point local to a frame at pos, rotated by angle,
// into world coordinates
func transform(pos box2d.B2Vec2, angle float64, local box2d.B2Vec2) box2d.B2Vec2 {
	r := rotate(angle, local)
	return box2d.MakeB2Vec2(pos.X+r.X, pos.Y+r.Y)
}
