// Package composer builds environments out of entities, self-contained
// MJCF models with their own observables, and tasks, which decide how
// episodes start, how they are rewarded and what is observed.
package composer

import (
	"fmt"

	"github.com/samuelfneumann/tripod/mjcf"
	"github.com/samuelfneumann/tripod/observation"
	"github.com/samuelfneumann/tripod/physics"
	"gonum.org/v1/gonum/spatial/r3"
)

// Entity is a model in the scene together with its observables
type Entity interface {
	Model() *mjcf.Model
	Observables() *observation.Set

	// Attached returns the entities attached to this one
	Attached() []Entity

	// SetPose places the entity's attachment frame in the world
	SetPose(p physics.Physics, pos r3.Vec, quat [4]float64) error
}

// Base implements the bookkeeping shared by all entities. Concrete
// entities embed a *Base.
type Base struct {
	model       *mjcf.Model
	observables *observation.Set
	attached    []Entity
}

// NewBase returns a new Base for model with no observables
func NewBase(model *mjcf.Model) *Base {
	return &Base{
		model:       model,
		observables: observation.NewSet(),
	}
}

// Model returns the MJCF model of the entity
func (b *Base) Model() *mjcf.Model {
	return b.model
}

// Observables returns the observables of the entity
func (b *Base) Observables() *observation.Set {
	return b.observables
}

// Attached returns the entities attached to this one
func (b *Base) Attached() []Entity {
	return append([]Entity(nil), b.attached...)
}

// Attach attaches child to the entity. With freeJoint, the child can
// move freely in the scene.
func (b *Base) Attach(child Entity, freeJoint bool) error {
	if _, err := b.model.Attach(child.Model(), freeJoint); err != nil {
		return fmt.Errorf("attach: %w", err)
	}
	b.attached = append(b.attached, child)
	return nil
}

// SetPose places the entity's attachment frame. Only entities attached
// with a free joint can be posed.
func (b *Base) SetPose(p physics.Physics, pos r3.Vec, quat [4]float64) error {
	if b.model.Namespace() == "" {
		return fmt.Errorf("setPose: entity %q is not attached", b.model.Name())
	}
	if err := p.SetFreeJointPose(b.model.Identifier(""), pos, quat); err != nil {
		return fmt.Errorf("setPose: %w", err)
	}
	return nil
}

// prefix returns the key prefix of the entity's observables
func prefix(e Entity) string {
	if ns := e.Model().Namespace(); ns != "" {
		return ns
	}
	return e.Model().Name() + "/"
}
