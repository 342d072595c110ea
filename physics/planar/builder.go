package planar

import (
	"fmt"
	"math"

	"github.com/ByteArena/box2d"
	"github.com/samuelfneumann/tripod/mjcf"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// Half width of planes with an infinite extent
	infinitePlaneHalfWidth = 50.0

	defaultDensity  = 1000.0
	defaultFriction = 1.0

	// Segments shorter than this are treated as points
	minSegmentLength = 1e-6
)

// builder compiles an MJCF model into Box2D bodies, joints and
// fixtures
type builder struct {
	p          *Physics
	angleScale float64
}

func (b *builder) build(model *mjcf.Model) error {
	worldbody := model.Root().Child("worldbody")
	if worldbody == nil {
		return fmt.Errorf("build: model has no worldbody")
	}

	// Each top-level body gets its own negative collision group so that
	// the parts of an articulated body never collide with each other
	var group int16
	for _, child := range worldbody.Children {
		switch child.Tag {
		case "geom":
			if err := b.addGeom(b.p.ground, box2d.MakeB2Vec2(0, 0), child,
				0); err != nil {
				return err
			}

		case "body":
			group--
			if err := b.addBody(child, nil, r3.Vec{}, group); err != nil {
				return err
			}
		}
	}

	for _, a := range model.FindAll("actuator") {
		if err := b.addActuator(a); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) addBody(e *mjcf.Element, parent *body, parentPos r3.Vec,
	group int16) error {
	pos, err := vector(e, "pos", 3, []float64{0, 0, 0})
	if err != nil {
		return err
	}
	world := r3.Vec{
		X: parentPos.X + pos[0],
		Y: parentPos.Y + pos[1],
		Z: parentPos.Z + pos[2],
	}

	bd := &body{name: e.Name(), y: world.Y}
	if parent == nil {
		bd.root = bd
	} else {
		bd.root = parent.root
	}

	var jointElems []*mjcf.Element
	for _, child := range e.Children {
		if child.Tag == "joint" || child.Tag == "freejoint" {
			jointElems = append(jointElems, child)
		}
	}
	if len(jointElems) > 1 {
		return fmt.Errorf("addBody: body %q has %v joints, at most one is "+
			"supported", bd.name, len(jointElems))
	}

	if len(jointElems) == 0 {
		if parent == nil {
			bd.b2 = b.createBody(staticBody, world)
		} else {
			// Welded to the parent, whose Box2D body has not rotated yet
			bd.b2 = parent.b2
			origin := bd.b2.GetPosition()
			bd.offset = box2d.MakeB2Vec2(world.X-origin.X, world.Z-origin.Y)
		}
	} else {
		bd.b2 = b.createBody(dynamicBody, world)
		b.p.dynamic = append(b.p.dynamic, bd.b2)
		if err := b.addJoint(jointElems[0], bd, parent, world); err != nil {
			return err
		}
	}

	if bd.name != "" {
		b.p.bodyByName[bd.name] = bd
	}
	b.p.bodies = append(b.p.bodies, bd)

	for _, child := range e.Children {
		if child.Tag != "geom" {
			continue
		}
		if err := b.addGeom(bd.b2, bd.offset, child, group); err != nil {
			return fmt.Errorf("addBody: body %q: %w", bd.name, err)
		}
	}
	for _, child := range e.Children {
		if child.Tag != "body" {
			continue
		}
		if err := b.addBody(child, bd, world, group); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) createBody(bodyType uint8, pos r3.Vec) *box2d.B2Body {
	def := box2d.MakeB2BodyDef()
	def.Type = bodyType
	def.Position = box2d.MakeB2Vec2(pos.X, pos.Z)
	return b.p.world.CreateBody(&def)
}

func (b *builder) addJoint(e *mjcf.Element, bd *body, parent *body,
	world r3.Vec) error {
	kind, _ := e.Get("type")
	if e.Tag == "freejoint" {
		kind = "free"
	} else if kind == "" {
		kind = "hinge"
	}

	j := &joint{
		name:    e.Name(),
		body:    bd,
		qposAdr: b.p.nq,
		dofAdr:  b.p.nv,
	}

	switch kind {
	case "free":
		if parent != nil {
			return fmt.Errorf("addJoint: free joint %q must belong to a "+
				"top-level body", j.name)
		}
		j.kind = freeJoint
		bd.free = j

	case "hinge":
		j.kind = hingeJoint
		if err := b.configureHinge(e, j, parent, world); err != nil {
			return err
		}

	default:
		return fmt.Errorf("addJoint: joint %q has unsupported type %v",
			j.name, kind)
	}

	b.p.nq += j.kind.nq()
	b.p.nv += j.kind.nv()
	b.p.joints = append(b.p.joints, j)
	if j.name != "" {
		b.p.jointByName[j.name] = j
	}
	return nil
}

func (b *builder) configureHinge(e *mjcf.Element, j *joint, parent *body,
	world r3.Vec) error {
	pos, err := vector(e, "pos", 3, []float64{0, 0, 0})
	if err != nil {
		return err
	}
	axis, err := vector(e, "axis", 3, []float64{0, 0, 1})
	if err != nil {
		return err
	}

	// Box2D angles are counter-clockwise in the x-z plane, which is a
	// negative rotation about the world y axis
	j.sign = -1
	if axis[1] < 0 {
		j.sign = 1
	}

	_, hasRange := e.Get("range")
	if hasRange {
		rng, err := vector(e, "range", 2, nil)
		if err != nil {
			return err
		}
		j.rng = r1.Interval{
			Min: rng[0] * b.angleScale,
			Max: rng[1] * b.angleScale,
		}
		j.limited = true
	}
	if limited, set := e.Bool("limited"); set {
		j.limited = limited && hasRange
	}

	j.parent = b.p.ground
	if parent != nil {
		j.parent = parent.b2
	}

	anchor := box2d.MakeB2Vec2(world.X+pos[0], world.Z+pos[2])
	parentOrigin := j.parent.GetPosition()
	childOrigin := j.body.b2.GetPosition()
	j.anchorA = box2d.MakeB2Vec2(anchor.X-parentOrigin.X,
		anchor.Y-parentOrigin.Y)
	j.anchorB = box2d.MakeB2Vec2(anchor.X-childOrigin.X,
		anchor.Y-childOrigin.Y)

	rjd := box2d.MakeB2RevoluteJointDef()
	rjd.BodyA = j.parent
	rjd.BodyB = j.body.b2
	rjd.LocalAnchorA = j.anchorA
	rjd.LocalAnchorB = j.anchorB
	rjd.ReferenceAngle = 0
	if j.limited {
		rjd.EnableLimit = true
		if j.sign > 0 {
			rjd.LowerAngle, rjd.UpperAngle = j.rng.Min, j.rng.Max
		} else {
			rjd.LowerAngle, rjd.UpperAngle = -j.rng.Max, -j.rng.Min
		}
	}
	j.rev = b.p.world.CreateJoint(&rjd).(*box2d.B2RevoluteJoint)
	return nil
}

// addGeom adds a geom as a fixture of b2. offset is the origin of the
// geom's body frame in b2's local frame.
func (b *builder) addGeom(b2 *box2d.B2Body, offset box2d.B2Vec2,
	e *mjcf.Element, group int16) error {
	geomType, _ := e.Get("type")
	if geomType == "" {
		geomType = "sphere"
	}

	size, err := e.Floats("size", nil)
	if err != nil {
		return err
	}
	pos, err := vector(e, "pos", 3, []float64{0, 0, 0})
	if err != nil {
		return err
	}
	density, err := vector(e, "density", 1, []float64{defaultDensity})
	if err != nil {
		return err
	}
	friction, err := e.Floats("friction", []float64{defaultFriction})
	if err != nil {
		return err
	}

	centre := box2d.MakeB2Vec2(offset.X+pos[0], offset.Y+pos[2])
	fixture := func(shape box2d.B2ShapeInterface) {
		fd := box2d.MakeB2FixtureDef()
		fd.Shape = shape
		fd.Density = density[0]
		if len(friction) > 0 {
			fd.Friction = friction[0]
		}
		filter := box2d.MakeB2Filter()
		filter.GroupIndex = group
		fd.Filter = filter
		b2.CreateFixtureFromDef(&fd)
	}
	circle := func(centre box2d.B2Vec2, radius float64) {
		shape := box2d.NewB2CircleShape()
		shape.M_p = centre
		shape.M_radius = radius
		fixture(shape)
	}

	switch geomType {
	case "plane":
		halfWidth := infinitePlaneHalfWidth
		if len(size) > 0 && size[0] > 0 {
			halfWidth = size[0]
		}
		shape := box2d.NewB2EdgeShape()
		shape.Set(
			box2d.MakeB2Vec2(centre.X-halfWidth, centre.Y),
			box2d.MakeB2Vec2(centre.X+halfWidth, centre.Y),
		)
		fixture(shape)

	case "sphere":
		if len(size) < 1 || size[0] <= 0 {
			return fmt.Errorf("addGeom: sphere %q needs a positive radius",
				e.Name())
		}
		circle(centre, size[0])

	case "capsule", "cylinder":
		if len(size) < 1 || size[0] <= 0 {
			return fmt.Errorf("addGeom: %v %q needs a positive radius",
				geomType, e.Name())
		}
		radius := size[0]

		var start, end box2d.B2Vec2
		if _, ok := e.Get("fromto"); ok {
			fromto, err := vector(e, "fromto", 6, nil)
			if err != nil {
				return err
			}
			start = box2d.MakeB2Vec2(offset.X+fromto[0], offset.Y+fromto[2])
			end = box2d.MakeB2Vec2(offset.X+fromto[3], offset.Y+fromto[5])
		} else {
			if len(size) < 2 {
				return fmt.Errorf("addGeom: %v %q needs a half length or "+
					"fromto", geomType, e.Name())
			}
			start = box2d.MakeB2Vec2(centre.X, centre.Y-size[1])
			end = box2d.MakeB2Vec2(centre.X, centre.Y+size[1])
		}

		if quad, ok := segment(start, end, radius); ok {
			shape := box2d.NewB2PolygonShape()
			shape.Set(quad, len(quad))
			fixture(shape)
		} else if geomType == "cylinder" {
			circle(start, radius)
		}
		if geomType == "capsule" {
			circle(start, radius)
			circle(end, radius)
		}

	case "box":
		if len(size) < 3 || size[0] <= 0 || size[2] <= 0 {
			return fmt.Errorf("addGeom: box %q needs 3 positive half sizes",
				e.Name())
		}
		hx, hz := size[0], size[2]
		vertices := []box2d.B2Vec2{
			box2d.MakeB2Vec2(centre.X-hx, centre.Y-hz),
			box2d.MakeB2Vec2(centre.X+hx, centre.Y-hz),
			box2d.MakeB2Vec2(centre.X+hx, centre.Y+hz),
			box2d.MakeB2Vec2(centre.X-hx, centre.Y+hz),
		}
		shape := box2d.NewB2PolygonShape()
		shape.Set(vertices, len(vertices))
		fixture(shape)

	default:
		return fmt.Errorf("addGeom: geom %q has unsupported type %v",
			e.Name(), geomType)
	}
	return nil
}

func (b *builder) addActuator(e *mjcf.Element) error {
	if e.Tag != "motor" && e.Tag != "general" {
		return fmt.Errorf("addActuator: unsupported actuator %v", e.Tag)
	}

	jointName, _ := e.Get("joint")
	j, ok := b.p.jointByName[jointName]
	if !ok || j.kind != hingeJoint {
		return fmt.Errorf("addActuator: actuator %q must drive a hinge "+
			"joint but drives %q", e.Name(), jointName)
	}

	gear, err := e.Floats("gear", []float64{1})
	if err != nil {
		return err
	}
	if len(gear) == 0 {
		return fmt.Errorf("addActuator: actuator %q has an empty gear",
			e.Name())
	}

	a := &actuator{name: e.Name(), joint: j, gear: gear[0]}
	_, hasRange := e.Get("ctrlrange")
	if hasRange {
		rng, err := vector(e, "ctrlrange", 2, nil)
		if err != nil {
			return err
		}
		if rng[0] > rng[1] {
			return fmt.Errorf("addActuator: actuator %q has an invalid "+
				"ctrlrange %v", e.Name(), rng)
		}
		a.ctrlRange = r1.Interval{Min: rng[0], Max: rng[1]}
		a.limited = true
	}
	if limited, set := e.Bool("ctrllimited"); set {
		a.limited = limited && hasRange
	}

	b.p.actuators = append(b.p.actuators, a)
	return nil
}

// segment returns the quad of half width radius around the segment
// from start to end, or false if the segment is degenerate
func segment(start, end box2d.B2Vec2, radius float64) ([]box2d.B2Vec2, bool) {
	dx, dy := end.X-start.X, end.Y-start.Y
	length := math.Hypot(dx, dy)
	if length < minSegmentLength {
		return nil, false
	}

	nx, ny := -dy/length*radius, dx/length*radius
	return []box2d.B2Vec2{
		box2d.MakeB2Vec2(start.X+nx, start.Y+ny),
		box2d.MakeB2Vec2(end.X+nx, end.Y+ny),
		box2d.MakeB2Vec2(end.X-nx, end.Y-ny),
		box2d.MakeB2Vec2(start.X-nx, start.Y-ny),
	}, true
}

// vector reads a float attribute that must have exactly n components
func vector(e *mjcf.Element, name string, n int, def []float64) ([]float64,
	error) {
	v, err := e.Floats(name, def)
	if err != nil {
		return nil, err
	}
	if len(v) != n {
		return nil, fmt.Errorf("vector: attribute %v of %v %q should have "+
			"%v components but got %v", name, e.Tag, e.Name(), n, len(v))
	}
	return v, nil
}
