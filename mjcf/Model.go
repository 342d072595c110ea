// Package mjcf implements an in-memory scene graph for MJCF, the XML
// model description format of the MuJoCo physics engine. The package
// reads models from disk, finds their joints, bodies and actuators,
// and composes several models into one scene by attaching them to
// each other. It does not compile or validate models; that is left to
// the physics engine which simulates them.
package mjcf

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// ErrLoad is returned when a model cannot be read from disk or parsed
var ErrLoad = errors.New("could not load model")

// Sections of an MJCF model which attached models are merged into
var mergedSections = []string{"asset", "default", "actuator", "sensor",
	"tendon", "equality", "contact"}

// Attributes which name an element of a model
var nameAttrs = []string{"name", "class", "childclass"}

// Attributes which refer to a named element of a model and so must be
// namespaced along with the element names when a model is attached
var refAttrs = []string{"joint", "joint1", "joint2", "body", "body1",
	"body2", "site", "geom", "geom1", "geom2", "tendon", "material",
	"mesh", "texture", "hfield", "target", "objname"}

// Model is an MJCF model: a tree of elements rooted at <mujoco>.
//
// A Model which has been attached to another Model still refers to its
// own elements, but reports their names prefixed by its namespace,
// which is the name of the model followed by "/". This mirrors how the
// attached copy is named in the composed scene.
type Model struct {
	root      *Element
	namespace string
}

// FromPath reads an MJCF model from disk
func FromPath(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fromPath: %w: %v", ErrLoad, err)
	}

	m, err := FromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("fromPath: %v: %w", path, err)
	}
	return m, nil
}

// FromString reads an MJCF model from an XML string
func FromString(s string) (*Model, error) {
	return FromBytes([]byte(s))
}

// FromBytes reads an MJCF model from an XML document
func FromBytes(data []byte) (*Model, error) {
	root, err := decode(xml.NewDecoder(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	if root.Tag != "mujoco" {
		return nil, fmt.Errorf("%w: root element should be <mujoco> but "+
			"got <%v>", ErrLoad, root.Tag)
	}
	return &Model{root: root}, nil
}

// New returns a new empty model with the given model name
func New(name string) *Model {
	return &Model{root: NewElement("mujoco", "model", name)}
}

// Name returns the model name, which becomes the namespace of the
// model when it is attached to another model
func (m *Model) Name() string {
	name, _ := m.root.Get("model")
	return name
}

// Root returns the root <mujoco> element
func (m *Model) Root() *Element {
	return m.root
}

// Namespace returns the prefix applied to the names of the model's
// elements in the scene it was attached to. The namespace of a model
// which has not been attached is empty.
func (m *Model) Namespace() string {
	return m.namespace
}

// Identifier returns the name of an element of the model as it
// appears in the composed scene
func (m *Model) Identifier(name string) string {
	return m.namespace + name
}

// Section returns the top-level section with the given tag, creating
// it if it does not exist
func (m *Model) Section(tag string) *Element {
	if s := m.root.Child(tag); s != nil {
		return s
	}
	return m.root.Add(tag)
}

// Worldbody returns the <worldbody> of the model
func (m *Model) Worldbody() *Element {
	return m.Section("worldbody")
}

// FindAll returns all elements of a given kind in document order.
// The kind "actuator" returns every child of the <actuator> sections,
// whatever its actuator type. The kind "joint" includes free joints.
func (m *Model) FindAll(kind string) []*Element {
	var found []*Element
	if kind == "actuator" {
		for _, section := range m.root.Children {
			if section.Tag == "actuator" {
				found = append(found, section.Children...)
			}
		}
		return found
	}

	wb := m.root.Child("worldbody")
	if wb == nil {
		return nil
	}
	wb.Walk(func(e *Element) bool {
		if e.Tag == kind || (kind == "joint" && e.Tag == "freejoint") {
			found = append(found, e)
		}
		return true
	})
	return found
}

// Find returns the element of a given kind with a given (unprefixed)
// name, or nil if no such element exists
func (m *Model) Find(kind, name string) *Element {
	for _, e := range m.FindAll(kind) {
		if e.Name() == name {
			return e
		}
	}
	return nil
}

// Identifiers returns the scene names of all named elements of a
// given kind, in document order
func (m *Model) Identifiers(kind string) []string {
	elements := m.FindAll(kind)
	names := make([]string, 0, len(elements))
	for _, e := range elements {
		if name := e.Name(); name != "" {
			names = append(names, m.Identifier(name))
		}
	}
	return names
}

// AngleScale returns the factor which converts angles given in the
// model's angle unit to radians
func (m *Model) AngleScale() float64 {
	if c := m.root.Child("compiler"); c != nil {
		if unit, ok := c.Get("angle"); ok && unit == "radian" {
			return 1.0
		}
	}
	return math.Pi / 180.0
}

// Timestep returns the simulation timestep of the model
func (m *Model) Timestep() (float64, error) {
	opt := m.root.Child("option")
	if opt == nil {
		return DefaultTimestep, nil
	}

	dt, err := opt.Floats("timestep", []float64{DefaultTimestep})
	if err != nil {
		return 0, fmt.Errorf("timestep: %v", err)
	}
	if len(dt) != 1 || dt[0] <= 0 {
		return 0, fmt.Errorf("timestep: illegal timestep %v", dt)
	}
	return dt[0], nil
}

// DefaultTimestep is the simulation timestep used when a model does
// not specify one
const DefaultTimestep = 0.002

// Attach attaches child to m. The bodies of child's worldbody are
// placed in an attachment frame: a new body named by child's
// namespace. If freeJoint is true, the attachment frame gets a free
// joint of the same name so that the attached model can move freely
// in the scene. Attach returns the attachment frame.
//
// All names and name references of the attached copy are prefixed by
// the child's namespace, and the child's actuators, assets and other
// global sections are merged into m. Joint ranges of child are
// converted to the angle unit of m.
func (m *Model) Attach(child *Model, freeJoint bool) (*Element, error) {
	if child == m {
		return nil, fmt.Errorf("attach: cannot attach model to itself")
	}
	if child.namespace != "" {
		return nil, fmt.Errorf("attach: model %q is already attached",
			child.Name())
	}
	if child.Name() == "" {
		return nil, fmt.Errorf("attach: cannot attach unnamed model")
	}

	namespace := m.namespace + child.Name() + "/"
	angleScale := child.AngleScale() / m.AngleScale()
	var rangeErr error

	rename := func(e *Element) {
		for i := range e.Attrs {
			attr := &e.Attrs[i]
			if contains(nameAttrs, attr.Name.Local) ||
				contains(refAttrs, attr.Name.Local) {
				attr.Value = namespace + attr.Value
			}
		}

		if e.Tag == "joint" && angleScale != 1.0 {
			rng, err := e.Floats("range", nil)
			if err != nil {
				rangeErr = err
				return
			}
			if rng != nil {
				e.Set("range", formatFloats(scale(rng, angleScale)))
			}
		}
	}

	frame := m.Worldbody().Add("body", "name", namespace)
	if freeJoint {
		frame.Add("freejoint", "name", namespace)
	}
	if wb := child.root.Child("worldbody"); wb != nil {
		for _, e := range wb.Children {
			frame.AddChild(e.clone(rename))
		}
	}

	for _, tag := range mergedSections {
		for _, section := range child.root.Children {
			if section.Tag != tag {
				continue
			}
			dst := m.Section(tag)
			for _, e := range section.Children {
				dst.AddChild(e.clone(rename))
			}
		}
	}

	if rangeErr != nil {
		return nil, fmt.Errorf("attach: %w", rangeErr)
	}

	child.namespace = namespace
	return frame, nil
}

// Bytes serialises the model to MJCF XML
func (m *Model) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	if err := m.root.encode(enc); err != nil {
		return nil, fmt.Errorf("bytes: %v", err)
	}
	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("bytes: %v", err)
	}
	return buf.Bytes(), nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func scale(values []float64, by float64) []float64 {
	scaled := make([]float64, len(values))
	for i := range values {
		scaled[i] = values[i] * by
	}
	return scaled
}

func formatFloats(values []float64) string {
	fields := make([]string, len(values))
	for i, v := range values {
		fields[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(fields, " ")
}
