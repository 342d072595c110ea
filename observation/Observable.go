// Package observation implements observables, named features derived
// from live physics state, and the ordered observation dictionaries
// returned to agents.
package observation

import (
	"errors"
	"fmt"

	"github.com/samuelfneumann/tripod/physics"
	"gonum.org/v1/gonum/mat"
)

// ErrNoData is returned when an enabled observable produces no data
var ErrNoData = errors.New("observable produced no data")

// Func reads a feature from physics state
type Func func(p physics.Physics) ([]float64, error)

// Observable is a named feature backed by live physics state. Only
// enabled observables are included in observations.
type Observable struct {
	name    string
	read    Func
	Enabled bool
}

// New returns a new, disabled Observable
func New(name string, read Func) *Observable {
	return &Observable{name: name, read: read}
}

// Name returns the name of the observable
func (o *Observable) Name() string {
	return o.name
}

// Observe reads the current value of the observable
func (o *Observable) Observe(p physics.Physics) (*mat.VecDense, error) {
	data, err := o.read(p)
	if err != nil {
		return nil, fmt.Errorf("observe %v: %w", o.name, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("observe %v: %w", o.name, ErrNoData)
	}
	return mat.NewVecDense(len(data), data), nil
}

// Set is an ordered collection of observables with unique names
type Set struct {
	order  []*Observable
	byName map[string]*Observable
}

// NewSet returns a new Set. NewSet panics if two observables share a
// name.
func NewSet(observables ...*Observable) *Set {
	s := &Set{byName: make(map[string]*Observable)}
	for _, o := range observables {
		s.Add(o)
	}
	return s
}

// Add adds an observable to the end of the Set
func (s *Set) Add(o *Observable) {
	if _, ok := s.byName[o.name]; ok {
		panic(fmt.Sprintf("add: observable %v already exists", o.name))
	}
	s.order = append(s.order, o)
	s.byName[o.name] = o
}

// Get returns the observable with the given name
func (s *Set) Get(name string) (*Observable, bool) {
	o, ok := s.byName[name]
	return o, ok
}

// SetEnabled enables or disables the named observable
func (s *Set) SetEnabled(name string, enabled bool) error {
	o, ok := s.byName[name]
	if !ok {
		return fmt.Errorf("setEnabled: no such observable %v", name)
	}
	o.Enabled = enabled
	return nil
}

// All returns every observable in the Set in order
func (s *Set) All() []*Observable {
	return append([]*Observable(nil), s.order...)
}

// Enabled returns the enabled observables in the Set in order
func (s *Set) Enabled() []*Observable {
	var enabled []*Observable
	for _, o := range s.order {
		if o.Enabled {
			enabled = append(enabled, o)
		}
	}
	return enabled
}

// Len returns the number of observables in the Set
func (s *Set) Len() int {
	return len(s.order)
}
