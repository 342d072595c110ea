package observation

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Dict is an ordered mapping from feature names to feature vectors.
// Keys keep the order in which they were first set.
type Dict struct {
	keys   []string
	values map[string]*mat.VecDense
}

// NewDict returns a new empty Dict
func NewDict() *Dict {
	return &Dict{values: make(map[string]*mat.VecDense)}
}

// Set sets the feature vector of a key. Setting an existing key
// replaces its value but keeps its position.
func (d *Dict) Set(key string, value *mat.VecDense) {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

// SetSlice is a convenience wrapper around Set for raw slices
func (d *Dict) SetSlice(key string, value []float64) {
	d.Set(key, mat.NewVecDense(len(value), value))
}

// Get returns the feature vector of a key
func (d *Dict) Get(key string) (*mat.VecDense, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Keys returns the keys of the Dict in order
func (d *Dict) Keys() []string {
	return append([]string(nil), d.keys...)
}

// Len returns the number of keys in the Dict
func (d *Dict) Len() int {
	return len(d.keys)
}

// Size returns the total number of features over all keys
func (d *Dict) Size() int {
	size := 0
	for _, key := range d.keys {
		size += d.values[key].Len()
	}
	return size
}

// Vector returns all feature vectors concatenated in key order. This
// is the flat observation consumed by agents.
func (d *Dict) Vector() *mat.VecDense {
	data := make([]float64, 0, d.Size())
	for _, key := range d.keys {
		v := d.values[key]
		for i := 0; i < v.Len(); i++ {
			data = append(data, v.AtVec(i))
		}
	}
	if len(data) == 0 {
		return nil
	}
	return mat.NewVecDense(len(data), data)
}

func (d *Dict) String() string {
	str := "{"
	for i, key := range d.keys {
		if i > 0 {
			str += ", "
		}
		str += fmt.Sprintf("%v: %v", key, mat.Formatted(d.values[key].T(),
			mat.Squeeze()))
	}
	return str + "}"
}
