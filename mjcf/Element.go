package mjcf

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Element is a single MJCF element. Attribute order is preserved so
// that a composed model serialises in the same order it was read.
type Element struct {
	Tag      string
	Attrs    []xml.Attr
	Children []*Element

	parent *Element
}

// NewElement returns a new Element with the given tag. Attributes are
// given as alternating key, value pairs.
func NewElement(tag string, attrs ...string) *Element {
	if len(attrs)%2 != 0 {
		panic(fmt.Sprintf("newElement: attributes of <%v> should be "+
			"key-value pairs", tag))
	}

	e := &Element{Tag: tag}
	for i := 0; i < len(attrs); i += 2 {
		e.Set(attrs[i], attrs[i+1])
	}
	return e
}

// Parent returns the parent element, or nil for a root element
func (e *Element) Parent() *Element {
	return e.parent
}

// Get returns the value of an attribute and whether it exists
func (e *Element) Get(name string) (string, bool) {
	for _, attr := range e.Attrs {
		if attr.Name.Local == name {
			return attr.Value, true
		}
	}
	return "", false
}

// Name returns the name attribute of the element, or "" if the element
// is unnamed
func (e *Element) Name() string {
	name, _ := e.Get("name")
	return name
}

// Set sets the value of an attribute, adding it if it does not exist
func (e *Element) Set(name, value string) {
	for i := range e.Attrs {
		if e.Attrs[i].Name.Local == name {
			e.Attrs[i].Value = value
			return
		}
	}
	e.Attrs = append(e.Attrs, xml.Attr{
		Name:  xml.Name{Local: name},
		Value: value,
	})
}

// Floats parses a whitespace separated attribute as floats. If the
// attribute does not exist, def is returned.
func (e *Element) Floats(name string, def []float64) ([]float64, error) {
	value, ok := e.Get(name)
	if !ok {
		return def, nil
	}

	fields := strings.Fields(value)
	floats := make([]float64, len(fields))
	for i, field := range fields {
		f, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("floats: <%v %v=%q>: %w", e.Tag, name,
				value, err)
		}
		floats[i] = f
	}
	return floats, nil
}

// Bool parses a boolean attribute. MJCF also accepts "auto" for
// some boolean attributes, which is reported as not set.
func (e *Element) Bool(name string) (value, set bool) {
	v, ok := e.Get(name)
	if !ok || v == "auto" {
		return false, false
	}
	return v == "true", true
}

// Add adds a new child to the element and returns it
func (e *Element) Add(tag string, attrs ...string) *Element {
	child := NewElement(tag, attrs...)
	e.AddChild(child)
	return child
}

// AddChild appends an existing element as the last child of e
func (e *Element) AddChild(child *Element) {
	child.parent = e
	e.Children = append(e.Children, child)
}

// Child returns the first direct child with the given tag, or nil
func (e *Element) Child(tag string) *Element {
	for _, child := range e.Children {
		if child.Tag == tag {
			return child
		}
	}
	return nil
}

// Walk visits e and all of its descendants depth-first in document
// order. Returning false from fn skips the children of that element.
func (e *Element) Walk(fn func(*Element) bool) {
	if !fn(e) {
		return
	}
	for _, child := range e.Children {
		child.Walk(fn)
	}
}

// clone returns a deep copy of e with no parent, calling rename on
// each copied element.
func (e *Element) clone(rename func(*Element)) *Element {
	c := &Element{
		Tag:   e.Tag,
		Attrs: make([]xml.Attr, len(e.Attrs)),
	}
	copy(c.Attrs, e.Attrs)
	if rename != nil {
		rename(c)
	}

	for _, child := range e.Children {
		c.AddChild(child.clone(rename))
	}
	return c
}

func (e *Element) encode(enc *xml.Encoder) error {
	start := xml.StartElement{Name: xml.Name{Local: e.Tag}, Attr: e.Attrs}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for _, child := range e.Children {
		if err := child.encode(enc); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

// decode builds an element tree from an XML token stream. Character
// data and comments carry no meaning in MJCF and are dropped.
func decode(dec *xml.Decoder) (*Element, error) {
	var root, current *Element
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if root == nil {
					return nil, fmt.Errorf("empty document")
				}
				if current != nil {
					return nil, fmt.Errorf("unclosed <%v>", current.Tag)
				}
				return root, nil
			}
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			e := &Element{Tag: t.Name.Local}
			for _, attr := range t.Attr {
				e.Attrs = append(e.Attrs, xml.Attr{
					Name:  xml.Name{Local: attr.Name.Local},
					Value: attr.Value,
				})
			}

			if current == nil {
				if root != nil {
					return nil, fmt.Errorf("multiple root elements")
				}
				root = e
			} else {
				current.AddChild(e)
			}
			current = e

		case xml.EndElement:
			if current == nil {
				return nil, fmt.Errorf("unexpected </%v>", t.Name.Local)
			}
			current = current.parent
		}
	}
}
