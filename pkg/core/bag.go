package core

import (
	"sort"

	"github.com/sanonone/kektorgraph/pkg/errors"
)

// Bag is the dynamic attribute storage of a single vertex or edge.
// Every write registers the attribute kind in the session Registry.
//
// A Bag is owned by exactly one element and is not safe for concurrent use.
type Bag struct {
	reg  *Registry
	data map[string]Value
}

// NewBag creates an empty bag bound to reg.
func NewBag(reg *Registry) *Bag {
	return &Bag{
		reg:  reg,
		data: make(map[string]Value),
	}
}

// Put stores or overwrites the value for name. The kind is registered when
// name has not been seen before in the session.
func (b *Bag) Put(name string, v Value) {
	if b.reg != nil {
		b.reg.Register(name, v.Kind())
	}
	b.data[name] = v
}

// Get returns the value stored for name.
func (b *Bag) Get(name string) (Value, bool) {
	v, ok := b.data[name]
	return v, ok
}

// Has reports whether name is present.
func (b *Bag) Has(name string) bool {
	_, ok := b.data[name]
	return ok
}

// Delete removes name from the bag. The registration is kept.
func (b *Bag) Delete(name string) {
	delete(b.data, name)
}

// Text returns the textual representation of name, or "" if absent.
func (b *Bag) Text(name string) string {
	return b.data[name].String()
}

// Float coerces the value of name to float64 using the registered kind of
// the name. Missing attributes yield a MissingAttributeError with VertexID -1;
// callers that know the owner fill it in.
func (b *Bag) Float(name string) (float64, error) {
	v, ok := b.data[name]
	if !ok {
		return 0, &errors.MissingAttributeError{VertexID: -1, Attribute: name}
	}
	kind := v.Kind()
	if b.reg != nil {
		if k, ok := b.reg.Kind(name); ok {
			kind = k
		}
	}
	f, err := v.Convert(kind)
	if err != nil {
		var pe *errors.ParseError
		if errors.As(err, &pe) {
			pe.Attribute = name
		}
		return 0, err
	}
	return f, nil
}

// Names returns the attribute names of the bag in lexicographic order.
func (b *Bag) Names() []string {
	names := make([]string, 0, len(b.data))
	for k := range b.data {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of attributes.
func (b *Bag) Len() int {
	return len(b.data)
}

// Range calls fn for every attribute in lexicographic name order until fn
// returns false.
func (b *Bag) Range(fn func(name string, v Value) bool) {
	for _, name := range b.Names() {
		if !fn(name, b.data[name]) {
			return
		}
	}
}
