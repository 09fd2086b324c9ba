package property

import (
	"github.com/zclconf/go-cty/cty"
)

// Observer is notified after a property value changes. Observers must not
// mutate the container; they exist for GUI bindings and dirty tracking.
type Observer func(name string)

// Container owns the name-to-property mapping of one document object.
// Properties are kept in declaration order so snapshots and recomputes are
// reproducible. A container is confined to its document's thread of control
// and does no internal locking.
type Container struct {
	props     map[string]*Property
	order     []string
	observers []Observer

	// executing is set by the recompute orchestrator for the duration of
	// the owning object's execute, which is the only caller allowed to
	// write read-only properties.
	executing bool
}

// NewContainer creates an empty container.
func NewContainer() *Container {
	return &Container{props: make(map[string]*Property)}
}

// Add declares a new property with the given name and kind and returns its
// handle. Declaring the same name twice is an error.
func (c *Container) Add(name string, kind Kind) (*Property, error) {
	if _, exists := c.props[name]; exists {
		return nil, &DuplicateError{Property: name}
	}
	p := &Property{name: name, kind: kind, val: cty.NilVal}
	c.props[name] = p
	c.order = append(c.order, name)
	return p, nil
}

// Get returns the property with the given name.
func (c *Container) Get(name string) (*Property, bool) {
	p, ok := c.props[name]
	return p, ok
}

// Names returns all property names in declaration order.
func (c *Container) Names() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Observe registers a change observer.
func (c *Container) Observe(fn Observer) {
	c.observers = append(c.observers, fn)
}

// BeginExecute marks the container as being written by its own execute,
// unlocking read-only properties. The orchestrator pairs it with EndExecute.
func (c *Container) BeginExecute() { c.executing = true }

// EndExecute reverses BeginExecute.
func (c *Container) EndExecute() { c.executing = false }

// Executing reports whether the container is inside its own execute.
func (c *Container) Executing() bool { return c.executing }

func (c *Container) notify(name string) {
	for _, fn := range c.observers {
		fn(name)
	}
}

func (c *Container) writable(p *Property) error {
	if p.readonly && !c.executing {
		return &PermissionError{Property: p.name}
	}
	return nil
}

// Set assigns a scalar value. It fails with TypeMismatchError when the
// value's type disagrees with the declared kind and with PermissionError
// when the property is read-only and the set is not coming from the owning
// object's execute. On success the property is marked touched and observers
// are notified; on failure nothing changes.
func (c *Container) Set(name string, v cty.Value) error {
	p, ok := c.props[name]
	if !ok {
		return &UnknownPropertyError{Property: name}
	}
	if err := c.writable(p); err != nil {
		return err
	}
	if err := p.checkValue(v); err != nil {
		return err
	}
	p.val = v
	p.touched = true
	p.errmsg = ""
	c.notify(name)
	return nil
}

// SetLinks assigns link values to a Link or LinkList property. A Link
// property holds at most one reference.
func (c *Container) SetLinks(name string, links []LinkRef) error {
	p, ok := c.props[name]
	if !ok {
		return &UnknownPropertyError{Property: name}
	}
	if err := c.writable(p); err != nil {
		return err
	}
	switch p.kind {
	case Link:
		if len(links) > 1 {
			return &TypeMismatchError{Property: name, Kind: p.kind, Got: cty.NilType}
		}
	case LinkList:
	default:
		return &TypeMismatchError{Property: name, Kind: p.kind, Got: cty.NilType}
	}
	p.links = append([]LinkRef(nil), links...)
	p.touched = true
	p.errmsg = ""
	c.notify(name)
	return nil
}

// SetShape assigns an opaque shape handle to a Shape property. Shape
// properties are derived outputs, so this is only legal from the owning
// object's execute.
func (c *Container) SetShape(name string, shape any) error {
	p, ok := c.props[name]
	if !ok {
		return &UnknownPropertyError{Property: name}
	}
	if p.kind != Shape {
		return &TypeMismatchError{Property: name, Kind: p.kind, Got: cty.NilType}
	}
	if err := c.writable(p); err != nil {
		return err
	}
	p.shape = shape
	p.errmsg = ""
	c.notify(name)
	return nil
}

// Snapshot captures the restorable value of a property for transaction
// deltas. Shape outputs are not captured; they are recomputed.
func (c *Container) Snapshot(name string) (Value, bool) {
	p, ok := c.props[name]
	if !ok {
		return Value{}, false
	}
	return Value{
		Kind:  p.kind,
		Val:   p.val,
		Links: append([]LinkRef(nil), p.links...),
	}, true
}

// Restore writes back a previously captured value, bypassing the read-only
// and touched bookkeeping rules used for user edits. The transaction
// machinery is the only caller; it marks containers touched itself.
func (c *Container) Restore(name string, v Value) error {
	p, ok := c.props[name]
	if !ok {
		return &UnknownPropertyError{Property: name}
	}
	p.val = v.Val
	p.links = append([]LinkRef(nil), v.Links...)
	p.touched = true
	p.errmsg = ""
	c.notify(name)
	return nil
}

// ClearTouched resets the touched bit on every property. The orchestrator
// calls it after a successful execute.
func (c *Container) ClearTouched() {
	for _, p := range c.props {
		p.touched = false
	}
}

// Value is a restorable property value used in transaction deltas and
// container snapshots.
type Value struct {
	Kind  Kind
	Val   cty.Value
	Links []LinkRef
}
