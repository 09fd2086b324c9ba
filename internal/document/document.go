// Package document implements the parametric document: the arena of objects
// keyed by ID, the property/link editing API, the formula bindings, the
// recompute orchestrator, and the transaction boundary.
//
// A document is confined to one logical thread of control (a UI event loop
// or a script runtime); none of its state is locked internally. Independent
// documents share nothing and may be driven from separate goroutines.
package document

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/google/uuid"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/paramdoc/internal/expr"
	"github.com/vk/paramdoc/internal/object"
	"github.com/vk/paramdoc/internal/property"
	"github.com/vk/paramdoc/internal/transaction"
)

// Document owns a set of objects and orchestrates recompute over them.
type Document struct {
	uid   string
	label string
	types *Registry

	objects map[string]*object.Object
	order   []string // object IDs in creation order
	counter map[string]int
	nextIdx uint64

	// inbound is the back-reference index: target ID → holder ID → number
	// of link values. Removal checks and graph building read it instead of
	// rescanning every container.
	inbound map[string]map[string]int

	// expressions maps object ID → target property → bound formula.
	expressions map[string]map[string]*expr.Expression

	txns *transaction.Manager
}

// New creates an empty document using the given type registry.
func New(label string, types *Registry) *Document {
	return &Document{
		uid:         uuid.NewString(),
		label:       label,
		types:       types,
		objects:     make(map[string]*object.Object),
		counter:     make(map[string]int),
		inbound:     make(map[string]map[string]int),
		expressions: make(map[string]map[string]*expr.Expression),
		txns:        transaction.NewManager(),
	}
}

// UID returns the document's unique identifier.
func (d *Document) UID() string { return d.uid }

// Label returns the document's label.
func (d *Document) Label() string { return d.label }

// RestoreUID replaces the generated UID with a persisted one. Snapshot
// loading uses it so a document keeps its identity across save/load.
func (d *Document) RestoreUID(uid string) { d.uid = uid }

// Object returns the object with the given ID. It also satisfies
// object.Resolver so executors can read their upstream objects.
func (d *Document) Object(id string) (*object.Object, bool) {
	o, ok := d.objects[id]
	return o, ok
}

// Objects returns all objects in creation order.
func (d *Document) Objects() []*object.Object {
	out := make([]*object.Object, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.objects[id])
	}
	return out
}

// Create instantiates a registered object type. The new object gets a
// generated ID ("Box001", "Box002", ...), starts in Touched status, and is
// picked up by the next recompute.
func (d *Document) Create(typeName, label string) (*object.Object, error) {
	t, ok := d.types.Lookup(typeName)
	if !ok {
		return nil, &UnknownTypeError{Type: typeName}
	}
	base := baseName(typeName)
	d.counter[base]++
	id := fmt.Sprintf("%s%03d", base, d.counter[base])
	return d.create(id, t, label)
}

var trailingDigits = regexp.MustCompile(`^(.*?)(\d+)$`)

// CreateWithID instantiates a type under a caller-chosen ID. Snapshot
// loading uses it to reconstruct objects under their persisted IDs; the
// per-type counter is advanced past the ID so later Create calls cannot
// collide.
func (d *Document) CreateWithID(id, typeName, label string) (*object.Object, error) {
	t, ok := d.types.Lookup(typeName)
	if !ok {
		return nil, &UnknownTypeError{Type: typeName}
	}
	if m := trailingDigits.FindStringSubmatch(id); m != nil {
		if n, err := strconv.Atoi(m[2]); err == nil && n > d.counter[m[1]] {
			d.counter[m[1]] = n
		}
	}
	return d.create(id, t, label)
}

func (d *Document) create(id string, t Type, label string) (*object.Object, error) {
	if _, exists := d.objects[id]; exists {
		return nil, fmt.Errorf("object %q already exists", id)
	}
	if label == "" {
		label = id
	}
	d.nextIdx++
	o := object.New(id, t.Name, label, d.nextIdx, t.Exec)
	if t.Setup != nil {
		if err := t.Setup(o); err != nil {
			return nil, fmt.Errorf("set up %s %q: %w", t.Name, id, err)
		}
	}
	d.objects[id] = o
	d.order = append(d.order, id)
	return o, nil
}

// Remove deletes an object. It fails while other objects still hold
// non-external links to it: dangling references are an error, not a silent
// truncation. Inbound link holders must drop or retarget their links first.
// The object's deltas are pruned from the undo/redo history so undo never
// tries to restore state on anything removed.
func (d *Document) Remove(id string) error {
	if _, ok := d.objects[id]; !ok {
		return &UnknownObjectError{ID: id}
	}
	if holders := d.inboundHolders(id); len(holders) > 0 {
		return &LinkedObjectError{ID: id, Holders: holders}
	}
	d.dropLinkIndex(id)
	delete(d.inbound, id)
	delete(d.expressions, id)
	delete(d.objects, id)
	d.txns.PruneObject(id)
	for i, oid := range d.order {
		if oid == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	return nil
}

// AddProperty declares a dynamic property on an existing object and returns
// its typed handle. Object types declare their standard properties in their
// Setup; this is the runtime extension point.
func (d *Document) AddProperty(id, name string, kind property.Kind) (*property.Property, error) {
	o, ok := d.objects[id]
	if !ok {
		return nil, &UnknownObjectError{ID: id}
	}
	return o.Properties().Add(name, kind)
}

// SetProperty assigns a property value. Accepted value types are cty.Value
// for scalar kinds and property.LinkRef / []property.LinkRef for link
// kinds. Type tags are enforced strictly: a mismatched value is rejected
// with no state change. While a transaction is open the before/after delta
// is recorded.
func (d *Document) SetProperty(id, name string, value any) error {
	o, ok := d.objects[id]
	if !ok {
		return &UnknownObjectError{ID: id}
	}
	props := o.Properties()
	if _, ok := props.Get(name); !ok {
		return &property.UnknownPropertyError{Property: name}
	}

	old, _ := props.Snapshot(name)

	var err error
	isLink := false
	switch v := value.(type) {
	case cty.Value:
		err = props.Set(name, v)
	case property.LinkRef:
		isLink = true
		err = d.setLinks(o, name, []property.LinkRef{v})
	case []property.LinkRef:
		isLink = true
		err = d.setLinks(o, name, v)
	default:
		err = fmt.Errorf("unsupported value type %T for property %q", value, name)
	}
	if err != nil {
		return err
	}

	if isLink {
		d.reindexLinks(o)
	}
	if d.txns.Active() {
		now, _ := props.Snapshot(name)
		if rerr := d.txns.Record(id, name, old, now); rerr != nil {
			return rerr
		}
	}
	return nil
}

// setLinks validates link targets before handing them to the container.
// Non-external targets must resolve within this document and must not point
// back at the holder.
func (d *Document) setLinks(o *object.Object, name string, links []property.LinkRef) error {
	for _, l := range links {
		if l.External {
			continue
		}
		if l.Target == o.ID() {
			return &LinkTargetError{Object: o.ID(), Target: l.Target, Reason: "object cannot link to itself"}
		}
		if _, ok := d.objects[l.Target]; !ok {
			return &LinkTargetError{Object: o.ID(), Target: l.Target, Reason: "target does not exist in this document"}
		}
	}
	return o.Properties().SetLinks(name, links)
}

// inboundHolders returns the IDs of objects holding non-external links to
// the target, sorted by creation order.
func (d *Document) inboundHolders(target string) []string {
	m := d.inbound[target]
	if len(m) == 0 {
		return nil
	}
	var holders []string
	for _, id := range d.order {
		if m[id] > 0 {
			holders = append(holders, id)
		}
	}
	return holders
}

// reindexLinks rebuilds one object's contribution to the back-reference
// index after any of its link properties changed.
func (d *Document) reindexLinks(o *object.Object) {
	d.dropLinkIndex(o.ID())
	for _, l := range o.OutLinks() {
		if l.External {
			continue
		}
		m := d.inbound[l.Target]
		if m == nil {
			m = make(map[string]int)
			d.inbound[l.Target] = m
		}
		m[o.ID()]++
	}
}

// dropLinkIndex removes every index entry held by the given object.
func (d *Document) dropLinkIndex(holder string) {
	for target, m := range d.inbound {
		delete(m, holder)
		if len(m) == 0 {
			delete(d.inbound, target)
		}
	}
}
