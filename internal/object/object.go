// Package object defines the document object: a property container with an
// identity, a recompute status, and an execute contract that derives output
// properties from input properties.
package object

import (
	"context"

	"github.com/vk/paramdoc/internal/property"
)

// Status is the recompute state machine of an object:
// Untouched → Touched (any input property set) → Recomputing (entered only
// by the orchestrator) → Valid or Error.
type Status int

const (
	Untouched Status = iota
	Touched
	Recomputing
	Valid
	Error
)

func (s Status) String() string {
	switch s {
	case Untouched:
		return "untouched"
	case Touched:
		return "touched"
	case Recomputing:
		return "recomputing"
	case Valid:
		return "valid"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Resolver gives an executor read access to the other objects of its
// document, so link-driven features can read upstream outputs. Executors
// must never mutate a resolved object.
type Resolver interface {
	Object(id string) (*Object, bool)
}

// Executor is the execute contract of an object type. Execute reads the
// object's input properties, computes outputs (typically by delegating to
// the geometry kernel), and writes them back to the same object. It must be
// idempotent and must not mutate any object other than its own.
type Executor interface {
	Execute(ctx context.Context, obj *Object, res Resolver) error
}

// Object is one node of the document graph.
type Object struct {
	id       string
	typeName string
	label    string
	creation uint64
	props    *property.Container
	exec     Executor
	status   Status
	lastErr  error
}

// New creates an object in Touched status so it is picked up by the next
// recompute pass. The creation index orders objects deterministically.
func New(id, typeName, label string, creation uint64, exec Executor) *Object {
	o := &Object{
		id:       id,
		typeName: typeName,
		label:    label,
		creation: creation,
		props:    property.NewContainer(),
		exec:     exec,
		status:   Touched,
	}
	// Any property mutation outside the object's own execute dirties it.
	o.props.Observe(func(string) {
		if o.status != Recomputing {
			o.status = Touched
			o.lastErr = nil
		}
	})
	return o
}

// ID returns the document-unique object identifier.
func (o *Object) ID() string { return o.id }

// TypeName returns the registered object type, e.g. "Part::Box".
func (o *Object) TypeName() string { return o.typeName }

// Label returns the user-facing label.
func (o *Object) Label() string { return o.label }

// SetLabel updates the user-facing label. Labels are metadata and do not
// dirty the object.
func (o *Object) SetLabel(label string) { o.label = label }

// Creation returns the creation index used for deterministic ordering.
func (o *Object) Creation() uint64 { return o.creation }

// Properties returns the object's property container.
func (o *Object) Properties() *property.Container { return o.props }

// Status returns the recompute status.
func (o *Object) Status() Status { return o.status }

// Err returns the failure of the last recompute attempt, nil when healthy.
func (o *Object) Err() error { return o.lastErr }

// SetStatus transitions the state machine. Only the recompute orchestrator
// and the transaction machinery call it.
func (o *Object) SetStatus(s Status, err error) {
	o.status = s
	o.lastErr = err
}

// Execute runs the object's execute contract with read-only writes to its
// own container unlocked.
func (o *Object) Execute(ctx context.Context, res Resolver) error {
	if o.exec == nil {
		return nil
	}
	o.props.BeginExecute()
	defer o.props.EndExecute()
	return o.exec.Execute(ctx, o, res)
}

// OutLinks enumerates every link reference held by the object's Link and
// LinkList properties, in property declaration order. These are the
// structural edges of the dependency graph.
func (o *Object) OutLinks() []property.LinkRef {
	var out []property.LinkRef
	for _, name := range o.props.Names() {
		p, _ := o.props.Get(name)
		switch p.Kind() {
		case property.Link, property.LinkList:
			out = append(out, p.Links()...)
		}
	}
	return out
}
