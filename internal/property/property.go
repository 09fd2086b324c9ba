// Package property implements the typed property cells that make up every
// document object. A property is a named value with a declared kind; sets
// that disagree with the kind are rejected outright, values are never
// coerced. Scalar values are go-cty values so the expression engine can
// consume them directly; link values reference other objects and form the
// structural edges of the dependency graph.
package property

import (
	"github.com/zclconf/go-cty/cty"
)

// Kind is the declared type tag of a property.
type Kind int

const (
	Float Kind = iota
	Integer
	Bool
	String
	Link     // single reference to another object
	LinkList // list of references
	Shape    // opaque geometry output, compared by identity
)

func (k Kind) String() string {
	switch k {
	case Float:
		return "float"
	case Integer:
		return "integer"
	case Bool:
		return "bool"
	case String:
		return "string"
	case Link:
		return "link"
	case LinkList:
		return "linklist"
	case Shape:
		return "shape"
	default:
		return "unknown"
	}
}

// KindFromString is the inverse of Kind.String. Snapshot loading uses it.
func KindFromString(s string) (Kind, bool) {
	for _, k := range []Kind{Float, Integer, Bool, String, Link, LinkList, Shape} {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// Scalar reports whether the kind holds a cty value usable in expressions.
func (k Kind) Scalar() bool {
	switch k {
	case Float, Integer, Bool, String:
		return true
	}
	return false
}

// CtyType returns the cty type a scalar kind stores. Non-scalar kinds
// return cty.NilType.
func (k Kind) CtyType() cty.Type {
	switch k {
	case Float, Integer:
		return cty.Number
	case Bool:
		return cty.Bool
	case String:
		return cty.String
	default:
		return cty.NilType
	}
}

// LinkRef is one link value: a target object plus an optional sub-element
// reference (e.g. a face) that is opaque to the document core. External
// links point outside the owning document and are excluded from structural
// cycle checks.
type LinkRef struct {
	Target     string `json:"target"`
	SubElement string `json:"sub_element,omitempty"`
	External   bool   `json:"external,omitempty"`
}

// Property is a single typed value cell. It belongs to exactly one
// Container; its identity is (container, name).
type Property struct {
	name     string
	kind     Kind
	val      cty.Value
	links    []LinkRef
	shape    any
	touched  bool
	readonly bool
	hidden   bool
	errmsg   string
}

// Name returns the property name.
func (p *Property) Name() string { return p.name }

// Kind returns the declared type tag.
func (p *Property) Kind() Kind { return p.kind }

// Value returns the scalar value. It is cty.NilVal until the first set and
// for non-scalar kinds.
func (p *Property) Value() cty.Value { return p.val }

// Links returns the link values of a Link or LinkList property.
func (p *Property) Links() []LinkRef { return p.links }

// ShapeValue returns the opaque shape handle of a Shape property, or nil.
func (p *Property) ShapeValue() any { return p.shape }

// Touched reports whether the property changed since the last recompute.
func (p *Property) Touched() bool { return p.touched }

// ReadOnly reports whether external sets are rejected.
func (p *Property) ReadOnly() bool { return p.readonly }

// Hidden reports whether GUI observers should hide the property.
func (p *Property) Hidden() bool { return p.hidden }

// Err returns the property-level error message, empty when healthy.
func (p *Property) Err() string { return p.errmsg }

// SetReadOnly toggles the read-only status bit.
func (p *Property) SetReadOnly(ro bool) { p.readonly = ro }

// SetHidden toggles the hidden status bit.
func (p *Property) SetHidden(h bool) { p.hidden = h }

// SetErr records a property-level error message (e.g. a failed expression).
func (p *Property) SetErr(msg string) { p.errmsg = msg }

// checkValue validates a scalar value against the declared kind.
func (p *Property) checkValue(v cty.Value) error {
	t := p.kind.CtyType()
	if t == cty.NilType {
		return &TypeMismatchError{Property: p.name, Kind: p.kind, Got: v.Type()}
	}
	if v.IsNull() || !v.Type().Equals(t) {
		return &TypeMismatchError{Property: p.name, Kind: p.kind, Got: v.Type()}
	}
	if p.kind == Integer {
		if bf := v.AsBigFloat(); !bf.IsInt() {
			return &TypeMismatchError{Property: p.name, Kind: p.kind, Got: v.Type()}
		}
	}
	return nil
}
