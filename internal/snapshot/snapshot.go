// Package snapshot serializes documents to a versioned JSON format and
// rebuilds them. Only authored state is persisted: object identities,
// writable property values, link references, and formula text. Derived
// state (shapes, statuses) is reconstructed by recomputing after load.
package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/vk/paramdoc/internal/document"
	"github.com/vk/paramdoc/internal/property"
)

// FormatVersion identifies the snapshot layout. Loaders reject snapshots
// written by a newer format.
const FormatVersion = 1

type fileModel struct {
	FormatVersion int           `json:"format_version"`
	UID           string        `json:"uid"`
	Label         string        `json:"label"`
	Objects       []objectModel `json:"objects"`
}

type objectModel struct {
	ID          string            `json:"id"`
	Type        string            `json:"type"`
	Label       string            `json:"label,omitempty"`
	Properties  []propertyModel   `json:"properties,omitempty"`
	Expressions []expressionModel `json:"expressions,omitempty"`
}

type propertyModel struct {
	Name  string             `json:"name"`
	Kind  string             `json:"kind"`
	Value json.RawMessage    `json:"value,omitempty"`
	Links []property.LinkRef `json:"links,omitempty"`
}

type expressionModel struct {
	Target  string `json:"target"`
	Formula string `json:"formula"`
}

// FormatError reports a snapshot that cannot be decoded or rebuilt.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("snapshot: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("snapshot: %s", e.Reason)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Save serializes the document. Shape properties and other read-only
// derived values are omitted; they are rebuilt by the next recompute.
func Save(d *document.Document) ([]byte, error) {
	f := fileModel{
		FormatVersion: FormatVersion,
		UID:           d.UID(),
		Label:         d.Label(),
	}

	for _, o := range d.Objects() {
		om := objectModel{
			ID:    o.ID(),
			Type:  o.TypeName(),
			Label: o.Label(),
		}

		for _, name := range o.Properties().Names() {
			p, _ := o.Properties().Get(name)
			if p.ReadOnly() || p.Kind() == property.Shape {
				continue
			}
			pm := propertyModel{Name: name, Kind: p.Kind().String()}
			switch p.Kind() {
			case property.Link, property.LinkList:
				pm.Links = p.Links()
				if len(pm.Links) == 0 {
					// Unset link slots still record the declaration so
					// dynamic properties survive a round trip.
					pm.Links = nil
				}
			default:
				if p.Value() != cty.NilVal {
					raw, err := ctyjson.Marshal(p.Value(), p.Kind().CtyType())
					if err != nil {
						return nil, &FormatError{
							Reason: fmt.Sprintf("encode %s.%s", o.ID(), name),
							Err:    err,
						}
					}
					pm.Value = raw
				}
			}
			om.Properties = append(om.Properties, pm)
		}

		for _, e := range d.Expressions(o.ID()) {
			om.Expressions = append(om.Expressions, expressionModel{
				Target:  e.Target,
				Formula: e.Formula,
			})
		}

		f.Objects = append(f.Objects, om)
	}

	return json.MarshalIndent(f, "", "  ")
}

// Load rebuilds a document from serialized form. Objects are created in
// their persisted order, values and links are applied, and formulas are
// re-bound. Every object comes back touched, so the first recompute after
// loading re-derives all shapes and statuses.
func Load(data []byte, types *document.Registry) (*document.Document, error) {
	var f fileModel
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, &FormatError{Reason: "decode", Err: err}
	}
	if f.FormatVersion > FormatVersion {
		return nil, &FormatError{
			Reason: fmt.Sprintf("format version %d is newer than supported version %d", f.FormatVersion, FormatVersion),
		}
	}

	d := document.New(f.Label, types)
	if f.UID != "" {
		d.RestoreUID(f.UID)
	}

	// First pass: materialize every object so link targets resolve no
	// matter what order the snapshot lists them in.
	for _, om := range f.Objects {
		if _, err := d.CreateWithID(om.ID, om.Type, om.Label); err != nil {
			return nil, &FormatError{Reason: fmt.Sprintf("create %s", om.ID), Err: err}
		}
	}

	// Second pass: scalar values, declaring dynamic properties the type's
	// setup did not.
	for _, om := range f.Objects {
		o, _ := d.Object(om.ID)
		for _, pm := range om.Properties {
			kind, ok := property.KindFromString(pm.Kind)
			if !ok {
				return nil, &FormatError{Reason: fmt.Sprintf("property %s.%s: unknown kind %q", om.ID, pm.Name, pm.Kind)}
			}
			if _, have := o.Properties().Get(pm.Name); !have {
				if _, err := d.AddProperty(om.ID, pm.Name, kind); err != nil {
					return nil, &FormatError{Reason: fmt.Sprintf("property %s.%s", om.ID, pm.Name), Err: err}
				}
			}
			if kind == property.Link || kind == property.LinkList || pm.Value == nil {
				continue
			}
			val, err := ctyjson.Unmarshal(pm.Value, kind.CtyType())
			if err != nil {
				return nil, &FormatError{Reason: fmt.Sprintf("decode %s.%s", om.ID, pm.Name), Err: err}
			}
			if err := d.SetProperty(om.ID, pm.Name, val); err != nil {
				return nil, &FormatError{Reason: fmt.Sprintf("restore %s.%s", om.ID, pm.Name), Err: err}
			}
		}
	}

	// Third pass: links, now that all targets exist.
	for _, om := range f.Objects {
		for _, pm := range om.Properties {
			if len(pm.Links) == 0 {
				continue
			}
			kind, _ := property.KindFromString(pm.Kind)
			var v any
			if kind == property.Link {
				v = pm.Links[0]
			} else {
				v = pm.Links
			}
			if err := d.SetProperty(om.ID, pm.Name, v); err != nil {
				return nil, &FormatError{Reason: fmt.Sprintf("restore link %s.%s", om.ID, pm.Name), Err: err}
			}
		}
	}

	// Fourth pass: formulas.
	for _, om := range f.Objects {
		for _, em := range om.Expressions {
			if err := d.BindExpression(om.ID, em.Target, em.Formula); err != nil {
				return nil, &FormatError{Reason: fmt.Sprintf("bind %s.%s", om.ID, em.Target), Err: err}
			}
		}
	}

	return d, nil
}
