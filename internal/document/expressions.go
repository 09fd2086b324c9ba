package document

import (
	"sort"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/paramdoc/internal/expr"
	"github.com/vk/paramdoc/internal/object"
	"github.com/vk/paramdoc/internal/property"
)

// BindExpression parses the formula and binds it to the named property. The
// formula's references become dependency edges on the next recompute; the
// target value is computed during the pass, never here. Binding over an
// existing formula replaces it.
func (d *Document) BindExpression(id, name, formula string) error {
	o, ok := d.objects[id]
	if !ok {
		return &UnknownObjectError{ID: id}
	}
	p, ok := o.Properties().Get(name)
	if !ok {
		return &property.UnknownPropertyError{Property: name}
	}
	if !p.Kind().Scalar() {
		return &property.TypeMismatchError{Property: name, Kind: p.Kind(), Got: cty.NilType}
	}
	if p.ReadOnly() {
		return &property.PermissionError{Property: name}
	}

	e, err := expr.Parse(name, formula)
	if err != nil {
		return err
	}

	m := d.expressions[id]
	if m == nil {
		m = make(map[string]*expr.Expression)
		d.expressions[id] = m
	}
	old := ""
	if prev, ok := m[name]; ok {
		old = prev.Formula
	}
	m[name] = e
	if d.txns.Active() {
		d.txns.RecordBinding(id, name, old, formula)
	}
	o.SetStatus(object.Touched, nil)
	return nil
}

// UnbindExpression removes a formula binding. The property keeps its last
// computed value.
func (d *Document) UnbindExpression(id, name string) error {
	if _, ok := d.objects[id]; !ok {
		return &UnknownObjectError{ID: id}
	}
	m := d.expressions[id]
	prev, ok := m[name]
	if !ok {
		return &property.UnknownPropertyError{Property: name}
	}
	delete(m, name)
	if len(m) == 0 {
		delete(d.expressions, id)
	}
	if d.txns.Active() {
		d.txns.RecordBinding(id, name, prev.Formula, "")
	}
	if o := d.objects[id]; o != nil {
		o.SetStatus(object.Touched, nil)
	}
	return nil
}

// restoreBinding reinstates one side of a binding delta during rollback,
// undo, or redo. An empty formula removes the binding. The formula text was
// accepted by BindExpression once already, so a parse failure here means
// corrupted history.
func (d *Document) restoreBinding(o *object.Object, name, formula string) error {
	if formula == "" {
		m := d.expressions[o.ID()]
		delete(m, name)
		if len(m) == 0 {
			delete(d.expressions, o.ID())
		}
		o.SetStatus(object.Touched, nil)
		return nil
	}
	e, err := expr.Parse(name, formula)
	if err != nil {
		return err
	}
	m := d.expressions[o.ID()]
	if m == nil {
		m = make(map[string]*expr.Expression)
		d.expressions[o.ID()] = m
	}
	m[name] = e
	o.SetStatus(object.Touched, nil)
	return nil
}

// Expressions returns the object's formula bindings sorted by target
// property name.
func (d *Document) Expressions(id string) []*expr.Expression {
	m := d.expressions[id]
	if len(m) == 0 {
		return nil
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*expr.Expression, 0, len(names))
	for _, name := range names {
		out = append(out, m[name])
	}
	return out
}

// evalScope builds the variable scope for one object's formulas: every
// referenced object contributes an object value of its scalar properties.
// A reference that does not resolve to an existing, populated property
// fails with UnresolvedReferenceError, which the orchestrator reports as
// the owning object's execute failure.
func (d *Document) evalScope(exprs []*expr.Expression) (map[string]cty.Value, error) {
	vars := make(map[string]cty.Value)
	for _, e := range exprs {
		for _, ref := range e.References() {
			if err := d.checkRef(ref); err != nil {
				return nil, err
			}
			if _, done := vars[ref.Object]; !done {
				vars[ref.Object] = d.scalarValues(d.objects[ref.Object])
			}
		}
	}
	return vars, nil
}

// checkRef verifies one referenced path resolves to a populated scalar
// property.
func (d *Document) checkRef(ref expr.Path) error {
	o, ok := d.objects[ref.Object]
	if !ok {
		return &expr.UnresolvedReferenceError{Path: ref}
	}
	p, ok := o.Properties().Get(ref.Property)
	if !ok || !p.Kind().Scalar() || p.Value() == cty.NilVal {
		return &expr.UnresolvedReferenceError{Path: ref}
	}
	return nil
}

// scalarValues packs an object's populated scalar properties into a cty
// object value for the expression scope.
func (d *Document) scalarValues(o *object.Object) cty.Value {
	attrs := make(map[string]cty.Value)
	for _, name := range o.Properties().Names() {
		p, _ := o.Properties().Get(name)
		if p.Kind().Scalar() && p.Value() != cty.NilVal {
			attrs[name] = p.Value()
		}
	}
	if len(attrs) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(attrs)
}

// evaluateExpressions computes every formula bound to the object and
// assigns the results, in deterministic target order. It is called by the
// orchestrator with the object already in Recomputing status.
func (d *Document) evaluateExpressions(o *object.Object) error {
	exprs := d.Expressions(o.ID())
	if len(exprs) == 0 {
		return nil
	}
	vars, err := d.evalScope(exprs)
	if err != nil {
		return err
	}
	for _, e := range exprs {
		v, err := e.Evaluate(vars)
		if err != nil {
			if p, ok := o.Properties().Get(e.Target); ok {
				p.SetErr(err.Error())
			}
			return err
		}
		if err := o.Properties().Set(e.Target, v); err != nil {
			if p, ok := o.Properties().Get(e.Target); ok {
				p.SetErr(err.Error())
			}
			return err
		}
	}
	return nil
}
