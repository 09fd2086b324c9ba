// Package feature provides the built-in object types of the document model:
// parametric primitives (Part::Box, Part::Cylinder) and link-driven features
// (Part::Fusion, Part::Translate). Each type declares its input properties
// in its setup and derives an opaque Shape output by delegating to the
// geometry kernel in its execute.
package feature

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/paramdoc/internal/document"
	"github.com/vk/paramdoc/internal/kernel"
	"github.com/vk/paramdoc/internal/object"
	"github.com/vk/paramdoc/internal/property"
)

// ShapeProperty is the conventional name of the derived geometry output.
const ShapeProperty = "Shape"

// Register adds all built-in types to the registry, bound to the given
// kernel backend.
func Register(reg *document.Registry, k kernel.Kernel) error {
	types := []document.Type{
		{Name: "Part::Box", Setup: setupBox, Exec: &boxExec{k: k}},
		{Name: "Part::Cylinder", Setup: setupCylinder, Exec: &cylinderExec{k: k}},
		{Name: "Part::Fusion", Setup: setupFusion, Exec: &fusionExec{k: k}},
		{Name: "Part::Translate", Setup: setupTranslate, Exec: &translateExec{k: k}},
	}
	for _, t := range types {
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// addShapeOutput declares the read-only derived output property.
func addShapeOutput(o *object.Object) error {
	p, err := o.Properties().Add(ShapeProperty, property.Shape)
	if err != nil {
		return err
	}
	p.SetReadOnly(true)
	return nil
}

// addFloat declares a float input with a default value.
func addFloat(o *object.Object, name string, def float64) error {
	if _, err := o.Properties().Add(name, property.Float); err != nil {
		return err
	}
	return o.Properties().Set(name, cty.NumberFloatVal(def))
}

// floatInput reads a float property, failing when it was never populated.
func floatInput(o *object.Object, name string) (float64, error) {
	p, ok := o.Properties().Get(name)
	if !ok || p.Value() == cty.NilVal {
		return 0, fmt.Errorf("input %q is not set", name)
	}
	f, _ := p.Value().AsBigFloat().Float64()
	return f, nil
}

// linkedShape resolves a Link property to its target's computed shape.
func linkedShape(o *object.Object, res object.Resolver, name string) (kernel.Shape, error) {
	p, ok := o.Properties().Get(name)
	if !ok || len(p.Links()) == 0 {
		return nil, fmt.Errorf("link %q is not set", name)
	}
	ref := p.Links()[0]
	if ref.External {
		return nil, fmt.Errorf("link %q is external; external geometry is not resolvable here", name)
	}
	target, ok := res.Object(ref.Target)
	if !ok {
		return nil, fmt.Errorf("link %q target %q does not exist", name, ref.Target)
	}
	sp, ok := target.Properties().Get(ShapeProperty)
	if !ok || sp.ShapeValue() == nil {
		return nil, fmt.Errorf("link %q target %q has no computed shape", name, ref.Target)
	}
	shape, ok := sp.ShapeValue().(kernel.Shape)
	if !ok {
		return nil, fmt.Errorf("link %q target %q holds a foreign shape value", name, ref.Target)
	}
	return shape, nil
}

// --- Part::Box ---

func setupBox(o *object.Object) error {
	for _, in := range []string{"Length", "Width", "Height"} {
		if err := addFloat(o, in, 10); err != nil {
			return err
		}
	}
	return addShapeOutput(o)
}

type boxExec struct {
	k kernel.Kernel
}

func (e *boxExec) Execute(_ context.Context, o *object.Object, _ object.Resolver) error {
	length, err := floatInput(o, "Length")
	if err != nil {
		return err
	}
	width, err := floatInput(o, "Width")
	if err != nil {
		return err
	}
	height, err := floatInput(o, "Height")
	if err != nil {
		return err
	}
	shape, err := e.k.Box(length, width, height)
	if err != nil {
		return err
	}
	return o.Properties().SetShape(ShapeProperty, shape)
}

// --- Part::Cylinder ---

func setupCylinder(o *object.Object) error {
	if err := addFloat(o, "Radius", 2); err != nil {
		return err
	}
	if err := addFloat(o, "Height", 10); err != nil {
		return err
	}
	return addShapeOutput(o)
}

type cylinderExec struct {
	k kernel.Kernel
}

func (e *cylinderExec) Execute(_ context.Context, o *object.Object, _ object.Resolver) error {
	radius, err := floatInput(o, "Radius")
	if err != nil {
		return err
	}
	height, err := floatInput(o, "Height")
	if err != nil {
		return err
	}
	shape, err := e.k.Cylinder(height, radius)
	if err != nil {
		return err
	}
	return o.Properties().SetShape(ShapeProperty, shape)
}

// --- Part::Fusion ---

func setupFusion(o *object.Object) error {
	if _, err := o.Properties().Add("Base", property.Link); err != nil {
		return err
	}
	if _, err := o.Properties().Add("Tool", property.Link); err != nil {
		return err
	}
	return addShapeOutput(o)
}

type fusionExec struct {
	k kernel.Kernel
}

func (e *fusionExec) Execute(_ context.Context, o *object.Object, res object.Resolver) error {
	base, err := linkedShape(o, res, "Base")
	if err != nil {
		return err
	}
	tool, err := linkedShape(o, res, "Tool")
	if err != nil {
		return err
	}
	shape, err := e.k.Union(base, tool)
	if err != nil {
		return err
	}
	return o.Properties().SetShape(ShapeProperty, shape)
}

// --- Part::Translate ---

func setupTranslate(o *object.Object) error {
	if _, err := o.Properties().Add("Source", property.Link); err != nil {
		return err
	}
	for _, in := range []string{"X", "Y", "Z"} {
		if err := addFloat(o, in, 0); err != nil {
			return err
		}
	}
	return addShapeOutput(o)
}

type translateExec struct {
	k kernel.Kernel
}

func (e *translateExec) Execute(_ context.Context, o *object.Object, res object.Resolver) error {
	src, err := linkedShape(o, res, "Source")
	if err != nil {
		return err
	}
	x, err := floatInput(o, "X")
	if err != nil {
		return err
	}
	y, err := floatInput(o, "Y")
	if err != nil {
		return err
	}
	z, err := floatInput(o, "Z")
	if err != nil {
		return err
	}
	shape, err := e.k.Translate(src, x, y, z)
	if err != nil {
		return err
	}
	return o.Properties().SetShape(ShapeProperty, shape)
}
