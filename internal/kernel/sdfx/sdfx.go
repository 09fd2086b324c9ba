// Package sdfx implements kernel.Kernel on top of the
// github.com/deadsy/sdfx SDF-based solid modeling library.
package sdfx

import (
	"errors"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/vk/paramdoc/internal/kernel"
)

// Compile-time interface check.
var _ kernel.Kernel = (*Kernel)(nil)

// solid wraps an sdf.SDF3 to implement kernel.Shape.
type solid struct {
	s sdf.SDF3
}

// BoundingBox returns the axis-aligned bounding box.
func (s *solid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// Kernel implements kernel.Kernel using sdfx.
type Kernel struct{}

// New returns a new sdfx-backed kernel.
func New() *Kernel {
	return &Kernel{}
}

func unwrap(s kernel.Shape) sdf.SDF3 {
	return s.(*solid).s
}

func wrap(s sdf.SDF3) kernel.Shape {
	return &solid{s: s}
}

// Box builds a rectangular solid with its minimum corner at the origin.
// sdf.Box3D centers the box, so the result is shifted by half-dimensions.
func (k *Kernel) Box(length, width, height float64) (kernel.Shape, error) {
	s, err := sdf.Box3D(v3.Vec{X: length, Y: width, Z: height}, 0)
	if err != nil {
		return nil, &kernel.GeometryError{Op: "box", Err: err}
	}
	m := sdf.Translate3d(v3.Vec{X: length / 2, Y: width / 2, Z: height / 2})
	return wrap(sdf.Transform3D(s, m)), nil
}

// Cylinder builds a cylinder along the Z axis.
func (k *Kernel) Cylinder(height, radius float64) (kernel.Shape, error) {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		return nil, &kernel.GeometryError{Op: "cylinder", Err: err}
	}
	return wrap(s), nil
}

// Union returns the boolean union of two solids.
func (k *Kernel) Union(a, b kernel.Shape) (kernel.Shape, error) {
	if a == nil || b == nil {
		return nil, &kernel.GeometryError{Op: "union", Err: errors.New("nil operand")}
	}
	return wrap(sdf.Union3D(unwrap(a), unwrap(b))), nil
}

// Translate moves a solid by (x, y, z).
func (k *Kernel) Translate(s kernel.Shape, x, y, z float64) (kernel.Shape, error) {
	if s == nil {
		return nil, &kernel.GeometryError{Op: "translate", Err: errors.New("nil operand")}
	}
	m := sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
	return wrap(sdf.Transform3D(unwrap(s), m)), nil
}
