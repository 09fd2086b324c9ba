// Package stub provides a deterministic in-memory kernel.Kernel for tests
// and for running the document core without a geometry backend. Shapes only
// carry a bounding box; booleans and transforms operate on the boxes.
package stub

import (
	"errors"

	"github.com/vk/paramdoc/internal/kernel"
)

var _ kernel.Kernel = (*Kernel)(nil)

// shape is a bounding box standing in for a real solid.
type shape struct {
	min, max [3]float64
}

func (s *shape) BoundingBox() (min, max [3]float64) {
	return s.min, s.max
}

// Kernel is the stub backend.
type Kernel struct {
	// FailNext, when set, makes the next kernel call fail with the given
	// error. Tests use it to drive the execute-failure paths.
	FailNext error
}

// New returns a new stub kernel.
func New() *Kernel {
	return &Kernel{}
}

func (k *Kernel) takeFailure(op string) error {
	if k.FailNext == nil {
		return nil
	}
	err := k.FailNext
	k.FailNext = nil
	return &kernel.GeometryError{Op: op, Err: err}
}

// Box builds a box with its minimum corner at the origin.
func (k *Kernel) Box(length, width, height float64) (kernel.Shape, error) {
	if err := k.takeFailure("box"); err != nil {
		return nil, err
	}
	if length <= 0 || width <= 0 || height <= 0 {
		return nil, &kernel.GeometryError{Op: "box", Err: errors.New("dimensions must be positive")}
	}
	return &shape{max: [3]float64{length, width, height}}, nil
}

// Cylinder builds a cylinder along the Z axis, centered on it.
func (k *Kernel) Cylinder(height, radius float64) (kernel.Shape, error) {
	if err := k.takeFailure("cylinder"); err != nil {
		return nil, err
	}
	if height <= 0 || radius <= 0 {
		return nil, &kernel.GeometryError{Op: "cylinder", Err: errors.New("dimensions must be positive")}
	}
	return &shape{
		min: [3]float64{-radius, -radius, -height / 2},
		max: [3]float64{radius, radius, height / 2},
	}, nil
}

// Union merges the bounding boxes of two shapes.
func (k *Kernel) Union(a, b kernel.Shape) (kernel.Shape, error) {
	if err := k.takeFailure("union"); err != nil {
		return nil, err
	}
	if a == nil || b == nil {
		return nil, &kernel.GeometryError{Op: "union", Err: errors.New("nil operand")}
	}
	amin, amax := a.BoundingBox()
	bmin, bmax := b.BoundingBox()
	var out shape
	for i := 0; i < 3; i++ {
		out.min[i] = min(amin[i], bmin[i])
		out.max[i] = max(amax[i], bmax[i])
	}
	return &out, nil
}

// Translate shifts a shape's bounding box.
func (k *Kernel) Translate(s kernel.Shape, x, y, z float64) (kernel.Shape, error) {
	if err := k.takeFailure("translate"); err != nil {
		return nil, err
	}
	if s == nil {
		return nil, &kernel.GeometryError{Op: "translate", Err: errors.New("nil operand")}
	}
	smin, smax := s.BoundingBox()
	d := [3]float64{x, y, z}
	var out shape
	for i := 0; i < 3; i++ {
		out.min[i] = smin[i] + d[i]
		out.max[i] = smax[i] + d[i]
	}
	return &out, nil
}
