// Package kernel defines the geometry-kernel collaborator consumed by the
// document core. The core hands a kernel the input parameter values of an
// object and receives back an opaque Shape, or a geometry error. Shape
// handles are compared by identity only; the core never inspects them.
// Implementations (sdfx, stub) live in subpackages behind this interface so
// backends can be swapped without touching the document model.
package kernel

import "fmt"

// Shape is an opaque handle to a solid produced by a kernel backend.
type Shape interface {
	// BoundingBox returns the axis-aligned bounding box of the solid.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the single capability the document core consumes: build solids
// from parameter values. Every method returns a geometry error when the
// parameters cannot produce a valid solid.
type Kernel interface {
	Box(length, width, height float64) (Shape, error)
	Cylinder(height, radius float64) (Shape, error)
	Union(a, b Shape) (Shape, error)
	Translate(s Shape, x, y, z float64) (Shape, error)
}

// GeometryError reports a failed shape computation. The document core
// surfaces it as the owning object's execute failure.
type GeometryError struct {
	Op  string // kernel operation, e.g. "box"
	Err error
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("geometry: %s: %v", e.Op, e.Err)
}

func (e *GeometryError) Unwrap() error { return e.Err }
