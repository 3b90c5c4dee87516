// Package kernel defines the abstract geometry kernel interface used
// to turn a 2D floor plan into 3D solids. Implementations provide
// solid modeling and boolean operations behind this interface, so the
// preview pipeline does not depend on a particular CAD backend.
package kernel

import "github.com/chazu/atrium/pkg/geom"

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives. Box is centered on the origin; wall and furniture
	// solids are positioned by translating their centers.
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64, segments int) Solid

	// Extrude sweeps a closed 2D polygon (plan coordinates, meters)
	// along +Z by height. The polygon must not self-intersect.
	Extrude(points []geom.Point, height float64) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid

	// Transforms. Plans only ever rotate about the vertical axis.
	Translate(s Solid, x, y, z float64) Solid
	RotateZ(s Solid, degrees float64) Solid

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
