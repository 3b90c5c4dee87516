// Package preview turns a 2D floor plan into triangle meshes using a
// geometry kernel. One mesh is produced per plan element: a prism per
// physical wall with its openings subtracted, a thin slab per detected
// room, and a box per furniture item.
package preview

import (
	"fmt"
	"math"

	"github.com/chazu/atrium/pkg/geom"
	"github.com/chazu/atrium/pkg/kernel"
	"github.com/chazu/atrium/pkg/plan"
)

const (
	// floorThickness is the slab height rendered under each room.
	floorThickness = 0.05

	// openingMargin widens the subtraction box across the wall so the
	// boolean cut punches cleanly through both faces.
	openingMargin = 0.1

	// defaultFurnitureHeight applies when the catalog has no height
	// for a template.
	defaultFurnitureHeight = 0.7
)

// Builder produces preview meshes from a plan.
type Builder struct {
	Kernel  kernel.Kernel
	Catalog *plan.Catalog
}

// NewBuilder returns a Builder using the given kernel and the default
// furniture catalog.
func NewBuilder(k kernel.Kernel) *Builder {
	return &Builder{Kernel: k, Catalog: plan.DefaultCatalog()}
}

// Build walks the plan and produces one mesh per element. Virtual
// walls have no physical presence and produce no mesh. The rooms are
// supplied by the caller so detection runs once per edit, not once per
// frame.
func (b *Builder) Build(p *plan.Plan, rooms []plan.Room) ([]*kernel.Mesh, error) {
	if p == nil {
		return nil, nil
	}

	var meshes []*kernel.Mesh

	for _, w := range p.Walls {
		if w.Virtual || w.Degenerate() {
			continue
		}
		m, err := b.wallMesh(p, w)
		if err != nil {
			return nil, fmt.Errorf("preview: wall %s: %w", w.ID, err)
		}
		meshes = append(meshes, m)
	}

	for _, r := range rooms {
		m, err := b.floorMesh(r)
		if err != nil {
			return nil, fmt.Errorf("preview: room %s: %w", r.ID, err)
		}
		meshes = append(meshes, m)
	}

	for _, f := range p.Furniture {
		m, err := b.furnitureMesh(f)
		if err != nil {
			return nil, fmt.Errorf("preview: furniture %s: %w", f.ID, err)
		}
		meshes = append(meshes, m)
	}

	return meshes, nil
}

// wallMesh builds a wall prism with door and window boxes subtracted.
// The solid is assembled in wall-local coordinates (length along X,
// centered on the origin), then rotated and translated into place.
func (b *Builder) wallMesh(p *plan.Plan, w plan.Wall) (*kernel.Mesh, error) {
	k := b.Kernel
	length := w.Length()

	solid := k.Box(length, w.Thickness, w.Height)

	for _, o := range p.ObjectsOn(w.ID) {
		c := o.Clamped(w)
		if c.Width <= 0 || c.Height <= 0 {
			continue
		}
		cut := k.Box(c.Width, w.Thickness+openingMargin, c.Height)
		// Local X of the opening center; the wall runs from -length/2
		// to +length/2. The floor sits at -Height/2.
		localX := (c.Position - 0.5) * length
		localZ := c.Offset + c.Height/2 - w.Height/2
		cut = k.Translate(cut, localX, 0, localZ)
		solid = k.Difference(solid, cut)
	}

	angle := geom.AngleOf(w.Direction()) * 180 / math.Pi
	solid = k.RotateZ(solid, angle)

	mid := w.Midpoint()
	solid = k.Translate(solid, mid.X, mid.Y, w.Height/2)

	mesh, err := k.ToMesh(solid)
	if err != nil {
		return nil, err
	}
	mesh.PartName = w.ID
	return mesh, nil
}

// floorMesh extrudes the room boundary into a thin slab.
func (b *Builder) floorMesh(r plan.Room) (*kernel.Mesh, error) {
	if len(r.Path) < 3 {
		return nil, fmt.Errorf("room boundary has %d points", len(r.Path))
	}
	solid := b.Kernel.Extrude(r.Path, floorThickness)
	mesh, err := b.Kernel.ToMesh(solid)
	if err != nil {
		return nil, err
	}
	mesh.PartName = "floor-" + r.ID
	return mesh, nil
}

// furnitureMesh builds a box for a furniture item, rotated about the
// vertical axis and placed at the item's center.
func (b *Builder) furnitureMesh(f plan.Furniture) (*kernel.Mesh, error) {
	k := b.Kernel

	height := defaultFurnitureHeight
	if b.Catalog != nil {
		if tpl, ok := b.Catalog.Get(f.TemplateID); ok && tpl.Height > 0 {
			height = tpl.Height
		}
	}

	solid := k.Box(f.Width, f.Depth, height)
	if f.Rotation != 0 {
		solid = k.RotateZ(solid, f.Rotation)
	}
	solid = k.Translate(solid, f.Position.X, f.Position.Y, height/2)

	mesh, err := k.ToMesh(solid)
	if err != nil {
		return nil, err
	}
	mesh.PartName = f.ID
	return mesh, nil
}
