package preview_test

import (
	"testing"

	"github.com/chazu/atrium/pkg/geom"
	"github.com/chazu/atrium/pkg/kernel"
	"github.com/chazu/atrium/pkg/kernel/sdfx"
	"github.com/chazu/atrium/pkg/plan"
	"github.com/chazu/atrium/pkg/preview"
)

func newBuilder() *preview.Builder {
	return preview.NewBuilder(sdfx.New())
}

// centroid averages all mesh vertices.
func centroid(m *kernel.Mesh) (x, y, z float64) {
	n := m.VertexCount()
	for i := 0; i < n; i++ {
		x += float64(m.Vertices[i*3])
		y += float64(m.Vertices[i*3+1])
		z += float64(m.Vertices[i*3+2])
	}
	return x / float64(n), y / float64(n), z / float64(n)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func TestEmptyPlan(t *testing.T) {
	b := newBuilder()
	meshes, err := b.Build(plan.New(), nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(meshes) != 0 {
		t.Fatalf("expected 0 meshes, got %d", len(meshes))
	}
}

func TestNilPlan(t *testing.T) {
	b := newBuilder()
	meshes, err := b.Build(nil, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if meshes != nil {
		t.Fatalf("expected nil meshes, got %d", len(meshes))
	}
}

func TestSingleWall(t *testing.T) {
	b := newBuilder()
	p := plan.New()
	w, err := p.AddWall(plan.NewWall(geom.Pt(0, 0), geom.Pt(4, 0)))
	if err != nil {
		t.Fatalf("AddWall: %v", err)
	}

	meshes, err := b.Build(p, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}

	m := meshes[0]
	if m.IsEmpty() {
		t.Fatal("mesh should not be empty")
	}
	if m.PartName != w.ID {
		t.Errorf("PartName = %q, want wall id %q", m.PartName, w.ID)
	}

	// A wall from (0,0) to (4,0) at default height 2.5 should be
	// centered near (2, 0, 1.25). Marching cubes is approximate.
	cx, cy, cz := centroid(m)
	const tol = 0.3
	if abs(cx-2) > tol {
		t.Errorf("centroid X = %.2f, expected near 2", cx)
	}
	if abs(cy) > tol {
		t.Errorf("centroid Y = %.2f, expected near 0", cy)
	}
	if abs(cz-1.25) > tol {
		t.Errorf("centroid Z = %.2f, expected near 1.25", cz)
	}
}

func TestVirtualWallProducesNoMesh(t *testing.T) {
	b := newBuilder()
	p := plan.New()
	w := plan.NewWall(geom.Pt(0, 0), geom.Pt(4, 0))
	w.Virtual = true
	if _, err := p.AddWall(w); err != nil {
		t.Fatalf("AddWall: %v", err)
	}

	meshes, err := b.Build(p, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(meshes) != 0 {
		t.Fatalf("expected 0 meshes for a virtual wall, got %d", len(meshes))
	}
}

func TestWallWithDoorOpening(t *testing.T) {
	b := newBuilder()

	solidPlan := plan.New()
	if _, err := solidPlan.AddWall(plan.NewWall(geom.Pt(0, 0), geom.Pt(4, 0))); err != nil {
		t.Fatalf("AddWall: %v", err)
	}
	solidMeshes, err := b.Build(solidPlan, nil)
	if err != nil {
		t.Fatalf("Build(solid) failed: %v", err)
	}

	cutPlan := plan.New()
	w, err := cutPlan.AddWall(plan.NewWall(geom.Pt(0, 0), geom.Pt(4, 0)))
	if err != nil {
		t.Fatalf("AddWall: %v", err)
	}
	if _, err := cutPlan.AddObject(plan.WallObject{
		WallID:   w.ID,
		Kind:     plan.ObjectDoor,
		Position: 0.5,
		Width:    0.9,
		Height:   2.0,
	}); err != nil {
		t.Fatalf("AddObject: %v", err)
	}
	cutMeshes, err := b.Build(cutPlan, nil)
	if err != nil {
		t.Fatalf("Build(cut) failed: %v", err)
	}

	// A wall with a doorway cut through it has more surface detail
	// than a plain prism.
	if cutMeshes[0].TriangleCount() <= solidMeshes[0].TriangleCount() {
		t.Errorf("wall with door (%d triangles) should exceed plain wall (%d triangles)",
			cutMeshes[0].TriangleCount(), solidMeshes[0].TriangleCount())
	}
}

func TestFloorSlab(t *testing.T) {
	b := newBuilder()
	room := plan.Room{
		ID: "abc123",
		Path: []geom.Point{
			geom.Pt(0, 0), geom.Pt(3, 0), geom.Pt(3, 3), geom.Pt(0, 3),
		},
		Area:     9,
		Centroid: geom.Pt(1.5, 1.5),
	}

	meshes, err := b.Build(plan.New(), []plan.Room{room})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}

	m := meshes[0]
	if m.PartName != "floor-abc123" {
		t.Errorf("PartName = %q, want floor-abc123", m.PartName)
	}
	if m.IsEmpty() {
		t.Fatal("floor mesh should not be empty")
	}

	cx, cy, _ := centroid(m)
	const tol = 0.3
	if abs(cx-1.5) > tol || abs(cy-1.5) > tol {
		t.Errorf("centroid = (%.2f, %.2f), expected near (1.5, 1.5)", cx, cy)
	}
}

func TestDegenerateRoomBoundary(t *testing.T) {
	b := newBuilder()
	room := plan.Room{ID: "bad", Path: []geom.Point{geom.Pt(0, 0), geom.Pt(1, 1)}}
	if _, err := b.Build(plan.New(), []plan.Room{room}); err == nil {
		t.Fatal("expected error for a two-point room boundary")
	}
}

func TestFurnitureBox(t *testing.T) {
	b := newBuilder()
	p := plan.New()
	f := p.AddFurniture(plan.Furniture{
		TemplateID: "bed-double",
		Position:   geom.Pt(2, 3),
		Width:      1.8,
		Depth:      2.1,
		Rotation:   90,
	})

	meshes, err := b.Build(p, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}

	m := meshes[0]
	if m.PartName != f.ID {
		t.Errorf("PartName = %q, want furniture id %q", m.PartName, f.ID)
	}

	cx, cy, cz := centroid(m)
	const tol = 0.3
	if abs(cx-2) > tol || abs(cy-3) > tol {
		t.Errorf("centroid = (%.2f, %.2f), expected near (2, 3)", cx, cy)
	}
	if cz <= 0 {
		t.Errorf("centroid Z = %.2f, expected above the floor", cz)
	}

	// Rotation 90 turns the 1.8 width onto the Y axis.
	lo, hi := boundsXY(m)
	if abs((hi.X-lo.X)-2.1) > tol {
		t.Errorf("X extent = %.2f, expected ~2.1 after rotation", hi.X-lo.X)
	}
	if abs((hi.Y-lo.Y)-1.8) > tol {
		t.Errorf("Y extent = %.2f, expected ~1.8 after rotation", hi.Y-lo.Y)
	}
}

func boundsXY(m *kernel.Mesh) (lo, hi geom.Point) {
	n := m.VertexCount()
	if n == 0 {
		return
	}
	lo = geom.Pt(float64(m.Vertices[0]), float64(m.Vertices[1]))
	hi = lo
	for i := 1; i < n; i++ {
		x := float64(m.Vertices[i*3])
		y := float64(m.Vertices[i*3+1])
		if x < lo.X {
			lo.X = x
		}
		if y < lo.Y {
			lo.Y = y
		}
		if x > hi.X {
			hi.X = x
		}
		if y > hi.Y {
			hi.Y = y
		}
	}
	return lo, hi
}
