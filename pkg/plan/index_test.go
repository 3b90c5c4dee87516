package plan

import (
	"math"
	"testing"

	"github.com/chazu/atrium/pkg/geom"
)

func testWalls() []Wall {
	return []Wall{
		{ID: "south", Start: geom.Pt(0, 0), End: geom.Pt(10, 0), Thickness: 0.2, Height: 2.5},
		{ID: "east", Start: geom.Pt(10, 0), End: geom.Pt(10, 6), Thickness: 0.2, Height: 2.5},
		{ID: "divider", Start: geom.Pt(5, 0), End: geom.Pt(5, 6), Thickness: 0.1, Height: 2.5, Virtual: true},
	}
}

func TestWallIndexNearest(t *testing.T) {
	ix := NewWallIndex(testWalls())
	if ix.Len() != 3 {
		t.Fatalf("Len = %d, want 3", ix.Len())
	}

	w, d, ok := ix.Nearest(geom.Pt(3, 1), 5, false)
	if !ok || w.ID != "south" {
		t.Fatalf("Nearest = %q ok=%v, want south", w.ID, ok)
	}
	if math.Abs(d-1) > 1e-9 {
		t.Errorf("distance = %v, want 1", d)
	}
}

func TestWallIndexPhysicalOnly(t *testing.T) {
	ix := NewWallIndex(testWalls())

	// Right next to the virtual divider: with physicalOnly the pick must
	// fall through to the south wall instead.
	w, _, ok := ix.Nearest(geom.Pt(5.2, 2), 10, false)
	if !ok || w.ID != "divider" {
		t.Fatalf("unfiltered nearest = %q, want divider", w.ID)
	}
	w, _, ok = ix.Nearest(geom.Pt(5.2, 2), 10, true)
	if !ok || w.ID != "south" {
		t.Fatalf("physical nearest = %q ok=%v, want south", w.ID, ok)
	}
}

func TestWallIndexMaxDist(t *testing.T) {
	ix := NewWallIndex(testWalls())
	if _, _, ok := ix.Nearest(geom.Pt(3, 50), 5, false); ok {
		t.Errorf("found a wall far outside maxDist")
	}
}

func TestWallIndexNear(t *testing.T) {
	ix := NewWallIndex(testWalls())

	got := ix.Near(geom.Pt(5, 0.5), 1.0, false)
	ids := map[string]bool{}
	for _, w := range got {
		ids[w.ID] = true
	}
	if !ids["south"] || !ids["divider"] || len(got) != 2 {
		t.Errorf("Near = %v, want south+divider", ids)
	}
}

func TestWallIndexSkipsDegenerate(t *testing.T) {
	ix := NewWallIndex([]Wall{
		{ID: "point", Start: geom.Pt(1, 1), End: geom.Pt(1, 1)},
	})
	if ix.Len() != 0 {
		t.Errorf("degenerate wall indexed")
	}
	if _, _, ok := ix.Nearest(geom.Pt(1, 1), 1, false); ok {
		t.Errorf("degenerate wall returned from query")
	}
}
