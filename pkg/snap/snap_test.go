package snap

import (
	"testing"

	"github.com/chazu/atrium/pkg/geom"
	"github.com/chazu/atrium/pkg/plan"
)

func wall(x1, y1, x2, y2 float64) plan.Wall {
	return plan.NewWall(geom.Pt(x1, y1), geom.Pt(x2, y2))
}

func TestVertexSnapBeatsGrid(t *testing.T) {
	// 3 cm from an existing vertex: snaps to that exact vertex even
	// though a grid point is also in range.
	walls := []plan.Wall{wall(1.02, 2.04, 5, 2.04)}
	got := Resolve(geom.Pt(1.0, 2.02), walls, DefaultOptions())
	if got.Rule != RuleVertex {
		t.Fatalf("rule = %v, want vertex", got.Rule)
	}
	if !got.Point.Near(geom.Pt(1.02, 2.04), 1e-9) {
		t.Errorf("point = %v, want the exact vertex (1.02, 2.04)", got.Point)
	}
}

func TestVertexSnapPicksClosest(t *testing.T) {
	walls := []plan.Wall{
		wall(0, 0, 1, 0),
		wall(0.04, 0.01, 0.04, 1),
	}
	got := Resolve(geom.Pt(0.03, 0.01), walls, DefaultOptions())
	if got.Rule != RuleVertex {
		t.Fatalf("rule = %v, want vertex", got.Rule)
	}
	if !got.Point.Near(geom.Pt(0.04, 0.01), 1e-9) {
		t.Errorf("point = %v, want the nearer vertex", got.Point)
	}
}

func TestWallBodySnap(t *testing.T) {
	w := wall(0, 0, 6, 0)
	got := Resolve(geom.Pt(2.5, 0.03), []plan.Wall{w}, DefaultOptions())
	if got.Rule != RuleWall {
		t.Fatalf("rule = %v, want wall", got.Rule)
	}
	if !got.Point.Near(geom.Pt(2.5, 0), 1e-9) {
		t.Errorf("point = %v, want projection (2.5, 0)", got.Point)
	}
	if got.WallID != w.ID {
		t.Errorf("wallId = %q, want %q", got.WallID, w.ID)
	}
}

func TestGridSnap(t *testing.T) {
	got := Resolve(geom.Pt(1.234, 5.678), nil, DefaultOptions())
	if got.Rule != RuleGrid {
		t.Fatalf("rule = %v, want grid", got.Rule)
	}
	if !got.Point.Near(geom.Pt(1.25, 5.70), 1e-9) {
		t.Errorf("point = %v, want (1.25, 5.70)", got.Point)
	}
}

func TestAxisAlignmentOverride(t *testing.T) {
	// Far from any wall, but p.X is within threshold of an existing
	// corner's X: the grid X is overridden with the corner's exact X
	// while Y stays grid-snapped.
	walls := []plan.Wall{wall(3.013, 0, 5, 0)}
	got := Resolve(geom.Pt(2.99, 4.03), walls, DefaultOptions())
	if got.Rule != RuleGrid {
		t.Fatalf("rule = %v, want grid", got.Rule)
	}
	if !got.AlignedX {
		t.Fatal("expected X alignment")
	}
	if got.Point.X != 3.013 {
		t.Errorf("x = %v, want 3.013", got.Point.X)
	}
	if got.Point.Y != 4.05 {
		t.Errorf("y = %v, want grid-snapped 4.05", got.Point.Y)
	}
	if !got.SourceX.Near(geom.Pt(3.013, 0), 1e-9) {
		t.Errorf("sourceX = %v, want the aligned corner", got.SourceX)
	}
	if got.AlignedY {
		t.Error("unexpected Y alignment")
	}
}

func TestAxisAlignmentPicksClosestPerAxis(t *testing.T) {
	walls := []plan.Wall{
		wall(3.04, 0, 3.04, 1),
		wall(3.01, 5, 4, 5),
	}
	got := Resolve(geom.Pt(3.0, 8), walls, DefaultOptions())
	if !got.AlignedX {
		t.Fatal("expected X alignment")
	}
	if got.Point.X != 3.01 {
		t.Errorf("x = %v, want the closest aligned corner 3.01", got.Point.X)
	}
}

func TestZeroOptionsFallBackToDefaults(t *testing.T) {
	got := Resolve(geom.Pt(0.026, 0.026), nil, Options{})
	if !got.Point.Near(geom.Pt(0.05, 0.05), 1e-9) {
		t.Errorf("point = %v, want (0.05, 0.05)", got.Point)
	}
}
