// Package snap resolves raw pointer positions to meaningful anchors
// while drawing: existing vertices first, then wall spans, then the
// grid, with per-axis alignment overrides against existing corners.
// Resolve is pure and runs once per pointer event.
package snap

import (
	"math"

	"github.com/chazu/atrium/pkg/geom"
	"github.com/chazu/atrium/pkg/plan"
)

// Options controls snapping behavior.
type Options struct {
	// Threshold is the capture distance for vertex, wall-body, and
	// axis-alignment snapping, meters.
	Threshold float64
	// Grid is the grid cell size, meters.
	Grid float64
}

// DefaultOptions returns the interactive drawing defaults.
func DefaultOptions() Options {
	return Options{Threshold: 0.05, Grid: 0.05}
}

// Rule names which snapping rule produced the result.
type Rule int

const (
	RuleGrid Rule = iota
	RuleVertex
	RuleWall
)

func (r Rule) String() string {
	switch r {
	case RuleVertex:
		return "vertex"
	case RuleWall:
		return "wall"
	default:
		return "grid"
	}
}

// Result is a resolved pointer position. When the grid rule fired, the
// per-axis alignment fields report whether an existing corner overrode
// the grid on that axis and which corner it was, so the canvas can draw
// a guide line to it.
type Result struct {
	Point geom.Point `json:"point"`
	Rule  Rule       `json:"rule"`

	AlignedX bool       `json:"alignedX"`
	AlignedY bool       `json:"alignedY"`
	SourceX  geom.Point `json:"sourceX"`
	SourceY  geom.Point `json:"sourceY"`

	// WallID is set when the wall-body rule fired; a new wall started
	// here forms a T-junction with that wall.
	WallID string `json:"wallId,omitempty"`
}

// Resolve snaps a raw pointer position against the wall set. Priority:
// the nearest wall vertex within threshold wins outright; failing that,
// the nearest wall-span projection within threshold; failing both, the
// grid, with each axis independently overridden by the closest aligned
// existing corner.
func Resolve(p geom.Point, walls []plan.Wall, opts Options) Result {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultOptions().Threshold
	}
	if opts.Grid <= 0 {
		opts.Grid = DefaultOptions().Grid
	}

	if v, ok := nearestVertex(p, walls, opts.Threshold); ok {
		return Result{Point: v, Rule: RuleVertex}
	}
	if proj, id, ok := nearestWallBody(p, walls, opts.Threshold); ok {
		return Result{Point: proj, Rule: RuleWall, WallID: id}
	}

	res := Result{
		Point: geom.Pt(snapToGrid(p.X, opts.Grid), snapToGrid(p.Y, opts.Grid)),
		Rule:  RuleGrid,
	}

	// Axis alignment: the closest existing corner on each axis beats
	// the grid, producing rubber-band alignment with that corner.
	bestDX, bestDY := opts.Threshold, opts.Threshold
	for _, w := range walls {
		for _, v := range []geom.Point{w.Start, w.End} {
			if d := math.Abs(p.X - v.X); d < bestDX {
				bestDX = d
				res.Point.X = v.X
				res.AlignedX = true
				res.SourceX = v
			}
			if d := math.Abs(p.Y - v.Y); d < bestDY {
				bestDY = d
				res.Point.Y = v.Y
				res.AlignedY = true
				res.SourceY = v
			}
		}
	}
	return res
}

func nearestVertex(p geom.Point, walls []plan.Wall, threshold float64) (geom.Point, bool) {
	var best geom.Point
	bestDist := threshold
	found := false
	for _, w := range walls {
		for _, v := range []geom.Point{w.Start, w.End} {
			if d := p.Distance(v); d <= bestDist {
				best, bestDist, found = v, d, true
			}
		}
	}
	return best, found
}

func nearestWallBody(p geom.Point, walls []plan.Wall, threshold float64) (geom.Point, string, bool) {
	var best geom.Point
	var id string
	bestDist := threshold
	found := false
	for _, w := range walls {
		if w.Degenerate() {
			continue
		}
		proj, _ := geom.ProjectPointOnSegment(p, w.Start, w.End)
		if d := p.Distance(proj); d <= bestDist {
			best, id, bestDist, found = proj, w.ID, d, true
		}
	}
	return best, id, found
}

func snapToGrid(v, grid float64) float64 {
	return math.Round(v/grid) * grid
}
