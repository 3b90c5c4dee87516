package plan

import (
	"math"

	"github.com/dhconnelly/rtreego"

	"github.com/chazu/atrium/pkg/geom"
)

// ---------------------------------------------------------------------------
// Spatial wall index
// ---------------------------------------------------------------------------

// wallEntry adapts a Wall to the rtreego.Spatial interface. The bounding
// box is the segment's AABB padded by half the thickness so thin
// axis-aligned walls still have a non-degenerate rect.
type wallEntry struct {
	wall Wall
}

func (e *wallEntry) Bounds() rtreego.Rect {
	pad := e.wall.Thickness / 2
	if pad < 0.01 {
		pad = 0.01
	}
	minX := math.Min(e.wall.Start.X, e.wall.End.X) - pad
	minY := math.Min(e.wall.Start.Y, e.wall.End.Y) - pad
	maxX := math.Max(e.wall.Start.X, e.wall.End.X) + pad
	maxY := math.Max(e.wall.Start.Y, e.wall.End.Y) + pad
	rect, _ := rtreego.NewRect(
		rtreego.Point{minX, minY},
		[]float64{maxX - minX, maxY - minY},
	)
	return rect
}

// WallIndex is an R-tree over wall segments for nearest-wall and
// walls-near-point queries. Build one per wall-set revision; the index
// itself is immutable after construction.
type WallIndex struct {
	tree  *rtreego.Rtree
	count int
}

// NewWallIndex indexes the given walls, skipping degenerate ones.
func NewWallIndex(walls []Wall) *WallIndex {
	ix := &WallIndex{tree: rtreego.NewTree(2, 25, 50)}
	for _, w := range walls {
		if w.Degenerate() {
			continue
		}
		ix.tree.Insert(&wallEntry{wall: w})
		ix.count++
	}
	return ix
}

// Len returns the number of indexed walls.
func (ix *WallIndex) Len() int {
	return ix.count
}

// Near returns every wall whose centerline lies within maxDist of p.
func (ix *WallIndex) Near(p geom.Point, maxDist float64, physicalOnly bool) []Wall {
	var out []Wall
	for _, sp := range ix.search(p, maxDist) {
		w := sp.(*wallEntry).wall
		if physicalOnly && w.Virtual {
			continue
		}
		if geom.PointSegmentDistance(p, w.Start, w.End) <= maxDist {
			out = append(out, w)
		}
	}
	return out
}

// Nearest returns the closest wall within maxDist of p by centerline
// distance. With physicalOnly set, virtual walls are ignored.
func (ix *WallIndex) Nearest(p geom.Point, maxDist float64, physicalOnly bool) (Wall, float64, bool) {
	var (
		best     Wall
		bestDist = math.MaxFloat64
		found    bool
	)
	for _, sp := range ix.search(p, maxDist) {
		w := sp.(*wallEntry).wall
		if physicalOnly && w.Virtual {
			continue
		}
		d := geom.PointSegmentDistance(p, w.Start, w.End)
		if d <= maxDist && d < bestDist {
			best, bestDist, found = w, d, true
		}
	}
	return best, bestDist, found
}

func (ix *WallIndex) search(p geom.Point, maxDist float64) []rtreego.Spatial {
	if ix.count == 0 {
		return nil
	}
	side := 2 * maxDist
	if side <= 0 {
		return nil
	}
	rect, err := rtreego.NewRect(
		rtreego.Point{p.X - maxDist, p.Y - maxDist},
		[]float64{side, side},
	)
	if err != nil {
		return nil
	}
	return ix.tree.SearchIntersect(rect)
}
