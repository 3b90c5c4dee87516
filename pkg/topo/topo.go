// Package topo repairs raw wall candidates into a clean planar graph.
// Interactive drawing and the AI importer both produce segments that
// nearly-but-not-exactly meet: endpoints hovering next to another wall's
// span, crossings, and coincident duplicate edges. Normalize merges
// near-duplicate vertices, splits walls at T-junctions and crossings,
// and deduplicates coincident pieces so that room detection sees a
// consistent graph.
package topo

import (
	"sort"

	"github.com/chazu/atrium/pkg/geom"
	"github.com/chazu/atrium/pkg/plan"
)

// Options controls the snap tolerances used during normalization. Two
// profiles exist: interactive edits are precise, AI-derived corners are
// noisy and need much wider radii.
type Options struct {
	// VertexSnap is the clustering radius for merging nearby seed
	// points into one master vertex.
	VertexSnap float64
	// FootprintSnap widens the attraction radius around footprint
	// corners. Zero disables footprint snapping.
	FootprintSnap float64
	// Footprint lists the building outline corners. When present they
	// are seeded as master vertices first, so noisy room corners
	// collapse onto the true outline.
	Footprint []geom.Point
	// SegmentTolerance is the maximum distance at which a master
	// vertex counts as lying on a wall's span (T-junction split).
	SegmentTolerance float64
	// DedupTolerance is the endpoint distance under which two
	// reconstructed pieces count as the same wall.
	DedupTolerance float64
}

// InteractiveOptions returns the tolerances for live drawing.
func InteractiveOptions() Options {
	return Options{
		VertexSnap:       0.05,
		SegmentTolerance: 0.05,
		DedupTolerance:   0.01,
	}
}

// ImportOptions returns the tolerances for ingesting AI-generated
// layouts, whose room corners routinely miss the footprint by tens of
// centimeters.
func ImportOptions() Options {
	return Options{
		VertexSnap:       0.30,
		FootprintSnap:    0.60,
		SegmentTolerance: 0.05,
		DedupTolerance:   0.01,
	}
}

// master is a representative vertex produced by seed clustering.
type master struct {
	pos       geom.Point
	footprint bool
}

// Normalize repairs the wall candidates into a planar graph: every
// crossing and T-junction becomes a shared vertex, near-duplicate
// vertices are merged, and coincident pieces are collapsed (physical
// beats virtual). Degenerate candidates are dropped. The input slice is
// never mutated; walls that survive unchanged keep their ids, split
// pieces get fresh ids.
//
// Normalize is idempotent: running it on its own output produces no
// further splits or merges.
func Normalize(walls []plan.Wall, opts Options) []plan.Wall {
	candidates := make([]plan.Wall, 0, len(walls))
	for _, w := range walls {
		if !w.Degenerate() {
			candidates = append(candidates, w)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	seeds := collectSeeds(candidates, opts)
	masters := cluster(seeds, opts)
	pieces := reconstruct(candidates, masters, opts)
	return dedupe(pieces, opts)
}

// collectSeeds gathers every point the graph must have a vertex at.
// Computed points (crossings, T-junction projections) come before raw
// endpoints so that cluster representatives land on wall spans; an
// endpoint hovering near another wall then snaps onto that wall rather
// than pulling the junction off it.
func collectSeeds(walls []plan.Wall, opts Options) []geom.Point {
	var computed []geom.Point
	for i := 0; i < len(walls); i++ {
		for j := i + 1; j < len(walls); j++ {
			a, b := walls[i], walls[j]
			if p, ok := geom.SegmentIntersection(a.Start, a.End, b.Start, b.End); ok {
				computed = append(computed, p)
			}
			computed = append(computed, tJunctionSeeds(a, b, opts)...)
			computed = append(computed, tJunctionSeeds(b, a, opts)...)
		}
	}

	seeds := computed
	for _, w := range walls {
		seeds = append(seeds, w.Start, w.End)
	}
	return seeds
}

// tJunctionSeeds projects the endpoints of w onto the span of other and
// keeps projections that land strictly inside it within snap range.
func tJunctionSeeds(w, other plan.Wall, opts Options) []geom.Point {
	var out []geom.Point
	for _, end := range []geom.Point{w.Start, w.End} {
		proj, t := geom.ProjectPointOnSegment(end, other.Start, other.End)
		if t <= 0 || t >= 1 {
			continue
		}
		if end.Distance(proj) <= opts.VertexSnap {
			out = append(out, proj)
		}
	}
	return out
}

// cluster greedily merges seeds into master vertices. Footprint corners
// are seeded first with the wider FootprintSnap radius; the first seed
// in each remaining cluster wins as the representative position. Order
// dependence is acceptable since clusters are small and radius-bounded.
func cluster(seeds []geom.Point, opts Options) []master {
	var masters []master
	for _, c := range opts.Footprint {
		masters = append(masters, master{pos: c, footprint: true})
	}

	for _, s := range seeds {
		found := false
		for _, m := range masters {
			radius := opts.VertexSnap
			if m.footprint && opts.FootprintSnap > radius {
				radius = opts.FootprintSnap
			}
			if s.Near(m.pos, radius) {
				found = true
				break
			}
		}
		if !found {
			masters = append(masters, master{pos: s})
		}
	}
	return masters
}

// reconstruct rebuilds each candidate wall as one piece per consecutive
// pair of master vertices along it. The wall's own endpoints always map
// to their cluster masters; interior masters split the wall where they
// lie on its span.
func reconstruct(walls []plan.Wall, masters []master, opts Options) []plan.Wall {
	var out []plan.Wall
	for _, w := range walls {
		type cut struct {
			t   float64
			pos geom.Point
		}
		var cuts []cut

		startM := nearestMaster(w.Start, masters, opts)
		endM := nearestMaster(w.End, masters, opts)
		cuts = append(cuts, cut{t: 0, pos: startM}, cut{t: 1, pos: endM})

		for _, m := range masters {
			proj, t := geom.ProjectPointOnSegment(m.pos, w.Start, w.End)
			if t <= 0 || t >= 1 {
				continue
			}
			if m.pos.Distance(proj) > opts.SegmentTolerance {
				continue
			}
			if m.pos.Near(startM, opts.DedupTolerance) || m.pos.Near(endM, opts.DedupTolerance) {
				continue
			}
			cuts = append(cuts, cut{t: t, pos: m.pos})
		}

		sort.Slice(cuts, func(i, j int) bool { return cuts[i].t < cuts[j].t })

		first := true
		for i := 1; i < len(cuts); i++ {
			a, b := cuts[i-1].pos, cuts[i].pos
			if a.Distance(b) < opts.DedupTolerance {
				continue
			}
			piece := w
			piece.Start = a
			piece.End = b
			if first {
				first = false
			} else {
				piece.ID = plan.NewID()
			}
			out = append(out, piece)
		}
	}
	return out
}

// nearestMaster returns the master vertex a point clusters to. Every
// seed was offered to the cluster pass, so a match always exists; the
// fallback returns the point itself for safety.
func nearestMaster(p geom.Point, masters []master, opts Options) geom.Point {
	best := p
	bestDist := -1.0
	for _, m := range masters {
		radius := opts.VertexSnap
		if m.footprint && opts.FootprintSnap > radius {
			radius = opts.FootprintSnap
		}
		d := p.Distance(m.pos)
		if d <= radius && (bestDist < 0 || d < bestDist) {
			best = m.pos
			bestDist = d
		}
	}
	return best
}

// dedupe collapses pieces whose endpoint pairs coincide in either
// order. A physical wall always survives its virtual duplicate, since
// physical walls carry rendering and collision weight.
func dedupe(pieces []plan.Wall, opts Options) []plan.Wall {
	var out []plan.Wall
	for _, p := range pieces {
		dup := -1
		for i, kept := range out {
			if sameSegment(p, kept, opts.DedupTolerance) {
				dup = i
				break
			}
		}
		if dup < 0 {
			out = append(out, p)
			continue
		}
		if out[dup].Virtual && !p.Virtual {
			out[dup] = p
		}
	}
	return out
}

func sameSegment(a, b plan.Wall, tol float64) bool {
	if a.Start.Near(b.Start, tol) && a.End.Near(b.End, tol) {
		return true
	}
	return a.Start.Near(b.End, tol) && a.End.Near(b.Start, tol)
}
