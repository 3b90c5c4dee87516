package importer

import (
	"math"

	"github.com/chazu/atrium/pkg/geom"
	"github.com/chazu/atrium/pkg/plan"
)

// Cabinet module dimensions, meters.
const (
	baseDepth   = 0.6
	upperDepth  = 0.35
	cornerSize  = 0.9
	beltJoinTol = 0.4 // endpoint distance at which belts chain into L/U shapes
	beltWallTol = 1.0 // belt-to-wall distance at which a run snaps flush
)

// moduleWidths is the greedy fitting order for cabinet modules.
var moduleWidths = []float64{0.6, 0.45, 0.3}

var moduleTemplates = map[float64]string{
	0.6:  "kitchen-base-60",
	0.45: "kitchen-base-45",
	0.3:  "kitchen-base-30",
}

var upperTemplates = map[float64]string{
	0.6:  "kitchen-upper-60",
	0.45: "kitchen-upper-45",
	0.3:  "kitchen-upper-30",
}

// applianceTemplates are the placed items a cabinet module must not
// overlap. The fridge is full-height, so it blocks uppers too.
var applianceTemplates = map[string]bool{
	"kitchen-sink":    true,
	"stove":           true,
	"fridge":          true,
	"washing-machine": true,
}

// run is one straight counter stretch after chaining, in world meters.
type run struct {
	start, end geom.Point
	wall       plan.Wall // zero ID when free-standing
	onWall     bool
	// corner reservations at each end, consumed by a corner module
	startCorner bool
	endCorner   bool
}

// span is an occupied interval along a run's axis.
type span struct {
	lo, hi float64
}

func (s span) overlaps(lo, hi float64) bool {
	return lo < s.hi && hi > s.lo
}

// layoutCabinets converts kitchen counter belts into discrete cabinet
// furniture: runs are chained into connected L/U shapes, snapped flush
// against the nearest wall (or kept as islands), then subdivided into
// modules by a greedy size fit, skipping stretches occupied by placed
// appliances and, for upper cabinets, windows.
func (im *Importer) layoutCabinets(l *Layout, scale float64, index *plan.WallIndex, res *Result) {
	if len(l.Belts) == 0 {
		return
	}

	segs := make([]run, 0, len(l.Belts))
	for _, b := range l.Belts {
		r := run{
			start: b.Start.point().Scale(scale),
			end:   b.End.point().Scale(scale),
		}
		if r.start.Distance(r.end) < 0.2 {
			continue
		}
		segs = append(segs, r)
	}

	markJoints(segs)
	for i := range segs {
		im.snapRunToWall(&segs[i], index)
	}
	im.placeCornerModules(segs, res)
	for i := range segs {
		im.fillRun(segs[i], res)
	}
}

// markJoints flags run ends that meet another run's end within
// tolerance; a corner module goes there and both runs give up the
// corner stretch.
func markJoints(segs []run) {
	for i := range segs {
		for j := i + 1; j < len(segs); j++ {
			ends := []struct {
				pi, pj geom.Point
				si, sj *bool
			}{
				{segs[i].start, segs[j].start, &segs[i].startCorner, &segs[j].startCorner},
				{segs[i].start, segs[j].end, &segs[i].startCorner, &segs[j].endCorner},
				{segs[i].end, segs[j].start, &segs[i].endCorner, &segs[j].startCorner},
				{segs[i].end, segs[j].end, &segs[i].endCorner, &segs[j].endCorner},
			}
			for _, e := range ends {
				if e.pi.Near(e.pj, beltJoinTol) {
					*e.si = true
					*e.sj = true
				}
			}
		}
	}
}

// snapRunToWall aligns a counter run flush against the nearest
// physical wall: endpoints project onto the wall line and the run
// shifts out by half the counter depth plus half the wall thickness.
// Runs with no wall in range stay where they are, as islands.
func (im *Importer) snapRunToWall(r *run, index *plan.WallIndex) {
	mid := r.start.Lerp(r.end, 0.5)
	w, _, ok := index.Nearest(mid, beltWallTol, true)
	if !ok {
		return
	}

	projStart, _ := geom.ProjectPointOnSegment(r.start, w.Start, w.End)
	projEnd, _ := geom.ProjectPointOnSegment(r.end, w.Start, w.End)
	if projStart.Distance(projEnd) < 0.2 {
		// The run is perpendicular-ish to this wall; leave it alone.
		return
	}

	normal := w.Normal()
	projMid, _ := geom.ProjectPointOnSegment(mid, w.Start, w.End)
	if mid.Sub(projMid).Dot(normal) < 0 {
		normal = normal.Scale(-1)
	}
	offset := normal.Scale(baseDepth/2 + w.Thickness/2)

	r.start = projStart.Add(offset)
	r.end = projEnd.Add(offset)
	r.wall = w
	r.onWall = true
}

// placeCornerModules drops one corner cabinet per joint. The module
// centers on the joint point; each adjoining run later skips the
// corner stretch.
func (im *Importer) placeCornerModules(segs []run, res *Result) {
	placed := make([]geom.Point, 0, 2)
	add := func(p geom.Point, rotation float64) {
		for _, q := range placed {
			if p.Near(q, beltJoinTol) {
				return
			}
		}
		placed = append(placed, p)
		tpl, _ := im.catalog.Get("kitchen-corner")
		res.Plan.AddFurniture(plan.Furniture{
			TemplateID: tpl.ID,
			Position:   p,
			Width:      tpl.Width,
			Depth:      tpl.Depth,
			Rotation:   rotation,
		})
	}
	for _, r := range segs {
		rot := runRotation(r)
		if r.startCorner {
			add(r.start, rot)
		}
		if r.endCorner {
			add(r.end, rot)
		}
	}
}

// fillRun subdivides one counter run into base modules (and upper
// modules when wall-mounted) with a greedy width fit. Appliance spans
// stay empty; window spans additionally block uppers.
func (im *Importer) fillRun(r run, res *Result) {
	length := r.start.Distance(r.end)
	dir := r.end.Sub(r.start).Normalize()
	rotation := runRotation(r)

	lo := 0.0
	hi := length
	if r.startCorner {
		lo += cornerSize
	}
	if r.endCorner {
		hi -= cornerSize
	}
	if hi-lo < moduleWidths[len(moduleWidths)-1] {
		return
	}

	blocked := im.applianceSpans(r, dir, res.Plan)
	var windowSpans []span
	if r.onWall {
		windowSpans = im.windowSpans(r, dir, res.Plan)
	}

	place := func(tplID string, at, width float64, depth, lateral float64) {
		tpl, ok := im.catalog.Get(tplID)
		if !ok {
			return
		}
		center := r.start.Add(dir.Scale(at + width/2))
		if lateral != 0 {
			// Uppers hang closer to the wall than the base line.
			n := geom.Pt(-dir.Y, dir.X)
			if r.onWall {
				wallSide := r.wall.Midpoint().Sub(r.start)
				if wallSide.Dot(n) < 0 {
					n = n.Scale(-1)
				}
			}
			center = center.Add(n.Scale(lateral))
		}
		res.Plan.AddFurniture(plan.Furniture{
			TemplateID: tpl.ID,
			Position:   center,
			Width:      width,
			Depth:      depth,
			Rotation:   rotation,
		})
	}

	fill := func(templates map[float64]string, extra []span, depth, lateral float64) {
		pos := lo
		for pos < hi-1e-9 {
			if sp, hit := firstHit(blocked, extra, pos); hit {
				pos = sp
				continue
			}
			placedOne := false
			for _, w := range moduleWidths {
				if pos+w > hi+1e-9 {
					continue
				}
				if _, hit := firstHitIn(blocked, extra, pos, pos+w); hit {
					continue
				}
				place(templates[w], pos, w, depth, lateral)
				pos += w
				placedOne = true
				break
			}
			if !placedOne {
				pos += moduleWidths[len(moduleWidths)-1]
			}
		}
	}

	fill(moduleTemplates, nil, baseDepth, 0)
	if r.onWall {
		fill(upperTemplates, windowSpans, upperDepth, (baseDepth-upperDepth)/2)
	}
}

// firstHit returns the end of a blocking span covering pos, if any.
func firstHit(blocked, extra []span, pos float64) (float64, bool) {
	for _, s := range append(blocked, extra...) {
		if pos >= s.lo-1e-9 && pos < s.hi-1e-9 {
			return s.hi, true
		}
	}
	return 0, false
}

// firstHitIn reports whether any blocking span overlaps [lo, hi).
func firstHitIn(blocked, extra []span, lo, hi float64) (float64, bool) {
	for _, s := range append(blocked, extra...) {
		if s.overlaps(lo+1e-9, hi-1e-9) {
			return s.hi, true
		}
	}
	return 0, false
}

// applianceSpans projects placed appliances onto the run axis and
// returns the intervals they occupy. Only appliances sitting on the
// run line itself count.
func (im *Importer) applianceSpans(r run, dir geom.Point, p *plan.Plan) []span {
	var out []span
	for _, f := range p.Furniture {
		if !applianceTemplates[f.TemplateID] {
			continue
		}
		if geom.PointSegmentDistance(f.Position, r.start, r.end) > baseDepth {
			continue
		}
		at := f.Position.Sub(r.start).Dot(dir)
		half := f.Width / 2
		out = append(out, span{lo: at - half, hi: at + half})
	}
	return out
}

// windowSpans returns the intervals of the run shadowed by windows on
// its backing wall. Upper cabinets must not cover glazing.
func (im *Importer) windowSpans(r run, dir geom.Point, p *plan.Plan) []span {
	var out []span
	for _, o := range p.Objects {
		if o.Kind != plan.ObjectWindow || o.WallID != r.wall.ID {
			continue
		}
		center := o.Center(r.wall)
		at := center.Sub(r.start).Dot(dir)
		half := o.Width / 2
		out = append(out, span{lo: at - half, hi: at + half})
	}
	return out
}

// runRotation orients a module so its back faces the run's wall side.
func runRotation(r run) float64 {
	dir := r.end.Sub(r.start).Normalize()
	n := geom.Pt(-dir.Y, dir.X)
	if r.onWall {
		toWall := r.wall.Midpoint().Sub(r.start.Lerp(r.end, 0.5))
		if toWall.Dot(n) > 0 {
			n = n.Scale(-1)
		}
	}
	return geom.AngleOf(n)*180/math.Pi - 90
}
