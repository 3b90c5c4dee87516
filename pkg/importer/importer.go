package importer

import (
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"

	"github.com/chazu/atrium/pkg/align"
	"github.com/chazu/atrium/pkg/geom"
	"github.com/chazu/atrium/pkg/plan"
	"github.com/chazu/atrium/pkg/rooms"
	"github.com/chazu/atrium/pkg/topo"
)

// Wall dimensions for generated candidates, meters.
const (
	externalThickness = 0.25
	internalThickness = 0.10
	importWallHeight  = 2.6
)

// footprintEdgeTol is the midpoint distance under which a room edge
// counts as coinciding with a footprint edge and is not emitted again.
const footprintEdgeTol = 0.3

// simplifyTol strips collinear jitter vertices from AI room outlines
// before wall candidates are generated.
const simplifyTol = 0.1

// openingSearchRange is how far an opening center may sit from its
// wall after scaling.
const openingSearchRange = 0.5

// Door and window dimension policy, meters.
const (
	doorHeight        = 2.0
	windowHeight      = 1.2
	windowSill        = 0.9
	doorWidthBathroom = 0.7
	doorWidthEntrance = 1.0
	doorWidthDefault  = 0.8
	doorWidthMin      = 0.6
	doorWidthMax      = 1.2
	windowWidthMin    = 0.4
	windowWidthMax    = 3.0
)

// Site is the user-specified target envelope. Zero fields are treated
// as absent; scale calibration falls back from Width/Depth to Area to
// the layout's own meters hint, in that order.
type Site struct {
	Width float64 `json:"width"` // meters
	Depth float64 `json:"depth"` // meters
	Area  float64 `json:"area"`  // square meters
}

// Finding is one advisory produced during an import. Findings never
// abort the import; they explain why an element is missing or was
// adjusted.
type Finding struct {
	Element string `json:"element"`
	Message string `json:"message"`
}

// Report collects the advisories of one import.
type Report struct {
	Warnings []Finding `json:"warnings"`
}

func (r *Report) warnf(element, format string, args ...any) {
	r.Warnings = append(r.Warnings, Finding{
		Element: element,
		Message: fmt.Sprintf(format, args...),
	})
}

// Result is a completed import.
type Result struct {
	Plan   *plan.Plan  `json:"plan"`
	Rooms  []plan.Room `json:"rooms"`
	Scale  float64     `json:"scale"` // meters per source unit
	Report Report      `json:"report"`
}

// Importer converts decoded layouts into plans.
type Importer struct {
	catalog *plan.Catalog
}

// New returns an importer resolving furniture against the catalog.
func New(catalog *plan.Catalog) *Importer {
	if catalog == nil {
		catalog = plan.DefaultCatalog()
	}
	return &Importer{catalog: catalog}
}

// Import runs the full conversion pipeline: scale calibration, wall
// candidate generation, topology repair with import tolerances, room
// detection, opening placement, furniture docking, and cabinetry
// layout. Geometric steps are best-effort; the returned report lists
// what was dropped or adjusted.
func (im *Importer) Import(l *Layout, site Site) (*Result, error) {
	if l == nil || len(l.Footprint) < 3 {
		return nil, fmt.Errorf("%w: footprint must have at least 3 corners", ErrInvalidLayout)
	}

	res := &Result{Plan: plan.New()}

	scale, err := im.computeScale(l, site, &res.Report)
	if err != nil {
		return nil, err
	}
	res.Scale = scale

	footprint := make([]geom.Point, len(l.Footprint))
	for i, p := range l.Footprint {
		footprint[i] = p.point().Scale(scale)
	}

	candidates := im.wallCandidates(l, footprint, scale)

	opts := topo.ImportOptions()
	opts.Footprint = footprint
	walls := topo.Normalize(candidates, opts)
	res.Plan.Walls = walls

	res.Rooms = rooms.Detect(walls)
	im.labelRooms(l, scale, res)

	index := plan.NewWallIndex(walls)
	im.placeOpenings(l, scale, index, res)
	im.placeFurniture(l, scale, index, res)
	mirrorNightstands(res.Plan, im.catalog)
	im.layoutCabinets(l, scale, index, res)

	return res, nil
}

// computeScale calibrates meters-per-source-unit. Priority: explicit
// site dimensions (longest input extent maps onto the longest site
// side), then site area against the footprint's shoelace area, then
// the model's own meters hint.
func (im *Importer) computeScale(l *Layout, site Site, rep *Report) (float64, error) {
	ring := make(orb.Ring, 0, len(l.Footprint)+1)
	for _, p := range l.Footprint {
		ring = append(ring, orb.Point{p.X, p.Y})
	}
	ring = append(ring, ring[0])

	bound := ring.Bound()
	longest := math.Max(bound.Max[0]-bound.Min[0], bound.Max[1]-bound.Min[1])
	if longest <= 0 {
		return 0, fmt.Errorf("%w: footprint has no extent", ErrInvalidLayout)
	}

	if site.Width > 0 && site.Depth > 0 {
		return math.Max(site.Width, site.Depth) / longest, nil
	}
	if site.Area > 0 {
		srcArea := math.Abs(planar.Area(ring))
		if srcArea > 0 {
			return math.Sqrt(site.Area / srcArea), nil
		}
	}
	if l.MetersPerUnit > 0 {
		return l.MetersPerUnit, nil
	}
	rep.warnf("scale", "no site size or meters hint; assuming source units are meters")
	return 1, nil
}

// wallCandidates emits one thick external wall per footprint edge and
// one thin internal wall per room edge that does not coincide with a
// footprint edge. Open edges become virtual walls. Room outlines are
// simplified first to drop the jitter vertices vision models produce
// on straight runs.
func (im *Importer) wallCandidates(l *Layout, footprint []geom.Point, scale float64) []plan.Wall {
	var out []plan.Wall

	addWall := func(a, b geom.Point, thickness float64, virtual bool) {
		w := plan.NewWall(a, b)
		if w.Degenerate() {
			return
		}
		w.Thickness = thickness
		w.Height = importWallHeight
		w.Virtual = virtual
		out = append(out, w)
	}

	for i := range footprint {
		addWall(footprint[i], footprint[(i+1)%len(footprint)], externalThickness, false)
	}

	for _, room := range l.Rooms {
		if len(room.Corners) < 3 {
			continue
		}
		ring := make(orb.Ring, 0, len(room.Corners)+1)
		for _, c := range room.Corners {
			ring = append(ring, orb.Point{c.X * scale, c.Y * scale})
		}
		ring = append(ring, ring[0])
		ring = simplify.DouglasPeucker(simplifyTol).Ring(ring)
		if len(ring) < 4 { // closed ring: 3 corners + repeat
			continue
		}
		ring = ring[:len(ring)-1]

		// Simplification can drop corners, which shifts edge numbering,
		// so open-edge markers cannot index the surviving ring directly.
		// Each original open edge instead claims the surviving edge
		// nearest its midpoint.
		open := make(map[int]bool, len(room.OpenEdges))
		for _, e := range room.OpenEdges {
			if e < 0 || e >= len(room.Corners) {
				continue
			}
			mid := room.Corners[e].point().
				Lerp(room.Corners[(e+1)%len(room.Corners)].point(), 0.5).
				Scale(scale)
			best := -1
			bestDist := math.MaxFloat64
			for i := range ring {
				a := geom.Pt(ring[i][0], ring[i][1])
				b := geom.Pt(ring[(i+1)%len(ring)][0], ring[(i+1)%len(ring)][1])
				if d := geom.PointSegmentDistance(mid, a, b); d < bestDist {
					bestDist = d
					best = i
				}
			}
			if best >= 0 {
				open[best] = true
			}
		}

		for i := range ring {
			a := geom.Pt(ring[i][0], ring[i][1])
			b := geom.Pt(ring[(i+1)%len(ring)][0], ring[(i+1)%len(ring)][1])
			if onFootprint(a.Lerp(b, 0.5), footprint) {
				continue
			}
			addWall(a, b, internalThickness, open[i])
		}
	}
	return out
}

// onFootprint reports whether a point lies on the footprint outline
// within tolerance.
func onFootprint(p geom.Point, footprint []geom.Point) bool {
	for i := range footprint {
		a := footprint[i]
		b := footprint[(i+1)%len(footprint)]
		if geom.PointSegmentDistance(p, a, b) <= footprintEdgeTol {
			return true
		}
	}
	return false
}

// labelRooms drops one label per named AI room into whichever detected
// room contains its polygon centroid.
func (im *Importer) labelRooms(l *Layout, scale float64, res *Result) {
	for _, room := range l.Rooms {
		if room.Name == "" || len(room.Corners) < 3 {
			continue
		}
		poly := make([]geom.Point, len(room.Corners))
		for i, c := range room.Corners {
			poly[i] = c.point().Scale(scale)
		}
		anchor := geom.Centroid(poly)
		if detected, ok := rooms.FindRoom(res.Rooms, anchor); ok {
			anchor = detected.Centroid
		}
		res.Plan.AddLabel(plan.RoomLabel{Text: room.Name, Position: anchor})
	}
}

// placeOpenings projects each reported door/window onto its nearest
// wall and mounts it there with an architecturally sane width. Door
// widths follow the nearest room's purpose: bathroom-like rooms get
// narrow leaves, entrances wide ones.
func (im *Importer) placeOpenings(l *Layout, scale float64, index *plan.WallIndex, res *Result) {
	for i, op := range l.Openings {
		center := geom.Pt(op.X, op.Y).Scale(scale)
		w, _, ok := index.Nearest(center, openingSearchRange, true)
		if !ok {
			res.Report.warnf("opening", "%s %d: no wall within %.1f m, dropped", op.Type, i, openingSearchRange)
			continue
		}
		_, t := geom.ProjectPointOnSegment(center, w.Start, w.End)

		obj := plan.WallObject{WallID: w.ID, Position: t}
		switch strings.ToLower(op.Type) {
		case "window":
			obj.Kind = plan.ObjectWindow
			obj.Width = clampf(op.Width*scale, windowWidthMin, windowWidthMax)
			obj.Height = windowHeight
			obj.Offset = windowSill
		default:
			obj.Kind = plan.ObjectDoor
			obj.Width = doorWidth(im.roomNameAt(l, scale, center))
			obj.Height = doorHeight
		}
		if maxW := 0.9 * w.Length(); obj.Width > maxW {
			obj.Width = maxW
		}
		if op.Hinge == "right" {
			obj.Hinge = plan.HingeRight
		}
		if op.Swing == "out" {
			obj.Swing = plan.SwingOut
		}
		if _, err := res.Plan.AddObject(obj); err != nil {
			res.Report.warnf("opening", "%s %d: %v", op.Type, i, err)
		}
	}
}

// roomNameAt returns the name of the AI room containing the point, or
// the nearest room by centroid when no polygon contains it.
func (im *Importer) roomNameAt(l *Layout, scale float64, p geom.Point) string {
	bestName := ""
	bestDist := math.MaxFloat64
	for _, room := range l.Rooms {
		if len(room.Corners) < 3 {
			continue
		}
		poly := make([]geom.Point, len(room.Corners))
		for i, c := range room.Corners {
			poly[i] = c.point().Scale(scale)
		}
		if geom.PointInPolygon(p, poly) {
			return room.Name
		}
		if d := geom.Centroid(poly).Distance(p); d < bestDist {
			bestDist = d
			bestName = room.Name
		}
	}
	return bestName
}

func doorWidth(roomName string) float64 {
	name := strings.ToLower(roomName)
	switch {
	case containsAny(name, "bath", "toilet", "wc", "shower", "ensuite"):
		return clampf(doorWidthBathroom, doorWidthMin, doorWidthMax)
	case containsAny(name, "entr", "hall", "foyer", "vestib"):
		return clampf(doorWidthEntrance, doorWidthMin, doorWidthMax)
	default:
		return clampf(doorWidthDefault, doorWidthMin, doorWidthMax)
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// placeFurniture scales each reported item's position and re-docks it
// against the rebuilt wall set, correcting the AI's approximate
// rotation into a wall-flush one where the kind calls for it. Items
// with unknown template names are dropped with a warning.
func (im *Importer) placeFurniture(l *Layout, scale float64, index *plan.WallIndex, res *Result) {
	for i, item := range l.Furniture {
		tpl, ok := im.catalog.Resolve(item.TemplateID)
		if !ok {
			res.Report.warnf("furniture", "item %d: unknown template %q, dropped", i, item.TemplateID)
			continue
		}
		pos := geom.Pt(item.X, item.Y).Scale(scale)
		f := plan.Furniture{
			TemplateID: tpl.ID,
			Position:   pos,
			Width:      tpl.Width,
			Depth:      tpl.Depth,
		}
		if item.Rotation != nil {
			f.Rotation = *item.Rotation
		}
		placement := align.Dock(tpl, pos, index)
		if placement.Docked {
			f = align.Apply(f, placement)
		}
		res.Plan.AddFurniture(f)
	}
}

// mirrorNightstands repositions nightstands symmetrically on either
// side of their nearest bed's headboard, matching the bed's rotation.
func mirrorNightstands(p *plan.Plan, catalog *plan.Catalog) {
	var beds []plan.Furniture
	var stands []int
	for i, f := range p.Furniture {
		if strings.HasPrefix(f.TemplateID, "bed-") {
			beds = append(beds, f)
		}
		if f.TemplateID == "nightstand" {
			stands = append(stands, i)
		}
	}
	if len(beds) == 0 || len(stands) == 0 {
		return
	}

	// Pair each nightstand with its nearest bed, then hand out the two
	// headboard-side slots per bed in encounter order.
	sideUsed := make(map[string]int)
	for _, si := range stands {
		ns := p.Furniture[si]
		var bed plan.Furniture
		bestDist := math.MaxFloat64
		for _, b := range beds {
			if d := b.Position.Distance(ns.Position); d < bestDist {
				bestDist = d
				bed = b
			}
		}
		if bestDist > 3.0 {
			continue
		}
		slot := sideUsed[bed.ID]
		if slot >= 2 {
			continue
		}
		sideUsed[bed.ID]++

		rad := bed.Rotation * math.Pi / 180
		front := geom.Pt(0, 1).Rotate(rad)
		right := geom.Pt(1, 0).Rotate(rad)
		side := 1.0
		if slot == 1 {
			side = -1
		}
		center := bed.Position.
			Sub(front.Scale(bed.Depth/2 - ns.Depth/2)).
			Add(right.Scale(side * (bed.Width/2 + ns.Width/2)))
		p.Furniture[si].Position = center
		p.Furniture[si].Rotation = bed.Rotation
	}
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
