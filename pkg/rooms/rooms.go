// Package rooms extracts closed rooms from a wall set by planar-graph
// face traversal. Rooms are derived state: Detect recomputes them from
// scratch on every call, which is cheap enough to run per redraw tick
// for realistic wall counts, and never caches across mutations.
package rooms

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"

	"github.com/chazu/atrium/pkg/geom"
	"github.com/chazu/atrium/pkg/plan"
)

// vertexSnap is the radius at which geometrically-equal-but-distinct
// endpoint values key to the same graph vertex. Segments that came out
// of a split reference equal positions, not shared objects.
const vertexSnap = 0.05

// minRoomArea filters degenerate slivers; traces below this signed
// area are not rooms.
const minRoomArea = 0.1

// maxTraceSteps caps a face walk. A trace that has not closed by then
// is a malformed graph and is silently discarded rather than looping.
const maxTraceSteps = 1000

// Detect returns the bounded faces of the wall graph as rooms, each
// with a positive shoelace area, an area-weighted centroid, and a
// stable content-derived id. Virtual walls participate: an open-plan
// divider bounds a room logically even though it renders as nothing.
//
// The input may be raw interactive walls; Detect runs the inline
// T-junction repair itself, so callers on the live drawing path can
// hand it the wall set as-is.
func Detect(walls []plan.Wall) []plan.Room {
	normalized := splitAtJunctions(walls)
	g := buildGraph(normalized)
	if len(g.verts) == 0 {
		return nil
	}
	g.sortNeighborsByAngle()

	var out []plan.Room
	for vi := range g.verts {
		for _, ni := range g.adj[vi] {
			if g.visited[dirEdge{vi, ni}] {
				continue
			}
			trace, ok := g.walkFace(vi, ni)
			if !ok || len(trace) < 3 {
				continue
			}
			path := make([]geom.Point, len(trace))
			for i, t := range trace {
				path[i] = g.verts[t]
			}
			// Positive signed area under the y-down convention marks a
			// bounded interior face; the exterior trace comes out
			// negative and is dropped.
			area := geom.SignedArea(path)
			if area <= minRoomArea {
				continue
			}
			out = append(out, plan.Room{
				ID:       RoomID(path),
				Path:     path,
				Area:     area,
				Centroid: geom.Centroid(path),
			})
		}
	}
	return out
}

// FindRoom returns the detected room containing the point, if any.
// Labels associate to rooms this way: by containment at query time,
// never by stored reference.
func FindRoom(roomList []plan.Room, p geom.Point) (plan.Room, bool) {
	for _, r := range roomList {
		if r.Contains(p) {
			return r, true
		}
	}
	return plan.Room{}, false
}

// RoomID derives a stable id from the boundary: vertices rounded to cm
// precision, sorted lexicographically, hashed. Re-detection of an
// unchanged room yields the same id, so collaborators can key floor
// materials and labels off it across recomputation. A split or merged
// room simply gets a new id; there is no continuity across topology
// edits.
func RoomID(path []geom.Point) string {
	keys := make([]string, len(path))
	for i, p := range path {
		keys[i] = fmt.Sprintf("%d,%d", int(math.Round(p.X*100)), int(math.Round(p.Y*100)))
	}
	sort.Strings(keys)
	h := sha256.New()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{';'})
	}
	return hex.EncodeToString(h.Sum(nil))[:12]
}

// splitAtJunctions is the inline per-frame equivalent of the full
// normalizer's T-junction repair: each wall is cut wherever another
// wall crosses it or lands an endpoint on its span.
func splitAtJunctions(walls []plan.Wall) [][2]geom.Point {
	live := walls[:0:0]
	for _, w := range walls {
		if !w.Degenerate() {
			live = append(live, w)
		}
	}

	var out [][2]geom.Point
	for i, w := range live {
		ts := []float64{0, 1}
		for j, o := range live {
			if i == j {
				continue
			}
			if p, ok := geom.SegmentIntersection(w.Start, w.End, o.Start, o.End); ok {
				_, t := geom.ProjectPointOnSegment(p, w.Start, w.End)
				ts = append(ts, t)
			}
			for _, end := range []geom.Point{o.Start, o.End} {
				proj, t := geom.ProjectPointOnSegment(end, w.Start, w.End)
				if t > 0 && t < 1 && end.Distance(proj) <= vertexSnap {
					ts = append(ts, t)
				}
			}
		}
		sort.Float64s(ts)
		prev := 0.0
		for _, t := range ts[1:] {
			if t-prev < 1e-6 {
				continue
			}
			out = append(out, [2]geom.Point{w.PointAt(prev), w.PointAt(t)})
			prev = t
		}
	}
	return out
}

// dirEdge is a directed edge between vertex indices.
type dirEdge struct {
	from, to int
}

// wallGraph is the undirected adjacency structure the face walk runs
// over. Vertices are clustered positions; adjacency lists are sorted by
// polar angle so that "next clockwise edge" is an index step.
type wallGraph struct {
	verts   []geom.Point
	adj     [][]int
	visited map[dirEdge]bool
}

func buildGraph(segments [][2]geom.Point) *wallGraph {
	g := &wallGraph{visited: make(map[dirEdge]bool)}

	vertexAt := func(p geom.Point) int {
		for i, v := range g.verts {
			if p.Near(v, vertexSnap) {
				return i
			}
		}
		g.verts = append(g.verts, p)
		g.adj = append(g.adj, nil)
		return len(g.verts) - 1
	}

	addNeighbor := func(a, b int) {
		for _, n := range g.adj[a] {
			if n == b {
				return
			}
		}
		g.adj[a] = append(g.adj[a], b)
	}

	for _, s := range segments {
		a := vertexAt(s[0])
		b := vertexAt(s[1])
		if a == b {
			continue
		}
		addNeighbor(a, b)
		addNeighbor(b, a)
	}
	return g
}

func (g *wallGraph) sortNeighborsByAngle() {
	for vi, neighbors := range g.adj {
		v := g.verts[vi]
		sort.Slice(neighbors, func(i, j int) bool {
			ai := geom.AngleOf(g.verts[neighbors[i]].Sub(v))
			aj := geom.AngleOf(g.verts[neighbors[j]].Sub(v))
			return ai < aj
		})
	}
}

// walkFace traces one face boundary starting along start->next. At each
// arrival vertex it turns onto the neighbor immediately clockwise
// before the edge it came in on, marking directed edges visited as it
// goes. Each undirected edge therefore feeds exactly two traces, one
// per orientation: the room interior and the face on the other side.
// A dead end or a walk that exceeds the step cap aborts the trace;
// malformed drawings yield fewer rooms, never an error.
func (g *wallGraph) walkFace(start, next int) ([]int, bool) {
	u, v := start, next
	g.visited[dirEdge{u, v}] = true
	trace := []int{u}

	for steps := 0; steps < maxTraceSteps; steps++ {
		trace = append(trace, v)
		neighbors := g.adj[v]
		prevIdx := -1
		for i, n := range neighbors {
			if n == u {
				prevIdx = i
				break
			}
		}
		if prevIdx < 0 {
			return nil, false
		}
		w := neighbors[(prevIdx-1+len(neighbors))%len(neighbors)]
		if v == start && w == next {
			// About to re-enter the starting edge: the face is closed.
			// The start vertex was appended twice, once at each end.
			return trace[:len(trace)-1], true
		}
		if g.visited[dirEdge{v, w}] {
			return nil, false
		}
		g.visited[dirEdge{v, w}] = true
		u, v = v, w
	}
	return nil, false
}
