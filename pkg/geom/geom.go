// Package geom provides the 2D geometric primitives the plan editor is
// built on: points/vectors in world meters, point-segment projection,
// segment intersection, and polygon area/centroid/containment tests.
// All functions are pure and allocation-light; callers on the interactive
// path invoke them once per pointer event or redraw tick.
package geom

import "math"

// Epsilon is the tolerance used for degeneracy checks (parallel segments,
// zero-length vectors). Coordinates are meters, so 1e-9 is far below any
// physically meaningful distance.
const Epsilon = 1e-9

// Point represents a 2D point or vector in world coordinates (meters).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is a convenience constructor for a Point.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns the sum of two vectors.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns the difference of two vectors.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Scale returns the vector scaled by s.
func (p Point) Scale(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// Dot returns the dot product of two vectors.
func (p Point) Dot(q Point) float64 {
	return p.X*q.X + p.Y*q.Y
}

// Cross returns the scalar 2D cross product.
func (p Point) Cross(q Point) float64 {
	return p.X*q.Y - p.Y*q.X
}

// Length returns the vector's Euclidean length.
func (p Point) Length() float64 {
	return math.Hypot(p.X, p.Y)
}

// Distance returns the Euclidean distance between two points.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Near reports whether q lies within eps of p.
func (p Point) Near(q Point, eps float64) bool {
	return p.Distance(q) <= eps
}

// Normalize returns a unit vector in the same direction, or the zero
// vector if p has (near-)zero length.
func (p Point) Normalize() Point {
	l := p.Length()
	if l < Epsilon {
		return Point{}
	}
	return Point{X: p.X / l, Y: p.Y / l}
}

// Rotate returns the vector rotated by angle radians about the origin.
func (p Point) Rotate(angle float64) Point {
	sin, cos := math.Sincos(angle)
	return Point{
		X: p.X*cos - p.Y*sin,
		Y: p.X*sin + p.Y*cos,
	}
}

// Lerp linearly interpolates between p (t=0) and q (t=1).
func (p Point) Lerp(q Point, t float64) Point {
	return Point{
		X: p.X + (q.X-p.X)*t,
		Y: p.Y + (q.Y-p.Y)*t,
	}
}

// AngleOf returns the polar angle of the vector in radians, in (-pi, pi].
func AngleOf(v Point) float64 {
	return math.Atan2(v.Y, v.X)
}

// ProjectPointOnSegment orthogonally projects p onto the segment a-b,
// clamped to the segment: the returned parameter t is always in [0,1] and
// the returned point always lies on a-b. The degenerate segment a==b
// projects everything onto a with t=0.
func ProjectPointOnSegment(p, a, b Point) (Point, float64) {
	ab := b.Sub(a)
	lenSq := ab.Dot(ab)
	if lenSq < Epsilon {
		return a, 0
	}
	t := p.Sub(a).Dot(ab) / lenSq
	t = clamp01(t)
	return a.Add(ab.Scale(t)), t
}

// PointSegmentDistance returns the distance from p to its clamped
// projection on the segment a-b.
func PointSegmentDistance(p, a, b Point) float64 {
	proj, _ := ProjectPointOnSegment(p, a, b)
	return p.Distance(proj)
}

// SegmentIntersection returns the proper intersection point of the finite
// segments a-b and c-d. The second return value is false when the segments
// are parallel (including collinear) or when the intersection of the
// carrier lines falls outside either segment.
func SegmentIntersection(a, b, c, d Point) (Point, bool) {
	r := b.Sub(a)
	s := d.Sub(c)
	denom := r.Cross(s)
	if math.Abs(denom) < Epsilon {
		return Point{}, false
	}
	ac := c.Sub(a)
	t := ac.Cross(s) / denom
	u := ac.Cross(r) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return Point{}, false
	}
	return a.Add(r.Scale(t)), true
}

// PointInPolygon reports whether p lies inside the polygon by the even-odd
// ray-casting rule. The polygon is implicitly closed. The result is
// undefined for points exactly on an edge.
func PointInPolygon(p Point, poly []Point) bool {
	if len(poly) < 3 {
		return false
	}
	inside := false
	j := len(poly) - 1
	for i := 0; i < len(poly); i++ {
		pi, pj := poly[i], poly[j]
		if (pi.Y > p.Y) != (pj.Y > p.Y) {
			x := pi.X + (p.Y-pi.Y)/(pj.Y-pi.Y)*(pj.X-pi.X)
			if p.X < x {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// SignedArea returns the shoelace area of the polygon. Plan coordinates
// are y-down (screen convention), so a clockwise-on-screen boundary yields
// a positive value. The polygon is implicitly closed.
func SignedArea(poly []Point) float64 {
	if len(poly) < 3 {
		return 0
	}
	sum := 0.0
	j := len(poly) - 1
	for i := 0; i < len(poly); i++ {
		sum += poly[j].X*poly[i].Y - poly[i].X*poly[j].Y
		j = i
	}
	return sum / 2
}

// Area returns the absolute shoelace area of the polygon.
func Area(poly []Point) float64 {
	return math.Abs(SignedArea(poly))
}

// Centroid returns the area-weighted centroid of the polygon. For
// degenerate (near-zero area) polygons it falls back to the vertex mean so
// that label placement still lands somewhere sensible.
func Centroid(poly []Point) Point {
	if len(poly) == 0 {
		return Point{}
	}
	a := SignedArea(poly)
	if math.Abs(a) < 1e-6 {
		var sum Point
		for _, p := range poly {
			sum = sum.Add(p)
		}
		return sum.Scale(1 / float64(len(poly)))
	}
	var cx, cy float64
	j := len(poly) - 1
	for i := 0; i < len(poly); i++ {
		cross := poly[j].X*poly[i].Y - poly[i].X*poly[j].Y
		cx += (poly[j].X + poly[i].X) * cross
		cy += (poly[j].Y + poly[i].Y) * cross
		j = i
	}
	f := 1 / (6 * a)
	return Point{X: cx * f, Y: cy * f}
}

// PolylineLength returns the total length of the open polyline.
func PolylineLength(pts []Point) float64 {
	total := 0.0
	for i := 1; i < len(pts); i++ {
		total += pts[i].Distance(pts[i-1])
	}
	return total
}

// Bounds returns the axis-aligned bounding box of the points as
// (min, max). An empty input returns two zero points.
func Bounds(pts []Point) (Point, Point) {
	if len(pts) == 0 {
		return Point{}, Point{}
	}
	min, max := pts[0], pts[0]
	for _, p := range pts[1:] {
		if p.X < min.X {
			min.X = p.X
		}
		if p.Y < min.Y {
			min.Y = p.Y
		}
		if p.X > max.X {
			max.X = p.X
		}
		if p.Y > max.Y {
			max.Y = p.Y
		}
	}
	return min, max
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
