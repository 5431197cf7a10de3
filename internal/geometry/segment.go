// Package geometry holds the point, segment and polygon math shared by the
// board detection stages.
package geometry

import (
	"math"

	"github.com/golang/geo/r2"
)

// Point is an (x, y) image coordinate. Equality is exact.
type Point = r2.Point

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Truncate drops the fractional part of both coordinates.
func Truncate(p Point) Point {
	return Point{X: math.Trunc(p.X), Y: math.Trunc(p.Y)}
}

// Segment is a line segment between two points.
type Segment struct {
	A, B Point
}

// Seg builds a segment from raw endpoint coordinates.
func Seg(x1, y1, x2, y2 float64) Segment {
	return Segment{A: Pt(x1, y1), B: Pt(x2, y2)}
}

// First returns the endpoint with the lower x.
func (s Segment) First() Point {
	if s.A.X <= s.B.X {
		return s.A
	}
	return s.B
}

// Second returns the endpoint with the higher x.
func (s Segment) Second() Point {
	if s.A.X <= s.B.X {
		return s.B
	}
	return s.A
}

// Canonical returns the segment with its lower-x endpoint first.
func (s Segment) Canonical() Segment {
	return Segment{A: s.First(), B: s.Second()}
}

func (s Segment) Dx() float64 { return math.Abs(s.B.X - s.A.X) }
func (s Segment) Dy() float64 { return math.Abs(s.B.Y - s.A.Y) }

func (s Segment) Length() float64 {
	return s.B.Sub(s.A).Norm()
}

// Vertical reports whether the y span dominates the x span.
func (s Segment) Vertical() bool {
	return s.Dx() < s.Dy()
}

// Slope of the segment, +Inf for vertical segments.
func (s Segment) Slope() float64 {
	f, l := s.First(), s.Second()
	if l.X == f.X {
		return math.Inf(1)
	}
	return (l.Y - f.Y) / (l.X - f.X)
}

// YAt evaluates the segment's supporting line at x. Vertical segments
// report the y of their first endpoint.
func (s Segment) YAt(x float64) float64 {
	f, l := s.First(), s.Second()
	if l.X == f.X {
		return f.Y
	}
	return f.Y + (l.Y-f.Y)/(l.X-f.X)*(x-f.X)
}

// DistanceTo returns the perpendicular distance from p to the infinite
// line through the segment. A zero-length segment measures to its endpoint.
func (s Segment) DistanceTo(p Point) float64 {
	f, l := s.First(), s.Second()
	d := l.Sub(f)
	n := d.Norm()
	if n == 0 {
		return p.Sub(f).Norm()
	}
	return math.Abs(d.X*(f.Y-p.Y)-d.Y*(f.X-p.X)) / n
}

// LineIntersection intersects the two infinite lines. ok is false when
// the lines are parallel.
func (s Segment) LineIntersection(o Segment) (Point, bool) {
	d1 := s.A.Sub(s.B)
	d2 := o.A.Sub(o.B)
	div := d1.Cross(d2)
	if div == 0 {
		return Point{}, false
	}
	c1 := s.A.Cross(s.B)
	c2 := o.A.Cross(o.B)
	return Point{
		X: (c1*d2.X - d1.X*c2) / div,
		Y: (c1*d2.Y - d1.Y*c2) / div,
	}, true
}

// Crossing intersects the two segments within their extents, endpoints
// included. ok is false for parallel or disjoint segments.
func (s Segment) Crossing(o Segment) (Point, bool) {
	a, b := s.First(), s.Second()
	c, d := o.First(), o.Second()

	r := b.Sub(a)
	q := d.Sub(c)
	den := r.Cross(q)
	if den == 0 {
		return Point{}, false
	}
	ca := c.Sub(a)
	t := ca.Cross(q) / den
	u := ca.Cross(r) / den
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return Point{}, false
	}
	return a.Add(r.Mul(t)), true
}

// Sample returns n points spread along the segment at t = i/n.
func (s Segment) Sample(n int) []Point {
	out := make([]Point, 0, n)
	d := s.B.Sub(s.A)
	for i := 0; i < n; i++ {
		out = append(out, s.A.Add(d.Mul(float64(i)/float64(n))))
	}
	return out
}
