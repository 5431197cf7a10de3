package geometry

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Centroid is the arithmetic mean of the points.
func Centroid(pts []Point) Point {
	if len(pts) == 0 {
		return Point{}
	}
	var c Point
	for _, p := range pts {
		c = c.Add(p)
	}
	n := float64(len(pts))
	return Point{X: c.X / n, Y: c.Y / n}
}

// SortAround orders pts in place by angle around their centroid.
func SortAround(pts []Point) {
	if len(pts) == 0 {
		return
	}
	c := Centroid(pts)
	angle := func(p Point) float64 {
		return math.Mod(math.Atan2(p.X-c.X, p.Y-c.Y)+2*math.Pi, 2*math.Pi)
	}
	sort.SliceStable(pts, func(i, j int) bool {
		return angle(pts[i]) < angle(pts[j])
	})
}

func ring(poly []Point) orb.Ring {
	r := make(orb.Ring, 0, len(poly)+1)
	for _, p := range poly {
		r = append(r, orb.Point{p.X, p.Y})
	}
	if len(r) > 0 && !r.Closed() {
		r = append(r, r[0])
	}
	return r
}

// Area is the unsigned area enclosed by the polygon.
func Area(poly []Point) float64 {
	if len(poly) < 3 {
		return 0
	}
	return planar.Area(ring(poly))
}

// Contains reports whether p lies inside or on the boundary of poly.
func Contains(poly []Point, p Point) bool {
	if len(poly) < 3 {
		return false
	}
	return planar.RingContains(ring(poly), orb.Point{p.X, p.Y})
}

// AreaCentroid is the centroid of the region enclosed by poly.
func AreaCentroid(poly []Point) Point {
	c, a := planar.CentroidArea(orb.Polygon{ring(poly)})
	if a == 0 {
		return Centroid(poly)
	}
	return Pt(c[0], c[1])
}

// ConvexHull returns the hull in monotone-chain order; collinear points are dropped.
func ConvexHull(points []Point) []Point {
	if len(points) < 3 {
		return append([]Point(nil), points...)
	}

	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].X != sorted[j].X {
			return sorted[i].X < sorted[j].X
		}
		return sorted[i].Y < sorted[j].Y
	})

	cross := func(o, a, b Point) float64 {
		return a.Sub(o).Cross(b.Sub(o))
	}

	var lower []Point
	for _, p := range sorted {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}

	var upper []Point
	for i := len(sorted) - 1; i >= 0; i-- {
		p := sorted[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}

	return append(lower[:len(lower)-1], upper[:len(upper)-1]...)
}

// IsConvex reports whether the closed polygon turns consistently in one
// direction. Degenerate (zero-area) polygons are not convex.
func IsConvex(poly []Point) bool {
	n := len(poly)
	if n < 3 {
		return false
	}
	sign := 0
	for i := 0; i < n; i++ {
		a, b, c := poly[i], poly[(i+1)%n], poly[(i+2)%n]
		z := b.Sub(a).Cross(c.Sub(b))
		switch {
		case z > 0:
			if sign < 0 {
				return false
			}
			sign = 1
		case z < 0:
			if sign > 0 {
				return false
			}
			sign = -1
		}
	}
	return sign != 0
}

// OrderCorners picks top-left, top-right, bottom-right and bottom-left from
// pts using the extremes of x+y and x-y.
func OrderCorners(pts []Point) [4]Point {
	var out [4]Point
	minSum, maxSum := math.Inf(1), math.Inf(-1)
	minDif, maxDif := math.Inf(1), math.Inf(-1)

	for _, p := range pts {
		sum := p.X + p.Y
		dif := p.X - p.Y

		if sum < minSum {
			minSum = sum
			out[0] = p
		}
		if dif > maxDif {
			maxDif = dif
			out[1] = p
		}
		if sum > maxSum {
			maxSum = sum
			out[2] = p
		}
		if dif < minDif {
			minDif = dif
			out[3] = p
		}
	}
	return out
}

// Offset moves every edge of the convex polygon along its normal by d and
// rejoins neighbouring edges at their intersection (miter join). Positive
// d grows the polygon, negative d shrinks it.
func Offset(poly []Point, d float64) []Point {
	n := len(poly)
	if n < 3 || d == 0 {
		return append([]Point(nil), poly...)
	}

	// outward normal of edge (dx, dy) is (dy, -dx) for positive area
	dir := 1.0
	if ring(poly).Orientation() == orb.CW {
		dir = -1
	}

	edges := make([]Segment, n)
	for i := 0; i < n; i++ {
		a, b := poly[i], poly[(i+1)%n]
		e := b.Sub(a)
		l := e.Norm()
		if l == 0 {
			edges[i] = Segment{A: a, B: b}
			continue
		}
		off := Point{X: e.Y, Y: -e.X}.Mul(dir * d / l)
		edges[i] = Segment{A: a.Add(off), B: b.Add(off)}
	}

	out := make([]Point, n)
	for i := 0; i < n; i++ {
		prev := edges[(i+n-1)%n]
		cur := edges[i]
		p, ok := prev.LineIntersection(cur)
		if !ok {
			p = cur.A
		}
		out[i] = p
	}
	return out
}
