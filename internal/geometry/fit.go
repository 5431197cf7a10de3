package geometry

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Circle is a center and radius.
type Circle struct {
	Center Point
	Radius float64
}

func (c Circle) contains(p Point) bool {
	return p.Sub(c.Center).Norm() <= c.Radius*(1+1e-9)+1e-9
}

func circleFrom2(a, b Point) Circle {
	c := a.Add(b).Mul(0.5)
	return Circle{Center: c, Radius: a.Sub(c).Norm()}
}

func circleFrom3(a, b, c Point) Circle {
	ab := b.Sub(a)
	ac := c.Sub(a)
	d := 2 * ab.Cross(ac)
	if d == 0 {
		// collinear: the widest pair spans the other point
		best := circleFrom2(a, b)
		for _, cand := range []Circle{circleFrom2(a, c), circleFrom2(b, c)} {
			if cand.Radius > best.Radius {
				best = cand
			}
		}
		return best
	}
	b2 := ab.Dot(ab)
	c2 := ac.Dot(ac)
	center := Point{
		X: a.X + (ac.Y*b2-ab.Y*c2)/d,
		Y: a.Y + (ab.X*c2-ac.X*b2)/d,
	}
	return Circle{Center: center, Radius: a.Sub(center).Norm()}
}

// MinEnclosingCircle returns the smallest circle containing every point
// (incremental Welzl).
func MinEnclosingCircle(pts []Point) Circle {
	if len(pts) == 0 {
		return Circle{}
	}
	c := Circle{Center: pts[0]}
	for i := 1; i < len(pts); i++ {
		if c.contains(pts[i]) {
			continue
		}
		c = Circle{Center: pts[i]}
		for j := 0; j < i; j++ {
			if c.contains(pts[j]) {
				continue
			}
			c = circleFrom2(pts[i], pts[j])
			for k := 0; k < j; k++ {
				if !c.contains(pts[k]) {
					c = circleFrom3(pts[i], pts[j], pts[k])
				}
			}
		}
	}
	return c
}

// FitLine fits a line through pts minimising squared perpendicular
// distance. It returns a unit direction and a point on the line.
func FitLine(pts []Point) (dir Point, origin Point) {
	if len(pts) == 0 {
		return Pt(1, 0), Point{}
	}
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		xs[i], ys[i] = p.X, p.Y
	}
	origin = Pt(stat.Mean(xs, nil), stat.Mean(ys, nil))
	if len(pts) < 2 {
		return Pt(1, 0), origin
	}

	sxx := stat.Variance(xs, nil)
	syy := stat.Variance(ys, nil)
	sxy := stat.Covariance(xs, ys, nil)

	if sxy == 0 {
		if sxx >= syy {
			return Pt(1, 0), origin
		}
		return Pt(0, 1), origin
	}
	theta := 0.5 * math.Atan2(2*sxy, sxx-syy)
	return Pt(math.Cos(theta), math.Sin(theta)), origin
}
