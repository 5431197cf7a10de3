package geometry

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func near(a, b Point) bool {
	return math.Abs(a.X-b.X) < 1e-6 && math.Abs(a.Y-b.Y) < 1e-6
}

func TestOrderCorners(t *testing.T) {
	tl, tr, br, bl := Pt(10, 12), Pt(205, 8), Pt(220, 190), Pt(3, 201)
	want := [4]Point{tl, tr, br, bl}

	orders := [][]Point{
		{tl, tr, br, bl},
		{br, bl, tl, tr},
		{bl, br, tr, tl},
		{tr, tl, bl, br},
		{br, tr, bl, tl},
	}
	for _, in := range orders {
		test.That(t, OrderCorners(in), test.ShouldResemble, want)
	}
}

func TestSegmentCrossing(t *testing.T) {
	a := Seg(0, 0, 10, 10)
	b := Seg(0, 10, 10, 0)

	p, ok := a.Crossing(b)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, near(p, Pt(5, 5)), test.ShouldBeTrue)

	_, ok = Seg(0, 0, 10, 0).Crossing(Seg(0, 1, 10, 1))
	test.That(t, ok, test.ShouldBeFalse)

	_, ok = Seg(0, 0, 1, 1).Crossing(Seg(5, 0, 4, 1))
	test.That(t, ok, test.ShouldBeFalse)

	p, ok = a.LineIntersection(Seg(20, 0, 20, 1))
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, near(p, Pt(20, 20)), test.ShouldBeTrue)
}

func TestSegmentBasics(t *testing.T) {
	s := Seg(10, 4, 2, 0)
	test.That(t, s.First(), test.ShouldResemble, Pt(2, 0))
	test.That(t, s.Second(), test.ShouldResemble, Pt(10, 4))
	test.That(t, s.Vertical(), test.ShouldBeFalse)
	test.That(t, Seg(0, 0, 1, 5).Vertical(), test.ShouldBeTrue)
	test.That(t, Seg(0, 0, 10, 0).DistanceTo(Pt(3, -4)), test.ShouldAlmostEqual, 4.0)
	test.That(t, s.YAt(6), test.ShouldAlmostEqual, 2.0)
}

func TestConvexHullAndArea(t *testing.T) {
	pts := []Point{Pt(0, 0), Pt(4, 0), Pt(4, 4), Pt(0, 4), Pt(2, 2), Pt(1, 3), Pt(2, 0)}
	hull := ConvexHull(pts)
	test.That(t, len(hull), test.ShouldEqual, 4)
	test.That(t, Area(hull), test.ShouldAlmostEqual, 16.0)
	test.That(t, IsConvex(hull), test.ShouldBeTrue)
	test.That(t, Contains(hull, Pt(2, 2)), test.ShouldBeTrue)
	test.That(t, Contains(hull, Pt(5, 2)), test.ShouldBeFalse)
	test.That(t, near(AreaCentroid(hull), Pt(2, 2)), test.ShouldBeTrue)

	test.That(t, IsConvex([]Point{Pt(0, 0), Pt(4, 0), Pt(1, 1), Pt(0, 4)}), test.ShouldBeFalse)
	test.That(t, IsConvex([]Point{Pt(0, 0), Pt(1, 1), Pt(2, 2)}), test.ShouldBeFalse)
}

func TestSortAround(t *testing.T) {
	pts := []Point{Pt(0, 0), Pt(4, 4), Pt(4, 0), Pt(0, 4)}
	SortAround(pts)
	test.That(t, IsConvex(pts), test.ShouldBeTrue)
	test.That(t, Area(pts), test.ShouldAlmostEqual, 16.0)
}

func TestOffset(t *testing.T) {
	square := []Point{Pt(0, 0), Pt(10, 0), Pt(10, 10), Pt(0, 10)}

	grown := Offset(square, 2)
	test.That(t, Area(grown), test.ShouldAlmostEqual, 196.0)
	test.That(t, Contains(grown, Pt(-1.5, -1.5)), test.ShouldBeTrue)

	shrunk := Offset(square, -2)
	test.That(t, Area(shrunk), test.ShouldAlmostEqual, 36.0)
	test.That(t, Contains(shrunk, Pt(1, 1)), test.ShouldBeFalse)

	reversed := []Point{Pt(0, 10), Pt(10, 10), Pt(10, 0), Pt(0, 0)}
	test.That(t, Area(Offset(reversed, 2)), test.ShouldAlmostEqual, 196.0)
}

func TestMinEnclosingCircle(t *testing.T) {
	c := MinEnclosingCircle([]Point{Pt(0, 0), Pt(10, 0), Pt(5, 1), Pt(5, -1)})
	test.That(t, c.Radius, test.ShouldAlmostEqual, 5.0)
	test.That(t, near(c.Center, Pt(5, 0)), test.ShouldBeTrue)

	c = MinEnclosingCircle([]Point{Pt(0, 0), Pt(2, 0), Pt(1, math.Sqrt(3))})
	test.That(t, c.Radius, test.ShouldAlmostEqual, 2/math.Sqrt(3))
}

func TestFitLine(t *testing.T) {
	var pts []Point
	for i := 0; i < 20; i++ {
		pts = append(pts, Pt(float64(i), 2*float64(i)+1))
	}
	dir, origin := FitLine(pts)
	test.That(t, math.Abs(dir.Y/dir.X), test.ShouldAlmostEqual, 2.0)
	test.That(t, origin.Y, test.ShouldAlmostEqual, 2*origin.X+1)

	dir, _ = FitLine([]Point{Pt(3, 0), Pt(3, 5), Pt(3, 9)})
	test.That(t, math.Abs(dir.X), test.ShouldBeLessThan, 1e-9)
}

func TestHomography(t *testing.T) {
	quad := [4]Point{Pt(100, 50), Pt(400, 80), Pt(420, 390), Pt(90, 360)}
	h, err := SquareTo(1200, quad)
	test.That(t, err, test.ShouldBeNil)

	sq := SquareCorners(1200)
	for i := range sq {
		test.That(t, near(h.Apply(sq[i]), quad[i]), test.ShouldBeTrue)
	}

	inv, err := h.Inverse()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, near(inv.Apply(quad[2]), sq[2]), test.ShouldBeTrue)

	round := h.Then(inv)
	p := Pt(321, 654)
	test.That(t, near(round.Apply(p), p), test.ShouldBeTrue)

	_, err = PerspectiveTransform(sq, [4]Point{Pt(0, 0), Pt(0, 0), Pt(0, 0), Pt(0, 0)})
	test.That(t, err, test.ShouldNotBeNil)
}
