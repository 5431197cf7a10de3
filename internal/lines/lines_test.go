package lines

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"go.viam.com/test"

	"livefen/internal/geometry"
)

func TestSimilar(t *testing.T) {
	base := geometry.Seg(0, 0, 100, 0)

	test.That(t, Similar(base, geometry.Seg(50, 1, 150, 1)), test.ShouldBeTrue)
	test.That(t, Similar(base, geometry.Seg(50, 20, 150, 20)), test.ShouldBeFalse)
	test.That(t, Similar(base, geometry.Seg(50, -50, 50, 50)), test.ShouldBeFalse)
}

func TestMerge(t *testing.T) {
	segs := []geometry.Segment{
		geometry.Seg(0, 100, 80, 101),
		geometry.Seg(300, 50, 301, 250),
		geometry.Seg(60, 100, 160, 100),
		geometry.Seg(150, 101, 250, 100),
	}

	merged := Merge(segs)
	test.That(t, len(merged), test.ShouldEqual, 2)

	h := merged[0]
	test.That(t, h.Vertical(), test.ShouldBeFalse)
	test.That(t, math.Abs(h.A.Y-100.5), test.ShouldBeLessThan, 1.5)
	test.That(t, math.Abs(h.B.Y-100.5), test.ShouldBeLessThan, 1.5)
	test.That(t, h.Length(), test.ShouldBeGreaterThan, 250.0)

	v := merged[1]
	test.That(t, v.Vertical(), test.ShouldBeTrue)
	test.That(t, math.Abs(v.A.X-300.5), test.ShouldBeLessThan, 1.5)
}

func TestUnionFind(t *testing.T) {
	u := newUnionFind(5)
	u.union(0, 1)
	u.union(1, 2)
	u.union(3, 4)
	test.That(t, u.find(0), test.ShouldEqual, u.find(2))
	test.That(t, u.find(3), test.ShouldEqual, u.find(4))
	test.That(t, u.find(0), test.ShouldNotEqual, u.find(3))
	test.That(t, u.root(0), test.ShouldBeFalse)
}

func TestThresholds(t *testing.T) {
	low, high := Thresholds(100)
	test.That(t, low, test.ShouldEqual, 75.0)
	test.That(t, high, test.ShouldEqual, 125.0)

	low, high = Thresholds(240)
	test.That(t, low, test.ShouldEqual, 180.0)
	test.That(t, high, test.ShouldEqual, 255.0)
}

func TestMedianAndGrayscale(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 1))
	img.Set(0, 0, color.RGBA{10, 10, 10, 255})
	img.Set(1, 0, color.RGBA{200, 200, 200, 255})
	img.Set(2, 0, color.RGBA{50, 50, 50, 255})

	g := Grayscale(img)
	test.That(t, g.GrayAt(1, 0).Y, test.ShouldEqual, uint8(200))
	test.That(t, Median(g), test.ShouldEqual, 50.0)
	test.That(t, Grayscale(g), test.ShouldEqual, g)
}

type fakePrims struct {
	equalized int
	edges     int
	fail      bool
	segs      []geometry.Segment
}

func (f *fakePrims) Equalize(gray *image.Gray, p Pass) (*image.Gray, error) {
	f.equalized++
	if f.fail {
		return nil, errors.New("no clahe")
	}
	return gray, nil
}

func (f *fakePrims) Edges(gray *image.Gray, low, high float64) (*image.Gray, error) {
	f.edges++
	return gray, nil
}

func (f *fakePrims) Segments(edges *image.Gray) ([]geometry.Segment, error) {
	return f.segs, nil
}

func TestExtractor(t *testing.T) {
	prims := &fakePrims{segs: []geometry.Segment{geometry.Seg(0, 10, 100, 10)}}
	e := NewExtractor(prims)
	img := image.NewGray(image.Rect(0, 0, 20, 20))

	raw, err := e.Raw(img)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(raw), test.ShouldEqual, 4)
	test.That(t, prims.equalized, test.ShouldEqual, 3)
	test.That(t, prims.edges, test.ShouldEqual, 4)

	merged, err := e.Extract(img)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(merged), test.ShouldEqual, 1)

	_, err = NewExtractor(&fakePrims{fail: true}).Extract(img)
	test.That(t, err, test.ShouldNotBeNil)
}
