// Package cvimage implements the raster primitives of board detection with
// OpenCV.
package cvimage

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"gocv.io/x/gocv"

	"livefen/internal/detect"
	"livefen/internal/geometry"
	"livefen/internal/lines"
)

var _ detect.Primitives = Primitives{}

// Primitives is stateless; the zero value is ready to use.
type Primitives struct{}

// Equalize applies CLAHE p.Iterations times.
func (Primitives) Equalize(gray *image.Gray, p lines.Pass) (*image.Gray, error) {
	src, err := grayMat(gray)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	clahe := gocv.NewCLAHEWithParams(p.ClipLimit, p.Grid)
	defer clahe.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	for i := 0; i < p.Iterations; i++ {
		clahe.Apply(src, &dst)
		dst.CopyTo(&src)
	}
	return toGray(src)
}

// Edges blurs and runs Canny.
func (Primitives) Edges(gray *image.Gray, low, high float64) (*image.Gray, error) {
	src, err := grayMat(gray)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(src, &blurred, image.Pt(7, 7), 2, 2, gocv.BorderDefault)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blurred, &edges, float32(low), float32(high))
	return toGray(edges)
}

// Segments runs the probabilistic Hough transform.
func (Primitives) Segments(edges *image.Gray) ([]geometry.Segment, error) {
	src, err := grayMat(edges)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	found := gocv.NewMat()
	defer found.Close()
	gocv.HoughLinesPWithParams(src, &found, 1, float32(math.Pi/180), 40, 50, 15)

	segs := make([]geometry.Segment, 0, found.Rows())
	for i := 0; i < found.Rows(); i++ {
		v := found.GetVeciAt(i, 0)
		segs = append(segs, geometry.Seg(float64(v[0]), float64(v[1]), float64(v[2]), float64(v[3])))
	}
	return segs, nil
}

// Warp applies h and renders size pixels of the result.
func (Primitives) Warp(img image.Image, h geometry.Homography, size image.Point) (image.Image, error) {
	src, err := gocv.ImageToMatRGB(normalize(img))
	if err != nil {
		return nil, fmt.Errorf("warp: %w", err)
	}
	defer src.Close()

	m := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	defer m.Close()
	rm := h.RowMajor()
	for i, v := range rm {
		m.SetDoubleAt(i/3, i%3, v)
	}

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.WarpPerspective(src, &dst, m, size)
	return dst.ToImage()
}

// normalize returns img with its bounds starting at the origin.
func normalize(img image.Image) image.Image {
	b := img.Bounds()
	if b.Min == (image.Point{}) {
		return img
	}
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

func grayMat(g *image.Gray) (gocv.Mat, error) {
	if g.Bounds().Min != (image.Point{}) {
		g = lines.Grayscale(normalize(g))
	}
	m, err := gocv.ImageGrayToMatGray(g)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("gray mat: %w", err)
	}
	return m, nil
}

func toGray(m gocv.Mat) (*image.Gray, error) {
	img, err := m.ToImage()
	if err != nil {
		return nil, err
	}
	return lines.Grayscale(img), nil
}

// whiteBorder is the constant used to frame lattice patches.
var whiteBorder = color.RGBA{R: 255, G: 255, B: 255, A: 255}
