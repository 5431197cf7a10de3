// Package lines turns a photograph into the long straight segments of the
// board grid.
package lines

import (
	"fmt"
	"image"
	"math"
	"sort"

	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/stat"

	"livefen/internal/geometry"
)

// Pass is one contrast enhancement setting. A zero ClipLimit leaves the
// grayscale image untouched.
type Pass struct {
	ClipLimit  float64
	Grid       image.Point
	Iterations int
}

func (p Pass) noop() bool {
	return p.ClipLimit <= 0 || p.Iterations <= 0 || p.Grid.X <= 0 || p.Grid.Y <= 0
}

// DefaultPasses favours tall tiles, then wide tiles, then a strong square
// grid, then the raw image.
func DefaultPasses() []Pass {
	return []Pass{
		{ClipLimit: 3, Grid: image.Pt(2, 6), Iterations: 5},
		{ClipLimit: 3, Grid: image.Pt(6, 2), Iterations: 5},
		{ClipLimit: 5, Grid: image.Pt(3, 3), Iterations: 5},
		{},
	}
}

// Primitives are the raster operations the extractor is built on.
type Primitives interface {
	// Equalize applies contrast limited adaptive histogram equalisation
	// Iterations times.
	Equalize(gray *image.Gray, p Pass) (*image.Gray, error)
	// Edges blurs and runs Canny with the given hysteresis thresholds.
	Edges(gray *image.Gray, low, high float64) (*image.Gray, error)
	// Segments runs the probabilistic Hough transform.
	Segments(edges *image.Gray) ([]geometry.Segment, error)
}

type Extractor struct {
	Prims  Primitives
	Passes []Pass
}

// NewExtractor uses the default passes.
func NewExtractor(prims Primitives) *Extractor {
	return &Extractor{Prims: prims, Passes: DefaultPasses()}
}

// Raw collects the unmerged Hough segments of every pass.
func (e *Extractor) Raw(img image.Image) ([]geometry.Segment, error) {
	gray := Grayscale(img)
	var all []geometry.Segment
	for _, p := range e.Passes {
		src := gray
		if !p.noop() {
			var err error
			src, err = e.Prims.Equalize(gray, p)
			if err != nil {
				return nil, fmt.Errorf("equalize %+v: %w", p, err)
			}
		}
		low, high := Thresholds(Median(src))
		edges, err := e.Prims.Edges(src, low, high)
		if err != nil {
			return nil, fmt.Errorf("edges: %w", err)
		}
		segs, err := e.Prims.Segments(edges)
		if err != nil {
			return nil, fmt.Errorf("segments: %w", err)
		}
		all = append(all, segs...)
	}
	return all, nil
}

// Extract returns the merged grid line candidates found in img.
func (e *Extractor) Extract(img image.Image) ([]geometry.Segment, error) {
	raw, err := e.Raw(img)
	if err != nil {
		return nil, err
	}
	return Merge(raw), nil
}

// Grayscale converts img, reusing it when it already is gray.
func Grayscale(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	g := image.NewGray(b)
	draw.Draw(g, b, img, b.Min, draw.Src)
	return g
}

// Median intensity of the image.
func Median(g *image.Gray) float64 {
	b := g.Bounds()
	vals := make([]float64, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			vals = append(vals, float64(g.GrayAt(x, y).Y))
		}
	}
	if len(vals) == 0 {
		return 0
	}
	sort.Float64s(vals)
	return stat.Quantile(0.5, stat.Empirical, vals, nil)
}

// Thresholds brackets the median by a quarter either way.
func Thresholds(median float64) (low, high float64) {
	const sigma = 0.25
	return math.Max(0, (1-sigma)*median), math.Min(255, (1+sigma)*median)
}
