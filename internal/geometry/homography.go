package geometry

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrDegenerate is returned when a transform cannot be solved or inverted.
var ErrDegenerate = errors.New("degenerate perspective transform")

// Homography is a 3x3 projective transform acting on column vectors.
type Homography struct {
	m *mat.Dense
}

// Identity returns the identity transform.
func Identity() Homography {
	return Homography{m: mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})}
}

// NewHomography wraps a row-major 3x3 matrix.
func NewHomography(rowMajor [9]float64) Homography {
	data := make([]float64, 9)
	copy(data, rowMajor[:])
	return Homography{m: mat.NewDense(3, 3, data)}
}

// PerspectiveTransform solves for the transform mapping each src[i] to dst[i].
func PerspectiveTransform(src, dst [4]Point) (Homography, error) {
	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y
		a.SetRow(2*i, []float64{x, y, 1, 0, 0, 0, -x * u, -y * u})
		a.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1, -x * v, -y * v})
		b.SetVec(2*i, u)
		b.SetVec(2*i+1, v)
	}

	var h mat.VecDense
	if err := usable(h.SolveVec(a, b)); err != nil {
		return Homography{}, err
	}
	var rm [9]float64
	for i := 0; i < 8; i++ {
		rm[i] = h.AtVec(i)
	}
	rm[8] = 1
	return NewHomography(rm), nil
}

// SquareTo maps the square [0,side]² (corners clockwise from the origin)
// onto the quadrilateral tl, tr, br, bl.
func SquareTo(side float64, quad [4]Point) (Homography, error) {
	return PerspectiveTransform(SquareCorners(side), quad)
}

// SquareCorners lists the corners of [0,side]² as top-left, top-right,
// bottom-right, bottom-left.
func SquareCorners(side float64) [4]Point {
	return [4]Point{Pt(0, 0), Pt(side, 0), Pt(side, side), Pt(0, side)}
}

// usable tolerates a finite condition warning; the result is still computed.
func usable(err error) error {
	if err == nil {
		return nil
	}
	var c mat.Condition
	if errors.As(err, &c) && !math.IsInf(float64(c), 0) {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrDegenerate, err)
}

// Apply maps p through the transform.
func (h Homography) Apply(p Point) Point {
	m := h.m
	w := m.At(2, 0)*p.X + m.At(2, 1)*p.Y + m.At(2, 2)
	if w == 0 {
		w = 1e-12
	}
	return Point{
		X: (m.At(0, 0)*p.X + m.At(0, 1)*p.Y + m.At(0, 2)) / w,
		Y: (m.At(1, 0)*p.X + m.At(1, 1)*p.Y + m.At(1, 2)) / w,
	}
}

// ApplyAll maps every point through the transform.
func (h Homography) ApplyAll(pts []Point) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = h.Apply(p)
	}
	return out
}

func (h Homography) Inverse() (Homography, error) {
	var inv mat.Dense
	if err := usable(inv.Inverse(h.m)); err != nil {
		return Homography{}, err
	}
	return Homography{m: &inv}, nil
}

// Then returns the transform that applies h first and next second.
func (h Homography) Then(next Homography) Homography {
	var out mat.Dense
	out.Mul(next.m, h.m)
	return Homography{m: &out}
}

// RowMajor returns the matrix entries normalised so the last one is 1
// where possible.
func (h Homography) RowMajor() [9]float64 {
	var out [9]float64
	s := h.m.At(2, 2)
	if s == 0 {
		s = 1
	}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r*3+c] = h.m.At(r, c) / s
		}
	}
	return out
}
