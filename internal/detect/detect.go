// Package detect locates a chessboard and its interior lattice in a
// photograph by refining the crop over several layers.
package detect

import (
	"image"
	"math"

	"github.com/golang/geo/r2"
	"golang.org/x/image/draw"

	"go.viam.com/rdk/logging"

	"livefen/internal/geometry"
	"livefen/internal/lines"
	"livefen/internal/quad"
	"livefen/internal/sweep"
)

const (
	// CanvasSize is the side of the square every crop is warped onto.
	CanvasSize = 1200
	// CellSize is one board square on the canvas.
	CellSize = CanvasSize / 8
)

// LatticeTester decides whether a small patch is centred on a grid
// intersection. Patches keep the coordinates of the image they came from.
type LatticeTester interface {
	IsLatticePoint(patch image.Image) bool
}

// Warper applies a perspective transform, producing an image of size.
type Warper interface {
	Warp(img image.Image, h geometry.Homography, size image.Point) (image.Image, error)
}

// Primitives bundles every raster operation detection needs.
type Primitives interface {
	lines.Primitives
	Warper
}

type Config struct {
	// Layers caps the detection attempts per frame.
	Layers int
	// MaxSegments and MaxPoints abort a layer that is too noisy to search.
	MaxSegments int
	MaxPoints   int
	// WorkingArea is the pixel count images are scaled to before searching.
	WorkingArea float64
	// PatchRadius is the half side of the patch handed to the lattice test.
	PatchRadius int
	// MinLatticeHits of the 49 interior points must pass for a previous
	// frame's corners to be reused.
	MinLatticeHits int
	// MergeRadius merges lattice points closer than it; zero disables.
	MergeRadius float64
	Quad        quad.Options
	Passes      []lines.Pass
}

func DefaultConfig() Config {
	return Config{
		Layers:         3,
		MaxSegments:    200,
		MaxPoints:      200,
		WorkingArea:    500 * 500,
		PatchRadius:    10,
		MinLatticeHits: 20,
		Quad:           quad.DefaultOptions(),
		Passes:         lines.DefaultPasses(),
	}
}

// Layer is one successful crop.
type Layer struct {
	// Corners frame the board in this layer's input image.
	Corners [4]geometry.Point
	// Crop is the padded quadrilateral warped onto the canvas.
	Crop [4]geometry.Point
	// ToCanvas maps the layer's input image onto the canvas.
	ToCanvas geometry.Homography
	// Seeded layers reuse the previous frame's corners.
	Seeded bool
}

// Geometry is the detection result in the input image's coordinates.
type Geometry struct {
	Layers []Layer
	// Corners are top-left, top-right, bottom-right, bottom-left.
	Corners [4]geometry.Point
	// Grid holds the 49 interior intersections, row by row from the top.
	Grid  []geometry.Point
	Found bool
}

type Detector struct {
	prims     Primitives
	lattice   LatticeTester
	cfg       Config
	logger    logging.Logger
	extractor *lines.Extractor
}

// New builds a detector. A nil lattice tester accepts every intersection.
func New(prims Primitives, lattice LatticeTester, cfg Config, logger logging.Logger) *Detector {
	if logger == nil {
		logger = logging.NewLogger("detect")
	}
	ex := lines.NewExtractor(prims)
	if cfg.Passes != nil {
		ex.Passes = cfg.Passes
	}
	return &Detector{
		prims:     prims,
		lattice:   lattice,
		cfg:       cfg,
		logger:    logger,
		extractor: ex,
	}
}

// Detect runs the layered search. previous, when it holds four corners
// that still sit on a board, seeds the first layer. Detection failure is
// reported through Found, never as an error.
func (d *Detector) Detect(img image.Image, previous []geometry.Point) Geometry {
	var layers []Layer
	cur := img

	if len(previous) == 4 {
		prev := [4]geometry.Point(previous)
		if d.CheckBoardPosition(img, prev) {
			l, next, err := d.crop(img, prev, prev)
			if err == nil {
				l.Seeded = true
				layers = append(layers, l)
				cur = next
				d.logger.Debugf("reusing previous corners %v", prev)
			} else {
				d.logger.Warnf("cannot crop to previous corners: %v", err)
			}
		}
	}

	for i := 0; i < d.cfg.Layers; i++ {
		l, next, ok := d.layer(cur, i)
		if !ok {
			break
		}
		layers = append(layers, l)
		cur = next
	}

	return d.finish(layers)
}

func (d *Detector) layer(img image.Image, n int) (Layer, image.Image, bool) {
	scale := math.Sqrt(d.cfg.WorkingArea / float64(img.Bounds().Dx()*img.Bounds().Dy()))
	work := Resize(img, scale)

	segs, err := d.extractor.Extract(work)
	if err != nil {
		d.logger.Warnf("layer %d: line extraction failed: %v", n, err)
		return Layer{}, nil, false
	}
	if len(segs) > d.cfg.MaxSegments {
		d.logger.Debugf("layer %d: %d segments, giving up", n, len(segs))
		return Layer{}, nil, false
	}

	pts := d.LatticePoints(work, segs)
	if len(pts) > d.cfg.MaxPoints {
		d.logger.Debugf("layer %d: %d lattice points, giving up", n, len(pts))
		return Layer{}, nil, false
	}

	res, ok := quad.Search(pts, segs, rectOf(work), d.cfg.Quad)
	if !ok {
		d.logger.Debugf("layer %d: no board among %d segments and %d points", n, len(segs), len(pts))
		return Layer{}, nil, false
	}

	var corners, padded [4]geometry.Point
	for i := range corners {
		corners[i] = res.Corners[i].Mul(1 / scale)
		padded[i] = res.Padded[i].Mul(1 / scale)
	}
	l, next, err := d.crop(img, corners, padded)
	if err != nil {
		d.logger.Warnf("layer %d: %v", n, err)
		return Layer{}, nil, false
	}
	d.logger.Debugf("layer %d: board at %v (score %g)", n, corners, res.Score)
	return l, next, true
}

func (d *Detector) crop(img image.Image, corners, padded [4]geometry.Point) (Layer, image.Image, error) {
	h, err := geometry.PerspectiveTransform(padded, geometry.SquareCorners(CanvasSize))
	if err != nil {
		return Layer{}, nil, err
	}
	canvas, err := d.prims.Warp(img, h, image.Pt(CanvasSize, CanvasSize))
	if err != nil {
		return Layer{}, nil, err
	}
	return Layer{Corners: corners, Crop: padded, ToCanvas: h}, canvas, nil
}

// finish maps the last layer's board back through every earlier crop.
func (d *Detector) finish(layers []Layer) Geometry {
	g := Geometry{Layers: layers}
	if len(layers) == 0 {
		return g
	}

	back := geometry.Identity()
	for k := len(layers) - 2; k >= 0; k-- {
		inv, err := layers[k].ToCanvas.Inverse()
		if err != nil {
			d.logger.Warnf("layer %d transform is not invertible: %v", k, err)
			return Geometry{Layers: layers}
		}
		back = back.Then(inv)
	}

	last := layers[len(layers)-1]
	for i, c := range last.Corners {
		g.Corners[i] = back.Apply(c)
	}

	board, err := geometry.SquareTo(CanvasSize, last.Corners)
	if err != nil {
		d.logger.Warnf("board transform: %v", err)
		return Geometry{Layers: layers}
	}
	g.Grid = board.Then(back).ApplyAll(GridTemplate())
	g.Found = true
	return g
}

// GridTemplate lists the 49 interior intersections of the canvas.
func GridTemplate() []geometry.Point {
	out := make([]geometry.Point, 0, 49)
	for row := 1; row < 8; row++ {
		for col := 1; col < 8; col++ {
			out = append(out, geometry.Pt(float64(col*CellSize), float64(row*CellSize)))
		}
	}
	return out
}

// CheckBoardPosition warps img to corners and counts interior lattice
// points that still pass the lattice test.
func (d *Detector) CheckBoardPosition(img image.Image, corners [4]geometry.Point) bool {
	if d.lattice == nil {
		return false
	}
	h, err := geometry.PerspectiveTransform(corners, geometry.SquareCorners(CanvasSize))
	if err != nil {
		return false
	}
	canvas, err := d.prims.Warp(img, h, image.Pt(CanvasSize, CanvasSize))
	if err != nil {
		d.logger.Warnf("check board position: %v", err)
		return false
	}
	hits := 0
	for _, p := range GridTemplate() {
		if patch := Patch(canvas, p, d.cfg.PatchRadius); patch != nil && d.lattice.IsLatticePoint(patch) {
			hits++
		}
	}
	return hits >= d.cfg.MinLatticeHits
}

// LatticePoints intersects segs and keeps the crossings inside img that
// pass the lattice test.
func (d *Detector) LatticePoints(img image.Image, segs []geometry.Segment) []geometry.Point {
	bounds := rectOf(img)
	var out []geometry.Point
	for _, p := range sweep.Intersections(segs) {
		if !bounds.ContainsPoint(p) {
			continue
		}
		if d.lattice != nil {
			patch := Patch(img, p, d.cfg.PatchRadius)
			if patch == nil || !d.lattice.IsLatticePoint(patch) {
				continue
			}
		}
		out = append(out, p)
	}
	if d.cfg.MergeRadius > 0 {
		out = MergeNearby(out, d.cfg.MergeRadius)
	}
	return out
}

// MergeNearby folds each point into the first running average closer
// than radius.
func MergeNearby(pts []geometry.Point, radius float64) []geometry.Point {
	type group struct {
		mean geometry.Point
		n    float64
	}
	var groups []*group
	for _, p := range pts {
		var hit *group
		for _, g := range groups {
			if g.mean.Sub(p).Norm() < radius {
				hit = g
				break
			}
		}
		if hit == nil {
			groups = append(groups, &group{mean: p, n: 1})
			continue
		}
		hit.mean = geometry.Pt(
			(hit.mean.X*hit.n+p.X)/(hit.n+1),
			(hit.mean.Y*hit.n+p.Y)/(hit.n+1),
		)
		hit.n++
	}
	out := make([]geometry.Point, len(groups))
	for i, g := range groups {
		out[i] = g.mean
	}
	return out
}

// Patch copies the square of side 2r+1 centred on p, clipped to img.
// It returns nil when nothing of the square lies inside img.
func Patch(img image.Image, p geometry.Point, r int) image.Image {
	cx, cy := int(p.X), int(p.Y)
	rect := image.Rect(cx-r, cy-r, cx+r+1, cy+r+1).Intersect(img.Bounds())
	if rect.Empty() {
		return nil
	}
	dst := image.NewRGBA(rect)
	draw.Draw(dst, rect, img, rect.Min, draw.Src)
	return dst
}

// Resize scales img by factor with bilinear sampling.
func Resize(img image.Image, factor float64) image.Image {
	b := img.Bounds()
	w := max(1, int(math.Round(float64(b.Dx())*factor)))
	h := max(1, int(math.Round(float64(b.Dy())*factor)))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func rectOf(img image.Image) r2.Rect {
	b := img.Bounds()
	return r2.RectFromPoints(
		geometry.Pt(float64(b.Min.X), float64(b.Min.Y)),
		geometry.Pt(float64(b.Max.X), float64(b.Max.Y)),
	)
}
