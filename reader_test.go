package livefen

import (
	"context"
	"errors"
	"image"
	"testing"

	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/vision/classification"
	"go.viam.com/test"

	"livefen/internal/cluster"
	"livefen/internal/detect"
	"livefen/internal/fen"
	"livefen/internal/geometry"
	"livefen/internal/lines"
)

// blankPrims finds no lines and warps onto blank canvases.
type blankPrims struct{}

func (blankPrims) Equalize(gray *image.Gray, p lines.Pass) (*image.Gray, error) { return gray, nil }

func (blankPrims) Edges(gray *image.Gray, low, high float64) (*image.Gray, error) { return gray, nil }

func (blankPrims) Segments(edges *image.Gray) ([]geometry.Segment, error) { return nil, nil }

func (blankPrims) Warp(img image.Image, h geometry.Homography, size image.Point) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, size.X, size.Y)), nil
}

type acceptAll struct{}

func (acceptAll) IsLatticePoint(image.Image) bool { return true }

// constScorer calls every square empty, optionally failing on one of them.
type constScorer struct {
	fail  image.Image
	calls chan struct{}
}

func (s constScorer) Probabilities(ctx context.Context, square image.Image) ([]float64, error) {
	if s.calls != nil {
		s.calls <- struct{}{}
	}
	if s.fail != nil && square == s.fail {
		return nil, errors.New("camera unplugged")
	}
	p := make([]float64, fen.NumClasses)
	p[fen.EmptyClass] = 0.9
	return p, nil
}

func testPipeline(t *testing.T, scorer squareScorer) *pipeline {
	cfg := detect.DefaultConfig()
	cfg.Passes = []lines.Pass{{}}
	return &pipeline{
		prims:   blankPrims{},
		lattice: acceptAll{},
		scorer:  scorer,
		cfg:     cfg,
		logger:  logging.NewTestLogger(t),
	}
}

var squareCorners = [][]float64{{100, 100}, {500, 100}, {500, 500}, {100, 500}}

func TestPipelineRead(t *testing.T) {
	p := testPipeline(t, constScorer{})
	img := image.NewRGBA(image.Rect(0, 0, 600, 600))

	res, err := p.read(context.Background(), img, ReadCmd{PreviousCorners: squareCorners})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Found, test.ShouldBeTrue)
	test.That(t, res.Moved, test.ShouldBeFalse)
	// Nothing scores for a king, so both land on the first free squares.
	test.That(t, res.Board.String(), test.ShouldEqual, "Kk6/8/8/8/8/8/8/8")

	m := res.toMap()
	test.That(t, m["found"], test.ShouldEqual, true)
	test.That(t, m["fen"], test.ShouldEqual, "Kk6/8/8/8/8/8/8/8")
	test.That(t, len(m["grid"].([][]float64)), test.ShouldEqual, 49)
	corner := m["corners"].([][]float64)[2]
	test.That(t, corner[0], test.ShouldAlmostEqual, 500, 1e-6)
	test.That(t, corner[1], test.ShouldAlmostEqual, 500, 1e-6)
}

func TestPipelineReadNoBoard(t *testing.T) {
	p := testPipeline(t, constScorer{})
	res, err := p.read(context.Background(), image.NewRGBA(image.Rect(0, 0, 600, 600)), ReadCmd{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Found, test.ShouldBeFalse)
	test.That(t, res.toMap(), test.ShouldResemble, map[string]interface{}{"found": false})
}

func TestPipelineReadBadInput(t *testing.T) {
	p := testPipeline(t, constScorer{})
	img := image.NewRGBA(image.Rect(0, 0, 600, 600))

	_, err := p.read(context.Background(), img, ReadCmd{PreviousFEN: "not a board"})
	test.That(t, errors.Is(err, fen.ErrBadFEN), test.ShouldBeTrue)

	_, err = p.read(context.Background(), img, ReadCmd{PreviousCorners: squareCorners[:3]})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestClassifySquares(t *testing.T) {
	squares := make([]image.Image, 64)
	for i := range squares {
		squares[i] = image.NewGray(image.Rect(0, 0, 1, 1))
	}

	calls := make(chan struct{}, 64)
	probs, err := classifySquares(context.Background(), constScorer{calls: calls}, squares, 4)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(probs), test.ShouldEqual, 64)
	test.That(t, len(calls), test.ShouldEqual, 64)
	test.That(t, probs[63][fen.EmptyClass], test.ShouldEqual, 0.9)

	_, err = classifySquares(context.Background(), constScorer{fail: squares[5]}, squares, 0)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "square 5")
}

func TestClassOfLabel(t *testing.T) {
	for label, want := range map[string]int{"B": 0, "K": 1, "empty": 6, "_": 6, "r": 12, " q ": 11} {
		got, ok := classOfLabel(label)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, got, test.ShouldEqual, want)
	}
	for _, label := range []string{"", "x", "king"} {
		_, ok := classOfLabel(label)
		test.That(t, ok, test.ShouldBeFalse)
	}

	probs := probabilities(classification.Classifications{
		classification.NewClassification(0.7, "P"),
		classification.NewClassification(0.2, "empty"),
		classification.NewClassification(0.1, "bogus"),
	})
	test.That(t, len(probs), test.ShouldEqual, fen.NumClasses)
	test.That(t, probs[3], test.ShouldEqual, 0.7)
	test.That(t, probs[fen.EmptyClass], test.ShouldEqual, 0.2)
}

func TestReaderConfigValidate(t *testing.T) {
	cfg := &ReaderConfig{Camera: "cam", PieceClassifier: "pieces", LatticeClassifier: "lattice"}
	deps, _, err := cfg.Validate("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, deps, test.ShouldResemble, []string{"cam", "pieces", "lattice"})

	cfg = &ReaderConfig{Orientation: "sideways", ClusterMetric: "manhattan", Layers: -1}
	_, _, err = cfg.Validate("")
	test.That(t, err, test.ShouldNotBeNil)
	for _, msg := range []string{"camera", "piece-classifier", "sideways", "manhattan", "layers"} {
		test.That(t, err.Error(), test.ShouldContainSubstring, msg)
	}

	dc, err := (&ReaderConfig{ClusterMetric: "signed-sum", Layers: 5}).detectConfig()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dc.Layers, test.ShouldEqual, 5)
	test.That(t, dc.Quad.Metric(geometry.Pt(0, 0), geometry.Pt(3, 4)),
		test.ShouldEqual, cluster.SignedSum(geometry.Pt(0, 0), geometry.Pt(3, 4)))
}

func TestResetResponse(t *testing.T) {
	res := resetResponse([][2]string{{"f3", "g1"}, {"e4", "e2"}})
	test.That(t, res["done"], test.ShouldEqual, false)
	test.That(t, res["from"], test.ShouldEqual, "f3")
	test.That(t, res["to"], test.ShouldEqual, "g1")
	test.That(t, len(res["plan"].([]interface{})), test.ShouldEqual, 2)

	res = resetResponse(nil)
	test.That(t, res["done"], test.ShouldEqual, true)
	_, ok := res["from"]
	test.That(t, ok, test.ShouldBeFalse)
}

func pointsFrom(l [][]float64) []geometry.Point {
	pts, err := listToPoints(l)
	if err != nil {
		panic(err)
	}
	return pts
}
