package livefen

import (
	"context"
	"image"
	"image/color"
	"testing"

	"go.viam.com/rdk/logging"
	"go.viam.com/test"

	"livefen/internal/detect"
	"livefen/internal/fen"
	"livefen/internal/lines"
)

func countColor(img *image.RGBA, r image.Rectangle, c color.Color) int {
	want := color.RGBAModel.Convert(c).(color.RGBA)
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.RGBAAt(x, y) == want {
				n++
			}
		}
	}
	return n
}

func TestBoardDebugImage(t *testing.T) {
	canvas := image.NewRGBA(image.Rect(0, 0, detect.CanvasSize, detect.CanvasSize))

	out := BoardDebugImage(canvas, fen.BottomLeft)
	test.That(t, out.Bounds(), test.ShouldResemble, canvas.Bounds())
	want := color.RGBAModel.Convert(gridColor).(color.RGBA)
	test.That(t, out.RGBAAt(150, 700), test.ShouldResemble, want)
	test.That(t, out.RGBAAt(700, 1199), test.ShouldResemble, want)
	test.That(t, out.RGBAAt(75, 75), test.ShouldResemble, color.RGBA{})

	label := image.Rect(1, 1, 40, 20)
	// a8 is light.
	test.That(t, countColor(out, label, lightLabel), test.ShouldBeGreaterThan, 0)
	test.That(t, countColor(out, label, darkLabel), test.ShouldEqual, 0)

	// With a1 in the bottom right the top left square is h8, which is dark.
	out = BoardDebugImage(canvas, fen.BottomRight)
	test.That(t, countColor(out, label, darkLabel), test.ShouldBeGreaterThan, 0)
	test.That(t, countColor(out, label, lightLabel), test.ShouldEqual, 0)
}

func TestBoardCameraRender(t *testing.T) {
	logger := logging.NewTestLogger(t)
	cfg := detect.DefaultConfig()
	cfg.Passes = []lines.Pass{{}}
	bc := &BoardCamera{
		logger:   logger,
		prims:    blankPrims{},
		detector: detect.New(blankPrims{}, acceptAll{}, cfg, logger),
	}

	src := image.NewRGBA(image.Rect(0, 0, 600, 600))
	out, err := bc.render(src)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.Bounds(), test.ShouldResemble, src.Bounds())

	res, err := bc.DoCommand(context.Background(), map[string]interface{}{"corners": true})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res["found"], test.ShouldEqual, false)

	bc.corners = pointsFrom(squareCorners)
	out, err = bc.render(src)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.Bounds().Dx(), test.ShouldEqual, detect.CanvasSize)

	res, err = bc.DoCommand(context.Background(), map[string]interface{}{"corners": true})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res["found"], test.ShouldEqual, true)
	test.That(t, len(res["corners"].([][]float64)), test.ShouldEqual, 4)

	_, err = bc.DoCommand(context.Background(), map[string]interface{}{"bogus": 1})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestBoardCameraConfigValidate(t *testing.T) {
	deps, _, err := (&BoardCameraConfig{Input: "cam", Orientation: "top-right"}).Validate("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, deps, test.ShouldResemble, []string{"cam"})

	_, _, err = (&BoardCameraConfig{}).Validate("")
	test.That(t, err, test.ShouldNotBeNil)
	_, _, err = (&BoardCameraConfig{Input: "cam", Orientation: "left"}).Validate("")
	test.That(t, err, test.ShouldNotBeNil)
}
