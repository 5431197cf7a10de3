package livefen

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"go.viam.com/rdk/components/camera"
	"go.viam.com/rdk/data"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/pointcloud"
	"go.viam.com/rdk/resource"
	"go.viam.com/rdk/spatialmath"

	"livefen/internal/cvimage"
	"livefen/internal/detect"
	"livefen/internal/fen"
	"livefen/internal/geometry"
)

var BoardCameraModel = family.WithModel("board-camera")

func init() {
	resource.RegisterComponent(camera.API, BoardCameraModel,
		resource.Registration[camera.Camera, *BoardCameraConfig]{
			Constructor: newBoardCamera,
		},
	)
}

type BoardCameraConfig struct {
	Input       string
	Orientation string `json:"orientation,omitempty"`
}

func (cfg *BoardCameraConfig) Validate(path string) ([]string, []string, error) {
	if cfg.Input == "" {
		return nil, nil, fmt.Errorf("need an input")
	}
	if _, err := fen.ParseOrientation(cfg.Orientation); err != nil {
		return nil, nil, err
	}
	return []string{cfg.Input}, nil, nil
}

func newBoardCamera(ctx context.Context, deps resource.Dependencies, rawConf resource.Config, logger logging.Logger) (camera.Camera, error) {
	conf, err := resource.NativeConfig[*BoardCameraConfig](rawConf)
	if err != nil {
		return nil, err
	}

	return NewBoardCamera(ctx, deps, rawConf.ResourceName(), conf, logger)
}

func NewBoardCamera(ctx context.Context, deps resource.Dependencies, name resource.Name, conf *BoardCameraConfig, logger logging.Logger) (camera.Camera, error) {
	var err error

	bc := &BoardCamera{
		name:   name,
		conf:   conf,
		logger: logger,
		prims:  cvimage.Primitives{},
	}

	bc.orientation, err = fen.ParseOrientation(conf.Orientation)
	if err != nil {
		return nil, err
	}
	bc.detector = detect.New(bc.prims, cvimage.NewLatticeTester(nil, logger), detect.DefaultConfig(), logger)

	bc.input, err = camera.FromProvider(deps, conf.Input)
	if err != nil {
		return nil, err
	}

	return bc, nil
}

// BoardCamera shows the input camera's board rectified, with the squares
// outlined and named.
type BoardCamera struct {
	resource.AlwaysRebuild
	resource.TriviallyCloseable

	name   resource.Name
	conf   *BoardCameraConfig
	logger logging.Logger

	input       camera.Camera
	prims       detect.Primitives
	detector    *detect.Detector
	orientation fen.Orientation

	mu      sync.Mutex
	corners []geometry.Point
}

func (bc *BoardCamera) Image(ctx context.Context, mimeType string, extra map[string]interface{}) ([]byte, camera.ImageMetadata, error) {
	return camera.GetImageFromGetImages(ctx, nil, bc, extra, nil)
}

func (bc *BoardCamera) Images(ctx context.Context, filterSourceNames []string, extra map[string]interface{}) ([]camera.NamedImage, resource.ResponseMetadata, error) {
	ni, rm, err := bc.input.Images(ctx, nil, extra)
	if err != nil {
		return nil, rm, err
	}

	if len(ni) == 0 {
		return nil, rm, fmt.Errorf("no images returned from input camera")
	}

	srcImg, err := ni[0].Image(ctx)
	if err != nil {
		return nil, rm, err
	}

	dst, err := bc.render(srcImg)
	if err != nil {
		return nil, rm, err
	}

	result, err := camera.NamedImageFromImage(dst, ni[0].SourceName, "", data.Annotations{})
	if err != nil {
		return nil, rm, err
	}
	return []camera.NamedImage{result}, rm, nil
}

// render returns the rectified board, or the input marked as boardless.
func (bc *BoardCamera) render(srcImg image.Image) (image.Image, error) {
	bc.mu.Lock()
	previous := bc.corners
	bc.mu.Unlock()

	g := bc.detector.Detect(srcImg, previous)

	bc.mu.Lock()
	if g.Found {
		bc.corners = g.Corners[:]
	} else {
		bc.corners = nil
	}
	bc.mu.Unlock()

	if !g.Found {
		dst := image.NewRGBA(srcImg.Bounds())
		draw.Draw(dst, dst.Bounds(), srcImg, dst.Bounds().Min, draw.Src)
		drawString(dst, dst.Bounds().Min.X+10, dst.Bounds().Min.Y+20, "no board", colorful.Hsv(0, 1, 1))
		return dst, nil
	}

	canvas, err := detect.Rectify(bc.prims, srcImg, g.Corners)
	if err != nil {
		return nil, err
	}
	return BoardDebugImage(canvas, bc.orientation), nil
}

var (
	gridColor  = colorful.Hsv(120, 1, 1)
	lightLabel = colorful.Hsv(240, 1, 0.6)
	darkLabel  = colorful.Hsv(60, 1, 1)
)

// BoardDebugImage outlines the 64 squares of a rectified canvas and writes
// each square's name into its corner.
func BoardDebugImage(canvas image.Image, o fen.Orientation) *image.RGBA {
	bounds := canvas.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), canvas, bounds.Min, draw.Src)

	width := dst.Bounds().Dx()
	height := dst.Bounds().Dy()

	for i := 0; i <= 8; i++ {
		x := min(width*i/8, width-1)
		for y := 0; y < height; y++ {
			dst.Set(x, y, gridColor)
		}
	}
	for i := 0; i <= 8; i++ {
		y := min(height*i/8, height-1)
		for x := 0; x < width; x++ {
			dst.Set(x, y, gridColor)
		}
	}

	squares := make([]int, 64)
	for i := range squares {
		squares[i] = i
	}
	// every orientation is a permutation, so this can't fail
	byImage, _ := fen.ToImage(squares, o)
	for j, sq := range byImage {
		c := color.Color(darkLabel)
		if fen.IsLightSquare(sq) {
			c = lightLabel
		}
		x := width * (j % 8) / 8
		y := height * (j / 8) / 8
		drawString(dst, x+5, y+15, fen.Square(sq), c)
	}

	return dst
}

func drawString(dst *image.RGBA, x, y int, s string, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(s)
}

// DoCommand reports the corners of the last board seen.
func (bc *BoardCamera) DoCommand(ctx context.Context, cmd map[string]interface{}) (map[string]interface{}, error) {
	if _, ok := cmd["corners"]; !ok {
		return nil, fmt.Errorf("bad cmd %v", cmd)
	}
	bc.mu.Lock()
	defer bc.mu.Unlock()
	if bc.corners == nil {
		return map[string]interface{}{"found": false}, nil
	}
	return map[string]interface{}{"found": true, "corners": pointsToList(bc.corners)}, nil
}

func (bc *BoardCamera) NextPointCloud(ctx context.Context, extra map[string]interface{}) (pointcloud.PointCloud, error) {
	return nil, fmt.Errorf("NextPointCloud not supported")
}

func (bc *BoardCamera) Properties(ctx context.Context) (camera.Properties, error) {
	return camera.Properties{}, nil
}

func (bc *BoardCamera) Geometries(ctx context.Context, extra map[string]interface{}) ([]spatialmath.Geometry, error) {
	return nil, nil
}

func (bc *BoardCamera) Name() resource.Name {
	return bc.name
}
