package livefen

import (
	"context"
	"fmt"
	"image"
	"runtime"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"go.viam.com/rdk/components/camera"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/resource"
	generic "go.viam.com/rdk/services/generic"
	"go.viam.com/rdk/services/vision"
	"go.viam.com/utils/trace"

	"livefen/internal/assign"
	"livefen/internal/cluster"
	"livefen/internal/cvimage"
	"livefen/internal/detect"
	"livefen/internal/fen"
	"livefen/internal/geometry"
)

var ReaderModel = family.WithModel("board-reader")

func init() {
	resource.RegisterService(generic.API, ReaderModel,
		resource.Registration[resource.Resource, *ReaderConfig]{
			Constructor: newBoardReader,
		},
	)
}

type ReaderConfig struct {
	Camera            string
	PieceClassifier   string `json:"piece-classifier"`
	LatticeClassifier string `json:"lattice-classifier,omitempty"`

	// Orientation is the corner of the image holding a1, e.g. "bottom-left".
	Orientation   string `json:"orientation,omitempty"`
	ClusterMetric string `json:"cluster-metric,omitempty"`
	Layers        int    `json:"layers,omitempty"`
}

func (cfg *ReaderConfig) Validate(path string) ([]string, []string, error) {
	var err error
	if cfg.Camera == "" {
		err = multierr.Append(err, fmt.Errorf("need a camera"))
	}
	if cfg.PieceClassifier == "" {
		err = multierr.Append(err, fmt.Errorf("need a piece-classifier"))
	}
	if _, e := fen.ParseOrientation(cfg.Orientation); e != nil {
		err = multierr.Append(err, e)
	}
	if _, e := cluster.MetricByName(cfg.ClusterMetric); e != nil {
		err = multierr.Append(err, e)
	}
	if cfg.Layers < 0 {
		err = multierr.Append(err, fmt.Errorf("layers can't be negative"))
	}
	if err != nil {
		return nil, nil, err
	}

	deps := []string{cfg.Camera, cfg.PieceClassifier}
	if cfg.LatticeClassifier != "" {
		deps = append(deps, cfg.LatticeClassifier)
	}
	return deps, nil, nil
}

// detectConfig folds the optional settings into the detector defaults.
func (cfg *ReaderConfig) detectConfig() (detect.Config, error) {
	dc := detect.DefaultConfig()
	m, err := cluster.MetricByName(cfg.ClusterMetric)
	if err != nil {
		return dc, err
	}
	dc.Quad.Metric = m
	if cfg.Layers > 0 {
		dc.Layers = cfg.Layers
	}
	return dc, nil
}

// squareScorer returns the 13 class probabilities for one square crop.
type squareScorer interface {
	Probabilities(ctx context.Context, square image.Image) ([]float64, error)
}

type boardReader struct {
	resource.AlwaysRebuild
	resource.TriviallyCloseable

	name   resource.Name
	conf   *ReaderConfig
	logger logging.Logger

	cam     camera.Camera
	pieces  vision.Service
	lattice vision.Service

	orientation fen.Orientation
	detectCfg   detect.Config
}

func newBoardReader(ctx context.Context, deps resource.Dependencies, rawConf resource.Config, logger logging.Logger) (resource.Resource, error) {
	conf, err := resource.NativeConfig[*ReaderConfig](rawConf)
	if err != nil {
		return nil, err
	}

	return NewBoardReader(ctx, deps, rawConf.ResourceName(), conf, logger)
}

func NewBoardReader(ctx context.Context, deps resource.Dependencies, name resource.Name, conf *ReaderConfig, logger logging.Logger) (resource.Resource, error) {
	var err error

	r := &boardReader{
		name:   name,
		conf:   conf,
		logger: logger,
	}

	r.orientation, err = fen.ParseOrientation(conf.Orientation)
	if err != nil {
		return nil, err
	}
	r.detectCfg, err = conf.detectConfig()
	if err != nil {
		return nil, err
	}

	r.cam, err = camera.FromProvider(deps, conf.Camera)
	if err != nil {
		return nil, err
	}
	r.pieces, err = vision.FromProvider(deps, conf.PieceClassifier)
	if err != nil {
		return nil, err
	}
	if conf.LatticeClassifier != "" {
		r.lattice, err = vision.FromProvider(deps, conf.LatticeClassifier)
		if err != nil {
			return nil, err
		}
	}

	return r, nil
}

func (r *boardReader) Name() resource.Name {
	return r.name
}

// ----

type ReadCmd struct {
	PreviousFEN     string      `mapstructure:"previous_fen"`
	PreviousCorners [][]float64 `mapstructure:"previous_corners"`
}

type ResetCmd struct {
	FEN       string
	Graveyard string
}

type readerCmd struct {
	Read  *ReadCmd
	Reset *ResetCmd
}

func (r *boardReader) DoCommand(ctx context.Context, cmdMap map[string]interface{}) (map[string]interface{}, error) {
	var cmd readerCmd
	err := mapstructure.Decode(cmdMap, &cmd)
	if err != nil {
		return nil, err
	}

	switch {
	case cmd.Read != nil:
		img, err := r.capture(ctx)
		if err != nil {
			return nil, err
		}
		p := &pipeline{
			prims:       cvimage.Primitives{},
			scorer:      squareClassifier{r.pieces},
			cfg:         r.detectCfg,
			orientation: r.orientation,
			logger:      r.logger,
		}
		var fallback cvimage.Classifier
		if r.lattice != nil {
			fallback = latticeClassifier{ctx, r.lattice}
		}
		p.lattice = cvimage.NewLatticeTester(fallback, r.logger)
		res, err := p.read(ctx, img, *cmd.Read)
		if err != nil {
			return nil, err
		}
		return res.toMap(), nil

	case cmd.Reset != nil:
		b, err := fen.Decode(cmd.Reset.FEN)
		if err != nil {
			return nil, err
		}
		plan, err := ResetPlan(b, cmd.Reset.Graveyard)
		if err != nil {
			return nil, err
		}
		return resetResponse(plan), nil
	}

	return nil, fmt.Errorf("bad cmd %v", cmdMap)
}

func (r *boardReader) capture(ctx context.Context) (image.Image, error) {
	ni, _, err := r.cam.Images(ctx, nil, nil)
	if err != nil {
		return nil, err
	}
	if len(ni) == 0 {
		return nil, fmt.Errorf("no images returned from camera %s", r.conf.Camera)
	}
	return ni[0].Image(ctx)
}

func resetResponse(plan [][2]string) map[string]interface{} {
	moves := make([]interface{}, 0, len(plan))
	for _, m := range plan {
		moves = append(moves, map[string]interface{}{"from": m[0], "to": m[1]})
	}
	res := map[string]interface{}{
		"done": len(plan) == 0,
		"plan": moves,
	}
	if len(plan) > 0 {
		res["from"] = plan[0][0]
		res["to"] = plan[0][1]
	}
	return res
}

// pipeline is one read: find the board, score its squares, assign pieces.
type pipeline struct {
	prims       detect.Primitives
	lattice     detect.LatticeTester
	scorer      squareScorer
	cfg         detect.Config
	orientation fen.Orientation
	logger      logging.Logger
}

type readResult struct {
	Found   bool
	Board   fen.Board
	Corners [4]geometry.Point
	Grid    []geometry.Point
	Move    assign.Movement
	Moved   bool
}

func (res readResult) toMap() map[string]interface{} {
	if !res.Found {
		return map[string]interface{}{"found": false}
	}
	out := map[string]interface{}{
		"found":   true,
		"fen":     res.Board.String(),
		"corners": pointsToList(res.Corners[:]),
		"grid":    pointsToList(res.Grid),
	}
	if res.Moved {
		out["move"] = map[string]interface{}{
			"from":   fen.Square(res.Move.From),
			"to":     fen.Square(res.Move.To),
			"action": res.Move.Action.String(),
		}
	}
	return out
}

func (p *pipeline) read(ctx context.Context, img image.Image, cmd ReadCmd) (readResult, error) {
	ctx, span := trace.StartSpan(ctx, "livefen::read")
	defer span.End()

	var previous *fen.Board
	if cmd.PreviousFEN != "" {
		b, err := fen.Decode(cmd.PreviousFEN)
		if err != nil {
			return readResult{}, err
		}
		previous = &b
	}
	corners, err := listToPoints(cmd.PreviousCorners)
	if err != nil {
		return readResult{}, err
	}

	g := detect.New(p.prims, p.lattice, p.cfg, p.logger).Detect(img, corners)
	if !g.Found {
		p.logger.Debugf("no board found")
		return readResult{}, nil
	}

	canvas, err := detect.Rectify(p.prims, img, g.Corners)
	if err != nil {
		return readResult{}, err
	}
	raw, err := classifySquares(ctx, p.scorer, detect.Squares(canvas), runtime.NumCPU())
	if err != nil {
		return readResult{}, err
	}
	probs, err := assign.Normalize(raw, p.orientation)
	if err != nil {
		return readResult{}, err
	}

	board, move, moved := assign.Resolve(probs, previous)
	if moved {
		p.logger.Infof("move %v", move)
	}
	return readResult{
		Found:   true,
		Board:   board,
		Corners: g.Corners,
		Grid:    g.Grid,
		Move:    move,
		Moved:   moved,
	}, nil
}

// classifySquares scores every square, at most limit at a time. The
// result keeps the order of squares.
func classifySquares(ctx context.Context, scorer squareScorer, squares []image.Image, limit int) ([][]float64, error) {
	out := make([][]float64, len(squares))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, limit))
	for i, sq := range squares {
		g.Go(func() error {
			p, err := scorer.Probabilities(ctx, sq)
			if err != nil {
				return fmt.Errorf("square %d: %w", i, err)
			}
			out[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func pointsToList(pts []geometry.Point) [][]float64 {
	out := make([][]float64, len(pts))
	for i, p := range pts {
		out[i] = []float64{p.X, p.Y}
	}
	return out
}

// listToPoints accepts nothing or exactly four [x, y] pairs.
func listToPoints(l [][]float64) ([]geometry.Point, error) {
	if len(l) == 0 {
		return nil, nil
	}
	if len(l) != 4 {
		return nil, fmt.Errorf("need 4 previous corners, got %d", len(l))
	}
	out := make([]geometry.Point, len(l))
	for i, xy := range l {
		if len(xy) != 2 {
			return nil, fmt.Errorf("corner %d needs x and y, got %v", i, xy)
		}
		out[i] = geometry.Pt(xy[0], xy[1])
	}
	return out, nil
}
