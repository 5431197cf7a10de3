package cvimage

import (
	"image"

	"gocv.io/x/gocv"

	"go.viam.com/rdk/logging"

	"livefen/internal/detect"
)

const (
	// quadsAtCorner is how many square-ish blobs surround a grid corner.
	quadsAtCorner = 4
	maxQuadRadius = 14
	// LatticeClass is the class a fallback classifier reports for a grid
	// corner.
	LatticeClass = 0
)

// Classifier is a fallback model for patches the contour heuristic cannot
// decide. It receives the patch's edge image.
type Classifier interface {
	Class(edges image.Image) (int, error)
}

var _ detect.LatticeTester = (*LatticeTester)(nil)

type LatticeTester struct {
	Fallback Classifier
	Logger   logging.Logger
}

// NewLatticeTester builds a tester; fallback may be nil.
func NewLatticeTester(fallback Classifier, logger logging.Logger) *LatticeTester {
	return &LatticeTester{Fallback: fallback, Logger: logger}
}

// IsLatticePoint counts the small quadrilaterals around the centre of the
// patch; a grid corner has exactly four.
func (lt *LatticeTester) IsLatticePoint(patch image.Image) bool {
	edges, quads, err := lt.analyze(patch)
	if err != nil {
		lt.warnf("lattice test: %v", err)
		return false
	}
	if quads == quadsAtCorner {
		return true
	}
	if lt.Fallback == nil {
		return false
	}
	class, err := lt.Fallback.Class(edges)
	if err != nil {
		lt.warnf("lattice classifier: %v", err)
		return false
	}
	return class == LatticeClass
}

func (lt *LatticeTester) warnf(format string, args ...interface{}) {
	if lt.Logger != nil {
		lt.Logger.Warnf(format, args...)
	}
}

func (lt *LatticeTester) analyze(patch image.Image) (image.Image, int, error) {
	src, err := gocv.ImageToMatRGB(normalize(patch))
	if err != nil {
		return nil, 0, err
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(gray, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(binary, &edges, 0, 255)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(1, 1))
	defer kernel.Close()
	dilated := gocv.NewMat()
	defer dilated.Close()
	gocv.Dilate(edges, &dilated, kernel)

	framed := gocv.NewMat()
	defer framed.Close()
	gocv.CopyMakeBorder(dilated, &framed, 1, 1, 1, 1, gocv.BorderConstant, whiteBorder)
	gocv.BitwiseNot(framed, &framed)

	contours := gocv.FindContours(framed, gocv.RetrievalExternal, gocv.ChainApproxNone)
	defer contours.Close()

	quads := 0
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		_, _, r := gocv.MinEnclosingCircle(c)
		approx := gocv.ApproxPolyDP(c, 0.1*gocv.ArcLength(c, true), true)
		if approx.Size() == 4 && r < maxQuadRadius {
			quads++
		}
		approx.Close()
	}

	edgeImg, err := edges.ToImage()
	if err != nil {
		return nil, 0, err
	}
	return edgeImg, quads, nil
}
