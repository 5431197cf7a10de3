package livefen

import (
	"context"
	"fmt"
	"image"
	"strings"

	"go.viam.com/rdk/services/vision"
	"go.viam.com/rdk/vision/classification"

	"livefen/internal/cvimage"
	"livefen/internal/fen"
)

// classOfLabel maps a classifier label onto fen.Classes. Piece labels are
// FEN letters; "_" and "empty" both mean an empty square.
func classOfLabel(label string) (int, bool) {
	label = strings.TrimSpace(label)
	if strings.EqualFold(label, "empty") {
		return fen.EmptyClass, true
	}
	if len(label) != 1 {
		return 0, false
	}
	p, ok := fen.ParsePiece(label[0])
	if !ok {
		return 0, false
	}
	for i, c := range fen.Classes {
		if c == p {
			return i, true
		}
	}
	return 0, false
}

// probabilities spreads classifications over the 13 classes; unknown
// labels are ignored.
func probabilities(cs classification.Classifications) []float64 {
	out := make([]float64, fen.NumClasses)
	for _, c := range cs {
		if i, ok := classOfLabel(c.Label()); ok {
			out[i] = c.Score()
		}
	}
	return out
}

// squareClassifier asks a vision service for all 13 class scores.
type squareClassifier struct {
	svc vision.Service
}

func (sc squareClassifier) Probabilities(ctx context.Context, square image.Image) ([]float64, error) {
	cs, err := sc.svc.Classifications(ctx, square, fen.NumClasses, nil)
	if err != nil {
		return nil, err
	}
	return probabilities(cs), nil
}

var _ cvimage.Classifier = latticeClassifier{}

// latticeClassifier wraps a two class vision service whose top label is
// "lattice" (or "0") for grid corners.
type latticeClassifier struct {
	ctx context.Context
	svc vision.Service
}

func (lc latticeClassifier) Class(edges image.Image) (int, error) {
	cs, err := lc.svc.Classifications(lc.ctx, edges, 1, nil)
	if err != nil {
		return 0, err
	}
	if len(cs) == 0 {
		return 0, fmt.Errorf("no classification")
	}
	switch strings.ToLower(cs[0].Label()) {
	case "lattice", "0":
		return cvimage.LatticeClass, nil
	}
	return cvimage.LatticeClass + 1, nil
}
