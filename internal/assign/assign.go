// Package assign turns 64 per-square class probabilities into a board
// with plausible piece counts, using the previous position to
// disambiguate the square a piece just moved to.
package assign

import (
	"errors"
	"fmt"
	"sort"

	"livefen/internal/fen"
)

// ErrShape is returned unless there are 64 vectors of 13 probabilities.
var ErrShape = errors.New("expected 64 probability vectors of 13 classes")

// greedyClasses are the classes placed by the greedy pass, in tie-break
// order, with the most of each a side may have.
var greedyClasses = [10]struct {
	class int
	piece fen.Piece
	quota int
}{
	{0, fen.WhiteBishop, 2},
	{2, fen.WhiteKnight, 2},
	{3, fen.WhitePawn, 8},
	{4, fen.WhiteQueen, 9},
	{5, fen.WhiteRook, 2},
	{7, fen.BlackBishop, 2},
	{9, fen.BlackKnight, 2},
	{10, fen.BlackPawn, 8},
	{11, fen.BlackQueen, 9},
	{12, fen.BlackRook, 2},
}

const (
	whiteKingClass = 1
	blackKingClass = 8
)

// Normalize checks the shape of probs, which is in image raster order for
// a camera with orientation o, and reorders it so index 0 is a8.
func Normalize(probs [][]float64, o fen.Orientation) ([]fen.Probabilities, error) {
	if len(probs) != 64 {
		return nil, fmt.Errorf("%w: got %d vectors", ErrShape, len(probs))
	}
	raster := make([]fen.Probabilities, 64)
	for i, v := range probs {
		if len(v) != fen.NumClasses {
			return nil, fmt.Errorf("%w: vector %d has %d entries", ErrShape, i, len(v))
		}
		copy(raster[i][:], v)
	}
	return fen.Canonical(raster, o)
}

// Assign returns the most likely board. previous may be empty.
func Assign(probs [][]float64, o fen.Orientation, previous string) (fen.Board, error) {
	ps, err := Normalize(probs, o)
	if err != nil {
		return fen.Board{}, err
	}
	var prev *fen.Board
	if previous != "" {
		b, err := fen.Decode(previous)
		if err != nil {
			return fen.Board{}, err
		}
		prev = &b
	}
	b, _, _ := Resolve(ps, prev)
	return b, nil
}

type ranked struct {
	p      float64
	square int
}

// sortedBy lists squares from..to-1 by descending probability of class;
// equal probabilities keep square order.
func sortedBy(probs []fen.Probabilities, class, from, to int) []ranked {
	out := make([]ranked, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, ranked{p: probs[i][class], square: i})
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].p > out[b].p })
	return out
}

// Resolve assigns every square of probs, which is already in FEN order.
// When previous is given and the change from it reads as a single move,
// that move is returned and restricts what may land on its destination.
func Resolve(probs []fen.Probabilities, previous *fen.Board) (fen.Board, Movement, bool) {
	var (
		move     Movement
		moved    bool
		allowed  []fen.Piece
		assigned [64]bool
		out      = fen.EmptyBoard()
	)
	if previous != nil {
		if move, moved = InferMove(*previous, probs); moved {
			allowed = Candidates(move)
		}
	}

	set := func(i int, p fen.Piece) {
		out[i] = p
		assigned[i] = true
	}

	white := sortedBy(probs, whiteKingClass, 0, 64)[0]
	blackList := sortedBy(probs, blackKingClass, 0, 64)
	black := blackList[0]
	if black.square == white.square {
		black = blackList[1]
	}
	set(white.square, fen.WhiteKing)
	set(black.square, fen.BlackKing)
	left := 62

	for i, p := range probs {
		if !assigned[i] && isEmptySquare(p) {
			set(i, fen.Empty)
			left--
		}
	}

	var (
		lists  [10][]ranked
		cursor [10]int
		quota  [10]int
		// bishops[colour][light] records placed bishops by square shade.
		bishops [2][2]bool
	)
	for k, gc := range greedyClasses {
		if gc.piece == fen.WhitePawn || gc.piece == fen.BlackPawn {
			lists[k] = sortedBy(probs, gc.class, 8, 56)
		} else {
			lists[k] = sortedBy(probs, gc.class, 0, 64)
		}
		quota[k] = gc.quota
	}

	for left > 0 {
		best := -1
		for k := range lists {
			if cursor[k] >= len(lists[k]) {
				continue
			}
			if best < 0 || lists[k][cursor[k]].p > lists[best][cursor[best]].p {
				best = k
			}
		}
		if best < 0 {
			break
		}

		top := lists[best][cursor[best]]
		cursor[best]++
		piece := greedyClasses[best].piece

		if quota[best] == 0 || assigned[top.square] {
			continue
		}
		var shade *bool
		if piece == fen.WhiteBishop || piece == fen.BlackBishop {
			colour, light := 0, 0
			if piece.IsBlack() {
				colour = 1
			}
			if fen.IsLightSquare(top.square) {
				light = 1
			}
			shade = &bishops[colour][light]
			if *shade {
				continue
			}
		}
		if moved && top.square == move.To && len(allowed) > 0 && !contains(allowed, piece) {
			continue
		}

		set(top.square, piece)
		quota[best]--
		left--
		if shade != nil {
			*shade = true
		}
	}

	// Every list ran out before every square was filled; what remains is
	// left empty.
	for i := range assigned {
		if !assigned[i] {
			set(i, fen.Empty)
		}
	}
	return out, move, moved
}

func contains(ps []fen.Piece, p fen.Piece) bool {
	for _, have := range ps {
		if have == p {
			return true
		}
	}
	return false
}

// argMax returns the first index holding the largest probability.
func argMax(p fen.Probabilities) int {
	best := 0
	for i := 1; i < len(p); i++ {
		if p[i] > p[best] {
			best = i
		}
	}
	return best
}

func isEmptySquare(p fen.Probabilities) bool {
	return argMax(p) == fen.EmptyClass
}

// isWhitePiece compares the summed white and black class probabilities.
func isWhitePiece(p fen.Probabilities) bool {
	var white, black float64
	for i := 0; i < 6; i++ {
		white += p[i]
	}
	for i := 7; i < fen.NumClasses; i++ {
		black += p[i]
	}
	return white >= black
}
