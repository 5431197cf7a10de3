package assign

import (
	"fmt"

	"livefen/internal/fen"
)

type Action int

const (
	WhiteMoves Action = iota
	WhiteCaptures
	BlackMoves
	BlackCaptures
)

func (a Action) String() string {
	switch a {
	case WhiteMoves:
		return "white-moves"
	case WhiteCaptures:
		return "white-captures"
	case BlackMoves:
		return "black-moves"
	case BlackCaptures:
		return "black-captures"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

func (a Action) White() bool     { return a == WhiteMoves || a == WhiteCaptures }
func (a Action) Capturing() bool { return a == WhiteCaptures || a == BlackCaptures }

// Movement is a single piece moving between two FEN indices.
type Movement struct {
	From, To int
	Action   Action
}

func (m Movement) String() string {
	return fmt.Sprintf("%s%s (%v)", fen.Square(m.From), fen.Square(m.To), m.Action)
}

// ChangedSquares lists the squares whose occupancy (empty, white or black)
// in previous disagrees with the dominant class in probs.
func ChangedSquares(previous fen.Board, probs []fen.Probabilities) []int {
	var changed []int
	for i, p := range previous {
		empty := isEmptySquare(probs[i])
		switch {
		case p.IsEmpty() && empty:
			continue
		case p.IsWhite() && !empty && isWhitePiece(probs[i]):
			continue
		case p.IsBlack() && !empty && !isWhitePiece(probs[i]):
			continue
		}
		changed = append(changed, i)
	}
	return changed
}

// InferMove explains the difference between previous and probs as one
// piece moving, if it can.
func InferMove(previous fen.Board, probs []fen.Probabilities) (Movement, bool) {
	changed := ChangedSquares(previous, probs)
	if len(changed) != 2 {
		return Movement{}, false
	}

	var from, to int
	switch a, b := changed[0], changed[1]; {
	case isEmptySquare(probs[a]) && !isEmptySquare(probs[b]):
		from, to = a, b
	case isEmptySquare(probs[b]) && !isEmptySquare(probs[a]):
		from, to = b, a
	default:
		return Movement{}, false
	}

	moved, target := previous[from], previous[to]
	nowWhite := isWhitePiece(probs[to])
	switch {
	case moved.IsWhite() && nowWhite && target.IsEmpty():
		return Movement{From: from, To: to, Action: WhiteMoves}, true
	case moved.IsWhite() && nowWhite && target.IsBlack():
		return Movement{From: from, To: to, Action: WhiteCaptures}, true
	case moved.IsBlack() && !nowWhite && target.IsEmpty():
		return Movement{From: from, To: to, Action: BlackMoves}, true
	case moved.IsBlack() && !nowWhite && target.IsWhite():
		return Movement{From: from, To: to, Action: BlackCaptures}, true
	}
	return Movement{}, false
}

type square struct{ row, col int }

func at(i int) square { return square{row: i / 8, col: i % 8} }

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func kingMove(a, b square) bool {
	return abs(a.row-b.row) <= 1 && abs(a.col-b.col) <= 1
}

func rookMove(a, b square) bool {
	return a.row == b.row || a.col == b.col
}

func bishopMove(a, b square) bool {
	return a.row-a.col == b.row-b.col || a.row+a.col == b.row+b.col
}

func knightMove(a, b square) bool {
	dr, dc := abs(a.row-b.row), abs(a.col-b.col)
	return (dr == 1 && dc == 2) || (dr == 2 && dc == 1)
}

// pawnMove works in FEN rows, so white advances towards row 0.
func pawnMove(a, b square, capturing, white bool) bool {
	forward, home := 1, 6
	if !white {
		forward, home = -1, 1
	}
	dr := a.row - b.row
	if capturing {
		return dr == forward && abs(a.col-b.col) == 1
	}
	return a.col == b.col && (dr == forward || (dr == 2*forward && a.row == home))
}

// Candidates lists the pieces that could have made m. A pawn reaching the
// last rank yields every promotion piece, plus the king that could have
// made the same step.
func Candidates(m Movement) []fen.Piece {
	from, to := at(m.From), at(m.To)
	white := m.Action.White()

	pick := func(w, b fen.Piece) fen.Piece {
		if white {
			return w
		}
		return b
	}
	lastRow := 0
	if !white {
		lastRow = 7
	}

	var out []fen.Piece
	add := func(ps ...fen.Piece) {
		for _, p := range ps {
			for _, have := range out {
				if have == p {
					p = 0
					break
				}
			}
			if p != 0 {
				out = append(out, p)
			}
		}
	}

	if pawnMove(from, to, m.Action.Capturing(), white) {
		if to.row == lastRow {
			return []fen.Piece{
				pick(fen.WhiteKing, fen.BlackKing),
				pick(fen.WhiteRook, fen.BlackRook),
				pick(fen.WhiteBishop, fen.BlackBishop),
				pick(fen.WhiteQueen, fen.BlackQueen),
				pick(fen.WhiteKnight, fen.BlackKnight),
			}
		}
		add(pick(fen.WhitePawn, fen.BlackPawn))
	}
	if kingMove(from, to) {
		add(pick(fen.WhiteKing, fen.BlackKing))
	}
	if rookMove(from, to) {
		add(pick(fen.WhiteRook, fen.BlackRook), pick(fen.WhiteQueen, fen.BlackQueen))
	}
	if bishopMove(from, to) {
		add(pick(fen.WhiteBishop, fen.BlackBishop), pick(fen.WhiteQueen, fen.BlackQueen))
	}
	if knightMove(from, to) {
		add(pick(fen.WhiteKnight, fen.BlackKnight))
	}
	return out
}
