package livefen

import (
	"fmt"

	"github.com/corentings/chess/v2"

	"livefen/internal/fen"
)

var homeRanks = []chess.Rank{chess.Rank1, chess.Rank2, chess.Rank7, chess.Rank8}

// graveyardBase numbers captured pieces past the board squares: slot i of
// the graveyard is graveyardBase+i.
const graveyardBase chess.Square = 70

// resetState is a board being put back to the starting position, plus the
// pieces that were captured off it.
type resetState struct {
	board     *chess.Board
	graveyard []chess.Piece
}

// newResetState reads graveyard as FEN piece letters.
func newResetState(b fen.Board, graveyard string) (*resetState, error) {
	s := &resetState{board: b.ToChess()}
	for i := 0; i < len(graveyard); i++ {
		p, ok := fen.ParsePiece(graveyard[i])
		if !ok || p.IsEmpty() {
			return nil, fmt.Errorf("bad graveyard piece %q", graveyard[i])
		}
		s.graveyard = append(s.graveyard, p.ToChess())
	}
	return s, nil
}

func (s *resetState) applyMove(from, to chess.Square) error {
	m := s.board.SquareMap()
	if from < graveyardBase {
		if m[from] == chess.NoPiece {
			return fmt.Errorf("nothing on %v", from)
		}
		m[to] = m[from]
		delete(m, from)
	} else {
		idx := int(from - graveyardBase)
		if idx >= len(s.graveyard) {
			return fmt.Errorf("no graveyard slot %d", idx)
		}
		m[to] = s.graveyard[idx]
		s.graveyard = append(s.graveyard[:idx], s.graveyard[idx+1:]...)
	}
	s.board = chess.NewBoard(m)
	return nil
}

func squareToString(s chess.Square) string {
	if s >= graveyardBase {
		return fmt.Sprintf("X%d", int(s-graveyardBase))
	}
	return s.String()
}

func findForRest(theState *resetState, correct *chess.Board, what chess.Piece) (chess.Square, error) {
	for _, r := range []chess.Rank{
		chess.Rank1, chess.Rank2, chess.Rank7, chess.Rank8,
		chess.Rank3, chess.Rank4, chess.Rank5, chess.Rank6} {

		for f := chess.FileA; f <= chess.FileH; f++ {
			sq := chess.NewSquare(f, r)
			have := theState.board.Piece(sq)
			if have != what {
				continue
			}
			if correct.Piece(sq) == have {
				continue
			}
			return sq, nil
		}
	}

	for idx, p := range theState.graveyard {
		if what == p {
			return graveyardBase + chess.Square(idx), nil
		}
	}

	return chess.A1, fmt.Errorf("cannot find a %v", what)
}

// nextResetMove picks the next piece to put back; it returns -1, -1 once
// every home square is filled.
func nextResetMove(theState *resetState) (chess.Square, chess.Square, error) {
	correct := chess.NewGame().Position().Board()

	for _, r := range homeRanks {
		for f := chess.FileA; f <= chess.FileH; f++ {
			sq := chess.NewSquare(f, r)
			if theState.board.Piece(sq) != chess.NoPiece {
				continue
			}
			from, err := findForRest(theState, correct, correct.Piece(sq))
			if err != nil {
				return chess.A1, chess.A1, err
			}
			return from, sq, nil
		}
	}

	return -1, -1, nil
}

// ResetPlan lists every move that puts b back to the starting position.
func ResetPlan(b fen.Board, graveyard string) ([][2]string, error) {
	s, err := newResetState(b, graveyard)
	if err != nil {
		return nil, err
	}
	var plan [][2]string
	for range 64 {
		from, to, err := nextResetMove(s)
		if err != nil {
			return plan, err
		}
		if from == -1 {
			return plan, nil
		}
		plan = append(plan, [2]string{squareToString(from), to.String()})
		if err := s.applyMove(from, to); err != nil {
			return plan, err
		}
	}
	return plan, fmt.Errorf("reset did not converge")
}
