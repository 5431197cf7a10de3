// Package fen encodes boards as the piece-placement field of FEN and maps
// raster square order between camera orientations.
package fen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/corentings/chess/v2"
)

// ErrBadFEN is wrapped by every Decode failure.
var ErrBadFEN = errors.New("bad fen")

// Piece is one square label. The zero value is Empty.
type Piece byte

const (
	Empty       Piece = '_'
	WhiteBishop Piece = 'B'
	WhiteKing   Piece = 'K'
	WhiteKnight Piece = 'N'
	WhitePawn   Piece = 'P'
	WhiteQueen  Piece = 'Q'
	WhiteRook   Piece = 'R'
	BlackBishop Piece = 'b'
	BlackKing   Piece = 'k'
	BlackKnight Piece = 'n'
	BlackPawn   Piece = 'p'
	BlackQueen  Piece = 'q'
	BlackRook   Piece = 'r'
)

// Classes is the classifier output order; class i of a probability
// vector is the likelihood of Classes[i].
var Classes = [NumClasses]Piece{
	WhiteBishop, WhiteKing, WhiteKnight, WhitePawn, WhiteQueen, WhiteRook,
	Empty,
	BlackBishop, BlackKing, BlackKnight, BlackPawn, BlackQueen, BlackRook,
}

const (
	NumClasses = 13
	// EmptyClass is the index of Empty in Classes.
	EmptyClass = 6
)

// Probabilities is one square's classifier output.
type Probabilities [NumClasses]float64

// ParsePiece accepts a FEN piece letter or '_'.
func ParsePiece(c byte) (Piece, bool) {
	for _, p := range Classes {
		if byte(p) == c {
			return p, true
		}
	}
	return Empty, false
}

func (p Piece) IsEmpty() bool { return p == Empty || p == 0 }

func (p Piece) IsWhite() bool { return p >= 'A' && p <= 'Z' }

func (p Piece) IsBlack() bool { return p >= 'a' && p <= 'z' }

func (p Piece) String() string {
	if p == 0 {
		return string(Empty)
	}
	return string(rune(p))
}

// ToChess converts to the chess library's piece.
func (p Piece) ToChess() chess.Piece {
	var t chess.PieceType
	switch p {
	case WhiteKing, BlackKing:
		t = chess.King
	case WhiteQueen, BlackQueen:
		t = chess.Queen
	case WhiteRook, BlackRook:
		t = chess.Rook
	case WhiteBishop, BlackBishop:
		t = chess.Bishop
	case WhiteKnight, BlackKnight:
		t = chess.Knight
	case WhitePawn, BlackPawn:
		t = chess.Pawn
	default:
		return chess.NoPiece
	}
	c := chess.Black
	if p.IsWhite() {
		c = chess.White
	}
	return chess.NewPiece(t, c)
}

// Board is 64 labels in FEN order: index 0 is a8, index 63 is h1.
type Board [64]Piece

// EmptyBoard has every square set to Empty.
func EmptyBoard() Board {
	var b Board
	for i := range b {
		b[i] = Empty
	}
	return b
}

// Square returns the algebraic name of raster index i.
func Square(i int) string {
	return fmt.Sprintf("%c%d", 'a'+i%8, 8-i/8)
}

// Index is the inverse of Square.
func Index(square string) (int, bool) {
	if len(square) != 2 || square[0] < 'a' || square[0] > 'h' || square[1] < '1' || square[1] > '8' {
		return 0, false
	}
	return int('8'-square[1])*8 + int(square[0]-'a'), true
}

// Encode writes the piece-placement field.
func Encode(b Board) string {
	var sb strings.Builder
	for row := 0; row < 8; row++ {
		if row > 0 {
			sb.WriteByte('/')
		}
		run := 0
		for col := 0; col < 8; col++ {
			p := b[row*8+col]
			if p.IsEmpty() {
				run++
				continue
			}
			if run > 0 {
				sb.WriteByte(byte('0' + run))
				run = 0
			}
			sb.WriteByte(byte(p))
		}
		if run > 0 {
			sb.WriteByte(byte('0' + run))
		}
	}
	return sb.String()
}

// String is Encode.
func (b Board) String() string { return Encode(b) }

// Decode parses a piece-placement field. Anything after the first space
// (side to move, castling and so on) is ignored.
func Decode(s string) (Board, error) {
	if i := strings.IndexByte(s, ' '); i >= 0 {
		s = s[:i]
	}
	ranks := strings.Split(s, "/")
	if len(ranks) != 8 {
		return Board{}, fmt.Errorf("%w: %q has %d ranks", ErrBadFEN, s, len(ranks))
	}

	b := EmptyBoard()
	for row, rank := range ranks {
		col := 0
		for i := 0; i < len(rank); i++ {
			c := rank[i]
			if c >= '1' && c <= '8' {
				col += int(c - '0')
				if col > 8 {
					return Board{}, fmt.Errorf("%w: rank %d overflows", ErrBadFEN, 8-row)
				}
				continue
			}
			p, ok := ParsePiece(c)
			if !ok {
				return Board{}, fmt.Errorf("%w: unexpected %q in rank %d", ErrBadFEN, c, 8-row)
			}
			if col >= 8 {
				return Board{}, fmt.Errorf("%w: rank %d overflows", ErrBadFEN, 8-row)
			}
			b[row*8+col] = p
			col++
		}
		if col != 8 {
			return Board{}, fmt.Errorf("%w: rank %d has %d squares", ErrBadFEN, 8-row, col)
		}
	}
	return b, nil
}

// Compare returns the number of squares on which a and b differ.
func Compare(a, b string) (int, error) {
	ba, err := Decode(a)
	if err != nil {
		return 0, err
	}
	bb, err := Decode(b)
	if err != nil {
		return 0, err
	}
	n := 0
	for i := range ba {
		if ba[i] != bb[i] {
			n++
		}
	}
	return n, nil
}

// IsLightSquare reports the shade of raster index i; a8 is light.
func IsLightSquare(i int) bool {
	if i%16 < 8 {
		return i%2 == 0
	}
	return i%2 == 1
}

// ToChess converts the board for the chess library.
func (b Board) ToChess() *chess.Board {
	m := map[chess.Square]chess.Piece{}
	for i, p := range b {
		if p.IsEmpty() {
			continue
		}
		m[chess.NewSquare(chess.File(i%8), chess.Rank(7-i/8))] = p.ToChess()
	}
	return chess.NewBoard(m)
}
