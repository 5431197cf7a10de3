package fen

import (
	"fmt"
	"strings"
)

// Orientation names the image corner a1 appears in.
type Orientation int

const (
	BottomLeft Orientation = iota
	BottomRight
	TopLeft
	TopRight
)

var orientationNames = map[Orientation]string{
	BottomLeft:  "bottom-left",
	BottomRight: "bottom-right",
	TopLeft:     "top-left",
	TopRight:    "top-right",
}

func (o Orientation) String() string {
	if s, ok := orientationNames[o]; ok {
		return s
	}
	return fmt.Sprintf("Orientation(%d)", int(o))
}

// ParseOrientation accepts the names above; "" means bottom-left.
func ParseOrientation(s string) (Orientation, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return BottomLeft, nil
	}
	s = strings.ReplaceAll(s, "_", "-")
	for o, name := range orientationNames {
		if s == name || s == strings.ReplaceAll(name, "-", "") {
			return o, nil
		}
	}
	return BottomLeft, fmt.Errorf("unknown orientation %q", s)
}

// source returns the raster index, in an image taken with orientation o,
// of the square at FEN index i.
func (o Orientation) source(i int) int {
	r, c := i/8, i%8
	switch o {
	case BottomRight:
		return (7-c)*8 + r
	case TopLeft:
		return c*8 + 7 - r
	case TopRight:
		return (7-r)*8 + 7 - c
	default:
		return i
	}
}

// Canonical reorders 64 squares read in image raster order so index 0 is
// a8 of the board.
func Canonical[T any](squares []T, o Orientation) ([]T, error) {
	if len(squares) != 64 {
		return nil, fmt.Errorf("need 64 squares, got %d", len(squares))
	}
	out := make([]T, 64)
	for i := range out {
		out[i] = squares[o.source(i)]
	}
	return out, nil
}

// ToImage is the inverse of Canonical: it lays a board out the way a
// camera with orientation o sees it.
func ToImage[T any](squares []T, o Orientation) ([]T, error) {
	if len(squares) != 64 {
		return nil, fmt.Errorf("need 64 squares, got %d", len(squares))
	}
	out := make([]T, 64)
	for i := range squares {
		out[o.source(i)] = squares[i]
	}
	return out, nil
}
