package detect

import (
	"image"

	"golang.org/x/image/draw"

	"livefen/internal/geometry"
)

// pieceHeight is how far above its square a crop reaches, in squares, so
// tall pieces fit.
const pieceHeight = 1.75

// Rectify warps img so the board framed by corners fills a canvas.
func Rectify(w Warper, img image.Image, corners [4]geometry.Point) (image.Image, error) {
	h, err := geometry.PerspectiveTransform(corners, geometry.SquareCorners(CanvasSize))
	if err != nil {
		return nil, err
	}
	return w.Warp(img, h, image.Pt(CanvasSize, CanvasSize))
}

// SquareRect is the crop for the square in row, col of the canvas: the
// square itself plus the space above it, clipped to the canvas.
func SquareRect(row, col int) image.Rectangle {
	bottom := (row + 1) * CellSize
	top := max(0, bottom-int(pieceHeight*CellSize))
	return image.Rect(col*CellSize, top, (col+1)*CellSize, bottom)
}

// Squares cuts a rectified canvas into 64 crops in raster order. Each crop
// starts at the origin.
func Squares(canvas image.Image) []image.Image {
	out := make([]image.Image, 0, 64)
	origin := canvas.Bounds().Min
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			r := SquareRect(row, col)
			dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
			draw.Draw(dst, dst.Bounds(), canvas, r.Min.Add(origin), draw.Src)
			out = append(out, dst)
		}
	}
	return out
}
