package main

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"os"
	"path/filepath"
	"strings"

	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/rimage"

	"livefen"
	"livefen/internal/cvimage"
	"livefen/internal/detect"
	"livefen/internal/fen"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <input.jpg> [output.jpg]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  If output is not specified, it will be <input>_output.jpg\n")
		fmt.Fprintf(os.Stderr, "  The rectified board is written next to it as <output>_board.jpg\n")
		os.Exit(1)
	}

	inputFile := os.Args[1]

	var outputFile string
	if len(os.Args) >= 3 {
		outputFile = os.Args[2]
	} else {
		ext := filepath.Ext(inputFile)
		base := strings.TrimSuffix(inputFile, ext)
		outputFile = base + "_output" + ext
	}
	ext := filepath.Ext(outputFile)
	boardFile := strings.TrimSuffix(outputFile, ext) + "_board" + ext

	input, err := rimage.ReadImageFromFile(inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading image: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Image size: %dx%d\n", input.Bounds().Dx(), input.Bounds().Dy())

	logger := logging.NewLogger("boardfinder")
	prims := cvimage.Primitives{}
	d := detect.New(prims, cvimage.NewLatticeTester(nil, logger), detect.DefaultConfig(), logger)

	g := d.Detect(input, nil)
	if !g.Found {
		fmt.Fprintf(os.Stderr, "No board found\n")
		os.Exit(1)
	}

	fmt.Printf("Found corners after %d layers:\n", len(g.Layers))
	for i, name := range []string{"Top-left", "Top-right", "Bottom-right", "Bottom-left"} {
		fmt.Printf("  %-13s (%.1f, %.1f)\n", name+":", g.Corners[i].X, g.Corners[i].Y)
	}

	output := image.NewRGBA(input.Bounds())
	draw.Draw(output, input.Bounds(), input, input.Bounds().Min, draw.Src)

	red := color.RGBA{255, 0, 0, 255}
	blue := color.RGBA{0, 0, 255, 255}
	for _, corner := range g.Corners {
		drawCircle(output, round(corner.X), round(corner.Y), 10, red)
		drawCross(output, round(corner.X), round(corner.Y), 15, red)
	}
	for _, p := range g.Grid {
		drawCross(output, round(p.X), round(p.Y), 5, blue)
	}

	err = rimage.WriteImageToFile(outputFile, output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output image: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Saved output image to %s\n", outputFile)

	canvas, err := detect.Rectify(prims, input, g.Corners)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error rectifying board: %v\n", err)
		os.Exit(1)
	}
	err = rimage.WriteImageToFile(boardFile, livefen.BoardDebugImage(canvas, fen.BottomLeft))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing board image: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Saved board image to %s\n", boardFile)
}

func round(v float64) int {
	return int(math.Round(v))
}

func drawCircle(img *image.RGBA, cx, cy, radius int, c color.Color) {
	for angle := 0.0; angle < 360; angle += 1 {
		x := cx + int(float64(radius)*math.Cos(angle*math.Pi/180))
		y := cy + int(float64(radius)*math.Sin(angle*math.Pi/180))
		if (image.Point{x, y}).In(img.Bounds()) {
			img.Set(x, y, c)
		}
	}
}

func drawCross(img *image.RGBA, cx, cy, size int, c color.Color) {
	for d := -size; d <= size; d++ {
		if p := (image.Point{cx + d, cy}); p.In(img.Bounds()) {
			img.Set(p.X, p.Y, c)
		}
		if p := (image.Point{cx, cy + d}); p.In(img.Bounds()) {
			img.Set(p.X, p.Y, c)
		}
	}
}
