// Package quad picks the quadrilateral that best frames a cloud of lattice
// points, using pairs of roughly parallel detected lines as its sides.
package quad

import (
	"math"

	"github.com/golang/geo/r2"

	"livefen/internal/cluster"
	"livefen/internal/geometry"
)

const (
	// latticeCells is the number of interior lattice points on a board.
	latticeCells = 49
	minCluster   = 5
)

type Options struct {
	// Metric is used to isolate the main group of lattice points.
	Metric cluster.Metric
	// Padding grows the winning quadrilateral before it is cropped.
	Padding float64
	// ShrinkMargin scores candidates on points inside the quadrilateral
	// pulled in by the margin instead of pushed out by it.
	ShrinkMargin bool
}

func DefaultOptions() Options {
	return Options{Metric: cluster.Euclidean, Padding: 60}
}

// Result is the winning candidate.
type Result struct {
	// Corners are top-left, top-right, bottom-right, bottom-left.
	Corners [4]geometry.Point
	// Padded is Corners grown by Options.Padding, same order.
	Padded [4]geometry.Point
	Score  float64
}

// Cloud summarises the lattice points candidates are scored against.
type Cloud struct {
	Points   []geometry.Point
	Centroid geometry.Point
	// Alpha is the side of one board square: sqrt(area / 49).
	Alpha float64
	// Beta is the tolerated shortfall of framed points, 5% of the cloud.
	Beta float64
}

// NewCloud measures the cloud.
func NewCloud(points []geometry.Point) Cloud {
	sorted := append([]geometry.Point(nil), points...)
	geometry.SortAround(sorted)
	return Cloud{
		Points:   points,
		Centroid: geometry.Centroid(points),
		Alpha:    math.Sqrt(geometry.Area(sorted) / latticeCells),
		Beta:     0.05 * float64(len(points)),
	}
}

// Score rates a convex quadrilateral; zero means rejected. Higher scores
// frame more points in less area, hug the framed points more closely and
// stay centred on the cloud.
func (c Cloud) Score(poly []geometry.Point, shrink bool) float64 {
	if len(poly) != 4 {
		return 0
	}
	area := geometry.Area(poly)
	if area == 0 || area < 20*c.Alpha*c.Alpha {
		return 0
	}

	gamma := c.Alpha / 1.5
	margin := gamma
	if shrink {
		margin = -gamma
	}
	frame := geometry.Offset(poly, margin)

	var inside []geometry.Point
	for _, p := range c.Points {
		if geometry.Contains(frame, p) {
			inside = append(inside, p)
		}
	}
	inFrame := float64(min(len(inside), latticeCells))
	need := float64(min(len(c.Points), latticeCells)) - 2*c.Beta - 1
	if inFrame == 0 || inFrame < need {
		return 0
	}

	hull := geometry.ConvexHull(inside)
	if len(hull) < 3 {
		return 0
	}
	cenDist := geometry.Centroid(hull).Sub(c.Centroid).Norm()

	edges := make([]geometry.Segment, 4)
	for i := range edges {
		edges[i] = geometry.Segment{A: poly[i], B: poly[(i+1)%4]}
	}

	var sum float64
	var near int
	for _, p := range hull {
		best := math.Inf(1)
		for _, e := range edges {
			best = math.Min(best, e.DistanceTo(p))
		}
		if best < gamma {
			sum += best
			near++
		}
	}
	if near == 0 {
		return 0
	}
	avgDist := sum / float64(near)

	wPoints := 1 + math.Pow(avgDist/inFrame, 0.333)
	wCentroid := 1 + math.Pow(cenDist/inFrame, 0.2)
	return math.Pow(inFrame, 4) / (area * area * wPoints * wCentroid)
}

// Search finds the best framing quadrilateral for the lattice points
// within bounds, using segs as candidate sides.
func Search(points []geometry.Point, segs []geometry.Segment, bounds r2.Rect, opts Options) (Result, bool) {
	if opts.Metric == nil {
		opts.Metric = cluster.Euclidean
	}

	var pts []geometry.Point
	for _, p := range points {
		p = geometry.Truncate(p)
		if bounds.ContainsPoint(p) {
			pts = append(pts, p)
		}
	}
	if len(pts) == 0 {
		return Result{}, false
	}

	cloud := NewCloud(pts)
	if cloud.Alpha == 0 {
		return Result{}, false
	}
	groups, err := cluster.DBSCAN(pts, cluster.Options{
		Epsilon:   4 * cloud.Alpha,
		MinPoints: minCluster,
		Metric:    opts.Metric,
	})
	if err == nil && len(groups) > 0 && len(pts) > latticeCells/2 {
		cloud = NewCloud(cluster.Largest(groups))
	}
	if cloud.Alpha == 0 {
		return Result{}, false
	}

	vertical, horizontal := sides(segs, cloud)

	var best []geometry.Point
	bestScore := 0.0
	for i := 0; i < len(vertical); i++ {
		for j := i + 1; j < len(vertical); j++ {
			for k := 0; k < len(horizontal); k++ {
				for l := k + 1; l < len(horizontal); l++ {
					poly := corners(bounds, vertical[i], vertical[j], horizontal[k], horizontal[l])
					if poly == nil {
						continue
					}
					if s := cloud.Score(poly, opts.ShrinkMargin); s > bestScore {
						best, bestScore = poly, s
					}
				}
			}
		}
	}
	if best == nil {
		return Result{}, false
	}

	res := Result{Corners: geometry.OrderCorners(best), Score: bestScore}
	padded := geometry.Offset(res.Corners[:], opts.Padding)
	for i := range padded {
		padded[i] = geometry.Truncate(padded[i])
	}
	res.Padded = geometry.OrderCorners(padded)
	return res, true
}

// sides keeps the segments that lie away from the centre of the cloud yet
// pass close to one of its points, split by dominant axis.
func sides(segs []geometry.Segment, cloud Cloud) (vertical, horizontal []geometry.Segment) {
	seen := map[geometry.Segment]bool{}
	for _, s := range segs {
		s = s.Canonical()
		if seen[s] || s.DistanceTo(cloud.Centroid) <= 2.5*cloud.Alpha {
			continue
		}
		for _, p := range cloud.Points {
			if s.DistanceTo(p) < cloud.Alpha {
				seen[s] = true
				if s.Vertical() {
					vertical = append(vertical, s)
				} else {
					horizontal = append(horizontal, s)
				}
				break
			}
		}
	}
	return vertical, horizontal
}

// corners intersects the four lines pairwise and returns the convex
// quadrilateral they bound, or nil unless exactly four crossings land
// inside bounds.
func corners(bounds r2.Rect, lines ...geometry.Segment) []geometry.Point {
	var poly []geometry.Point
	for a := 0; a < len(lines); a++ {
		for b := a + 1; b < len(lines); b++ {
			p, ok := lines[a].LineIntersection(lines[b])
			if !ok || !bounds.ContainsPoint(p) {
				continue
			}
			poly = append(poly, geometry.Truncate(p))
		}
	}
	if len(poly) != 4 {
		return nil
	}
	geometry.SortAround(poly)
	if !geometry.IsConvex(poly) {
		return nil
	}
	return poly
}
