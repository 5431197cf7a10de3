// Package cluster groups nearby points by density.
package cluster

import (
	"errors"
	"fmt"

	"livefen/internal/geometry"
)

// ErrOptions is returned for unusable clustering parameters.
var ErrOptions = errors.New("invalid clustering options")

// Metric measures the distance between two points.
type Metric func(a, b geometry.Point) float64

// Euclidean is the straight-line distance.
func Euclidean(a, b geometry.Point) float64 {
	return a.Sub(b).Norm()
}

// SignedSum is (ax-bx)+(ay-by). It is not a metric: it is negative for
// half of all pairs, so those pairs always count as neighbours. Kept for
// parity with detectors tuned against it.
func SignedSum(a, b geometry.Point) float64 {
	return (a.X - b.X) + (a.Y - b.Y)
}

// MetricByName maps a config value to a metric.
func MetricByName(name string) (Metric, error) {
	switch name {
	case "", "euclidean":
		return Euclidean, nil
	case "signed-sum":
		return SignedSum, nil
	}
	return nil, fmt.Errorf("%w: unknown metric %q", ErrOptions, name)
}

type Options struct {
	// Epsilon is the neighbourhood radius, inclusive.
	Epsilon float64
	// MinPoints is the smallest neighbourhood, the point itself included,
	// that seeds or extends a cluster.
	MinPoints int
	// Metric defaults to Euclidean.
	Metric Metric
}

func (o Options) validate() error {
	if o.Epsilon < 0 {
		return fmt.Errorf("%w: epsilon %v is negative", ErrOptions, o.Epsilon)
	}
	if o.MinPoints < 1 {
		return fmt.Errorf("%w: min points %d is below 1", ErrOptions, o.MinPoints)
	}
	return nil
}

// Cluster is a group of points; noise is never returned.
type Cluster []geometry.Point

// DBSCAN grows clusters from every unvisited point whose neighbourhood is
// dense enough. A border point reachable from two clusters is reported in
// both.
func DBSCAN(points []geometry.Point, opts Options) ([]Cluster, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.Metric == nil {
		opts.Metric = Euclidean
	}

	neighbours := func(i int) []int {
		var out []int
		for j, q := range points {
			if opts.Metric(points[i], q) <= opts.Epsilon {
				out = append(out, j)
			}
		}
		return out
	}

	visited := make([]bool, len(points))
	var clusters []Cluster

	for i := range points {
		if visited[i] {
			continue
		}
		visited[i] = true

		members := neighbours(i)
		if len(members) < opts.MinPoints {
			continue
		}
		in := make(map[int]bool, len(members))
		for _, m := range members {
			in[m] = true
		}

		for k := 0; k < len(members); k++ {
			r := members[k]
			if visited[r] {
				continue
			}
			visited[r] = true
			more := neighbours(r)
			if len(more) < opts.MinPoints {
				continue
			}
			for _, m := range more {
				if !in[m] {
					in[m] = true
					members = append(members, m)
				}
			}
		}

		c := make(Cluster, len(members))
		for k, m := range members {
			c[k] = points[m]
		}
		clusters = append(clusters, c)
	}
	return clusters, nil
}

// Largest returns the biggest cluster, the first one on ties.
func Largest(clusters []Cluster) Cluster {
	var best Cluster
	for _, c := range clusters {
		if len(c) > len(best) {
			best = c
		}
	}
	return best
}
