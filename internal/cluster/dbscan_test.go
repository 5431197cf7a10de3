package cluster

import (
	"errors"
	"testing"

	"go.viam.com/test"

	"livefen/internal/geometry"
)

var scattered = []geometry.Point{
	geometry.Pt(0, 0),
	geometry.Pt(100, 0),
	geometry.Pt(0, 100),
	geometry.Pt(100, 100),
}

func TestSingletonClusters(t *testing.T) {
	clusters, err := DBSCAN(scattered, Options{Epsilon: 1, MinPoints: 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(clusters), test.ShouldEqual, len(scattered))
	for i, c := range clusters {
		test.That(t, c, test.ShouldResemble, Cluster{scattered[i]})
	}
}

func TestZeroEpsilonIsAllNoise(t *testing.T) {
	clusters, err := DBSCAN(scattered, Options{Epsilon: 0, MinPoints: 2})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, clusters, test.ShouldBeEmpty)
}

func TestTwoGroups(t *testing.T) {
	var pts []geometry.Point
	for i := 0; i < 6; i++ {
		pts = append(pts, geometry.Pt(float64(i), 0))
	}
	for i := 0; i < 3; i++ {
		pts = append(pts, geometry.Pt(50+float64(i), 50))
	}
	pts = append(pts, geometry.Pt(200, 200))

	clusters, err := DBSCAN(pts, Options{Epsilon: 1.5, MinPoints: 3})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(clusters), test.ShouldEqual, 2)
	test.That(t, len(clusters[0]), test.ShouldEqual, 6)
	test.That(t, len(clusters[1]), test.ShouldEqual, 3)
	test.That(t, len(Largest(clusters)), test.ShouldEqual, 6)
}

func TestMetricChoice(t *testing.T) {
	pts := []geometry.Point{geometry.Pt(0, 0), geometry.Pt(30, 40)}

	clusters, err := DBSCAN(pts, Options{Epsilon: 10, MinPoints: 2, Metric: Euclidean})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, clusters, test.ShouldBeEmpty)

	// (0-30)+(0-40) is negative, so the first point reaches the second.
	clusters, err = DBSCAN(pts, Options{Epsilon: 10, MinPoints: 2, Metric: SignedSum})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(clusters), test.ShouldEqual, 1)
	test.That(t, len(clusters[0]), test.ShouldEqual, 2)

	m, err := MetricByName("signed-sum")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m(pts[1], pts[0]), test.ShouldEqual, 70.0)
	_, err = MetricByName("manhattan")
	test.That(t, errors.Is(err, ErrOptions), test.ShouldBeTrue)
}

func TestValidation(t *testing.T) {
	_, err := DBSCAN(scattered, Options{Epsilon: -1, MinPoints: 2})
	test.That(t, errors.Is(err, ErrOptions), test.ShouldBeTrue)

	_, err = DBSCAN(scattered, Options{Epsilon: 1, MinPoints: 0})
	test.That(t, errors.Is(err, ErrOptions), test.ShouldBeTrue)

	clusters, err := DBSCAN(nil, Options{Epsilon: 1, MinPoints: 2})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, clusters, test.ShouldBeEmpty)
}
