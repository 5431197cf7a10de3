package lines

import (
	"math"

	"livefen/internal/geometry"
)

const samplesPerSegment = 10

type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	u := &unionFind{parent: make([]int, n)}
	for i := range u.parent {
		u.parent[i] = i
	}
	return u
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

func (u *unionFind) root(i int) bool {
	return u.parent[i] == i
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[ra] = rb
	}
}

// Similar reports whether a and b lie along the same line: the endpoints
// of each must sit close to the other's extension relative to both lengths.
func Similar(a, b geometry.Segment) bool {
	da, db := a.Length(), b.Length()
	avgDev := 0.25*(a.DistanceTo(b.A)+a.DistanceTo(b.B)+b.DistanceTo(a.A)+b.DistanceTo(a.B)) + 1e-5
	delta := 0.0625 * (da + db)
	return da/avgDev > delta && db/avgDev > delta
}

// Merge groups similar segments, vertical and horizontal separately, and
// replaces each group by one fitted segment. Groups come out in order of
// their first member.
func Merge(segs []geometry.Segment) []geometry.Segment {
	uf := newUnionFind(len(segs))

	var vertical, horizontal []int
	for i, s := range segs {
		if s.Vertical() {
			vertical = append(vertical, i)
		} else {
			horizontal = append(horizontal, i)
		}
	}

	join := func(idx []int) {
		for a := 0; a < len(idx); a++ {
			i := idx[a]
			if !uf.root(i) {
				continue
			}
			for b := a + 1; b < len(idx); b++ {
				j := idx[b]
				if !uf.root(j) {
					continue
				}
				if Similar(segs[i], segs[j]) {
					uf.union(i, j)
				}
			}
		}
	}
	join(vertical)
	join(horizontal)

	groups := map[int][]int{}
	var order []int
	for i := range segs {
		r := uf.find(i)
		if _, ok := groups[r]; !ok {
			order = append(order, r)
		}
		groups[r] = append(groups[r], i)
	}

	out := make([]geometry.Segment, 0, len(order))
	for _, r := range order {
		out = append(out, mergeGroup(segs, groups[r]))
	}
	return out
}

// mergeGroup fits a line through points sampled along every member and
// spans it over the group's enclosing circle.
func mergeGroup(segs []geometry.Segment, members []int) geometry.Segment {
	pts := make([]geometry.Point, 0, len(members)*samplesPerSegment)
	for _, m := range members {
		pts = append(pts, segs[m].Sample(samplesPerSegment)...)
	}
	w := geometry.MinEnclosingCircle(pts).Radius * math.Pi / 2
	dir, origin := geometry.FitLine(pts)
	return geometry.Segment{
		A: origin.Sub(dir.Mul(w)),
		B: origin.Add(dir.Mul(w)),
	}
}
