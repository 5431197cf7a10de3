// Package sweep finds pairwise segment intersections with a left-to-right
// sweep line.
package sweep

import (
	"container/heap"

	"livefen/internal/geometry"
)

// EventKind orders events that share an x position.
type EventKind int

const (
	SegmentStart EventKind = iota
	Crossing
	// Vertical is a whole vertical segment, handled once every segment
	// starting at its x is active and before any ends there.
	Vertical
	SegmentEnd
)

func (k EventKind) String() string {
	switch k {
	case SegmentStart:
		return "start"
	case Crossing:
		return "crossing"
	case Vertical:
		return "vertical"
	case SegmentEnd:
		return "end"
	}
	return "unknown"
}

type segment struct {
	geometry.Segment
	id    int
	value float64
	slope float64
}

// Event is one entry of the sweep queue.
type Event struct {
	At   geometry.Point
	Kind EventKind
	A, B *segment

	seq   int
	index int
}

type eventQueue []*Event

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	a, b := q[i], q[j]
	if a.At.X != b.At.X {
		return a.At.X < b.At.X
	}
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	return a.seq < b.seq
}

func (q eventQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *eventQueue) Push(x any) {
	e := x.(*Event)
	e.index = len(*q)
	*q = append(*q, e)
}

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*q = old[:n-1]
	return e
}

type pairKey struct{ lo, hi int }

func keyOf(a, b *segment) pairKey {
	if a.id < b.id {
		return pairKey{a.id, b.id}
	}
	return pairKey{b.id, a.id}
}

type sweeper struct {
	queue   eventQueue
	seq     int
	status  []*segment // descending value
	pending map[pairKey]*Event
	x       float64
	out     []geometry.Point
}

// Intersections returns every crossing point between the segments, in
// sweep order.
func Intersections(segs []geometry.Segment) []geometry.Point {
	s := &sweeper{pending: map[pairKey]*Event{}}
	for i, raw := range segs {
		seg := &segment{Segment: raw.Canonical(), id: i}
		seg.slope = seg.Slope()
		f, l := seg.First(), seg.Second()
		if f.X == l.X {
			s.push(&Event{At: f, Kind: Vertical, A: seg})
			continue
		}
		s.push(&Event{At: f, Kind: SegmentStart, A: seg})
		s.push(&Event{At: l, Kind: SegmentEnd, A: seg})
	}

	for s.queue.Len() > 0 {
		e := heap.Pop(&s.queue).(*Event)
		s.x = e.At.X
		switch e.Kind {
		case SegmentStart:
			s.start(e.A)
		case SegmentEnd:
			s.end(e.A)
		case Crossing:
			delete(s.pending, keyOf(e.A, e.B))
			s.cross(e)
		case Vertical:
			s.vertical(e.A)
		}
	}
	return s.out
}

func (s *sweeper) push(e *Event) {
	e.seq = s.seq
	s.seq++
	heap.Push(&s.queue, e)
}

func (s *sweeper) indexOf(seg *segment) int {
	for i, o := range s.status {
		if o == seg {
			return i
		}
	}
	return -1
}

func (s *sweeper) at(i int) *segment {
	if i < 0 || i >= len(s.status) {
		return nil
	}
	return s.status[i]
}

func (s *sweeper) recalculate() {
	for _, seg := range s.status {
		seg.value = seg.YAt(s.x)
	}
}

// above reports whether a sorts before b in the status. On equal values
// the steeper segment is larger just past the sweep position.
func above(a, b *segment) bool {
	if a.value != b.value {
		return a.value > b.value
	}
	return a.slope > b.slope
}

func (s *sweeper) start(seg *segment) {
	s.recalculate()
	seg.value = seg.YAt(s.x)

	pos := len(s.status)
	for i, o := range s.status {
		if above(seg, o) {
			pos = i
			break
		}
	}
	s.status = append(s.status, nil)
	copy(s.status[pos+1:], s.status[pos:])
	s.status[pos] = seg

	up, down := s.at(pos-1), s.at(pos+1)
	s.report(up, seg)
	s.report(seg, down)
	s.removeFuture(up, down)
}

func (s *sweeper) end(seg *segment) {
	i := s.indexOf(seg)
	if i < 0 {
		return
	}
	s.report(s.at(i-1), s.at(i+1))
	s.status = append(s.status[:i], s.status[i+1:]...)
}

func (s *sweeper) cross(e *Event) {
	i, j := s.indexOf(e.A), s.indexOf(e.B)
	if i < 0 || j < 0 {
		return
	}
	e.A.value, e.B.value = e.B.value, e.A.value
	s.status[i], s.status[j] = s.status[j], s.status[i]
	if i > j {
		i, j = j, i
	}
	top, bottom := s.status[i], s.status[j]

	up := s.at(i - 1)
	s.report(up, top)
	s.removeFuture(up, bottom)

	down := s.at(j + 1)
	s.report(bottom, down)
	s.removeFuture(top, down)

	s.out = append(s.out, e.At)
}

func (s *sweeper) vertical(seg *segment) {
	for _, o := range s.status {
		if p, ok := seg.Crossing(o.Segment); ok {
			s.out = append(s.out, p)
		}
	}
}

// report queues the crossing of a and b when it lies ahead of the sweep.
func (s *sweeper) report(a, b *segment) {
	if a == nil || b == nil {
		return
	}
	k := keyOf(a, b)
	if _, ok := s.pending[k]; ok {
		return
	}
	p, ok := a.Crossing(b.Segment)
	if !ok || p.X <= s.x {
		return
	}
	e := &Event{At: p, Kind: Crossing, A: a, B: b}
	s.push(e)
	s.pending[k] = e
}

// removeFuture cancels a queued crossing between two segments that are no
// longer neighbours.
func (s *sweeper) removeFuture(a, b *segment) {
	if a == nil || b == nil {
		return
	}
	k := keyOf(a, b)
	e, ok := s.pending[k]
	if !ok {
		return
	}
	heap.Remove(&s.queue, e.index)
	delete(s.pending, k)
}
