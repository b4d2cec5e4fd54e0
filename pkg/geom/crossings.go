package geom

import (
	"slices"
	"sort"
)

// Polyline is an ordered list of points joined by straight segments.
type Polyline []Point

// CountCrossings returns the number of proper crossings between horizontal
// and vertical segments of the given polylines. Segments that only touch at
// an endpoint or run on top of each other are not counted, so consecutive
// segments of the same polyline never contribute. Diagonal segments are
// ignored.
//
// The count is computed with a left-to-right sweep: horizontal segments are
// inserted into a Fenwick tree keyed by their y rank while they are open,
// and every vertical segment queries the number of open horizontals strictly
// inside its y range. This runs in O(S log S) for S segments.
func CountCrossings(lines []Polyline) int {
	type hseg struct{ y, x1, x2 float64 }
	type vseg struct{ x, y1, y2 float64 }

	var hs []hseg
	var vs []vseg
	for _, pl := range lines {
		for i := 0; i+1 < len(pl); i++ {
			a, b := pl[i], pl[i+1]
			switch {
			case a.Y == b.Y && a.X != b.X:
				hs = append(hs, hseg{a.Y, min(a.X, b.X), max(a.X, b.X)})
			case a.X == b.X && a.Y != b.Y:
				vs = append(vs, vseg{a.X, min(a.Y, b.Y), max(a.Y, b.Y)})
			}
		}
	}
	if len(hs) == 0 || len(vs) == 0 {
		return 0
	}

	ys := make([]float64, 0, len(hs))
	for _, h := range hs {
		ys = append(ys, h.y)
	}
	slices.Sort(ys)
	ys = slices.Compact(ys)

	// Event kinds are ordered so that at equal x a horizontal ending there is
	// removed before verticals query, and one starting there is added after.
	const (
		evRemove = iota
		evQuery
		evAdd
	)
	type event struct {
		x    float64
		kind int
		idx  int
	}
	events := make([]event, 0, 2*len(hs)+len(vs))
	for i, h := range hs {
		events = append(events, event{h.x1, evAdd, i}, event{h.x2, evRemove, i})
	}
	for i, v := range vs {
		events = append(events, event{v.x, evQuery, i})
	}
	slices.SortFunc(events, func(a, b event) int {
		if a.x != b.x {
			if a.x < b.x {
				return -1
			}
			return 1
		}
		return a.kind - b.kind
	})

	ft := newFenwick(len(ys))
	rank := func(y float64) int { return sort.SearchFloat64s(ys, y) }

	crossings := 0
	for _, e := range events {
		switch e.kind {
		case evAdd:
			ft.add(rank(hs[e.idx].y), 1)
		case evRemove:
			ft.add(rank(hs[e.idx].y), -1)
		case evQuery:
			v := vs[e.idx]
			// open horizontals with y1 < y < y2
			lo := sort.Search(len(ys), func(i int) bool { return ys[i] > v.y1 })
			hi := sort.Search(len(ys), func(i int) bool { return ys[i] >= v.y2 })
			if hi > lo {
				crossings += ft.prefix(hi) - ft.prefix(lo)
			}
		}
	}
	return crossings
}

// fenwick is a binary indexed tree over ranks 0..n-1.
type fenwick []int

func newFenwick(n int) fenwick { return make(fenwick, n+1) }

func (f fenwick) add(rank, delta int) {
	for i := rank + 1; i < len(f); i += i & (-i) {
		f[i] += delta
	}
}

// prefix returns the sum over ranks [0, n).
func (f fenwick) prefix(n int) int {
	s := 0
	for i := n; i > 0; i -= i & (-i) {
		s += f[i]
	}
	return s
}
