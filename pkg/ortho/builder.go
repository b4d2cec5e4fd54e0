package ortho

import (
	"cmp"
	"slices"

	"github.com/matzehuels/orthoroute/pkg/geom"
)

// DefaultMargin is the free border kept around all boxes when building
// channels.
const DefaultMargin = 20.0

// limit is one box edge seen as an obstacle line. coord is the position of
// the line, lo..hi its extent along the line. node is -1 for the frame
// around the scene.
type limit struct {
	coord  float64
	lo, hi float64
	node   int
}

func (l limit) spans(v float64) bool { return v >= l.lo && v <= l.hi }

// edgeLimits holds the four edge lists, each sorted by coord. left holds the
// left edges of boxes, which bound channels from the right, and so on.
type edgeLimits struct {
	left, right, top, bottom []limit
}

func newEdgeLimits(boxes []geom.Rect, margin float64) edgeLimits {
	var l edgeLimits
	for i, b := range boxes {
		l.left = append(l.left, limit{b.Min.X, b.Min.Y, b.Max.Y, i})
		l.right = append(l.right, limit{b.Max.X, b.Min.Y, b.Max.Y, i})
		l.top = append(l.top, limit{b.Min.Y, b.Min.X, b.Max.X, i})
		l.bottom = append(l.bottom, limit{b.Max.Y, b.Min.X, b.Max.X, i})
	}

	// The frame closes every search: its left edge sits at the far right,
	// its top edge at the far bottom.
	frame := geom.Bounds(boxes).Expand(margin)
	l.left = append(l.left, limit{frame.Max.X, frame.Min.Y, frame.Max.Y, -1})
	l.right = append(l.right, limit{frame.Min.X, frame.Min.Y, frame.Max.Y, -1})
	l.top = append(l.top, limit{frame.Max.Y, frame.Min.X, frame.Max.X, -1})
	l.bottom = append(l.bottom, limit{frame.Min.Y, frame.Min.X, frame.Max.X, -1})

	byCoord := func(a, b limit) int { return cmp.Compare(a.coord, b.coord) }
	slices.SortStableFunc(l.left, byCoord)
	slices.SortStableFunc(l.right, byCoord)
	slices.SortStableFunc(l.top, byCoord)
	slices.SortStableFunc(l.bottom, byCoord)
	return l
}

// BuildChannels partitions the free space around boxes into vertical and
// horizontal channels.
//
// For every box edge the first free rectangle bounded by that edge is
// searched: for a left edge, the nearest bottom edge above it, the nearest
// top edge below it and the nearest right edge to its left that spans both.
// A rectangle that intersects an already found channel of the same
// orientation is merged into it. Vertical merges keep the narrowest width
// and the tallest extent; horizontal merges do the opposite. Every box edge
// contributes one port to the channel it opens into.
func BuildChannels(boxes []geom.Rect, margin float64) (vertical, horizontal []Channel) {
	if len(boxes) == 0 {
		return nil, nil
	}
	l := newEdgeLimits(boxes, margin)

	addVertical := func(rect geom.Rect, node int, side Side) {
		ch := Channel{Rect: rect, Orientation: Vertical}
		if node >= 0 {
			ch.Ports = append(ch.Ports, ChannelPort{Node: node, Side: side})
		}
		for i := range vertical {
			if vertical[i].Rect.Intersects(ch.Rect) {
				vertical[i].mergeVertical(&ch)
				return
			}
		}
		vertical = append(vertical, ch)
	}
	addHorizontal := func(rect geom.Rect, node int, side Side) {
		ch := Channel{Rect: rect, Orientation: Horizontal}
		if node >= 0 {
			ch.Ports = append(ch.Ports, ChannelPort{Node: node, Side: side})
		}
		for i := range horizontal {
			if horizontal[i].Rect.Intersects(ch.Rect) {
				horizontal[i].mergeHorizontal(&ch)
				return
			}
		}
		horizontal = append(horizontal, ch)
	}

	// Left edges: the channel lies to the left of the box.
	for _, right := range l.left {
		if rect, ok := l.verticalLeftOf(right); ok {
			addVertical(rect, right.node, SideLeft)
		}
	}
	// Right edges: the channel lies to the right of the box.
	for _, left := range l.right {
		if rect, ok := l.verticalRightOf(left); ok {
			addVertical(rect, left.node, SideRight)
		}
	}
	// Top edges: the channel lies above the box.
	for _, bottom := range l.top {
		if rect, ok := l.horizontalAbove(bottom); ok {
			addHorizontal(rect, bottom.node, SideTop)
		}
	}
	// Bottom edges: the channel lies below the box.
	for _, top := range l.bottom {
		if rect, ok := l.horizontalBelow(top); ok {
			addHorizontal(rect, top.node, SideBottom)
		}
	}
	return vertical, horizontal
}

func (l edgeLimits) verticalLeftOf(right limit) (geom.Rect, bool) {
	for i := len(l.bottom) - 1; i >= 0; i-- {
		top := l.bottom[i]
		if top.coord > right.lo || !top.spans(right.coord) {
			continue
		}
		for _, bottom := range l.top {
			if bottom.coord < right.hi || !bottom.spans(right.coord) {
				continue
			}
			for j := len(l.right) - 1; j >= 0; j-- {
				left := l.right[j]
				if left.coord > right.coord {
					continue
				}
				if left.lo <= bottom.coord && top.coord <= left.hi {
					return rectOf(left.coord, top.coord, right.coord, bottom.coord), true
				}
			}
		}
	}
	return geom.Rect{}, false
}

func (l edgeLimits) verticalRightOf(left limit) (geom.Rect, bool) {
	for i := len(l.bottom) - 1; i >= 0; i-- {
		top := l.bottom[i]
		if top.coord > left.lo || !top.spans(left.coord) {
			continue
		}
		for _, bottom := range l.top {
			if bottom.coord < left.hi || !bottom.spans(left.coord) {
				continue
			}
			for _, right := range l.left {
				if left.coord > right.coord {
					continue
				}
				if right.lo <= bottom.coord && top.coord <= right.hi {
					return rectOf(left.coord, top.coord, right.coord, bottom.coord), true
				}
			}
		}
	}
	return geom.Rect{}, false
}

func (l edgeLimits) horizontalAbove(bottom limit) (geom.Rect, bool) {
	for i := len(l.right) - 1; i >= 0; i-- {
		left := l.right[i]
		if left.coord > bottom.lo || !left.spans(bottom.coord) {
			continue
		}
		for _, right := range l.left {
			if right.coord < bottom.hi || !right.spans(bottom.coord) {
				continue
			}
			for j := len(l.bottom) - 1; j >= 0; j-- {
				top := l.bottom[j]
				if top.coord > bottom.coord {
					continue
				}
				if top.lo <= right.coord && left.coord <= top.hi {
					return rectOf(left.coord, top.coord, right.coord, bottom.coord), true
				}
			}
		}
	}
	return geom.Rect{}, false
}

func (l edgeLimits) horizontalBelow(top limit) (geom.Rect, bool) {
	for i := len(l.right) - 1; i >= 0; i-- {
		left := l.right[i]
		if left.coord > top.lo || !left.spans(top.coord) {
			continue
		}
		for _, right := range l.left {
			if right.coord < top.hi || !right.spans(top.coord) {
				continue
			}
			for _, bottom := range l.top {
				if top.coord > bottom.coord {
					continue
				}
				if bottom.lo <= right.coord && left.coord <= bottom.hi {
					return rectOf(left.coord, top.coord, right.coord, bottom.coord), true
				}
			}
		}
	}
	return geom.Rect{}, false
}

func rectOf(minX, minY, maxX, maxY float64) geom.Rect {
	return geom.FromMinMax(geom.Point{X: minX, Y: minY}, geom.Point{X: maxX, Y: maxY})
}
