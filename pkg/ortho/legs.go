package ortho

import (
	"cmp"

	"github.com/matzehuels/orthoroute/pkg/geom"
)

// PortSides classifies a leg by the channel halves its two ends open to.
// The declaration order is the stacking order inside a channel.
type PortSides int

const (
	// BothLeftOrTop legs start and end in the left (or top) half.
	BothLeftOrTop PortSides = iota
	// ChangeUp legs cross the channel, moving toward lower coordinates when
	// going from the left (top) half to the right (bottom) half.
	ChangeUp
	// ChangeDown legs cross the channel the other way.
	ChangeDown
	// BothRightOrBottom legs start and end in the right (or bottom) half.
	BothRightOrBottom
)

var portSidesNames = [...]string{"both-left-or-top", "change-up", "change-down", "both-right-or-bottom"}

func (p PortSides) String() string {
	if p < 0 || int(p) >= len(portSidesNames) {
		return "unknown"
	}
	return portSidesNames[p]
}

// stackOrder returns the rank of p when legs of different classes are
// stacked across a channel.
func (p PortSides) stackOrder() int { return int(p) }

// packTag returns the channel side from which legs of class p take tracks.
func (p PortSides) packTag() ConnectorTag {
	if p == BothRightOrBottom {
		return RightOrBottom
	}
	return LeftOrTop
}

// PortSidesFrom classifies a leg whose ends lie in halves a and b, at
// connector indices ca and cb.
func PortSidesFrom(a, b Side, ca, cb int) (PortSides, error) {
	if a.Orientation() != b.Orientation() {
		return 0, graphError(ErrMalformedRoute, "leg ends on %s and %s sides", a, b)
	}
	if a == b {
		if a == SideRight || a == SideBottom {
			return BothRightOrBottom, nil
		}
		return BothLeftOrTop, nil
	}
	if a == SideLeft || a == SideTop {
		if ca < cb {
			return ChangeDown, nil
		}
		return ChangeUp, nil
	}
	if ca > cb {
		return ChangeDown, nil
	}
	return ChangeUp, nil
}

// Leg is the part of a route that runs along one channel, between two
// connectors of that channel.
type Leg struct {
	Start      int // connector index
	End        int // connector index
	Edge       int // index into the routed connections
	RouteStart int // path index of the start element
	RouteLeg   int // path index that owns the channel slot of this leg
	RouteEnd   int // path index of the end element
	Circular   int
	Sides      PortSides
	RouteOrder int
	// Forward is set when the leg runs in the global coordinate direction
	// of its route; backward legs invert the global route order.
	Forward bool
}

func (l *Leg) span() (lo, hi int) {
	if l.Start < l.End {
		return l.Start, l.End
	}
	return l.End, l.Start
}

// gaps returns the connector gaps [lo, hi) the leg runs over. Gap k lies
// between connectors k and k+1; a leg between coincident connectors still
// occupies the gap after them.
func (l *Leg) gaps() (lo, hi int) {
	lo, hi = l.span()
	if lo == hi {
		hi++
	}
	return lo, hi
}

// Compare orders legs for track assignment within one channel: first by
// class, then by nesting, then by the global route order.
func (l *Leg) Compare(o *Leg) int {
	if c := cmp.Compare(l.Sides, o.Sides); c != 0 {
		return c
	}
	lmin, lmax := l.span()
	omin, omax := o.span()
	var c int
	switch l.Sides {
	case BothLeftOrTop, BothRightOrBottom:
		c = cmp.Compare(l.Circular, o.Circular)
	case ChangeUp:
		c = cmp.Or(cmp.Compare(lmin, omin), cmp.Compare(lmax, omax))
	case ChangeDown:
		c = cmp.Or(cmp.Compare(omax, lmax), cmp.Compare(omin, lmin))
	}
	if c != 0 {
		return c
	}
	if l.Sides == BothRightOrBottom {
		return cmp.Compare(o.RouteOrder, l.RouteOrder)
	}
	return cmp.Compare(l.RouteOrder, o.RouteOrder)
}

// RelativeOrder orders legs by their position across the channel, counted
// from the left (top) edge. It equals Compare except for BothRightOrBottom
// legs, which take tracks from the far side and so stack in reverse.
func (l *Leg) RelativeOrder(o *Leg) int {
	if l.Sides != o.Sides {
		return cmp.Compare(l.Sides.stackOrder(), o.Sides.stackOrder())
	}
	if l.Sides == BothRightOrBottom {
		return -l.Compare(o)
	}
	return l.Compare(o)
}

// legOrderState tracks whether the current leg of a route runs in the
// global direction (left to right, then top to bottom) while walking the
// route's bends.
type legOrderState struct {
	forward bool
}

func newLegOrderState(start, end geom.Point) legOrderState {
	if start.X == end.X {
		return legOrderState{forward: start.Y < end.Y}
	}
	return legOrderState{forward: start.X < end.X}
}

// advance returns the direction of the leg ending at bend and switches the
// state to the leg after it. Up-left and down-right bends keep the relative
// order of parallel routes; the other two mirror it.
func (s *legOrderState) advance(bend BendDirection) bool {
	keep := bend == UpLeft || bend == DownRight
	prev := s.forward
	if !s.forward {
		keep = !keep
	}
	s.forward = keep
	return prev
}
