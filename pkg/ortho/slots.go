package ortho

import (
	"cmp"
	"errors"
	"slices"

	"github.com/matzehuels/orthoroute/pkg/dag"
)

// EdgeRoute holds the track assignment of one routed connection. Both slot
// slices are indexed like the abstract route's Path: PortSlots at a port
// index is the slot on that node side, ChannelSlots at index i is the track
// of the leg leaving path element i.
type EdgeRoute struct {
	Route        int
	Connection   int
	PortSlots    []int
	ChannelSlots []int
}

// Routing is the result of slot assignment for a set of connections.
type Routing struct {
	Edges []EdgeRoute
	// PortSlots is the number of routes attached to each node side,
	// indexed node*4+side.
	PortSlots []int
	// ChannelSlots is the number of tracks each channel is divided into,
	// indexed by global channel id.
	ChannelSlots []int
	// Capacity is the maximum number of legs over any connector gap, per
	// global channel id. ChannelSlots equals it.
	Capacity []int
	// Legs are the legs of each channel in assignment order.
	Legs           [][]Leg
	DetectedCycles int
}

// PortSlotCount returns the number of routes attached to a node side.
func (r *Routing) PortSlotCount(node int, side Side) int {
	return r.PortSlots[node*sidesPerNode+int(side)]
}

// AssignSlots splits every route into channel legs and gives each leg a
// track in its channel and each route end a slot on its node side.
//
// Legs of a channel are ordered by class and nesting so that crossings
// inside the channel are avoided where possible. The pairwise decisions of
// all channels are merged into one global route order, which breaks the
// remaining ties consistently across channels. Tracks are then taken
// greedily from the left (top) side, or from the right (bottom) side for
// BothRightOrBottom legs. Legs that overlap along a channel never share a
// track, and a channel never uses more tracks than legs overlap at any
// point; when the greedy order cannot meet that bound the channel is
// coloured by leftmost gap instead.
//
// The connector slot counters in conns are recounted from zero, so a pass
// can be repeated on the same connectors.
func AssignSlots(g *Graph, conns *Connectors, connections []Connection, routes []AbstractRoute) (*Routing, error) {
	conns.resetSlots()
	r := &Routing{
		PortSlots:    make([]int, g.NodeCount()*sidesPerNode),
		ChannelSlots: make([]int, g.ChannelCount()),
		Capacity:     make([]int, g.ChannelCount()),
		Legs:         make([][]Leg, g.ChannelCount()),
	}

	for ei, c := range connections {
		ri, ok := FindRoute(routes, c.From, c.To)
		if !ok {
			return nil, newError(ErrMissingRoute, c.From, c.To, -1, "connection %d", ei)
		}
		route := &routes[ri]
		if len(route.Path) < 2 {
			return nil, newError(ErrMalformedRoute, c.From, c.To, -1, "path has %d elements", len(route.Path))
		}
		w := legWalker{g: g, conns: conns, routing: r, route: route, edge: ei}
		if err := w.walk(); err != nil {
			return nil, err
		}
		r.Edges = append(r.Edges, EdgeRoute{
			Route:        ri,
			Connection:   ei,
			PortSlots:    make([]int, len(route.Path)),
			ChannelSlots: make([]int, len(route.Path)),
		})
	}

	for gid, legs := range r.Legs {
		r.Capacity[gid] = capacity(len(conns.Channel(gid)), legs)
	}

	if err := r.orderLegs(len(connections)); err != nil {
		return nil, err
	}

	for gid, legs := range r.Legs {
		if len(legs) == 0 {
			continue
		}
		n, err := r.assignChannel(conns.Channel(gid), legs, r.Capacity[gid])
		if err != nil {
			return nil, err
		}
		r.ChannelSlots[gid] = n
	}
	return r, nil
}

// capacity returns the maximum number of legs spanning any gap between
// adjacent connectors. Gap i lies between connectors i and i+1.
func capacity(connectors int, legs []Leg) int {
	gaps := make([]int, connectors)
	for i := range legs {
		lo, hi := legs[i].gaps()
		for k := lo; k < hi; k++ {
			gaps[k]++
		}
	}
	best := 0
	for _, n := range gaps {
		best = max(best, n)
	}
	return best
}

// orderLegs sorts each channel's legs, derives the global route order from
// their pairwise relative order and sorts again with that order applied.
func (r *Routing) orderLegs(routes int) error {
	prec := dag.New(routes)
	for gid := range r.Legs {
		legs := r.Legs[gid]
		slices.SortStableFunc(legs, func(a, b Leg) int { return a.Compare(&b) })
		for i := 0; i+1 < len(legs); i++ {
			for j := i + 1; j < len(legs); j++ {
				li, lj := &legs[i], &legs[j]
				rel := li.RelativeOrder(lj)
				if rel == 0 {
					continue
				}
				before := rel < 0
				if !li.Forward && !lj.Forward {
					before = !before
				}
				var err error
				if before {
					err = prec.AddEdge(li.Edge, lj.Edge)
				} else {
					err = prec.AddEdge(lj.Edge, li.Edge)
				}
				if err != nil && !errors.Is(err, dag.ErrWouldCycle) {
					return graphError(ErrMalformedGraph, "route order: %v", err)
				}
			}
		}
	}
	r.DetectedCycles = prec.DetectedCycles()

	ranks, err := prec.Ranks()
	if err != nil {
		return graphError(ErrMalformedGraph, "route order: %v", err)
	}
	for gid := range r.Legs {
		legs := r.Legs[gid]
		for i := range legs {
			legs[i].RouteOrder = ranks[legs[i].Edge]
			if !legs[i].Forward {
				legs[i].RouteOrder = -legs[i].RouteOrder
			}
		}
		slices.SortStableFunc(legs, func(a, b Leg) int { return a.Compare(&b) })
	}
	return nil
}

// window is a closed range of free slots consumed from either end.
type window struct{ lo, hi int }

func newWindow(n int) window { return window{0, max(n-1, 0)} }

// consume takes the highest free slot when fromHigh is set, the lowest
// otherwise.
func (w *window) consume(fromHigh bool) int {
	if fromHigh {
		s := w.hi
		if w.hi > 0 {
			w.hi--
		}
		return s
	}
	s := w.lo
	w.lo++
	return s
}

// assignChannel gives every leg of one channel a track below capacity and
// its ends port slots. It returns the number of tracks, which is capacity.
func (r *Routing) assignChannel(conns []Connector, legs []Leg, capacity int) (int, error) {
	slots, ok := packTracks(len(conns), legs, capacity)
	if !ok {
		if slots, ok = colourTracks(len(conns), legs, capacity); !ok {
			return 0, graphError(ErrMalformedGraph, "legs do not fit %d tracks", capacity)
		}
	}

	ports := make([]window, len(conns))
	for i, c := range conns {
		ports[i] = newWindow(c.Slots)
	}

	for i := range legs {
		leg := &legs[i]
		e := &r.Edges[leg.Edge]
		e.ChannelSlots[leg.RouteLeg] = slots[i]

		switch leg.Sides {
		case BothLeftOrTop, BothRightOrBottom:
			e.PortSlots[leg.RouteStart] = ports[leg.Start].consume(leg.End > leg.Start)
			e.PortSlots[leg.RouteEnd] = ports[leg.End].consume(leg.End < leg.Start)
		case ChangeDown:
			if leg.Start > leg.End {
				e.PortSlots[leg.RouteEnd] = ports[leg.End].consume(true)
			} else {
				e.PortSlots[leg.RouteStart] = ports[leg.Start].consume(leg.End > leg.Start)
			}
		case ChangeUp:
			if leg.Start < leg.End {
				e.PortSlots[leg.RouteEnd] = ports[leg.End].consume(false)
			} else {
				e.PortSlots[leg.RouteStart] = ports[leg.Start].consume(leg.End > leg.Start)
			}
		}
	}

	// Ends on the far side of side-changing legs stack in reverse.
	for i := len(legs) - 1; i >= 0; i-- {
		leg := &legs[i]
		e := &r.Edges[leg.Edge]
		switch leg.Sides {
		case ChangeDown:
			if leg.Start < leg.End {
				e.PortSlots[leg.RouteEnd] = ports[leg.End].consume(false)
			} else {
				e.PortSlots[leg.RouteStart] = ports[leg.Start].consume(leg.End > leg.Start)
			}
		case ChangeUp:
			if leg.Start > leg.End {
				e.PortSlots[leg.RouteEnd] = ports[leg.End].consume(true)
			} else {
				e.PortSlots[leg.RouteStart] = ports[leg.Start].consume(leg.End > leg.Start)
			}
		}
	}
	return capacity, nil
}

// trackTable records the tracks taken over each connector gap of a channel.
type trackTable struct {
	used     [][]bool
	capacity int
}

func newTrackTable(gaps, capacity int) *trackTable {
	used := make([][]bool, gaps)
	for i := range used {
		used[i] = make([]bool, capacity)
	}
	return &trackTable{used: used, capacity: capacity}
}

func (t *trackTable) free(lo, hi, track int) bool {
	for k := lo; k < hi; k++ {
		if t.used[k][track] {
			return false
		}
	}
	return true
}

func (t *trackTable) take(lo, hi, track int) {
	for k := lo; k < hi; k++ {
		t.used[k][track] = true
	}
}

// pick returns the free track over [lo, hi) nearest the low edge, or the
// high edge when fromHigh is set. It returns -1 when none is free.
func (t *trackTable) pick(lo, hi int, fromHigh bool) int {
	for n := range t.capacity {
		track := n
		if fromHigh {
			track = t.capacity - 1 - n
		}
		if t.free(lo, hi, track) {
			t.take(lo, hi, track)
			return track
		}
	}
	return -1
}

// packTracks assigns tracks in the sorted leg order, each leg packing
// toward its class side. It fails when a leg finds every track taken.
func packTracks(gaps int, legs []Leg, capacity int) ([]int, bool) {
	t := newTrackTable(gaps, capacity)
	slots := make([]int, len(legs))
	for i := range legs {
		lo, hi := legs[i].gaps()
		if slots[i] = t.pick(lo, hi, legs[i].Sides.packTag() == RightOrBottom); slots[i] < 0 {
			return nil, false
		}
	}
	return slots, true
}

// colourTracks assigns tracks by left gap, the sorted order breaking ties.
// Every leg processed so far that overlaps the current one covers its first
// gap, so a free track always exists when capacity is the maximum overlap.
func colourTracks(gaps int, legs []Leg, capacity int) ([]int, bool) {
	order := make([]int, len(legs))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		alo, _ := legs[a].gaps()
		blo, _ := legs[b].gaps()
		return cmp.Compare(alo, blo)
	})

	t := newTrackTable(gaps, capacity)
	slots := make([]int, len(legs))
	for _, i := range order {
		lo, hi := legs[i].gaps()
		if slots[i] = t.pick(lo, hi, legs[i].Sides.packTag() == RightOrBottom); slots[i] < 0 {
			return nil, false
		}
	}
	return slots, true
}

// legWalker turns one abstract route into channel legs.
type legWalker struct {
	g       *Graph
	conns   *Connectors
	routing *Routing
	route   *AbstractRoute
	edge    int
}

func (w *legWalker) fail(kind error, gid int, format string, args ...any) error {
	return newError(kind, w.route.From, w.route.To, gid, format, args...)
}

// wrap attaches the route endpoints to connector lookup errors.
func (w *legWalker) wrap(err error) error {
	var e *Error
	if errors.As(err, &e) {
		e.From, e.To = w.route.From, w.route.To
	}
	return err
}

func (w *legWalker) countPort(v *Vertex) {
	w.routing.PortSlots[v.Node*sidesPerNode+int(v.Side)]++
}

func (w *legWalker) addLeg(gid, start, end, routeStart, routeEnd int, sides PortSides, forward bool) {
	chConns := w.conns.byChannel[gid]
	chConns[start].Slots++
	chConns[end].Slots++
	w.routing.Legs[gid] = append(w.routing.Legs[gid], Leg{
		Start:      start,
		End:        end,
		Edge:       w.edge,
		RouteStart: routeStart,
		RouteLeg:   routeStart,
		RouteEnd:   routeEnd,
		Circular:   w.conns.CircularDistance(gid, start, end),
		Sides:      sides,
		Forward:    forward,
	})
}

// crossing returns the channel a bend turns into when arriving on a
// channel of orientation o.
func crossing(b *Vertex, o Orientation) int {
	if o == Vertical {
		return b.HChannel
	}
	return b.VChannel
}

func (w *legWalker) bend(i int) (BendDirection, error) {
	if i >= len(w.route.Bends) {
		return 0, w.fail(ErrMalformedRoute, -1, "bend %d has no direction", i)
	}
	return w.route.Bends[i], nil
}

func (w *legWalker) walk() error {
	g, path := w.g, w.route.Path
	state := newLegOrderState(g.Boxes[w.route.From].Center(), g.Boxes[w.route.To].Center())

	start := g.Vertex(path[0])
	if start.Kind != VertexPort {
		return w.fail(ErrMalformedRoute, -1, "path starts with %s vertex", start.Kind)
	}
	w.countPort(start)
	o := start.Side.Orientation()
	startPort := NodePort{start.Node, start.Side}

	second := g.Vertex(path[1])
	switch second.Kind {
	case VertexPort:
		w.countPort(second)
		gid := g.GlobalID(second.ChannelFor(o))
		s, err := w.conns.portIndex(gid, startPort)
		if err != nil {
			return w.wrap(err)
		}
		e, err := w.conns.portIndex(gid, NodePort{second.Node, second.Side})
		if err != nil {
			return w.wrap(err)
		}
		sides, err := PortSidesFrom(start.Side.Opposite(), second.Side.Opposite(), s, e)
		if err != nil {
			return w.wrap(err)
		}
		w.addLeg(gid, s, e, 0, 1, sides, true)
		return nil
	case VertexBend:
	default:
		return w.fail(ErrMalformedRoute, -1, "unexpected %s vertex after start port", second.Kind)
	}

	// First leg: from the start port to the first bend.
	gid := g.GlobalID(ChannelRef{start.Channel, o})
	bd, err := w.bend(0)
	if err != nil {
		return err
	}
	half := bd.SideFor(o)
	s, err := w.conns.portIndex(gid, startPort)
	if err != nil {
		return w.wrap(err)
	}
	e, err := w.conns.bendIndex(gid, crossing(second, o), half)
	if err != nil {
		return w.wrap(err)
	}
	sides, err := PortSidesFrom(start.Side.Opposite(), half, s, e)
	if err != nil {
		return w.wrap(err)
	}
	w.addLeg(gid, s, e, 0, 1, sides, state.advance(bd))

	lastChannel := crossing(second, o)
	lastBend := bd
	o = o.Opposite()
	bi := 1

	for pos := 2; pos < len(path); pos++ {
		v := g.Vertex(path[pos])
		prev := g.Vertex(path[pos-1])
		halfStart := lastBend.SideFor(o)

		switch v.Kind {
		case VertexPort:
			// Last leg: from the previous bend to the end port.
			w.countPort(v)
			gid := g.GlobalID(ChannelRef{v.Channel, v.Side.Orientation()})
			s, err := w.conns.bendIndex(gid, crossing(prev, o), halfStart)
			if err != nil {
				return w.wrap(err)
			}
			e, err := w.conns.portIndex(gid, NodePort{v.Node, v.Side})
			if err != nil {
				return w.wrap(err)
			}
			sides, err := PortSidesFrom(halfStart, v.Side.Opposite(), s, e)
			if err != nil {
				return w.wrap(err)
			}
			w.addLeg(gid, s, e, pos-1, pos, sides, state.forward)
			return nil

		case VertexBend:
			bd, err := w.bend(bi)
			if err != nil {
				return err
			}
			halfEnd := bd.SideFor(o)
			gid := g.GlobalID(ChannelRef{lastChannel, o})
			s, err := w.conns.bendIndex(gid, crossing(prev, o), halfStart)
			if err != nil {
				return w.wrap(err)
			}
			e, err := w.conns.bendIndex(gid, crossing(v, o), halfEnd)
			if err != nil {
				return w.wrap(err)
			}
			sides, err := PortSidesFrom(halfStart, halfEnd, s, e)
			if err != nil {
				return w.wrap(err)
			}
			w.addLeg(gid, s, e, pos-1, pos, sides, state.advance(bd))
			lastBend = bd
			lastChannel = crossing(v, o)
			o = o.Opposite()
			bi++

		default:
			return w.fail(ErrMalformedRoute, -1, "unexpected %s vertex at path index %d", v.Kind, pos)
		}
	}
	return w.fail(ErrMalformedRoute, -1, "path does not end with a port")
}
