package ortho

import "github.com/matzehuels/orthoroute/pkg/geom"

// MapSegments turns routed connections into polylines using the tracks and
// port slots of routing. It returns one polyline per routing edge, in the
// order of routing.Edges. Each polyline runs from the route's lower-indexed
// box to the higher one and alternates horizontal and vertical segments.
//
// The graph passed in must be the one the routing was computed for; its
// channels may have been resized since.
func MapSegments(g *Graph, routes []AbstractRoute, routing *Routing) ([]geom.Polyline, error) {
	out := make([]geom.Polyline, 0, len(routing.Edges))
	for _, e := range routing.Edges {
		if e.Route < 0 || e.Route >= len(routes) {
			return nil, graphError(ErrMissingRoute, "edge %d references route %d", e.Connection, e.Route)
		}
		line, err := mapEdge(g, &routes[e.Route], &e, routing)
		if err != nil {
			return nil, err
		}
		out = append(out, line)
	}
	return out, nil
}

func mapEdge(g *Graph, r *AbstractRoute, e *EdgeRoute, routing *Routing) (geom.Polyline, error) {
	if len(e.ChannelSlots) != len(r.Path) || len(e.PortSlots) != len(r.Path) {
		return nil, newError(ErrSizeMismatch, r.From, r.To, -1, "slots do not match path of %d elements", len(r.Path))
	}
	points := make(geom.Polyline, 0, len(r.Path)+2)
	sawPort := false
	var last Orientation

	for i, id := range r.Path {
		v := g.Vertex(id)
		switch v.Kind {
		case VertexPort:
			box := g.Boxes[v.Node]
			port := NodePort{v.Node, v.Side}
			pos := port.SlotPosition(box, e.PortSlots[i], routing.PortSlotCount(v.Node, v.Side))
			ref := ChannelRef{v.Channel, v.Side.Orientation()}
			slot := e.ChannelSlots[i]
			if sawPort {
				slot = e.ChannelSlots[i-1]
			}
			onTrack := g.Channel(ref).SlotPosition(pos, slot, routing.ChannelSlots[g.GlobalID(ref)])
			if sawPort {
				points = append(points, onTrack, pos)
				continue
			}
			points = append(points, pos, onTrack)
			sawPort = true
			last = ref.Orientation

		case VertexBend:
			if !sawPort {
				return nil, newError(ErrMalformedRoute, r.From, r.To, -1, "bend before start port")
			}
			vslot, hslot := e.ChannelSlots[i-1], e.ChannelSlots[i]
			if last == Horizontal {
				vslot, hslot = hslot, vslot
			}
			vref := ChannelRef{v.VChannel, Vertical}
			href := ChannelRef{v.HChannel, Horizontal}
			x := g.Channel(vref).SlotPosition(geom.Point{}, vslot, routing.ChannelSlots[g.GlobalID(vref)]).X
			y := g.Channel(href).SlotPosition(geom.Point{}, hslot, routing.ChannelSlots[g.GlobalID(href)]).Y
			points = append(points, geom.Point{X: x, Y: y})
			last = last.Opposite()

		default:
			return nil, newError(ErrMalformedRoute, r.From, r.To, -1, "node vertex %d inside a path", id)
		}
	}
	return points, nil
}

// MapAbstract maps abstract routes to polylines through port midpoints,
// channel centerlines and bend centers, before any slot assignment. The
// result is meant for debugging and has one polyline per route.
func MapAbstract(g *Graph, routes []AbstractRoute) []geom.Polyline {
	out := make([]geom.Polyline, 0, len(routes))
	for _, r := range routes {
		var points geom.Polyline
		first := true
		for _, id := range r.Path {
			v := g.Vertex(id)
			switch v.Kind {
			case VertexPort:
				pos := NodePort{v.Node, v.Side}.Position(g.Boxes[v.Node])
				onLine := g.Channel(ChannelRef{v.Channel, v.Side.Orientation()}).Representative(pos)
				if first {
					points = append(points, pos, onLine)
					first = false
				} else {
					points = append(points, onLine, pos)
				}
			case VertexBend:
				points = append(points, g.BendCenter(v.VChannel, v.HChannel))
			}
		}
		out = append(out, points)
	}
	return out
}
