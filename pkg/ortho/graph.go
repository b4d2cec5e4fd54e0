package ortho

import (
	"cmp"
	"slices"

	"github.com/matzehuels/orthoroute/pkg/geom"
)

// VertexKind tags a routing graph vertex.
type VertexKind int

const (
	// VertexNode is a node box.
	VertexNode VertexKind = iota
	// VertexPort is the attachment of a node side to its channel.
	VertexPort
	// VertexBend is the crossing of a vertical and a horizontal channel.
	VertexBend
)

func (k VertexKind) String() string {
	switch k {
	case VertexNode:
		return "node"
	case VertexPort:
		return "port"
	default:
		return "bend"
	}
}

// VertexID is a handle into the graph's vertex arena.
type VertexID int

// Vertex is a tagged routing graph vertex. Which fields are meaningful
// depends on Kind:
//
//	VertexNode: Node
//	VertexPort: Node, Side, Channel (index within Side.Orientation())
//	VertexBend: VChannel, HChannel
type Vertex struct {
	Kind      VertexKind
	Node      int
	Side      Side
	Channel   int
	VChannel  int
	HChannel  int
	Neighbors []VertexID
}

// ChannelFor returns the channel the vertex belongs to when travelling with
// orientation o. A port always returns its own channel. Node vertices lie on
// no channel.
func (v *Vertex) ChannelFor(o Orientation) ChannelRef {
	switch v.Kind {
	case VertexPort:
		return ChannelRef{Index: v.Channel, Orientation: v.Side.Orientation()}
	case VertexBend:
		if o == Vertical {
			return ChannelRef{Index: v.VChannel, Orientation: Vertical}
		}
		return ChannelRef{Index: v.HChannel, Orientation: Horizontal}
	default:
		return noChannel
	}
}

// stop is a port or bend vertex placed along a channel.
type stop struct {
	pos    float64
	vertex VertexID
}

type bendKey struct{ v, h int }

// Graph is the routing graph: node, port and bend vertices connected along
// channels. It owns copies of the boxes and channels it was built from.
type Graph struct {
	Boxes      []geom.Rect
	Vertical   []Channel
	Horizontal []Channel

	vertices []Vertex
	nodes    []VertexID
	ports    map[NodePort]VertexID
	bends    []VertexID
	bendAt   map[bendKey]VertexID
	stops    [][]stop // by global channel id
}

// NewGraph builds the routing graph for boxes and their channels.
//
// Node vertices come first, then one port vertex per channel port
// (vertical channels before horizontal ones), then one bend vertex per
// intersecting (vertical, horizontal) channel pair. Consecutive stops along
// each channel are connected after sorting by position.
func NewGraph(boxes []geom.Rect, vertical, horizontal []Channel) (*Graph, error) {
	g := &Graph{
		Boxes:      slices.Clone(boxes),
		Vertical:   cloneChannels(vertical),
		Horizontal: cloneChannels(horizontal),
		ports:      make(map[NodePort]VertexID),
		bendAt:     make(map[bendKey]VertexID),
	}
	g.stops = make([][]stop, len(g.Vertical)+len(g.Horizontal))

	type edge struct{ a, b VertexID }
	var edges []edge

	for i := range g.Boxes {
		g.nodes = append(g.nodes, g.add(Vertex{Kind: VertexNode, Node: i}))
	}

	for _, o := range []Orientation{Vertical, Horizontal} {
		for ci, ch := range g.channels(o) {
			if ch.Orientation != o {
				return nil, newError(ErrMalformedGraph, -1, -1, g.GlobalID(ChannelRef{ci, o}),
					"%s channel listed as %s", ch.Orientation, o)
			}
			for _, p := range ch.Ports {
				if p.Node < 0 || p.Node >= len(g.Boxes) {
					return nil, newError(ErrMalformedGraph, -1, -1, g.GlobalID(ChannelRef{ci, o}),
						"port references unknown node %d", p.Node)
				}
				if p.Side.Orientation() != o {
					return nil, newError(ErrMalformedGraph, -1, -1, g.GlobalID(ChannelRef{ci, o}),
						"%s port of node %d on %s channel", p.Side, p.Node, o)
				}
				id := g.add(Vertex{Kind: VertexPort, Node: p.Node, Side: p.Side, Channel: ci})
				g.ports[NodePort{p.Node, p.Side}] = id
				edges = append(edges, edge{g.nodes[p.Node], id})
				pos := NodePort{p.Node, p.Side}.ChannelPosition(g.Boxes[p.Node])
				gid := g.GlobalID(ChannelRef{ci, o})
				g.stops[gid] = append(g.stops[gid], stop{pos, id})
			}
		}
	}

	for vi := range g.Vertical {
		for hi := range g.Horizontal {
			vr, hr := g.Vertical[vi].Rect, g.Horizontal[hi].Rect
			if !vr.Intersects(hr) {
				continue
			}
			c := vr.Intersect(hr).Center()
			id := g.add(Vertex{Kind: VertexBend, VChannel: vi, HChannel: hi})
			g.bends = append(g.bends, id)
			g.bendAt[bendKey{vi, hi}] = id
			vg := g.GlobalID(ChannelRef{vi, Vertical})
			hg := g.GlobalID(ChannelRef{hi, Horizontal})
			g.stops[vg] = append(g.stops[vg], stop{c.Y, id})
			g.stops[hg] = append(g.stops[hg], stop{c.X, id})
		}
	}

	// Channel travel edges go after node-port edges so that neighbors
	// along a channel are listed after the node a port belongs to.
	for gid := range g.stops {
		s := g.stops[gid]
		slices.SortStableFunc(s, func(a, b stop) int { return cmp.Compare(a.pos, b.pos) })
		for i := 1; i < len(s); i++ {
			edges = append(edges, edge{s[i-1].vertex, s[i].vertex})
		}
	}

	for _, e := range edges {
		g.vertices[e.a].Neighbors = append(g.vertices[e.a].Neighbors, e.b)
		g.vertices[e.b].Neighbors = append(g.vertices[e.b].Neighbors, e.a)
	}
	return g, nil
}

func (g *Graph) add(v Vertex) VertexID {
	g.vertices = append(g.vertices, v)
	return VertexID(len(g.vertices) - 1)
}

func cloneChannels(chs []Channel) []Channel {
	out := make([]Channel, len(chs))
	for i, c := range chs {
		out[i] = c
		out[i].Ports = slices.Clone(c.Ports)
	}
	return out
}

// Len returns the number of vertices.
func (g *Graph) Len() int { return len(g.vertices) }

// Vertex returns the vertex for id.
func (g *Graph) Vertex(id VertexID) *Vertex { return &g.vertices[id] }

// NodeVertex returns the vertex of box node.
func (g *Graph) NodeVertex(node int) VertexID { return g.nodes[node] }

// PortVertex returns the port vertex of a node side, if the side opens into
// a channel.
func (g *Graph) PortVertex(node int, side Side) (VertexID, bool) {
	id, ok := g.ports[NodePort{node, side}]
	return id, ok
}

// BendVertex returns the bend at the crossing of vertical channel v and
// horizontal channel h.
func (g *Graph) BendVertex(v, h int) (VertexID, bool) {
	id, ok := g.bendAt[bendKey{v, h}]
	return id, ok
}

// Bends returns all bend vertices in creation order.
func (g *Graph) Bends() []VertexID { return g.bends }

// NodeCount returns the number of boxes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

func (g *Graph) channels(o Orientation) []Channel {
	if o == Vertical {
		return g.Vertical
	}
	return g.Horizontal
}

// Channel returns the channel ref points to.
func (g *Graph) Channel(ref ChannelRef) *Channel {
	if ref.Orientation == Vertical {
		return &g.Vertical[ref.Index]
	}
	return &g.Horizontal[ref.Index]
}

// ChannelCount returns the number of vertical plus horizontal channels.
func (g *Graph) ChannelCount() int { return len(g.Vertical) + len(g.Horizontal) }

// GlobalID maps a channel ref to a single index: vertical channels first,
// then horizontal ones.
func (g *Graph) GlobalID(ref ChannelRef) int {
	if ref.Orientation == Vertical {
		return ref.Index
	}
	return len(g.Vertical) + ref.Index
}

// RefOf is the inverse of GlobalID.
func (g *Graph) RefOf(gid int) ChannelRef {
	if gid < len(g.Vertical) {
		return ChannelRef{gid, Vertical}
	}
	return ChannelRef{gid - len(g.Vertical), Horizontal}
}

// Crossings returns the indices of the channels crossing ref, in bend
// creation order.
func (g *Graph) Crossings(ref ChannelRef) []int {
	var out []int
	for _, id := range g.bends {
		b := &g.vertices[id]
		switch {
		case ref.Orientation == Vertical && b.VChannel == ref.Index:
			out = append(out, b.HChannel)
		case ref.Orientation == Horizontal && b.HChannel == ref.Index:
			out = append(out, b.VChannel)
		}
	}
	return out
}

// BendCenter returns the center of the crossing of channels v and h.
func (g *Graph) BendCenter(v, h int) geom.Point {
	return g.Vertical[v].Rect.Intersect(g.Horizontal[h].Rect).Center()
}

// anchor returns the representative point of a path vertex: the projection
// of a port onto its channel centerline or the center of a bend.
func (g *Graph) anchor(id VertexID) (geom.Point, error) {
	v := g.Vertex(id)
	switch v.Kind {
	case VertexPort:
		ch := g.Channel(v.ChannelFor(Vertical))
		return ch.Representative(NodePort{v.Node, v.Side}.Position(g.Boxes[v.Node])), nil
	case VertexBend:
		return g.BendCenter(v.VChannel, v.HChannel), nil
	default:
		return geom.Point{}, graphError(ErrMalformedRoute, "node vertex %d inside a path", id)
	}
}
