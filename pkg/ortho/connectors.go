package ortho

import (
	"cmp"
	"slices"
)

// ConnectorTag names the half of a channel a connector opens to: the left
// half of a vertical channel or the top half of a horizontal one, or the
// opposite half.
type ConnectorTag int

const (
	RightOrBottom ConnectorTag = iota
	LeftOrTop
)

func (t ConnectorTag) String() string {
	if t == RightOrBottom {
		return "right-or-bottom"
	}
	return "left-or-top"
}

// tagForPort returns the half of the channel a node side opens from. A node
// whose right side faces the channel lies in the channel's left half.
func tagForPort(s Side) ConnectorTag {
	if s == SideRight || s == SideBottom {
		return LeftOrTop
	}
	return RightOrBottom
}

// tagForHalf returns the tag of the half named by s, as used for bends:
// SideRight means the crossing channel continues to the right.
// This is the reverse of tagForPort, so a bend's tag matches the
// PortSides class of the legs meeting there.
func tagForHalf(s Side) ConnectorTag {
	if s == SideRight || s == SideBottom {
		return RightOrBottom
	}
	return LeftOrTop
}

// ConnectorKind tells ports from bends.
type ConnectorKind int

const (
	ConnectorPort ConnectorKind = iota
	ConnectorBend
)

// Connector is a point along a channel where a leg can start or end: a
// node port, or one half of a crossing with a perpendicular channel.
type Connector struct {
	Kind     ConnectorKind
	Node     int // port connectors
	Crossing int // bend connectors: index of the crossing channel
	Tag      ConnectorTag
	Pos      float64
	Circular int
	Slots    int
}

// Connectors indexes the connectors of every channel by global channel id.
type Connectors struct {
	byChannel [][]Connector
}

// NewConnectors builds the connectors of every channel, sorted by position
// along the channel, and assigns their circular indices.
//
// The circular index walks the RightOrBottom connectors forward and then the
// LeftOrTop connectors backward, so it goes around the channel once. The
// distance between two connectors on that circle measures how nested two
// legs sharing a side are.
func NewConnectors(g *Graph) *Connectors {
	c := &Connectors{byChannel: make([][]Connector, g.ChannelCount())}
	for gid := range c.byChannel {
		ref := g.RefOf(gid)
		ch := g.Channel(ref)

		var conns []Connector
		for _, p := range ch.Ports {
			conns = append(conns, Connector{
				Kind: ConnectorPort,
				Node: p.Node,
				Tag:  tagForPort(p.Side),
				Pos:  NodePort{p.Node, p.Side}.ChannelPosition(g.Boxes[p.Node]),
			})
		}
		for _, cross := range g.Crossings(ref) {
			var center float64
			if ref.Orientation == Vertical {
				center = g.BendCenter(ref.Index, cross).Y
			} else {
				center = g.BendCenter(cross, ref.Index).X
			}
			conns = append(conns,
				Connector{Kind: ConnectorBend, Node: -1, Crossing: cross, Tag: RightOrBottom, Pos: center},
				Connector{Kind: ConnectorBend, Node: -1, Crossing: cross, Tag: LeftOrTop, Pos: center},
			)
		}
		slices.SortStableFunc(conns, func(a, b Connector) int { return cmp.Compare(a.Pos, b.Pos) })

		circular := 0
		for i := range conns {
			if conns[i].Tag == RightOrBottom {
				conns[i].Circular = circular
				circular++
			}
		}
		for i := len(conns) - 1; i >= 0; i-- {
			if conns[i].Tag == LeftOrTop {
				conns[i].Circular = circular
				circular++
			}
		}
		c.byChannel[gid] = conns
	}
	return c
}

// Channel returns the connectors of channel gid in position order.
func (c *Connectors) Channel(gid int) []Connector { return c.byChannel[gid] }

func (c *Connectors) resetSlots() {
	for _, ch := range c.byChannel {
		for i := range ch {
			ch[i].Slots = 0
		}
	}
}

// CircularDistance returns the shorter distance between connectors a and b
// of channel gid around the circular order.
func (c *Connectors) CircularDistance(gid, a, b int) int {
	conns := c.byChannel[gid]
	d := conns[a].Circular - conns[b].Circular
	if d < 0 {
		d = -d
	}
	if d > len(conns)/2 {
		return len(conns) - d
	}
	return d
}

func (c *Connectors) portIndex(gid int, p NodePort) (int, error) {
	tag := tagForPort(p.Side)
	for i, conn := range c.byChannel[gid] {
		if conn.Kind == ConnectorPort && conn.Node == p.Node && conn.Tag == tag {
			return i, nil
		}
	}
	return 0, newError(ErrConnectorNotFound, p.Node, -1, gid, "no %s port connector", p.Side)
}

func (c *Connectors) bendIndex(gid, crossing int, half Side) (int, error) {
	tag := tagForHalf(half)
	for i, conn := range c.byChannel[gid] {
		if conn.Kind == ConnectorBend && conn.Crossing == crossing && conn.Tag == tag {
			return i, nil
		}
	}
	return 0, newError(ErrConnectorNotFound, -1, -1, gid, "no %s bend connector for crossing channel %d", tag, crossing)
}
