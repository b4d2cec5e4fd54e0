package ortho

import "github.com/matzehuels/orthoroute/pkg/geom"

// ChannelPort records that a node side opens into a channel.
type ChannelPort struct {
	Node int  `json:"node"`
	Side Side `json:"side"`
}

// Channel is a free rectangle between node boxes that routes may run
// through, parallel to its orientation.
type Channel struct {
	Rect        geom.Rect     `json:"rect"`
	Orientation Orientation   `json:"orientation"`
	Ports       []ChannelPort `json:"ports,omitempty"`
}

// ChannelRef identifies a channel by its index within the vertical or
// horizontal channel list.
type ChannelRef struct {
	Index       int
	Orientation Orientation
}

// noChannel is returned for vertices that do not lie on a channel.
var noChannel = ChannelRef{Index: -1}

// Width returns the extent of the channel across its orientation.
func (c *Channel) Width() float64 {
	if c.Orientation == Vertical {
		return c.Rect.Width()
	}
	return c.Rect.Height()
}

// Middle returns the coordinate of the channel centerline.
func (c *Channel) Middle() float64 {
	if c.Orientation == Vertical {
		return c.Rect.Center().X
	}
	return c.Rect.Center().Y
}

// Representative projects p onto the channel centerline.
func (c *Channel) Representative(p geom.Point) geom.Point {
	if c.Orientation == Vertical {
		return geom.Point{X: c.Middle(), Y: p.Y}
	}
	return geom.Point{X: p.X, Y: c.Middle()}
}

// SlotPosition projects p onto track slot of a channel divided into total
// tracks. Tracks are spread evenly and counted from the channel's Min side.
func (c *Channel) SlotPosition(p geom.Point, slot, total int) geom.Point {
	spacing := c.Width() / float64(total+1)
	offset := spacing * float64(slot+1)
	if c.Orientation == Vertical {
		return geom.Point{X: c.Rect.Min.X + offset, Y: p.Y}
	}
	return geom.Point{X: p.X, Y: c.Rect.Min.Y + offset}
}

func (c *Channel) mergeVertical(o *Channel) {
	c.Rect.Min.Y = min(c.Rect.Min.Y, o.Rect.Min.Y)
	c.Rect.Max.Y = max(c.Rect.Max.Y, o.Rect.Max.Y)
	c.Rect.Min.X = max(c.Rect.Min.X, o.Rect.Min.X)
	c.Rect.Max.X = min(c.Rect.Max.X, o.Rect.Max.X)
	c.Ports = append(c.Ports, o.Ports...)
}

func (c *Channel) mergeHorizontal(o *Channel) {
	c.Rect.Min.X = min(c.Rect.Min.X, o.Rect.Min.X)
	c.Rect.Max.X = max(c.Rect.Max.X, o.Rect.Max.X)
	c.Rect.Min.Y = max(c.Rect.Min.Y, o.Rect.Min.Y)
	c.Rect.Max.Y = min(c.Rect.Max.Y, o.Rect.Max.Y)
	c.Ports = append(c.Ports, o.Ports...)
}

// NodePort is the attachment point of a route on a node box side.
type NodePort struct {
	Node int
	Side Side
}

// Position returns the midpoint of the side.
func (p NodePort) Position(box geom.Rect) geom.Point {
	c := box.Center()
	switch p.Side {
	case SideRight:
		return geom.Point{X: box.Max.X, Y: c.Y}
	case SideLeft:
		return geom.Point{X: box.Min.X, Y: c.Y}
	case SideTop:
		return geom.Point{X: c.X, Y: box.Min.Y}
	default:
		return geom.Point{X: c.X, Y: box.Max.Y}
	}
}

// ChannelPosition returns the coordinate of the port along its channel.
func (p NodePort) ChannelPosition(box geom.Rect) float64 {
	if p.Side.Orientation() == Vertical {
		return box.Center().Y
	}
	return box.Center().X
}

// SlotPosition returns the attachment point of slot out of total slots
// spread evenly along the side.
func (p NodePort) SlotPosition(box geom.Rect, slot, total int) geom.Point {
	switch p.Side {
	case SideRight, SideLeft:
		spacing := box.Height() / float64(total+1)
		x := box.Min.X
		if p.Side == SideRight {
			x = box.Max.X
		}
		return geom.Point{X: x, Y: box.Min.Y + spacing*float64(slot+1)}
	default:
		spacing := box.Width() / float64(total+1)
		y := box.Min.Y
		if p.Side == SideBottom {
			y = box.Max.Y
		}
		return geom.Point{X: box.Min.X + spacing*float64(slot+1), Y: y}
	}
}
