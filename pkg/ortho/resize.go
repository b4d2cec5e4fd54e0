package ortho

import (
	"slices"

	"github.com/matzehuels/orthoroute/pkg/geom"
)

// Defaults for MinChannelWidths.
const (
	BaseChannelWidth = 20.0
	SlotSpacing      = 8.0
)

// MinChannelWidths returns the width each channel needs for its tracks:
// base plus spacing per track. The results are split into vertical and
// horizontal channels, ready for ResizeChannels.
func MinChannelWidths(g *Graph, routing *Routing, base, spacing float64) (vertical, horizontal []float64) {
	vertical = make([]float64, len(g.Vertical))
	horizontal = make([]float64, len(g.Horizontal))
	for gid, n := range routing.ChannelSlots {
		w := base + float64(n)*spacing
		ref := g.RefOf(gid)
		if ref.Orientation == Vertical {
			vertical[ref.Index] = w
		} else {
			horizontal[ref.Index] = w
		}
	}
	return vertical, horizontal
}

// ResizeChannels widens every channel narrower than its minimum width and
// pushes the boxes and channels beyond it towards larger coordinates. The
// X axis is processed first with minVertical, then the Y axis with
// minHorizontal. Boxes never move towards smaller coordinates and relative
// order along each axis is kept. The graph's boxes and channels are
// updated in place.
func ResizeChannels(g *Graph, minVertical, minHorizontal []float64) error {
	if len(minVertical) != len(g.Vertical) {
		return graphError(ErrSizeMismatch, "%d vertical widths for %d channels", len(minVertical), len(g.Vertical))
	}
	if len(minHorizontal) != len(g.Horizontal) {
		return graphError(ErrSizeMismatch, "%d horizontal widths for %d channels", len(minHorizontal), len(g.Horizontal))
	}
	if err := g.resizeAxis(axisX, minVertical); err != nil {
		return err
	}
	return g.resizeAxis(axisY, minHorizontal)
}

// axis selects the coordinate a resize pass works on. Channels of the
// pass run across it.
type axis struct {
	orientation Orientation
	// nearSide is the side of a box that opens into the channel at its
	// larger coordinate, farSide the one that opens into the channel at its
	// smaller coordinate.
	nearSide, farSide Side
}

var (
	axisX = axis{Vertical, SideRight, SideLeft}
	axisY = axis{Horizontal, SideBottom, SideTop}
)

func (a axis) min(r geom.Rect) float64 {
	if a.orientation == Vertical {
		return r.Min.X
	}
	return r.Min.Y
}

func (a axis) max(r geom.Rect) float64 {
	if a.orientation == Vertical {
		return r.Max.X
	}
	return r.Max.Y
}

func (a axis) setMax(r *geom.Rect, v float64) {
	if a.orientation == Vertical {
		r.Max.X = v
	} else {
		r.Max.Y = v
	}
}

// shift moves r by d along the axis and returns its new max.
func (a axis) shift(r *geom.Rect, d float64) float64 {
	if a.orientation == Vertical {
		*r = r.Translate(geom.Point{X: d})
	} else {
		*r = r.Translate(geom.Point{Y: d})
	}
	return a.max(*r)
}

type moveKind int

const (
	moveBox moveKind = iota
	moveChannel
	widenChannel
)

type move struct {
	kind moveKind
	// value is the new min for moves and the width delta for widenChannel.
	value float64
	index int
}

func (g *Graph) resizeAxis(a axis, minWidths []float64) error {
	channels := g.channels(a.orientation)
	orth := g.channels(a.orientation.Opposite())

	var queue []move
	for i, w := range minWidths {
		if d := w - channels[i].Width(); d > 0 {
			queue = append(queue, move{widenChannel, d, i})
		}
	}

	// Channel each box opens into on its near side.
	nearChannel := make([]int, len(g.Boxes))
	for i := range nearChannel {
		nearChannel[i] = -1
	}
	for ci, ch := range channels {
		for _, p := range ch.Ports {
			if p.Side == a.nearSide {
				nearChannel[p.Node] = ci
			}
		}
	}

	// Crossing channels ending flush with a channel's max follow its growth.
	margins := make(map[int][]int)
	for _, id := range g.bends {
		b := &g.vertices[id]
		ci, oi := b.VChannel, b.HChannel
		if a.orientation == Horizontal {
			ci, oi = b.HChannel, b.VChannel
		}
		if a.max(channels[ci].Rect) == a.max(orth[oi].Rect) {
			margins[ci] = append(margins[ci], oi)
		}
	}

	pushFarBoxes := func(ch *Channel, edge float64) {
		for _, p := range ch.Ports {
			if p.Side != a.farSide {
				continue
			}
			if edge-a.min(g.Boxes[p.Node]) > 0 {
				queue = slices.Insert(queue, 0, move{moveBox, edge, p.Node})
			}
		}
	}

	n := len(g.Boxes) + len(channels) + 1
	budget := 64 * n * n
	for len(queue) > 0 {
		if budget--; budget < 0 {
			return graphError(ErrMalformedGraph, "%s channel resize does not converge", a.orientation)
		}
		m := queue[0]
		queue = queue[1:]

		switch m.kind {
		case moveBox:
			box := &g.Boxes[m.index]
			d := m.value - a.min(*box)
			if d <= 0 {
				continue
			}
			edge := a.shift(box, d)
			if ci := nearChannel[m.index]; ci >= 0 && edge-a.min(channels[ci].Rect) > 0 {
				queue = slices.Insert(queue, 0, move{moveChannel, edge, ci})
			}

		case moveChannel:
			ch := &channels[m.index]
			d := m.value - a.min(ch.Rect)
			if d <= 0 {
				continue
			}
			pushFarBoxes(ch, a.shift(&ch.Rect, d))

		case widenChannel:
			ch := &channels[m.index]
			edge := a.max(ch.Rect) + m.value
			a.setMax(&ch.Rect, edge)
			pushFarBoxes(ch, edge)
		}
	}

	keys := make([]int, 0, len(margins))
	for ci := range margins {
		keys = append(keys, ci)
	}
	slices.Sort(keys)
	for _, ci := range keys {
		edge := a.max(channels[ci].Rect)
		for _, oi := range margins[ci] {
			a.setMax(&orth[oi].Rect, edge)
		}
	}
	return nil
}
