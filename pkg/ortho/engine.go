package ortho

import (
	"slices"

	"github.com/matzehuels/orthoroute/pkg/geom"
)

// ChannelSet is a precomputed channel partition.
type ChannelSet struct {
	Vertical   []Channel `json:"vertical"`
	Horizontal []Channel `json:"horizontal"`
}

// Options controls a Route pass. Zero values select the defaults.
type Options struct {
	// Margin around the bounding box of all boxes for BuildChannels.
	Margin float64
	// BaseChannelWidth and SlotSpacing size channels when Resize is set.
	BaseChannelWidth float64
	SlotSpacing      float64
	// Resize widens crowded channels and moves boxes apart to make room.
	Resize bool
	// Channels replaces BuildChannels when set.
	Channels *ChannelSet
}

func (o Options) withDefaults() Options {
	if o.Margin <= 0 {
		o.Margin = DefaultMargin
	}
	if o.BaseChannelWidth <= 0 {
		o.BaseChannelWidth = BaseChannelWidth
	}
	if o.SlotSpacing <= 0 {
		o.SlotSpacing = SlotSpacing
	}
	return o
}

// Stats summarizes a routing pass.
type Stats struct {
	Channels       int `json:"channels"`
	Routes         int `json:"routes"`
	Bends          int `json:"bends"`
	Legs           int `json:"legs"`
	DetectedCycles int `json:"detected_cycles"`
	Crossings      int `json:"crossings"`
}

// Result is the outcome of Route.
type Result struct {
	// Polylines has one entry per input connection, running from the
	// connection's From box to its To box. Self-loops have nil entries.
	Polylines []geom.Polyline
	// SelfLoops lists the input indices of connections from a box to itself.
	SelfLoops []int
	// Boxes are the input boxes, moved apart when Options.Resize is set.
	Boxes      []geom.Rect
	Vertical   []Channel
	Horizontal []Channel
	Routes     []AbstractRoute
	Routing    *Routing
	Graph      *Graph
	Stats      Stats
}

// Route runs the whole routing pass for boxes and connections: channel
// partition, routing graph, abstract routes, slot assignment, optional
// channel resizing and segment mapping.
func Route(boxes []geom.Rect, conns []Connection, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	res := &Result{Polylines: make([]geom.Polyline, len(conns))}
	var routed []Connection
	var index []int
	for i, c := range conns {
		if c.From < 0 || c.From >= len(boxes) || c.To < 0 || c.To >= len(boxes) {
			return nil, newError(ErrInvalidInput, c.From, c.To, -1, "connection %d references unknown box", i)
		}
		if c.From == c.To {
			res.SelfLoops = append(res.SelfLoops, i)
			continue
		}
		routed = append(routed, c)
		index = append(index, i)
	}

	var vertical, horizontal []Channel
	if opts.Channels != nil {
		vertical, horizontal = opts.Channels.Vertical, opts.Channels.Horizontal
	} else {
		vertical, horizontal = BuildChannels(boxes, opts.Margin)
	}
	g, err := NewGraph(boxes, vertical, horizontal)
	if err != nil {
		return nil, err
	}
	connectors := NewConnectors(g)
	routes, err := RouteEdges(g, routed)
	if err != nil {
		return nil, err
	}
	routing, err := AssignSlots(g, connectors, routed, routes)
	if err != nil {
		return nil, err
	}
	if opts.Resize {
		minV, minH := MinChannelWidths(g, routing, opts.BaseChannelWidth, opts.SlotSpacing)
		if err := ResizeChannels(g, minV, minH); err != nil {
			return nil, err
		}
	}
	lines, err := MapSegments(g, routes, routing)
	if err != nil {
		return nil, err
	}

	for k, line := range lines {
		i := index[routing.Edges[k].Connection]
		if c := conns[i]; c.From > c.To {
			line = slices.Clone(line)
			slices.Reverse(line)
		}
		res.Polylines[i] = line
	}

	res.Boxes = g.Boxes
	res.Vertical = g.Vertical
	res.Horizontal = g.Horizontal
	res.Routes = routes
	res.Routing = routing
	res.Graph = g
	res.Stats = Stats{
		Channels:       g.ChannelCount(),
		Routes:         len(routes),
		DetectedCycles: routing.DetectedCycles,
		Crossings:      geom.CountCrossings(lines),
	}
	for _, e := range routing.Edges {
		res.Stats.Bends += len(routes[e.Route].Bends)
	}
	for _, legs := range routing.Legs {
		res.Stats.Legs += len(legs)
	}
	return res, nil
}
