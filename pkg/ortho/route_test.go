package ortho

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/orthoroute/pkg/geom"
)

// facingBoxes are two boxes sharing one vertical channel between them.
func facingBoxes() ([]geom.Rect, *ChannelSet) {
	boxes := []geom.Rect{rect(0, 0, 10, 10), rect(30, 0, 40, 10)}
	channels := &ChannelSet{
		Vertical: []Channel{{
			Rect:        rect(10, -20, 30, 30),
			Orientation: Vertical,
			Ports:       []ChannelPort{{Node: 0, Side: SideRight}, {Node: 1, Side: SideLeft}},
		}},
	}
	return boxes, channels
}

func TestRouteFacingBoxes(t *testing.T) {
	boxes, channels := facingBoxes()
	res, err := Route(boxes, []Connection{{0, 1}}, Options{Channels: channels})
	require.NoError(t, err)

	require.Len(t, res.Routes, 1)
	assert.Len(t, res.Routes[0].Path, 2)
	assert.Empty(t, res.Routes[0].Bends)
	assert.Equal(t, 1, res.Stats.Legs)
	assert.Equal(t, []int{1}, res.Routing.ChannelSlots)

	want := geom.Polyline{{X: 10, Y: 5}, {X: 20, Y: 5}, {X: 20, Y: 5}, {X: 30, Y: 5}}
	assert.Equal(t, want, res.Polylines[0])
}

func TestRouteReversedConnection(t *testing.T) {
	boxes, channels := facingBoxes()
	res, err := Route(boxes, []Connection{{1, 0}}, Options{Channels: channels})
	require.NoError(t, err)
	want := geom.Polyline{{X: 30, Y: 5}, {X: 20, Y: 5}, {X: 20, Y: 5}, {X: 10, Y: 5}}
	assert.Equal(t, want, res.Polylines[0])
}

func TestRouteSelfLoops(t *testing.T) {
	boxes, channels := facingBoxes()
	res, err := Route(boxes, []Connection{{0, 0}, {0, 1}, {1, 1}}, Options{Channels: channels})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, res.SelfLoops)
	assert.Nil(t, res.Polylines[0])
	assert.Nil(t, res.Polylines[2])
	assert.Len(t, res.Polylines[1], 4)
}

func TestRouteParallelConnections(t *testing.T) {
	boxes, channels := facingBoxes()
	res, err := Route(boxes, []Connection{{0, 1}, {1, 0}, {0, 1}}, Options{Channels: channels})
	require.NoError(t, err)
	require.Len(t, res.Routes, 1)
	require.Len(t, res.Routing.Edges, 3)
	assert.Equal(t, 3, res.Routing.PortSlotCount(0, SideRight))
	assert.Equal(t, 3, res.Routing.ChannelSlots[0])

	tracks := map[float64]bool{}
	for _, line := range res.Polylines {
		require.Len(t, line, 4)
		tracks[line[1].X] = true
	}
	assert.Len(t, tracks, 3)
}

func TestRouteResize(t *testing.T) {
	boxes, channels := facingBoxes()
	res, err := Route(boxes, []Connection{{0, 1}}, Options{
		Channels:         channels,
		Resize:           true,
		BaseChannelWidth: 40,
		SlotSpacing:      8,
	})
	require.NoError(t, err)

	assert.Equal(t, rect(0, 0, 10, 10), res.Boxes[0])
	assert.Equal(t, rect(58, 0, 68, 10), res.Boxes[1])
	assert.Equal(t, 48.0, res.Vertical[0].Width())

	want := geom.Polyline{{X: 10, Y: 5}, {X: 34, Y: 5}, {X: 34, Y: 5}, {X: 58, Y: 5}}
	assert.Equal(t, want, res.Polylines[0])

	// The caller's boxes are not modified.
	assert.Equal(t, rect(30, 0, 40, 10), boxes[1])
}

func TestRouteErrors(t *testing.T) {
	boxes, channels := facingBoxes()

	_, err := Route(boxes, []Connection{{0, 5}}, Options{Channels: channels})
	assert.ErrorIs(t, err, ErrInvalidInput)

	lonely := &ChannelSet{Vertical: []Channel{{
		Rect:        rect(10, -20, 30, 30),
		Orientation: Vertical,
		Ports:       []ChannelPort{{Node: 0, Side: SideRight}},
	}}}
	_, err = Route(boxes, []Connection{{0, 1}}, Options{Channels: lonely})
	require.ErrorIs(t, err, ErrRouteNotFound)
	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, 0, rerr.From)
	assert.Equal(t, 1, rerr.To)

	wrongSide := &ChannelSet{Vertical: []Channel{{
		Rect:        rect(10, -20, 30, 30),
		Orientation: Vertical,
		Ports:       []ChannelPort{{Node: 0, Side: SideTop}},
	}}}
	_, err = Route(boxes, []Connection{{0, 1}}, Options{Channels: wrongSide})
	assert.ErrorIs(t, err, ErrMalformedGraph)
}

func TestAssignSlotsMissingRoute(t *testing.T) {
	boxes, channels := facingBoxes()
	g, err := NewGraph(boxes, channels.Vertical, channels.Horizontal)
	require.NoError(t, err)
	_, err = AssignSlots(g, NewConnectors(g), []Connection{{0, 1}}, nil)
	assert.ErrorIs(t, err, ErrMissingRoute)
}

func TestResizeChannelsSizeMismatch(t *testing.T) {
	boxes, channels := facingBoxes()
	g, err := NewGraph(boxes, channels.Vertical, channels.Horizontal)
	require.NoError(t, err)
	assert.ErrorIs(t, ResizeChannels(g, nil, nil), ErrSizeMismatch)
}

func TestErrorMessage(t *testing.T) {
	err := newError(ErrConnectorNotFound, 2, 5, 7, "no bend connector")
	assert.Equal(t, "channel connector not found (route 2-5) (channel 7): no bend connector", err.Error())
	assert.Equal(t, "route not found", graphError(ErrRouteNotFound, "").Error())
}

// Fixtures routed end to end for the property tests below.
var routeFixtures = map[string]struct {
	boxes []geom.Rect
	conns []Connection
}{
	"multi-edge": {
		boxes: centeredBoxes(),
		conns: []Connection{{0, 1}, {0, 3}, {0, 4}, {2, 3}, {1, 4}, {1, 3}, {2, 4}},
	},
	"centered": {
		boxes: centeredBoxes(),
		conns: []Connection{{0, 1}, {0, 2}, {0, 2}, {1, 2}, {0, 3}, {3, 4}, {2, 4}},
	},
	"fan": {
		boxes: []geom.Rect{
			rect(20, 10, 40, 40),
			rect(20, 45, 40, 75),
			rect(20, 80, 40, 110),
			rect(60, 30, 100, 90),
			rect(120, 0, 140, 31),
			rect(120, 40, 140, 50),
			rect(120, 100, 140, 120),
			rect(160, 25, 180, 55),
			rect(120, 60, 140, 75),
			rect(60, 2, 100, 20),
			rect(60, 100, 100, 140),
		},
		conns: []Connection{
			{1, 5}, {1, 5}, {1, 4}, {1, 4}, {1, 6},
			{1, 6}, {1, 8}, {1, 8}, {1, 9}, {1, 10},
		},
	},
}

func TestRouteFixture(t *testing.T) {
	f := routeFixtures["multi-edge"]
	res, err := Route(f.boxes, f.conns, Options{})
	require.NoError(t, err)
	require.Len(t, res.Routes, 7)
	assert.Len(t, res.Routing.Edges, 7)
	require.Len(t, res.Polylines, 7)
	for i, line := range res.Polylines {
		assert.GreaterOrEqual(t, len(line), 2, "polyline %d", i)
	}
	for _, r := range res.Routes {
		assert.Len(t, r.Path, 2, "route %d-%d", r.From, r.To)
		assert.Empty(t, r.Bends)
	}
	assert.Equal(t, len(res.Vertical)+len(res.Horizontal), res.Stats.Channels)
}

func TestRouteDuplicateConnections(t *testing.T) {
	f := routeFixtures["centered"]
	res, err := Route(f.boxes, f.conns, Options{})
	require.NoError(t, err)
	assert.Len(t, res.Routes, 6)
	assert.Len(t, res.Routing.Edges, 7)
	// The two {0, 2} connections share a route but not a track.
	assert.NotEqual(t, res.Polylines[1], res.Polylines[2])
	checkSlots(t, res.Routing)
}

// randomLayout places up to rows*cols boxes of random size in a jittered
// grid, so no two boxes overlap, and connects random pairs.
func randomLayout(rng *rand.Rand) ([]geom.Rect, []Connection) {
	const cell = 80.0
	rows, cols := 2+rng.IntN(3), 2+rng.IntN(3)
	var boxes []geom.Rect
	for r := range rows {
		for c := range cols {
			if rng.IntN(5) == 0 {
				continue
			}
			w, h := 15+rng.Float64()*35, 10+rng.Float64()*35
			x := float64(c)*cell + rng.Float64()*(cell-w-10)
			y := float64(r)*cell + rng.Float64()*(cell-h-10)
			boxes = append(boxes, geom.Rect{Min: geom.Point{X: x, Y: y}, Max: geom.Point{X: x + w, Y: y + h}})
		}
	}
	if len(boxes) < 2 {
		return boxes, nil
	}
	var conns []Connection
	for range 2 + rng.IntN(3*len(boxes)) {
		a, b := rng.IntN(len(boxes)), rng.IntN(len(boxes))
		if a != b {
			conns = append(conns, Connection{a, b})
		}
	}
	return boxes, conns
}

func TestRouteRandomLayouts(t *testing.T) {
	for seed := range uint64(200) {
		rng := rand.New(rand.NewPCG(seed, 7))
		boxes, conns := randomLayout(rng)
		if len(boxes) < 2 {
			continue
		}
		res, err := Route(boxes, conns, Options{})
		require.NoError(t, err, "seed %d", seed)
		checkSlots(t, res.Routing)

		for i, line := range res.Polylines {
			for k := 1; k < len(line); k++ {
				a, b := line[k-1], line[k]
				assert.True(t, a.X == b.X || a.Y == b.Y, "seed %d polyline %d segment %d is diagonal", seed, i, k)
			}
		}
	}
}

// checkSlots asserts that overlapping legs of a channel never share a
// track and that no channel uses more tracks than legs overlap.
func checkSlots(t *testing.T, rt *Routing) {
	t.Helper()
	for gid, legs := range rt.Legs {
		if len(legs) == 0 {
			continue
		}
		assert.Equal(t, rt.Capacity[gid], rt.ChannelSlots[gid], "channel %d", gid)
		distinct := map[int]bool{}
		for i := range legs {
			si := rt.Edges[legs[i].Edge].ChannelSlots[legs[i].RouteLeg]
			distinct[si] = true
			assert.GreaterOrEqual(t, si, 0)
			assert.Less(t, si, rt.Capacity[gid], "channel %d", gid)
			for j := i + 1; j < len(legs); j++ {
				if !gapsOverlap(&legs[i], &legs[j]) {
					continue
				}
				sj := rt.Edges[legs[j].Edge].ChannelSlots[legs[j].RouteLeg]
				assert.NotEqual(t, si, sj, "channel %d legs %d and %d share slot", gid, i, j)
			}
		}
		assert.LessOrEqual(t, len(distinct), rt.Capacity[gid], "channel %d", gid)
	}
}

func TestAssignSlotsRepeatable(t *testing.T) {
	f := routeFixtures["fan"]
	v, h := BuildChannels(f.boxes, DefaultMargin)
	g, err := NewGraph(f.boxes, v, h)
	require.NoError(t, err)
	conns := NewConnectors(g)
	routes, err := RouteEdges(g, f.conns)
	require.NoError(t, err)

	first, err := AssignSlots(g, conns, f.conns, routes)
	require.NoError(t, err)
	second, err := AssignSlots(g, conns, f.conns, routes)
	require.NoError(t, err)
	assert.Equal(t, first.Edges, second.Edges)
	assert.Equal(t, first.ChannelSlots, second.ChannelSlots)

	for gid, legs := range second.Legs {
		total := 0
		for _, c := range conns.Channel(gid) {
			total += c.Slots
		}
		assert.Equal(t, 2*len(legs), total, "channel %d", gid)
	}
}

func TestRouteProperties(t *testing.T) {
	for name, f := range routeFixtures {
		t.Run(name, func(t *testing.T) {
			res, err := Route(f.boxes, f.conns, Options{})
			require.NoError(t, err)

			t.Run("deterministic", func(t *testing.T) {
				again, err := Route(f.boxes, f.conns, Options{})
				require.NoError(t, err)
				assert.Equal(t, res.Polylines, again.Polylines)
				assert.Equal(t, res.Routing.Edges, again.Routing.Edges)
			})

			t.Run("valid routes", func(t *testing.T) {
				g := res.Graph
				for _, r := range res.Routes {
					require.GreaterOrEqual(t, len(r.Path), 2)
					first, last := g.Vertex(r.Path[0]), g.Vertex(r.Path[len(r.Path)-1])
					assert.Equal(t, VertexPort, first.Kind)
					assert.Equal(t, VertexPort, last.Kind)
					assert.Equal(t, r.From, first.Node)
					assert.Equal(t, r.To, last.Node)
					for _, id := range r.Path[1 : len(r.Path)-1] {
						assert.Equal(t, VertexBend, g.Vertex(id).Kind)
					}
					assert.Len(t, r.Bends, len(r.Path)-2)
					assert.Equal(t, r.Path, g.CleanupPath(r.Path))
				}
			})

			t.Run("orthogonal polylines", func(t *testing.T) {
				for i, line := range res.Polylines {
					c := f.conns[i]
					require.GreaterOrEqual(t, len(line), 4)
					for k := 1; k < len(line); k++ {
						a, b := line[k-1], line[k]
						assert.True(t, a.X == b.X || a.Y == b.Y, "polyline %d segment %d is diagonal", i, k)
					}
					assert.True(t, onBorder(res.Boxes[c.From], line[0]), "polyline %d starts off box %d", i, c.From)
					assert.True(t, onBorder(res.Boxes[c.To], line[len(line)-1]), "polyline %d ends off box %d", i, c.To)
				}
			})

			t.Run("slots", func(t *testing.T) {
				checkSlots(t, res.Routing)
			})
		})
	}
}

func TestMapAbstract(t *testing.T) {
	boxes, channels := facingBoxes()
	res, err := Route(boxes, []Connection{{0, 1}}, Options{Channels: channels})
	require.NoError(t, err)
	lines := MapAbstract(res.Graph, res.Routes)
	require.Len(t, lines, 1)
	want := geom.Polyline{{X: 10, Y: 5}, {X: 20, Y: 5}, {X: 20, Y: 5}, {X: 30, Y: 5}}
	assert.Equal(t, want, lines[0])
}

func onBorder(b geom.Rect, p geom.Point) bool {
	if !b.Contains(p) {
		return false
	}
	return p.X == b.Min.X || p.X == b.Max.X || p.Y == b.Min.Y || p.Y == b.Max.Y
}

func gapsOverlap(a, b *Leg) bool {
	alo, ahi := a.gaps()
	blo, bhi := b.gaps()
	return alo < bhi && blo < ahi
}
