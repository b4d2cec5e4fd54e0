package ortho

import (
	"cmp"
	"slices"
	"sort"
)

// Connection is a requested link between two boxes, by box index.
type Connection struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// normalized returns the connection with From <= To.
func (c Connection) normalized() Connection {
	if c.From > c.To {
		return Connection{c.To, c.From}
	}
	return c
}

// AbstractRoute is a path through the routing graph between two boxes,
// before any track is assigned. Path never includes the node vertices: it
// starts and ends with a port and holds only bends in between. Bends has
// one entry per bend in Path.
type AbstractRoute struct {
	From  int
	To    int
	Path  []VertexID
	Bends []BendDirection
}

// RouteEdges computes one abstract route per distinct unordered pair of
// connections. Self-loops are ignored. The result is sorted by (From, To),
// with From < To.
//
// Routes are found with one breadth-first search per source box. The search
// prefers continuing along the current channel over turning into a crossing
// one, which keeps the number of bends low among shortest paths.
func RouteEdges(g *Graph, conns []Connection) ([]AbstractRoute, error) {
	pairs := make([]Connection, 0, len(conns))
	for _, c := range conns {
		if c.From < 0 || c.From >= g.NodeCount() || c.To < 0 || c.To >= g.NodeCount() {
			return nil, newError(ErrInvalidInput, c.From, c.To, -1, "connection references unknown box")
		}
		if c.From == c.To {
			continue
		}
		pairs = append(pairs, c.normalized())
	}
	slices.SortFunc(pairs, compareConnections)
	pairs = slices.Compact(pairs)

	var routes []AbstractRoute
	for i := 0; i < len(pairs); {
		from := pairs[i].From
		var targets []int
		for ; i < len(pairs) && pairs[i].From == from; i++ {
			targets = append(targets, pairs[i].To)
		}
		found, err := g.routeFrom(from, targets)
		if err != nil {
			return nil, err
		}
		routes = append(routes, found...)
	}
	slices.SortFunc(routes, func(a, b AbstractRoute) int {
		return compareConnections(Connection{a.From, a.To}, Connection{b.From, b.To})
	})
	return routes, nil
}

func compareConnections(a, b Connection) int {
	return cmp.Or(cmp.Compare(a.From, b.From), cmp.Compare(a.To, b.To))
}

// FindRoute returns the index of the route serving the connection between
// a and b in either direction. routes must be sorted as returned by
// RouteEdges.
func FindRoute(routes []AbstractRoute, a, b int) (int, bool) {
	key := Connection{a, b}.normalized()
	i := sort.Search(len(routes), func(i int) bool {
		return compareConnections(Connection{routes[i].From, routes[i].To}, key) >= 0
	})
	if i < len(routes) && routes[i].From == key.From && routes[i].To == key.To {
		return i, true
	}
	return 0, false
}

type queued struct {
	id VertexID
	o  Orientation
}

func (g *Graph) routeFrom(from int, targets []int) ([]AbstractRoute, error) {
	src := g.NodeVertex(from)
	visited := make([]bool, g.Len())
	pred := make([]VertexID, g.Len())
	for i := range pred {
		pred[i] = -1
	}
	isTarget := make(map[int]bool, len(targets))
	for _, t := range targets {
		isTarget[t] = true
	}

	visited[src] = true
	var queue []queued
	for _, n := range g.Vertex(src).Neighbors {
		v := g.Vertex(n)
		if v.Kind != VertexPort {
			return nil, newError(ErrMalformedGraph, from, -1, -1,
				"node vertex adjacent to %s vertex %d", v.Kind, n)
		}
		pred[n] = src
		queue = append(queue, queued{n, v.Side.Orientation()})
	}

	var routes []AbstractRoute
	toFind := len(targets)
	for head := 0; head < len(queue) && toFind > 0; head++ {
		cur := queue[head]
		visited[cur.id] = true
		v := g.Vertex(cur.id)

		if v.Kind == VertexNode {
			if v.Node == from || !isTarget[v.Node] {
				continue
			}
			isTarget[v.Node] = false
			r, err := g.buildRoute(from, v.Node, cur.id, src, pred)
			if err != nil {
				return nil, err
			}
			routes = append(routes, r)
			toFind--
			continue
		}

		current := v.ChannelFor(cur.o)
		turn := false
		for _, n := range v.Neighbors {
			if visited[n] {
				continue
			}
			nv := g.Vertex(n)
			if nv.Kind != VertexNode && nv.ChannelFor(cur.o) != current {
				turn = true
				continue
			}
			visited[n] = true
			pred[n] = cur.id
			queue = append(queue, queued{n, cur.o})
		}
		if turn {
			flipped := cur.o.Opposite()
			for _, n := range v.Neighbors {
				if visited[n] {
					continue
				}
				visited[n] = true
				pred[n] = cur.id
				queue = append(queue, queued{n, flipped})
			}
		}
	}

	if toFind > 0 {
		var missing []int
		for _, t := range targets {
			if isTarget[t] {
				missing = append(missing, t)
			}
		}
		return nil, newError(ErrRouteNotFound, from, missing[0], -1,
			"%d of %d targets unreachable: %v", toFind, len(targets), missing)
	}
	return routes, nil
}

func (g *Graph) buildRoute(from, to int, target, src VertexID, pred []VertexID) (AbstractRoute, error) {
	var path []VertexID
	for cur := target; ; {
		prev := pred[cur]
		if prev < 0 {
			return AbstractRoute{}, newError(ErrMalformedGraph, from, to, -1, "broken predecessor chain at vertex %d", cur)
		}
		if prev == src {
			break
		}
		path = append(path, prev)
		cur = prev
	}
	slices.Reverse(path)

	path = g.CleanupPath(path)
	if len(path) < 2 {
		return AbstractRoute{}, newError(ErrMalformedRoute, from, to, -1, "path has %d elements", len(path))
	}
	bends, err := g.bendDirections(path)
	if err != nil {
		return AbstractRoute{}, err
	}
	return AbstractRoute{From: from, To: to, Path: path, Bends: bends}, nil
}

// CleanupPath removes the vertices of path that do not change the channel:
// interior ports and bends that continue straight on. The first and last
// elements are kept. Applying it twice gives the same result.
func (g *Graph) CleanupPath(path []VertexID) []VertexID {
	out := slices.Clone(path)
	if len(out) < 2 {
		return out
	}
	current := g.Vertex(out[0]).ChannelFor(Vertical)
	for idx := 1; idx < len(out)-1; {
		v := g.Vertex(out[idx])
		if v.Kind == VertexPort {
			out = slices.Delete(out, idx, idx+1)
			continue
		}
		next := g.Vertex(out[idx+1])
		if v.ChannelFor(current.Orientation) == next.ChannelFor(current.Orientation) {
			out = slices.Delete(out, idx, idx+1)
			continue
		}
		current = v.ChannelFor(current.Orientation.Opposite())
		idx++
	}
	return out
}

// bendDirections classifies every bend of a cleaned path by looking at the
// point before and after it.
func (g *Graph) bendDirections(path []VertexID) ([]BendDirection, error) {
	if len(path) <= 2 {
		return nil, nil
	}
	first := g.Vertex(path[0])
	if first.Kind != VertexPort {
		return nil, graphError(ErrMalformedRoute, "path starts with %s vertex", first.Kind)
	}
	last, err := g.anchor(path[0])
	if err != nil {
		return nil, err
	}
	o := first.Side.Orientation()

	var dirs []BendDirection
	for i := 1; i+1 < len(path); i++ {
		b := g.Vertex(path[i])
		if b.Kind != VertexBend {
			break
		}
		next, err := g.anchor(path[i+1])
		if err != nil {
			return nil, err
		}
		dirs = append(dirs, bendDirection(last, next, o))
		o = o.Opposite()
		last = g.BendCenter(b.VChannel, b.HChannel)
	}
	return dirs, nil
}
