package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/orthoroute/pkg/errors"
	"github.com/matzehuels/orthoroute/pkg/geom"
	"github.com/matzehuels/orthoroute/pkg/ortho"
	"github.com/matzehuels/orthoroute/pkg/scene"
)

// Output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// Formats lists every format the renderers produce.
var Formats = []string{FormatSVG, FormatPNG, FormatDOT, FormatJSON}

// pointsPerInch converts layout units, treated as points, to the inches
// Graphviz expects in pos, width and height.
const pointsPerInch = 72.0

const dotHeader = `  layout=neato;
  splines=false;
  overlap=true;
  outputorder=edgesfirst;
  bgcolor="transparent";
`

// dotWriter emits DOT with every node pinned at a layout position. Graphviz
// y grows upward, so positions are mirrored at maxY.
type dotWriter struct {
	buf  bytes.Buffer
	maxY float64
}

func newDOTWriter(kind string, bounds geom.Rect) *dotWriter {
	w := &dotWriter{maxY: bounds.Max.Y}
	fmt.Fprintf(&w.buf, "%s G {\n", kind)
	w.buf.WriteString(dotHeader)
	return w
}

func (w *dotWriter) pos(p geom.Point) string {
	return fmt.Sprintf("%.4f,%.4f!", p.X/pointsPerInch, (w.maxY-p.Y)/pointsPerInch)
}

func (w *dotWriter) box(id, label string, r geom.Rect, attrs string) {
	fmt.Fprintf(&w.buf, "  %q [shape=box, fixedsize=true, label=%q, pos=%q, width=%.4f, height=%.4f%s];\n",
		id, label, w.pos(r.Center()), r.Width()/pointsPerInch, r.Height()/pointsPerInch, attrs)
}

func (w *dotWriter) point(id string, p geom.Point, attrs string) {
	fmt.Fprintf(&w.buf, "  %q [shape=point, label=\"\", pos=%q%s];\n", id, w.pos(p), attrs)
}

func (w *dotWriter) String() string {
	return w.buf.String() + "}\n"
}

// ToDOT converts a routed layout to DOT. Boxes become fixed-size nodes and
// every routed polyline becomes a chain of invisible points joined by
// straight edges, the last one carrying the arrowhead.
func ToDOT(l *scene.Layout) string {
	w := newDOTWriter("digraph", l.Bounds)
	w.buf.WriteString("  node [style=filled, fillcolor=white, fontsize=10];\n")
	w.buf.WriteString("  edge [color=\"#3a6ea5\", arrowsize=0.5];\n\n")

	for _, b := range l.Boxes {
		label := b.Label
		if label == "" {
			label = b.ID
		}
		w.box("box:"+b.ID, label, b.Rect, "")
	}

	for i, e := range l.Edges {
		if e.SelfLoop || len(e.Points) < 2 {
			continue
		}
		w.buf.WriteString("\n")
		for j, p := range e.Points {
			w.point(fmt.Sprintf("e%d:%d", i, j), p, ", width=0.01, style=invis")
		}
		for j := 1; j < len(e.Points); j++ {
			attrs := "arrowhead=none"
			if j == len(e.Points)-1 {
				attrs = "arrowhead=normal"
				if e.Label != "" {
					attrs += fmt.Sprintf(", xlabel=%q", e.Label)
				}
			}
			fmt.Fprintf(&w.buf, "  %q -> %q [%s];\n", fmt.Sprintf("e%d:%d", i, j-1), fmt.Sprintf("e%d:%d", i, j), attrs)
		}
	}
	return w.String()
}

// GraphDOT converts a routing graph to DOT for debugging: boxes, one small
// circle per port at its channel centerline, one dot per bend, and the
// graph's adjacency as undirected edges.
func GraphDOT(g *ortho.Graph) string {
	rects := make([]geom.Rect, 0, len(g.Boxes)+g.ChannelCount())
	rects = append(rects, g.Boxes...)
	for gid := 0; gid < g.ChannelCount(); gid++ {
		rects = append(rects, g.Channel(g.RefOf(gid)).Rect)
	}
	w := newDOTWriter("graph", geom.Bounds(rects))
	w.buf.WriteString("  node [fontsize=8];\n")
	w.buf.WriteString("  edge [color=\"#999999\"];\n\n")

	for id := ortho.VertexID(0); int(id) < g.Len(); id++ {
		v := g.Vertex(id)
		name := strconv.Itoa(int(id))
		switch v.Kind {
		case ortho.VertexNode:
			w.box(name, strconv.Itoa(v.Node), g.Boxes[v.Node], ", style=filled, fillcolor=\"#eeeeee\"")
		case ortho.VertexPort:
			ch := g.Channel(v.ChannelFor(ortho.Vertical))
			p := ch.Representative(ortho.NodePort{Node: v.Node, Side: v.Side}.Position(g.Boxes[v.Node]))
			w.point(name, p, ", shape=circle, width=0.08, color=\"#2a9d3a\"")
		case ortho.VertexBend:
			w.point(name, g.BendCenter(v.VChannel, v.HChannel), ", width=0.05, color=\"#d04040\"")
		}
	}

	w.buf.WriteString("\n")
	for id := ortho.VertexID(0); int(id) < g.Len(); id++ {
		for _, n := range g.Vertex(id).Neighbors {
			if n > id {
				fmt.Fprintf(&w.buf, "  \"%d\" -- \"%d\";\n", id, n)
			}
		}
	}
	return w.String()
}

// RenderDOT lays out a pinned DOT graph with neato and renders it to SVG
// or PNG.
func RenderDOT(ctx context.Context, dot string, format string) ([]byte, error) {
	var gvFormat graphviz.Format
	switch format {
	case FormatSVG:
		gvFormat = graphviz.SVG
	case FormatPNG:
		gvFormat = graphviz.PNG
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "graphviz cannot render %q", format)
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, gvFormat, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	if format == FormatSVG {
		return normalizeViewBox(buf.Bytes()), nil
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the Graphviz root element with one sized by
// the view box, so the SVG scales like the ones SVG produces.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}

// PNG renders the layout to PNG through Graphviz.
func PNG(ctx context.Context, l *scene.Layout) ([]byte, error) {
	return RenderDOT(ctx, ToDOT(l), FormatPNG)
}
