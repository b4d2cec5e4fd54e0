package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/orthoroute/pkg/geom"
	"github.com/matzehuels/orthoroute/pkg/scene"
)

// Options configures SVG output.
type Options struct {
	// Stroke is the edge line width.
	Stroke float64
	// Padding is added around the layout bounds.
	Padding float64
	// ShowChannels draws the channel partition under the drawing, annotated
	// with slot usage.
	ShowChannels bool
}

// DefaultOptions returns the options used when fields are zero.
func DefaultOptions() Options {
	return Options{Stroke: 1.5, Padding: 10}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Stroke <= 0 {
		o.Stroke = d.Stroke
	}
	if o.Padding < 0 {
		o.Padding = 0
	}
	return o
}

const svgStyle = `
    .box { fill: #ffffff; stroke: #333333; stroke-width: 1; }
    .box-label { font-family: sans-serif; fill: #222222; dominant-baseline: middle; text-anchor: middle; }
    .edge { fill: none; stroke: #3a6ea5; stroke-linejoin: round; }
    .edge-label { font-family: sans-serif; font-size: 8px; fill: #3a6ea5; }
    .channel-v { fill: #ffd27f; fill-opacity: 0.25; stroke: #e0a030; stroke-width: 0.5; }
    .channel-h { fill: #7fc4ff; fill-opacity: 0.25; stroke: #3090e0; stroke-width: 0.5; }
    .channel-label { font-family: monospace; font-size: 6px; fill: #666666; }`

// SVG draws a routed layout: boxes with labels and one polyline with an
// arrowhead per routed connection. Self-loops are not drawn.
func SVG(l *scene.Layout, opts Options) []byte {
	opts = opts.withDefaults()
	view := l.Bounds.Expand(opts.Padding)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.1f %.1f %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		view.Min.X, view.Min.Y, view.Width(), view.Height(), view.Width(), view.Height())
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", svgStyle)
	renderDefs(&buf, opts.Stroke)

	if opts.ShowChannels {
		renderChannels(&buf, l.Channels)
	}
	renderBoxes(&buf, l.Boxes)
	renderEdges(&buf, l.Edges, opts.Stroke)

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderDefs(buf *bytes.Buffer, stroke float64) {
	size := 4 + 2*stroke
	fmt.Fprintf(buf, `  <defs><marker id="arrow" viewBox="0 0 10 10" refX="10" refY="5" markerUnits="userSpaceOnUse" markerWidth="%.1f" markerHeight="%.1f" orient="auto">`, size, size)
	buf.WriteString(`<path d="M0,0 L10,5 L0,10 z" fill="#3a6ea5"/></marker></defs>` + "\n")
}

func renderChannels(buf *bytes.Buffer, channels []scene.ChannelInfo) {
	buf.WriteString("  <g class=\"channels\">\n")
	for i, ch := range channels {
		class := "channel-h"
		if ch.Orientation == "vertical" {
			class = "channel-v"
		}
		r := ch.Rect
		fmt.Fprintf(buf, `    <rect id="channel-%d" class="%s" x="%.2f" y="%.2f" width="%.2f" height="%.2f"/>`+"\n",
			i, class, r.Min.X, r.Min.Y, r.Width(), r.Height())
		if ch.Slots > 0 {
			fmt.Fprintf(buf, `    <text class="channel-label" x="%.2f" y="%.2f">%d/%d</text>`+"\n",
				r.Min.X+1, r.Min.Y+7, ch.Capacity, ch.Slots)
		}
	}
	buf.WriteString("  </g>\n")
}

func renderBoxes(buf *bytes.Buffer, boxes []scene.LayoutBox) {
	buf.WriteString("  <g class=\"boxes\">\n")
	for _, b := range boxes {
		r := b.Rect
		fmt.Fprintf(buf, `    <rect id="box-%s" class="box" x="%.2f" y="%.2f" width="%.2f" height="%.2f"/>`+"\n",
			escapeXML(b.ID), r.Min.X, r.Min.Y, r.Width(), r.Height())

		label := b.Label
		if label == "" {
			label = b.ID
		}
		if label == "" || r.Width() == 0 || r.Height() == 0 {
			continue
		}
		size := fontSize(r.Width(), r.Height(), len(label))
		c := r.Center()
		fmt.Fprintf(buf, `    <text class="box-label" x="%.2f" y="%.2f" font-size="%.1f">%s</text>`+"\n",
			c.X, c.Y, size, escapeXML(truncateLabel(label, r.Width(), size)))
	}
	buf.WriteString("  </g>\n")
}

func renderEdges(buf *bytes.Buffer, edges []scene.RoutedEdge, stroke float64) {
	buf.WriteString("  <g class=\"edges\">\n")
	for i, e := range edges {
		if e.SelfLoop || len(e.Points) < 2 {
			continue
		}
		fmt.Fprintf(buf, `    <polyline id="edge-%d" class="edge" data-from="%s" data-to="%s" stroke-width="%.2f" marker-end="url(#arrow)" points="%s"/>`+"\n",
			i, escapeXML(e.From), escapeXML(e.To), stroke, formatPoints(e.Points))
		if e.Label != "" {
			p := labelAnchor(e.Points)
			fmt.Fprintf(buf, `    <text class="edge-label" x="%.2f" y="%.2f">%s</text>`+"\n",
				p.X+2, p.Y-2, escapeXML(e.Label))
		}
	}
	buf.WriteString("  </g>\n")
}

func formatPoints(pts []geom.Point) string {
	parts := make([]string, len(pts))
	for i, p := range pts {
		parts[i] = fmt.Sprintf("%.2f,%.2f", p.X, p.Y)
	}
	return strings.Join(parts, " ")
}

// labelAnchor returns the midpoint of the longest segment.
func labelAnchor(pts []geom.Point) geom.Point {
	best, bestLen := pts[0], -1.0
	for i := 1; i < len(pts); i++ {
		d := pts[i].Sub(pts[i-1])
		n := max(d.X, -d.X) + max(d.Y, -d.Y)
		if n > bestLen {
			bestLen = n
			best = geom.Point{X: (pts[i].X + pts[i-1].X) / 2, Y: (pts[i].Y + pts[i-1].Y) / 2}
		}
	}
	return best
}
