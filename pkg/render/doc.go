// Package render draws routed layouts.
//
// [SVG] writes a standalone SVG document directly: boxes with fitted
// labels, one polyline per routed connection ending in an arrowhead, and
// optionally the channel partition annotated with "capacity/slots".
//
// [ToDOT] and [GraphDOT] emit Graphviz DOT with every node pinned at its
// layout position, so the neato engine reproduces the routed geometry
// instead of computing its own. [RenderDOT] runs Graphviz in-process via
// go-graphviz to produce SVG or PNG:
//
//	dot := render.ToDOT(layout)
//	png, err := render.RenderDOT(ctx, dot, render.FormatPNG)
//
// [GraphDOT] draws the routing graph itself (node, port and bend vertices)
// and is meant for debugging channel partitions.
package render
