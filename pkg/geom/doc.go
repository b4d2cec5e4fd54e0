// Package geom provides the planar primitives shared by the routing engine
// and the renderers.
//
// Coordinates follow screen conventions: X grows to the right and Y grows
// downward, so a [Rect] has its Min corner at the top-left. Rectangles are
// closed sets; [Rect.Intersects] treats touching edges as intersecting,
// which is what channel crossing detection relies on.
//
// [CountCrossings] counts how often orthogonal polylines cross each other.
// It runs a sweep over the segments with a Fenwick tree, the same inversion
// counting technique used for layered crossing minimization.
package geom
