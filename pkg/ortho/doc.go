// Package ortho routes connections between axis-aligned boxes as orthogonal
// polylines that run through the free space between the boxes.
//
// # Pipeline
//
// A routing pass has these stages, each usable on its own:
//
//  1. [BuildChannels] partitions the free space into vertical and
//     horizontal channels. Every box side opens into exactly one channel.
//  2. [NewGraph] turns channels into a routing graph of node, port and bend
//     vertices. Bends sit where a vertical and a horizontal channel cross.
//  3. [RouteEdges] finds one path per distinct box pair with a breadth-first
//     search that prefers going straight over turning.
//  4. [NewConnectors] lists the places along each channel where a route can
//     enter or leave it.
//  5. [AssignSlots] splits routes into channel legs, orders them and gives
//     every leg a track and every route end a slot on its box side.
//  6. [ResizeChannels] optionally widens crowded channels, moving boxes.
//  7. [MapSegments] produces the final polylines.
//
// [Route] runs all stages.
//
// # Coordinates
//
// Y grows downward. Tracks and slots are counted from the Min side of a
// channel or box side, so slot 0 of a vertical channel is its leftmost
// track.
//
// # Errors
//
// Stages never panic on bad input. They return an [*Error] whose Kind is one
// of the sentinel errors, so callers can match with errors.Is:
//
//	res, err := ortho.Route(boxes, conns, ortho.Options{})
//	if errors.Is(err, ortho.ErrRouteNotFound) {
//	    // boxes are disconnected
//	}
package ortho
