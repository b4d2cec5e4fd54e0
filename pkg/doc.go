// Package pkg holds the orthoroute libraries.
//
// # Overview
//
// Orthoroute draws connections between axis-aligned boxes as right-angle
// polylines that run through the free channels between the boxes. Lines
// sharing a channel get separate tracks, and a global route order keeps
// crossings low.
//
// # Architecture
//
// Data flows through the packages in this order:
//
//	scene file (JSON or TOML)
//	         ↓
//	    [scene] package (boxes and connections by ID)
//	         ↓
//	    [ortho] package (channels, routing graph, routes, slots, polylines)
//	         ↓
//	    [scene] package (routed Layout)
//	         ↓
//	    [render] package (SVG, PNG, DOT)
//
// [pipeline] runs these stages through a [cache] backend and is shared by
// the CLI and the HTTP API. [client] talks to a running API.
//
// # Quick Start
//
//	s, _ := scene.ImportScene("diagram.toml")
//	runner := pipeline.NewRunner(cache.NewMemoryCache(), nil, nil)
//	res, _ := runner.Execute(ctx, s, pipeline.Options{Resize: true})
//	os.WriteFile("diagram.svg", res.Artifacts["svg"], 0o644)
//
// Or call the engine directly on rectangles:
//
//	res, err := ortho.Route(boxes, []ortho.Connection{{From: 0, To: 1}}, ortho.Options{})
//
// # Supporting Packages
//
//   - [geom]: points, rectangles, polylines and crossing counts
//   - [dag]: precedence graph used to order routes inside channels
//   - [errors]: coded errors shared by the CLI and the API
//   - [config]: TOML configuration
//   - [observability]: hooks for metrics and tracing
//   - [buildinfo]: version information
package pkg
