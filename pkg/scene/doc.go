// Package scene reads routing inputs and reads and writes routed layouts.
//
// # Scenes
//
// A scene lists boxes, by top-left corner and size, and the connections to
// route between them. Connections reference boxes by ID. Scenes are read
// from JSON or TOML:
//
//	{
//	  "boxes": [
//	    {"id": "api", "x": 0, "y": 0, "width": 80, "height": 40},
//	    {"id": "db", "x": 160, "y": 0, "width": 80, "height": 40}
//	  ],
//	  "connections": [{"from": "api", "to": "db"}]
//	}
//
// The same scene in TOML:
//
//	[[boxes]]
//	id = "api"
//	x = 0
//	y = 0
//	width = 80
//	height = 40
//
//	[[connections]]
//	from = "api"
//	to = "db"
//
// Boxes without an ID are named by their index.
//
// # Layouts
//
// A [Layout] is the result of routing a scene: the boxes after any channel
// resizing, one orthogonal polyline per connection, the channel partition
// with its track usage, and routing statistics. Layouts are JSON documents
// and carry bson tags for document stores.
package scene
