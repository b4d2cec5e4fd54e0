package ortho_test

import (
	"fmt"

	"github.com/matzehuels/orthoroute/pkg/geom"
	"github.com/matzehuels/orthoroute/pkg/ortho"
)

func ExampleRoute() {
	boxes := []geom.Rect{
		geom.FromMinMax(geom.Point{X: 0, Y: 0}, geom.Point{X: 10, Y: 10}),
		geom.FromMinMax(geom.Point{X: 30, Y: 0}, geom.Point{X: 40, Y: 10}),
	}
	channels := &ortho.ChannelSet{
		Vertical: []ortho.Channel{{
			Rect:        geom.FromMinMax(geom.Point{X: 10, Y: -20}, geom.Point{X: 30, Y: 30}),
			Orientation: ortho.Vertical,
			Ports: []ortho.ChannelPort{
				{Node: 0, Side: ortho.SideRight},
				{Node: 1, Side: ortho.SideLeft},
			},
		}},
	}

	res, err := ortho.Route(boxes, []ortho.Connection{{From: 0, To: 1}}, ortho.Options{Channels: channels})
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, p := range res.Polylines[0] {
		fmt.Println(p.X, p.Y)
	}
	// Output:
	// 10 5
	// 20 5
	// 20 5
	// 30 5
}
