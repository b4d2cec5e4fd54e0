package ortho

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/matzehuels/orthoroute/pkg/geom"
)

func rect(minX, minY, maxX, maxY float64) geom.Rect {
	return geom.FromMinMax(geom.Point{X: minX, Y: minY}, geom.Point{X: maxX, Y: maxY})
}

// gridBoxes is two rows of boxes with a wide box underneath.
func gridBoxes() []geom.Rect {
	return []geom.Rect{
		rect(10, 10, 40, 20),
		rect(50, 12, 70, 20),
		rect(10, 30, 40, 37),
		rect(45, 30, 67, 40),
		rect(30, 50, 65, 60),
	}
}

// centeredBoxes is the same arrangement given by centers and sizes.
func centeredBoxes() []geom.Rect {
	return []geom.Rect{
		geom.FromCenterSize(geom.Point{X: 20, Y: 20}, 30, 10),
		geom.FromCenterSize(geom.Point{X: 70, Y: 22}, 30, 10),
		geom.FromCenterSize(geom.Point{X: 20, Y: 38}, 25, 10),
		geom.FromCenterSize(geom.Point{X: 70, Y: 40}, 35, 10),
		geom.FromCenterSize(geom.Point{X: 40, Y: 60}, 55, 10),
	}
}

func TestBuildChannelsCounts(t *testing.T) {
	for name, boxes := range map[string][]geom.Rect{
		"grid":     gridBoxes(),
		"centered": centeredBoxes(),
	} {
		t.Run(name, func(t *testing.T) {
			vertical, horizontal := BuildChannels(boxes, DefaultMargin)
			assert.Len(t, vertical, 3)
			assert.Len(t, horizontal, 4)
		})
	}
}

func TestBuildChannelsEmpty(t *testing.T) {
	vertical, horizontal := BuildChannels(nil, DefaultMargin)
	assert.Nil(t, vertical)
	assert.Nil(t, horizontal)
}

func TestBuildChannelsPorts(t *testing.T) {
	boxes := gridBoxes()
	vertical, horizontal := BuildChannels(boxes, DefaultMargin)

	seen := map[NodePort]int{}
	check := func(chs []Channel, o Orientation) {
		for _, ch := range chs {
			assert.Equal(t, o, ch.Orientation)
			for _, p := range ch.Ports {
				assert.Equal(t, o, p.Side.Orientation())
				seen[NodePort{p.Node, p.Side}]++
			}
			for i, b := range boxes {
				inter := ch.Rect.Intersect(b)
				// Channels may touch boxes but never cover them.
				assert.False(t, inter.Width() > 0 && inter.Height() > 0,
					"channel %v overlaps box %d", ch.Rect, i)
			}
		}
	}
	check(vertical, Vertical)
	check(horizontal, Horizontal)
	for p, n := range seen {
		assert.Equal(t, 1, n, "port %v listed %d times", p, n)
	}
}

func TestBuildChannelsSingleBox(t *testing.T) {
	vertical, horizontal := BuildChannels([]geom.Rect{rect(0, 0, 10, 10)}, 5)
	assert.Len(t, vertical, 2)
	assert.Len(t, horizontal, 2)
	for _, ch := range vertical {
		assert.Equal(t, -5.0, ch.Rect.Min.Y)
		assert.Equal(t, 15.0, ch.Rect.Max.Y)
	}
}
