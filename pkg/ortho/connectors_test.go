package ortho

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectorTags(t *testing.T) {
	tests := []struct {
		side      Side
		port, bnd ConnectorTag
	}{
		{SideLeft, RightOrBottom, LeftOrTop},
		{SideRight, LeftOrTop, RightOrBottom},
		{SideTop, RightOrBottom, LeftOrTop},
		{SideBottom, LeftOrTop, RightOrBottom},
	}
	for _, tt := range tests {
		t.Run(tt.side.String(), func(t *testing.T) {
			assert.Equal(t, tt.port, tagForPort(tt.side))
			assert.Equal(t, tt.bnd, tagForHalf(tt.side))
		})
	}
}

func TestBendConnectorHalf(t *testing.T) {
	// A route turning right off a vertical channel uses the right half.
	half := DownRight.SideFor(Vertical)
	assert.Equal(t, SideRight, half)
	assert.Equal(t, RightOrBottom, tagForHalf(half))

	sides, err := PortSidesFrom(half, half, 0, 1)
	assert.NoError(t, err)
	assert.Equal(t, sides.packTag(), tagForHalf(half))

	half = UpLeft.SideFor(Horizontal)
	assert.Equal(t, SideTop, half)
	assert.Equal(t, LeftOrTop, tagForHalf(half))
}
