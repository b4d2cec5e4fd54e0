package ortho

import "github.com/matzehuels/orthoroute/pkg/geom"

// Side names a side of a node box. The numeric values index per node side
// tables as node*4+side.
type Side int

const (
	SideRight Side = iota
	SideLeft
	SideTop
	SideBottom
)

// sidesPerNode is the stride of per node side tables.
const sidesPerNode = 4

var sideNames = [...]string{"right", "left", "top", "bottom"}

func (s Side) String() string {
	if s < 0 || int(s) >= len(sideNames) {
		return "unknown"
	}
	return sideNames[s]
}

// Opposite returns the side facing s.
func (s Side) Opposite() Side {
	switch s {
	case SideRight:
		return SideLeft
	case SideLeft:
		return SideRight
	case SideTop:
		return SideBottom
	default:
		return SideTop
	}
}

// Orientation returns the orientation of the channel a port on this side
// attaches to: left and right sides face vertical channels.
func (s Side) Orientation() Orientation {
	if s == SideRight || s == SideLeft {
		return Vertical
	}
	return Horizontal
}

// Orientation of a channel.
type Orientation int

const (
	Vertical Orientation = iota
	Horizontal
)

func (o Orientation) String() string {
	if o == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// Opposite returns the perpendicular orientation.
func (o Orientation) Opposite() Orientation {
	if o == Vertical {
		return Horizontal
	}
	return Vertical
}

// BendDirection classifies the corner a route takes at a bend vertex.
type BendDirection int

const (
	UpRight BendDirection = iota
	UpLeft
	DownRight
	DownLeft
)

var bendNames = [...]string{"up-right", "up-left", "down-right", "down-left"}

func (d BendDirection) String() string {
	if d < 0 || int(d) >= len(bendNames) {
		return "unknown"
	}
	return bendNames[d]
}

// SideFor returns the side of a channel with orientation o on which the
// bend lies.
func (d BendDirection) SideFor(o Orientation) Side {
	if o == Vertical {
		if d == UpRight || d == DownRight {
			return SideRight
		}
		return SideLeft
	}
	if d == UpRight || d == UpLeft {
		return SideTop
	}
	return SideBottom
}

// bendDirection classifies the corner between the incoming channel, which
// has orientation o, and the point reached after the bend.
func bendDirection(from, to geom.Point, o Orientation) BendDirection {
	rel := to.Sub(from)
	if o == Horizontal {
		switch {
		case rel.X >= 0 && rel.Y <= 0:
			return UpLeft
		case rel.X < 0 && rel.Y <= 0:
			return UpRight
		case rel.X >= 0 && rel.Y > 0:
			return DownLeft
		default:
			return DownRight
		}
	}
	switch {
	case rel.X >= 0 && rel.Y <= 0:
		return DownRight
	case rel.X < 0 && rel.Y <= 0:
		return DownLeft
	case rel.X >= 0 && rel.Y > 0:
		return UpRight
	default:
		return UpLeft
	}
}

// MarshalText encodes the side by name.
func (s Side) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText decodes a side name produced by MarshalText.
func (s *Side) UnmarshalText(b []byte) error {
	for i, n := range sideNames {
		if n == string(b) {
			*s = Side(i)
			return nil
		}
	}
	return graphError(ErrInvalidInput, "unknown side %q", b)
}

// MarshalText encodes the orientation by name.
func (o Orientation) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// UnmarshalText decodes "vertical" or "horizontal".
func (o *Orientation) UnmarshalText(b []byte) error {
	switch string(b) {
	case "vertical":
		*o = Vertical
	case "horizontal":
		*o = Horizontal
	default:
		return graphError(ErrInvalidInput, "unknown orientation %q", b)
	}
	return nil
}
