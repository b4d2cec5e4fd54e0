package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRectBasics(t *testing.T) {
	r := FromMinMax(Point{40, 20}, Point{10, 10})
	assert.Equal(t, Point{10, 10}, r.Min)
	assert.Equal(t, Point{40, 20}, r.Max)
	assert.Equal(t, 30.0, r.Width())
	assert.Equal(t, 10.0, r.Height())
	assert.Equal(t, Point{25, 15}, r.Center())

	c := FromCenterSize(Point{20, 20}, 30, 10)
	assert.Equal(t, Rect{Point{5, 15}, Point{35, 25}}, c)
	assert.Equal(t, Rect{Point{0, 10}, Point{40, 30}}, c.Expand(5))
}

func TestRectIntersects(t *testing.T) {
	a := Rect{Point{0, 0}, Point{10, 10}}
	tests := []struct {
		name string
		b    Rect
		want bool
	}{
		{"overlap", Rect{Point{5, 5}, Point{15, 15}}, true},
		{"touching edge", Rect{Point{10, 0}, Point{20, 10}}, true},
		{"touching corner", Rect{Point{10, 10}, Point{20, 20}}, true},
		{"disjoint", Rect{Point{11, 0}, Point{20, 10}}, false},
		{"contained", Rect{Point{2, 2}, Point{3, 3}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Intersects(tt.b))
			assert.Equal(t, tt.want, tt.b.Intersects(a))
		})
	}
}

func TestRectIntersectUnion(t *testing.T) {
	a := Rect{Point{0, 0}, Point{10, 10}}
	b := Rect{Point{5, -5}, Point{20, 5}}
	assert.Equal(t, Rect{Point{5, 0}, Point{10, 5}}, a.Intersect(b))
	assert.Equal(t, Rect{Point{0, -5}, Point{20, 10}}, a.Union(b))
	assert.Equal(t, Rect{Point{0, -5}, Point{20, 10}}, Bounds([]Rect{a, b}))
	assert.Equal(t, Rect{}, Bounds(nil))
}

func TestCountCrossings(t *testing.T) {
	tests := []struct {
		name  string
		lines []Polyline
		want  int
	}{
		{
			name:  "empty",
			lines: nil,
			want:  0,
		},
		{
			name: "plus sign",
			lines: []Polyline{
				{{0, 5}, {10, 5}},
				{{5, 0}, {5, 10}},
			},
			want: 1,
		},
		{
			name: "touching endpoint does not count",
			lines: []Polyline{
				{{0, 5}, {10, 5}},
				{{10, 0}, {10, 10}},
			},
			want: 0,
		},
		{
			name: "own corner does not count",
			lines: []Polyline{
				{{0, 0}, {10, 0}, {10, 10}},
			},
			want: 0,
		},
		{
			name: "grid",
			lines: []Polyline{
				{{0, 2}, {10, 2}},
				{{0, 4}, {10, 4}},
				{{3, 0}, {3, 10}},
				{{6, 0}, {6, 10}},
			},
			want: 4,
		},
		{
			name: "z route against a bar",
			lines: []Polyline{
				{{0, 0}, {5, 0}, {5, 10}, {10, 10}},
				{{0, 5}, {10, 5}},
			},
			want: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountCrossings(tt.lines))
		})
	}
}
