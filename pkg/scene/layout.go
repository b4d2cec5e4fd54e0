package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/orthoroute/pkg/errors"
	"github.com/matzehuels/orthoroute/pkg/geom"
	"github.com/matzehuels/orthoroute/pkg/ortho"
)

// LayoutBox is a box after routing, possibly moved by channel resizing.
type LayoutBox struct {
	ID    string    `json:"id" bson:"id"`
	Label string    `json:"label,omitempty" bson:"label,omitempty"`
	Rect  geom.Rect `json:"rect" bson:"rect"`
}

// RoutedEdge is one routed connection. Points run from the From box to the
// To box and are empty for self-loops.
type RoutedEdge struct {
	From     string       `json:"from" bson:"from"`
	To       string       `json:"to" bson:"to"`
	Label    string       `json:"label,omitempty" bson:"label,omitempty"`
	Points   []geom.Point `json:"points,omitempty" bson:"points,omitempty"`
	Bends    int          `json:"bends" bson:"bends"`
	SelfLoop bool         `json:"self_loop,omitempty" bson:"self_loop,omitempty"`
}

// ChannelInfo describes one channel of the partition and its track usage.
type ChannelInfo struct {
	Orientation string    `json:"orientation" bson:"orientation"`
	Rect        geom.Rect `json:"rect" bson:"rect"`
	Capacity    int       `json:"capacity" bson:"capacity"`
	Slots       int       `json:"slots" bson:"slots"`
}

// Layout is a routed scene.
type Layout struct {
	ID         string        `json:"id" bson:"id"`
	CreatedAt  time.Time     `json:"created_at" bson:"created_at"`
	SourceHash string        `json:"source_hash,omitempty" bson:"source_hash,omitempty"`
	Bounds     geom.Rect     `json:"bounds" bson:"bounds"`
	Boxes      []LayoutBox   `json:"boxes" bson:"boxes"`
	Edges      []RoutedEdge  `json:"edges" bson:"edges"`
	Channels   []ChannelInfo `json:"channels,omitempty" bson:"channels,omitempty"`
	Stats      ortho.Stats   `json:"stats" bson:"stats"`
}

// FromResult builds a layout from a scene and its routing result. The
// layout gets a fresh ID; SourceHash is left to the caller.
func FromResult(s *Scene, res *ortho.Result) *Layout {
	l := &Layout{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Boxes:     make([]LayoutBox, len(s.Boxes)),
		Edges:     make([]RoutedEdge, len(s.Connections)),
		Stats:     res.Stats,
	}
	for i, b := range s.Boxes {
		r := b.Rect()
		if i < len(res.Boxes) {
			r = res.Boxes[i]
		}
		l.Boxes[i] = LayoutBox{ID: b.ID, Label: b.Label, Rect: r}
	}

	bends := make(map[int]int)
	if res.Routing != nil {
		for _, e := range res.Routing.Edges {
			bends[e.Connection] = len(res.Routes[e.Route].Bends)
		}
	}
	routed := 0
	for i, c := range s.Connections {
		e := RoutedEdge{From: c.From, To: c.To, Label: c.Label}
		if i < len(res.Polylines) && res.Polylines[i] != nil {
			e.Points = []geom.Point(res.Polylines[i])
			e.Bends = bends[routed]
			routed++
		} else {
			e.SelfLoop = true
		}
		l.Edges[i] = e
	}

	rects := make([]geom.Rect, 0, len(l.Boxes))
	for _, b := range l.Boxes {
		rects = append(rects, b.Rect)
	}
	for _, ch := range res.Vertical {
		rects = append(rects, ch.Rect)
	}
	for _, ch := range res.Horizontal {
		rects = append(rects, ch.Rect)
	}
	l.Bounds = geom.Bounds(rects)

	if res.Graph != nil && res.Routing != nil {
		for gid := 0; gid < res.Graph.ChannelCount(); gid++ {
			ch := res.Graph.Channel(res.Graph.RefOf(gid))
			l.Channels = append(l.Channels, ChannelInfo{
				Orientation: ch.Orientation.String(),
				Rect:        ch.Rect,
				Capacity:    res.Routing.Capacity[gid],
				Slots:       res.Routing.ChannelSlots[gid],
			})
		}
	}
	return l
}

// Box returns the layout box with the given ID.
func (l *Layout) Box(id string) (LayoutBox, bool) {
	for _, b := range l.Boxes {
		if b.ID == id {
			return b, true
		}
	}
	return LayoutBox{}, false
}

// WriteLayout encodes l as indented JSON.
func WriteLayout(l *Layout, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	return nil
}

// ReadLayout decodes a JSON layout.
func ReadLayout(r io.Reader) (*Layout, error) {
	var l Layout
	if err := json.NewDecoder(r).Decode(&l); err != nil {
		return nil, fmt.Errorf("decode layout: %w", err)
	}
	return &l, nil
}

// MarshalLayout returns the JSON encoding of l.
func MarshalLayout(l *Layout) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteLayout(l, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalLayout decodes a JSON layout from data.
func UnmarshalLayout(data []byte) (*Layout, error) {
	return ReadLayout(bytes.NewReader(data))
}

// ImportLayout reads a layout file.
func ImportLayout(path string) (*Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadLayout(f)
}

// ExportLayout writes l to a JSON file.
func ExportLayout(l *Layout, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteLayout(l, f)
}
