package scene

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/orthoroute/pkg/errors"
	"github.com/matzehuels/orthoroute/pkg/geom"
	"github.com/matzehuels/orthoroute/pkg/ortho"
)

// Input formats.
const (
	FormatJSON = "json"
	FormatTOML = "toml"
)

// Formats lists the accepted scene formats.
var Formats = []string{FormatJSON, FormatTOML}

// Box is a node box given by its top-left corner and size.
type Box struct {
	ID     string  `json:"id,omitempty" toml:"id" bson:"id"`
	Label  string  `json:"label,omitempty" toml:"label" bson:"label,omitempty"`
	X      float64 `json:"x" toml:"x" bson:"x"`
	Y      float64 `json:"y" toml:"y" bson:"y"`
	Width  float64 `json:"width" toml:"width" bson:"width"`
	Height float64 `json:"height" toml:"height" bson:"height"`
}

// Rect returns the box as a rectangle.
func (b Box) Rect() geom.Rect {
	return geom.Rect{
		Min: geom.Point{X: b.X, Y: b.Y},
		Max: geom.Point{X: b.X + b.Width, Y: b.Y + b.Height},
	}
}

// Connection links two boxes by ID.
type Connection struct {
	From  string `json:"from" toml:"from" bson:"from"`
	To    string `json:"to" toml:"to" bson:"to"`
	Label string `json:"label,omitempty" toml:"label" bson:"label,omitempty"`
}

// Scene is a routing input.
type Scene struct {
	Boxes       []Box        `json:"boxes" toml:"boxes" bson:"boxes"`
	Connections []Connection `json:"connections" toml:"connections" bson:"connections"`
}

// Normalize fills in missing box IDs with the box index.
func (s *Scene) Normalize() {
	for i := range s.Boxes {
		if s.Boxes[i].ID == "" {
			s.Boxes[i].ID = strconv.Itoa(i)
		}
	}
}

// Resolve validates the scene and converts it to engine input: one
// rectangle per box and one index-based connection per connection.
func (s *Scene) Resolve() ([]geom.Rect, []ortho.Connection, error) {
	index := make(map[string]int, len(s.Boxes))
	rects := make([]geom.Rect, len(s.Boxes))
	for i, b := range s.Boxes {
		id := b.ID
		if id == "" {
			id = strconv.Itoa(i)
		}
		if _, dup := index[id]; dup {
			return nil, nil, errors.New(errors.ErrCodeInvalidBox, "duplicate box id %q", id)
		}
		index[id] = i
		rects[i] = b.Rect()
	}
	if err := errors.ValidateBoxes(rects); err != nil {
		return nil, nil, err
	}

	conns := make([]ortho.Connection, len(s.Connections))
	for i, c := range s.Connections {
		from, ok := index[c.From]
		if !ok {
			return nil, nil, errors.New(errors.ErrCodeInvalidConnection, "connection %d: unknown source box %q", i, c.From)
		}
		to, ok := index[c.To]
		if !ok {
			return nil, nil, errors.New(errors.ErrCodeInvalidConnection, "connection %d: unknown target box %q", i, c.To)
		}
		conns[i] = ortho.Connection{From: from, To: to}
	}
	return rects, conns, nil
}

// FormatFromPath returns the scene format implied by a file extension,
// defaulting to JSON.
func FormatFromPath(path string) string {
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".toml" {
		return FormatTOML
	}
	return FormatJSON
}

// ReadScene decodes a scene in the given format from r. Box IDs are
// normalized; references are not checked until [Scene.Resolve].
func ReadScene(r io.Reader, format string) (*Scene, error) {
	if err := errors.ValidateFormat(format, Formats); err != nil {
		return nil, err
	}
	var s Scene
	switch format {
	case FormatTOML:
		if _, err := toml.NewDecoder(r).Decode(&s); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode toml scene")
		}
	default:
		if err := json.NewDecoder(r).Decode(&s); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode json scene")
		}
	}
	s.Normalize()
	return &s, nil
}

// ImportScene reads a scene file, picking the format from its extension.
func ImportScene(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadScene(f, FormatFromPath(path))
}

// WriteScene encodes s in the given format.
func WriteScene(s *Scene, w io.Writer, format string) error {
	if err := errors.ValidateFormat(format, Formats); err != nil {
		return err
	}
	if format == FormatTOML {
		return toml.NewEncoder(w).Encode(s)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
