package scene

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/orthoroute/pkg/errors"
	"github.com/matzehuels/orthoroute/pkg/geom"
)

const jsonScene = `{
  "boxes": [
    {"id": "api", "label": "API", "x": 0, "y": 0, "width": 10, "height": 10},
    {"x": 30, "y": 0, "width": 10, "height": 10}
  ],
  "connections": [{"from": "api", "to": "1", "label": "calls"}]
}`

const tomlScene = `
[[boxes]]
id = "api"
label = "API"
x = 0
y = 0
width = 10
height = 10

[[boxes]]
x = 30
y = 0
width = 10
height = 10

[[connections]]
from = "api"
to = "1"
label = "calls"
`

func TestReadScene(t *testing.T) {
	tests := []struct {
		format string
		input  string
	}{
		{FormatJSON, jsonScene},
		{FormatTOML, tomlScene},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			s, err := ReadScene(strings.NewReader(tt.input), tt.format)
			if err != nil {
				t.Fatalf("ReadScene: %v", err)
			}
			if len(s.Boxes) != 2 || len(s.Connections) != 1 {
				t.Fatalf("got %d boxes, %d connections, want 2, 1", len(s.Boxes), len(s.Connections))
			}
			if s.Boxes[1].ID != "1" {
				t.Errorf("unnamed box ID = %q, want %q", s.Boxes[1].ID, "1")
			}
			if s.Connections[0].Label != "calls" {
				t.Errorf("connection label = %q, want calls", s.Connections[0].Label)
			}

			rects, conns, err := s.Resolve()
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			want := geom.Rect{Min: geom.Point{X: 30, Y: 0}, Max: geom.Point{X: 40, Y: 10}}
			if rects[1] != want {
				t.Errorf("rects[1] = %v, want %v", rects[1], want)
			}
			if conns[0].From != 0 || conns[0].To != 1 {
				t.Errorf("conns[0] = %+v, want 0 -> 1", conns[0])
			}
		})
	}
}

func TestReadSceneErrors(t *testing.T) {
	if _, err := ReadScene(strings.NewReader("{"), FormatJSON); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("malformed json: err = %v, want INVALID_INPUT", err)
	}
	if _, err := ReadScene(strings.NewReader("x = ["), FormatTOML); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("malformed toml: err = %v, want INVALID_INPUT", err)
	}
	if _, err := ReadScene(strings.NewReader("{}"), "yaml"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("unknown format: err = %v, want INVALID_FORMAT", err)
	}
}

func TestResolveErrors(t *testing.T) {
	box := Box{Width: 10, Height: 10}
	tests := []struct {
		name  string
		scene Scene
		code  errors.Code
	}{
		{
			name:  "duplicate id",
			scene: Scene{Boxes: []Box{{ID: "a", Width: 1}, {ID: "a", Width: 1}}},
			code:  errors.ErrCodeInvalidBox,
		},
		{
			name:  "negative size",
			scene: Scene{Boxes: []Box{{ID: "a", Width: -1}}},
			code:  errors.ErrCodeInvalidBox,
		},
		{
			name: "unknown source",
			scene: Scene{
				Boxes:       []Box{box},
				Connections: []Connection{{From: "x", To: "0"}},
			},
			code: errors.ErrCodeInvalidConnection,
		},
		{
			name: "unknown target",
			scene: Scene{
				Boxes:       []Box{box},
				Connections: []Connection{{From: "0", To: "x"}},
			},
			code: errors.ErrCodeInvalidConnection,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.scene.Resolve()
			if !errors.Is(err, tt.code) {
				t.Errorf("Resolve() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]string{
		"scene.toml": FormatTOML,
		"SCENE.TOML": FormatTOML,
		"scene.json": FormatJSON,
		"scene":      FormatJSON,
	}
	for path, want := range tests {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestImportScene(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.toml")
	if err := os.WriteFile(path, []byte(tomlScene), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := ImportScene(path)
	if err != nil {
		t.Fatalf("ImportScene: %v", err)
	}
	if s.Boxes[0].Label != "API" {
		t.Errorf("label = %q, want API", s.Boxes[0].Label)
	}

	_, err = ImportScene(filepath.Join(dir, "missing.json"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file: err = %v, want FILE_NOT_FOUND", err)
	}
}

func TestWriteSceneTOML(t *testing.T) {
	s, err := ReadScene(strings.NewReader(jsonScene), FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteScene(s, &buf, FormatTOML); err != nil {
		t.Fatalf("WriteScene: %v", err)
	}
	back, err := ReadScene(&buf, FormatTOML)
	if err != nil {
		t.Fatalf("ReadScene: %v", err)
	}
	if len(back.Boxes) != 2 || back.Boxes[0].ID != "api" || back.Boxes[1].X != 30 {
		t.Errorf("round trip boxes = %+v", back.Boxes)
	}
}
