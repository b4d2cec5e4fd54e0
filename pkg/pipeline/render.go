package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/orthoroute/pkg/cache"
	"github.com/matzehuels/orthoroute/pkg/render"
	"github.com/matzehuels/orthoroute/pkg/scene"
)

// Render draws l in every requested format without caching.
func Render(ctx context.Context, l *scene.Layout, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, err := renderFormat(ctx, l, format, opts)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func renderFormat(ctx context.Context, l *scene.Layout, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatSVG:
		return render.SVG(l, opts.RenderOptions()), nil
	case FormatPNG:
		return render.PNG(ctx, l)
	case FormatDOT:
		return []byte(render.ToDOT(l)), nil
	case FormatJSON:
		return scene.MarshalLayout(l)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// geometryHash hashes the parts of l that affect drawings, leaving out the
// ID and creation time so that re-routed identical scenes share artifacts.
func geometryHash(l *scene.Layout) (string, error) {
	c := *l
	c.ID = ""
	c.CreatedAt = time.Time{}
	data, err := scene.MarshalLayout(&c)
	if err != nil {
		return "", err
	}
	return cache.Hash(data), nil
}
