// Package pipeline runs the route → render pipeline shared by the CLI and
// the HTTP API.
//
// # Architecture
//
// The pipeline has two stages:
//
//  1. Route: resolve a scene, run the orthogonal routing engine and build a
//     [scene.Layout]
//  2. Render: draw a layout in the requested formats (SVG, PNG, DOT, JSON)
//
// Both stages go through a [cache.Cache]. A routed layout is keyed by the
// hash of its scene and the routing options; an artifact is keyed by the
// hash of the layout geometry and the render options.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, s, pipeline.Options{
//	    Resize:  true,
//	    Formats: []string{"svg", "json"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run the stages separately:
//
//	layout, hit, err := runner.Route(ctx, s, opts)
//	artifacts, hit, err := runner.Render(ctx, layout, opts)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/orthoroute/pkg/cache"
	apperrors "github.com/matzehuels/orthoroute/pkg/errors"
	"github.com/matzehuels/orthoroute/pkg/ortho"
	"github.com/matzehuels/orthoroute/pkg/render"
	"github.com/matzehuels/orthoroute/pkg/scene"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	DefaultMargin           = ortho.DefaultMargin
	DefaultBaseChannelWidth = ortho.BaseChannelWidth
	DefaultSlotSpacing      = ortho.SlotSpacing
	DefaultStroke           = 1.5
	DefaultPadding          = 10.0
)

// Format constants for output formats.
const (
	FormatSVG  = render.FormatSVG
	FormatPNG  = render.FormatPNG
	FormatDOT  = render.FormatDOT
	FormatJSON = render.FormatJSON
)

// ValidFormats lists the supported output formats.
var ValidFormats = render.Formats

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures a pipeline run. It supports JSON for API requests.
type Options struct {
	// Routing options
	Margin           float64 `json:"margin,omitempty"`
	BaseChannelWidth float64 `json:"base_channel_width,omitempty"`
	SlotSpacing      float64 `json:"slot_spacing,omitempty"`
	Resize           bool    `json:"resize,omitempty"`

	// Render options
	Formats      []string `json:"formats,omitempty"`
	Stroke       float64  `json:"stroke,omitempty"`
	Padding      float64  `json:"padding,omitempty"`
	ShowChannels bool     `json:"show_channels,omitempty"`

	// Refresh bypasses cached layouts and artifacts.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	Layout    *scene.Layout
	Artifacts map[string][]byte
	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Boxes       int
	Connections int
	RouteTime   time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	RouteHit  bool
	RenderHit bool // all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormats checks that all formats are supported.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := apperrors.ValidateFormat(f, ValidFormats); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults applies defaults for both stages and validates the
// result. Calling it again has no effect.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForRoute(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetRouteDefaults fills in unset routing options.
func (o *Options) SetRouteDefaults() {
	if o.Margin == 0 {
		o.Margin = DefaultMargin
	}
	if o.BaseChannelWidth == 0 {
		o.BaseChannelWidth = DefaultBaseChannelWidth
	}
	if o.SlotSpacing == 0 {
		o.SlotSpacing = DefaultSlotSpacing
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRoute sets routing defaults and rejects negative sizes.
func (o *Options) ValidateForRoute() error {
	o.SetRouteDefaults()
	switch {
	case o.Margin < 0:
		return apperrors.New(apperrors.ErrCodeInvalidInput, "margin cannot be negative")
	case o.BaseChannelWidth < 0:
		return apperrors.New(apperrors.ErrCodeInvalidInput, "base channel width cannot be negative")
	case o.SlotSpacing < 0:
		return apperrors.New(apperrors.ErrCodeInvalidInput, "slot spacing cannot be negative")
	}
	return nil
}

// SetRenderDefaults fills in unset render options.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Stroke == 0 {
		o.Stroke = DefaultStroke
	}
	if o.Padding == 0 {
		o.Padding = DefaultPadding
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender sets render defaults and validates formats.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if o.Stroke < 0 || o.Padding < 0 {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "stroke and padding cannot be negative")
	}
	return ValidateFormats(o.Formats)
}

// EngineOptions returns the routing engine options.
func (o *Options) EngineOptions() ortho.Options {
	return ortho.Options{
		Margin:           o.Margin,
		BaseChannelWidth: o.BaseChannelWidth,
		SlotSpacing:      o.SlotSpacing,
		Resize:           o.Resize,
	}
}

// RenderOptions returns the SVG renderer options.
func (o *Options) RenderOptions() render.Options {
	return render.Options{
		Stroke:       o.Stroke,
		Padding:      o.Padding,
		ShowChannels: o.ShowChannels,
	}
}

// LayoutKeyOpts returns cache key options for routing.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Margin:           o.Margin,
		BaseChannelWidth: o.BaseChannelWidth,
		SlotSpacing:      o.SlotSpacing,
		Resize:           o.Resize,
	}
}

// ArtifactKeyOpts returns cache key options for rendering one format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:       format,
		Stroke:       o.Stroke,
		Padding:      o.Padding,
		ShowChannels: o.ShowChannels,
	}
}
