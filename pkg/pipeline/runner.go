package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/orthoroute/pkg/cache"
	apperrors "github.com/matzehuels/orthoroute/pkg/errors"
	"github.com/matzehuels/orthoroute/pkg/observability"
	"github.com/matzehuels/orthoroute/pkg/scene"
)

// Runner executes pipeline stages through a cache. The CLI and the HTTP
// API share it.
//
// The Runner holds no per-run state, so goroutines may share one Runner
// with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides the lifetime of cached layouts and artifacts when set.
	TTL time.Duration
}

// NewRunner creates a runner. A nil keyer selects the default key layout,
// a nil cache disables caching and a nil logger logs to the default logger.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute routes s and renders the layout.
func (r *Runner) Execute(ctx context.Context, s *scene.Scene, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{}
	result.Stats.Boxes = len(s.Boxes)
	result.Stats.Connections = len(s.Connections)

	routeStart := time.Now()
	layout, hit, err := r.Route(ctx, s, opts)
	if err != nil {
		return nil, err
	}
	result.Layout = layout
	result.Stats.RouteTime = time.Since(routeStart)
	result.CacheInfo.RouteHit = hit

	renderStart := time.Now()
	artifacts, hit, err := r.Render(ctx, layout, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = hit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)
	return result, nil
}

// Route returns the layout for s, from cache unless opts.Refresh is set.
// The bool reports a cache hit.
func (r *Runner) Route(ctx context.Context, s *scene.Scene, opts Options) (*scene.Layout, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRoute(); err != nil {
		return nil, false, err
	}

	sceneData, err := json.Marshal(s)
	if err != nil {
		return nil, false, fmt.Errorf("serialize scene for cache key: %w", err)
	}
	sceneHash := cache.Hash(sceneData)
	key := r.Keyer.LayoutKey(sceneHash, opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if l, err := scene.UnmarshalLayout(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				r.Logger.Debug("layout cache hit", "key", key)
				return l, true, nil
			}
		} else if err != nil {
			r.Logger.Warn("layout cache read failed", "err", err)
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	start := time.Now()
	observability.Routing().OnRouteStart(ctx, len(s.Boxes), len(s.Connections))
	layout, res, err := RouteScene(ctx, s, opts)
	duration := time.Since(start)
	var stats observability.RouteStats
	if res != nil {
		stats = observability.RouteStats{
			Routes:    res.Stats.Routes,
			Channels:  res.Stats.Channels,
			Bends:     res.Stats.Bends,
			Crossings: res.Stats.Crossings,
			Cycles:    res.Stats.DetectedCycles,
		}
	}
	observability.Routing().OnRouteComplete(ctx, stats, duration, err)
	if err != nil {
		return nil, false, err
	}
	layout.SourceHash = sceneHash

	r.Logger.Info("routed scene",
		"boxes", len(s.Boxes),
		"connections", len(s.Connections),
		"routes", stats.Routes,
		"channels", stats.Channels,
		"crossings", stats.Crossings,
		"duration", duration)
	if stats.Cycles > 0 {
		r.Logger.Debug("leg order cycles broken", "count", stats.Cycles)
	}

	if data, err := scene.MarshalLayout(layout); err == nil {
		if err := r.Cache.Set(ctx, key, data, r.ttl(cache.TTLLayout)); err != nil {
			r.Logger.Warn("layout cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}
	return layout, false, nil
}

// Render draws l in opts.Formats. Drawings are cached by layout geometry;
// JSON output is always encoded fresh because it carries the layout ID.
// The bool reports that every format came from cache.
func (r *Runner) Render(ctx context.Context, l *scene.Layout, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	layoutHash, err := geometryHash(l)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}

	start := time.Now()
	observability.Render().OnRenderStart(ctx, opts.Formats)

	artifacts := make(map[string][]byte, len(opts.Formats))
	allCached := true
	for _, format := range opts.Formats {
		if format == FormatJSON {
			data, err := scene.MarshalLayout(l)
			if err != nil {
				observability.Render().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
				return nil, false, err
			}
			artifacts[format] = data
			continue
		}

		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if !opts.Refresh {
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				observability.Cache().OnCacheHit(ctx, "artifact")
				artifacts[format] = data
				continue
			}
			observability.Cache().OnCacheMiss(ctx, "artifact")
		}
		allCached = false

		data, err := renderFormat(ctx, l, format, opts)
		if err != nil {
			err = fmt.Errorf("render %s: %w", format, err)
			observability.Render().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
			return nil, false, err
		}
		artifacts[format] = data
		if err := r.Cache.Set(ctx, key, data, r.ttl(cache.TTLArtifact)); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}
	observability.Render().OnRenderComplete(ctx, opts.Formats, time.Since(start), nil)

	if allCached {
		r.Logger.Debug("artifact cache hit", "formats", opts.Formats)
	}
	return artifacts, allCached && !slices.Contains(opts.Formats, FormatJSON), nil
}

// StoreLayout keeps l under its ID for [Runner.LoadLayout].
func (r *Runner) StoreLayout(ctx context.Context, l *scene.Layout) error {
	data, err := scene.MarshalLayout(l)
	if err != nil {
		return err
	}
	if err := r.Cache.Set(ctx, r.Keyer.StoredKey(l.ID), data, cache.TTLStored); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "store layout")
	}
	observability.Cache().OnCacheSet(ctx, "stored", len(data))
	return nil
}

// LoadLayout returns a layout saved with [Runner.StoreLayout].
func (r *Runner) LoadLayout(ctx context.Context, id string) (*scene.Layout, error) {
	if err := apperrors.ValidateLayoutID(id); err != nil {
		return nil, err
	}
	data, hit, err := r.Cache.Get(ctx, r.Keyer.StoredKey(id))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "load layout")
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, "stored")
		return nil, apperrors.New(apperrors.ErrCodeLayoutNotFound, "layout %s not found", id)
	}
	observability.Cache().OnCacheHit(ctx, "stored")
	l, err := scene.UnmarshalLayout(data)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "decode stored layout")
	}
	return l, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return def
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
