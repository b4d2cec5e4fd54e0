package pipeline

import (
	"context"
	"errors"

	apperrors "github.com/matzehuels/orthoroute/pkg/errors"
	"github.com/matzehuels/orthoroute/pkg/ortho"
	"github.com/matzehuels/orthoroute/pkg/scene"
)

// RouteScene routes s without caching. It returns the layout and the raw
// engine result, which carries the routing graph for debugging output.
//
// The engine runs in its own goroutine so that a cancelled or expired ctx
// returns promptly; the abandoned pass finishes in the background.
func RouteScene(ctx context.Context, s *scene.Scene, opts Options) (*scene.Layout, *ortho.Result, error) {
	if err := opts.ValidateForRoute(); err != nil {
		return nil, nil, err
	}
	rects, conns, err := s.Resolve()
	if err != nil {
		return nil, nil, err
	}
	for i, c := range conns {
		if err := apperrors.ValidateConnection(i, c.From, c.To, len(rects)); err != nil {
			return nil, nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, contextError(err)
	}

	type outcome struct {
		res *ortho.Result
		err error
	}
	done := make(chan outcome, 1)
	engineOpts := opts.EngineOptions()
	go func() {
		res, err := ortho.Route(rects, conns, engineOpts)
		done <- outcome{res, err}
	}()

	select {
	case <-ctx.Done():
		return nil, nil, contextError(ctx.Err())
	case out := <-done:
		if out.err != nil {
			return nil, nil, engineError(out.err)
		}
		opts.Logger.Debug("routing pass",
			"routes", out.res.Stats.Routes,
			"legs", out.res.Stats.Legs,
			"bends", out.res.Stats.Bends,
			"self_loops", len(out.res.SelfLoops))
		return scene.FromResult(s, out.res), out.res, nil
	}
}

// engineError maps routing engine errors to coded errors.
func engineError(err error) error {
	switch {
	case errors.Is(err, ortho.ErrInvalidInput):
		return apperrors.Wrap(apperrors.ErrCodeInvalidConnection, err, "invalid routing input")
	case errors.Is(err, ortho.ErrRouteNotFound):
		return apperrors.Wrap(apperrors.ErrCodeUnroutable, err, "connection cannot be routed")
	default:
		return apperrors.Wrap(apperrors.ErrCodeRoutingFailed, err, "routing failed")
	}
}

func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(apperrors.ErrCodeTimeout, err, "routing timed out")
	}
	return err
}
