package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/orthoroute/pkg/buildinfo"
	apperrors "github.com/matzehuels/orthoroute/pkg/errors"
	"github.com/matzehuels/orthoroute/pkg/pipeline"
	"github.com/matzehuels/orthoroute/pkg/render"
	"github.com/matzehuels/orthoroute/pkg/scene"
)

// RouteRequest is the body of POST /v1/route and POST /v1/render/{format}.
type RouteRequest struct {
	Scene   scene.Scene      `json:"scene"`
	Options pipeline.Options `json:"options"`
}

// RouteResponse is the reply to POST /v1/route.
type RouteResponse struct {
	Layout *scene.Layout `json:"layout"`
	Cached bool          `json:"cached"`
}

// HealthResponse is the reply to GET /healthz.
type HealthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

var contentTypes = map[string]string{
	render.FormatSVG:  "image/svg+xml",
	render.FormatPNG:  "image/png",
	render.FormatDOT:  "text/vnd.graphviz",
	render.FormatJSON: "application/json",
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Build: buildinfo.Get()})
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeRouteRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	layout, hit, err := s.runner.Route(r.Context(), &req.Scene, req.Options)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.runner.StoreLayout(r.Context(), layout); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RouteResponse{Layout: layout, Cached: hit})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if err := apperrors.ValidateFormat(format, pipeline.ValidFormats); err != nil {
		writeError(w, r, err)
		return
	}
	req, err := s.decodeRouteRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	layout, _, err := s.runner.Route(r.Context(), &req.Scene, req.Options)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.runner.StoreLayout(r.Context(), layout); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/layouts/"+layout.ID)
	s.writeArtifact(w, r, layout, format, req.Options)
}

func (s *Server) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	layout, err := s.runner.LoadLayout(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, layout)
}

func (s *Server) handleRenderStored(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if err := apperrors.ValidateFormat(format, pipeline.ValidFormats); err != nil {
		writeError(w, r, err)
		return
	}
	layout, err := s.runner.LoadLayout(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	opts, err := s.queryOptions(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.writeArtifact(w, r, layout, format, opts)
}

func (s *Server) writeArtifact(w http.ResponseWriter, r *http.Request, l *scene.Layout, format string, opts pipeline.Options) {
	opts.Formats = []string{format}
	artifacts, hit, err := s.runner.Render(r.Context(), l, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("X-Layout-ID", l.ID)
	w.Header().Set("X-Cache", cacheHeader(hit))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[format])
}

func (s *Server) decodeRouteRequest(r *http.Request) (*RouteRequest, error) {
	var req RouteRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return nil, err
		}
		if errors.Is(err, io.EOF) {
			return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "empty request body")
		}
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "decode request")
	}
	req.Options = s.withDefaults(req.Options)
	return &req, nil
}

// queryOptions reads render options from the query string of a stored
// layout request.
func (s *Server) queryOptions(r *http.Request) (pipeline.Options, error) {
	var opts pipeline.Options
	q := r.URL.Query()
	for name, dst := range map[string]*float64{"stroke": &opts.Stroke, "padding": &opts.Padding} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, apperrors.New(apperrors.ErrCodeInvalidInput, "invalid %s %q", name, v)
		}
		*dst = f
	}
	if v := q.Get("channels"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, apperrors.New(apperrors.ErrCodeInvalidInput, "invalid channels %q", v)
		}
		opts.ShowChannels = b
	}
	opts.Refresh = q.Get("refresh") == "true"
	return s.withDefaults(opts), nil
}

// withDefaults fills unset request options from the server configuration.
func (s *Server) withDefaults(o pipeline.Options) pipeline.Options {
	d := s.defaults
	if o.Margin == 0 {
		o.Margin = d.Margin
	}
	if o.BaseChannelWidth == 0 {
		o.BaseChannelWidth = d.BaseChannelWidth
	}
	if o.SlotSpacing == 0 {
		o.SlotSpacing = d.SlotSpacing
	}
	if !o.Resize {
		o.Resize = d.Resize
	}
	if o.Stroke == 0 {
		o.Stroke = d.Stroke
	}
	if o.Padding == 0 {
		o.Padding = d.Padding
	}
	if !o.ShowChannels {
		o.ShowChannels = d.ShowChannels
	}
	o.Logger = s.logger
	return o
}

func cacheHeader(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}
