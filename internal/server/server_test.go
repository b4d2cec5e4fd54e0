package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/orthoroute/pkg/cache"
	"github.com/matzehuels/orthoroute/pkg/config"
	apperrors "github.com/matzehuels/orthoroute/pkg/errors"
	"github.com/matzehuels/orthoroute/pkg/observability"
	"github.com/matzehuels/orthoroute/pkg/pipeline"
)

const sceneJSON = `{
	"scene": {
		"boxes": [
			{"id": "a", "x": 0, "y": 0, "width": 10, "height": 10},
			{"id": "b", "x": 40, "y": 0, "width": 10, "height": 10},
			{"id": "c", "x": 0, "y": 40, "width": 10, "height": 10}
		],
		"connections": [
			{"from": "a", "to": "b"},
			{"from": "b", "to": "c", "label": "bc"}
		]
	},
	"options": {"resize": true}
}`

func newTestServer(t *testing.T, cfg config.Server) *httptest.Server {
	t.Helper()
	logger := log.New(io.Discard)
	runner := pipeline.NewRunner(cache.NewMemoryCache(), nil, logger)
	srv := httptest.NewServer(New(runner, logger, cfg, pipeline.Options{}).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	return e
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, config.Server{})
	resp := get(t, srv.URL+"/healthz")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var h HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&h))
	assert.Equal(t, "ok", h.Status)
	assert.NotEmpty(t, h.Build.Version)
	_, err := uuid.Parse(resp.Header.Get(RequestIDHeader))
	assert.NoError(t, err)
}

func TestRequestIDPropagation(t *testing.T) {
	srv := newTestServer(t, config.Server{})
	id := uuid.NewString()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, id)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, id, resp.Header.Get(RequestIDHeader))

	req.Header.Set(RequestIDHeader, "not-a-uuid")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.NotEqual(t, "not-a-uuid", resp2.Header.Get(RequestIDHeader))
}

func TestRouteAndFetch(t *testing.T) {
	srv := newTestServer(t, config.Server{})

	resp := post(t, srv.URL+"/v1/route", sceneJSON)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out RouteResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotNil(t, out.Layout)
	assert.False(t, out.Cached)
	assert.Len(t, out.Layout.Boxes, 3)
	assert.Len(t, out.Layout.Edges, 2)

	again := post(t, srv.URL+"/v1/route", sceneJSON)
	var cached RouteResponse
	require.NoError(t, json.NewDecoder(again.Body).Decode(&cached))
	assert.True(t, cached.Cached)

	stored := get(t, srv.URL+"/v1/layouts/"+out.Layout.ID)
	require.Equal(t, http.StatusOK, stored.StatusCode)
	var layout struct {
		ID    string `json:"id"`
		Edges []any  `json:"edges"`
	}
	require.NoError(t, json.NewDecoder(stored.Body).Decode(&layout))
	assert.Equal(t, out.Layout.ID, layout.ID)
	assert.Len(t, layout.Edges, 2)

	svg := get(t, srv.URL+"/v1/layouts/"+out.Layout.ID+"/svg?channels=true")
	require.Equal(t, http.StatusOK, svg.StatusCode)
	assert.Equal(t, "image/svg+xml", svg.Header.Get("Content-Type"))
	body, err := io.ReadAll(svg.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "<svg")
	assert.Contains(t, string(body), "channel-")

	bad := get(t, srv.URL+"/v1/layouts/"+out.Layout.ID+"/svg?stroke=wide")
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, decodeError(t, bad).Code)
}

func TestRenderEndpoint(t *testing.T) {
	srv := newTestServer(t, config.Server{})

	tests := []struct {
		format      string
		contentType string
		prefix      []byte
	}{
		{"svg", "image/svg+xml", []byte("<svg")},
		{"dot", "text/vnd.graphviz", []byte("digraph")},
		{"json", "application/json", []byte("{")},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			resp := post(t, srv.URL+"/v1/render/"+tt.format, sceneJSON)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.contentType, resp.Header.Get("Content-Type"))
			assert.NotEmpty(t, resp.Header.Get("X-Layout-ID"))
			assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "/v1/layouts/"))
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(bytes.TrimSpace(body), tt.prefix), "body starts with %q", body[:min(len(body), 20)])
		})
	}
}

func TestErrors(t *testing.T) {
	srv := newTestServer(t, config.Server{MaxBodyBytes: 4096})

	tests := []struct {
		name   string
		do     func() *http.Response
		status int
		code   apperrors.Code
	}{
		{
			name:   "empty body",
			do:     func() *http.Response { return post(t, srv.URL+"/v1/route", "") },
			status: http.StatusBadRequest,
			code:   apperrors.ErrCodeInvalidInput,
		},
		{
			name:   "malformed json",
			do:     func() *http.Response { return post(t, srv.URL+"/v1/route", "{") },
			status: http.StatusBadRequest,
			code:   apperrors.ErrCodeInvalidInput,
		},
		{
			name:   "unknown field",
			do:     func() *http.Response { return post(t, srv.URL+"/v1/route", `{"bogus": 1}`) },
			status: http.StatusBadRequest,
			code:   apperrors.ErrCodeInvalidInput,
		},
		{
			name: "unknown box",
			do: func() *http.Response {
				return post(t, srv.URL+"/v1/route", `{"scene": {"boxes": [{"id": "a", "width": 1, "height": 1}], "connections": [{"from": "a", "to": "z"}]}}`)
			},
			status: http.StatusBadRequest,
			code:   apperrors.ErrCodeInvalidConnection,
		},
		{
			name:   "unsupported format",
			do:     func() *http.Response { return post(t, srv.URL+"/v1/render/pdf", sceneJSON) },
			status: http.StatusBadRequest,
			code:   apperrors.ErrCodeInvalidFormat,
		},
		{
			name:   "bad layout id",
			do:     func() *http.Response { return get(t, srv.URL+"/v1/layouts/nope") },
			status: http.StatusBadRequest,
			code:   apperrors.ErrCodeInvalidID,
		},
		{
			name:   "missing layout",
			do:     func() *http.Response { return get(t, srv.URL+"/v1/layouts/"+uuid.NewString()) },
			status: http.StatusNotFound,
			code:   apperrors.ErrCodeLayoutNotFound,
		},
		{
			name:   "unknown path",
			do:     func() *http.Response { return get(t, srv.URL+"/v2/route") },
			status: http.StatusNotFound,
			code:   apperrors.ErrCodeNotFound,
		},
		{
			name:   "wrong method",
			do:     func() *http.Response { return get(t, srv.URL+"/v1/route") },
			status: http.StatusMethodNotAllowed,
			code:   apperrors.ErrCodeUnsupported,
		},
		{
			name: "body too large",
			do: func() *http.Response {
				return post(t, srv.URL+"/v1/route", `{"scene": {"boxes": [`+strings.Repeat(`{"width": 1, "height": 1},`, 400)+`]}}`)
			},
			status: http.StatusRequestEntityTooLarge,
			code:   apperrors.ErrCodeInvalidInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := tt.do()
			assert.Equal(t, tt.status, resp.StatusCode)
			e := decodeError(t, resp)
			assert.Equal(t, tt.code, e.Code)
			assert.NotEmpty(t, e.Message)
			assert.Equal(t, resp.Header.Get(RequestIDHeader), e.RequestID)
		})
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperrors.New(apperrors.ErrCodeInvalidBox, "x"), http.StatusBadRequest},
		{apperrors.New(apperrors.ErrCodeFileNotFound, "x"), http.StatusNotFound},
		{apperrors.New(apperrors.ErrCodeUnroutable, "x"), http.StatusUnprocessableEntity},
		{apperrors.New(apperrors.ErrCodeRoutingFailed, "x"), http.StatusUnprocessableEntity},
		{apperrors.New(apperrors.ErrCodeTimeout, "x"), http.StatusGatewayTimeout},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
		{&http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusOf(tt.err), "%v", tt.err)
	}
}

type httpRecorder struct {
	requests  int
	responses []int
}

func (h *httpRecorder) OnRequest(context.Context, string, string) { h.requests++ }
func (h *httpRecorder) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	h.responses = append(h.responses, status)
}

func TestHTTPHooks(t *testing.T) {
	rec := &httpRecorder{}
	observability.SetHTTPHooks(rec)
	t.Cleanup(observability.Reset)

	logger := log.New(io.Discard)
	s := New(pipeline.NewRunner(nil, nil, logger), logger, config.Server{}, pipeline.Options{})

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, 2, rec.requests)
	assert.Equal(t, []int{http.StatusOK, http.StatusNotFound}, rec.responses)
}

func TestWithDefaults(t *testing.T) {
	s := New(nil, log.New(io.Discard), config.Server{}, pipeline.Options{
		Margin: 30, Resize: true, Stroke: 2, ShowChannels: true,
	})
	got := s.withDefaults(pipeline.Options{Margin: 5})
	assert.Equal(t, 5.0, got.Margin)
	assert.True(t, got.Resize)
	assert.Equal(t, 2.0, got.Stroke)
	assert.True(t, got.ShowChannels)
	assert.NotNil(t, got.Logger)
}

func TestServeShutdown(t *testing.T) {
	logger := log.New(io.Discard)
	s := New(pipeline.NewRunner(nil, nil, logger), logger, config.Server{ShutdownTimeout: time.Second}, pipeline.Options{})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
