// Package client talks to a running orthoroute HTTP API.
//
// It mirrors the local pipeline: [Client.Route] returns the same
// [scene.Layout] that [pipeline.Runner.Route] would, so the CLI can route
// against a shared server and its cache instead of locally.
//
//	c := client.New("http://localhost:8080", nil)
//	layout, cached, err := c.Route(ctx, s, pipeline.Options{Resize: true})
//
// Network failures and 5xx responses are retried with exponential backoff.
// API errors come back as [errors.Error] values carrying the server's code.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/orthoroute/pkg/buildinfo"
	"github.com/matzehuels/orthoroute/pkg/cache"
	apperrors "github.com/matzehuels/orthoroute/pkg/errors"
	"github.com/matzehuels/orthoroute/pkg/pipeline"
	"github.com/matzehuels/orthoroute/pkg/scene"
)

const (
	defaultTimeout  = 60 * time.Second
	defaultAttempts = 3
	defaultDelay    = time.Second
)

// Client is an HTTP client for the orthoroute API.
type Client struct {
	http     *http.Client
	baseURL  string
	headers  map[string]string
	attempts int
	delay    time.Duration
}

// New creates a client for the API at baseURL. Headers are sent with every
// request; pass nil if none are needed.
func New(baseURL string, headers map[string]string) *Client {
	return &Client{
		http:     &http.Client{Timeout: defaultTimeout},
		baseURL:  strings.TrimRight(baseURL, "/"),
		headers:  headers,
		attempts: defaultAttempts,
		delay:    defaultDelay,
	}
}

type routeRequest struct {
	Scene   *scene.Scene     `json:"scene"`
	Options pipeline.Options `json:"options"`
}

type routeResponse struct {
	Layout *scene.Layout `json:"layout"`
	Cached bool          `json:"cached"`
}

type errorResponse struct {
	Code      apperrors.Code `json:"code"`
	Message   string         `json:"message"`
	RequestID string         `json:"request_id"`
}

// Route routes s on the server and returns the stored layout. The bool
// reports whether the server answered from its cache.
func (c *Client) Route(ctx context.Context, s *scene.Scene, opts pipeline.Options) (*scene.Layout, bool, error) {
	var out routeResponse
	body := routeRequest{Scene: s, Options: opts}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/route", body, &out); err != nil {
		return nil, false, err
	}
	if out.Layout == nil {
		return nil, false, apperrors.New(apperrors.ErrCodeInternal, "server returned no layout")
	}
	return out.Layout, out.Cached, nil
}

// Render routes s on the server and returns the drawing in format together
// with the ID of the stored layout.
func (c *Client) Render(ctx context.Context, s *scene.Scene, opts pipeline.Options, format string) ([]byte, string, error) {
	data, hdr, err := c.do(ctx, http.MethodPost, "/v1/render/"+url.PathEscape(format), routeRequest{Scene: s, Options: opts})
	if err != nil {
		return nil, "", err
	}
	return data, hdr.Get("X-Layout-ID"), nil
}

// Layout fetches a stored layout.
func (c *Client) Layout(ctx context.Context, id string) (*scene.Layout, error) {
	data, _, err := c.do(ctx, http.MethodGet, "/v1/layouts/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	return scene.UnmarshalLayout(data)
}

// RenderLayout draws a stored layout in format.
func (c *Client) RenderLayout(ctx context.Context, id, format string, opts pipeline.Options) ([]byte, error) {
	q := url.Values{}
	if opts.Stroke > 0 {
		q.Set("stroke", fmt.Sprint(opts.Stroke))
	}
	if opts.Padding > 0 {
		q.Set("padding", fmt.Sprint(opts.Padding))
	}
	if opts.ShowChannels {
		q.Set("channels", "true")
	}
	if opts.Refresh {
		q.Set("refresh", "true")
	}
	path := "/v1/layouts/" + url.PathEscape(id) + "/" + url.PathEscape(format)
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	data, _, err := c.do(ctx, http.MethodGet, path, nil)
	return data, err
}

// Health returns the server's build information.
func (c *Client) Health(ctx context.Context) (buildinfo.Info, error) {
	var out struct {
		Status string         `json:"status"`
		Build  buildinfo.Info `json:"build"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/healthz", nil, &out)
	return out.Build, err
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, v any) error {
	data, _, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "decode %s response", path)
	}
	return nil
}

// do sends one request with retries and returns the body of a 200 reply.
func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, http.Header, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "encode request")
		}
	}

	var (
		data []byte
		hdr  http.Header
	)
	err := cache.Retry(ctx, c.attempts, c.delay, func() error {
		var err error
		data, hdr, err = c.send(ctx, method, path, payload)
		return err
	})
	return data, hdr, err
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte) ([]byte, http.Header, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "build request")
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		return nil, nil, cache.Retryable(apperrors.Wrap(apperrors.ErrCodeInternal, err, "%s %s", method, path))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, cache.Retryable(apperrors.Wrap(apperrors.ErrCodeInternal, err, "read %s response", path))
	}
	if resp.StatusCode == http.StatusOK {
		return data, resp.Header, nil
	}
	return nil, nil, statusError(resp.StatusCode, data)
}

// statusError turns an error reply into a coded error. 5xx replies are
// retryable.
func statusError(status int, data []byte) error {
	var e errorResponse
	if json.Unmarshal(data, &e) != nil || e.Code == "" {
		e.Code = apperrors.ErrCodeInternal
		e.Message = fmt.Sprintf("unexpected status %d", status)
	}
	err := apperrors.New(e.Code, "%s", e.Message)
	if status >= 500 {
		return cache.Retryable(err)
	}
	return err
}
