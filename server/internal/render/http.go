package render

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/seisplot/seisplot/server/internal/config"
	"github.com/seisplot/seisplot/server/internal/query"
)

const (
	// maxImageBytes caps the size of a rendered image read into memory.
	maxImageBytes = 32 << 20

	// maxMessageBytes caps how much of an error body is surfaced to users.
	maxMessageBytes = 512
)

// HTTPRenderer forwards queries to an external plotting service.
//
// The six query fields are sent as URL parameters on a GET to Endpoint.
// A 200 response body is the image. 404 maps to ErrNoData, 400 and 422 map
// to ErrInvalidQuery, and any other status is returned as a plain error.
type HTTPRenderer struct {
	endpoint *url.URL
	client   *http.Client
}

// NewHTTP builds an HTTPRenderer from the renderer configuration.
// The HTTP client is built once and reused across calls.
func NewHTTP(cfg config.RendererConfig) (*HTTPRenderer, error) {
	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("render: parse endpoint %q: %w", cfg.Endpoint, err)
	}
	return &HTTPRenderer{endpoint: u, client: buildHTTPClient(cfg)}, nil
}

// authRoundTripper injects authentication headers into every outgoing request.
type authRoundTripper struct {
	base http.RoundTripper
	auth config.RendererAuthConfig
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	switch t.auth.Mode {
	case "apikey":
		req = req.Clone(req.Context())
		req.Header.Set(t.auth.EffectiveHeader(), t.auth.Key())
	case "bearer":
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+t.auth.Token())
	}
	return t.base.RoundTrip(req)
}

// buildHTTPClient constructs an http.Client for the renderer's auth and TLS settings.
func buildHTTPClient(cfg config.RendererConfig) *http.Client {
	tlsCfg := &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // user-configured
	}
	return &http.Client{
		Transport: &authRoundTripper{
			base: &http.Transport{TLSClientConfig: tlsCfg},
			auth: cfg.Auth,
		},
		Timeout: cfg.Timeout,
	}
}

// Render requests an image for q. Existing query parameters on the endpoint
// URL are preserved; the six selection fields override them.
func (r *HTTPRenderer) Render(ctx context.Context, q query.PlotQuery) ([]byte, error) {
	u := *r.endpoint
	params := u.Query()
	for k, vs := range q.Values() {
		params[k] = vs
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("render: build request: %w", err)
	}
	req.Header.Set("Accept", ContentType)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("render: http get: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, &Error{Reason: ErrNoData, Message: readMessage(resp.Body)}
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return nil, &Error{Reason: ErrInvalidQuery, Message: readMessage(resp.Body)}
	default:
		return nil, fmt.Errorf("render: unexpected status %d", resp.StatusCode)
	}

	img, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("render: read body: %w", err)
	}
	if len(img) > maxImageBytes {
		return nil, fmt.Errorf("render: image exceeds %d bytes", maxImageBytes)
	}
	if len(img) == 0 {
		return nil, fmt.Errorf("render: empty image")
	}
	return img, nil
}

// readMessage returns the first line of an error body, trimmed and bounded.
func readMessage(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxMessageBytes))
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		b = b[:i]
	}
	return strings.TrimSpace(string(b))
}
