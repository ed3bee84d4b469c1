// Package transport issues the HTTP calls made by the search adapters. It
// owns timeout handling, query-string construction, JSON bodies and the
// uniform HTTPError shape; it never retries.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hyperifyio/websearch/internal/debug"
)

// maxBodyBytes caps how much of a response body is read into memory.
const maxBodyBytes = 16 << 20

// DefaultUserAgent identifies this library to search backends.
const DefaultUserAgent = "websearch/1.0 (+https://github.com/hyperifyio/websearch)"

// Client wraps http.Client with per-request timeouts and uniform errors.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// RedirectMaxHops caps redirect following. Zero means the default (5).
	RedirectMaxHops int
}

// NewClient returns a Client using hc (http.DefaultClient when nil) and the
// default User-Agent.
func NewClient(hc *http.Client) *Client {
	return &Client{HTTPClient: hc, UserAgent: DefaultUserAgent}
}

// Options describes one request.
type Options struct {
	// Method defaults to GET.
	Method  string
	Headers map[string]string
	// Body is sent as-is for []byte, string and io.Reader, form-encoded for
	// url.Values and JSON-encoded otherwise. GET and HEAD never send a body.
	Body any
	// Timeout aborts the request when exceeded. Zero means no extra bound.
	Timeout time.Duration
	Debug   debug.Options
}

// Default is used by Request and by adapters without a custom client.
var Default = &Client{}

// Request issues a request with the Default client.
func Request(ctx context.Context, rawURL string, opts Options) (*Response, error) {
	return Default.Do(ctx, rawURL, opts)
}

// httpClient returns a copy of the configured client carrying the redirect
// policy, so the caller's client is never mutated.
func (c *Client) httpClient() *http.Client {
	var base http.Client
	if c != nil && c.HTTPClient != nil {
		base = *c.HTTPClient
	}
	base.CheckRedirect = c.checkRedirect()
	return &base
}

func (c *Client) checkRedirect() func(req *http.Request, via []*http.Request) error {
	hops := 5
	if c != nil && c.RedirectMaxHops > 0 {
		hops = c.RedirectMaxHops
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= hops {
			return errors.New("too many redirects")
		}
		if req.URL == nil || !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

// Do sends the request and returns the fully read response. Non-2xx statuses
// yield *HTTPError, an exceeded Timeout yields *TimeoutError, and any other
// transport failure is returned unchanged.
func (c *Client) Do(ctx context.Context, rawURL string, opts Options) (*Response, error) {
	method := strings.ToUpper(strings.TrimSpace(opts.Method))
	if method == "" {
		method = http.MethodGet
	}

	headers := http.Header{}
	headers.Set("Accept", "application/json")
	if c != nil && c.UserAgent != "" {
		headers.Set("User-Agent", c.UserAgent)
	}
	for k, v := range opts.Headers {
		headers.Set(k, v)
	}

	var body io.Reader
	if opts.Body != nil && method != http.MethodGet && method != http.MethodHead {
		r, contentType, err := encodeBody(opts.Body)
		if err != nil {
			return nil, err
		}
		body = r
		if contentType != "" && headers.Get("Content-Type") == "" {
			headers.Set("Content-Type", contentType)
		}
	}

	reqCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header = headers

	opts.Debug.LogRequest(method+" "+redactURL(rawURL), map[string]any{
		"headers": redactHeaders(headers),
		"body":    loggableBody(opts.Body, method),
	})

	start := time.Now()
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, c.wrapTransportErr(ctx, reqCtx, rawURL, opts.Timeout, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, c.wrapTransportErr(ctx, reqCtx, rawURL, opts.Timeout, err)
	}

	out := &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		body:       b,
	}
	if opts.Debug.Enabled && opts.Debug.LogResponses {
		opts.Debug.LogResponse(fmt.Sprintf("%d %s", resp.StatusCode, redactURL(rawURL)), map[string]any{
			"elapsed_ms": time.Since(start).Milliseconds(),
			"bytes":      len(b),
			"body":       out.Parsed(),
		})
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return out, newHTTPError(out)
	}
	return out, nil
}

// wrapTransportErr maps a deadline that belongs to this request's own
// timeout onto *TimeoutError. Cancellation coming from the caller's context
// is returned unchanged.
func (c *Client) wrapTransportErr(parent, reqCtx context.Context, rawURL string, timeout time.Duration, err error) error {
	if parent.Err() != nil {
		return err
	}
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{URL: redactURL(rawURL), Timeout: timeout, Err: err}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &TimeoutError{URL: redactURL(rawURL), Timeout: timeout, Err: err}
	}
	return err
}

func encodeBody(v any) (io.Reader, string, error) {
	switch b := v.(type) {
	case []byte:
		return bytes.NewReader(b), "", nil
	case string:
		return strings.NewReader(b), "", nil
	case io.Reader:
		return b, "", nil
	case url.Values:
		return strings.NewReader(b.Encode()), "application/x-www-form-urlencoded", nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", fmt.Errorf("encode request body: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

func loggableBody(v any, method string) any {
	if v == nil || method == http.MethodGet || method == http.MethodHead {
		return nil
	}
	switch b := v.(type) {
	case []byte:
		return string(b)
	case io.Reader:
		return "<stream>"
	default:
		return b
	}
}

var secretParams = []string{"key", "api_key", "apikey", "token", "access_token"}

func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	changed := false
	for _, p := range secretParams {
		if q.Has(p) {
			q.Set(p, "***")
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func redactHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		lk := strings.ToLower(k)
		if strings.Contains(lk, "key") || strings.Contains(lk, "token") || lk == "authorization" {
			out[k] = "***"
			continue
		}
		out[k] = h.Get(k)
	}
	return out
}
