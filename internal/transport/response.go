package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Response holds a fully read HTTP response. The body is decoded lazily, at
// most once.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header

	body   []byte
	once   sync.Once
	parsed any
}

// Bytes returns the raw body.
func (r *Response) Bytes() []byte { return r.body }

// Text returns the raw body as a string.
func (r *Response) Text() string { return string(r.body) }

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	if len(bytes.TrimSpace(r.body)) == 0 {
		return fmt.Errorf("decode response: empty body")
	}
	if err := json.Unmarshal(r.body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Parsed returns the decoded JSON value when the body looks like JSON and
// the text otherwise.
func (r *Response) Parsed() any {
	r.once.Do(func() {
		r.parsed = r.Text()
		if !r.looksJSON() {
			return
		}
		var v any
		if err := json.Unmarshal(r.body, &v); err == nil {
			r.parsed = v
		}
	})
	return r.parsed
}

func (r *Response) looksJSON() bool {
	if r.Header != nil {
		if ct := r.Header.Get("Content-Type"); ct != "" {
			if mt, _, err := mime.ParseMediaType(ct); err == nil && (mt == "application/json" || strings.HasSuffix(mt, "+json")) {
				return true
			}
		}
	}
	trimmed := bytes.TrimSpace(r.body)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

// HTTPError reports a non-2xx response.
type HTTPError struct {
	StatusCode int
	Status     string
	// Message is the best human-readable text extracted from the body.
	Message string
	// Body is the decoded JSON body, or the text when it was not JSON.
	Body any
}

func (e *HTTPError) Error() string {
	status := strings.TrimSpace(strings.TrimPrefix(e.Status, fmt.Sprintf("%d", e.StatusCode)))
	if status == "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, status, e.Message)
}

func newHTTPError(r *Response) *HTTPError {
	parsed := r.Parsed()
	return &HTTPError{
		StatusCode: r.StatusCode,
		Status:     r.Status,
		Message:    ExtractMessage(parsed, r.Status),
		Body:       parsed,
	}
}

// ExtractMessage picks a human-readable message from an error body. It
// checks error.message, error.errors[0].message or reason, message, error,
// description, then the raw text, then the JSON encoding of the body.
func ExtractMessage(body any, fallback string) string {
	switch v := body.(type) {
	case nil:
		return fallback
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
		return fallback
	case map[string]any:
		if m := fromMap(v); m != "" {
			return m
		}
	}
	if b, err := json.Marshal(body); err == nil && len(b) > 0 && string(b) != "null" {
		return string(b)
	}
	return fallback
}

func fromMap(m map[string]any) string {
	if nested, ok := m["error"].(map[string]any); ok {
		if s := str(nested["message"]); s != "" {
			return s
		}
		if errs, ok := nested["errors"].([]any); ok && len(errs) > 0 {
			if first, ok := errs[0].(map[string]any); ok {
				if s := str(first["message"]); s != "" {
					return s
				}
				if s := str(first["reason"]); s != "" {
					return s
				}
			}
		}
	}
	for _, k := range []string{"message", "error", "description"} {
		if s := str(m[k]); s != "" {
			return s
		}
	}
	return ""
}

func str(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// TimeoutError reports a request aborted because it exceeded its timeout.
type TimeoutError struct {
	URL     string
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("request timed out after %s: %s", e.Timeout, e.URL)
	}
	return fmt.Sprintf("request timed out: %s", e.URL)
}

func (e *TimeoutError) Unwrap() error { return e.Err }
