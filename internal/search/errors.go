package search

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hyperifyio/websearch/internal/transport"
)

// ConfigError reports a missing or invalid provider setting. It is returned
// by adapter constructors before any network I/O.
type ConfigError struct {
	Provider string
	Field    string
	Reason   string
}

func (e *ConfigError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %s is required", e.Provider, e.Field)
	}
	return fmt.Sprintf("%s: %s %s", e.Provider, e.Field, e.Reason)
}

// MissingConfig returns a ConfigError naming field when value is blank.
func MissingConfig(provider, field, value string) error {
	if strings.TrimSpace(value) != "" {
		return nil
	}
	return &ConfigError{Provider: provider, Field: field}
}

// ProviderError is the failure every adapter reports. Its message always
// begins with "<Display> search failed: ".
type ProviderError struct {
	Provider string
	Display  string
	// StatusCode is the HTTP status when the failure came from a response.
	StatusCode int
	// Hint is advisory text; callers must not match on it.
	Hint string
	Err  error
}

func (e *ProviderError) Error() string {
	msg := "unknown error"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Hint != "" {
		return fmt.Sprintf("%s search failed: %s: %s", e.Display, e.Hint, msg)
	}
	return fmt.Sprintf("%s search failed: %s", e.Display, msg)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Hint maps a substring of a failure message onto advisory text. Status
// limits the hint to one HTTP status; zero matches any failure.
type Hint struct {
	Status   int
	Contains string
	Text     string
}

// Classifier turns raw adapter failures into ProviderErrors.
type Classifier struct {
	Name    string
	Display string
	Hints   []Hint
}

// Wrap classifies err. A nil err stays nil and an existing ProviderError is
// returned unchanged.
func (c Classifier) Wrap(err error) error {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	out := &ProviderError{Provider: c.Name, Display: c.Display, Err: err}

	var he *transport.HTTPError
	if errors.As(err, &he) {
		out.StatusCode = he.StatusCode
		out.Hint = c.statusHint(he.StatusCode, he.Message)
		return out
	}
	var te *transport.TimeoutError
	if errors.As(err, &te) {
		out.Hint = "Request timed out"
		return out
	}
	out.Hint = c.genericHint(err.Error())
	return out
}

// Errorf wraps a formatted error with the adapter's prefix.
func (c Classifier) Errorf(format string, args ...any) error {
	return c.Wrap(fmt.Errorf(format, args...))
}

func (c Classifier) match(status int, msg string) string {
	lower := strings.ToLower(msg)
	for _, h := range c.Hints {
		if h.Status != 0 && h.Status != status {
			continue
		}
		if strings.Contains(lower, strings.ToLower(h.Contains)) {
			return h.Text
		}
	}
	return ""
}

func (c Classifier) statusHint(status int, msg string) string {
	if h := c.match(status, msg); h != "" {
		return h
	}
	switch {
	case status == http.StatusUnauthorized:
		return "Invalid or missing API key"
	case status == http.StatusForbidden:
		return "Access forbidden; the API key may lack permission for this endpoint"
	case status == http.StatusTooManyRequests:
		return "Rate limit exceeded"
	case status == http.StatusBadRequest:
		return "Invalid request parameters"
	case status >= 500:
		return fmt.Sprintf("%s server error", c.Display)
	}
	return ""
}

func (c Classifier) genericHint(msg string) string {
	if h := c.match(0, msg); h != "" {
		return h
	}
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "timeout"), strings.Contains(lower, "timed out"), strings.Contains(lower, "deadline exceeded"):
		return "Request timed out"
	case strings.Contains(lower, "api key"), strings.Contains(lower, "apikey"), strings.Contains(lower, "credential"), strings.Contains(lower, "token"):
		return "Credential problem"
	}
	return ""
}
