// Package search defines the canonical result shape shared by every web
// search adapter, the Provider contract they implement, and the helpers
// adapters use to normalize requests, results and failures.
package search

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/hyperifyio/websearch/internal/debug"
)

// UntitledTitle is used when a backend returns a hit without a title.
const UntitledTitle = "Untitled"

// ErrEmptyQuery is returned before any network call when a query has no
// search terms (and no identifier list where the adapter accepts one).
var ErrEmptyQuery = errors.New("search query is required")

// SafeSearch is the content filter level.
type SafeSearch string

const (
	SafeOff      SafeSearch = "off"
	SafeModerate SafeSearch = "moderate"
	SafeStrict   SafeSearch = "strict"
)

// ParseSafeSearch maps a user supplied level onto SafeSearch. Unknown or
// empty values return "".
func ParseSafeSearch(s string) SafeSearch {
	switch SafeSearch(strings.ToLower(strings.TrimSpace(s))) {
	case SafeOff:
		return SafeOff
	case SafeModerate:
		return SafeModerate
	case SafeStrict:
		return SafeStrict
	}
	return ""
}

// Query is the provider-independent description of one search.
type Query struct {
	Text string
	// IDList substitutes for Text on adapters implementing IDListSearcher.
	IDList []string

	// Page is 1-based. Start, when positive, is an explicit result offset
	// and wins over Page.
	Page  int
	Start int

	Language   string
	Region     string
	SafeSearch SafeSearch
	MaxResults int
	// Timeout bounds each HTTP call an adapter makes. Zero leaves it to the
	// caller's context.
	Timeout time.Duration

	// Extra carries adapter-specific fields, e.g. "search_depth" for Tavily.
	Extra map[string]any

	Debug debug.Options
}

// HasText reports whether the query has non-blank search terms.
func (q Query) HasText() bool { return strings.TrimSpace(q.Text) != "" }

// Terms returns the trimmed query text.
func (q Query) Terms() string { return strings.TrimSpace(q.Text) }

// Offset returns the zero-based result offset for page-sized pagination:
// (Page-1)*pageSize, or zero when Page <= 1.
func (q Query) Offset(pageSize int) int {
	if q.Start > 0 {
		return q.Start
	}
	if q.Page <= 1 || pageSize <= 0 {
		return 0
	}
	return (q.Page - 1) * pageSize
}

// ExtraString returns Extra[key] when it is a non-empty string.
func (q Query) ExtraString(key string) string {
	s, _ := q.Extra[key].(string)
	return strings.TrimSpace(s)
}

// ExtraStrings returns Extra[key] as a string slice, accepting both
// []string and decoded JSON arrays.
func (q Query) ExtraStrings(key string) []string {
	switch v := q.Extra[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, x := range v {
			if s, ok := x.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	}
	return nil
}

// Result is the canonical record every adapter produces.
type Result struct {
	URL           string `json:"url"`
	Title         string `json:"title"`
	Snippet       string `json:"snippet,omitempty"`
	Content       string `json:"content,omitempty"`
	Domain        string `json:"domain,omitempty"`
	PublishedDate string `json:"publishedDate,omitempty"`
	Provider      string `json:"provider"`
	Raw           any    `json:"raw,omitempty"`
}

// NewResult builds a Result with the invariants applied: trimmed URL,
// placeholder title, best-effort domain and the provider name.
func NewResult(provider, rawURL, title string, raw any) Result {
	u := strings.TrimSpace(rawURL)
	t := strings.TrimSpace(title)
	if t == "" {
		t = UntitledTitle
	}
	return Result{
		URL:      u,
		Title:    t,
		Domain:   Domain(u),
		Provider: provider,
		Raw:      raw,
	}
}

// Domain returns the host name of rawURL, or "" when it does not parse to
// an absolute URL.
func Domain(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// Provider is a configured search backend.
type Provider interface {
	Name() string
	Search(ctx context.Context, q Query) ([]Result, error)
}

// DisplayNamer is implemented by providers with a human-readable name for
// error messages, such as "DuckDuckGo" for "duckduckgo".
type DisplayNamer interface {
	DisplayName() string
}

// DisplayName returns p's display name, falling back to Name.
func DisplayName(p Provider) string {
	if d, ok := p.(DisplayNamer); ok {
		if s := d.DisplayName(); s != "" {
			return s
		}
	}
	return p.Name()
}

// IDListSearcher is implemented by providers that accept Query.IDList in
// place of query text.
type IDListSearcher interface {
	SupportsIDList() bool
}

// SupportsIDList reports whether p accepts identifier lists.
func SupportsIDList(p Provider) bool {
	s, ok := p.(IDListSearcher)
	return ok && s.SupportsIDList()
}

// Clamp bounds n into [lo, hi], returning def when n is not positive.
func Clamp(n, lo, hi, def int) int {
	if n <= 0 {
		n = def
	}
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
