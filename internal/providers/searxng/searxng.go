// Package searxng adapts a SearxNG metasearch instance's JSON endpoint.
package searxng

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/hyperifyio/websearch/internal/search"
	"github.com/hyperifyio/websearch/internal/transport"
)

const (
	Name       = "searxng"
	display    = "SearxNG"
	defaultMax = 10
	maxResults = 100
)

// Config configures the SearxNG adapter.
type Config struct {
	BaseURL string `json:"baseUrl"`
	// APIKey is optional; some hosted instances require one.
	APIKey     string   `json:"apiKey,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Engines    []string `json:"engines,omitempty"`
	// TimeRange is day, month or year.
	TimeRange string `json:"timeRange,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`

	HTTPClient *http.Client `json:"-"`
}

// Provider queries a SearxNG instance.
type Provider struct {
	cfg      Config
	endpoint string
	client   *transport.Client
	classify search.Classifier
}

// Default is the unconfigured placeholder.
var Default = search.NewUnconfigured(Name, display, configure)

func configure(cfg Config) (search.Provider, error) {
	p, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// New validates cfg and returns a ready provider.
func New(cfg Config) (*Provider, error) {
	if err := search.MissingConfig(Name, "baseUrl", cfg.BaseURL); err != nil {
		return nil, err
	}
	u, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil || u.Host == "" {
		return nil, &search.ConfigError{Provider: Name, Field: "baseUrl", Reason: fmt.Sprintf("is not an absolute URL: %q", cfg.BaseURL)}
	}
	// Ensure path
	if !strings.HasSuffix(u.Path, "/search") {
		u.Path = strings.TrimRight(u.Path, "/") + "/search"
	}
	client := transport.NewClient(cfg.HTTPClient)
	if cfg.UserAgent != "" {
		client.UserAgent = cfg.UserAgent
	}
	return &Provider{
		cfg:      cfg,
		endpoint: u.String(),
		client:   client,
		classify: search.Classifier{Name: Name, Display: display, Hints: []search.Hint{
			{Status: http.StatusForbidden, Text: "Enable the json output format (search.formats) on the SearxNG instance"},
			{Contains: "connection refused", Text: "SearxNG instance is not reachable at the configured baseUrl"},
			{Contains: "no such host", Text: "SearxNG instance is not reachable at the configured baseUrl"},
		}},
	}, nil
}

func (p *Provider) Name() string { return Name }

func (p *Provider) DisplayName() string { return display }

// Search runs one query.
func (p *Provider) Search(ctx context.Context, q search.Query) ([]search.Result, error) {
	if !q.HasText() {
		return nil, p.classify.Wrap(search.ErrEmptyQuery)
	}
	limit := search.Clamp(q.MaxResults, 1, maxResults, defaultMax)
	params := map[string]any{
		"q":      q.Terms(),
		"format": "json",
	}
	if q.Page > 1 {
		params["pageno"] = q.Page
	}
	if loc := search.Locale(q.Language, q.Region); loc != "" {
		params["language"] = loc
	} else {
		params["language"] = "auto"
	}
	switch q.SafeSearch {
	case search.SafeOff:
		params["safesearch"] = 0
	case search.SafeModerate:
		params["safesearch"] = 1
	case search.SafeStrict:
		params["safesearch"] = 2
	}
	if len(p.cfg.Categories) > 0 {
		params["categories"] = strings.Join(p.cfg.Categories, ",")
	}
	if len(p.cfg.Engines) > 0 {
		params["engines"] = strings.Join(p.cfg.Engines, ",")
	}
	timeRange := p.cfg.TimeRange
	if tr := q.ExtraString("time_range"); tr != "" {
		timeRange = tr
	}
	if timeRange != "" {
		params["time_range"] = timeRange
	}
	if p.cfg.APIKey != "" {
		params["apikey"] = p.cfg.APIKey
	}

	u, err := transport.BuildURL(p.endpoint, params)
	if err != nil {
		return nil, p.classify.Wrap(err)
	}
	resp, err := p.client.Do(ctx, u, transport.Options{Timeout: q.Timeout, Debug: q.Debug})
	if err != nil {
		return nil, p.classify.Wrap(err)
	}
	var sr searxResponse
	if err := resp.JSON(&sr); err != nil {
		return nil, p.classify.Wrap(err)
	}
	return mapResults(sr, limit), nil
}

type searxResult struct {
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	Content       string   `json:"content"`
	PublishedDate string   `json:"publishedDate"`
	Engine        string   `json:"engine"`
	Engines       []string `json:"engines"`
	Score         float64  `json:"score"`
}

type searxResponse struct {
	Results []searxResult `json:"results"`
}

func mapResults(sr searxResponse, limit int) []search.Result {
	out := make([]search.Result, 0, min(len(sr.Results), limit))
	for _, r := range sr.Results {
		if strings.TrimSpace(r.URL) == "" {
			continue
		}
		res := search.NewResult(Name, r.URL, r.Title, r)
		res.Snippet = search.CollapseSpace(r.Content)
		res.PublishedDate = r.PublishedDate
		out = append(out, res)
		if len(out) >= limit {
			break
		}
	}
	return out
}
