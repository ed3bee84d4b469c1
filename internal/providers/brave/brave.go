// Package brave adapts the Brave Search web API.
package brave

import (
	"context"
	"net/http"
	"strings"

	"github.com/hyperifyio/websearch/internal/search"
	"github.com/hyperifyio/websearch/internal/transport"
)

const (
	Name           = "brave"
	display        = "Brave"
	defaultBaseURL = "https://api.search.brave.com/res/v1/web/search"
	defaultCount   = 10
	maxCount       = 20
	maxPageOffset  = 9
)

// Config configures the Brave adapter.
type Config struct {
	APIKey string `json:"apiKey"`
	// Freshness filters by discovery time: pd, pw, pm, py or a date range.
	Freshness string `json:"freshness,omitempty"`
	BaseURL   string `json:"baseUrl,omitempty"`

	HTTPClient *http.Client `json:"-"`
}

// Provider queries Brave.
type Provider struct {
	cfg      Config
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
	if err := search.MissingConfig(Name, "apiKey", cfg.APIKey); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Provider{
		cfg:    cfg,
		client: transport.NewClient(cfg.HTTPClient),
		classify: search.Classifier{Name: Name, Display: display, Hints: []search.Hint{
			{Contains: "SUBSCRIPTION_TOKEN_INVALID", Text: "The Brave subscription token is invalid"},
			{Contains: "RATE_LIMITED", Text: "Brave plan rate limit reached"},
			{Status: http.StatusUnprocessableEntity, Text: "Brave rejected a request parameter"},
		}},
	}, nil
}

func (p *Provider) Name() string { return Name }

func (p *Provider) DisplayName() string { return display }

// Search runs one web search.
func (p *Provider) Search(ctx context.Context, q search.Query) ([]search.Result, error) {
	if !q.HasText() {
		return nil, p.classify.Wrap(search.ErrEmptyQuery)
	}
	count := search.Clamp(q.MaxResults, 1, maxCount, defaultCount)
	params := map[string]any{
		"q":     q.Terms(),
		"count": count,
	}
	if off := q.Offset(count); off > 0 {
		params["offset"] = min(off/count, maxPageOffset)
	}
	if l := search.LanguageCode(q.Language); l != "" {
		params["search_lang"] = l
	}
	if r := search.RegionCode(q.Region, q.Language); r != "" {
		params["country"] = r
	}
	if q.SafeSearch != "" {
		params["safesearch"] = string(q.SafeSearch)
	}
	freshness := p.cfg.Freshness
	if f := q.ExtraString("freshness"); f != "" {
		freshness = f
	}
	if freshness != "" {
		params["freshness"] = freshness
	}

	u, err := transport.BuildURL(p.cfg.BaseURL, params)
	if err != nil {
		return nil, p.classify.Wrap(err)
	}
	resp, err := p.client.Do(ctx, u, transport.Options{
		Headers: map[string]string{"X-Subscription-Token": p.cfg.APIKey},
		Timeout: q.Timeout,
		Debug:   q.Debug,
	})
	if err != nil {
		return nil, p.classify.Wrap(err)
	}
	var body response
	if err := resp.JSON(&body); err != nil {
		return nil, p.classify.Wrap(err)
	}
	return mapResults(body), nil
}

type webResult struct {
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	Description   string   `json:"description"`
	Age           string   `json:"age"`
	PageAge       string   `json:"page_age"`
	ExtraSnippets []string `json:"extra_snippets"`
}

type response struct {
	Web *struct {
		Results []webResult `json:"results"`
	} `json:"web"`
}

func mapResults(body response) []search.Result {
	if body.Web == nil {
		return []search.Result{}
	}
	out := make([]search.Result, 0, len(body.Web.Results))
	for _, r := range body.Web.Results {
		if strings.TrimSpace(r.URL) == "" {
			continue
		}
		res := search.NewResult(Name, r.URL, search.StripHTML(r.Title), r)
		res.Snippet = search.StripHTML(r.Description)
		if len(r.ExtraSnippets) > 0 {
			parts := make([]string, 0, len(r.ExtraSnippets))
			for _, s := range r.ExtraSnippets {
				parts = append(parts, search.StripHTML(s))
			}
			res.Content = strings.Join(parts, "\n")
		}
		res.PublishedDate = r.PageAge
		if res.PublishedDate == "" {
			res.PublishedDate = r.Age
		}
		out = append(out, res)
	}
	return out
}
