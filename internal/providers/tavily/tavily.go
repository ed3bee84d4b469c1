// Package tavily adapts the Tavily search API.
package tavily

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/hyperifyio/websearch/internal/search"
	"github.com/hyperifyio/websearch/internal/transport"
)

const (
	Name           = "tavily"
	display        = "Tavily"
	defaultBaseURL = "https://api.tavily.com"
	defaultMax     = 10
	maxResults     = 20
)

// Config configures the Tavily adapter.
type Config struct {
	APIKey  string `json:"apiKey"`
	BaseURL string `json:"baseUrl,omitempty"`
	// SearchDepth is "basic" (default) or "advanced".
	SearchDepth string `json:"searchDepth,omitempty"`
	// Topic is "general" (default), "news" or "finance".
	Topic             string   `json:"topic,omitempty"`
	IncludeDomains    []string `json:"includeDomains,omitempty"`
	ExcludeDomains    []string `json:"excludeDomains,omitempty"`
	TimeRange         string   `json:"timeRange,omitempty"`
	Days              int      `json:"days,omitempty"`
	IncludeAnswer     bool     `json:"includeAnswer,omitempty"`
	IncludeRawContent bool     `json:"includeRawContent,omitempty"`

	HTTPClient *http.Client `json:"-"`
}

// Provider queries Tavily.
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
	switch cfg.SearchDepth {
	case "", "basic", "advanced":
	default:
		return nil, &search.ConfigError{Provider: Name, Field: "searchDepth", Reason: fmt.Sprintf("must be basic or advanced, got %q", cfg.SearchDepth)}
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Provider{
		cfg:    cfg,
		client: transport.NewClient(cfg.HTTPClient),
		classify: search.Classifier{Name: Name, Display: display, Hints: []search.Hint{
			{Status: http.StatusUnauthorized, Text: "Invalid Tavily API key"},
			{Status: 432, Text: "Tavily plan usage limit exceeded"},
			{Status: 433, Text: "Tavily pay-as-you-go limit exceeded"},
			{Contains: "usage limit", Text: "Tavily plan usage limit exceeded"},
		}},
	}, nil
}

func (p *Provider) Name() string { return Name }

func (p *Provider) DisplayName() string { return display }

type request struct {
	Query             string   `json:"query"`
	SearchDepth       string   `json:"search_depth,omitempty"`
	Topic             string   `json:"topic,omitempty"`
	MaxResults        int      `json:"max_results"`
	IncludeDomains    []string `json:"include_domains,omitempty"`
	ExcludeDomains    []string `json:"exclude_domains,omitempty"`
	TimeRange         string   `json:"time_range,omitempty"`
	Days              int      `json:"days,omitempty"`
	Country           string   `json:"country,omitempty"`
	IncludeAnswer     bool     `json:"include_answer,omitempty"`
	IncludeRawContent bool     `json:"include_raw_content,omitempty"`
}

type hit struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	RawContent    string  `json:"raw_content"`
	Score         float64 `json:"score"`
	PublishedDate string  `json:"published_date"`
}

type response struct {
	Query   string `json:"query"`
	Answer  string `json:"answer"`
	Results []hit  `json:"results"`
}

// Search runs one query. Query.Extra keys search_depth, topic, time_range,
// include_domains and exclude_domains override the configured defaults.
func (p *Provider) Search(ctx context.Context, q search.Query) ([]search.Result, error) {
	if !q.HasText() {
		return nil, p.classify.Wrap(search.ErrEmptyQuery)
	}
	req := request{
		Query:             q.Terms(),
		SearchDepth:       firstNonEmpty(q.ExtraString("search_depth"), p.cfg.SearchDepth),
		Topic:             firstNonEmpty(q.ExtraString("topic"), p.cfg.Topic),
		MaxResults:        search.Clamp(q.MaxResults, 1, maxResults, defaultMax),
		IncludeDomains:    p.cfg.IncludeDomains,
		ExcludeDomains:    p.cfg.ExcludeDomains,
		TimeRange:         firstNonEmpty(q.ExtraString("time_range"), p.cfg.TimeRange),
		Days:              p.cfg.Days,
		IncludeAnswer:     p.cfg.IncludeAnswer,
		IncludeRawContent: p.cfg.IncludeRawContent,
	}
	if v := q.ExtraStrings("include_domains"); len(v) > 0 {
		req.IncludeDomains = v
	}
	if v := q.ExtraStrings("exclude_domains"); len(v) > 0 {
		req.ExcludeDomains = v
	}
	// Tavily only accepts country with the general topic.
	if req.Topic == "" || req.Topic == "general" {
		req.Country = countryName(search.RegionCode(q.Region, q.Language))
	}

	resp, err := p.client.Do(ctx, strings.TrimRight(p.cfg.BaseURL, "/")+"/search", transport.Options{
		Method:  http.MethodPost,
		Headers: map[string]string{"Authorization": "Bearer " + p.cfg.APIKey},
		Body:    req,
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

	out := make([]search.Result, 0, len(body.Results))
	for _, h := range body.Results {
		if strings.TrimSpace(h.URL) == "" {
			continue
		}
		res := search.NewResult(Name, h.URL, h.Title, h)
		res.Snippet = search.CollapseSpace(h.Content)
		res.Content = strings.TrimSpace(h.RawContent)
		res.PublishedDate = h.PublishedDate
		out = append(out, res)
	}
	return out, nil
}

// countryName maps the regions Tavily is most often asked for onto the
// lower-case English names its API expects. Unknown regions are omitted.
func countryName(region string) string {
	switch region {
	case "US":
		return "united states"
	case "GB":
		return "united kingdom"
	case "CA":
		return "canada"
	case "AU":
		return "australia"
	case "DE":
		return "germany"
	case "FR":
		return "france"
	case "ES":
		return "spain"
	case "IT":
		return "italy"
	case "JP":
		return "japan"
	case "IN":
		return "india"
	case "BR":
		return "brazil"
	case "FI":
		return "finland"
	case "SE":
		return "sweden"
	case "NL":
		return "netherlands"
	}
	return ""
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}
