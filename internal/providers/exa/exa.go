// Package exa adapts the Exa neural search API.
package exa

import (
	"context"
	"net/http"
	"strings"

	"github.com/hyperifyio/websearch/internal/search"
	"github.com/hyperifyio/websearch/internal/transport"
)

const (
	Name           = "exa"
	display        = "Exa"
	defaultBaseURL = "https://api.exa.ai"
	defaultMax     = 10
	maxResults     = 100
	snippetRunes   = 300
)

// Config configures the Exa adapter.
type Config struct {
	APIKey  string `json:"apiKey"`
	BaseURL string `json:"baseUrl,omitempty"`
	// Type is the search mode: "auto" (default), "neural", "keyword" or "fast".
	Type               string   `json:"type,omitempty"`
	Category           string   `json:"category,omitempty"`
	IncludeDomains     []string `json:"includeDomains,omitempty"`
	ExcludeDomains     []string `json:"excludeDomains,omitempty"`
	StartPublishedDate string   `json:"startPublishedDate,omitempty"`
	EndPublishedDate   string   `json:"endPublishedDate,omitempty"`
	// IncludeText asks Exa to return page text, mapped onto Result.Content.
	IncludeText bool `json:"includeText,omitempty"`

	HTTPClient *http.Client `json:"-"`
}

// Provider queries Exa.
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
	if cfg.Type == "" {
		cfg.Type = "auto"
	}
	return &Provider{
		cfg:    cfg,
		client: transport.NewClient(cfg.HTTPClient),
		classify: search.Classifier{Name: Name, Display: display, Hints: []search.Hint{
			{Status: http.StatusUnauthorized, Text: "Invalid Exa API key"},
			{Status: http.StatusPaymentRequired, Text: "Exa account is out of credits"},
			{Contains: "credits", Text: "Exa account is out of credits"},
		}},
	}, nil
}

func (p *Provider) Name() string { return Name }

func (p *Provider) DisplayName() string { return display }

type contents struct {
	Text       any  `json:"text,omitempty"`
	Highlights bool `json:"highlights,omitempty"`
}

type request struct {
	Query              string    `json:"query"`
	Type               string    `json:"type,omitempty"`
	Category           string    `json:"category,omitempty"`
	NumResults         int       `json:"numResults"`
	IncludeDomains     []string  `json:"includeDomains,omitempty"`
	ExcludeDomains     []string  `json:"excludeDomains,omitempty"`
	StartPublishedDate string    `json:"startPublishedDate,omitempty"`
	EndPublishedDate   string    `json:"endPublishedDate,omitempty"`
	UserLocation       string    `json:"userLocation,omitempty"`
	Contents           *contents `json:"contents,omitempty"`
}

type hit struct {
	ID            string   `json:"id"`
	URL           string   `json:"url"`
	Title         string   `json:"title"`
	PublishedDate string   `json:"publishedDate"`
	Author        string   `json:"author"`
	Score         float64  `json:"score"`
	Text          string   `json:"text"`
	Summary       string   `json:"summary"`
	Highlights    []string `json:"highlights"`
}

type response struct {
	RequestID string `json:"requestId"`
	Results   []hit  `json:"results"`
}

// Search runs one query.
func (p *Provider) Search(ctx context.Context, q search.Query) ([]search.Result, error) {
	if !q.HasText() {
		return nil, p.classify.Wrap(search.ErrEmptyQuery)
	}
	req := request{
		Query:              q.Terms(),
		Type:               p.cfg.Type,
		Category:           p.cfg.Category,
		NumResults:         search.Clamp(q.MaxResults, 1, maxResults, defaultMax),
		IncludeDomains:     p.cfg.IncludeDomains,
		ExcludeDomains:     p.cfg.ExcludeDomains,
		StartPublishedDate: p.cfg.StartPublishedDate,
		EndPublishedDate:   p.cfg.EndPublishedDate,
		UserLocation:       search.RegionCode(q.Region, q.Language),
	}
	if v := q.ExtraString("category"); v != "" {
		req.Category = v
	}
	if v := q.ExtraStrings("includeDomains"); len(v) > 0 {
		req.IncludeDomains = v
	}
	if v := q.ExtraStrings("excludeDomains"); len(v) > 0 {
		req.ExcludeDomains = v
	}
	if v := q.ExtraString("startPublishedDate"); v != "" {
		req.StartPublishedDate = v
	}
	if v := q.ExtraString("endPublishedDate"); v != "" {
		req.EndPublishedDate = v
	}
	if p.cfg.IncludeText {
		req.Contents = &contents{Text: true, Highlights: true}
	}

	resp, err := p.client.Do(ctx, strings.TrimRight(p.cfg.BaseURL, "/")+"/search", transport.Options{
		Method:  http.MethodPost,
		Headers: map[string]string{"x-api-key": p.cfg.APIKey},
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
		res.Snippet = snippet(h)
		res.Content = strings.TrimSpace(h.Text)
		res.PublishedDate = h.PublishedDate
		out = append(out, res)
	}
	return out, nil
}

// snippet prefers Exa's highlights, then its summary, then the head of the
// page text.
func snippet(h hit) string {
	for _, s := range h.Highlights {
		if s = search.CollapseSpace(s); s != "" {
			return s
		}
	}
	if s := search.CollapseSpace(h.Summary); s != "" {
		return s
	}
	return search.Truncate(search.CollapseSpace(h.Text), snippetRunes)
}
