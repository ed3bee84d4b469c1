// Package google adapts the Google Programmable Search (Custom Search JSON) API.
package google

import (
	"context"
	"net/http"
	"strings"

	"github.com/hyperifyio/websearch/internal/search"
	"github.com/hyperifyio/websearch/internal/transport"
)

const (
	Name           = "google"
	display        = "Google"
	defaultBaseURL = "https://www.googleapis.com/customsearch/v1"
	maxNum         = 10
	// The API refuses start+num beyond 100.
	maxStart = 91
)

// Config configures the Google adapter.
type Config struct {
	APIKey         string `json:"apiKey"`
	SearchEngineID string `json:"searchEngineId"`
	// SiteSearch restricts results to one site.
	SiteSearch string `json:"siteSearch,omitempty"`
	// DateRestrict limits by age, e.g. "d7" or "m1".
	DateRestrict string `json:"dateRestrict,omitempty"`
	BaseURL      string `json:"baseUrl,omitempty"`

	HTTPClient *http.Client `json:"-"`
}

// Provider queries Google Custom Search.
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
	if err := search.MissingConfig(Name, "searchEngineId", cfg.SearchEngineID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Provider{
		cfg:    cfg,
		client: transport.NewClient(cfg.HTTPClient),
		classify: search.Classifier{Name: Name, Display: display, Hints: []search.Hint{
			{Contains: "API key not valid", Text: "The Google API key is invalid"},
			{Contains: "keyInvalid", Text: "The Google API key is invalid"},
			{Contains: "dailyLimitExceeded", Text: "Google Custom Search daily quota exhausted"},
			{Contains: "Quota exceeded", Text: "Google Custom Search daily quota exhausted"},
			{Contains: "rateLimitExceeded", Text: "Google Custom Search rate limit reached"},
			{Contains: "has not been used in project", Text: "Enable the Custom Search API for this Google Cloud project"},
			{Contains: "accessNotConfigured", Text: "Enable the Custom Search API for this Google Cloud project"},
			{Status: http.StatusBadRequest, Contains: "Invalid Value", Text: "Check searchEngineId (cx) and query parameters"},
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
	num := search.Clamp(q.MaxResults, 1, maxNum, maxNum)
	params := map[string]any{
		"key": p.cfg.APIKey,
		"cx":  p.cfg.SearchEngineID,
		"q":   q.Terms(),
		"num": num,
	}
	// start is 1-based.
	if off := q.Offset(num); off > 0 {
		params["start"] = min(off+1, maxStart)
	}
	if l := search.LanguageCode(q.Language); l != "" {
		params["hl"] = l
	}
	if r := search.RegionCode(q.Region, q.Language); r != "" {
		params["gl"] = strings.ToLower(r)
	}
	switch q.SafeSearch {
	case search.SafeOff:
		params["safe"] = "off"
	case search.SafeModerate, search.SafeStrict:
		params["safe"] = "active"
	}
	if p.cfg.SiteSearch != "" {
		params["siteSearch"] = p.cfg.SiteSearch
	}
	dateRestrict := p.cfg.DateRestrict
	if d := q.ExtraString("dateRestrict"); d != "" {
		dateRestrict = d
	}
	if dateRestrict != "" {
		params["dateRestrict"] = dateRestrict
	}

	u, err := transport.BuildURL(p.cfg.BaseURL, params)
	if err != nil {
		return nil, p.classify.Wrap(err)
	}
	resp, err := p.client.Do(ctx, u, transport.Options{Timeout: q.Timeout, Debug: q.Debug})
	if err != nil {
		return nil, p.classify.Wrap(err)
	}
	var body response
	if err := resp.JSON(&body); err != nil {
		return nil, p.classify.Wrap(err)
	}
	return mapResults(body), nil
}

type item struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Snippet     string `json:"snippet"`
	DisplayLink string `json:"displayLink"`
	Pagemap     struct {
		Metatags []map[string]any `json:"metatags"`
	} `json:"pagemap"`
}

type response struct {
	Items []item `json:"items"`
}

var dateKeys = []string{"article:published_time", "og:article:published_time", "datepublished", "date", "pubdate"}

func mapResults(body response) []search.Result {
	out := make([]search.Result, 0, len(body.Items))
	for _, it := range body.Items {
		if strings.TrimSpace(it.Link) == "" {
			continue
		}
		res := search.NewResult(Name, it.Link, it.Title, it)
		res.Snippet = search.CollapseSpace(it.Snippet)
		res.PublishedDate = publishedDate(it)
		out = append(out, res)
	}
	return out
}

func publishedDate(it item) string {
	for _, tags := range it.Pagemap.Metatags {
		for _, k := range dateKeys {
			if s, ok := tags[k].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}
