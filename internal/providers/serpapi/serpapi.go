// Package serpapi adapts SerpApi, a hosted scraper for Google and other
// engines' result pages.
package serpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/hyperifyio/websearch/internal/search"
	"github.com/hyperifyio/websearch/internal/transport"
)

const (
	Name           = "serpapi"
	display        = "SerpApi"
	defaultBaseURL = "https://serpapi.com/search.json"
	defaultEngine  = "google"
	defaultNum     = 10
	maxNum         = 100
)

// emptyMarkers are SerpApi "errors" that really mean zero hits.
var emptyMarkers = []string{
	"hasn't returned any results",
	"no results found",
}

// Config configures the SerpApi adapter.
type Config struct {
	APIKey string `json:"apiKey"`
	// Engine selects the upstream engine; defaults to google.
	Engine       string `json:"engine,omitempty"`
	Location     string `json:"location,omitempty"`
	GoogleDomain string `json:"googleDomain,omitempty"`
	BaseURL      string `json:"baseUrl,omitempty"`

	HTTPClient *http.Client `json:"-"`
}

// Provider queries SerpApi.
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
	if strings.TrimSpace(cfg.Engine) == "" {
		cfg.Engine = defaultEngine
	}
	return &Provider{
		cfg:    cfg,
		client: transport.NewClient(cfg.HTTPClient),
		classify: search.Classifier{Name: Name, Display: display, Hints: []search.Hint{
			{Contains: "Invalid API key", Text: "The SerpApi key is invalid"},
			{Contains: "run out of searches", Text: "SerpApi plan searches exhausted"},
			{Contains: "Unsupported", Text: "SerpApi rejected a parameter for this engine"},
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
	num := search.Clamp(q.MaxResults, 1, maxNum, defaultNum)
	params := map[string]any{
		"engine":  p.cfg.Engine,
		"q":       q.Terms(),
		"api_key": p.cfg.APIKey,
		"num":     num,
	}
	if off := q.Offset(num); off > 0 {
		params["start"] = off
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
	if p.cfg.Location != "" {
		params["location"] = p.cfg.Location
	}
	if p.cfg.GoogleDomain != "" {
		params["google_domain"] = p.cfg.GoogleDomain
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
	if msg := strings.TrimSpace(body.Error); msg != "" && len(body.OrganicResults) == 0 {
		if isEmptyMarker(msg) {
			return []search.Result{}, nil
		}
		return nil, p.classify.Wrap(errors.New(msg))
	}
	return mapResults(body), nil
}

func isEmptyMarker(msg string) bool {
	lower := strings.ToLower(msg)
	for _, m := range emptyMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

type organic struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Date     string `json:"date"`
	Source   string `json:"source"`
}

type response struct {
	Error          string    `json:"error"`
	OrganicResults []organic `json:"organic_results"`
}

func mapResults(body response) []search.Result {
	out := make([]search.Result, 0, len(body.OrganicResults))
	for _, o := range body.OrganicResults {
		if strings.TrimSpace(o.Link) == "" {
			continue
		}
		res := search.NewResult(Name, o.Link, o.Title, o)
		res.Snippet = search.CollapseSpace(o.Snippet)
		res.PublishedDate = o.Date
		out = append(out, res)
	}
	return out
}
