// Package serper adapts the Serper.dev Google search API.
package serper

import (
	"context"
	"net/http"
	"strings"

	"github.com/hyperifyio/websearch/internal/search"
	"github.com/hyperifyio/websearch/internal/transport"
)

const (
	Name           = "serper"
	display        = "Serper"
	defaultBaseURL = "https://google.serper.dev/search"
	defaultNum     = 10
	maxNum         = 100
)

// Config configures the Serper adapter.
type Config struct {
	APIKey string `json:"apiKey"`
	// TimeRange maps to Google's tbs parameter, e.g. "qdr:w".
	TimeRange string `json:"timeRange,omitempty"`
	BaseURL   string `json:"baseUrl,omitempty"`

	HTTPClient *http.Client `json:"-"`
}

// Provider queries Serper.
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
			{Contains: "Not enough credits", Text: "Serper account is out of credits"},
			{Contains: "Unauthorized", Text: "The Serper API key is invalid"},
		}},
	}, nil
}

func (p *Provider) Name() string { return Name }

func (p *Provider) DisplayName() string { return display }

type request struct {
	Q    string `json:"q"`
	Num  int    `json:"num"`
	Page int    `json:"page,omitempty"`
	GL   string `json:"gl,omitempty"`
	HL   string `json:"hl,omitempty"`
	TBS  string `json:"tbs,omitempty"`
}

// Search runs one query.
func (p *Provider) Search(ctx context.Context, q search.Query) ([]search.Result, error) {
	if !q.HasText() {
		return nil, p.classify.Wrap(search.ErrEmptyQuery)
	}
	body := request{
		Q:   q.Terms(),
		Num: search.Clamp(q.MaxResults, 1, maxNum, defaultNum),
		HL:  search.LanguageCode(q.Language),
		TBS: p.cfg.TimeRange,
	}
	if q.Page > 1 {
		body.Page = q.Page
	}
	if r := search.RegionCode(q.Region, q.Language); r != "" {
		body.GL = strings.ToLower(r)
	}
	if tbs := q.ExtraString("tbs"); tbs != "" {
		body.TBS = tbs
	}

	resp, err := p.client.Do(ctx, p.cfg.BaseURL, transport.Options{
		Method:  http.MethodPost,
		Headers: map[string]string{"X-API-KEY": p.cfg.APIKey},
		Body:    body,
		Timeout: q.Timeout,
		Debug:   q.Debug,
	})
	if err != nil {
		return nil, p.classify.Wrap(err)
	}
	var out response
	if err := resp.JSON(&out); err != nil {
		return nil, p.classify.Wrap(err)
	}
	return mapResults(out), nil
}

type organic struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Date     string `json:"date"`
	Position int    `json:"position"`
}

type response struct {
	Organic []organic `json:"organic"`
}

func mapResults(body response) []search.Result {
	out := make([]search.Result, 0, len(body.Organic))
	for _, o := range body.Organic {
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
