// Package duckduckgo adapts DuckDuckGo's web results endpoint. Each search
// first loads the HTML front page to obtain the per-query vqd token, then
// requests the results script with that token.
package duckduckgo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/hyperifyio/websearch/internal/search"
	"github.com/hyperifyio/websearch/internal/transport"
)

const (
	Name            = "duckduckgo"
	display         = "DuckDuckGo"
	defaultBaseURL  = "https://duckduckgo.com"
	defaultLinksURL = "https://links.duckduckgo.com"
	defaultMax      = 10
	maxResults      = 50
	// pageSize is the number of hits DuckDuckGo returns per results page.
	pageSize  = 30
	browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// ErrMissingToken is returned when the front page carries no vqd token.
var ErrMissingToken = errors.New("failed to extract vqd token from DuckDuckGo response")

var (
	vqdPatterns = []*regexp.Regexp{
		regexp.MustCompile(`vqd=["']([^"']+)["']`),
		regexp.MustCompile(`vqd=([\d-]+)&`),
		regexp.MustCompile(`"vqd"\s*:\s*"([^"]+)"`),
	}
	loadRe = regexp.MustCompile(`(?s)DDG\.pageLayout\.load\('d',\s*(\[.*?\])\s*\);`)
)

// Config configures the DuckDuckGo adapter. No credential is needed.
type Config struct {
	BaseURL   string `json:"baseUrl,omitempty"`
	LinksURL  string `json:"linksUrl,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`

	HTTPClient *http.Client `json:"-"`
}

// Provider queries DuckDuckGo.
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

// New returns a ready provider.
func New(cfg Config) (*Provider, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if strings.TrimSpace(cfg.LinksURL) == "" {
		cfg.LinksURL = defaultLinksURL
	}
	for field, v := range map[string]string{"baseUrl": cfg.BaseURL, "linksUrl": cfg.LinksURL} {
		if u, err := url.Parse(v); err != nil || u.Host == "" {
			return nil, &search.ConfigError{Provider: Name, Field: field, Reason: fmt.Sprintf("is not an absolute URL: %q", v)}
		}
	}
	client := transport.NewClient(cfg.HTTPClient)
	client.UserAgent = browserUA
	if cfg.UserAgent != "" {
		client.UserAgent = cfg.UserAgent
	}
	return &Provider{
		cfg:    cfg,
		client: client,
		classify: search.Classifier{Name: Name, Display: display, Hints: []search.Hint{
			{Contains: "vqd", Text: "DuckDuckGo did not issue a search token; it may be throttling this client, retry later"},
			{Contains: "anomaly", Text: "DuckDuckGo flagged the request as automated traffic"},
			{Status: http.StatusForbidden, Text: "DuckDuckGo blocked the request; it may be throttling this client"},
			{Status: 418, Text: "DuckDuckGo blocked the request; it may be throttling this client"},
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

	token, err := p.fetchToken(ctx, q)
	if err != nil {
		return nil, p.classify.Wrap(err)
	}

	params := map[string]any{
		"q":   q.Terms(),
		"vqd": token,
		"l":   regionParam(q),
		"o":   "json",
		"bpa": "1",
	}
	if off := q.Offset(pageSize); off > 0 {
		params["s"] = off
	}
	switch q.SafeSearch {
	case search.SafeStrict:
		params["p"] = "1"
	case search.SafeModerate:
		params["p"] = "-1"
	case search.SafeOff:
		params["p"] = "-2"
	}
	if df := q.ExtraString("df"); df != "" {
		params["df"] = df
	}
	u, err := transport.BuildURL(strings.TrimRight(p.cfg.LinksURL, "/")+"/d.js", params)
	if err != nil {
		return nil, p.classify.Wrap(err)
	}
	resp, err := p.client.Do(ctx, u, transport.Options{
		Headers: map[string]string{"Accept": "*/*", "Referer": p.cfg.BaseURL + "/"},
		Timeout: q.Timeout,
		Debug:   q.Debug,
	})
	if err != nil {
		return nil, p.classify.Wrap(err)
	}
	hits, err := parseResults(resp.Bytes())
	if err != nil {
		return nil, p.classify.Wrap(err)
	}
	return mapResults(hits, limit), nil
}

func (p *Provider) fetchToken(ctx context.Context, q search.Query) (string, error) {
	u, err := transport.BuildURL(strings.TrimRight(p.cfg.BaseURL, "/")+"/", map[string]any{"q": q.Terms()})
	if err != nil {
		return "", err
	}
	resp, err := p.client.Do(ctx, u, transport.Options{
		Headers: map[string]string{"Accept": "text/html"},
		Timeout: q.Timeout,
		Debug:   q.Debug,
	})
	if err != nil {
		return "", err
	}
	if tok := extractToken(resp.Text()); tok != "" {
		return tok, nil
	}
	return "", ErrMissingToken
}

func extractToken(page string) string {
	for _, re := range vqdPatterns {
		if m := re.FindStringSubmatch(page); len(m) == 2 && strings.TrimSpace(m[1]) != "" {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// regionParam builds DuckDuckGo's "kl" style locale, e.g. "us-en", or
// "wt-wt" when no region is known.
func regionParam(q search.Query) string {
	r := search.RegionCode(q.Region, q.Language)
	l := search.LanguageCode(q.Language)
	if r == "" {
		return "wt-wt"
	}
	if l == "" {
		l = "en"
	}
	return strings.ToLower(r) + "-" + l
}

type hit struct {
	Title    string `json:"t"`
	Abstract string `json:"a"`
	URL      string `json:"u"`
	Display  string `json:"i"`
	Date     any    `json:"e"`
	Next     string `json:"n"`
}

// parseResults accepts either the JSON body returned with o=json or the
// DDG.pageLayout.load('d', [...]) script form.
func parseResults(body []byte) ([]hit, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "{") {
		var wrapped struct {
			Results []hit `json:"results"`
		}
		if err := json.Unmarshal([]byte(trimmed), &wrapped); err != nil {
			return nil, fmt.Errorf("decode results: %w", err)
		}
		return wrapped.Results, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var hits []hit
		if err := json.Unmarshal([]byte(trimmed), &hits); err != nil {
			return nil, fmt.Errorf("decode results: %w", err)
		}
		return hits, nil
	}
	m := loadRe.FindStringSubmatch(trimmed)
	if len(m) != 2 {
		if strings.Contains(trimmed, "DDG.deep.is506") || strings.Contains(trimmed, "anomaly") {
			return nil, errors.New("DuckDuckGo returned an anomaly page instead of results")
		}
		return nil, nil
	}
	var hits []hit
	if err := json.Unmarshal([]byte(m[1]), &hits); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	return hits, nil
}

func mapResults(hits []hit, limit int) []search.Result {
	out := make([]search.Result, 0, min(len(hits), limit))
	for _, h := range hits {
		if h.Next != "" || strings.TrimSpace(h.URL) == "" {
			continue
		}
		res := search.NewResult(Name, h.URL, search.StripHTML(h.Title), h)
		res.Snippet = search.StripHTML(h.Abstract)
		if s, ok := h.Date.(string); ok {
			res.PublishedDate = s
		}
		out = append(out, res)
		if len(out) >= limit {
			break
		}
	}
	return out
}
