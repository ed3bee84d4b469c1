// Package arxiv adapts the arXiv export API, which answers with an Atom
// feed. It is the only adapter that accepts an identifier list in place of
// query text.
package arxiv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed/atom"

	"github.com/hyperifyio/websearch/internal/search"
	"github.com/hyperifyio/websearch/internal/transport"
)

const (
	Name           = "arxiv"
	display        = "arXiv"
	defaultBaseURL = "https://export.arxiv.org/api/query"
	defaultMax     = 10
	maxResults     = 2000
	snippetRunes   = 300
)

// Config configures the arXiv adapter. No credential is needed.
type Config struct {
	BaseURL string `json:"baseUrl,omitempty"`
	// SortBy is relevance, lastUpdatedDate or submittedDate.
	SortBy    string `json:"sortBy,omitempty"`
	SortOrder string `json:"sortOrder,omitempty"`

	HTTPClient *http.Client `json:"-"`
}

// Provider queries arXiv.
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
	switch cfg.SortBy {
	case "", "relevance", "lastUpdatedDate", "submittedDate":
	default:
		return nil, &search.ConfigError{Provider: Name, Field: "sortBy", Reason: fmt.Sprintf("is not supported: %q", cfg.SortBy)}
	}
	switch cfg.SortOrder {
	case "", "ascending", "descending":
	default:
		return nil, &search.ConfigError{Provider: Name, Field: "sortOrder", Reason: fmt.Sprintf("is not supported: %q", cfg.SortOrder)}
	}
	return &Provider{
		cfg:    cfg,
		client: transport.NewClient(cfg.HTTPClient),
		classify: search.Classifier{Name: Name, Display: display, Hints: []search.Hint{
			{Contains: "malformed id", Text: "One or more arXiv identifiers are malformed"},
			{Contains: "incorrect id format", Text: "One or more arXiv identifiers are malformed"},
			{Status: http.StatusServiceUnavailable, Text: "arXiv is throttling requests; wait a few seconds between calls"},
		}},
	}, nil
}

func (p *Provider) Name() string { return Name }

func (p *Provider) DisplayName() string { return display }

// SupportsIDList reports that Query.IDList may replace Query.Text.
func (p *Provider) SupportsIDList() bool { return true }

// record is the Raw value of each result.
type record struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Summary    string   `json:"summary"`
	Published  string   `json:"published,omitempty"`
	Updated    string   `json:"updated,omitempty"`
	Authors    []string `json:"authors,omitempty"`
	Categories []string `json:"categories,omitempty"`
	PDF        string   `json:"pdf,omitempty"`
	DOI        string   `json:"doi,omitempty"`
	Comment    string   `json:"comment,omitempty"`
}

func newRecord(e *atom.Entry) record {
	r := record{
		ID:        strings.TrimSpace(e.ID),
		Title:     search.CollapseSpace(e.Title),
		Summary:   search.CollapseSpace(e.Summary),
		Published: e.Published,
		Updated:   e.Updated,
		DOI:       arxivExt(e, "doi"),
		Comment:   arxivExt(e, "comment"),
	}
	for _, a := range e.Authors {
		if a != nil && a.Name != "" {
			r.Authors = append(r.Authors, a.Name)
		}
	}
	for _, c := range e.Categories {
		if c != nil && c.Term != "" {
			r.Categories = append(r.Categories, c.Term)
		}
	}
	for _, l := range e.Links {
		if l != nil && (l.Title == "pdf" || l.Type == "application/pdf") {
			r.PDF = l.Href
			break
		}
	}
	return r
}

// arxivExt returns the text of an arxiv: namespaced element of e.
func arxivExt(e *atom.Entry, name string) string {
	if vals := e.Extensions["arxiv"][name]; len(vals) > 0 {
		return strings.TrimSpace(vals[0].Value)
	}
	return ""
}

// Search queries by text, by identifier list, or by both. Text without a
// field prefix ("ti:", "au:", ...) is searched across all fields.
func (p *Provider) Search(ctx context.Context, q search.Query) ([]search.Result, error) {
	ids := cleanIDs(q.IDList)
	if !q.HasText() && len(ids) == 0 {
		return nil, p.classify.Wrap(fmt.Errorf("%w (or an arXiv ID list)", search.ErrEmptyQuery))
	}
	limit := search.Clamp(q.MaxResults, 1, maxResults, defaultMax)
	params := map[string]any{
		"start":       q.Offset(limit),
		"max_results": limit,
	}
	if q.HasText() {
		params["search_query"] = searchQuery(q.Terms())
	}
	if len(ids) > 0 {
		params["id_list"] = strings.Join(ids, ",")
	}
	if p.cfg.SortBy != "" {
		params["sortBy"] = p.cfg.SortBy
	}
	if p.cfg.SortOrder != "" {
		params["sortOrder"] = p.cfg.SortOrder
	}
	u, err := transport.BuildURL(p.cfg.BaseURL, params)
	if err != nil {
		return nil, p.classify.Wrap(err)
	}
	resp, err := p.client.Do(ctx, u, transport.Options{
		Headers: map[string]string{"Accept": "application/atom+xml"},
		Timeout: q.Timeout,
		Debug:   q.Debug,
	})
	if err != nil {
		return nil, p.classify.Wrap(err)
	}
	f, err := (&atom.Parser{}).Parse(bytes.NewReader(resp.Bytes()))
	if err != nil {
		return nil, p.classify.Wrap(fmt.Errorf("decode atom feed: %w", err))
	}
	if msg := feedError(f); msg != "" {
		return nil, p.classify.Wrap(errors.New(msg))
	}

	out := make([]search.Result, 0, len(f.Entries))
	for _, e := range f.Entries {
		if e == nil {
			continue
		}
		link := absLink(e)
		if link == "" {
			continue
		}
		rec := newRecord(e)
		res := search.NewResult(Name, link, rec.Title, rec)
		res.Snippet = search.Truncate(rec.Summary, snippetRunes)
		res.Content = rec.Summary
		res.PublishedDate = rec.Published
		out = append(out, res)
	}
	return out, nil
}

func searchQuery(text string) string {
	if strings.Contains(text, ":") {
		return text
	}
	return "all:" + text
}

func cleanIDs(in []string) []string {
	out := make([]string, 0, len(in))
	for _, id := range in {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// feedError reports the error entry arXiv returns with a 200 status for
// invalid queries.
func feedError(f *atom.Feed) string {
	for _, e := range f.Entries {
		if e != nil && strings.Contains(e.ID, "/api/errors") {
			if s := search.CollapseSpace(e.Summary); s != "" {
				return s
			}
			return "arXiv reported an error"
		}
	}
	return ""
}

func absLink(e *atom.Entry) string {
	for _, l := range e.Links {
		if l != nil && l.Rel == "alternate" && l.Href != "" {
			return strings.TrimSpace(l.Href)
		}
	}
	return strings.TrimSpace(e.ID)
}
