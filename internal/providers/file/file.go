// Package file serves search results from a local JSON file. It needs no
// network access, which makes it useful for offline runs and for pinning
// results in demos and tests.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/hyperifyio/websearch/internal/search"
)

const (
	Name       = "file"
	display    = "File"
	defaultMax = 10
	maxResults = 1000
)

// Config points at a JSON array of {"title", "url", "snippet", ...} objects.
type Config struct {
	Path string `json:"path"`
	// MatchAll returns every record regardless of the query terms.
	MatchAll bool `json:"matchAll,omitempty"`
}

// Provider reads results from Config.Path on every search, so edits to the
// file are picked up without a restart.
type Provider struct {
	cfg      Config
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
	if err := search.MissingConfig(Name, "path", cfg.Path); err != nil {
		return nil, err
	}
	return &Provider{cfg: cfg, classify: search.Classifier{Name: Name, Display: display, Hints: []search.Hint{
		{Contains: "no such file", Text: "Results file not found"},
	}}}, nil
}

func (p *Provider) Name() string { return Name }

func (p *Provider) DisplayName() string { return display }

type record struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	Snippet       string `json:"snippet"`
	Content       string `json:"content"`
	PublishedDate string `json:"publishedDate"`
}

// Search returns the records whose title or snippet contains every query
// term, case-insensitively.
func (p *Provider) Search(_ context.Context, q search.Query) ([]search.Result, error) {
	if !q.HasText() {
		return nil, p.classify.Wrap(search.ErrEmptyQuery)
	}
	b, err := os.ReadFile(p.cfg.Path)
	if err != nil {
		return nil, p.classify.Wrap(err)
	}
	var records []record
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, p.classify.Wrap(fmt.Errorf("parse %s: %w", p.cfg.Path, err))
	}
	limit := search.Clamp(q.MaxResults, 1, maxResults, defaultMax)
	terms := strings.Fields(strings.ToLower(q.Terms()))
	skip := q.Offset(limit)

	out := make([]search.Result, 0, min(len(records), limit))
	for _, r := range records {
		if strings.TrimSpace(r.URL) == "" {
			continue
		}
		if !p.cfg.MatchAll && !matches(r, terms) {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		res := search.NewResult(Name, r.URL, r.Title, r)
		res.Snippet = r.Snippet
		res.Content = r.Content
		res.PublishedDate = r.PublishedDate
		out = append(out, res)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func matches(r record, terms []string) bool {
	hay := strings.ToLower(r.Title + " " + r.Snippet)
	for _, t := range terms {
		if !strings.Contains(hay, t) {
			return false
		}
	}
	return true
}
