package searxng

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hyperifyio/websearch/internal/search"
)

func TestSearxNG_Search_ParsesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("format") != "json" || q.Get("pageno") != "2" || q.Get("safesearch") != "0" || q.Get("categories") != "general,it" {
			t.Errorf("unexpected params %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"title": "Doc", "url": "https://example.com", "content": "snippet", "engine": "bing"},
				{"title": "Bad", "url": "", "content": "no url"},
				{"title": "Doc2", "url": "https://example.org/2", "content": "two"},
			},
		})
	}))
	defer srv.Close()

	p, err := New(Config{BaseURL: srv.URL, Categories: []string{"general", "it"}, HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	got, err := p.Search(context.Background(), search.Query{Text: "query", Page: 2, MaxResults: 1, SafeSearch: search.SafeOff})
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 valid result, got %d", len(got))
	}
	if got[0].URL != "https://example.com" || got[0].Domain != "example.com" {
		t.Fatalf("unexpected result: %+v", got[0])
	}
}

func TestNew_RequiresAbsoluteBaseURL(t *testing.T) {
	for _, base := range []string{"", "   ", "not-a-url"} {
		_, err := New(Config{BaseURL: base})
		var ce *search.ConfigError
		if !errors.As(err, &ce) || ce.Field != "baseUrl" {
			t.Fatalf("New(%q): expected baseUrl error, got %v", base, err)
		}
	}
}

func TestSearch_ForbiddenHintsAtJSONFormat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("Forbidden"))
	}))
	defer srv.Close()

	p, _ := New(Config{BaseURL: srv.URL + "/", HTTPClient: srv.Client()})
	_, err := p.Search(context.Background(), search.Query{Text: "x"})
	if err == nil || !strings.Contains(err.Error(), "search.formats") || !strings.HasPrefix(err.Error(), "SearxNG search failed: ") {
		t.Fatalf("unexpected error %v", err)
	}
}
