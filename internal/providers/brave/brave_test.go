package brave

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hyperifyio/websearch/internal/search"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	var ce *search.ConfigError
	if !errors.As(err, &ce) || ce.Field != "apiKey" {
		t.Fatalf("expected apiKey config error, got %v", err)
	}
}

func TestDefault_MustBeConfigured(t *testing.T) {
	_, err := Default.Search(context.Background(), search.Query{Text: "go"})
	if err == nil || !strings.Contains(err.Error(), "must be configured") {
		t.Fatalf("expected must-be-configured error, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "Brave search failed: ") {
		t.Fatalf("missing adapter prefix: %q", err.Error())
	}
}

func TestSearch_BuildsRequestAndMapsResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Subscription-Token") != "k" {
			t.Errorf("missing token header")
		}
		q := r.URL.Query()
		if q.Get("q") != "golang" || q.Get("count") != "20" || q.Get("offset") != "2" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		if q.Get("search_lang") != "en" || q.Get("country") != "GB" || q.Get("safesearch") != "strict" {
			t.Errorf("unexpected locale params: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"web":{"results":[
			{"title":"The <strong>Go</strong> language","url":"https://go.dev/","description":"Build <strong>simple</strong> software","page_age":"2024-01-02T00:00:00"},
			{"title":"","url":"not a url","description":"odd"},
			{"title":"no url","url":""}
		]}}`))
	}))
	defer srv.Close()

	p, err := New(Config{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	got, err := p.Search(context.Background(), search.Query{
		Text: "golang", MaxResults: 50, Page: 3, Language: "en-GB", SafeSearch: search.SafeStrict,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].Title != "The Go language" || got[0].Snippet != "Build simple software" || got[0].Domain != "go.dev" {
		t.Fatalf("unexpected first result: %+v", got[0])
	}
	if got[0].Provider != Name || got[0].PublishedDate == "" || got[0].Raw == nil {
		t.Fatalf("missing provider/date/raw: %+v", got[0])
	}
	if got[1].Domain != "" || got[1].Title != search.UntitledTitle {
		t.Fatalf("malformed url should leave domain empty and default title: %+v", got[1])
	}
}

func TestSearch_EmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"type":"search"}`))
	}))
	defer srv.Close()

	p, _ := New(Config{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()})
	got, err := p.Search(context.Background(), search.Query{Text: "nothing"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestSearch_ClassifiesInvalidToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"type":"ErrorResponse","error":{"code":"SUBSCRIPTION_TOKEN_INVALID","detail":"The provided subscription token is invalid.","status":422}}`))
	}))
	defer srv.Close()

	p, _ := New(Config{APIKey: "bad", BaseURL: srv.URL, HTTPClient: srv.Client()})
	_, err := p.Search(context.Background(), search.Query{Text: "go"})
	if err == nil {
		t.Fatalf("expected error")
	}
	msg := err.Error()
	if !strings.HasPrefix(msg, "Brave search failed: ") || !strings.Contains(msg, "subscription token is invalid") {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestSearch_RejectsBlankQueryWithoutIO(t *testing.T) {
	p, _ := New(Config{APIKey: "k", BaseURL: "http://127.0.0.1:1"})
	_, err := p.Search(context.Background(), search.Query{Text: "   "})
	if !errors.Is(err, search.ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
}
