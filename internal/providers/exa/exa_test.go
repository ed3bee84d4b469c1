package exa

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

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	var ce *search.ConfigError
	if !errors.As(err, &ce) || ce.Field != "apiKey" {
		t.Fatalf("want apiKey ConfigError, got %v", err)
	}
}

func TestSearch_RequestAndMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" || r.Header.Get("x-api-key") != "k" {
			t.Errorf("unexpected request %s %q", r.URL.Path, r.Header.Get("x-api-key"))
		}
		var req request
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Query != "go" || req.NumResults != 100 || req.Type != "auto" || req.Contents == nil {
			t.Errorf("unexpected body %+v", req)
		}
		if len(req.IncludeDomains) != 1 || req.IncludeDomains[0] != "go.dev" {
			t.Errorf("include domains %v", req.IncludeDomains)
		}
		_, _ = w.Write([]byte(`{"results":[
			{"url":"https://go.dev","title":"Go","highlights":["  fast  "],"text":"full text","publishedDate":"2024-01-01"},
			{"url":"https://example.com","title":"","summary":"a summary"},
			{"url":"https://example.org","title":"Long","text":"` + strings.Repeat("x", 400) + `"},
			{"url":"","title":"skip"}
		]}`))
	}))
	defer srv.Close()

	p, _ := New(Config{APIKey: "k", BaseURL: srv.URL, IncludeText: true, HTTPClient: srv.Client()})
	got, err := p.Search(context.Background(), search.Query{
		Text: "go", MaxResults: 1000,
		Extra: map[string]any{"includeDomains": []any{"go.dev"}},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("want 3 results, got %d", len(got))
	}
	if got[0].Snippet != "fast" || got[0].Content != "full text" || got[0].PublishedDate != "2024-01-01" {
		t.Fatalf("first %+v", got[0])
	}
	if got[1].Title != search.UntitledTitle || got[1].Snippet != "a summary" {
		t.Fatalf("second %+v", got[1])
	}
	if n := len([]rune(got[2].Snippet)); n != snippetRunes+1 || !strings.HasSuffix(got[2].Snippet, "…") {
		t.Fatalf("third snippet length %d", n)
	}
}

func TestSearch_PaymentRequired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":"insufficient balance"}`))
	}))
	defer srv.Close()

	p, _ := New(Config{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()})
	_, err := p.Search(context.Background(), search.Query{Text: "go"})
	var pe *search.ProviderError
	if !errors.As(err, &pe) || pe.StatusCode != http.StatusPaymentRequired {
		t.Fatalf("unexpected error %v", err)
	}
	if !strings.Contains(err.Error(), "out of credits") || !strings.Contains(err.Error(), "insufficient balance") {
		t.Fatalf("message %q", err)
	}
}

func TestSearch_EmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"requestId":"r","results":[]}`))
	}))
	defer srv.Close()

	p, _ := New(Config{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()})
	got, err := p.Search(context.Background(), search.Query{Text: "go"})
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("want empty slice, got %#v %v", got, err)
	}
}
