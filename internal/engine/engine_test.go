package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hyperifyio/websearch/internal/debug"
	"github.com/hyperifyio/websearch/internal/search"
	"github.com/hyperifyio/websearch/internal/transport"
)

type fakeProvider struct {
	name    string
	delay   time.Duration
	results []search.Result
	err     error
	panicV  any
	idList  bool
	calls   int
	mu      sync.Mutex
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) SupportsIDList() bool { return f.idList }

type namedProvider struct {
	*fakeProvider
	display string
}

func (n namedProvider) DisplayName() string { return n.display }

func (f *fakeProvider) Search(ctx context.Context, q search.Query) ([]search.Result, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.panicV != nil {
		panic(f.panicV)
	}
	return f.results, f.err
}

func results(provider string, urls ...string) []search.Result {
	out := make([]search.Result, 0, len(urls))
	for _, u := range urls {
		out = append(out, search.NewResult(provider, u, u, nil))
	}
	return out
}

func TestWebSearch_PreservesProviderOrder(t *testing.T) {
	a := &fakeProvider{name: "a", delay: 30 * time.Millisecond, results: results("a", "https://a/1", "https://a/2")}
	b := &fakeProvider{name: "b", results: results("b", "https://b/1")}
	got, err := WebSearch(context.Background(), Request{Providers: []search.Provider{a, b}, Query: search.Query{Text: "go"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var urls []string
	for _, r := range got {
		urls = append(urls, r.URL)
	}
	if strings.Join(urls, " ") != "https://a/1 https://a/2 https://b/1" {
		t.Fatalf("order = %v", urls)
	}
}

func TestWebSearch_RunsProvidersConcurrently(t *testing.T) {
	ps := make([]search.Provider, 5)
	for i := range ps {
		ps[i] = &fakeProvider{name: fmt.Sprintf("p%d", i), delay: 50 * time.Millisecond, results: []search.Result{}}
	}
	start := time.Now()
	if _, err := WebSearch(context.Background(), Request{Providers: ps, Query: search.Query{Text: "go"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Fatalf("providers appear to run sequentially: %v", elapsed)
	}
}

func TestWebSearch_NoProviders(t *testing.T) {
	_, err := WebSearch(context.Background(), Request{Query: search.Query{Text: "go"}})
	if !errors.Is(err, ErrNoProviders) {
		t.Fatalf("want ErrNoProviders, got %v", err)
	}
}

func TestWebSearch_QueryRequired(t *testing.T) {
	p := &fakeProvider{name: "a"}
	_, err := WebSearch(context.Background(), Request{Providers: []search.Provider{p}, Query: search.Query{Text: "   "}})
	if !errors.Is(err, ErrQueryRequired) {
		t.Fatalf("want ErrQueryRequired, got %v", err)
	}
	_, err = WebSearch(context.Background(), Request{Providers: []search.Provider{p}, Query: search.Query{IDList: []string{"1706.03762"}}})
	if !errors.Is(err, ErrQueryRequired) {
		t.Fatalf("id list without an id-capable provider: want ErrQueryRequired, got %v", err)
	}
	if p.calls != 0 {
		t.Fatalf("provider called %d times before validation passed", p.calls)
	}
}

func TestWebSearch_IDListAcceptedWithCapableProvider(t *testing.T) {
	papers := &fakeProvider{name: "arxiv", idList: true, results: results("arxiv", "http://arxiv.org/abs/1706.03762")}
	web := &fakeProvider{name: "web", err: errors.New("Web search failed: search query is required")}
	got, err := WebSearch(context.Background(), Request{
		Providers: []search.Provider{web, papers},
		Query:     search.Query{IDList: []string{"1706.03762"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Provider != "arxiv" {
		t.Fatalf("unexpected %+v", got)
	}
}

func TestWebSearch_FailSoft(t *testing.T) {
	bad := &fakeProvider{name: "bad", err: errors.New("Bad search failed: boom")}
	empty := &fakeProvider{name: "empty"}
	got, err := WebSearch(context.Background(), Request{Providers: []search.Provider{bad, empty}, Query: search.Query{Text: "go"}})
	if err != nil {
		t.Fatalf("one success with zero results must not fail: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", got)
	}
}

func TestWebSearch_AllFailedAggregates(t *testing.T) {
	a := &fakeProvider{name: "a", err: &search.ProviderError{Provider: "a", Display: "A", StatusCode: 429, Err: &transport.HTTPError{StatusCode: 429, Message: "slow down"}}}
	b := &fakeProvider{name: "b", err: errors.New("B search failed: connection reset")}
	_, err := WebSearch(context.Background(), Request{Providers: []search.Provider{a, b}, Query: search.Query{Text: "go"}})
	var agg *AggregateError
	if !errors.As(err, &agg) {
		t.Fatalf("want AggregateError, got %T %v", err, err)
	}
	msg := err.Error()
	ia, ib := strings.Index(msg, "- a: "), strings.Index(msg, "- b: ")
	if ia < 0 || ib < 0 || ia > ib {
		t.Fatalf("message should list a then b: %q", msg)
	}
	if !strings.Contains(msg, "slow down") || !strings.Contains(msg, "connection reset") {
		t.Fatalf("message lost provider detail: %q", msg)
	}
	if !strings.Contains(msg, "rate limiting") {
		t.Fatalf("missing troubleshooting text: %q", msg)
	}
	var he *transport.HTTPError
	if !errors.As(err, &he) || he.StatusCode != 429 {
		t.Fatalf("aggregate should unwrap to the HTTP error, got %v", he)
	}
}

func TestWebSearch_RecoversPanics(t *testing.T) {
	p1 := namedProvider{&fakeProvider{name: "p1", panicV: "kaboom"}, "Provider One"}
	p2 := &fakeProvider{name: "p2", panicV: 42}
	_, err := WebSearch(context.Background(), Request{Providers: []search.Provider{p1, p2}, Query: search.Query{Text: "go"}})
	if err == nil || !strings.Contains(err.Error(), "- p1: Provider One search failed: kaboom") || !strings.Contains(err.Error(), "- p2: p2 search failed: 42") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestRun_ReportsPerProviderOutcomes(t *testing.T) {
	ok := &fakeProvider{name: "ok", results: results("ok", "https://ok/1")}
	bad := &fakeProvider{name: "bad", err: errors.New("Bad search failed: nope")}
	outs, err := Run(context.Background(), Request{Providers: []search.Provider{ok, bad}, Query: search.Query{Text: "go"}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(outs) != 2 || !outs[0].OK() || outs[1].OK() || outs[0].Provider != "ok" || outs[1].Provider != "bad" {
		t.Fatalf("unexpected outcomes %+v", outs)
	}
	if outs[1].Results != nil {
		t.Fatal("failed outcome must not carry results")
	}
}

func TestRun_NoSiblingCancellation(t *testing.T) {
	fast := &fakeProvider{name: "fast", err: errors.New("Fast search failed: nope")}
	slow := &fakeProvider{name: "slow", delay: 40 * time.Millisecond, results: results("slow", "https://slow/1")}
	got, err := WebSearch(context.Background(), Request{Providers: []search.Provider{fast, slow}, Query: search.Query{Text: "go"}})
	if err != nil || len(got) != 1 {
		t.Fatalf("slow provider should still complete: %v %+v", err, got)
	}
}

func TestRun_DebugLines(t *testing.T) {
	var mu sync.Mutex
	var lines []string
	opts := debug.Options{Enabled: true, Logger: func(msg string, data any) {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, msg)
	}}
	a := &fakeProvider{name: "a", results: results("a", "https://a/1")}
	b := &fakeProvider{name: "b", err: errors.New("B search failed: nope")}
	if _, err := WebSearch(context.Background(), Request{Providers: []search.Provider{a, b}, Query: search.Query{Text: "go", Debug: opts}}); err != nil {
		t.Fatalf("search: %v", err)
	}
	joined := strings.Join(lines, "|")
	for _, want := range []string{"dispatching search", "provider finished", "provider failed", "search complete"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing %q in %v", want, lines)
		}
	}
	if lines[0] != "dispatching search" || lines[len(lines)-1] != "search complete" {
		t.Fatalf("unexpected order %v", lines)
	}
}

func TestRun_PanickingLoggerDoesNotFailSearch(t *testing.T) {
	opts := debug.Options{Enabled: true, Logger: func(string, any) { panic("logger broke") }}
	a := &fakeProvider{name: "a", results: results("a", "https://a/1")}
	got, err := WebSearch(context.Background(), Request{Providers: []search.Provider{a}, Query: search.Query{Text: "go", Debug: opts}})
	if err != nil || len(got) != 1 {
		t.Fatalf("logger failure leaked: %v %+v", err, got)
	}
}

func TestTroubleshoot(t *testing.T) {
	cases := []struct {
		provider string
		err      error
		want     string
	}{
		{"duckduckgo", errors.New("DuckDuckGo search failed: failed to extract vqd token"), "throttling"},
		{"google", &search.ProviderError{Display: "Google", StatusCode: 403, Err: errors.New("dailyLimitExceeded")}, "daily quota"},
		{"brave", &search.ProviderError{Display: "Brave", StatusCode: 401, Err: errors.New("nope")}, "API key is set"},
		{"serper", &search.ProviderError{Display: "Serper", StatusCode: 400, Err: errors.New("bad")}, "request parameters"},
		{"exa", &search.ProviderError{Display: "Exa", StatusCode: 503, Err: errors.New("down")}, "server-side"},
		{"tavily", errors.New("Tavily search failed: request timed out after 1s"), "Raise the timeout"},
		{"other", errors.New("weird"), ""},
	}
	for _, c := range cases {
		got := Troubleshoot(c.provider, c.err)
		if c.want == "" && got != "" || !strings.Contains(got, c.want) {
			t.Errorf("%s: Troubleshoot(%v) = %q, want containing %q", c.provider, c.err, got, c.want)
		}
	}
}
