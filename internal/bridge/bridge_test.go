package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hyperifyio/websearch/internal/config"
	"github.com/hyperifyio/websearch/internal/engine"
	"github.com/hyperifyio/websearch/internal/mcp"
	"github.com/hyperifyio/websearch/internal/search"
)

type stubProvider struct {
	name string
	got  search.Query
	err  error
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Search(_ context.Context, q search.Query) ([]search.Result, error) {
	s.got = q
	if s.err != nil {
		return nil, s.err
	}
	return []search.Result{search.NewResult(s.name, "https://"+s.name+".example/1", "hit", map[string]any{"n": 1})}, nil
}

func TestHandle_MapsArgumentsAndDefaults(t *testing.T) {
	p := &stubProvider{name: "brave"}
	tool := &Tool{Providers: []search.Provider{p}, Config: config.Config{MaxResults: 5, Timeout: 3 * time.Second, Language: "en"}}
	out, err := tool.Handle(context.Background(), json.RawMessage(`{"query":"golang","region":"DE","safeSearch":"strict"}`))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if p.got.Text != "golang" || p.got.Region != "DE" || p.got.MaxResults != 5 || p.got.Timeout != 3*time.Second || p.got.Language != "en" || p.got.SafeSearch != search.SafeStrict {
		t.Fatalf("query %+v", p.got)
	}
	var results []search.Result
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("output is not a result array: %v\n%s", err, out)
	}
	if len(results) != 1 || results[0].Provider != "brave" || results[0].Raw != nil {
		t.Fatalf("unexpected %+v", results)
	}
}

func TestHandle_IncludeRawAndProviderFilter(t *testing.T) {
	a, b := &stubProvider{name: "a"}, &stubProvider{name: "b"}
	tool := &Tool{Providers: []search.Provider{a, b}}
	out, err := tool.Handle(context.Background(), json.RawMessage(`{"query":"x","providers":["B"],"includeRaw":true}`))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if a.got.Text != "" || b.got.Text != "x" {
		t.Fatal("provider filter ignored")
	}
	if !strings.Contains(out, `"raw"`) {
		t.Fatalf("raw missing: %s", out)
	}
	if _, err := tool.Handle(context.Background(), json.RawMessage(`{"query":"x","providers":["zzz"]}`)); err == nil || !strings.Contains(err.Error(), "not configured") {
		t.Fatalf("want not configured error, got %v", err)
	}
}

func TestHandle_UsesInjectedSearch(t *testing.T) {
	var seen engine.Request
	tool := &Tool{
		Providers: []search.Provider{&stubProvider{name: "a"}},
		Config:    config.Config{MaxResults: 4},
		Search: func(_ context.Context, req engine.Request) ([]search.Result, error) {
			seen = req
			return []search.Result{}, nil
		},
	}
	out, err := tool.Handle(context.Background(), json.RawMessage(`{"idList":["1706.03762"]}`))
	if err != nil || strings.TrimSpace(out) != "[]" {
		t.Fatalf("handle: %q %v", out, err)
	}
	if seen.Query.MaxResults != 4 || len(seen.Query.IDList) != 1 {
		t.Fatalf("request %+v", seen)
	}
}

type toolResult struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	IsError bool `json:"isError"`
}

func rpcResult(t *testing.T, srv *mcp.Server, msg string) json.RawMessage {
	t.Helper()
	out := srv.Handle(context.Background(), json.RawMessage(msg))
	var resp struct {
		Result json.RawMessage `json:"result"`
		Error  any             `json:"error"`
	}
	if err := json.Unmarshal(out, &resp); err != nil || resp.Error != nil {
		t.Fatalf("request %s failed: %s", msg, out)
	}
	return resp.Result
}

func TestServer_ToolCall(t *testing.T) {
	ok := &stubProvider{name: "ok"}
	bad := &stubProvider{name: "bad", err: errors.New("Bad search failed: HTTP 401: nope")}
	srv, err := NewServer(&Tool{Providers: []search.Provider{ok, bad}}, "test")
	if err != nil {
		t.Fatalf("server: %v", err)
	}
	list := rpcResult(t, srv, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	if !strings.Contains(string(list), `"web_search"`) || !strings.Contains(string(list), "ok, bad") {
		t.Fatalf("tools/list %s", list)
	}

	var call toolResult
	b := rpcResult(t, srv, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"web_search","arguments":{"query":"go"}}}`)
	if err := json.Unmarshal(b, &call); err != nil || call.IsError || len(call.Content) == 0 || !strings.Contains(call.Content[0].Text, "https://ok.example/1") {
		t.Fatalf("call %s", b)
	}

	call = toolResult{}
	b = rpcResult(t, srv, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"web_search","arguments":{"maxResults":3}}}`)
	if err := json.Unmarshal(b, &call); err != nil || !call.IsError {
		t.Fatalf("missing query should be rejected: %s", b)
	}
}

func TestHandle_AllProvidersFailed(t *testing.T) {
	tool := &Tool{Providers: []search.Provider{&stubProvider{name: "x", err: errors.New("X search failed: boom")}}}
	_, err := tool.Handle(context.Background(), json.RawMessage(`{"query":"go"}`))
	var agg *engine.AggregateError
	if !errors.As(err, &agg) {
		t.Fatalf("want AggregateError, got %v", err)
	}
}
