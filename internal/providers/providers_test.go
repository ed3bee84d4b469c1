package providers

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/hyperifyio/websearch/internal/search"
)

func TestRegistry_HasEveryAdapter(t *testing.T) {
	want := []string{"arxiv", "brave", "duckduckgo", "exa", "file", "google", "perplexity", "searxng", "serpapi", "serper", "tavily"}
	got := Registry().Names()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("names = %v", got)
	}
}

func TestRegistry_BuildsConfiguredProviders(t *testing.T) {
	r := Registry()
	cases := map[string]string{
		"google":     `{"apiKey":"k","searchEngineId":"cx"}`,
		"brave":      `{"apiKey":"k"}`,
		"exa":        `{"apiKey":"k","type":"neural"}`,
		"tavily":     `{"apiKey":"k","searchDepth":"advanced"}`,
		"serpapi":    `{"apiKey":"k"}`,
		"serper":     `{"apiKey":"k"}`,
		"searxng":    `{"baseUrl":"http://localhost:8888"}`,
		"duckduckgo": `{}`,
		"arxiv":      ``,
		"perplexity": `{"apiKey":"k","model":"sonar-pro"}`,
		"file":       `{"path":"results.json"}`,
	}
	for name, raw := range cases {
		p, err := r.Build(name, json.RawMessage(raw))
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if p.Name() != name {
			t.Errorf("%s: built %q", name, p.Name())
		}
	}
}

func TestRegistry_ReportsMissingConfig(t *testing.T) {
	_, err := Registry().Build("brave", json.RawMessage(`{}`))
	var ce *search.ConfigError
	if !errors.As(err, &ce) || ce.Field != "apiKey" {
		t.Fatalf("unexpected error %v", err)
	}
	if _, err := Registry().Build("brave", json.RawMessage(`{"apiKey":"k","apikey_typo":1}`)); err == nil {
		t.Fatal("unknown config fields should be rejected")
	}
}
