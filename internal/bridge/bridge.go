// Package bridge exposes the aggregation engine as the web_search MCP tool.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hyperifyio/websearch/internal/config"
	"github.com/hyperifyio/websearch/internal/engine"
	"github.com/hyperifyio/websearch/internal/mcp"
	"github.com/hyperifyio/websearch/internal/search"
)

// ToolName is the MCP name of the search tool.
const ToolName = "web_search"

// InputSchema describes the tool arguments. Either query or idList must be
// present.
const InputSchema = `{
  "type": "object",
  "properties": {
    "query": {"type": "string", "description": "Search terms"},
    "maxResults": {"type": "integer", "minimum": 1, "maximum": 100, "description": "Maximum results per provider"},
    "region": {"type": "string", "description": "Region hint, e.g. US or de-AT"},
    "language": {"type": "string", "description": "Language hint, e.g. en or pt-BR"},
    "idList": {"type": "array", "items": {"type": "string"}, "description": "arXiv identifiers to fetch instead of a query"},
    "page": {"type": "integer", "minimum": 1},
    "safeSearch": {"type": "string", "enum": ["off", "moderate", "strict"]},
    "providers": {"type": "array", "items": {"type": "string"}, "description": "Restrict the search to these configured providers"},
    "includeRaw": {"type": "boolean", "description": "Include each provider's untransformed record"}
  },
  "anyOf": [
    {"required": ["query"]},
    {"required": ["idList"], "properties": {"idList": {"minItems": 1}}}
  ],
  "additionalProperties": false
}`

// Args are the decoded tool arguments.
type Args struct {
	Query      string   `json:"query"`
	MaxResults int      `json:"maxResults,omitempty"`
	Region     string   `json:"region,omitempty"`
	Language   string   `json:"language,omitempty"`
	IDList     []string `json:"idList,omitempty"`
	Page       int      `json:"page,omitempty"`
	SafeSearch string   `json:"safeSearch,omitempty"`
	Providers  []string `json:"providers,omitempty"`
	IncludeRaw bool     `json:"includeRaw,omitempty"`
}

// SearchFunc runs an aggregated search. engine.WebSearch is the default.
type SearchFunc func(ctx context.Context, req engine.Request) ([]search.Result, error)

// Tool serves web_search calls against providers hydrated at startup.
type Tool struct {
	Providers []search.Provider
	Config    config.Config
	Search    SearchFunc
}

// Handle runs one tool call and returns the results as a JSON array.
func (t *Tool) Handle(ctx context.Context, raw json.RawMessage) (string, error) {
	var args Args
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", fmt.Errorf("decode arguments: %w", err)
	}
	providers, err := t.selectProviders(args.Providers)
	if err != nil {
		return "", err
	}
	q := t.Config.Query(search.Query{
		Text:       args.Query,
		IDList:     args.IDList,
		Page:       args.Page,
		MaxResults: args.MaxResults,
		Region:     args.Region,
		Language:   args.Language,
		SafeSearch: search.ParseSafeSearch(args.SafeSearch),
	})
	run := t.Search
	if run == nil {
		run = engine.WebSearch
	}
	results, err := run(ctx, engine.Request{Providers: providers, Query: q})
	if err != nil {
		return "", err
	}
	if !args.IncludeRaw {
		for i := range results {
			results[i].Raw = nil
		}
	}
	b, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode results: %w", err)
	}
	return string(b), nil
}

func (t *Tool) selectProviders(names []string) ([]search.Provider, error) {
	if len(names) == 0 {
		return t.Providers, nil
	}
	out := make([]search.Provider, 0, len(names))
	for _, n := range names {
		found := false
		for _, p := range t.Providers {
			if strings.EqualFold(p.Name(), strings.TrimSpace(n)) {
				out = append(out, p)
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("provider %q is not configured (configured: %s)", n, strings.Join(t.names(), ", "))
		}
	}
	return out, nil
}

func (t *Tool) names() []string {
	out := make([]string, 0, len(t.Providers))
	for _, p := range t.Providers {
		out = append(out, p.Name())
	}
	return out
}

// Register adds t to reg as the web_search tool.
func Register(reg *mcp.Registry, t *Tool) error {
	return reg.Register(mcp.Tool{
		Name:        ToolName,
		Description: fmt.Sprintf("Search the web through the configured providers (%s) and return normalized results as JSON.", strings.Join(t.names(), ", ")),
		InputSchema: json.RawMessage(InputSchema),
		Handler:     t.Handle,
	})
}

// NewServer returns an MCP server exposing t.
func NewServer(t *Tool, version string) (*mcp.Server, error) {
	reg := mcp.NewRegistry()
	if err := Register(reg, t); err != nil {
		return nil, err
	}
	srv := mcp.NewServer(mcp.ServerInfo{Name: "websearch", Version: version}, reg)
	srv.Instructions = "Call " + ToolName + " with a query to search the web. Results from every provider are merged in configuration order."
	return srv, nil
}
