// Package perplexity adapts Perplexity's OpenAI-compatible chat completions
// endpoint. The answer is returned as the Content of the first result and
// every cited source becomes one result. An answer without sources becomes
// a single result pointing at the Perplexity search page for the query.
package perplexity

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/websearch/internal/search"
	"github.com/hyperifyio/websearch/internal/transport"
)

const (
	Name           = "perplexity"
	display        = "Perplexity"
	defaultBaseURL = "https://api.perplexity.ai"
	defaultModel   = "sonar"
	defaultMax     = 10
	maxResults     = 50
	answerURL      = "https://www.perplexity.ai/search"
	answerTitle    = "Perplexity answer"

	defaultSystemPrompt = "You are a search assistant. Answer concisely and cite the web sources you used."
)

// Config configures the Perplexity adapter.
type Config struct {
	APIKey  string `json:"apiKey"`
	BaseURL string `json:"baseUrl,omitempty"`
	// Model defaults to "sonar".
	Model        string   `json:"model,omitempty"`
	SystemPrompt string   `json:"systemPrompt,omitempty"`
	MaxTokens    int      `json:"maxTokens,omitempty"`
	Temperature  *float32 `json:"temperature,omitempty"`
	// SearchDomainFilter limits sources; entries prefixed with "-" exclude.
	SearchDomainFilter []string `json:"searchDomainFilter,omitempty"`
	// SearchRecencyFilter is one of hour, day, week, month or year.
	SearchRecencyFilter string `json:"searchRecencyFilter,omitempty"`

	HTTPClient *http.Client `json:"-"`
}

// Provider queries Perplexity.
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

// New validates cfg and returns a ready provider.
func New(cfg Config) (*Provider, error) {
	if err := search.MissingConfig(Name, "apiKey", cfg.APIKey); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = defaultModel
	}
	if strings.TrimSpace(cfg.SystemPrompt) == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}
	return &Provider{
		cfg:    cfg,
		client: transport.NewClient(cfg.HTTPClient),
		classify: search.Classifier{Name: Name, Display: display, Hints: []search.Hint{
			{Status: http.StatusUnauthorized, Text: "Invalid Perplexity API key"},
			{Status: http.StatusBadRequest, Contains: "model", Text: "Unknown or unavailable model; check the model setting"},
			{Contains: "insufficient", Text: "Perplexity account has insufficient credits"},
		}},
	}, nil
}

func (p *Provider) Name() string { return Name }

func (p *Provider) DisplayName() string { return display }

type request struct {
	Model               string                         `json:"model"`
	Messages            []openai.ChatCompletionMessage `json:"messages"`
	MaxTokens           int                            `json:"max_tokens,omitempty"`
	Temperature         *float32                       `json:"temperature,omitempty"`
	SearchDomainFilter  []string                       `json:"search_domain_filter,omitempty"`
	SearchRecencyFilter string                         `json:"search_recency_filter,omitempty"`
}

type source struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Date        string `json:"date"`
	LastUpdated string `json:"last_updated"`
	Snippet     string `json:"snippet"`
}

// completion is an OpenAI chat completion extended with Perplexity's
// source fields.
type completion struct {
	openai.ChatCompletionResponse
	Citations     []string `json:"citations"`
	SearchResults []source `json:"search_results"`
}

// Search asks the model the query and maps its sources.
func (p *Provider) Search(ctx context.Context, q search.Query) ([]search.Result, error) {
	if !q.HasText() {
		return nil, p.classify.Wrap(search.ErrEmptyQuery)
	}
	req := request{
		Model: p.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.cfg.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: q.Terms()},
		},
		MaxTokens:           p.cfg.MaxTokens,
		Temperature:         p.cfg.Temperature,
		SearchDomainFilter:  p.cfg.SearchDomainFilter,
		SearchRecencyFilter: p.cfg.SearchRecencyFilter,
	}
	if v := q.ExtraString("search_recency_filter"); v != "" {
		req.SearchRecencyFilter = v
	}
	if v := q.ExtraStrings("search_domain_filter"); len(v) > 0 {
		req.SearchDomainFilter = v
	}

	resp, err := p.client.Do(ctx, strings.TrimRight(p.cfg.BaseURL, "/")+"/chat/completions", transport.Options{
		Method:  http.MethodPost,
		Headers: map[string]string{"Authorization": "Bearer " + p.cfg.APIKey},
		Body:    req,
		Timeout: q.Timeout,
		Debug:   q.Debug,
	})
	if err != nil {
		return nil, p.classify.Wrap(err)
	}
	var body completion
	if err := resp.JSON(&body); err != nil {
		return nil, p.classify.Wrap(err)
	}
	return mapSources(body, q.Terms(), search.Clamp(q.MaxResults, 1, maxResults, defaultMax)), nil
}

func mapSources(c completion, query string, limit int) []search.Result {
	answer := ""
	if len(c.Choices) > 0 {
		answer = strings.TrimSpace(c.Choices[0].Message.Content)
	}

	sources := c.SearchResults
	if len(sources) == 0 {
		for _, u := range c.Citations {
			sources = append(sources, source{URL: u})
		}
	}

	out := make([]search.Result, 0, min(len(sources), limit))
	for _, s := range sources {
		if strings.TrimSpace(s.URL) == "" {
			continue
		}
		title := s.Title
		if strings.TrimSpace(title) == "" {
			title = search.Domain(s.URL)
		}
		res := search.NewResult(Name, s.URL, title, s)
		res.Snippet = search.CollapseSpace(s.Snippet)
		res.PublishedDate = s.Date
		if len(out) == 0 {
			res.Content = answer
		}
		out = append(out, res)
		if len(out) >= limit {
			break
		}
	}
	if len(out) == 0 && answer != "" {
		res := search.NewResult(Name, answerURL+"?q="+url.QueryEscape(query), answerTitle, c.ChatCompletionResponse)
		res.Snippet = search.Truncate(search.CollapseSpace(answer), 300)
		res.Content = answer
		out = append(out, res)
	}
	return out
}
