package engine

import (
	"errors"
	"net/http"
	"strings"

	"github.com/hyperifyio/websearch/internal/search"
	"github.com/hyperifyio/websearch/internal/transport"
)

// AggregateError is returned when every provider failed. Its message lists
// each provider's failure in request order.
type AggregateError struct {
	Outcomes []Outcome
}

func (e *AggregateError) Error() string {
	var b strings.Builder
	b.WriteString("All search providers failed:")
	for _, o := range e.Outcomes {
		b.WriteString("\n- ")
		b.WriteString(o.Provider)
		b.WriteString(": ")
		if o.Err != nil {
			b.WriteString(o.Err.Error())
		} else {
			b.WriteString("unknown error")
		}
	}
	return b.String()
}

// Unwrap exposes the per-provider errors to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error {
	errs := make([]error, 0, len(e.Outcomes))
	for _, o := range e.Outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errs
}

// troubleshootError appends advice to an underlying provider failure.
type troubleshootError struct {
	err    error
	advice string
}

func (e *troubleshootError) Error() string {
	return e.err.Error() + " (Troubleshooting: " + e.advice + ")"
}

func (e *troubleshootError) Unwrap() error { return e.err }

func enrich(provider string, err error) error {
	advice := Troubleshoot(provider, err)
	if advice == "" {
		return err
	}
	return &troubleshootError{err: err, advice: advice}
}

type pattern struct {
	provider string // empty matches every provider
	contains []string
	advice   string
}

var patterns = []pattern{
	{"duckduckgo", []string{"vqd"}, "DuckDuckGo withheld its search token, which usually means it is throttling automated traffic. Wait a few minutes or use another provider."},
	{"google", []string{"dailylimitexceeded", "quota exceeded"}, "The Google Custom Search daily quota is used up. It resets at midnight Pacific time or can be raised in the Cloud console."},
	{"google", []string{"has not been used in project", "accessnotconfigured"}, "Enable the Custom Search API for the Cloud project that owns this API key."},
	{"searxng", []string{"format=json", "json format"}, "Enable the json output format under search.formats in the SearXNG settings.yml."},
	{"searxng", []string{"connection refused", "no such host"}, "Check that the SearXNG instance is running and reachable at the configured baseUrl."},
	{"arxiv", []string{"malformed", "incorrect id format"}, "arXiv identifiers look like 2101.00001 or hep-th/9901001."},
	{"", []string{"invalid api key", "api key not valid", "invalid_api_key", "subscription_token_invalid"}, "The API key was rejected. Copy a fresh key from the provider dashboard into the configuration."},
	{"", []string{"out of credits", "not enough credits", "run out of searches", "usage limit", "insufficient"}, "The account has no remaining credits. Top up the plan or wait for the quota to reset."},
	{"", []string{"timed out", "deadline exceeded"}, "The provider did not answer in time. Raise the timeout or retry later."},
}

// Troubleshoot returns advice for a failed provider: a provider specific
// hint when the message matches a known pattern, otherwise a generic hint
// for the HTTP status. It returns "" when nothing applies.
func Troubleshoot(provider string, err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ToLower(err.Error())
	provider = strings.ToLower(provider)
	for _, p := range patterns {
		if p.provider != "" && p.provider != provider {
			continue
		}
		for _, c := range p.contains {
			if strings.Contains(msg, c) {
				return p.advice
			}
		}
	}
	return statusAdvice(statusOf(err))
}

func statusOf(err error) int {
	var pe *search.ProviderError
	if errors.As(err, &pe) && pe.StatusCode != 0 {
		return pe.StatusCode
	}
	var he *transport.HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}

func statusAdvice(status int) string {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return "Check that the API key is set, valid and allowed to use this endpoint."
	case status == http.StatusBadRequest:
		return "The provider rejected the request parameters. Check the query options and provider configuration."
	case status == http.StatusTooManyRequests:
		return "The provider is rate limiting this key. Slow down or upgrade the plan."
	case status >= 500:
		return "The provider reported a server-side problem. Try again later."
	}
	return ""
}
