// Package engine fans one query out to several search providers and merges
// what comes back. A failing provider never hides the results of the
// others; only when every provider fails does the caller see an error.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hyperifyio/websearch/internal/search"
)

var (
	// ErrNoProviders is returned when a request names no provider.
	ErrNoProviders = errors.New("at least one search provider is required")
	// ErrQueryRequired is returned when the query is blank and no provider
	// can search by identifier list instead.
	ErrQueryRequired = errors.New("query or ID list required")
)

// Request is one aggregated search.
type Request struct {
	Providers []search.Provider
	Query     search.Query
}

// Outcome is what one provider produced. Exactly one of Results and Err is
// meaningful: Err == nil means success, possibly with zero results.
type Outcome struct {
	Provider string
	Results  []search.Result
	Err      error
	Elapsed  time.Duration
}

// OK reports whether the provider succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

// WebSearch runs req and returns the merged results.
func WebSearch(ctx context.Context, req Request) ([]search.Result, error) {
	outcomes, err := Run(ctx, req)
	if err != nil {
		return nil, err
	}
	return Merge(outcomes)
}

// Run validates req, queries every provider concurrently and returns one
// Outcome per provider in the order they were supplied. The error is
// non-nil only for invalid requests; provider failures live in the
// outcomes.
func Run(ctx context.Context, req Request) ([]Outcome, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	q := req.Query
	runID := uuid.NewString()
	names := make([]string, len(req.Providers))
	for i, p := range req.Providers {
		names[i] = p.Name()
	}
	q.Debug.Log("dispatching search", map[string]any{
		"run":       runID,
		"providers": names,
		"query":     q.Terms(),
		"idList":    q.IDList,
	})

	start := time.Now()
	outcomes := make([]Outcome, len(req.Providers))
	var wg sync.WaitGroup
	for i, p := range req.Providers {
		wg.Add(1)
		go func(i int, p search.Provider) {
			defer wg.Done()
			o := searchOne(ctx, p, names[i], q)
			outcomes[i] = o
			if o.Err != nil {
				q.Debug.Log("provider failed", map[string]any{
					"run":        runID,
					"provider":   o.Provider,
					"error":      o.Err.Error(),
					"elapsed_ms": o.Elapsed.Milliseconds(),
				})
				return
			}
			q.Debug.Log("provider finished", map[string]any{
				"run":        runID,
				"provider":   o.Provider,
				"results":    len(o.Results),
				"elapsed_ms": o.Elapsed.Milliseconds(),
			})
		}(i, p)
	}
	wg.Wait()

	succeeded, total := 0, 0
	for _, o := range outcomes {
		if o.OK() {
			succeeded++
			total += len(o.Results)
		}
	}
	q.Debug.Log("search complete", map[string]any{
		"run":        runID,
		"results":    total,
		"succeeded":  succeeded,
		"failed":     len(outcomes) - succeeded,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return outcomes, nil
}

// Merge concatenates successful results in outcome order. When every
// outcome failed it returns an *AggregateError.
func Merge(outcomes []Outcome) ([]search.Result, error) {
	out := make([]search.Result, 0)
	anyOK := false
	for _, o := range outcomes {
		if !o.OK() {
			continue
		}
		anyOK = true
		out = append(out, o.Results...)
	}
	if !anyOK {
		return nil, &AggregateError{Outcomes: outcomes}
	}
	return out, nil
}

func validate(req Request) error {
	if len(req.Providers) == 0 {
		return ErrNoProviders
	}
	for i, p := range req.Providers {
		if p == nil {
			return fmt.Errorf("provider at index %d is nil", i)
		}
	}
	if req.Query.HasText() {
		return nil
	}
	if len(req.Query.IDList) > 0 {
		for _, p := range req.Providers {
			if search.SupportsIDList(p) {
				return nil
			}
		}
	}
	return ErrQueryRequired
}

// searchOne calls p and turns both returned errors and panics into an
// enriched Outcome error.
func searchOne(ctx context.Context, p search.Provider, name string, q search.Query) (o Outcome) {
	o.Provider = name
	start := time.Now()
	defer func() {
		o.Elapsed = time.Since(start)
		if r := recover(); r != nil {
			o.Results = nil
			o.Err = enrich(name, fmt.Errorf("%s search failed: %s", search.DisplayName(p), panicText(r)))
		}
	}()
	results, err := p.Search(ctx, q)
	if err != nil {
		o.Err = enrich(name, err)
		return o
	}
	if results == nil {
		results = []search.Result{}
	}
	o.Results = results
	return o
}

func panicText(r any) string {
	if err, ok := r.(error); ok {
		return err.Error()
	}
	s := strings.TrimSpace(fmt.Sprint(r))
	if s == "" {
		return "unknown error"
	}
	return s
}
