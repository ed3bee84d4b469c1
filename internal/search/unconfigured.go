package search

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotConfigured is wrapped by every Search call on an Unconfigured value.
var ErrNotConfigured = errors.New("provider must be configured before use")

// Unconfigured is the named placeholder each adapter package exports so
// callers can refer to a provider before configuring it. Search always
// fails without touching the network; Configure returns an independent,
// ready-to-use provider.
type Unconfigured[C any] struct {
	name    string
	display string
	factory func(C) (Provider, error)
}

// NewUnconfigured returns a placeholder for name whose Configure calls
// factory. display is the human name used in error messages.
func NewUnconfigured[C any](name, display string, factory func(C) (Provider, error)) Unconfigured[C] {
	return Unconfigured[C]{name: name, display: display, factory: factory}
}

func (u Unconfigured[C]) Name() string { return u.name }

func (u Unconfigured[C]) DisplayName() string {
	if u.display == "" {
		return u.name
	}
	return u.display
}

// Configure builds a provider from cfg.
func (u Unconfigured[C]) Configure(cfg C) (Provider, error) {
	if u.factory == nil {
		return nil, fmt.Errorf("%s: no factory registered", u.name)
	}
	return u.factory(cfg)
}

// Search always fails with a ProviderError wrapping ErrNotConfigured.
func (u Unconfigured[C]) Search(context.Context, Query) ([]Result, error) {
	return nil, &ProviderError{
		Provider: u.name,
		Display:  u.DisplayName(),
		Err:      fmt.Errorf("%s %w", u.name, ErrNotConfigured),
	}
}
