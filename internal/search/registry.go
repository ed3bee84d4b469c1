package search

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory builds a provider from its serialized configuration.
type Factory func(raw json.RawMessage) (Provider, error)

// JSONFactory adapts a typed constructor into a Factory that decodes the
// configuration document first. Unknown fields are rejected so a typo in a
// config key does not silently drop a setting.
func JSONFactory[C any, P Provider](build func(C) (P, error)) Factory {
	return func(raw json.RawMessage) (Provider, error) {
		var cfg C
		if len(raw) > 0 && string(raw) != "null" {
			dec := json.NewDecoder(strings.NewReader(string(raw)))
			dec.DisallowUnknownFields()
			if err := dec.Decode(&cfg); err != nil {
				return nil, fmt.Errorf("decode config: %w", err)
			}
		}
		p, err := build(cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}

// Registry maps provider names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory. Names are case-insensitive and unique.
func (r *Registry) Register(name string, f Factory) error {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return fmt.Errorf("provider name is required")
	}
	if f == nil {
		return fmt.Errorf("provider %q: factory must not be nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[key]; exists {
		return fmt.Errorf("provider already registered: %q", key)
	}
	r.factories[key] = f
	return nil
}

// Build constructs the named provider from raw configuration.
func (r *Registry) Build(name string, raw json.RawMessage) (Provider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	r.mu.RLock()
	f, ok := r.factories[key]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown provider %q (available: %s)", name, strings.Join(r.Names(), ", "))
	}
	p, err := f(raw)
	if err != nil {
		return nil, fmt.Errorf("configure %s: %w", key, err)
	}
	return p, nil
}

// Names lists registered providers alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
