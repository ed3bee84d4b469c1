// Package providers wires every search adapter into one name keyed
// registry, so a provider document can be hydrated without the caller
// importing each adapter package.
package providers

import (
	"github.com/hyperifyio/websearch/internal/providers/arxiv"
	"github.com/hyperifyio/websearch/internal/providers/brave"
	"github.com/hyperifyio/websearch/internal/providers/duckduckgo"
	"github.com/hyperifyio/websearch/internal/providers/exa"
	"github.com/hyperifyio/websearch/internal/providers/file"
	"github.com/hyperifyio/websearch/internal/providers/google"
	"github.com/hyperifyio/websearch/internal/providers/perplexity"
	"github.com/hyperifyio/websearch/internal/providers/searxng"
	"github.com/hyperifyio/websearch/internal/providers/serpapi"
	"github.com/hyperifyio/websearch/internal/providers/serper"
	"github.com/hyperifyio/websearch/internal/providers/tavily"
	"github.com/hyperifyio/websearch/internal/search"
)

// Registry returns a registry holding every built-in adapter.
func Registry() *search.Registry {
	r := search.NewRegistry()
	mustRegister(r, google.Name, search.JSONFactory(google.New))
	mustRegister(r, brave.Name, search.JSONFactory(brave.New))
	mustRegister(r, exa.Name, search.JSONFactory(exa.New))
	mustRegister(r, tavily.Name, search.JSONFactory(tavily.New))
	mustRegister(r, serpapi.Name, search.JSONFactory(serpapi.New))
	mustRegister(r, serper.Name, search.JSONFactory(serper.New))
	mustRegister(r, searxng.Name, search.JSONFactory(searxng.New))
	mustRegister(r, duckduckgo.Name, search.JSONFactory(duckduckgo.New))
	mustRegister(r, arxiv.Name, search.JSONFactory(arxiv.New))
	mustRegister(r, perplexity.Name, search.JSONFactory(perplexity.New))
	mustRegister(r, file.Name, search.JSONFactory(file.New))
	return r
}

func mustRegister(r *search.Registry, name string, f search.Factory) {
	if err := r.Register(name, f); err != nil {
		panic(err)
	}
}
