// Package config loads the provider document and the runtime settings
// shared by the CLI and the MCP server.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	yaml "gopkg.in/yaml.v3"

	"github.com/hyperifyio/websearch/internal/search"
)

// EnvDocument holds an inline provider document, or a path to one.
const EnvDocument = "WEB_SEARCH_CONFIG"

// ErrNoDocument is returned when neither a file nor EnvDocument is set.
var ErrNoDocument = errors.New("no provider configuration: set " + EnvDocument + " or pass --config")

// Document is the serialized provider list:
//
//	providers:
//	  - name: brave
//	    config: {apiKey: "${BRAVE_API_KEY}"}
type Document struct {
	Providers []ProviderEntry `json:"providers"`
	Defaults  Defaults        `json:"defaults,omitempty"`
}

// ProviderEntry names one adapter and carries its raw configuration.
type ProviderEntry struct {
	Name   string          `json:"name"`
	Config json.RawMessage `json:"config,omitempty"`
	// Disabled entries are kept in the file but not hydrated.
	Disabled bool `json:"disabled,omitempty"`
}

// Defaults are query settings applied when a call leaves them unset.
type Defaults struct {
	MaxResults int    `json:"maxResults,omitempty"`
	Timeout    string `json:"timeout,omitempty"`
	Language   string `json:"language,omitempty"`
	Region     string `json:"region,omitempty"`
	SafeSearch string `json:"safeSearch,omitempty"`
}

// LoadDocument reads the provider document from path, or from EnvDocument
// when path is empty. The variable may hold the document itself or a path.
func LoadDocument(path string) (Document, error) {
	if strings.TrimSpace(path) != "" {
		return LoadDocumentFile(path)
	}
	v := strings.TrimSpace(os.Getenv(EnvDocument))
	if v == "" {
		return Document{}, ErrNoDocument
	}
	if fi, err := os.Stat(v); err == nil && !fi.IsDir() {
		return LoadDocumentFile(v)
	}
	doc, err := ParseDocument([]byte(v), "")
	if err != nil {
		return Document{}, fmt.Errorf("%s: %w", EnvDocument, err)
	}
	return doc, nil
}

// LoadDocumentFile reads a YAML or JSON document chosen by extension.
func LoadDocumentFile(path string) (Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	format := ""
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		format = "yaml"
	case ".json":
		format = "json"
	}
	doc, err := ParseDocument(b, format)
	if err != nil {
		return Document{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// ParseDocument decodes b after expanding ${VAR} references. format is
// "json", "yaml", or "" to try JSON and then YAML. Values substituted into
// JSON are string-escaped.
func ParseDocument(b []byte, format string) (Document, error) {
	switch format {
	case "json":
		return parseJSON([]byte(expandJSON(string(b))))
	case "yaml":
		return parseYAML([]byte(ExpandEnv(string(b))))
	}
	doc, jerr := parseJSON([]byte(expandJSON(string(b))))
	if jerr == nil {
		return doc, nil
	}
	doc, yerr := parseYAML([]byte(ExpandEnv(string(b))))
	if yerr != nil {
		return Document{}, fmt.Errorf("parse config: %v (json) / %v (yaml)", jerr, yerr)
	}
	return doc, nil
}

func parseJSON(b []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return Document{}, fmt.Errorf("parse json: %w", err)
	}
	return doc, nil
}

// parseYAML goes through a generic tree because provider configs stay raw
// JSON until the matching adapter decodes them.
func parseYAML(b []byte) (Document, error) {
	var tree any
	if err := yaml.Unmarshal(b, &tree); err != nil {
		return Document{}, fmt.Errorf("parse yaml: %w", err)
	}
	j, err := json.Marshal(tree)
	if err != nil {
		return Document{}, fmt.Errorf("parse yaml: %w", err)
	}
	return parseJSON(j)
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnv replaces ${VAR} and ${VAR:-default} with environment values.
// A bare $ is left alone so keys containing dollar signs survive.
func ExpandEnv(s string) string {
	return expand(s, func(v string) string { return v })
}

// expandJSON is ExpandEnv for references inside JSON strings: quotes,
// backslashes and control characters in values are escaped.
func expandJSON(s string) string {
	return expand(s, func(v string) string {
		b, err := json.Marshal(v)
		if err != nil {
			return v
		}
		return string(b[1 : len(b)-1])
	})
}

func expand(s string, quote func(string) string) string {
	return envRef.ReplaceAllStringFunc(s, func(m string) string {
		sub := envRef.FindStringSubmatch(m)
		if v, ok := os.LookupEnv(sub[1]); ok && v != "" {
			return quote(v)
		}
		return quote(sub[2])
	})
}

// Hydrate builds every enabled provider in document order.
func Hydrate(doc Document, reg *search.Registry) ([]search.Provider, error) {
	out := make([]search.Provider, 0, len(doc.Providers))
	for i, e := range doc.Providers {
		if e.Disabled {
			continue
		}
		if strings.TrimSpace(e.Name) == "" {
			return nil, fmt.Errorf("providers[%d]: name is required", i)
		}
		p, err := reg.Build(e.Name, e.Config)
		if err != nil {
			return nil, fmt.Errorf("providers[%d]: %w", i, err)
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, errors.New("provider configuration lists no enabled providers")
	}
	return out, nil
}
