package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hyperifyio/websearch/internal/debug"
	"github.com/hyperifyio/websearch/internal/search"
)

// Environment variables read by ApplyEnv.
const (
	EnvConfigFile = "WEB_SEARCH_CONFIG_FILE"
	EnvTimeout    = "WEB_SEARCH_TIMEOUT"
	EnvMaxResults = "WEB_SEARCH_MAX_RESULTS"
	EnvDebug      = "WEB_SEARCH_DEBUG"
	EnvVerbose    = "VERBOSE"
)

// DefaultTimeout bounds each provider HTTP call when nothing else is set.
const DefaultTimeout = 15 * time.Second

// Config holds runtime settings resolved from flags, then env, then the
// document defaults.
type Config struct {
	ConfigPath string
	Timeout    time.Duration
	MaxResults int
	Language   string
	Region     string
	SafeSearch search.SafeSearch
	Debug      bool
	Verbose    bool
}

// ApplyEnv fills unset fields of cfg from environment variables. Explicit
// values take precedence.
func ApplyEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.ConfigPath == "" {
		cfg.ConfigPath = os.Getenv(EnvConfigFile)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = parseTimeout(os.Getenv(EnvTimeout))
	}
	if cfg.MaxResults == 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(EnvMaxResults))); err == nil && n > 0 {
			cfg.MaxResults = n
		}
	}
	setBool := func(dst *bool, key string) {
		if *dst {
			return
		}
		switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
		case "1", "true", "yes", "on":
			*dst = true
		}
	}
	setBool(&cfg.Debug, EnvDebug)
	setBool(&cfg.Verbose, EnvVerbose)
}

// ApplyDefaults fills remaining unset fields from the document defaults and
// finally from built-in values.
func ApplyDefaults(cfg *Config, d Defaults) {
	if cfg == nil {
		return
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = parseTimeout(d.Timeout)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxResults == 0 && d.MaxResults > 0 {
		cfg.MaxResults = d.MaxResults
	}
	if cfg.Language == "" {
		cfg.Language = d.Language
	}
	if cfg.Region == "" {
		cfg.Region = d.Region
	}
	if cfg.SafeSearch == "" {
		cfg.SafeSearch = search.ParseSafeSearch(d.SafeSearch)
	}
}

// DebugOptions maps the Debug flag onto the transport and engine hook.
// Verbose additionally logs HTTP traffic.
func (c Config) DebugOptions() debug.Options {
	return debug.Options{
		Enabled:      c.Debug || c.Verbose,
		LogRequests:  c.Verbose,
		LogResponses: c.Verbose,
	}
}

// Query fills the runtime defaults into q where q leaves them unset.
func (c Config) Query(q search.Query) search.Query {
	if q.MaxResults == 0 {
		q.MaxResults = c.MaxResults
	}
	if q.Timeout == 0 {
		q.Timeout = c.Timeout
	}
	if q.Language == "" {
		q.Language = c.Language
	}
	if q.Region == "" {
		q.Region = c.Region
	}
	if q.SafeSearch == "" {
		q.SafeSearch = c.SafeSearch
	}
	if !q.Debug.Enabled {
		q.Debug = c.DebugOptions()
	}
	return q
}

// parseTimeout accepts a Go duration ("10s") or a plain number of
// milliseconds ("10000").
func parseTimeout(s string) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if ms, err := strconv.Atoi(s); err == nil && ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return 0
}
