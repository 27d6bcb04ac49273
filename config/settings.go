// Package config provides the service configuration: server limits, how the
// index is built and served, logging, metrics and background jobs.
// Settings come from an optional YAML file, then DOCSEARCH_* environment
// variables, then defaults for anything still unset.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings is the top-level configuration.
type Settings struct {
	Server  ServerSettings  `yaml:"server"`
	Index   IndexSettings   `yaml:"index"`
	Logging LoggingSettings `yaml:"logging"`
	Metrics MetricsSettings `yaml:"metrics"`
	Jobs    JobSettings     `yaml:"jobs"`
}

// ServerSettings holds HTTP server settings.
type ServerSettings struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxRequestBytes int64         `yaml:"max_request_bytes"` // Upper bound for request bodies (batch lookups)
	LookupTimeout   time.Duration `yaml:"lookup_timeout"`    // Bound on one batch lookup; 0 disables it
}

// IndexSettings controls where the index comes from and how it is served.
type IndexSettings struct {
	CatalogPath          string        `yaml:"catalog_path"`          // Entity catalog (.json/.yaml); enables rebuilds
	BundlePath           string        `yaml:"bundle_path"`           // Prebuilt bundle (.json/.gob) loaded at startup
	DerivePartialTokens  bool          `yaml:"derive_partial_tokens"` // Split names into fragments when the catalog has none
	UnescapeDescriptions bool          `yaml:"unescape_descriptions"` // Turn &lt; and friends back into text
	Strict               bool          `yaml:"strict"`                // Abort a build on the first malformed entity
	WatchCatalog         bool          `yaml:"watch_catalog"`         // Rebuild when the catalog file changes
	WatchDebounce        time.Duration `yaml:"watch_debounce"`
	SuggestCacheSize     int           `yaml:"suggest_cache_size"` // Negative disables the suggestion cache
	MaxSuggestions       int           `yaml:"max_suggestions"`    // Default suggestion limit for the HTTP API; 0 means unlimited
}

// LoggingSettings controls structured logging level and output format.
type LoggingSettings struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// MetricsSettings controls the Prometheus endpoint.
type MetricsSettings struct {
	Enabled bool `yaml:"enabled"`
}

// JobSettings controls the background job manager.
type JobSettings struct {
	MaxWorkers int           `yaml:"max_workers"`
	Retention  time.Duration `yaml:"retention"`
}

// Default returns the settings used when nothing is configured.
func Default() *Settings {
	return &Settings{
		Server: ServerSettings{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxRequestBytes: 1 << 20,
			LookupTimeout:   5 * time.Second,
		},
		Index: IndexSettings{
			DerivePartialTokens:  true,
			UnescapeDescriptions: true,
			WatchDebounce:        500 * time.Millisecond,
			SuggestCacheSize:     1024,
			MaxSuggestions:       50,
		},
		Logging: LoggingSettings{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsSettings{
			Enabled: true,
		},
		Jobs: JobSettings{
			MaxWorkers: 2,
			Retention:  24 * time.Hour,
		},
	}
}

// Load reads a YAML settings file (if path is not empty), applies
// environment overrides and defaults, and validates the result.
func Load(path string) (*Settings, error) {
	settings := Default()
	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- path is given by the operator
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, settings); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	if err := settings.ApplyEnvOverrides(os.LookupEnv); err != nil {
		return nil, err
	}
	settings.ApplyDefaults()

	if problems := settings.Validate(); len(problems) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return settings, nil
}

// ApplyEnvOverrides overrides fields from DOCSEARCH_* variables found by lookup.
// Unparseable values are reported rather than silently ignored.
func (s *Settings) ApplyEnvOverrides(lookup func(string) (string, bool)) error {
	var problems []string

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				problems = append(problems, fmt.Sprintf("%s: %q is not an integer", key, v))
				return
			}
			*dst = n
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				problems = append(problems, fmt.Sprintf("%s: %q is not a boolean", key, v))
				return
			}
			*dst = b
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				problems = append(problems, fmt.Sprintf("%s: %q is not a duration", key, v))
				return
			}
			*dst = d
		}
	}

	integer("DOCSEARCH_SERVER_PORT", &s.Server.Port)
	duration("DOCSEARCH_SERVER_READ_TIMEOUT", &s.Server.ReadTimeout)
	duration("DOCSEARCH_SERVER_WRITE_TIMEOUT", &s.Server.WriteTimeout)
	duration("DOCSEARCH_SERVER_SHUTDOWN_TIMEOUT", &s.Server.ShutdownTimeout)
	duration("DOCSEARCH_SERVER_LOOKUP_TIMEOUT", &s.Server.LookupTimeout)
	str("DOCSEARCH_INDEX_CATALOG_PATH", &s.Index.CatalogPath)
	str("DOCSEARCH_INDEX_BUNDLE_PATH", &s.Index.BundlePath)
	boolean("DOCSEARCH_INDEX_DERIVE_PARTIAL_TOKENS", &s.Index.DerivePartialTokens)
	boolean("DOCSEARCH_INDEX_UNESCAPE_DESCRIPTIONS", &s.Index.UnescapeDescriptions)
	boolean("DOCSEARCH_INDEX_STRICT", &s.Index.Strict)
	boolean("DOCSEARCH_INDEX_WATCH_CATALOG", &s.Index.WatchCatalog)
	duration("DOCSEARCH_INDEX_WATCH_DEBOUNCE", &s.Index.WatchDebounce)
	integer("DOCSEARCH_INDEX_SUGGEST_CACHE_SIZE", &s.Index.SuggestCacheSize)
	integer("DOCSEARCH_INDEX_MAX_SUGGESTIONS", &s.Index.MaxSuggestions)
	str("DOCSEARCH_LOGGING_LEVEL", &s.Logging.Level)
	str("DOCSEARCH_LOGGING_FORMAT", &s.Logging.Format)
	boolean("DOCSEARCH_METRICS_ENABLED", &s.Metrics.Enabled)
	integer("DOCSEARCH_JOBS_MAX_WORKERS", &s.Jobs.MaxWorkers)
	duration("DOCSEARCH_JOBS_RETENTION", &s.Jobs.Retention)

	if v, ok := lookup("DOCSEARCH_SERVER_MAX_REQUEST_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			problems = append(problems, fmt.Sprintf("DOCSEARCH_SERVER_MAX_REQUEST_BYTES: %q is not an integer", v))
		} else {
			s.Server.MaxRequestBytes = n
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid environment overrides: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ApplyDefaults fills in zero values that have no meaningful zero setting.
func (s *Settings) ApplyDefaults() {
	defaults := Default()

	if s.Server.Port == 0 {
		s.Server.Port = defaults.Server.Port
	}
	if s.Server.ReadTimeout == 0 {
		s.Server.ReadTimeout = defaults.Server.ReadTimeout
	}
	if s.Server.WriteTimeout == 0 {
		s.Server.WriteTimeout = defaults.Server.WriteTimeout
	}
	if s.Server.ShutdownTimeout == 0 {
		s.Server.ShutdownTimeout = defaults.Server.ShutdownTimeout
	}
	if s.Server.MaxRequestBytes == 0 {
		s.Server.MaxRequestBytes = defaults.Server.MaxRequestBytes
	}
	if s.Index.WatchDebounce == 0 {
		s.Index.WatchDebounce = defaults.Index.WatchDebounce
	}
	if s.Logging.Level == "" {
		s.Logging.Level = defaults.Logging.Level
	}
	if s.Logging.Format == "" {
		s.Logging.Format = defaults.Logging.Format
	}
	if s.Jobs.MaxWorkers == 0 {
		s.Jobs.MaxWorkers = defaults.Jobs.MaxWorkers
	}
	if s.Jobs.Retention == 0 {
		s.Jobs.Retention = defaults.Jobs.Retention
	}
}

// Validate returns one message per problem found; an empty result means the
// settings are usable.
func (s *Settings) Validate() []string {
	var problems []string

	if s.Server.Port < 1 || s.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d is out of range (1-65535)", s.Server.Port))
	}
	if s.Server.ReadTimeout < 0 || s.Server.WriteTimeout < 0 || s.Server.ShutdownTimeout < 0 {
		problems = append(problems, "server timeouts must not be negative")
	}
	if s.Server.LookupTimeout < 0 {
		problems = append(problems, "server.lookup_timeout must not be negative")
	}
	if s.Server.MaxRequestBytes < 0 {
		problems = append(problems, "server.max_request_bytes must not be negative")
	}

	if err := checkExtension("index.catalog_path", s.Index.CatalogPath, ".json", ".yaml", ".yml"); err != "" {
		problems = append(problems, err)
	}
	if err := checkExtension("index.bundle_path", s.Index.BundlePath, ".json", ".gob"); err != "" {
		problems = append(problems, err)
	}
	if s.Index.WatchCatalog && s.Index.CatalogPath == "" {
		problems = append(problems, "index.watch_catalog requires index.catalog_path")
	}
	if s.Index.WatchDebounce < 0 {
		problems = append(problems, "index.watch_debounce must not be negative")
	}
	if s.Index.MaxSuggestions < 0 {
		problems = append(problems, "index.max_suggestions must not be negative")
	}

	switch strings.ToLower(s.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level '%s' is not one of debug, info, warn, error", s.Logging.Level))
	}
	switch strings.ToLower(s.Logging.Format) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format '%s' is not one of text, json", s.Logging.Format))
	}

	if s.Jobs.MaxWorkers < 1 {
		problems = append(problems, "jobs.max_workers must be at least 1")
	}
	if s.Jobs.Retention < 0 {
		problems = append(problems, "jobs.retention must not be negative")
	}

	return problems
}

func checkExtension(field, path string, allowed ...string) string {
	if path == "" {
		return ""
	}
	lower := strings.ToLower(path)
	for _, ext := range allowed {
		if strings.HasSuffix(lower, ext) {
			return ""
		}
	}
	return fmt.Sprintf("%s '%s' must end in one of %s", field, path, strings.Join(allowed, ", "))
}
