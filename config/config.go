// Package config resolves the nexusd configuration exactly once at startup:
// a .env file if present, then environment variables, then an optional YAML
// overlay for tuning. Handlers never read the environment themselves.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// RateRule is the fixed-window budget for one endpoint.
type RateRule struct {
	MaxRequests   int `yaml:"max_requests"`
	WindowSeconds int `yaml:"window_seconds"`
}

// Window returns the rule's window as a duration.
func (r RateRule) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

// Config is the full nexusd configuration. Required secrets are validated by
// Validate; everything else has a default.
type Config struct {
	Listen   string `yaml:"listen"`
	LogLevel string `yaml:"log_level"`

	// Secrets. Env only, never from the YAML file.
	GeminiAPIKey        string `yaml:"-"`
	LicenseKey          string `yaml:"-"`
	FirebaseCredentials string `yaml:"-"` // path to the service account JSON

	// Gemini tuning.
	Model        string `yaml:"model"`
	ModelTimeout int    `yaml:"model_timeout_seconds"`

	// Upload ceiling, in base64 characters after whitespace stripping.
	MaxBase64Chars int `yaml:"max_base64_chars"`

	// Chart image bucket. Empty disables chart persistence.
	ChartBucket string `yaml:"chart_bucket"`

	// Local databases.
	LedgerDB string `yaml:"ledger_db"`
	EventsDB string `yaml:"events_db"`

	// Per-endpoint rate limits, keyed by handler name.
	RateRules map[string]RateRule `yaml:"rate_rules"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Listen:         ":8090",
		LogLevel:       "info",
		Model:          "gemini-2.5-flash",
		ModelTimeout:   25,
		MaxBase64Chars: 10 * 1024 * 1024, // ~7.5 MiB decoded
		LedgerDB:       "db/ledger.db",
		EventsDB:       "db/events.db",
		RateRules: map[string]RateRule{
			"analyze":  {MaxRequests: 10, WindowSeconds: 60},
			"activate": {MaxRequests: 10, WindowSeconds: 60},
			"history":  {MaxRequests: 30, WindowSeconds: 60},
		},
	}
}

// Load builds the configuration: defaults, then NEXUS_CONFIG YAML overlay if
// set, then environment variables. A .env file is honored when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if path := os.Getenv("NEXUS_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.GeminiAPIKey = env("GEMINI_API_KEY", "")
	cfg.LicenseKey = env("LICENSE_KEY", "")
	cfg.FirebaseCredentials = env("FIREBASE_CREDENTIALS", "")
	cfg.Listen = env("LISTEN", cfg.Listen)
	cfg.LogLevel = env("LOG_LEVEL", cfg.LogLevel)
	cfg.Model = env("GEMINI_MODEL", cfg.Model)
	cfg.ChartBucket = env("CHART_BUCKET", cfg.ChartBucket)
	cfg.LedgerDB = env("LEDGER_DB", cfg.LedgerDB)
	cfg.EventsDB = env("EVENTS_DB", cfg.EventsDB)
	if v := os.Getenv("MAX_BASE64_CHARS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("MAX_BASE64_CHARS: invalid value %q", v)
		}
		cfg.MaxBase64Chars = n
	}

	return cfg, cfg.Validate()
}

// Validate checks that the configuration is internally consistent. Missing
// upstream secrets are NOT fatal here: the handlers report them as server
// misconfiguration per request, so the service still answers health checks.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.Model == "" {
		return fmt.Errorf("model name is required")
	}
	if c.ModelTimeout <= 0 {
		return fmt.Errorf("model_timeout_seconds must be positive, got %d", c.ModelTimeout)
	}
	if c.MaxBase64Chars <= 0 {
		return fmt.Errorf("max_base64_chars must be positive, got %d", c.MaxBase64Chars)
	}
	for name, rule := range c.RateRules {
		if rule.MaxRequests <= 0 || rule.WindowSeconds <= 0 {
			return fmt.Errorf("rate rule %q: max_requests and window_seconds must be positive", name)
		}
	}
	return nil
}

// Rule returns the rate rule for a handler, falling back to the analyze
// budget so an unconfigured endpoint is never unlimited.
func (c *Config) Rule(handler string) RateRule {
	if r, ok := c.RateRules[handler]; ok {
		return r
	}
	return RateRule{MaxRequests: 10, WindowSeconds: 60}
}

// ModelDeadline returns the per-call model timeout as a duration.
func (c *Config) ModelDeadline() time.Duration {
	return time.Duration(c.ModelTimeout) * time.Second
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
