// Package config provides configuration loading and validation for the CLI
// and the HTTP server.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Default values applied by MergeWithDefaults(Defaults()).
const (
	DefaultPort                = 8080
	DefaultLogMode             = "development"
	DefaultLocation            = "Australia"
	DefaultCallToActionURL     = "/get-quotes"
	DefaultCallToActionText    = "Get Your Free Quotes Now!"
	DefaultGenerationTimeout   = 180
	DefaultHighlightCacheSize  = 256
	DefaultHighlightCacheTTL   = 3600
	DefaultRateLimitPerMinute  = 60
	DefaultGenerateLimitPerMin = 5
)

// Config represents the service configuration. It can be loaded from a JSON
// file and is then overlaid with environment variables.
type Config struct {
	// Storage
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
	RedisURL    string `json:"redis_url,omitempty"`    // Optional highlight cache backend

	// Generation service
	APIKey            string `json:"api_key,omitempty"`            // Gemini API key
	Model             string `json:"model,omitempty"`              // Overrides the standard tier model
	GenerationTimeout int    `json:"generation_timeout,omitempty"` // Seconds

	// Content defaults
	CallToActionURL  string `json:"cta_url,omitempty"`
	CallToActionText string `json:"cta_text,omitempty"`
	DefaultLocation  string `json:"default_location,omitempty"`

	// Server
	Port                int    `json:"port,omitempty"`
	AllowedOrigin       string `json:"allowed_origin,omitempty"`
	RateLimitPerMinute  int    `json:"rate_limit_per_minute,omitempty"`
	GenerateLimitPerMin int    `json:"generate_limit_per_minute,omitempty"`
	HighlightCacheSize  int    `json:"highlight_cache_size,omitempty"`
	HighlightCacheTTL   int    `json:"highlight_cache_ttl,omitempty"` // Seconds

	// Behavior
	LogMode string `json:"log_mode,omitempty"` // "production" or "development"
	Verbose bool   `json:"verbose,omitempty"`  // Print detailed debug information
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Load reads the optional file at path, overlays the environment, fills
// defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	merged := cfg.MergeWithDefaults(Defaults())
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// Defaults returns the default configuration.
func Defaults() Config {
	return Config{
		Port:                DefaultPort,
		LogMode:             DefaultLogMode,
		DefaultLocation:     DefaultLocation,
		CallToActionURL:     DefaultCallToActionURL,
		CallToActionText:    DefaultCallToActionText,
		GenerationTimeout:   DefaultGenerationTimeout,
		HighlightCacheSize:  DefaultHighlightCacheSize,
		HighlightCacheTTL:   DefaultHighlightCacheTTL,
		RateLimitPerMinute:  DefaultRateLimitPerMinute,
		GenerateLimitPerMin: DefaultGenerateLimitPerMin,
	}
}

// ApplyEnv overrides fields from environment variables. Unset variables
// leave the field unchanged.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := []struct {
		key string
		dst *string
	}{
		{"DATABASE_URL", &c.DatabaseURL},
		{"REDIS_URL", &c.RedisURL},
		{"GEMINI_API_KEY", &c.APIKey},
		{"GEMINI_MODEL", &c.Model},
		{"CTA_URL", &c.CallToActionURL},
		{"CTA_TEXT", &c.CallToActionText},
		{"DEFAULT_LOCATION", &c.DefaultLocation},
		{"ALLOWED_ORIGIN", &c.AllowedOrigin},
		{"LOG_MODE", &c.LogMode},
	}
	for _, s := range strs {
		if v, ok := lookup(s.key); ok && strings.TrimSpace(v) != "" {
			*s.dst = strings.TrimSpace(v)
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"PORT", &c.Port},
		{"GENERATION_TIMEOUT", &c.GenerationTimeout},
		{"RATE_LIMIT_PER_MINUTE", &c.RateLimitPerMinute},
		{"GENERATE_LIMIT_PER_MINUTE", &c.GenerateLimitPerMin},
		{"HIGHLIGHT_CACHE_SIZE", &c.HighlightCacheSize},
		{"HIGHLIGHT_CACHE_TTL", &c.HighlightCacheTTL},
	}
	for _, i := range ints {
		v, ok := lookup(i.key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config error: %s must be an integer: %w", i.key, err)
		}
		*i.dst = n
	}
	return nil
}

// Validate checks that the configuration has valid values.
// Required values are checked by the commands that need them.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}
	if c.GenerationTimeout < 0 {
		return fmt.Errorf("config error: 'generation_timeout' must be non-negative")
	}
	if c.RateLimitPerMinute < 0 || c.GenerateLimitPerMin < 0 {
		return fmt.Errorf("config error: rate limits must be non-negative")
	}
	if c.HighlightCacheSize < 0 || c.HighlightCacheTTL < 0 {
		return fmt.Errorf("config error: highlight cache settings must be non-negative")
	}

	switch strings.ToLower(c.LogMode) {
	case "", "dev", "development", "prod", "production":
	default:
		return fmt.Errorf("config error: unknown 'log_mode' %q", c.LogMode)
	}

	if c.RedisURL != "" {
		if _, err := url.Parse(c.RedisURL); err != nil {
			return fmt.Errorf("config error: invalid 'redis_url': %w", err)
		}
	}
	return nil
}

// RequireDatabase reports an error when no database URL is configured.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config error: database URL is required (set DATABASE_URL or 'database_url')")
	}
	return nil
}

// RequireAPIKey reports an error when no generation service key is configured.
func (c *Config) RequireAPIKey() error {
	if c.APIKey == "" {
		return fmt.Errorf("config error: API key is required (set GEMINI_API_KEY or 'api_key')")
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	strs := []struct {
		dst *string
		def string
	}{
		{&result.DatabaseURL, defaults.DatabaseURL},
		{&result.RedisURL, defaults.RedisURL},
		{&result.APIKey, defaults.APIKey},
		{&result.Model, defaults.Model},
		{&result.CallToActionURL, defaults.CallToActionURL},
		{&result.CallToActionText, defaults.CallToActionText},
		{&result.DefaultLocation, defaults.DefaultLocation},
		{&result.AllowedOrigin, defaults.AllowedOrigin},
		{&result.LogMode, defaults.LogMode},
	}
	for _, s := range strs {
		if *s.dst == "" {
			*s.dst = s.def
		}
	}

	ints := []struct {
		dst *int
		def int
	}{
		{&result.Port, defaults.Port},
		{&result.GenerationTimeout, defaults.GenerationTimeout},
		{&result.RateLimitPerMinute, defaults.RateLimitPerMinute},
		{&result.GenerateLimitPerMin, defaults.GenerateLimitPerMin},
		{&result.HighlightCacheSize, defaults.HighlightCacheSize},
		{&result.HighlightCacheTTL, defaults.HighlightCacheTTL},
	}
	for _, i := range ints {
		if *i.dst == 0 {
			*i.dst = i.def
		}
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
