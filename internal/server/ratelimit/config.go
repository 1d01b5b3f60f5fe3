package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults used when no limits are configured.
const (
	DefaultLimit         = 60
	DefaultGenerateLimit = 5
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Path pattern; "*" matches one segment, a trailing "/" matches any suffix
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// LoadConfig builds a Config with the given per-minute limits, overlaid with
// the RATE_LIMIT_* environment variables.
func LoadConfig(perMinute, generatePerMinute int) *Config {
	if !getEnvBool("RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}
	if perMinute <= 0 {
		perMinute = DefaultLimit
	}
	if generatePerMinute <= 0 {
		generatePerMinute = DefaultGenerateLimit
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    perMinute,
		DefaultWindow:   time.Minute,
		CleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		Whitelist:       parseIPList(os.Getenv("RATE_LIMIT_WHITELIST")),
		Blacklist:       parseIPList(os.Getenv("RATE_LIMIT_BLACKLIST")),
		EndpointConfigs: DefaultEndpointConfigs(generatePerMinute),
	}
}

// DefaultEndpointConfigs returns the endpoint-specific limits. Generation
// calls the external model and is limited separately from everything else.
func DefaultEndpointConfigs(generatePerMinute int) []EndpointConfig {
	burst := max(1, generatePerMinute/2)
	return []EndpointConfig{
		{Path: "/keyword-research/*/generate", Method: "POST", Limit: generatePerMinute, Window: time.Minute, Burst: burst},
		{Path: "/metrics", Method: "GET", Limit: 0},
	}
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// parseIPList parses a comma-separated list of IP addresses into a set.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
