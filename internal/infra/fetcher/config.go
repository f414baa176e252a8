package fetcher

import (
	"fmt"
	"strconv"
	"time"

	"feedhub/internal/pkg/config"
)

// DefaultUserAgent is a browser-like User-Agent. Several feed hosts reject
// requests from unknown clients.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Config holds the configuration of the feed HTTP client.
type Config struct {
	// Timeout bounds a single fetch, including reading the body.
	// Default: 10s
	Timeout time.Duration

	// UserAgent is sent with every request.
	UserAgent string

	// MaxBodySize is the maximum response size in bytes.
	// Default: 10485760 (10MB)
	MaxBodySize int64

	// MaxRedirects is the maximum number of redirects to follow.
	// Default: 5
	MaxRedirects int

	// DenyPrivateIPs rejects URLs and redirect targets that resolve to
	// private, loopback or link-local addresses.
	// Default: true
	DenyPrivateIPs bool

	// HostRate is the sustained number of requests per second sent to one host.
	// Zero disables per-host limiting.
	// Default: 2
	HostRate float64

	// HostBurst is the number of requests a host may receive at once.
	// Default: 2
	HostBurst int
}

// DefaultConfig returns the default configuration for feed fetching.
func DefaultConfig() Config {
	return Config{
		Timeout:        10 * time.Second,
		UserAgent:      DefaultUserAgent,
		MaxBodySize:    10 * 1024 * 1024,
		MaxRedirects:   5,
		DenyPrivateIPs: true,
		HostRate:       2,
		HostBurst:      2,
	}
}

// Validate checks if the configuration values are valid.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}

	if c.UserAgent == "" {
		return fmt.Errorf("user agent must not be empty")
	}

	minBodySize := int64(1024)
	maxBodySize := int64(100 * 1024 * 1024)
	if c.MaxBodySize < minBodySize || c.MaxBodySize > maxBodySize {
		return fmt.Errorf("max body size must be between %d and %d bytes, got %d", minBodySize, maxBodySize, c.MaxBodySize)
	}

	if c.MaxRedirects < 0 || c.MaxRedirects > 10 {
		return fmt.Errorf("max redirects must be between 0 and 10, got %d", c.MaxRedirects)
	}

	if c.HostRate < 0 {
		return fmt.Errorf("host rate must be non-negative, got %v", c.HostRate)
	}

	if c.HostRate > 0 && c.HostBurst < 1 {
		return fmt.Errorf("host burst must be at least 1 when host rate is set, got %d", c.HostBurst)
	}

	return nil
}

// LoadConfigFromEnv loads configuration from environment variables.
// Unset variables keep their default. A malformed value is an error.
//
// Environment variables:
//   - FETCH_TIMEOUT: duration string, e.g. "10s"
//   - FETCH_USER_AGENT: string
//   - FETCH_MAX_BODY_SIZE: integer in bytes
//   - FETCH_MAX_REDIRECTS: integer
//   - FETCH_DENY_PRIVATE_IPS: "true" or "false"
//   - FETCH_HOST_RATE: requests per second, float
//   - FETCH_HOST_BURST: integer
func LoadConfigFromEnv() (Config, error) {
	return LoadConfig(config.EnvSource())
}

// LoadConfig is LoadConfigFromEnv reading from src, so that values may also
// come from the worker configuration file.
func LoadConfig(src *config.Source) (Config, error) {
	cfg := DefaultConfig()

	if val, ok := src.Get("FETCH_TIMEOUT"); ok {
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return cfg, fmt.Errorf("invalid FETCH_TIMEOUT: %v (expected format: '10s', '1m')", err)
		}
		cfg.Timeout = parsed
	}

	if val, ok := src.Get("FETCH_USER_AGENT"); ok {
		cfg.UserAgent = val
	}

	if val, ok := src.Get("FETCH_MAX_BODY_SIZE"); ok {
		parsed, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid FETCH_MAX_BODY_SIZE: %v", err)
		}
		cfg.MaxBodySize = parsed
	}

	if val, ok := src.Get("FETCH_MAX_REDIRECTS"); ok {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return cfg, fmt.Errorf("invalid FETCH_MAX_REDIRECTS: %v", err)
		}
		cfg.MaxRedirects = parsed
	}

	if val, ok := src.Get("FETCH_DENY_PRIVATE_IPS"); ok {
		cfg.DenyPrivateIPs = val == "true"
	}

	if val, ok := src.Get("FETCH_HOST_RATE"); ok {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid FETCH_HOST_RATE: %v", err)
		}
		cfg.HostRate = parsed
	}

	if val, ok := src.Get("FETCH_HOST_BURST"); ok {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return cfg, fmt.Errorf("invalid FETCH_HOST_BURST: %v", err)
		}
		cfg.HostBurst = parsed
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}
