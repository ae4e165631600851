// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Duration is a time.Duration that reads from JSON as "10s" or as a number of seconds.
type Duration time.Duration

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var seconds float64
	if err := json.Unmarshal(data, &seconds); err != nil {
		return fmt.Errorf("duration must be a string or a number of seconds")
	}
	*d = Duration(seconds * float64(time.Second))
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config represents the configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults, the environment or CLI flags.
type Config struct {
	// Credentials
	GoogleAPIKey string `json:"google_api_key,omitempty"` // Custom Search API key
	GoogleCX     string `json:"google_cx,omitempty"`      // Custom Search engine id
	GeminiAPIKey string `json:"gemini_api_key,omitempty"` // Enables the intelligence extractor
	DatabaseURL  string `json:"database_url,omitempty"`   // PostgreSQL connection URL

	// Limits
	Workers         int      `json:"workers,omitempty"`          // Visit pool size (0 = per-backend default)
	FetchTimeout    Duration `json:"fetch_timeout,omitempty"`    // Per-fetch timeout
	PolitenessDelay Duration `json:"politeness_delay,omitempty"` // Spacing between backend requests
	SearchDeadline  Duration `json:"search_deadline,omitempty"`  // Whole-search deadline (0 = none)
	GeminiRPM       int      `json:"gemini_rpm,omitempty"`       // Intelligence requests per minute

	// Behavior
	UseBrowser    bool `json:"use_browser,omitempty"`     // Render short pages with a headless browser
	Verbose       bool `json:"verbose,omitempty"`         // Print detailed debug information
	DropPhoneOnly bool `json:"drop_phone_only,omitempty"` // Drop directory leads without an email
}

// Defaults for unset values
const (
	DefaultFetchTimeout    = 10 * time.Second
	DefaultPolitenessDelay = time.Second
	MinPolitenessDelay     = 500 * time.Millisecond
	DefaultGeminiRPM       = 15
)

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
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

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("config error: 'workers' must be non-negative")
	}
	if c.GeminiRPM < 0 {
		return fmt.Errorf("config error: 'gemini_rpm' must be non-negative")
	}
	if c.FetchTimeout < 0 {
		return fmt.Errorf("config error: 'fetch_timeout' must be non-negative")
	}
	if c.SearchDeadline < 0 {
		return fmt.Errorf("config error: 'search_deadline' must be non-negative")
	}
	if c.PolitenessDelay != 0 && c.PolitenessDelay.Std() < MinPolitenessDelay {
		return fmt.Errorf("config error: 'politeness_delay' must be at least %s", MinPolitenessDelay)
	}
	return nil
}

// FromEnv returns a Config populated from environment variables.
func FromEnv() (*Config, error) {
	cfg := &Config{
		GoogleAPIKey: os.Getenv("GOOGLE_API_KEY"),
		GoogleCX:     os.Getenv("GOOGLE_CX"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
	}

	if v := os.Getenv("LEAD_WORKERS"); v != "" {
		workers, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid LEAD_WORKERS: %v", err)
		}
		cfg.Workers = workers
	}
	if v := os.Getenv("SEARCH_DEADLINE"); v != "" {
		deadline, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SEARCH_DEADLINE: %v", err)
		}
		cfg.SearchDeadline = Duration(deadline)
	}

	return cfg, nil
}

// MergeWithDefaults returns a new Config with unset fields filled from defaults.
// This is used to apply config file values over the environment.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.GoogleAPIKey == "" {
		result.GoogleAPIKey = defaults.GoogleAPIKey
	}
	if result.GoogleCX == "" {
		result.GoogleCX = defaults.GoogleCX
	}
	if result.GeminiAPIKey == "" {
		result.GeminiAPIKey = defaults.GeminiAPIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}

	// Numeric fields: use default if zero
	if result.Workers == 0 {
		result.Workers = defaults.Workers
	}
	if result.GeminiRPM == 0 {
		result.GeminiRPM = defaults.GeminiRPM
	}
	if result.FetchTimeout == 0 {
		result.FetchTimeout = defaults.FetchTimeout
	}
	if result.PolitenessDelay == 0 {
		result.PolitenessDelay = defaults.PolitenessDelay
	}
	if result.SearchDeadline == 0 {
		result.SearchDeadline = defaults.SearchDeadline
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// FetchTimeoutOrDefault returns the per-fetch timeout.
func (c *Config) FetchTimeoutOrDefault() time.Duration {
	if c.FetchTimeout > 0 {
		return c.FetchTimeout.Std()
	}
	return DefaultFetchTimeout
}

// PolitenessOrDefault returns the backend request spacing.
func (c *Config) PolitenessOrDefault() time.Duration {
	if c.PolitenessDelay > 0 {
		return c.PolitenessDelay.Std()
	}
	return DefaultPolitenessDelay
}

// GeminiRPMOrDefault returns the intelligence request budget.
func (c *Config) GeminiRPMOrDefault() int {
	if c.GeminiRPM > 0 {
		return c.GeminiRPM
	}
	return DefaultGeminiRPM
}
