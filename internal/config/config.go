// Package config loads mdlinkcheck settings from an optional YAML file,
// .env files and MDLINKCHECK_* environment variables.
package config

import "time"

// DefaultConfigFile is looked up in the working directory when no --config is given.
const DefaultConfigFile = ".mdlinkcheck.yaml"

// Config is the complete run configuration.
type Config struct {
	Version   string          `yaml:"version"`
	Root      string          `yaml:"root,omitempty"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Check     CheckConfig     `yaml:"check"`
	Output    OutputConfig    `yaml:"output"`
	Logging   LoggingConfig   `yaml:"logging"`
	Cache     CacheConfig     `yaml:"cache"`
	Events    EventsConfig    `yaml:"events"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// DiscoveryConfig controls which documents are scanned.
type DiscoveryConfig struct {
	Extensions       []string `yaml:"extensions"`        // Markdown suffixes, matched case-insensitively
	Exclude          []string `yaml:"exclude"`           // Glob patterns relative to the root
	RespectGitignore bool     `yaml:"respect_gitignore"` // Skip files ignored by .gitignore
}

// CheckConfig controls link validation.
type CheckConfig struct {
	SkipInternal      bool             `yaml:"skip_internal"`
	SkipExternal      bool             `yaml:"skip_external"`
	Concurrency       int              `yaml:"concurrency"`
	Timeout           string           `yaml:"timeout"`
	UserAgent         string           `yaml:"user_agent"`
	MaxRedirects      int              `yaml:"max_redirects"`
	WarnStatusCodes   []int            `yaml:"warn_status_codes"`
	IgnoreURLs        []string         `yaml:"ignore_urls"`
	Retries           int              `yaml:"retries"`
	RetryBackoff      RetryBackoffMode `yaml:"retry_backoff"`
	RetryInitialDelay string           `yaml:"retry_initial_delay"`
	RetryMaxDelay     string           `yaml:"retry_max_delay"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Format ReportFormat `yaml:"format"`
	Color  ColorMode    `yaml:"color"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// CacheConfig controls the persistent external link result cache.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Path       string `yaml:"path"`
	TTL        string `yaml:"ttl"`         // Reuse successful results for this long
	FailureTTL string `yaml:"failure_ttl"` // Reuse failed results for this long
}

// EventsConfig controls broken link event publishing. Empty NATSURL disables it.
type EventsConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// MetricsConfig controls the Prometheus textfile written after each run.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// TimeoutDuration returns the per-request timeout.
func (c CheckConfig) TimeoutDuration() time.Duration {
	return parseDurationOr(c.Timeout, 10*time.Second)
}

// RetryInitialDelayDuration returns the first retry delay.
func (c CheckConfig) RetryInitialDelayDuration() time.Duration {
	return parseDurationOr(c.RetryInitialDelay, time.Second)
}

// RetryMaxDelayDuration returns the retry delay cap.
func (c CheckConfig) RetryMaxDelayDuration() time.Duration {
	return parseDurationOr(c.RetryMaxDelay, 5*time.Second)
}

// TTLDuration returns how long successful results stay fresh.
func (c CacheConfig) TTLDuration() time.Duration {
	return parseDurationOr(c.TTL, 24*time.Hour)
}

// FailureTTLDuration returns how long failed results stay fresh.
func (c CacheConfig) FailureTTLDuration() time.Duration {
	return parseDurationOr(c.FailureTTL, time.Hour)
}

func parseDurationOr(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
