package config

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/adrg/xdg"

	"git.home.luguber.info/inful/mdlinkcheck/internal/version"
)

// AppName is used for XDG directories and default identifiers.
const AppName = "mdlinkcheck"

// DefaultSubject is the NATS subject broken link events are published on.
const DefaultSubject = "mdlinkcheck.links.broken"

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// DefaultUserAgent identifies the checker to remote servers.
func DefaultUserAgent() string {
	return fmt.Sprintf("Mozilla/5.0 (compatible; %s/%s)", AppName, version.Version)
}

// DefaultCachePath returns the cache database location under the XDG cache directory.
func DefaultCachePath() string {
	return filepath.Join(xdg.CacheHome, AppName, "links.db")
}

// ApplyDefaults fills zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Version == "" {
		cfg.Version = "1"
	}

	if len(cfg.Discovery.Extensions) == 0 {
		cfg.Discovery.Extensions = []string{".md", ".markdown"}
	}

	c := &cfg.Check
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	if c.Timeout == "" {
		c.Timeout = "10s"
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent()
	}
	if c.MaxRedirects <= 0 {
		c.MaxRedirects = 10
	}
	if c.WarnStatusCodes == nil {
		c.WarnStatusCodes = []int{http.StatusForbidden}
	}
	c.RetryBackoff = NormalizeRetryBackoff(string(c.RetryBackoff))
	if c.RetryInitialDelay == "" {
		c.RetryInitialDelay = "1s"
	}
	if c.RetryMaxDelay == "" {
		c.RetryMaxDelay = "5s"
	}

	if cfg.Output.Format == "" {
		cfg.Output.Format = ReportFormatText
	}
	if cfg.Output.Color == "" {
		cfg.Output.Color = ColorAuto
	}

	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))

	if cfg.Cache.Path == "" {
		cfg.Cache.Path = DefaultCachePath()
	}
	if cfg.Cache.TTL == "" {
		cfg.Cache.TTL = "24h"
	}
	if cfg.Cache.FailureTTL == "" {
		cfg.Cache.FailureTTL = "1h"
	}

	if cfg.Events.Subject == "" {
		cfg.Events.Subject = DefaultSubject
	}
}
