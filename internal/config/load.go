package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/mdlinkcheck/internal/errors"
)

// envFiles are loaded in order; values already present in the environment win.
var envFiles = []string{".env", ".env.local"}

// Load reads configuration from path. An empty path means DefaultConfigFile,
// which is optional; an explicit path must exist.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	cfg := &Config{}
	// #nosec G304 -- path comes from the operator
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.ConfigInvalid(path, err)
		}
		slog.Debug("Loaded configuration file", "path", path)
	case stderrors.Is(err, fs.ErrNotExist) && !explicit:
		// no config file: defaults only
	case stderrors.Is(err, fs.ErrNotExist):
		return nil, errors.ConfigNotFound(path)
	default:
		return nil, errors.ConfigInvalid(path, err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, errors.ConfigInvalid(path, err)
	}
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, errors.ConfigInvalid(path, err)
	}
	return cfg, nil
}

// loadEnvFiles loads .env/.env.local without overriding existing variables.
func loadEnvFiles() {
	for _, envPath := range envFiles {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err != nil {
			slog.Warn("Failed to load env file", "path", envPath, "error", err)
			continue
		}
		slog.Debug("Loaded environment variables", "path", envPath)
	}
}

// applyEnv applies MDLINKCHECK_* overrides on top of file values.
func applyEnv(cfg *Config) error {
	if v, ok := lookupEnv("ROOT"); ok {
		cfg.Root = v
	}
	if v, ok := lookupEnv("CONCURRENCY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MDLINKCHECK_CONCURRENCY: %w", err)
		}
		cfg.Check.Concurrency = n
	}
	if v, ok := lookupEnv("TIMEOUT"); ok {
		cfg.Check.Timeout = v
	}
	if v, ok := lookupEnv("USER_AGENT"); ok {
		cfg.Check.UserAgent = v
	}
	if v, ok := lookupEnv("RETRIES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MDLINKCHECK_RETRIES: %w", err)
		}
		cfg.Check.Retries = n
	}
	if v, ok := lookupEnv("FORMAT"); ok {
		cfg.Output.Format = ReportFormat(v)
	}
	if v, ok := lookupEnv("LOG_LEVEL"); ok {
		cfg.Logging.Level = LogLevel(v)
	}
	if v, ok := lookupEnv("LOG_FORMAT"); ok {
		cfg.Logging.Format = LogFormat(v)
	}
	if v, ok := lookupEnv("CACHE_PATH"); ok {
		cfg.Cache.Path = v
		cfg.Cache.Enabled = true
	}
	if v, ok := lookupEnv("NATS_URL"); ok {
		cfg.Events.NATSURL = v
	}
	if v, ok := lookupEnv("METRICS_TEXTFILE"); ok {
		cfg.Metrics.Textfile = v
	}
	return nil
}

func lookupEnv(suffix string) (string, bool) {
	v, ok := os.LookupEnv("MDLINKCHECK_" + suffix)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}
