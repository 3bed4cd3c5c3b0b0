package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gobwas/glob"
)

// Validate checks a configuration after defaults were applied.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("configuration is nil")
	}
	return validation.ValidateStruct(cfg,
		validation.Field(&cfg.Discovery),
		validation.Field(&cfg.Check),
		validation.Field(&cfg.Output),
		validation.Field(&cfg.Cache),
		validation.Field(&cfg.Events),
	)
}

// Validate implements validation.Validatable.
func (d DiscoveryConfig) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Extensions, validation.Required, validation.Each(validation.By(isExtension))),
		validation.Field(&d.Exclude, validation.Each(validation.By(isGlob))),
	)
}

// Validate implements validation.Validatable.
func (c CheckConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Concurrency, validation.Min(1), validation.Max(256)),
		validation.Field(&c.Timeout, validation.By(isDuration)),
		validation.Field(&c.UserAgent, validation.Required),
		validation.Field(&c.MaxRedirects, validation.Min(1)),
		validation.Field(&c.WarnStatusCodes, validation.Each(validation.Min(400), validation.Max(599))),
		validation.Field(&c.IgnoreURLs, validation.Each(validation.By(isGlob))),
		validation.Field(&c.Retries, validation.Min(0), validation.Max(10)),
		validation.Field(&c.RetryInitialDelay, validation.By(isDuration)),
		validation.Field(&c.RetryMaxDelay, validation.By(isDuration)),
		validation.Field(&c.SkipExternal, validation.By(func(any) error {
			if c.SkipInternal && c.SkipExternal {
				return errors.New("cannot skip both internal and external links")
			}
			return nil
		})),
	)
}

// Validate implements validation.Validatable.
func (o OutputConfig) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Format, validation.By(func(v any) error {
			_, err := ParseReportFormat(string(v.(ReportFormat)))
			return err
		})),
		validation.Field(&o.Color, validation.By(func(v any) error {
			_, err := ParseColorMode(string(v.(ColorMode)))
			return err
		})),
	)
}

// Validate implements validation.Validatable.
func (c CacheConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Path, validation.When(c.Enabled, validation.Required)),
		validation.Field(&c.TTL, validation.By(isDuration)),
		validation.Field(&c.FailureTTL, validation.By(isDuration)),
	)
}

// Validate implements validation.Validatable.
func (e EventsConfig) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Subject, validation.When(e.NATSURL != "", validation.Required)),
	)
}

func isDuration(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	if d <= 0 {
		return fmt.Errorf("duration must be positive")
	}
	return nil
}

func isGlob(value any) error {
	s, _ := value.(string)
	_, err := glob.Compile(s, '/')
	return err
}

func isExtension(value any) error {
	s, _ := value.(string)
	if !strings.HasPrefix(s, ".") || len(s) < 2 {
		return fmt.Errorf("extension %q must start with a dot", s)
	}
	return nil
}
