package config

import (
	"fmt"
	"sort"
	"strings"
)

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

// ReportFormat enumerates report renderers.
type ReportFormat string

const (
	ReportFormatText     ReportFormat = "text"
	ReportFormatJSON     ReportFormat = "json"
	ReportFormatTable    ReportFormat = "table"
	ReportFormatMarkdown ReportFormat = "markdown"
)

// ColorMode controls colored report output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// RetryBackoffMode enumerates supported backoff strategies for retries.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

// normalizer maps free-form user input (case-insensitive, trimmed) onto a typed enum.
type normalizer[T ~string] struct {
	values   map[string]T
	fallback T
}

func newNormalizer[T ~string](fallback T, values ...T) normalizer[T] {
	m := make(map[string]T, len(values))
	for _, v := range values {
		m[string(v)] = v
	}
	return normalizer[T]{values: m, fallback: fallback}
}

func (n normalizer[T]) normalize(raw string) T {
	if v, ok := n.values[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return v
	}
	return n.fallback
}

func (n normalizer[T]) parse(raw string) (T, error) {
	if v, ok := n.values[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return v, nil
	}
	return n.fallback, fmt.Errorf("invalid value %q, valid options: %s", raw, strings.Join(n.keys(), ", "))
}

func (n normalizer[T]) keys() []string {
	keys := make([]string, 0, len(n.values))
	for k := range n.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var (
	logLevelNormalizer     = newNormalizer(LogLevelInfo, LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError)
	logFormatNormalizer    = newNormalizer(LogFormatText, LogFormatText, LogFormatJSON)
	reportFormatNormalizer = newNormalizer(ReportFormatText, ReportFormatText, ReportFormatJSON, ReportFormatTable, ReportFormatMarkdown)
	colorModeNormalizer    = newNormalizer(ColorAuto, ColorAuto, ColorAlways, ColorNever)
	backoffNormalizer      = newNormalizer(RetryBackoffExponential, RetryBackoffFixed, RetryBackoffLinear, RetryBackoffExponential)
)

// NormalizeLogLevel converts user input into a LogLevel, defaulting to info.
func NormalizeLogLevel(raw string) LogLevel { return logLevelNormalizer.normalize(raw) }

// NormalizeLogFormat converts user input into a LogFormat, defaulting to text.
func NormalizeLogFormat(raw string) LogFormat { return logFormatNormalizer.normalize(raw) }

// ParseReportFormat converts user input into a ReportFormat.
func ParseReportFormat(raw string) (ReportFormat, error) { return reportFormatNormalizer.parse(raw) }

// ReportFormats lists the accepted report format names.
func ReportFormats() []string { return reportFormatNormalizer.keys() }

// ParseColorMode converts user input into a ColorMode.
func ParseColorMode(raw string) (ColorMode, error) { return colorModeNormalizer.parse(raw) }

// NormalizeRetryBackoff converts user input into a typed mode, defaulting to exponential.
func NormalizeRetryBackoff(raw string) RetryBackoffMode { return backoffNormalizer.normalize(raw) }
