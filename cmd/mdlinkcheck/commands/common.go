package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/mdlinkcheck/internal/config"
	"git.home.luguber.info/inful/mdlinkcheck/internal/discovery"
	"git.home.luguber.info/inful/mdlinkcheck/internal/logfields"
)

// Global carries process-wide state into subcommands.
type Global struct {
	Logger *slog.Logger
	Out    io.Writer // report destination, stdout in production
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (default: .mdlinkcheck.yaml when present)"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Check    CheckCmd    `cmd:"" default:"withargs" help:"Check links in Markdown documents"`
	Watch    WatchCmd    `cmd:"" help:"Re-check links whenever documents change"`
	Schedule ScheduleCmd `cmd:"" help:"Re-check links on a fixed interval"`
	Cache    CacheCmd    `cmd:"" help:"Manage the external link result cache"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(newLogger(os.Stderr, level, config.LogFormatText))
	return nil
}

// loadConfig loads the configuration and reconfigures logging from it.
// --verbose always wins over the configured level.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	level := logLevel(cfg.Logging.Level)
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(newLogger(os.Stderr, level, cfg.Logging.Format))
	return cfg, nil
}

func newLogger(w io.Writer, level slog.Level, format config.LogFormat) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func logLevel(l config.LogLevel) slog.Level {
	switch l {
	case config.LogLevelDebug:
		return slog.LevelDebug
	case config.LogLevelWarn:
		return slog.LevelWarn
	case config.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// resolveRoot picks the documentation root: the argument, then the
// configured root, then docs/ or documentation/, then the current directory.
func resolveRoot(arg string, cfg *config.Config, verbose bool) string {
	if arg != "" {
		return arg
	}
	if cfg.Root != "" {
		return cfg.Root
	}
	path, found := discovery.DetectDefaultPath()
	if verbose {
		if found {
			_, _ = fmt.Fprintf(os.Stderr, "Detected documentation directory: %s\n", path)
		} else {
			_, _ = fmt.Fprintf(os.Stderr, "No documentation directory detected (checked: docs/, documentation/)\n")
			_, _ = fmt.Fprintf(os.Stderr, "Falling back to current directory: %s\n", path)
		}
	}
	slog.Debug("Resolved documentation root", logfields.Root(path), slog.Bool("detected", found))
	return path
}

// isColorSupported checks if the terminal supports color output.
func isColorSupported() bool {
	if fileInfo, _ := os.Stdout.Stat(); fileInfo == nil || (fileInfo.Mode()&os.ModeCharDevice) == 0 {
		return false
	}

	// https://no-color.org/
	if os.Getenv("NO_COLOR") != "" {
		return false
	}

	term := os.Getenv("TERM")
	if term == "dumb" || term == "" {
		return false
	}

	return true
}

func useColor(mode config.ColorMode) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default:
		return isColorSupported()
	}
}
