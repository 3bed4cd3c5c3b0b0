package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/mdlinkcheck/internal/config"
	"git.home.luguber.info/inful/mdlinkcheck/internal/errors"
)

// CheckFlags are shared by every command that runs a check.
type CheckFlags struct {
	Path         string        `arg:"" optional:"" help:"Documentation root (file or directory). Defaults to docs/, documentation/, or ."`
	Format       string        `short:"f" help:"Report format (text, json, table, markdown)"`
	Concurrency  int           `short:"j" help:"Links validated in parallel"`
	Timeout      time.Duration `help:"Per-request timeout for external links"`
	InternalOnly bool          `name:"internal-only" xor:"scope" help:"Only check links to local files"`
	ExternalOnly bool          `name:"external-only" xor:"scope" help:"Only check http(s) links"`
	Color        string        `help:"Colour text output (auto, always, never)"`
	NoCache      bool          `name:"no-cache" help:"Ignore the persistent result cache for this run"`
}

// apply layers flags over the loaded configuration.
func (f *CheckFlags) apply(cfg *config.Config) error {
	if f.Format != "" {
		format, err := config.ParseReportFormat(f.Format)
		if err != nil {
			return errors.ValidationFailed("format", fmt.Sprintf("unknown format %q", f.Format))
		}
		cfg.Output.Format = format
	}
	if f.Color != "" {
		mode, err := config.ParseColorMode(f.Color)
		if err != nil {
			return errors.ValidationFailed("color", fmt.Sprintf("unknown colour mode %q", f.Color))
		}
		cfg.Output.Color = mode
	}
	if f.Concurrency != 0 {
		cfg.Check.Concurrency = f.Concurrency
	}
	if f.Timeout != 0 {
		cfg.Check.Timeout = f.Timeout.String()
	}
	if f.InternalOnly {
		cfg.Check.SkipInternal, cfg.Check.SkipExternal = false, true
	}
	if f.ExternalOnly {
		cfg.Check.SkipInternal, cfg.Check.SkipExternal = true, false
	}
	if f.NoCache {
		cfg.Cache.Enabled = false
	}
	if err := config.Validate(cfg); err != nil {
		return errors.ValidationFailed("flags", err.Error())
	}
	return nil
}

// prepare loads configuration, applies flags and builds a runner.
func (f *CheckFlags) prepare(g *Global, root *CLI) (*runner, string, error) {
	cfg, err := root.loadConfig()
	if err != nil {
		return nil, "", err
	}
	if err := f.apply(cfg); err != nil {
		return nil, "", err
	}
	path := resolveRoot(f.Path, cfg, root.Verbose)
	r, err := newRunner(cfg, g.out(), useColor(cfg.Output.Color))
	if err != nil {
		return nil, "", err
	}
	return r, path, nil
}

// CheckCmd implements the default 'check' command.
type CheckCmd struct {
	CheckFlags `embed:""`
}

// Run executes a single check and reports broken links through the exit code.
func (c *CheckCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	r, path, err := c.prepare(g, root)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	_, err = r.run(ctx, path)
	return err
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}
