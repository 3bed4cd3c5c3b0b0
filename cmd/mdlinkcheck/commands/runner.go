package commands

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"

	"git.home.luguber.info/inful/mdlinkcheck/internal/cache"
	"git.home.luguber.info/inful/mdlinkcheck/internal/config"
	"git.home.luguber.info/inful/mdlinkcheck/internal/errors"
	"git.home.luguber.info/inful/mdlinkcheck/internal/events"
	"git.home.luguber.info/inful/mdlinkcheck/internal/linkcheck"
	"git.home.luguber.info/inful/mdlinkcheck/internal/logfields"
	"git.home.luguber.info/inful/mdlinkcheck/internal/metrics"
	"git.home.luguber.info/inful/mdlinkcheck/internal/report"
)

// runner owns a Checker plus the optional cache, event and metrics sinks
// for the lifetime of one command.
type runner struct {
	cfg       *config.Config
	checker   *linkcheck.Checker
	formatter report.Formatter
	out       io.Writer
	recorder  *metrics.PrometheusRecorder
	closers   []func() error
}

func newRunner(cfg *config.Config, out io.Writer, color bool) (*runner, error) {
	r := &runner{
		cfg:       cfg,
		formatter: report.NewFormatter(cfg.Output.Format, color),
		out:       out,
	}

	var opts []linkcheck.Option
	if cfg.Cache.Enabled {
		store, err := cache.Open(cfg.Cache.Path, cfg.Cache.TTLDuration(), cfg.Cache.FailureTTLDuration())
		if err != nil {
			return nil, errors.CacheError("open", err)
		}
		r.closers = append(r.closers, store.Close)
		if n, err := store.Prune(context.Background()); err != nil {
			slog.Warn("Failed to prune link cache", logfields.Error(err))
		} else if n > 0 {
			slog.Debug("Pruned stale cache entries", logfields.Count(int(n)))
		}
		opts = append(opts, linkcheck.WithCache(store))
	}
	if cfg.Events.NATSURL != "" {
		pub, err := events.NewNATSPublisher(cfg.Events.NATSURL, cfg.Events.Subject)
		if err != nil {
			_ = r.Close()
			return nil, err
		}
		r.closers = append(r.closers, pub.Close)
		opts = append(opts, linkcheck.WithPublisher(pub))
	}
	if cfg.Metrics.Textfile != "" {
		r.recorder = metrics.NewPrometheusRecorder(nil)
		opts = append(opts, linkcheck.WithRecorder(r.recorder))
	}

	checker, err := linkcheck.New(linkcheck.OptionsFromConfig(cfg), opts...)
	if err != nil {
		_ = r.Close()
		return nil, err
	}
	r.checker = checker
	return r, nil
}

// run checks root, renders the report and writes metrics. Failures in the
// report come back as a BrokenLinksFound error.
func (r *runner) run(ctx context.Context, root string) (*linkcheck.ReportSet, error) {
	rs, err := r.checker.Run(ctx, root)
	if err != nil {
		return nil, err
	}
	if err := r.formatter.Format(r.out, rs); err != nil {
		return rs, errors.InternalError("failed to render report", err)
	}
	if r.recorder != nil {
		if err := r.recorder.WriteTextfile(r.cfg.Metrics.Textfile); err != nil {
			slog.Warn("Failed to write metrics textfile", logfields.Path(r.cfg.Metrics.Textfile), logfields.Error(err))
		}
	}
	if rs.HasFailures() {
		return rs, errors.BrokenLinksFound(len(rs.Failed))
	}
	return rs, nil
}

// rerun is run for repeated modes, where broken links are reported but do
// not end the loop.
func (r *runner) rerun(ctx context.Context, root string) error {
	_, err := r.run(ctx, root)
	if errors.IsCategory(err, errors.CategoryLinks) {
		return nil
	}
	return err
}

// Close releases the cache and event connections.
func (r *runner) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return stderrors.Join(errs...)
}
