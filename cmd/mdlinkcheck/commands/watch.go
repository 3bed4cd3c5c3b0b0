package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/mdlinkcheck/internal/discovery"
	"git.home.luguber.info/inful/mdlinkcheck/internal/errors"
	"git.home.luguber.info/inful/mdlinkcheck/internal/logfields"
	"git.home.luguber.info/inful/mdlinkcheck/internal/watch"
)

// WatchCmd re-runs the check whenever documents under the root change.
type WatchCmd struct {
	CheckFlags `embed:""`
	Debounce   time.Duration `default:"300ms" help:"Quiet period before a change triggers a run"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	r, path, err := w.prepare(g, root)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	walker, err := discovery.New(discovery.Options{Extensions: r.cfg.Discovery.Extensions})
	if err != nil {
		return err
	}
	watcher := watch.NewWatcher(path, walker.IsMarkdown)
	if w.Debounce > 0 {
		watcher.Debounce = w.Debounce
	}
	if err := watcher.Run(ctx, func(ctx context.Context) error { return r.rerun(ctx, path) }); err != nil {
		return errors.RootUnreadable(path, err)
	}
	slog.Info("Watch stopped", logfields.Root(path))
	return nil
}

// ScheduleCmd re-runs the check on a fixed interval.
type ScheduleCmd struct {
	CheckFlags `embed:""`
	Every      time.Duration `default:"1h" help:"Interval between runs"`
}

func (s *ScheduleCmd) Run(g *Global, root *CLI) error {
	if s.Every < time.Second {
		return errors.ValidationFailed("every", "interval must be at least 1s")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	r, path, err := s.prepare(g, root)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	slog.Info("Scheduling link checks", logfields.Root(path), slog.Duration("every", s.Every))
	if err := watch.RunEvery(ctx, s.Every, func(ctx context.Context) error { return r.rerun(ctx, path) }); err != nil {
		return errors.InternalError("scheduler failed", err)
	}
	return nil
}
