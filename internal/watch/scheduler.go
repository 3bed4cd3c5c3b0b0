package watch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/mdlinkcheck/internal/logfields"
)

// Scheduler wraps a gocron scheduler running link checks periodically.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// NewScheduler creates a new scheduler instance.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s}, nil
}

// Every schedules fn every interval, starting immediately. Runs never
// overlap; a run that is still busy when the next is due delays it.
func (s *Scheduler) Every(ctx context.Context, interval time.Duration, name string, fn RunFunc) (string, error) {
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.execute, ctx, name, fn),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create periodic job: %w", err)
	}
	return job.ID().String(), nil
}

func (s *Scheduler) execute(ctx context.Context, name string, fn RunFunc) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	slog.Info("Executing scheduled link check", slog.String("job", name))
	if err := fn(ctx); err != nil && ctx.Err() == nil {
		slog.Warn("Scheduled link check failed", slog.String("job", name), logfields.Error(err))
		return
	}
	slog.Debug("Scheduled link check finished", slog.String("job", name), logfields.DurationMS(float64(time.Since(start).Milliseconds())))
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	slog.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}

// RunEvery runs fn every interval until ctx is done.
func RunEvery(ctx context.Context, interval time.Duration, fn RunFunc) error {
	s, err := NewScheduler()
	if err != nil {
		return err
	}
	if _, err := s.Every(ctx, interval, "link-check", fn); err != nil {
		_ = s.Stop()
		return err
	}
	s.Start()
	<-ctx.Done()
	return s.Stop()
}
