package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Runner is the part of Engine the scheduler drives.
type Runner interface {
	RunAll(ctx context.Context) (Report, error)
}

// Scheduler triggers runs on a cron schedule. A tick that finds a run in
// progress is skipped.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	logger *slog.Logger
}

func NewScheduler(runner Runner, spec string, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		runner: runner,
		logger: logger,
	}
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("invalid automation schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.logger.Info("automation scheduler started", "entries", len(s.cron.Entries()))
	s.cron.Start()
}

// Stop halts scheduling and returns a context that is done when running
// jobs complete.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) tick() {
	report, err := s.runner.RunAll(context.Background())
	switch {
	case errors.Is(err, ErrAlreadyRunning):
		s.logger.Info("scheduled automation skipped, run already in progress")
	case err != nil:
		s.logger.Error("scheduled automation failed", "error", err)
	default:
		s.logger.Info("scheduled automation completed",
			"broken_links", report.BrokenLinks,
			"profiles_fixed", report.ProfilesFixed,
			"storage_usage", report.StorageUsage,
		)
	}
}
