package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/landlord-risk-etl/internal/domain"
	"github.com/robfig/cron/v3"
)

// Runner executes one risk run.
type Runner interface {
	RunOnce(ctx context.Context) (*domain.Result, error)
}

// Scheduler recomputes risk on a cron schedule. Overlapping ticks are skipped
// while a run is still in progress.
type Scheduler struct {
	spec   string
	runner Runner
	logger *slog.Logger
	cron   *cron.Cron
}

// NewScheduler validates spec (standard five-field cron or a descriptor such
// as "@hourly") and returns a Scheduler that is not yet started.
func NewScheduler(spec string, runner Runner, logger *slog.Logger) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	return &Scheduler{
		spec:   spec,
		runner: runner,
		logger: logger,
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}, nil
}

// Run performs one run immediately, then runs on schedule until ctx is
// cancelled. It waits for an in-flight run to finish before returning.
// Failed runs are logged and do not stop the schedule.
func (s *Scheduler) Run(ctx context.Context) error {
	job := func() {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.runner.RunOnce(ctx); err != nil {
			s.logger.Warn("scheduled run failed", "error", err)
		}
	}

	if _, err := s.cron.AddFunc(s.spec, job); err != nil {
		return fmt.Errorf("schedule risk run: %w", err)
	}

	s.logger.Info("scheduler started", "schedule", s.spec)
	job()
	s.cron.Start()

	<-ctx.Done()
	s.logger.Info("scheduler stopping", "reason", ctx.Err())
	<-s.cron.Stop().Done()
	return nil
}
