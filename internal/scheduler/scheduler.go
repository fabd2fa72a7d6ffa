package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/eladgov/jobscan/internal/model"
	"github.com/eladgov/jobscan/internal/pipeline"
)

// Trigger starts one pipeline run. Satisfied by *pipeline.Runner.
type Trigger interface {
	Run(ctx context.Context) (pipeline.Summary, error)
}

// Scheduler owns the main loop: it runs one immediate cycle, then blocks
// between fixed-interval invocations. It is single-threaded on purpose: the
// no-overlap invariant is enforced by the runner's guard, not by interval
// timing, so a cycle that outlives the interval just delays the next tick.
type Scheduler struct {
	runner   Trigger
	notifier model.Notifier
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a scheduler invoking the runner at the given interval.
func NewScheduler(runner Trigger, notifier model.Notifier, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		notifier: notifier,
		interval: interval,
		logger:   logger,
	}
}

// Run starts the refresh loop. It runs one immediate cycle, then ticks on the
// configured interval. It returns nil when ctx is cancelled (graceful shutdown).
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler", "interval", s.interval.String())

	s.cycle(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down scheduler")
			return nil
		case <-time.After(s.interval):
			s.cycle(ctx)
		}
	}
}

// cycle executes one run and reports the new-jobs delta. Run failures and
// already-running rejections are logged, never fatal to the loop.
func (s *Scheduler) cycle(ctx context.Context) {
	summary, err := s.runner.Run(ctx)
	if errors.Is(err, pipeline.ErrAlreadyRunning) {
		s.logger.Warn("previous run still active, skipping cycle")
		return
	}
	if err != nil {
		s.logger.Error("run failed", "error", err)
		return
	}

	if summary.Added > 0 && s.notifier != nil {
		if err := s.notifier.Notify(summary.NewJobs); err != nil {
			s.logger.Warn("notification failed", "error", err)
		}
	}
}
