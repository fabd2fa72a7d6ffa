package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/eladgov/jobscan/internal/model"
	"github.com/eladgov/jobscan/internal/pipeline"
)

type stubTrigger struct {
	runs    atomic.Int32
	summary pipeline.Summary
	err     error
}

func (s *stubTrigger) Run(context.Context) (pipeline.Summary, error) {
	s.runs.Add(1)
	return s.summary, s.err
}

type recordingNotifier struct {
	notified atomic.Int32
	jobs     []model.CanonicalJob
}

func (n *recordingNotifier) Notify(jobs []model.CanonicalJob) error {
	n.notified.Add(1)
	n.jobs = jobs
	return nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun_ImmediateCycleThenInterval(t *testing.T) {
	trigger := &stubTrigger{}
	s := NewScheduler(trigger, nil, 25*time.Millisecond, discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for trigger.runs.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 2 cycles, got %d", trigger.runs.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	if err := <-done; err != nil {
		t.Errorf("cancelled scheduler returned %v, want nil", err)
	}
}

func TestCycle_NotifiesOnNewJobs(t *testing.T) {
	newJob := model.CanonicalJob{ID: "abc", Title: "Backend Engineer", Company: "Acme"}
	trigger := &stubTrigger{summary: pipeline.Summary{
		Added:   1,
		Total:   5,
		NewJobs: []model.CanonicalJob{newJob},
	}}
	notifier := &recordingNotifier{}
	s := NewScheduler(trigger, notifier, time.Hour, discard())

	s.cycle(context.Background())

	if notifier.notified.Load() != 1 {
		t.Fatalf("expected one notification, got %d", notifier.notified.Load())
	}
	if len(notifier.jobs) != 1 || notifier.jobs[0].ID != "abc" {
		t.Errorf("notifier received %+v", notifier.jobs)
	}
}

func TestCycle_NoNotificationWithoutNewJobs(t *testing.T) {
	trigger := &stubTrigger{summary: pipeline.Summary{Added: 0, Total: 5}}
	notifier := &recordingNotifier{}
	s := NewScheduler(trigger, notifier, time.Hour, discard())

	s.cycle(context.Background())

	if notifier.notified.Load() != 0 {
		t.Errorf("no-delta cycle must not notify, got %d notifications", notifier.notified.Load())
	}
}

func TestCycle_SkipsWhenRunAlreadyActive(t *testing.T) {
	trigger := &stubTrigger{err: pipeline.ErrAlreadyRunning}
	notifier := &recordingNotifier{}
	s := NewScheduler(trigger, notifier, time.Hour, discard())

	s.cycle(context.Background()) // must not panic or notify

	if notifier.notified.Load() != 0 {
		t.Errorf("skipped cycle must not notify")
	}
}

func TestCycle_RunFailureKeepsLoopAlive(t *testing.T) {
	trigger := &stubTrigger{err: errors.New("storage offline")}
	s := NewScheduler(trigger, nil, 20*time.Millisecond, discard())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := s.Run(ctx); err != nil {
		t.Errorf("failing cycles must not kill the scheduler: %v", err)
	}
	if trigger.runs.Load() < 2 {
		t.Errorf("scheduler stopped retrying after a failure: %d runs", trigger.runs.Load())
	}
}
