package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/eladgov/jobscan/internal/directory"
	"github.com/eladgov/jobscan/internal/merge"
	"github.com/eladgov/jobscan/internal/model"
	"github.com/eladgov/jobscan/internal/store"
)

type failingFetcher struct{}

func (failingFetcher) Fetch(context.Context, string) ([]byte, error) {
	return nil, errors.New("offline")
}

// fakeCollector returns canned candidates. When release is set, Collect blocks
// until it is closed, signalling entry through started.
type fakeCollector struct {
	source     model.Source
	candidates []model.JobCandidate
	started    chan struct{}
	startOnce  sync.Once
	release    chan struct{}
}

func (f *fakeCollector) Source() model.Source { return f.source }

func (f *fakeCollector) Collect(context.Context, *directory.Directory) ([]model.JobCandidate, model.SourceStats) {
	if f.started != nil {
		f.startOnce.Do(func() { close(f.started) })
	}
	if f.release != nil {
		<-f.release
	}
	return f.candidates, model.SourceStats{Fetched: len(f.candidates)}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRunner(t *testing.T, dataDir string, collectors ...Collector) *Runner {
	t.Helper()
	ds, err := store.New(dataDir)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	dir := directory.New(failingFetcher{}, directory.Config{
		CachePath: ds.CachePath(),
	}, discard())
	return NewRunner(dir, ds, collectors, discard())
}

func TestRun_FullCycle(t *testing.T) {
	sharedURL := "https://boards.greenhouse.io/acme/jobs/1"
	bulk := &fakeCollector{source: model.SourceTechMap, candidates: []model.JobCandidate{
		{Title: "Backend Engineer", Company: "Acme", Location: "תל אביב",
			URL: sharedURL, Source: model.SourceTechMap},
	}}
	board := &fakeCollector{source: model.SourceGreenhouse, candidates: []model.JobCandidate{
		{Title: "Senior Backend Engineer", Company: "Acme", Location: "Tel Aviv, Israel",
			URL: sharedURL + "?utm_source=feed", Source: model.SourceGreenhouse},
		{Title: "Data Engineer", Company: "Acme", Location: "Tel Aviv, Israel",
			URL: "https://boards.greenhouse.io/acme/jobs/2", Source: model.SourceGreenhouse},
	}}

	dataDir := t.TempDir()
	r := newTestRunner(t, dataDir, bulk, board)

	sum, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if sum.Total != 2 || sum.Added != 2 {
		t.Fatalf("summary = %+v, want Total=2 Added=2", sum)
	}

	shared := merge.Fingerprint(sharedURL)
	var sharedJob *model.CanonicalJob
	for i := range sum.NewJobs {
		if sum.NewJobs[i].ID == shared {
			sharedJob = &sum.NewJobs[i]
		}
	}
	if sharedJob == nil {
		t.Fatal("shared job missing from the new-jobs delta")
	}
	if sharedJob.Source != model.SourceGreenhouse || sharedJob.Title != "Senior Backend Engineer" {
		t.Errorf("board version should win the collision: %+v", sharedJob)
	}

	for _, name := range []string{store.JobsFile, store.CompaniesFile, store.MetadataFile} {
		if _, err := os.Stat(filepath.Join(dataDir, name)); err != nil {
			t.Errorf("expected %s after commit: %v", name, err)
		}
	}

	meta := sum.Meta
	if meta.TotalJobs != 2 || meta.NewSinceLastRefresh != 2 {
		t.Errorf("metadata = %+v", meta)
	}
	if meta.Sources["techmap"].Fetched != 1 || meta.Sources["greenhouse"].Fetched != 2 {
		t.Errorf("per-source stats = %+v", meta.Sources)
	}
}

func TestRun_RetainsJobsAcrossRuns(t *testing.T) {
	dataDir := t.TempDir()
	run1 := time.Date(2026, 8, 24, 6, 0, 0, 0, time.UTC)
	run2 := time.Date(2026, 8, 25, 6, 0, 0, 0, time.UTC)

	oldURL := "https://example.com/jobs/old"
	first := newTestRunner(t, dataDir, &fakeCollector{
		source: model.SourceTechMap,
		candidates: []model.JobCandidate{
			{Title: "Old Role", Company: "Acme", URL: oldURL, Source: model.SourceTechMap},
		},
	})
	first.now = func() time.Time { return run1 }
	if _, err := first.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}

	second := newTestRunner(t, dataDir, &fakeCollector{
		source: model.SourceTechMap,
		candidates: []model.JobCandidate{
			{Title: "New Role", Company: "Beta", URL: "https://example.com/jobs/new", Source: model.SourceTechMap},
		},
	})
	second.now = func() time.Time { return run2 }
	sum, err := second.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if sum.Total != 2 {
		t.Fatalf("job from the first run was dropped: %+v", sum)
	}
	if sum.Added != 1 {
		t.Errorf("only the new job should count as added, got %d", sum.Added)
	}

	jobs, err := second.dataset.LoadJobs()
	if err != nil {
		t.Fatalf("LoadJobs: %v", err)
	}
	old, ok := jobs[merge.Fingerprint(oldURL)]
	if !ok {
		t.Fatal("retained job missing from the committed set")
	}
	if !old.FirstSeen.Equal(run1) {
		t.Errorf("retained job's firstSeen moved: %v", old.FirstSeen)
	}
}

func TestRun_RejectsConcurrentRuns(t *testing.T) {
	dataDir := t.TempDir()
	slow := &fakeCollector{
		source:  model.SourceTechMap,
		started: make(chan struct{}),
		release: make(chan struct{}),
		candidates: []model.JobCandidate{
			{Title: "Engineer", Company: "Acme", URL: "https://example.com/jobs/1", Source: model.SourceTechMap},
		},
	}
	r := newTestRunner(t, dataDir, slow)

	done := make(chan error, 1)
	go func() {
		_, err := r.Run(context.Background())
		done <- err
	}()

	<-slow.started

	// Same runner: rejected by the in-process guard.
	if _, err := r.Run(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("concurrent Run on the same runner = %v, want ErrAlreadyRunning", err)
	}

	// Separate runner on the same data directory: rejected by the file lock.
	other := newTestRunner(t, dataDir, &fakeCollector{source: model.SourceTechMap})
	if _, err := other.Run(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("concurrent Run from a second runner = %v, want ErrAlreadyRunning", err)
	}

	// The rejected attempts must not have produced any documents.
	if _, err := os.Stat(filepath.Join(dataDir, store.JobsFile)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("rejected run touched the dataset: %v", err)
	}

	close(slow.release)
	if err := <-done; err != nil {
		t.Fatalf("original run failed: %v", err)
	}

	// With the lock released, a fresh run goes through.
	if _, err := r.Run(context.Background()); err != nil {
		t.Errorf("run after release: %v", err)
	}
}

func TestRun_AbortsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newTestRunner(t, t.TempDir(), &fakeCollector{source: model.SourceTechMap})
	if _, err := r.Run(ctx); err == nil || errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("cancelled run = %v, want a context error", err)
	}
}

func TestBuildCompanies_SynthesizesFromJobs(t *testing.T) {
	r := newTestRunner(t, t.TempDir())
	jobs := []model.CanonicalJob{
		{Company: "Acme", Industry: "Cyber", CompanySize: "201-500", Location: "Tel Aviv"},
		{Company: "Acme"},
		{Company: ""},
	}
	records := r.buildCompanies(jobs)
	if len(records) != 1 {
		t.Fatalf("expected 1 synthesized record, got %d", len(records))
	}
	rec := records[0]
	if rec.Name != "Acme" || rec.Industry != "Cyber" || rec.Size != "201-500" {
		t.Errorf("record = %+v", rec)
	}
}
