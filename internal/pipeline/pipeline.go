package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/eladgov/jobscan/internal/directory"
	"github.com/eladgov/jobscan/internal/merge"
	"github.com/eladgov/jobscan/internal/model"
	"github.com/eladgov/jobscan/internal/store"
)

// ErrAlreadyRunning is returned when a run is requested while one is active.
// The request is rejected immediately, never queued, and the durable dataset
// and cache are left untouched. Callers distinguish it from a run failure
// with errors.Is.
var ErrAlreadyRunning = errors.New("pipeline run already in progress")

// Collector is one source adapter. Collect absorbs its own per-unit failures
// and reports them through SourceStats; it never returns an error because no
// single source may abort a run.
type Collector interface {
	Source() model.Source
	Collect(ctx context.Context, dir *directory.Directory) ([]model.JobCandidate, model.SourceStats)
}

// Summary is what a successful run hands back to its trigger: the new-jobs
// delta for the notifier plus the counts the caller reports.
type Summary struct {
	Added   int
	Total   int
	NewIDs  []string
	NewJobs []model.CanonicalJob
	Meta    model.RunMetadata
}

// Runner owns the single-run guard, the company directory handle, and the
// dataset writer. Construct one per process and hand it by reference to
// every trigger surface; there are no package-level singletons.
type Runner struct {
	mu         sync.Mutex
	fileLock   *flock.Flock
	dir        *directory.Directory
	dataset    *store.Dataset
	collectors []Collector
	logger     *slog.Logger
	now        func() time.Time
}

// NewRunner wires a runner. Collectors must be given in merge-priority order
// (bulk catalog first); the directory is synced from the bulk pass's company
// names before any board adapter runs. The flock file under the data
// directory rejects even a second process racing the same dataset.
func NewRunner(dir *directory.Directory, dataset *store.Dataset, collectors []Collector, logger *slog.Logger) *Runner {
	return &Runner{
		fileLock:   flock.New(dataset.Dir() + "/.run.lock"),
		dir:        dir,
		dataset:    dataset,
		collectors: collectors,
		logger:     logger,
		now:        time.Now,
	}
}

// Run executes one full pipeline cycle: load prior state, collect candidates
// from every source in priority order, merge, and commit atomically.
//
// Per-unit failures (a company, a row, a whole source) are absorbed into the
// per-source counters and the run continues; only storage write failures
// propagate as a run-level error, in which case nothing was made durable and
// the previous dataset remains authoritative.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	if !r.mu.TryLock() {
		return Summary{}, ErrAlreadyRunning
	}
	defer r.mu.Unlock()

	locked, err := r.fileLock.TryLock()
	if err != nil {
		return Summary{}, fmt.Errorf("acquiring run lock: %w", err)
	}
	if !locked {
		return Summary{}, ErrAlreadyRunning
	}
	defer r.fileLock.Unlock()

	start := r.now()
	r.logger.Info("starting fetch cycle")

	prior, err := r.dataset.LoadJobs()
	if err != nil {
		return Summary{}, err
	}
	r.logger.Info("prior canonical set loaded", "jobs", len(prior))

	r.dir.Load()

	var (
		all      []model.JobCandidate
		stats    = make(map[string]model.SourceStats, len(r.collectors))
		synced   bool
		bulkseen = make(map[string]struct{})
	)
	for _, c := range r.collectors {
		// A run may be aborted between adapter passes; partial progress is
		// simply discarded because nothing is durable before commit.
		if err := ctx.Err(); err != nil {
			return Summary{}, fmt.Errorf("run aborted: %w", err)
		}

		if c.Source() != model.SourceTechMap && !synced {
			r.dir.Sync(ctx, bulkseen)
			synced = true
		}

		candidates, st := c.Collect(ctx, r.dir)
		stats[string(c.Source())] = st
		all = append(all, candidates...)

		if c.Source() == model.SourceTechMap {
			for _, cand := range candidates {
				if cand.Company != "" {
					bulkseen[cand.Company] = struct{}{}
				}
			}
		}

		r.logger.Info("source collected", "source", c.Source(),
			"jobs", st.Fetched, "skipped", st.Skipped, "failures", st.Failures)
	}
	if !synced {
		r.dir.Sync(ctx, bulkseen)
	}

	merged, addedIDs := merge.Merge(prior, all, start)
	jobs := merge.Sorted(merged)
	companies := r.buildCompanies(jobs)

	meta := model.RunMetadata{
		LastRefresh:          start.UTC(),
		TotalJobs:            len(jobs),
		TotalCompanies:       len(companies),
		NewSinceLastRefresh:  len(addedIDs),
		Sources:              stats,
		FetchDurationSeconds: r.now().Sub(start).Seconds(),
	}

	// The cache is persisted before the dataset so a failure here leaves the
	// previous dataset authoritative.
	if err := r.dir.Persist(); err != nil {
		return Summary{}, err
	}
	if err := r.dataset.Commit(jobs, companies, meta); err != nil {
		return Summary{}, err
	}

	summary := Summary{
		Added:   len(addedIDs),
		Total:   len(jobs),
		NewIDs:  addedIDs,
		NewJobs: pickJobs(merged, addedIDs),
		Meta:    meta,
	}

	r.logger.Info("fetch cycle complete",
		"total", summary.Total,
		"new", summary.Added,
		"companies", len(companies),
		"duration", meta.FetchDurationSeconds,
	)

	return summary, nil
}

// buildCompanies assembles the companies document: every directory record,
// plus thin records synthesized for companies that appear in jobs but have no
// catalog profile.
func (r *Runner) buildCompanies(jobs []model.CanonicalJob) []model.CompanyRecord {
	records := r.dir.Companies()
	known := make(map[string]bool, len(records))
	for _, rec := range records {
		known[rec.Name] = true
	}

	for _, job := range jobs {
		if job.Company == "" || known[job.Company] {
			continue
		}
		known[job.Company] = true
		records = append(records, model.CompanyRecord{
			Name:     job.Company,
			Industry: job.Industry,
			Size:     job.CompanySize,
			Cities:   []string{job.Location},
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })
	return records
}

func pickJobs(set map[string]model.CanonicalJob, ids []string) []model.CanonicalJob {
	jobs := make([]model.CanonicalJob, 0, len(ids))
	for _, id := range ids {
		if job, ok := set[id]; ok {
			jobs = append(jobs, job)
		}
	}
	return jobs
}
