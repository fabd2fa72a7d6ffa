package merge

import (
	"sort"
	"time"

	"github.com/eladgov/jobscan/internal/classify"
	"github.com/eladgov/jobscan/internal/model"
)

// Merge combines one run's candidates with the prior canonical set.
//
// Candidates are applied in source-priority order: bulk-catalog candidates
// seed the working set, then board-API candidates overwrite colliding IDs.
// The higher-priority version must be the one that survives a collision.
//
// FirstSeen is carried forward as the minimum ever observed for an ID (it
// never moves backward); Updated is stamped with the run timestamp for every
// candidate observed this run.
//
// IDs present in prior but absent from this run's candidates are retained
// unchanged: absence from one run is "not refreshed this cycle", not evidence
// of closure, so their stale Updated signals staleness instead of deletion.
//
// The returned addedIDs are the IDs present in next but not in prior, sorted.
func Merge(prior map[string]model.CanonicalJob, candidates []model.JobCandidate, now time.Time) (next map[string]model.CanonicalJob, addedIDs []string) {
	next = make(map[string]model.CanonicalJob, len(prior)+len(candidates))
	for id, job := range prior {
		next[id] = job
	}

	ordered := make([]model.JobCandidate, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Source.Priority() < ordered[j].Source.Priority()
	})

	for _, c := range ordered {
		if c.URL == "" {
			continue
		}
		job := canonicalize(c, now)
		if prev, ok := next[job.ID]; ok && prev.FirstSeen.Before(job.FirstSeen) {
			job.FirstSeen = prev.FirstSeen
		}
		next[job.ID] = job
	}

	for id := range next {
		if _, ok := prior[id]; !ok {
			addedIDs = append(addedIDs, id)
		}
	}
	sort.Strings(addedIDs)

	return next, addedIDs
}

// canonicalize turns a raw candidate into a canonical record, deriving the
// identity fingerprint, the normalized English location, and the seniority
// rung. FirstSeen starts at the run timestamp; Merge lowers it when an
// earlier observation exists.
func canonicalize(c model.JobCandidate, now time.Time) model.CanonicalJob {
	return model.CanonicalJob{
		ID:          Fingerprint(c.URL),
		Title:       c.Title,
		Company:     c.Company,
		Location:    c.Location,
		LocationEN:  classify.TranslateCity(c.Location),
		Industry:    c.Industry,
		Department:  c.Department,
		Seniority:   classify.Seniority(c.Title),
		Level:       c.Level,
		CompanySize: c.CompanySize,
		URL:         c.URL,
		Source:      c.Source,
		Posted:      c.Posted,
		FirstSeen:   now,
		Updated:     now,
	}
}

// Sorted flattens a canonical set into a slice ordered by Updated descending,
// then Posted descending, then ID. This is the order the dataset file is written in.
func Sorted(set map[string]model.CanonicalJob) []model.CanonicalJob {
	jobs := make([]model.CanonicalJob, 0, len(set))
	for _, j := range set {
		jobs = append(jobs, j)
	}
	sort.Slice(jobs, func(i, j int) bool {
		if !jobs[i].Updated.Equal(jobs[j].Updated) {
			return jobs[i].Updated.After(jobs[j].Updated)
		}
		if jobs[i].Posted != jobs[j].Posted {
			return jobs[i].Posted > jobs[j].Posted
		}
		return jobs[i].ID < jobs[j].ID
	})
	return jobs
}
