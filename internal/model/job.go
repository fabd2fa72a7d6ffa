package model

import "time"

// Source identifies which adapter produced a job observation.
type Source string

const (
	SourceTechMap    Source = "techmap"
	SourceLinkedIn   Source = "linkedin"
	SourceGreenhouse Source = "greenhouse"
	SourceLever      Source = "lever"
)

// Priority returns the merge precedence of a source. Candidates from a
// higher-priority source overwrite colliding candidates from a lower one.
// The bulk TechMap catalog is the floor; the per-company board APIs carry
// fresher data and always win.
func (s Source) Priority() int {
	switch s {
	case SourceTechMap:
		return 0
	case SourceLinkedIn:
		return 1
	case SourceGreenhouse:
		return 2
	case SourceLever:
		return 3
	default:
		return 0
	}
}

// JobCandidate is a single unmerged job observation as an adapter saw it.
// Immutable once produced; identity resolution happens in the merge engine.
type JobCandidate struct {
	Title       string
	Company     string
	Location    string // raw location text from the feed
	URL         string
	Source      Source
	Department  string
	Industry    string
	CompanySize string
	Level       string // role type from the catalog (Engineer, Scientist, ...)
	Posted      string // raw posting date from the feed, YYYY-MM-DD when known
}

// CanonicalJob is the authoritative deduplicated representation of a posting.
// ID is a fingerprint of the normalized URL, so two observations of the same
// posting collide regardless of tracking parameters.
type CanonicalJob struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	LocationEN  string    `json:"locationEn"`
	Industry    string    `json:"industry"`
	Department  string    `json:"department"`
	Seniority   string    `json:"seniority"`
	Level       string    `json:"level,omitempty"`
	CompanySize string    `json:"companySize,omitempty"`
	URL         string    `json:"url"`
	Source      Source    `json:"source"`
	Posted      string    `json:"posted,omitempty"`
	FirstSeen   time.Time `json:"firstSeen"`
	Updated     time.Time `json:"updated"`
}

// SourceStats counts per-source outcomes within one run.
type SourceStats struct {
	Fetched  int `json:"fetched"`
	Skipped  int `json:"skipped"`  // location-filtered or malformed units
	Failures int `json:"failures"` // companies/categories that failed after retries
}

// RunMetadata describes the last successful run. It is rewritten wholesale
// at the end of each run, never partially updated.
type RunMetadata struct {
	LastRefresh          time.Time              `json:"lastRefresh"`
	TotalJobs            int                    `json:"totalJobs"`
	TotalCompanies       int                    `json:"totalCompanies"`
	NewSinceLastRefresh  int                    `json:"newSinceLastRefresh"`
	Sources              map[string]SourceStats `json:"sources"`
	FetchDurationSeconds float64                `json:"fetchDurationSeconds"`
}

// Notifier delivers the newly-added jobs delta after a successful run.
type Notifier interface {
	Notify(jobs []CanonicalJob) error
}
