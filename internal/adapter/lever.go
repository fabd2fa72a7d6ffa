package adapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/eladgov/jobscan/internal/classify"
	"github.com/eladgov/jobscan/internal/directory"
	"github.com/eladgov/jobscan/internal/model"
)

const defaultLeverAPIBase = "https://api.lever.co/v0/postings"

// leverJob represents a single job in the Lever API response.
type leverJob struct {
	Text       string `json:"text"`
	HostedURL  string `json:"hostedUrl"`
	CreatedAt  int64  `json:"createdAt"`
	Categories struct {
		Team     string `json:"team"`
		Location string `json:"location"`
	} `json:"categories"`
}

// LeverAdapter queries the Lever public postings API per company, for every
// directory record carrying a Lever site name. Same multi-region caveat as
// Greenhouse: postings pass the location classifier before becoming
// candidates.
type LeverAdapter struct {
	client  Fetcher
	apiBase string
	logger  *slog.Logger
}

// NewLeverAdapter creates a Lever adapter. apiBase defaults to the public
// postings API when empty.
func NewLeverAdapter(client Fetcher, apiBase string, logger *slog.Logger) *LeverAdapter {
	if apiBase == "" {
		apiBase = defaultLeverAPIBase
	}
	return &LeverAdapter{client: client, apiBase: apiBase, logger: logger}
}

// Source returns the adapter's source tag.
func (a *LeverAdapter) Source() model.Source { return model.SourceLever }

// Collect fetches every Lever-enabled company's postings, isolating
// per-company failures.
func (a *LeverAdapter) Collect(ctx context.Context, dir *directory.Directory) ([]model.JobCandidate, model.SourceStats) {
	var (
		candidates []model.JobCandidate
		stats      model.SourceStats
	)

	for _, company := range dir.Companies() {
		if company.LeverID == "" {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		body, err := a.client.Fetch(ctx, a.apiBase+"/"+company.LeverID+"?mode=json")
		if err != nil {
			a.logger.Warn("lever board unavailable, skipping",
				"company", company.Name, "site", company.LeverID, "error", err)
			stats.Failures++
			continue
		}

		var postings []leverJob
		if err := json.Unmarshal(body, &postings); err != nil {
			a.logger.Warn("lever response unparseable, skipping",
				"company", company.Name, "error", err)
			stats.Failures++
			continue
		}

		added := 0
		for _, lj := range postings {
			if lj.HostedURL == "" {
				stats.Skipped++
				continue
			}
			if !classify.IsTargetRegion(lj.Categories.Location) {
				stats.Skipped++
				continue
			}

			posted := ""
			if lj.CreatedAt > 0 {
				posted = time.UnixMilli(lj.CreatedAt).UTC().Format("2006-01-02")
			}

			candidates = append(candidates, model.JobCandidate{
				Title:       lj.Text,
				Company:     company.Name,
				Location:    lj.Categories.Location,
				URL:         lj.HostedURL,
				Source:      model.SourceLever,
				Department:  classify.NormalizeDepartment(lj.Categories.Team),
				Industry:    company.Industry,
				CompanySize: company.Size,
				Posted:      posted,
			})
			added++
		}
		stats.Fetched += added

		if added > 0 {
			a.logger.Info("lever board fetched",
				"company", company.Name, "jobs", added, "filtered", len(postings)-added)
		}
	}

	return candidates, stats
}
