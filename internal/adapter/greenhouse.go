package adapter

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/eladgov/jobscan/internal/classify"
	"github.com/eladgov/jobscan/internal/directory"
	"github.com/eladgov/jobscan/internal/model"
)

const defaultGreenhouseAPIBase = "https://boards-api.greenhouse.io/v1/boards"

// greenhouseJob represents a single job in the Greenhouse API response.
type greenhouseJob struct {
	Title       string             `json:"title"`
	Location    greenhouseLocation `json:"location"`
	AbsoluteURL string             `json:"absolute_url"`
	UpdatedAt   string             `json:"updated_at"`
	Departments []struct {
		Name string `json:"name"`
	} `json:"departments"`
}

type greenhouseLocation struct {
	Name string `json:"name"`
}

// greenhouseResponse is the top-level Greenhouse jobs API response.
type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

// GreenhouseAdapter queries the Greenhouse public boards API for every
// company in the directory that carries a Greenhouse board token. The feed is
// multi-region, so each posting passes through the location classifier before
// it becomes a candidate.
type GreenhouseAdapter struct {
	client  Fetcher
	apiBase string
	logger  *slog.Logger
}

// NewGreenhouseAdapter creates a Greenhouse adapter. apiBase defaults to the
// public boards API when empty.
func NewGreenhouseAdapter(client Fetcher, apiBase string, logger *slog.Logger) *GreenhouseAdapter {
	if apiBase == "" {
		apiBase = defaultGreenhouseAPIBase
	}
	return &GreenhouseAdapter{client: client, apiBase: apiBase, logger: logger}
}

// Source returns the adapter's source tag.
func (a *GreenhouseAdapter) Source() model.Source { return model.SourceGreenhouse }

// Collect fetches every Greenhouse-enabled company's board. A company whose
// board fails to download or parse is counted and skipped, never aborting the
// adapter's whole pass.
func (a *GreenhouseAdapter) Collect(ctx context.Context, dir *directory.Directory) ([]model.JobCandidate, model.SourceStats) {
	var (
		candidates []model.JobCandidate
		stats      model.SourceStats
	)

	for _, company := range dir.Companies() {
		if company.GreenhouseID == "" {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		body, err := a.client.Fetch(ctx, a.apiBase+"/"+company.GreenhouseID+"/jobs")
		if err != nil {
			a.logger.Warn("greenhouse board unavailable, skipping",
				"company", company.Name, "board", company.GreenhouseID, "error", err)
			stats.Failures++
			continue
		}

		var resp greenhouseResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			a.logger.Warn("greenhouse response unparseable, skipping",
				"company", company.Name, "error", err)
			stats.Failures++
			continue
		}

		added := 0
		for _, gj := range resp.Jobs {
			if gj.AbsoluteURL == "" {
				stats.Skipped++
				continue
			}
			if !classify.IsTargetRegion(gj.Location.Name) {
				stats.Skipped++
				continue
			}

			department := ""
			if len(gj.Departments) > 0 {
				department = classify.NormalizeDepartment(gj.Departments[0].Name)
			}

			posted := gj.UpdatedAt
			if len(posted) > 10 {
				posted = posted[:10]
			}

			candidates = append(candidates, model.JobCandidate{
				Title:       gj.Title,
				Company:     company.Name,
				Location:    gj.Location.Name,
				URL:         gj.AbsoluteURL,
				Source:      model.SourceGreenhouse,
				Department:  department,
				Industry:    company.Industry,
				CompanySize: company.Size,
				Posted:      posted,
			})
			added++
		}
		stats.Fetched += added

		if added > 0 {
			a.logger.Info("greenhouse board fetched",
				"company", company.Name, "jobs", added, "filtered", len(resp.Jobs)-added)
		}
	}

	return candidates, stats
}
