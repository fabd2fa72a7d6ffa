package adapter

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/eladgov/jobscan/internal/directory"
	"github.com/eladgov/jobscan/internal/model"
)

// BulkAdapter reads the pre-categorized job CSVs published by the TechMap
// catalog. One CSV per category, one candidate per row, all tagged with the
// lowest merge priority. The catalog is already scoped to Israel, so bulk
// candidates bypass the location filter.
type BulkAdapter struct {
	client     Fetcher
	baseURL    string
	categories []string
	logger     *slog.Logger
}

// NewBulkAdapter creates an adapter for the given category files.
func NewBulkAdapter(client Fetcher, baseURL string, categories []string, logger *slog.Logger) *BulkAdapter {
	return &BulkAdapter{
		client:     client,
		baseURL:    baseURL,
		categories: categories,
		logger:     logger,
	}
}

// Source returns the adapter's source tag.
func (a *BulkAdapter) Source() model.Source { return model.SourceTechMap }

// Collect fetches and parses every category CSV. A category that fails to
// download counts as one failure and is skipped; a malformed row is skipped
// with a count. Neither aborts the adapter's run.
func (a *BulkAdapter) Collect(ctx context.Context, _ *directory.Directory) ([]model.JobCandidate, model.SourceStats) {
	var (
		candidates []model.JobCandidate
		stats      model.SourceStats
	)

	for _, category := range a.categories {
		if ctx.Err() != nil {
			break
		}

		url := a.baseURL + "/jobs/" + category + ".csv"
		body, err := a.client.Fetch(ctx, url)
		if err != nil {
			a.logger.Warn("bulk category unavailable, skipping", "category", category, "error", err)
			stats.Failures++
			continue
		}

		rows, skipped := a.parseCategory(category, body)
		candidates = append(candidates, rows...)
		stats.Fetched += len(rows)
		stats.Skipped += skipped
		a.logger.Info("bulk category fetched", "category", category, "jobs", len(rows), "skipped", skipped)
	}

	return candidates, stats
}

// parseCategory turns one category CSV into candidates. Rows without a URL
// carry no identity and are counted as skipped.
func (a *BulkAdapter) parseCategory(category string, body []byte) ([]model.JobCandidate, int) {
	content := strings.TrimPrefix(string(body), "\ufeff")
	r := csv.NewReader(strings.NewReader(content))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		a.logger.Warn("bulk category unparseable", "category", category, "error", err)
		return nil, 0
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var candidates []model.JobCandidate
	skipped := 0
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		url := field(row, "url")
		if url == "" {
			skipped++
			continue
		}

		candidates = append(candidates, model.JobCandidate{
			Title:       field(row, "title"),
			Company:     field(row, "company"),
			Location:    field(row, "city"),
			URL:         url,
			Source:      model.SourceTechMap,
			Department:  category,
			Industry:    field(row, "category"),
			CompanySize: field(row, "size"),
			Level:       field(row, "level"),
			Posted:      field(row, "updated"),
		})
	}

	return candidates, skipped
}
