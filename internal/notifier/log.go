package notifier

import (
	"log/slog"

	"github.com/eladgov/jobscan/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes the new-jobs delta to the given logger as structured
// messages. The default when no outbound channel is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each new job via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs each job with company, title, location, and URL.
// Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(jobs []model.CanonicalJob) error {
	for _, j := range jobs {
		n.logger.Info("new job",
			"company", j.Company,
			"title", j.Title,
			"location", j.LocationEN,
			"seniority", j.Seniority,
			"url", j.URL,
		)
	}
	return nil
}
