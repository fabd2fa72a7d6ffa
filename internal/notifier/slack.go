package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/eladgov/jobscan/internal/model"
)

// Ensure SlackNotifier implements model.Notifier.
var _ model.Notifier = (*SlackNotifier)(nil)

// maxListedJobs caps how many jobs the digest message lists individually.
const maxListedJobs = 10

// SlackNotifier posts one digest message per run to a Slack channel via
// Incoming Webhooks. The webhook URL comes from the environment; the core
// pipeline never sees the credential.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlackNotifier returns a notifier posting run digests to Slack.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Notify sends a single digest listing up to maxListedJobs new jobs.
func (s *SlackNotifier) Notify(jobs []model.CanonicalJob) error {
	if len(jobs) == 0 {
		return nil
	}

	body, err := json.Marshal(buildDigest(jobs))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	resp, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}

	s.logger.Info("slack digest sent", "new_jobs", len(jobs))
	return nil
}

// SendTestMessage sends a dummy digest to verify the integration works.
func SendTestMessage(n model.Notifier) error {
	now := time.Now()
	return n.Notify([]model.CanonicalJob{{
		ID:         "test-000000",
		Company:    "JobScan Test",
		Title:      "Test Notification - Integration Verified",
		LocationEN: "Tel Aviv",
		Seniority:  "Mid-level",
		URL:        "https://example.com/jobs/test",
		FirstSeen:  now,
		Updated:    now,
	}})
}

// Block Kit payload types.

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type string     `json:"type"`
	Text *slackText `json:"text,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func buildDigest(jobs []model.CanonicalJob) slackPayload {
	plural := "s"
	if len(jobs) == 1 {
		plural = ""
	}

	var lines []string
	for i, j := range jobs {
		if i == maxListedJobs {
			lines = append(lines, fmt.Sprintf("... and %d more", len(jobs)-maxListedJobs))
			break
		}
		line := fmt.Sprintf("• <%s|%s> @ %s", j.URL, j.Title, j.Company)
		if j.LocationEN != "" && j.LocationEN != "Unknown" {
			line += fmt.Sprintf(" (%s)", j.LocationEN)
		}
		lines = append(lines, line)
	}

	return slackPayload{Blocks: []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: fmt.Sprintf("🔔 %d new job%s found", len(jobs), plural)},
		},
		{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: strings.Join(lines, "\n")},
		},
	}}
}
