package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.RefreshInterval != 3*time.Hour {
		t.Errorf("RefreshInterval = %v", cfg.RefreshInterval)
	}
	if cfg.CacheTTL != 24*time.Hour {
		t.Errorf("CacheTTL = %v", cfg.CacheTTL)
	}
	if cfg.DataDir != "data" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.RateLimit.MinSpacing != 500*time.Millisecond {
		t.Errorf("MinSpacing = %v", cfg.RateLimit.MinSpacing)
	}
	if cfg.RateLimit.MaxRetries != 2 {
		t.Errorf("MaxRetries = %d", cfg.RateLimit.MaxRetries)
	}
	if !cfg.Sources.Bulk.Enabled || !cfg.Sources.Greenhouse.Enabled || !cfg.Sources.Lever.Enabled {
		t.Errorf("catalog and board sources should default enabled: %+v", cfg.Sources)
	}
	if cfg.Sources.LinkedIn.Enabled {
		t.Error("linkedin should default disabled")
	}
	if len(cfg.Sources.Bulk.Categories) == 0 {
		t.Error("bulk categories default missing")
	}
	if cfg.Sources.Bulk.BaseURL == "" || cfg.Sources.Bulk.TreeURL == "" || cfg.Sources.Bulk.CategoriesURL == "" {
		t.Errorf("catalog endpoint defaults missing: %+v", cfg.Sources.Bulk)
	}
}

func TestLoad_FullConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
refresh_interval: 1h
data_dir: /var/lib/jobscan
cache_ttl: 12h
rate_limit:
  min_spacing: 250ms
  max_retries: 4
sources:
  bulk:
    categories: [software, security]
  greenhouse:
    enabled: false
  linkedin:
    enabled: true
    queries: [golang, backend]
    max_pages: 2
notification:
  type: log
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.RefreshInterval != time.Hour || cfg.CacheTTL != 12*time.Hour {
		t.Errorf("durations = %v / %v", cfg.RefreshInterval, cfg.CacheTTL)
	}
	if cfg.DataDir != "/var/lib/jobscan" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.RateLimit.MinSpacing != 250*time.Millisecond || cfg.RateLimit.MaxRetries != 4 {
		t.Errorf("rate limit = %+v", cfg.RateLimit)
	}
	if cfg.Sources.Greenhouse.Enabled {
		t.Error("explicit enabled: false ignored")
	}
	if !cfg.Sources.Lever.Enabled {
		t.Error("untouched source should stay enabled")
	}
	if got := cfg.Sources.Bulk.Categories; len(got) != 2 || got[0] != "software" {
		t.Errorf("categories = %v", got)
	}
	if li := cfg.Sources.LinkedIn; !li.Enabled || len(li.Queries) != 2 || li.MaxPages != 2 {
		t.Errorf("linkedin = %+v", li)
	}
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_SLACK_WEBHOOK", "https://hooks.slack.com/services/T000/B000/XXX")
	cfg, err := Load(writeConfig(t, `
notification:
  type: slack
  webhook_url: ${TEST_SLACK_WEBHOOK}
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Notification.WebhookURL != "https://hooks.slack.com/services/T000/B000/XXX" {
		t.Errorf("WebhookURL = %q", cfg.Notification.WebhookURL)
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"negative interval", "refresh_interval: -1h", "refresh_interval"},
		{"excessive retries", "rate_limit:\n  max_retries: 9", "max_retries"},
		{"all sources disabled", `
sources:
  bulk: {enabled: false}
  greenhouse: {enabled: false}
  lever: {enabled: false}
`, "at least one source"},
		{"slack without webhook", "notification:\n  type: slack", "webhook_url"},
		{"slack with foreign webhook", `
notification:
  type: slack
  webhook_url: https://evil.example.com/hook
`, "hooks.slack.com"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.yaml))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
