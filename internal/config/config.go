package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default TechMap catalog endpoints.
const (
	defaultCatalogBaseURL    = "https://raw.githubusercontent.com/techmap-il/techmap/main"
	defaultCatalogTreeURL    = "https://api.github.com/repos/techmap-il/techmap/git/trees/main?recursive=1"
	defaultCatalogCategories = "https://raw.githubusercontent.com/techmap-il/techmap/main/categories.json"
)

// defaultBulkCategories is the catalog's category file set fetched when the
// config does not narrow it down.
var defaultBulkCategories = []string{
	"software", "frontend", "devops", "data-science", "qa",
	"security", "product", "hardware",
}

// Config is the root configuration for the jobscan pipeline.
type Config struct {
	RefreshInterval time.Duration
	DataDir         string
	CacheTTL        time.Duration
	RateLimit       RateLimitConfig
	Sources         SourcesConfig
	Notification    NotificationConfig
}

// RateLimitConfig controls the shared outbound-call gate and retry policy.
type RateLimitConfig struct {
	MinSpacing time.Duration // minimum gap between any two outbound calls
	MaxRetries int           // additional attempts after the first failure
}

// SourcesConfig toggles and points the individual adapters.
type SourcesConfig struct {
	Bulk       BulkConfig
	Greenhouse BoardConfig
	Lever      BoardConfig
	LinkedIn   LinkedInConfig
}

// BulkConfig configures the TechMap CSV catalog source.
type BulkConfig struct {
	Enabled       bool
	BaseURL       string
	TreeURL       string
	CategoriesURL string
	Categories    []string
}

// BoardConfig configures one per-company board-API source.
type BoardConfig struct {
	Enabled bool
	APIBase string
}

// LinkedInConfig configures the optional LinkedIn public-search scraper.
type LinkedInConfig struct {
	Enabled  bool
	Queries  []string
	GeoID    string
	MaxPages int
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

// rawConfig is used for YAML unmarshaling (snake_case fields and durations as strings).
type rawConfig struct {
	RefreshInterval string             `yaml:"refresh_interval"`
	DataDir         string             `yaml:"data_dir"`
	CacheTTL        string             `yaml:"cache_ttl"`
	RateLimit       rawRateLimit       `yaml:"rate_limit"`
	Sources         rawSources         `yaml:"sources"`
	Notification    NotificationConfig `yaml:"notification"`
}

type rawRateLimit struct {
	MinSpacing string `yaml:"min_spacing"`
	MaxRetries *int   `yaml:"max_retries"`
}

type rawSources struct {
	Bulk struct {
		Enabled       *bool    `yaml:"enabled"`
		BaseURL       string   `yaml:"base_url"`
		TreeURL       string   `yaml:"tree_url"`
		CategoriesURL string   `yaml:"categories_url"`
		Categories    []string `yaml:"categories"`
	} `yaml:"bulk"`
	Greenhouse struct {
		Enabled *bool  `yaml:"enabled"`
		APIBase string `yaml:"api_base"`
	} `yaml:"greenhouse"`
	Lever struct {
		Enabled *bool  `yaml:"enabled"`
		APIBase string `yaml:"api_base"`
	} `yaml:"lever"`
	LinkedIn struct {
		Enabled  bool     `yaml:"enabled"`
		Queries  []string `yaml:"queries"`
		GeoID    string   `yaml:"geo_id"`
		MaxPages int      `yaml:"max_pages"`
	} `yaml:"linkedin"`
}

// Load reads and parses the YAML config file at path, applies defaults,
// validates, and returns Config. Environment variables in the file are
// expanded before parsing so secrets never live in the file itself.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg, err := fromRaw(raw)
	if err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromRaw(raw rawConfig) (*Config, error) {
	interval := 3 * time.Hour
	if raw.RefreshInterval != "" {
		d, err := time.ParseDuration(raw.RefreshInterval)
		if err != nil {
			return nil, fmt.Errorf("parse refresh_interval %q: %w", raw.RefreshInterval, err)
		}
		interval = d
	}

	ttl := 24 * time.Hour
	if raw.CacheTTL != "" {
		d, err := time.ParseDuration(raw.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("parse cache_ttl %q: %w", raw.CacheTTL, err)
		}
		ttl = d
	}

	spacing := 500 * time.Millisecond
	if raw.RateLimit.MinSpacing != "" {
		d, err := time.ParseDuration(raw.RateLimit.MinSpacing)
		if err != nil {
			return nil, fmt.Errorf("parse rate_limit.min_spacing %q: %w", raw.RateLimit.MinSpacing, err)
		}
		spacing = d
	}

	retries := 2
	if raw.RateLimit.MaxRetries != nil {
		retries = *raw.RateLimit.MaxRetries
	}

	dataDir := raw.DataDir
	if dataDir == "" {
		dataDir = "data"
	}

	enabled := func(p *bool) bool {
		if p == nil {
			return true
		}
		return *p
	}

	bulk := BulkConfig{
		Enabled:       enabled(raw.Sources.Bulk.Enabled),
		BaseURL:       raw.Sources.Bulk.BaseURL,
		TreeURL:       raw.Sources.Bulk.TreeURL,
		CategoriesURL: raw.Sources.Bulk.CategoriesURL,
		Categories:    raw.Sources.Bulk.Categories,
	}
	if bulk.BaseURL == "" {
		bulk.BaseURL = defaultCatalogBaseURL
	}
	if bulk.TreeURL == "" {
		bulk.TreeURL = defaultCatalogTreeURL
	}
	if bulk.CategoriesURL == "" {
		bulk.CategoriesURL = defaultCatalogCategories
	}
	if len(bulk.Categories) == 0 {
		bulk.Categories = defaultBulkCategories
	}

	linkedin := LinkedInConfig{
		Enabled:  raw.Sources.LinkedIn.Enabled,
		Queries:  raw.Sources.LinkedIn.Queries,
		GeoID:    raw.Sources.LinkedIn.GeoID,
		MaxPages: raw.Sources.LinkedIn.MaxPages,
	}
	if len(linkedin.Queries) == 0 {
		linkedin.Queries = []string{"software engineer"}
	}

	return &Config{
		RefreshInterval: interval,
		DataDir:         dataDir,
		CacheTTL:        ttl,
		RateLimit: RateLimitConfig{
			MinSpacing: spacing,
			MaxRetries: retries,
		},
		Sources: SourcesConfig{
			Bulk:       bulk,
			Greenhouse: BoardConfig{Enabled: enabled(raw.Sources.Greenhouse.Enabled), APIBase: raw.Sources.Greenhouse.APIBase},
			Lever:      BoardConfig{Enabled: enabled(raw.Sources.Lever.Enabled), APIBase: raw.Sources.Lever.APIBase},
			LinkedIn:   linkedin,
		},
		Notification: raw.Notification,
	}, nil
}

func validate(cfg *Config) error {
	if cfg.RefreshInterval <= 0 {
		return fmt.Errorf("refresh_interval must be positive, got %v", cfg.RefreshInterval)
	}
	if cfg.CacheTTL <= 0 {
		return fmt.Errorf("cache_ttl must be positive, got %v", cfg.CacheTTL)
	}
	if cfg.RateLimit.MinSpacing <= 0 {
		return fmt.Errorf("rate_limit.min_spacing must be positive, got %v", cfg.RateLimit.MinSpacing)
	}
	if cfg.RateLimit.MaxRetries < 0 || cfg.RateLimit.MaxRetries > 4 {
		return fmt.Errorf("rate_limit.max_retries must be between 0 and 4, got %d", cfg.RateLimit.MaxRetries)
	}

	s := cfg.Sources
	if !s.Bulk.Enabled && !s.Greenhouse.Enabled && !s.Lever.Enabled && !s.LinkedIn.Enabled {
		return fmt.Errorf("at least one source must be enabled")
	}

	if cfg.Notification.Type == "slack" {
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	}

	return nil
}
