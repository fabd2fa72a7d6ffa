package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/eladgov/jobscan/internal/adapter"
	"github.com/eladgov/jobscan/internal/config"
	"github.com/eladgov/jobscan/internal/directory"
	"github.com/eladgov/jobscan/internal/httpx"
	"github.com/eladgov/jobscan/internal/model"
	"github.com/eladgov/jobscan/internal/notifier"
	"github.com/eladgov/jobscan/internal/pipeline"
	"github.com/eladgov/jobscan/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobscan",
	Short: "Israeli tech job aggregator",
	Long:  "jobscan merges the TechMap catalog and per-company board APIs into one deduplicated job dataset.",
	// Default to `start` so that `jobscan` with no args runs the daemon.
	// This preserves compatibility with systemd unit files that invoke the binary directly.
	RunE: runStart,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBSCAN_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it. A .env file next to the
// process is loaded first so env expansion inside the YAML (webhook secrets)
// picks it up. Priority: explicit path arg > JOBSCAN_CONFIG env var > "./config.yaml".
func loadConfig(path string) (*config.Config, error) {
	_ = godotenv.Load()

	if path == "" {
		if env := os.Getenv("JOBSCAN_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func setupNotifier(cfg *config.Config, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		httpClient := &http.Client{Timeout: 30 * time.Second}
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

// buildRunner assembles the pipeline: one shared rate-limited client, the
// company directory, and the enabled adapters in merge-priority order.
func buildRunner(cfg *config.Config, logger *slog.Logger) (*pipeline.Runner, error) {
	client := httpx.New(cfg.RateLimit.MinSpacing, cfg.RateLimit.MaxRetries, 0, logger)

	dataset, err := store.New(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	dir := directory.New(client, directory.Config{
		BaseURL:       cfg.Sources.Bulk.BaseURL,
		TreeURL:       cfg.Sources.Bulk.TreeURL,
		CategoriesURL: cfg.Sources.Bulk.CategoriesURL,
		TTL:           cfg.CacheTTL,
		CachePath:     dataset.CachePath(),
	}, logger)

	var collectors []pipeline.Collector
	if cfg.Sources.Bulk.Enabled {
		collectors = append(collectors,
			adapter.NewBulkAdapter(client, cfg.Sources.Bulk.BaseURL, cfg.Sources.Bulk.Categories, logger))
	}
	if cfg.Sources.LinkedIn.Enabled {
		collectors = append(collectors,
			adapter.NewLinkedInAdapter(client, cfg.Sources.LinkedIn.Queries, cfg.Sources.LinkedIn.GeoID, cfg.Sources.LinkedIn.MaxPages, logger))
	}
	if cfg.Sources.Greenhouse.Enabled {
		collectors = append(collectors,
			adapter.NewGreenhouseAdapter(client, cfg.Sources.Greenhouse.APIBase, logger))
	}
	if cfg.Sources.Lever.Enabled {
		collectors = append(collectors,
			adapter.NewLeverAdapter(client, cfg.Sources.Lever.APIBase, logger))
	}

	for _, c := range collectors {
		logger.Info("registered source", "source", c.Source())
	}

	return pipeline.NewRunner(dir, dataset, collectors, logger), nil
}
