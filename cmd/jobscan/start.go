package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/eladgov/jobscan/internal/scheduler"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the refresh daemon",
	Long:  "Run the fetch pipeline on the configured interval; blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"interval", cfg.RefreshInterval.String(),
		"data_dir", cfg.DataDir,
		"cache_ttl", cfg.CacheTTL.String(),
		"min_spacing", cfg.RateLimit.MinSpacing.String(),
	)

	runner, err := buildRunner(cfg, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	n := setupNotifier(cfg, logger)
	sched := scheduler.NewScheduler(runner, n, cfg.RefreshInterval, logger)
	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
