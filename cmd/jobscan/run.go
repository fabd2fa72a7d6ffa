package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/eladgov/jobscan/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single fetch cycle and exit",
	RunE:  runOnce,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	runner, err := buildRunner(cfg, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := runner.Run(ctx)
	if errors.Is(err, pipeline.ErrAlreadyRunning) {
		return fmt.Errorf("another run is already in progress")
	}
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	if summary.Added > 0 {
		n := setupNotifier(cfg, logger)
		if err := n.Notify(summary.NewJobs); err != nil {
			logger.Warn("notification failed", "error", err)
		}
	}

	fmt.Printf("done: %d jobs total, %d new\n", summary.Total, summary.Added)
	return nil
}
