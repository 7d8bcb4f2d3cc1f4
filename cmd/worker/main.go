package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"oleotrax/certificate-portal/internal/app"
	"oleotrax/certificate-portal/internal/config"
)

// The worker runs the monthly register job outside the API process. With
// -month it archives a single month and exits.
func main() {
	configPath := flag.String("config", "config.json", "path to the JSON config file")
	month := flag.String("month", "", "archive the register of this month (YYYY-MM) and exit")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := app.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer application.Close()

	scheduler, err := application.Scheduler()
	if err != nil {
		logger.Fatal("Failed to create register scheduler", zap.Error(err))
	}

	if *month != "" {
		key, err := scheduler.RunMonth(ctx, *month)
		if err != nil {
			logger.Fatal("Failed to archive register", zap.String("month", *month), zap.Error(err))
		}
		logger.Info("One-shot register run finished", zap.String("key", key))
		return
	}

	if err := scheduler.Start(); err != nil {
		logger.Fatal("Failed to start register scheduler", zap.Error(err))
	}

	logger.Info("Register worker started", zap.Time("next_run", scheduler.NextRun()))
	<-ctx.Done()

	logger.Info("Shutdown signal received")
	scheduler.Stop()
	logger.Info("Register worker stopped")
}
