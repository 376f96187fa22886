package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/giygas/lighthospital/config"
	"github.com/giygas/lighthospital/data"
	"github.com/giygas/lighthospital/handlers"
	"github.com/giygas/lighthospital/health"
	"github.com/giygas/lighthospital/logging"
	"github.com/giygas/lighthospital/scheduler"
	"github.com/giygas/lighthospital/server"
	"github.com/giygas/lighthospital/store"
	"github.com/giygas/lighthospital/validation"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file loaded, using the environment")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logging.InitLogger(logging.Options{
		Dir:            cfg.LogDir,
		Prefix:         "search",
		Env:            cfg.Env,
		Level:          cfg.LogLevel,
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
	})
	defer logging.Close()

	if err := run(cfg); err != nil {
		logging.Error("Search service stopped with an error", "error", err)
		logging.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	if cfg.SeedDemo || cfg.SeedFile != "" {
		if err := store.Seed(ctx, cfg.DBPath, cfg.SeedFile); err != nil {
			return fmt.Errorf("seeding %s: %w", cfg.DBPath, err)
		}
	}

	db, err := store.Open(ctx, cfg.DBPath)
	if errors.Is(err, store.ErrNotFound) {
		logging.Error("Catalog database not found, set SEED_DEMO=true to create a demo database", "path", cfg.DBPath)
		return err
	}
	if err != nil {
		return err
	}
	defer db.Close()

	interval := time.Duration(cfg.IndexRefreshMinutes) * time.Minute

	dataContainer := data.NewDataContainer()
	dataContainer.SetServerStartTime(time.Now())
	validator := validation.NewDataValidator()

	sched := scheduler.NewScheduler(dataContainer, db, validator, interval)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	healthChecker := health.NewHealthChecker(dataContainer, interval)
	handler := handlers.NewHTTPHandler(dataContainer, validator, healthChecker, cfg.SearchLimit)
	srv := server.NewServer(cfg, handler)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-quit:
		logging.Info("Received signal", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
