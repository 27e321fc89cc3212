package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vibetix/event-scraper/app/api"
	"github.com/vibetix/event-scraper/app/cfg"
	"github.com/vibetix/event-scraper/app/config"
	"github.com/vibetix/event-scraper/app/database"
	"github.com/vibetix/event-scraper/app/extract"
	"github.com/vibetix/event-scraper/app/normalize"
	"github.com/vibetix/event-scraper/app/scheduler"
	"github.com/vibetix/event-scraper/app/scraper"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Event Scraper", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBHost, appCfg.DBPort, appCfg.DBUser,
		appCfg.DBPassword, appCfg.DBName)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("Connected to database")

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database migrations applied", "version", version, "dirty", dirty)

	platforms, err := config.NewLoader(appCfg.PlatformsDir).LoadAll()
	if err != nil {
		slog.Error("Failed to load platform configurations", "error", err)
		os.Exit(1)
	}
	if len(platforms) == 0 {
		slog.Warn("No platform configurations found", "dir", appCfg.PlatformsDir)
	}
	registry := config.NewRegistry(platforms)
	slog.Info("Loaded platform configurations", "count", registry.Count())

	eventRepo := database.NewEventRepository(db)
	runRepo := database.NewRunRepository(db)

	extractionClient := extract.NewClient(
		&http.Client{Timeout: 30 * time.Second},
		appCfg.ExtractionBaseURL,
		appCfg.ExtractionAPIKey,
		appCfg.UserAgent,
		time.Duration(appCfg.ExtractionTimeout)*time.Second,
	)
	if !extractionClient.Configured() {
		slog.Warn("Extraction API key not set, scrape runs will be rejected")
	}

	normalizer := normalize.NewNormalizer(appCfg.LocalCurrency)

	scraperService := scraper.NewService(registry, extractionClient, normalizer,
		eventRepo, runRepo, appCfg.FuzzyThreshold)

	var sched *scheduler.Scheduler
	if appCfg.SchedulerEnabled {
		sched = scheduler.NewScheduler(scraperService, appCfg.ScrapeHour, appCfg.ScrapeMinute)
		sched.Start()
		defer sched.Stop()
	} else {
		slog.Info("Scheduler disabled, scrapes run only via the API")
	}

	apiHandler := api.NewHandler(scraperService, sched, eventRepo, appCfg.Version)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // manual runs respond only when the run completes
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	slog.Info("Event Scraper started")

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}
