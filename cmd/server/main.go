package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/transit-complaints/backend/internal/app"
	"github.com/transit-complaints/backend/internal/config"
	"github.com/transit-complaints/backend/internal/db"
	httpapi "github.com/transit-complaints/backend/internal/http"
	"github.com/transit-complaints/backend/internal/metrics"
	"github.com/transit-complaints/backend/internal/service"
	"github.com/transit-complaints/backend/internal/settings"
	"github.com/transit-complaints/backend/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := app.NewLogger(cfg, "transit-complaints")

	ctx := context.Background()
	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to apply schema")
	}

	settingsStore, closeSettings, err := app.SettingsStore(ctx, cfg, store, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open settings store")
	}
	defer closeSettings()

	gate := settings.NewGate(settingsStore, cfg.SettingsCacheTTL, logger)
	if err := gate.Seed(ctx); err != nil {
		logger.Warn().Err(err).Msg("settings seed failed, flags will initialize lazily")
	}

	m := metrics.New()
	engine := app.NewEngine(ctx, cfg, gate, m, logger)
	runner := worker.NewRunner(cfg.AnalysisJobs, cfg.RequestTimeout, logger)

	complaints := &service.ComplaintService{
		Repo:   store,
		Engine: engine,
		Runner: runner,
		Logger: logger.With().Str("component", "complaints").Logger(),
		Mode:   cfg.AnalysisMode,
		Delay:  cfg.AnalysisDelay,
	}

	router := httpapi.Router(cfg, store, complaints, gate, m.Handler(), logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Str("analysis_mode", cfg.AnalysisMode).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	if err := runner.Close(ctxShutdown); err != nil {
		logger.Warn().Err(err).Msg("pending analyses dropped on shutdown")
	}
	logger.Info().Msg("server stopped")
}
