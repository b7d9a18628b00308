package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"popchat/internal/api"
	"popchat/internal/backend"
	"popchat/internal/cache"
	"popchat/internal/chart"
	"popchat/internal/config"
	"popchat/internal/session"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := session.Open(cfg.DBPath)
	if err != nil {
		log.Error("open session store", "error", err)
		os.Exit(1)
	}

	bk := backend.NewClient(cfg.BackendURL, cfg.BackendAPIKey, cfg.BackendTimeout)
	stats := backend.NewStats(cfg.StatsWindow)
	extractor := chart.NewExtractor(cfg.ChartBaseURL, log)

	results := cache.NewStore(cfg.CacheTTL)
	go results.Janitor(ctx, cfg.CleanupInterval)

	srv := api.NewServer(store, bk, extractor, results, stats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		bk.Close()
		if err := store.Close(); err != nil {
			log.Warn("close session store", "error", err)
		}
	}()

	log.Info("starting popchat", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
