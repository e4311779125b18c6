// Package main is the entry point for the Figure Timeline API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pkordes/figure-timeline/internal/cache"
	"github.com/pkordes/figure-timeline/internal/config"
	"github.com/pkordes/figure-timeline/internal/handler"
	"github.com/pkordes/figure-timeline/internal/middleware"
	"github.com/pkordes/figure-timeline/internal/repo"
	"github.com/pkordes/figure-timeline/internal/service"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Database ---------------------------------------------------------
	backend, err := cfg.Driver()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}
	store, err := repo.Open(context.Background(), backend, cfg.DatabaseURL, cfg.MigrateOnStart)
	if err != nil {
		slog.Error("failed to open database", "backend", backend, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("database connection established", "backend", backend, "migrated", cfg.MigrateOnStart)

	// --- Cache ------------------------------------------------------------
	// The cache is optional: without REDIS_URL every read goes to the store.
	var timelines service.TimelineCache
	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(context.Background(), cfg.RedisURL)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		timelines = cache.NewRedisTimelineCache(client, cfg.CacheTTL)
		slog.Info("timeline cache enabled", "ttl", cfg.CacheTTL.String())
	}

	// --- Services ---------------------------------------------------------
	items := service.NewItemService(store.Items, timelines, logger)
	export := service.NewExportService(store.Items)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer
	// → CORS → body limit.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))

	r.Mount("/", handler.NewServer(items, export, cfg.AuthorID, logger).WithStrictDates(cfg.StrictDates).Routes())

	// --- HTTP Server ------------------------------------------------------
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
