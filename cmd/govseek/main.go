package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phuslu/log"

	"github.com/civisearch/govseek/internal/cache"
	"github.com/civisearch/govseek/internal/config"
	"github.com/civisearch/govseek/internal/govdata"
	"github.com/civisearch/govseek/internal/logger"
	"github.com/civisearch/govseek/internal/search"
	"github.com/civisearch/govseek/internal/server"
	"github.com/civisearch/govseek/internal/storage"
)

func main() {
	cfg := config.Load()

	logger.Init(logger.LogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Color:  cfg.LogColor,
	})

	log.Info().
		Str("version", "1.0.0").
		Str("storage_type", cfg.StorageType).
		Str("log_level", cfg.LogLevel).
		Msg("Starting govseek server")

	log.Info().
		Int("cache_max_entries", cfg.CacheMaxEntries).
		Dur("cache_default_ttl", cfg.CacheDefaultTTL).
		Int("rate_limit", cfg.RateLimit).
		Dur("rate_window", cfg.RateWindow).
		Str("port", cfg.Port).
		Msg("Configuration loaded")

	snap, err := storage.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create snapshot storage")
	}

	store := cache.NewStore(cfg.CacheMaxEntries, cfg.CacheDefaultTTL, snap)
	limiter := govdata.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
	gateway := govdata.NewGateway(store, govdata.NewHTTPFetcher(cfg), limiter)
	engine := search.NewEngine(store, snap)

	srv := server.New(cfg, store, gateway, engine)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv.Router(),
	}

	go func() {
		log.Info().Str("address", httpServer.Addr).Msg("HTTP server starting")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Warn().Msg("Shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Flush state before exit; in-memory contents are authoritative
	store.Cleanup()
	if err := snap.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close snapshot storage")
	}

	log.Info().Msg("Server stopped gracefully")
}
