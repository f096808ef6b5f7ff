// Planet STAC proxy server entry point
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

	"github.com/robert-malhotra/planet-stac-proxy/internal/api"
	"github.com/robert-malhotra/planet-stac-proxy/internal/config"
	"github.com/robert-malhotra/planet-stac-proxy/internal/planet"
	"github.com/robert-malhotra/planet-stac-proxy/internal/stac"
	"github.com/robert-malhotra/planet-stac-proxy/internal/translate"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format)

	logger.Info("starting Planet STAC proxy",
		"version", cfg.STAC.Version,
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	catalog := config.NewCatalog()
	if cfg.STAC.CatalogDir != "" {
		catalog, err = config.LoadCatalog(cfg.STAC.CatalogDir)
		if err != nil {
			return fmt.Errorf("failed to load item type catalog: %w", err)
		}
	}
	logger.Info("loaded item type catalog", "count", catalog.Count())

	var codec *stac.TokenCodec
	if cfg.STAC.TokenKey != "" {
		key, err := stac.ParseTokenKey(cfg.STAC.TokenKey)
		if err != nil {
			return fmt.Errorf("invalid token key: %w", err)
		}
		codec = stac.NewTokenCodec(key)
	} else {
		codec, err = stac.NewRandomTokenCodec()
		if err != nil {
			return fmt.Errorf("failed to create token codec: %w", err)
		}
		logger.Warn("no token key configured, pagination tokens will not survive restarts")
	}

	client := planet.NewClient(cfg.Planet.BaseURL, cfg.Planet.Timeout).WithLogger(logger)
	ring := planet.NewKeyRing(cfg.Planet.APIKeys)
	if ring != nil {
		logger.Info("rotating over configured Planet API keys", "count", len(cfg.Planet.APIKeys))
	} else {
		logger.Info("no Planet API keys configured, callers must supply credentials")
	}

	resolver := translate.NewAssetResolver(client, catalog, logger)
	assembler := translate.NewAssembler(resolver, codec, cfg.STAC.BaseURL, cfg.STAC.Version, 0, logger)

	handler := api.NewHandler(client, catalog, ring, codec, assembler, cfg, logger)
	router := api.NewRouter(handler, logger)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("received shutdown signal", "signal", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	logger.Info("shutting down server", "timeout", cfg.Server.ShutdownTimeout)
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
