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

	"github.com/joho/godotenv"

	"conclave/internal/app"
	"conclave/internal/config"
	"conclave/internal/generate"
	"conclave/internal/store"
	httpTransport "conclave/internal/transport/http"
)

func main() {
	// Load .env if present; real environment wins
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Set up logger
	logOpts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	var logger *slog.Logger
	if cfg.Logging.Format == "json" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, logOpts))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, logOpts))
	}

	slog.SetDefault(logger)

	logger.Info("starting conclave game server",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	// Snapshot store: sqlite when a DSN is configured, in-process otherwise
	var st store.Store
	if cfg.Store.DSN != "" {
		sqliteStore, err := store.NewSQLite(cfg.Store.DSN, cfg.Store.TTL, logger)
		if err != nil {
			logger.Error("failed to open snapshot store", "error", err)
			os.Exit(1)
		}
		defer sqliteStore.Close()
		st = sqliteStore
		logger.Info("using sqlite snapshot store", "dsn", cfg.Store.DSN)
	} else {
		st = store.NewMemory(cfg.Store.TTL)
		logger.Info("using in-memory snapshot store")
	}

	// Response generator: Gemini when an API key is configured, the
	// offline generator otherwise.
	var gen generate.Generator
	if cfg.Generator.APIKey != "" {
		gemini, err := generate.NewGemini(context.Background(), cfg.Generator.APIKey, cfg.Generator.Model)
		if err != nil {
			logger.Error("failed to create generator", "error", err)
			os.Exit(1)
		}
		defer gemini.Close()
		gen = gemini
		logger.Info("using gemini generator", "model", cfg.Generator.Model)
	} else {
		gen = generate.Static{}
		logger.Info("using offline generator")
	}

	// Create session hub
	hub := app.NewSessionHub(gen, st, cfg.Game, logger)
	defer hub.Close()

	// Create HTTP server
	server := httpTransport.NewServer(cfg, hub, logger)

	// Start server in goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
