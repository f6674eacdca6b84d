package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"diamonds/internal/amqp"
	"diamonds/internal/config"
	"diamonds/internal/dashboard"
	apphttp "diamonds/internal/http"
	"diamonds/internal/insight"
	"diamonds/internal/log"
	"diamonds/internal/settings"
	"diamonds/internal/storage"
	"diamonds/internal/storage/memory"
	"diamonds/internal/store"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: log.ComponentApp,
	})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	defaults, err := settings.LoadFile(cfg.SettingsFile)
	if err != nil {
		logger.Warn("Settings file unreadable, using built-in defaults", "error", err, "path", cfg.SettingsFile)
	}

	var serverOpts []apphttp.Option
	var kv storage.KV
	switch cfg.DataBackend {
	case "sqlite":
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return fmt.Errorf("initialize SQLite repository at %s: %w", cfg.SQLiteDBPath, err)
		}
		defer repo.Close()
		kv = repo
		serverOpts = append(serverOpts, apphttp.WithReadyCheck("sqlite", repo.Ping))
		logger.Info("Initialized SQLite backend", "path", cfg.SQLiteDBPath)
	default:
		if cfg.MemorySeedDir != "" {
			kv = memory.NewFromFiles(cfg.MemorySeedDir)
		} else {
			kv = memory.New()
		}
		logger.Info("Initialized memory backend", "seed_dir", cfg.MemorySeedDir)
	}

	storeOpts := []store.Option{store.WithLogger(logger)}
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// Events are best effort; the ledger works without a broker.
			logger.Warn("AMQP unavailable, change events disabled", "error", err)
		} else {
			defer client.Close()
			storeOpts = append(storeOpts, store.WithNotifier(client))
			serverOpts = append(serverOpts, apphttp.WithReadyCheck("amqp", client.Healthy))
			logger.Info("AMQP change events enabled", "exchange", cfg.AMQPExchange)
		}
	}

	st := store.New(kv, defaults, storeOpts...)
	if err := st.Load(ctx); err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}

	dash := dashboard.NewService(cfg.Factors, nil)
	gen := insight.NewHTTPGenerator(cfg.InsightAPIURL, cfg.InsightAPIKey, cfg.InsightModel, cfg.InsightTimeout)
	ins := insight.NewService(gen, logger)
	if cfg.InsightAPIKey == "" {
		logger.Warn("INSIGHT_API_KEY not set, insights will use the fallback text")
	}

	serverOpts = append(serverOpts, apphttp.WithRateLimit(cfg.RateLimit))
	srv := apphttp.NewServer(":"+cfg.Port, st, dash, ins, logger, serverOpts...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting diamonds server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
