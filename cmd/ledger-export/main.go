package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"diamonds/internal/amqp"
	"diamonds/internal/config"
	"diamonds/internal/log"
	"diamonds/internal/settings"
	"diamonds/internal/sheets"
	gsheet "diamonds/internal/sheets/google"
	sheetsmem "diamonds/internal/sheets/memory"
	"diamonds/internal/storage"
	"diamonds/internal/storage/memory"
	"diamonds/internal/store"
	"diamonds/internal/worker"
)

func main() {
	once := flag.Bool("once", false, "export the reconciliation once and exit instead of consuming change events")
	flag.Parse()

	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: log.ComponentApp,
	})
	log.SetDefault(logger)

	logger.Info("Starting ledger-export", "once", *once)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger, *once); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Ledger export failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Ledger export stopped")
}

func run(cfg *config.Config, logger *log.Logger, once bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	defaults, err := settings.LoadFile(cfg.SettingsFile)
	if err != nil {
		logger.Warn("Settings file unreadable, using built-in defaults", "error", err, "path", cfg.SettingsFile)
	}

	var kv storage.KV
	switch cfg.DataBackend {
	case "sqlite":
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return fmt.Errorf("initialize SQLite repository at %s: %w", cfg.SQLiteDBPath, err)
		}
		defer repo.Close()
		kv = repo
	default:
		// Only seed files are visible to a separate process.
		kv = memory.NewFromFiles(cfg.MemorySeedDir)
	}

	var exporter sheets.ReconciliationExporter
	if cfg.SheetsExportEnabled() {
		client, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			return fmt.Errorf("initialize Google Sheets client: %w", err)
		}
		exporter = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		exporter = sheetsmem.New()
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, exporting to memory")
	}

	st := store.New(kv, defaults, store.WithLogger(logger))
	w := worker.NewExportWorker(st, exporter, cfg.Factors, logger)

	if err := w.StartupExport(ctx); err != nil {
		if once {
			return err
		}
		// Keep consuming; the next change event retries the export.
		logger.Error("Startup export failed", "error", err)
	}
	if once {
		return nil
	}

	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is required unless -once is given")
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("initialize AMQP client: %w", err)
	}
	defer client.Close()

	logger.Info("Consuming ledger change events", "queue", cfg.AMQPQueue)
	return client.ConsumeLedgerChanged(ctx, w.HandleLedgerChanged)
}
