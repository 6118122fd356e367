// Package cli provides common initialization shared by cmd/oba and
// cmd/oba-mirror.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"oba/internal/amqp"
	"oba/internal/config"
	"oba/internal/log"
	"oba/internal/services"
	"oba/internal/sheets"
	gsheet "oba/internal/sheets/google"
	"oba/internal/sheets/memory"
	"oba/internal/storage"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadConfig loads the environment configuration and validates it.
func LoadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default.
func SetupLogger(cfg *config.Config, component string) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	lc := log.DefaultConfig()
	lc.Level = level
	lc.Format = cfg.LogFormat
	lc.Component = component

	logger := log.New(lc)
	log.SetDefault(logger)
	return logger, nil
}

// InitStore opens the SQLite database and applies pending migrations.
func InitStore(logger *log.Logger, cfg *config.Config) (*storage.Store, error) {
	store, err := storage.NewSQLiteStore(cfg.DatabaseURL, cfg.DBMaxOpenConns)
	if err != nil {
		logger.Error("Failed to initialize SQLite store", log.FieldError, err, "path", cfg.DatabaseURL)
		return nil, err
	}
	return store, nil
}

// InitPublisher connects to the broker when one is configured. Without
// AMQP_URL the ledger runs with a no-op publisher.
func InitPublisher(logger *log.Logger, cfg *config.Config) (services.EventPublisher, error) {
	if !cfg.EventsEnabled() {
		logger.Info("Ledger events disabled - no AMQP_URL provided")
		return services.NopPublisher{}, nil
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	logger.Info("Publishing ledger events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client, nil
}

// InitMirror returns the Google Sheets mirror, or an in-memory one when no
// spreadsheet is configured.
func InitMirror(ctx context.Context, logger *log.Logger, cfg *config.Config) (sheets.LedgerMirror, error) {
	if !cfg.MirrorEnabled() {
		logger.Warn("Google Sheets disabled - mirroring into memory only")
		return memory.New(), nil
	}

	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:     cfg.GoogleSpreadsheetID,
		TransactionsSheet: cfg.GoogleSheetTransactions,
		FillsSheet:        cfg.GoogleSheetFills,
		CredentialsJSON:   cfg.GoogleServiceAccountJSON,
		CredentialsFile:   cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		return nil, err
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM. The
// received signal is logged.
func SignalContext(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
