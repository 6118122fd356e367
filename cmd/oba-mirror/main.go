package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"oba/internal/amqp"
	"oba/internal/cli"
	"oba/internal/config"
	"oba/internal/log"
	"oba/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	cfg := config.Load()
	logger, err := cli.SetupLogger(cfg, log.ComponentWorker)
	if err != nil {
		logger = log.New(log.DefaultConfig())
		logger.Error("Invalid log level", log.FieldError, err)
		os.Exit(1)
	}

	if err := cfg.ValidateMirror(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("Mirror worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Mirror worker shutdown complete")
}

func run(cfg *config.Config, logger *log.Logger) error {
	logger.Info("Starting oba-mirror")

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	store, err := cli.InitStore(logger, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	mirror, err := cli.InitMirror(ctx, logger, cfg)
	if err != nil {
		return err
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		return err
	}
	defer amqpClient.Close()

	mw := worker.NewMirrorWorker(store, mirror, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return mw.RunBackfill(gctx, cfg.MirrorBackfillInterval)
	})
	g.Go(func() error {
		return amqpClient.ConsumeLedgerEvents(gctx, mw.HandleLedgerEvent)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
