package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"oba/internal/cli"
	apphttp "oba/internal/http"
	"oba/internal/log"
	"oba/internal/services"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}

	cfg, err := cli.LoadConfig()
	if err != nil {
		return err
	}
	logger, err := cli.SetupLogger(cfg, log.ComponentApp)
	if err != nil {
		return err
	}

	store, err := cli.InitStore(logger, cfg)
	if err != nil {
		return err
	}
	events, err := cli.InitPublisher(logger, cfg)
	if err != nil {
		_ = store.Close()
		return err
	}

	ledger := services.NewLedger(store, events, logger)
	defer func() {
		if err := ledger.Close(); err != nil {
			logger.Error("Failed to close ledger", log.FieldError, err)
		}
	}()

	proxies, err := apphttp.ParseProxyList(cfg.TrustedProxies)
	if err != nil {
		return err
	}
	srv := apphttp.NewServer(cfg.Addr(), ledger, logger, apphttp.WithTrustedProxies(proxies))

	ctx, cancel := cli.SignalContext(parent, logger)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting oba server", "addr", cfg.Addr(), "database", cfg.DatabaseURL, "events", cfg.EventsEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err)
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
