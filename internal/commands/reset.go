package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"oba/internal/cli"
	"oba/internal/log"
	"oba/internal/services"
)

func newResetCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every fill, transaction, bucket and account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to reset without --yes")
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
			defer ledger.Close()

			removed, err := ledger.Reset(cmd.Context())
			if err != nil {
				return fmt.Errorf("reset ledger: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "ledger reset: %d rows removed\n", removed)
			return err
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting all data")
	return cmd
}
