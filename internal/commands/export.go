package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"oba/internal/cli"
	"oba/internal/export"
	"oba/internal/log"
	"oba/internal/services"
)

func newExportCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the ledger to an Excel workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			ledger := services.NewLedger(store, nil, logger)
			defer ledger.Close()

			file, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := export.WriteWorkbook(cmd.Context(), ledger, file); err != nil {
				file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return fmt.Errorf("close %s: %w", out, err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return err
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "oba.xlsx", "output file")
	return cmd
}
