package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"oba/internal/cli"
	"oba/internal/storage"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig()
			if err != nil {
				return err
			}
			if err := storage.RunMigrations(cfg.DatabaseURL); err != nil {
				return err
			}
			return printVersion(cmd, cfg.DatabaseURL)
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Revert migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig()
			if err != nil {
				return err
			}
			if err := storage.RollbackMigrations(cfg.DatabaseURL, steps); err != nil {
				return err
			}
			return printVersion(cmd, cfg.DatabaseURL)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to revert (0 reverts all)")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig()
			if err != nil {
				return err
			}
			return printVersion(cmd, cfg.DatabaseURL)
		},
	})

	return cmd
}

func printVersion(cmd *cobra.Command, dbPath string) error {
	version, dirty, err := storage.MigrationVersion(dbPath)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty: %t)\n", version, dirty)
	return err
}
