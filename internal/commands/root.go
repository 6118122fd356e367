// Package commands implements the oba command line.
package commands

import (
	"github.com/spf13/cobra"

	"oba/internal/buildinfo"
	"oba/internal/cli"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "oba",
		Short:   "Envelope budgeting ledger",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cli.LoadEnvFile()
		},
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newMigrateCommand())
	rootCmd.AddCommand(newResetCommand())
	rootCmd.AddCommand(newExportCommand())

	return rootCmd
}
