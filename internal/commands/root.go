// Package commands wires the bookport CLI.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bookport-dev/bookport/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var cfgPath string

	rootCmd := &cobra.Command{
		Use:     "bookport",
		Short:   "GnuCash XML interchange for a relational ledger",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "configuration file (default bookport.yaml)")

	rootCmd.AddCommand(newImportCommand(&cfgPath))
	rootCmd.AddCommand(newExportCommand(&cfgPath))
	rootCmd.AddCommand(newConvertCommand(&cfgPath))
	rootCmd.AddCommand(newAccountsCommand(&cfgPath))
	rootCmd.AddCommand(newWatchCommand(&cfgPath))

	return rootCmd
}
