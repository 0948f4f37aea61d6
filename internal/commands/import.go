package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bookport-dev/bookport/internal/gncxml"
)

func newImportCommand(cfgPath *string) *cobra.Command {
	var merge bool
	var noCatchUp bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a GnuCash file (xml, gzip or zip) into the ledger store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(*cfgPath)
			if err != nil {
				return err
			}
			defer env.close()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening input: %w", err)
			}
			defer f.Close()

			res, err := runImport(cmd.Context(), env, f, merge, noCatchUp)
			if err != nil {
				return err
			}
			printImportSummary(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().BoolVar(&merge, "merge", false, "upsert into the existing ledger instead of replacing it")
	cmd.Flags().BoolVar(&noCatchUp, "no-catch-up", false, "skip generation of missed schedule instances")

	return cmd
}

func runImport(ctx context.Context, env *environment, r io.Reader, merge, noCatchUp bool) (*gncxml.Result, error) {
	opts := []gncxml.ImporterOption{gncxml.WithLogger(env.log)}
	if merge || env.cfg.Import.Merge {
		opts = append(opts, gncxml.WithMerge())
	}
	if noCatchUp || !env.cfg.Import.CatchUp {
		opts = append(opts, gncxml.WithCatchUp(false))
	}
	return gncxml.NewImporter(env.store, opts...).Import(ctx, r)
}

func printImportSummary(w io.Writer, res *gncxml.Result) {
	fmt.Fprintf(w, "Imported %d accounts, %d transactions, %d commodities (%s)\n",
		res.Accounts, res.Transactions, res.Commodities, res.Transport)
	if res.GeneratedTransactions > 0 {
		fmt.Fprintf(w, "Generated %d missed schedule instances\n", res.GeneratedTransactions)
	}
	if res.SkippedSchedules > 0 {
		fmt.Fprintf(w, "Skipped %d unsupported schedules\n", res.SkippedSchedules)
	}
	if res.DefaultCurrency != "" {
		fmt.Fprintf(w, "Default currency: %s\n", res.DefaultCurrency)
	}
}
