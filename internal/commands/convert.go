package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bookport-dev/bookport/internal/gncxml"
	"github.com/bookport-dev/bookport/internal/logger"
	"github.com/bookport-dev/bookport/internal/store"
)

func newConvertCommand(cfgPath *string) *cobra.Command {
	var gzipOut bool
	var noCatchUp bool

	cmd := &cobra.Command{
		Use:   "convert <in> <out>",
		Short: "Re-encode a GnuCash file through an in-memory ledger",
		Long: `Convert reads a GnuCash file, rebuilds the ledger in memory (including
auto-balancing and schedule catch-up) and writes it back out. Useful for
normalizing files and for switching between plain and gzip transports.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfigArg(*cfgPath)
			if err != nil {
				return err
			}
			res, err := runConvert(cmd.Context(), args[0], args[1],
				gzipOut || cfg.Export.Gzip,
				noCatchUp || !cfg.Import.CatchUp,
				cfg.Logging.Level)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Converted %s (%s) to %s\n", args[0], res.Transport, args[1])
			return nil
		},
	}

	cmd.Flags().BoolVar(&gzipOut, "gzip", false, "compress the output")
	cmd.Flags().BoolVar(&noCatchUp, "no-catch-up", false, "skip generation of missed schedule instances")

	return cmd
}

func runConvert(ctx context.Context, inPath, outPath string, gzipOut, noCatchUp bool, logLevel string) (*gncxml.Result, error) {
	f, err := os.Open(inPath)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()

	st := store.NewMemory()
	opts := []gncxml.ImporterOption{gncxml.WithLogger(logger.New(logLevel))}
	if noCatchUp {
		opts = append(opts, gncxml.WithCatchUp(false))
	}
	res, err := gncxml.NewImporter(st, opts...).Import(ctx, f)
	if err != nil {
		return nil, err
	}
	if err := runExport(ctx, st, outPath, gzipOut); err != nil {
		return nil, err
	}
	return res, nil
}
