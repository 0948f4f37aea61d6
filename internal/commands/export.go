package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bookport-dev/bookport/internal/gncxml"
	"github.com/bookport-dev/bookport/internal/store"
)

func newExportCommand(cfgPath *string) *cobra.Command {
	var gzipOut bool

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export the ledger store to a GnuCash XML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(*cfgPath)
			if err != nil {
				return err
			}
			defer env.close()

			if err := runExport(cmd.Context(), env.store, args[0], gzipOut || env.cfg.Export.Gzip); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported ledger to %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&gzipOut, "gzip", false, "compress the output")

	return cmd
}

// runExport writes the document to a temporary file next to the target
// and renames it into place, so readers never observe a half-written
// export.
func runExport(ctx context.Context, st store.Reader, outPath string, gzipOut bool) error {
	dir := filepath.Dir(outPath)
	tmp, err := os.CreateTemp(dir, ".bookport-export-*")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	var opts []gncxml.ExporterOption
	if gzipOut {
		opts = append(opts, gncxml.WithGzip())
	}
	if err := gncxml.NewExporter(st, opts...).Export(ctx, tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing export file: %w", err)
	}
	if err := os.Rename(tmp.Name(), outPath); err != nil {
		return fmt.Errorf("publishing export: %w", err)
	}
	return nil
}
