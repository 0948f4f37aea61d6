package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// debounceDelay coalesces the burst of write events most editors and
// GnuCash itself produce while saving a file.
const debounceDelay = 500 * time.Millisecond

func newWatchCommand(cfgPath *string) *cobra.Command {
	var merge bool

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-import a GnuCash file whenever it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(*cfgPath)
			if err != nil {
				return err
			}
			defer env.close()

			return runWatch(cmd.Context(), env, args[0], merge)
		},
	}

	cmd.Flags().BoolVar(&merge, "merge", false, "upsert into the existing ledger instead of replacing it")

	return cmd
}

func runWatch(ctx context.Context, env *environment, path string, merge bool) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: saves that replace the file
	// (write to temp, rename) would otherwise drop the watch.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	if err := importOnce(ctx, env, abs, merge); err != nil {
		env.log.Error().Err(err).Str("file", abs).Msg("initial import failed")
	}

	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !sameFile(ev.Name, abs) || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceDelay)
				timerC = timer.C
			} else {
				timer.Reset(debounceDelay)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			if err := importOnce(ctx, env, abs, merge); err != nil {
				env.log.Error().Err(err).Str("file", abs).Msg("re-import failed")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			env.log.Error().Err(err).Msg("watch error")
		}
	}
}

func importOnce(ctx context.Context, env *environment, path string, merge bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()

	res, err := runImport(ctx, env, f, merge, false)
	if err != nil {
		return err
	}
	env.log.Info().
		Str("file", filepath.Base(path)).
		Int("accounts", res.Accounts).
		Int("transactions", res.Transactions).
		Msg("ledger imported")
	return nil
}

func sameFile(a, b string) bool {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false
	}
	return filepath.Clean(absA) == filepath.Clean(b)
}
