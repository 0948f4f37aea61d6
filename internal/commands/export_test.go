package commands

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookport-dev/bookport/internal/gncxml"
	"github.com/bookport-dev/bookport/internal/store"
)

func TestRunExportPublishesAtomically(t *testing.T) {
	st := store.NewMemory()
	_, err := gncxml.NewImporter(st).Import(context.Background(), strings.NewReader(testDoc()))
	require.NoError(t, err)

	dir := t.TempDir()
	out := filepath.Join(dir, "ledger.gnucash")
	require.NoError(t, runExport(context.Background(), st, out, false))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<gnc-v2")

	// No leftover temporary files next to the target.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ledger.gnucash", entries[0].Name())
}

func TestRunExportCancelledLeavesNoOutput(t *testing.T) {
	st := store.NewMemory()
	_, err := gncxml.NewImporter(st).Import(context.Background(), strings.NewReader(testDoc()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := t.TempDir()
	out := filepath.Join(dir, "ledger.gnucash")
	require.ErrorIs(t, runExport(ctx, st, out, false), context.Canceled)

	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunExportOverwritesExisting(t *testing.T) {
	st := store.NewMemory()
	_, err := gncxml.NewImporter(st).Import(context.Background(), strings.NewReader(testDoc()))
	require.NoError(t, err)

	dir := t.TempDir()
	out := filepath.Join(dir, "ledger.gnucash")
	require.NoError(t, os.WriteFile(out, []byte("stale"), 0o644))

	require.NoError(t, runExport(context.Background(), st, out, false))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.NotEqual(t, "stale", string(data))
}
