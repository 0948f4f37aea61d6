package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportCommandSummary(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.gnucash")
	require.NoError(t, os.WriteFile(in, []byte(testDoc()), 0o644))

	root := NewRootCommand()
	var stdout bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stdout)
	root.SetArgs([]string{"import", in})
	require.NoError(t, root.Execute())

	assert.Contains(t, stdout.String(), "Imported 3 accounts, 1 transactions, 1 commodities (xml)")
	assert.Contains(t, stdout.String(), "Default currency: USD")
}

func TestImportCommandMissingFile(t *testing.T) {
	root := NewRootCommand()
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"import", filepath.Join(t.TempDir(), "missing.gnucash")})
	require.Error(t, root.Execute())
}

func TestImportCommandExplicitConfig(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.gnucash")
	cfgPath := filepath.Join(dir, "bookport.yaml")
	require.NoError(t, os.WriteFile(in, []byte(testDoc()), 0o644))
	require.NoError(t, os.WriteFile(cfgPath, []byte("logging:\n  level: error\n"), 0o644))

	root := NewRootCommand()
	var stdout bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stdout)
	root.SetArgs([]string{"--config", cfgPath, "import", in})
	require.NoError(t, root.Execute())
	assert.Contains(t, stdout.String(), "Imported")
}
