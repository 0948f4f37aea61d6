package commands

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSameFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "books.gnucash")

	assert.True(t, sameFile(target, target))
	assert.True(t, sameFile(filepath.Join(dir, ".", "books.gnucash"), target))

	// A sibling differing only in case is a distinct file on the
	// case-sensitive filesystems the watcher runs on.
	assert.False(t, sameFile(filepath.Join(dir, "Books.gnucash"), target))
	assert.False(t, sameFile(filepath.Join(dir, "other.gnucash"), target))
}
