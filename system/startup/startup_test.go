package startup

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnsureOutputDir_CreatesNestedDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data", "captured_images")

	assert.NoError(t, ensureOutputDir(dir))

	info, err := os.Stat(dir)
	assert.NoError(t, err)
	assert.True(t, info.IsDir())

	// The writability probe must not leave anything behind.
	entries, err := os.ReadDir(dir)
	assert.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEnsureOutputDir_ExistingDirIsFine(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, ensureOutputDir(dir))
}

func TestEnsureOutputDir_CreateFailure(t *testing.T) {
	orig := mkdirAll
	mkdirAll = func(string, os.FileMode) error { return errors.New("read-only file system") }
	defer func() { mkdirAll = orig }()

	assert.Error(t, ensureOutputDir("/somewhere/captured_images"))
}
