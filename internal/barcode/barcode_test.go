package barcode

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateWritesPNG(t *testing.T) {
	dir := t.TempDir()
	gen := NewGenerator(dir)

	path, err := gen.Generate("A001")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "A001_barcode.png"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestGenerateReusesExistingArtifact(t *testing.T) {
	dir := t.TempDir()
	gen := NewGenerator(dir)

	path, err := gen.Generate("A001")
	require.NoError(t, err)
	first, err := os.Stat(path)
	require.NoError(t, err)

	again, err := gen.Generate("A001")
	require.NoError(t, err)
	assert.Equal(t, path, again)

	second, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, first.ModTime(), second.ModTime())
}
