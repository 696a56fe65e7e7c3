package archive

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readZipEntries(t *testing.T, path string) map[string][]byte {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	entries := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		entries[f.Name] = data
	}
	return entries
}

func TestBuildSingleFileUsesEntryName(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "tmp-upload-1234")
	require.NoError(t, os.WriteFile(src, []byte("print('hello')\n"), 0o644))

	dest := filepath.Join(dir, "out.zip")
	require.NoError(t, Build(src, dest, "app.py"))

	entries := readZipEntries(t, dest)
	require.Len(t, entries, 1)
	assert.Equal(t, []byte("print('hello')\n"), entries["app.py"])
}

func TestBuildDirectoryKeepsRelativePaths(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "template")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "src", "lib"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "README.md"), []byte("# readme"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "src", "main.go"), []byte("package main"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "src", "lib", "util.go"), []byte("package lib"), 0o644))

	dest := filepath.Join(dir, "out.zip")
	require.NoError(t, Build(src, dest, "ignored"))

	entries := readZipEntries(t, dest)
	require.Len(t, entries, 3)
	assert.Equal(t, []byte("# readme"), entries["README.md"])
	assert.Equal(t, []byte("package main"), entries["src/main.go"])
	assert.Equal(t, []byte("package lib"), entries["src/lib/util.go"])
}

func TestBuildMissingSource(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "out.zip")

	err := Build(filepath.Join(dir, "nope"), dest, "app.py")
	require.Error(t, err)

	// No partial archive and no leftover temp file.
	leftovers, globErr := filepath.Glob(filepath.Join(dir, "*"))
	require.NoError(t, globErr)
	assert.Empty(t, leftovers)
}

func TestBuildLeavesSourceIntact(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "input.txt")
	require.NoError(t, os.WriteFile(src, []byte("data"), 0o644))

	require.NoError(t, Build(src, filepath.Join(dir, "out.zip"), "input.txt"))

	data, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), data)
}
