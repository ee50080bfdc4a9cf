package platform

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTestZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func writeTestTarGz(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: name,
			Mode: 0o644,
			Size: int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
}

func TestDecompressZip(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "bundle.zip")
	writeTestZip(t, archivePath, map[string]string{"a.txt": "hello", "sub/b.txt": "world"})

	dest := filepath.Join(dir, "out")
	res, err := decompress(context.Background(), nil, map[string]any{"archive": archivePath, "destination": dest})
	require.NoError(t, err)
	require.True(t, res.Success())

	data, err := os.ReadFile(filepath.Join(dest, "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))

	data, err = os.ReadFile(filepath.Join(dest, "sub", "b.txt"))
	require.NoError(t, err)
	require.Equal(t, "world", string(data))
}

func TestDecompressTarGz(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "bundle.tar.gz")
	writeTestTarGz(t, archivePath, map[string]string{"c.txt": "tar-content"})

	dest := filepath.Join(dir, "out")
	res, err := decompress(context.Background(), nil, map[string]any{"archive": archivePath, "destination": dest})
	require.NoError(t, err)
	require.True(t, res.Success())

	data, err := os.ReadFile(filepath.Join(dest, "c.txt"))
	require.NoError(t, err)
	require.Equal(t, "tar-content", string(data))
}

func TestDecompressUnrecognizedFormat(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "bundle.rar")
	require.NoError(t, os.WriteFile(archivePath, []byte{0}, 0o644))

	_, err := decompress(context.Background(), nil, map[string]any{"archive": archivePath})
	require.Error(t, err)
}

func TestSafeJoinRejectsEscape(t *testing.T) {
	_, err := safeJoin("/tmp/dest", "../../etc/passwd")
	require.Error(t, err)
}

func TestSafeJoinAllowsNestedEntry(t *testing.T) {
	target, err := safeJoin("/tmp/dest", "a/b/c.txt")
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/tmp/dest", "a/b/c.txt"), target)
}

func TestExtractTarReaderRejectsZipSlip(t *testing.T) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "../escape.txt", Mode: 0o644, Size: 4}))
	_, err := tw.Write([]byte("evil"))
	require.NoError(t, err)
	require.NoError(t, tw.Close())

	err = extractTarReader(&buf, t.TempDir())
	require.Error(t, err)
}
