package platform

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeGitHubURLRewritesTreeURL(t *testing.T) {
	api, isDir := normalizeGitHubURL("https://github.com/owner/repo/tree/main/solutions/demo")
	require.True(t, isDir)
	require.Equal(t, "https://api.github.com/repos/owner/repo/contents/solutions/demo?ref=main", api)
}

func TestNormalizeGitHubURLPassesThroughOtherURLs(t *testing.T) {
	api, isDir := normalizeGitHubURL("https://example.com/archive.zip")
	require.False(t, isDir)
	require.Equal(t, "https://example.com/archive.zip", api)
}

func TestStreamToFileCopiesAllBytes(t *testing.T) {
	src := strings.NewReader(strings.Repeat("x", urlChunkSize*2+37))
	var dst bytes.Buffer
	n, err := streamToFile(src, &dst)
	require.NoError(t, err)
	require.Equal(t, int64(urlChunkSize*2+37), n)
	require.Equal(t, urlChunkSize*2+37, dst.Len())
}

func TestURLGetMissingURL(t *testing.T) {
	res, err := urlGet(context.Background(), nil, map[string]any{})
	require.NoError(t, err)
	require.NotEqual(t, 0, res.ReturnCode)
}

func TestURLGetDownloadsToDestination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("file contents"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "downloaded.txt")
	res, err := urlGet(context.Background(), &Services{}, map[string]any{
		"url":         srv.URL,
		"destination": dest,
	})
	require.NoError(t, err)
	require.Equal(t, 0, res.ReturnCode)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "file contents", string(data))
}

func TestURLGetRejectsExistingDestinationWithoutDeleteFlag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("x"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "exists.txt")
	require.NoError(t, os.WriteFile(dest, []byte("old"), 0o644))

	res, err := urlGet(context.Background(), &Services{}, map[string]any{
		"url":         srv.URL,
		"destination": dest,
	})
	require.NoError(t, err)
	require.NotEqual(t, 0, res.ReturnCode)
}

func TestURLGetNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	res, err := urlGet(context.Background(), &Services{}, map[string]any{
		"url":         srv.URL,
		"destination": filepath.Join(t.TempDir(), "missing.txt"),
	})
	require.NoError(t, err)
	require.NotEqual(t, 0, res.ReturnCode)
}

func TestGitGetPathFromURLRejectsNonTreeURL(t *testing.T) {
	res, err := gitGetPathFromURL(context.Background(), &Services{}, map[string]any{"url": "https://example.com/x"})
	require.NoError(t, err)
	require.NotEqual(t, 0, res.ReturnCode)
}
