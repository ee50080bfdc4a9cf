package platform

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/emichael72/auto-forge/internal/supervisor"
	"github.com/stretchr/testify/require"
)

func TestValidatePrerequisiteExecuteProcessVersion(t *testing.T) {
	services := &Services{Supervisor: supervisor.New(nil)}
	res, err := validatePrerequisite(context.Background(), services, map[string]any{
		"method":  "execute_process",
		"command": "echo version 9.9.9",
		"version": ">=1.0",
	})
	require.NoError(t, err)
	require.Equal(t, 0, res.ReturnCode)
	require.Equal(t, "9.9.9", *res.Response)
}

func TestValidatePrerequisiteReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "version.txt")
	require.NoError(t, os.WriteFile(path, []byte("line one\nversion=2.0\nline three\n"), 0o644))

	services := &Services{Supervisor: supervisor.New(nil)}
	res, err := validatePrerequisite(context.Background(), services, map[string]any{
		"method":            "read_file",
		"command":           path + ":2",
		"expected_response": "version=2.0",
	})
	require.NoError(t, err)
	require.Equal(t, 0, res.ReturnCode)
}

func TestValidatePrerequisiteReadFileMismatchFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "version.txt")
	require.NoError(t, os.WriteFile(path, []byte("version=1.0\n"), 0o644))

	services := &Services{Supervisor: supervisor.New(nil)}
	_, err := validatePrerequisite(context.Background(), services, map[string]any{
		"method":            "read_file",
		"command":           path + ":1",
		"expected_response": "version=9.0",
	})
	require.Error(t, err)
}
