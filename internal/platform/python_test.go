package platform

import (
	"context"
	"testing"

	"github.com/emichael72/auto-forge/internal/supervisor"
	"github.com/stretchr/testify/require"
)

func TestVenvPythonAndPipPaths(t *testing.T) {
	require.Equal(t, "/opt/venv/bin/python", venvPython("/opt/venv"))
	require.Equal(t, "/opt/venv/bin/pip", venvPip("/opt/venv"))
}

func TestPipCommandDefaultsToAmbientPip(t *testing.T) {
	require.Equal(t, []string{"pip"}, pipCommand(map[string]any{}))
}

func TestPipCommandUsesVenv(t *testing.T) {
	require.Equal(t, []string{"/opt/venv/bin/pip"}, pipCommand(map[string]any{"venv": "/opt/venv"}))
}

func TestPipShowVersionRegexExtractsVersion(t *testing.T) {
	out := "Name: requests\nVersion: 2.31.0\nSummary: HTTP library\n"
	m := pipShowVersionRe.FindStringSubmatch(out)
	require.NotNil(t, m)
	require.Equal(t, "2.31.0", m[1])
}

func TestPythonVirtualenvCreateMissingPath(t *testing.T) {
	services := &Services{Supervisor: supervisor.New(nil)}
	_, err := pythonVirtualenvCreate(context.Background(), services, map[string]any{})
	require.Error(t, err)
}

func TestPythonPackageAddMissingArguments(t *testing.T) {
	services := &Services{Supervisor: supervisor.New(nil)}
	_, err := pythonPackageAdd(context.Background(), services, map[string]any{})
	require.Error(t, err)
}

func TestPythonPackageUninstallMissingPackage(t *testing.T) {
	services := &Services{Supervisor: supervisor.New(nil)}
	_, err := pythonPackageUninstall(context.Background(), services, map[string]any{})
	require.Error(t, err)
}

func TestPythonPackageGetVersionMissingPackage(t *testing.T) {
	services := &Services{Supervisor: supervisor.New(nil)}
	_, err := pythonPackageGetVersion(context.Background(), services, map[string]any{})
	require.Error(t, err)
}
