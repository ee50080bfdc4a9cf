package platform

import (
	"context"
	"testing"

	"github.com/emichael72/auto-forge/internal/supervisor"
	"github.com/stretchr/testify/require"
)

func TestExecuteCLICommandSucceeds(t *testing.T) {
	services := &Services{Supervisor: supervisor.New(nil)}
	res, err := executeCLICommand(context.Background(), services, map[string]any{
		"name":      "true",
		"arguments": []any{},
	})
	require.NoError(t, err)
	require.True(t, res.Success())
}

func TestExecuteCLICommandUnexpectedReturnCode(t *testing.T) {
	services := &Services{Supervisor: supervisor.New(nil)}
	_, err := executeCLICommand(context.Background(), services, map[string]any{
		"name":                 "sh",
		"arguments":            []any{"-c", "exit 3"},
		"expected_return_code": float64(0),
	})
	require.Error(t, err)
}

func TestExecuteCLICommandMatchesExpectedReturnCode(t *testing.T) {
	services := &Services{Supervisor: supervisor.New(nil)}
	res, err := executeCLICommand(context.Background(), services, map[string]any{
		"name":                 "sh",
		"arguments":            []any{"-c", "exit 3"},
		"expected_return_code": float64(3),
	})
	require.NoError(t, err)
	require.Equal(t, 3, res.ReturnCode)
}

func TestExecuteCLICommandMissingName(t *testing.T) {
	services := &Services{Supervisor: supervisor.New(nil)}
	res, err := executeCLICommand(context.Background(), services, map[string]any{})
	require.NoError(t, err)
	require.NotEqual(t, 0, res.ReturnCode)
}
