package platform

import (
	"context"
	"testing"

	"github.com/emichael72/auto-forge/internal/supervisor"
	"github.com/stretchr/testify/require"
)

func TestExecuteShellCommandRuns(t *testing.T) {
	services := &Services{Supervisor: supervisor.New(nil)}
	res, err := executeShellCommand(context.Background(), services, map[string]any{
		"command_and_args": "true",
	})
	require.NoError(t, err)
	require.Equal(t, 0, res.ReturnCode)
}

func TestExecuteShellCommandMissingCommand(t *testing.T) {
	services := &Services{Supervisor: supervisor.New(nil)}
	res, err := executeShellCommand(context.Background(), services, map[string]any{})
	require.NoError(t, err)
	require.NotEqual(t, 0, res.ReturnCode)
}
