package platform

import (
	"context"
	"os"
	"testing"

	"github.com/emichael72/auto-forge/internal/forgeerr"
	"github.com/emichael72/auto-forge/internal/variables"
	"github.com/stretchr/testify/require"
)

func TestEnvironmentVariableSetAndExpect(t *testing.T) {
	services := &Services{Vars: variables.New()}

	_, err := environmentVariableSet(context.Background(), services, map[string]any{
		"name": "AUTOFORGE_TEST_VAR", "value": "hello",
	})
	require.NoError(t, err)
	defer os.Unsetenv("AUTOFORGE_TEST_VAR")

	res, err := environmentVariableExpect(context.Background(), services, map[string]any{
		"name": "AUTOFORGE_TEST_VAR",
	})
	require.NoError(t, err)
	require.Equal(t, "hello", *res.Response)
}

func TestEnvironmentVariableExpectMissingFails(t *testing.T) {
	services := &Services{Vars: variables.New()}
	_, err := environmentVariableExpect(context.Background(), services, map[string]any{
		"name": "AUTOFORGE_DOES_NOT_EXIST",
	})
	require.ErrorIs(t, err, forgeerr.ErrNotFound)
}

func TestEnvironmentVariableAppendToPathSkipsDuplicate(t *testing.T) {
	services := &Services{Vars: variables.New()}
	original := os.Getenv("PATH")
	defer os.Setenv("PATH", original)

	res1, err := environmentVariableAppendToPath(context.Background(), services, map[string]any{"value": "/opt/autoforge/bin"})
	require.NoError(t, err)

	res2, err := environmentVariableAppendToPath(context.Background(), services, map[string]any{"value": "/opt/autoforge/bin"})
	require.NoError(t, err)
	require.Equal(t, *res1.Response, *res2.Response)
}
