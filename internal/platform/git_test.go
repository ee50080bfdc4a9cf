package platform

import (
	"context"
	"testing"
	"time"

	"github.com/emichael72/auto-forge/internal/supervisor"
	"github.com/emichael72/auto-forge/internal/variables"
	"github.com/stretchr/testify/require"
)

func TestTimeoutFromUsesArgWhenPositive(t *testing.T) {
	require.Equal(t, 30*time.Second, timeoutFrom(map[string]any{"timeout": float64(30)}, time.Minute))
}

func TestTimeoutFromFallsBackToDefault(t *testing.T) {
	require.Equal(t, time.Minute, timeoutFrom(map[string]any{}, time.Minute))
	require.Equal(t, time.Minute, timeoutFrom(map[string]any{"timeout": float64(-1)}, time.Minute))
}

func TestGitCheckoutRevisionRejectsNonRepository(t *testing.T) {
	services := &Services{Vars: variables.New(), Supervisor: supervisor.New(nil)}
	_, err := gitCheckoutRevision(context.Background(), services, map[string]any{
		"dest": t.TempDir(),
		"rev":  "main",
	})
	require.Error(t, err)
}

func TestGitCloneRepoMissingArguments(t *testing.T) {
	services := &Services{Vars: variables.New(), Supervisor: supervisor.New(nil)}
	res, err := gitCloneRepo(context.Background(), services, map[string]any{"url": "https://example.invalid/repo.git"})
	require.NoError(t, err)
	require.NotEqual(t, 0, res.ReturnCode)
}
