package sequence

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFinalizeWritesConfigAndCopiesAssets(t *testing.T) {
	workspace := t.TempDir()
	solutionSrc := t.TempDir()
	scriptsBase := t.TempDir()
	buildLogs := filepath.Join(t.TempDir(), "logs")

	require.NoError(t, os.WriteFile(filepath.Join(solutionSrc, "solution.jsonc"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(solutionSrc, "notes.md"), []byte("# notes"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(solutionSrc, "ignored.bin"), []byte{0x00}, 0o644))

	envScript := filepath.Join(t.TempDir(), "env.sh")
	require.NoError(t, os.WriteFile(envScript, []byte("#!/bin/sh\n"), 0o755))

	seqLog := filepath.Join(t.TempDir(), "install.log")
	require.NoError(t, os.WriteFile(seqLog, []byte("log contents"), 0o644))

	err := Finalize(FinalizeOptions{
		WorkspacePath:   workspace,
		SolutionSource:  solutionSrc,
		ScriptsBase:     scriptsBase,
		BuildLogs:       buildLogs,
		SequenceLogPath: seqLog,
		EnvScriptSource: envScript,
		SolutionName:    "demo",
	})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(scriptsBase, "solution", "solution.jsonc"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(scriptsBase, "solution", "notes.md"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(scriptsBase, "solution", "ignored.bin"))
	require.True(t, os.IsNotExist(err))

	_, err = os.Stat(filepath.Join(workspace, "env.sh"))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(buildLogs, "install.log"))
	require.NoError(t, err)

	config, err := os.ReadFile(filepath.Join(workspace, ".config"))
	require.NoError(t, err)
	require.True(t, strings.Contains(string(config), "solution_name=demo"))
	require.True(t, strings.Contains(string(config), "install_date="))
}
