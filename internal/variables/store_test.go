package variables

import (
	"testing"

	"github.com/emichael72/auto-forge/internal/forgeerr"
	"github.com/stretchr/testify/require"
)

func TestAddAndGetCaseInsensitive(t *testing.T) {
	s := New()
	require.NoError(t, s.Add("Workspace_Path", "/tmp/ws", false, false, false, FolderWorkspace, "root dir"))

	f, ok := s.Get("WORKSPACE_PATH")
	require.True(t, ok)
	require.Equal(t, "Workspace_Path", f.Key)
	require.Equal(t, "/tmp/ws", f.Value)
}

func TestAddDuplicateFails(t *testing.T) {
	s := New()
	require.NoError(t, s.Add("NAME", "a", false, false, false, FolderUnknown, ""))
	err := s.Add("name", "b", false, false, false, FolderUnknown, "")
	require.ErrorIs(t, err, forgeerr.ErrAlreadyExists)
}

func TestAddPathMustExistMissing(t *testing.T) {
	s := New()
	err := s.Add("SRC", "/no/such/path/for/autoforge/test", true, true, false, FolderSource, "")
	require.ErrorIs(t, err, forgeerr.ErrNotFound)
}

func TestAddPathCreateIfMissing(t *testing.T) {
	dir := t.TempDir() + "/nested/create"
	s := New()
	require.NoError(t, s.Add("BUILD_DIR", dir, true, true, true, FolderBuild, ""))
	f, ok := s.Get("build_dir")
	require.True(t, ok)
	require.Equal(t, dir, f.Value)
}

func TestExpandDollarAndBraces(t *testing.T) {
	s := New()
	require.NoError(t, s.Add("NAME", "demo", false, false, false, FolderUnknown, ""))
	require.NoError(t, s.Add("VER", "1.2", false, false, false, FolderUnknown, ""))

	got, err := s.Expand("pkg-$NAME-${VER}.tar")
	require.NoError(t, err)
	require.Equal(t, "pkg-demo-1.2.tar", got)
}

func TestExpandPreservesCommandSubstitution(t *testing.T) {
	s := New()
	require.NoError(t, s.Add("NAME", "demo", false, false, false, FolderUnknown, ""))

	got, err := s.Expand("echo $NAME && $(date +%s)")
	require.NoError(t, err)
	require.Equal(t, "echo demo && $(date +%s)", got)
}

func TestExpandUndefinedFails(t *testing.T) {
	s := New()
	_, err := s.Expand("$MISSING")
	require.ErrorIs(t, err, forgeerr.ErrUnresolvedVariable)
}

func TestExpandIsIdempotent(t *testing.T) {
	s := New()
	require.NoError(t, s.Add("NAME", "demo", false, false, false, FolderUnknown, ""))

	input := "value=$NAME and $(echo hi)"
	once, err := s.Expand(input)
	require.NoError(t, err)
	twice, err := s.Expand(once)
	require.NoError(t, err)
	require.Equal(t, once, twice)
}

func TestExpandAnyWalksNested(t *testing.T) {
	s := New()
	require.NoError(t, s.Add("ROOT", "/ws", false, false, false, FolderWorkspace, ""))

	data := map[string]any{
		"path": "$ROOT/bin",
		"list": []any{"$ROOT/a", 42, true},
	}
	out, err := s.ExpandAny(data)
	require.NoError(t, err)

	m := out.(map[string]any)
	require.Equal(t, "/ws/bin", m["path"])
	list := m["list"].([]any)
	require.Equal(t, "/ws/a", list[0])
	require.Equal(t, 42, list[1])
	require.Equal(t, true, list[2])
}

func TestExportAndEnvironFor(t *testing.T) {
	s := New()
	require.NoError(t, s.Add("FOO", "bar", false, false, false, FolderUnknown, ""))

	exported := s.Export()
	require.Equal(t, "bar", exported["FOO"])

	env := s.EnvironFor(map[string]string{"FOO": "override"})
	found := false
	for _, kv := range env {
		if kv == "FOO=override" {
			found = true
		}
	}
	require.True(t, found)
}
