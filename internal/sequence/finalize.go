package sequence

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/emichael72/auto-forge/internal/forgeerr"
)

var solutionAssetExtensions = []string{".json", ".jsonc", ".zip", ".py", ".md", ".txt"}

// FinalizeOptions names the paths finalize_workspace_creation needs; they
// are resolved by the caller from the Variable Store ($SCRIPTS_BASE,
// $BUILD_LOGS) before calling Finalize.
type FinalizeOptions struct {
	WorkspacePath   string
	SolutionSource  string // directory holding the original solution package
	ScriptsBase     string
	BuildLogs       string
	SequenceLogPath string
	EnvScriptSource string // shared bootstrap script, e.g. .../assets/env.sh
	SolutionName    string
}

// Finalize mirrors the solution assets into $SCRIPTS_BASE/solution,
// copies the shell bootstrap to the workspace root, moves the sequence
// log under $BUILD_LOGS, and writes .config with solution_name and an
// ISO-8601 (seconds precision) install_date.
func Finalize(opts FinalizeOptions) error {
	solutionDest := filepath.Join(opts.ScriptsBase, "solution")
	if err := os.MkdirAll(solutionDest, 0o755); err != nil {
		return forgeerr.Wrap(forgeerr.ErrInternal, "mkdir %q: %v", solutionDest, err)
	}
	if err := mirrorSolutionAssets(opts.SolutionSource, solutionDest); err != nil {
		return err
	}

	if opts.EnvScriptSource != "" {
		dest := filepath.Join(opts.WorkspacePath, filepath.Base(opts.EnvScriptSource))
		if err := copyFile(opts.EnvScriptSource, dest); err != nil {
			return err
		}
	}

	if opts.SequenceLogPath != "" {
		if err := os.MkdirAll(opts.BuildLogs, 0o755); err != nil {
			return forgeerr.Wrap(forgeerr.ErrInternal, "mkdir %q: %v", opts.BuildLogs, err)
		}
		dest := filepath.Join(opts.BuildLogs, filepath.Base(opts.SequenceLogPath))
		if err := os.Rename(opts.SequenceLogPath, dest); err != nil {
			if err := copyFile(opts.SequenceLogPath, dest); err != nil {
				return err
			}
			os.Remove(opts.SequenceLogPath)
		}
	}

	return writeConfigFile(opts)
}

func mirrorSolutionAssets(src, dest string) error {
	if src == "" {
		return nil
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return forgeerr.Wrap(forgeerr.ErrInternal, "read %q: %v", src, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !containsExt(solutionAssetExtensions, ext) {
			continue
		}
		if err := copyFile(filepath.Join(src, e.Name()), filepath.Join(dest, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

func containsExt(exts []string, ext string) bool {
	for _, e := range exts {
		if e == ext {
			return true
		}
	}
	return false
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return forgeerr.Wrap(forgeerr.ErrInternal, "open %q: %v", src, err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return forgeerr.Wrap(forgeerr.ErrInternal, "create %q: %v", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return forgeerr.Wrap(forgeerr.ErrInternal, "copy %q -> %q: %v", src, dest, err)
	}
	return nil
}

func writeConfigFile(opts FinalizeOptions) error {
	path := filepath.Join(opts.WorkspacePath, ".config")
	f, err := os.Create(path)
	if err != nil {
		return forgeerr.Wrap(forgeerr.ErrInternal, "create %q: %v", path, err)
	}
	defer f.Close()

	installDate := time.Now().Format("2006-01-02T15:04:05Z07:00")
	_, err = fmt.Fprintf(f,
		"# AutoForge workspace configuration\n# generated, do not edit by hand\nsolution_name=%s\ninstall_date=%s\n",
		opts.SolutionName, installDate)
	if err != nil {
		return forgeerr.Wrap(forgeerr.ErrInternal, "write %q: %v", path, err)
	}
	return nil
}
