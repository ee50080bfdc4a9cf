package platform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/emichael72/auto-forge/internal/forgeerr"
)

// protectedPaths returns the set of absolute paths path_erase must never
// touch: the user's home directory and its Documents/Desktop children.
func protectedPaths() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{
		filepath.Clean(home),
		filepath.Join(home, "Documents"),
		filepath.Join(home, "Desktop"),
	}
}

func isProtected(path string) (bool, string) {
	clean := filepath.Clean(path)

	if sepCount := strings.Count(clean, string(os.PathSeparator)); sepCount < 2 {
		return true, fmt.Sprintf("refusing to delete a high-level directory %q", clean)
	}

	for _, p := range protectedPaths() {
		if p != "" && clean == p {
			return true, fmt.Sprintf("refusing to delete protected directory %q", clean)
		}
	}
	return false, ""
}

func fail(msg string) (forgeerr.CommandResult, error) {
	return forgeerr.CommandResult{ReturnCode: 1, Message: &msg}, nil
}

func ok(response string) forgeerr.CommandResult {
	return forgeerr.CommandResult{ReturnCode: 0, Response: &response}
}

// pathErase removes the target path after the protected-path and
// non-empty-directory checks pass.
func pathErase(ctx context.Context, services *Services, args map[string]any) (forgeerr.CommandResult, error) {
	path, ok1 := argString(args, "path")
	if !ok1 || path == "" {
		return fail("path_erase: missing path")
	}
	allowNonEmpty := argBool(args, "allow_non_empty", false)
	raiseIfMissing := argBool(args, "raise_if_missing", false)

	if protected, reason := isProtected(path); protected {
		return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrProtectedPath, "%s", reason)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			if raiseIfMissing {
				return fail(fmt.Sprintf("path_erase: %q does not exist", path))
			}
			return ok(path), nil
		}
		return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrInternal, "stat %q: %v", path, err)
	}

	if info.IsDir() && !allowNonEmpty {
		entries, rerr := os.ReadDir(path)
		if rerr == nil && len(entries) > 0 {
			return fail(fmt.Sprintf("path_erase: %q is a non-empty directory", path))
		}
	}

	if err := os.RemoveAll(path); err != nil {
		return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrInternal, "remove %q: %v", path, err)
	}
	return ok(path), nil
}

// pathCreate creates one or more directories, optionally erasing any
// existing contents first.
func pathCreate(ctx context.Context, services *Services, args map[string]any) (forgeerr.CommandResult, error) {
	var paths []string
	switch v := args["path"].(type) {
	case string:
		paths = []string{v}
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok {
				paths = append(paths, s)
			}
		}
	}
	if len(paths) == 0 {
		return fail("path_create: missing path(s)")
	}
	eraseIfExist := argBool(args, "erase_if_exist", false)

	var last string
	for _, p := range paths {
		if eraseIfExist {
			if _, err := os.Stat(p); err == nil {
				if err := os.RemoveAll(p); err != nil {
					return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrInternal, "erase %q: %v", p, err)
				}
			}
		}
		if err := os.MkdirAll(p, 0o755); err != nil {
			return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrInternal, "mkdir %q: %v", p, err)
		}
		last = p
	}
	return ok(last), nil
}

// initializeWorkspace prepares the workspace root directory: optional
// deletion of an existing directory, an emptiness check, directory
// creation, and an optional chdir.
func initializeWorkspace(ctx context.Context, services *Services, args map[string]any) (forgeerr.CommandResult, error) {
	path, hasPath := argString(args, "path")
	if !hasPath || path == "" {
		return fail("initialize_workspace: missing path")
	}
	deleteExisting := argBool(args, "delete_existing", false)
	mustBeEmpty := argBool(args, "must_be_empty", false)
	createAsNeeded := argBool(args, "create_as_needed", true)
	changeDir := argBool(args, "change_dir", false)

	abs, err := filepath.Abs(path)
	if err != nil {
		return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrInternal, "resolve %q: %v", path, err)
	}
	abs = filepath.Clean(abs)

	if protected, reason := isProtected(abs); protected && deleteExisting {
		return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrProtectedPath, "%s", reason)
	}

	if deleteExisting {
		if err := os.RemoveAll(abs); err != nil {
			return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrInternal, "remove %q: %v", abs, err)
		}
	}

	if info, err := os.Stat(abs); err == nil {
		if mustBeEmpty {
			entries, rerr := os.ReadDir(abs)
			if rerr == nil && len(entries) > 0 {
				return fail(fmt.Sprintf("initialize_workspace: %q is not empty", abs))
			}
		}
		if !info.IsDir() {
			return fail(fmt.Sprintf("initialize_workspace: %q exists and is not a directory", abs))
		}
	} else if os.IsNotExist(err) {
		if !createAsNeeded {
			return fail(fmt.Sprintf("initialize_workspace: %q does not exist", abs))
		}
		if err := os.MkdirAll(abs, 0o755); err != nil {
			return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrInternal, "mkdir %q: %v", abs, err)
		}
	} else {
		return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrInternal, "stat %q: %v", abs, err)
	}

	if changeDir {
		if err := os.Chdir(abs); err != nil {
			return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrInternal, "chdir %q: %v", abs, err)
		}
	}

	return ok(abs), nil
}
