package platform

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/emichael72/auto-forge/internal/forgeerr"
	"github.com/emichael72/auto-forge/internal/supervisor"
)

func timeoutFrom(args map[string]any, def time.Duration) time.Duration {
	if v, ok := args["timeout"].(float64); ok && v > 0 {
		return time.Duration(v) * time.Second
	}
	return def
}

// gitCloneRepo clones url into dest, erasing an existing non-empty dest
// first when clear is set (delegated to path_erase's protected-path
// rules so a clone can never be pointed at $HOME).
func gitCloneRepo(ctx context.Context, services *Services, args map[string]any) (forgeerr.CommandResult, error) {
	url, hasURL := argString(args, "url")
	dest, hasDest := argString(args, "dest")
	if !hasURL || !hasDest {
		return fail("git_clone_repo: missing url or dest")
	}
	clear := argBool(args, "clear", false)

	if clear {
		if _, err := os.Stat(dest); err == nil {
			if res, err := pathErase(ctx, services, map[string]any{"path": dest, "allow_non_empty": true}); err != nil {
				return res, err
			}
		}
	}

	return services.Supervisor.Run(ctx, supervisor.Options{
		Command: []string{"git", "clone", "--progress", url, dest},
		Env:     services.ChildEnv(nil),
		Timeout: timeoutFrom(args, 5*time.Minute),
		Check:   true,
	})
}

// gitCheckoutRevision checks out rev in an existing clone at dest,
// optionally pulling first.
func gitCheckoutRevision(ctx context.Context, services *Services, args map[string]any) (forgeerr.CommandResult, error) {
	dest, hasDest := argString(args, "dest")
	rev, hasRev := argString(args, "rev")
	if !hasDest || !hasRev {
		return fail("git_checkout_revision: missing dest or rev")
	}
	if info, err := os.Stat(dest); err != nil || !info.IsDir() {
		return fail(fmt.Sprintf("git_checkout_revision: %q is not a git repository", dest))
	}

	timeout := timeoutFrom(args, 2*time.Minute)

	if argBool(args, "pull_latest", false) {
		if res, err := services.Supervisor.Run(ctx, supervisor.Options{
			Command: []string{"git", "-C", dest, "pull"},
			Env:     services.ChildEnv(nil),
			Timeout: timeout,
			Check:   true,
		}); err != nil {
			return res, err
		}
	}

	return services.Supervisor.Run(ctx, supervisor.Options{
		Command: []string{"git", "-C", dest, "checkout", rev},
		Env:     services.ChildEnv(nil),
		Timeout: timeout,
		Check:   true,
	})
}
