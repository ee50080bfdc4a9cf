package platform

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"time"

	"github.com/emichael72/auto-forge/internal/forgeerr"
	"github.com/emichael72/auto-forge/internal/supervisor"
)

func venvPython(venvPath string) string {
	return filepath.Join(venvPath, "bin", "python")
}

func venvPip(venvPath string) string {
	return filepath.Join(venvPath, "bin", "pip")
}

// pythonVirtualenvCreate runs `python<version?> -m venv <venv_path>`.
func pythonVirtualenvCreate(ctx context.Context, services *Services, args map[string]any) (forgeerr.CommandResult, error) {
	venvPath, hasPath := argString(args, "venv_path")
	if !hasPath || venvPath == "" {
		return fail("python_virtualenv_create: missing venv_path")
	}
	interpreter := argStringDefault(args, "version", "python3")

	return services.Supervisor.Run(ctx, supervisor.Options{
		Command: []string{interpreter, "-m", "venv", venvPath},
		Env:     services.ChildEnv(nil),
		Timeout: timeoutFrom(args, time.Minute),
		Check:   true,
	})
}

func pipCommand(args map[string]any) []string {
	if venvPath, ok := argString(args, "venv"); ok && venvPath != "" {
		return []string{venvPip(venvPath)}
	}
	return []string{"pip"}
}

// pythonUpdatePip upgrades pip itself inside a venv (or the ambient
// interpreter when venv is not given).
func pythonUpdatePip(ctx context.Context, services *Services, args map[string]any) (forgeerr.CommandResult, error) {
	cmd := append(pipCommand(args), "install", "--upgrade", "pip")
	return services.Supervisor.Run(ctx, supervisor.Options{
		Command: cmd,
		Env:     services.ChildEnv(nil),
		Timeout: timeoutFrom(args, 2*time.Minute),
		Check:   true,
	})
}

// pythonPackageAdd installs a package or a requirements file.
func pythonPackageAdd(ctx context.Context, services *Services, args map[string]any) (forgeerr.CommandResult, error) {
	cmd := append(pipCommand(args), "install")
	if req, ok := argString(args, "requirements"); ok && req != "" {
		cmd = append(cmd, "-r", req)
	} else if pkg, ok := argString(args, "package"); ok && pkg != "" {
		cmd = append(cmd, pkg)
	} else {
		return fail("python_package_add: missing package or requirements")
	}
	return services.Supervisor.Run(ctx, supervisor.Options{
		Command: cmd,
		Env:     services.ChildEnv(nil),
		Timeout: timeoutFrom(args, 3*time.Minute),
		Check:   true,
	})
}

// pythonPackageUninstall removes an installed package.
func pythonPackageUninstall(ctx context.Context, services *Services, args map[string]any) (forgeerr.CommandResult, error) {
	pkg, ok := argString(args, "package")
	if !ok || pkg == "" {
		return fail("python_package_uninstall: missing package")
	}
	cmd := append(pipCommand(args), "uninstall", "-y", pkg)
	return services.Supervisor.Run(ctx, supervisor.Options{
		Command: cmd,
		Env:     services.ChildEnv(nil),
		Timeout: timeoutFrom(args, time.Minute),
		Check:   true,
	})
}

var pipShowVersionRe = regexp.MustCompile(`(?m)^Version:\s*(\S+)`)

// pythonPackageGetVersion runs `pip show <package>` and extracts the
// Version: line, returning it as the result's Response string.
func pythonPackageGetVersion(ctx context.Context, services *Services, args map[string]any) (forgeerr.CommandResult, error) {
	pkg, ok := argString(args, "package")
	if !ok || pkg == "" {
		return fail("python_package_get_version: missing package")
	}
	cmd := append(pipCommand(args), "show", pkg)
	res, err := services.Supervisor.Run(ctx, supervisor.Options{
		Command: cmd,
		Env:     services.ChildEnv(nil),
		Timeout: timeoutFrom(args, 30*time.Second),
	})
	if err != nil {
		return res, err
	}
	if !res.Success() || res.Response == nil {
		return fail(fmt.Sprintf("python_package_get_version: %q is not installed", pkg))
	}
	m := pipShowVersionRe.FindStringSubmatch(*res.Response)
	if m == nil {
		return fail(fmt.Sprintf("python_package_get_version: could not parse version for %q", pkg))
	}
	version := m[1]
	res.Response = &version
	return res, nil
}
