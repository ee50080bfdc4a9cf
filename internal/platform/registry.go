// Package platform implements the fixed set of named operations a
// sequence step may dispatch to: path management, archive extraction,
// URL fetch, git, Python virtual environments, environment variables,
// shell aliases, prerequisite validation, CLI-command invocation, and
// shell-command execution. Handlers are registered in a string-keyed
// map the way tools/si dispatches its root commands, rather than through
// reflection over method names.
package platform

import (
	"context"
	"sync"

	"github.com/emichael72/auto-forge/internal/forgeerr"
	"github.com/emichael72/auto-forge/internal/supervisor"
	"github.com/emichael72/auto-forge/internal/variables"
)

// Operation is the signature every dispatchable method implements:
// arguments arrive as a string-keyed map already variable-expanded by the
// caller, and the operation returns a CommandResult on both the happy and
// sad path.
type Operation func(ctx context.Context, services *Services, args map[string]any) (forgeerr.CommandResult, error)

// Services bundles the shared collaborators every operation may need:
// the Variable Store for lookups/registration, the Supervisor for
// subprocess execution, and the active distro id for per-distro argument
// resolution.
type Services struct {
	Vars       *variables.Store
	Supervisor *supervisor.Supervisor
	DistroID   string
	GitToken   string
	ProxyURL   string
}

// ChildEnv builds the environment for a subprocess step: the process
// environment overlaid with the Variable Store export, overlaid with
// extra (the caller's highest-priority layer, e.g. venv activation). A nil
// Vars contributes no layer.
func (s *Services) ChildEnv(extra map[string]string) []string {
	if s.Vars == nil {
		return variables.New().EnvironFor(extra)
	}
	return s.Vars.EnvironFor(extra)
}

// Registry holds the fixed operation table, built lazily on first use the
// way tools/si's root-command dispatcher builds its handler map.
type Registry struct {
	once sync.Once
	ops  map[string]Operation
}

var defaultRegistry Registry

// Default returns the process-wide Registry with every built-in operation
// registered.
func Default() *Registry {
	defaultRegistry.once.Do(defaultRegistry.init)
	return &defaultRegistry
}

func (r *Registry) init() {
	r.ops = map[string]Operation{
		"initialize_workspace":        initializeWorkspace,
		"path_erase":                  pathErase,
		"path_create":                 pathCreate,
		"decompress":                  decompress,
		"url_get":                     urlGet,
		"git_clone_repo":              gitCloneRepo,
		"git_checkout_revision":       gitCheckoutRevision,
		"git_get_path_from_url":       gitGetPathFromURL,
		"python_virtualenv_create":    pythonVirtualenvCreate,
		"python_update_pip":           pythonUpdatePip,
		"python_package_add":          pythonPackageAdd,
		"python_package_uninstall":    pythonPackageUninstall,
		"python_package_get_version":  pythonPackageGetVersion,
		"environment_variable_set":    environmentVariableSet,
		"environment_variable_expect": environmentVariableExpect,
		"environment_variable_expand": environmentVariableExpand,
		"environment_variable_append_to_path": environmentVariableAppendToPath,
		"create_alias":                createAlias,
		"validate_prerequisite":       validatePrerequisite,
		"execute_cli_command":         executeCLICommand,
		"execute_shell_command":       executeShellCommand,
	}
}

// Lookup returns the operation registered under name, or
// forgeerr.ErrNotFound wrapped with the method name.
func (r *Registry) Lookup(name string) (Operation, error) {
	r.once.Do(r.init)
	op, ok := r.ops[name]
	if !ok {
		return nil, forgeerr.Wrap(forgeerr.ErrNotFound, "no platform operation named %q", name)
	}
	return op, nil
}

// Dispatch is the entry point the Sequence Runner calls for every
// non-conditional step: it resolves the named operation and invokes it
// with the step's already-expanded argument map.
func (r *Registry) Dispatch(ctx context.Context, services *Services, method string, args map[string]any) (forgeerr.CommandResult, error) {
	op, err := r.Lookup(method)
	if err != nil {
		return forgeerr.CommandResult{}, err
	}
	return op(ctx, services, args)
}

func argString(args map[string]any, key string) (string, bool) {
	v, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func argBool(args map[string]any, key string, def bool) bool {
	v, ok := args[key]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

func argStringDefault(args map[string]any, key, def string) string {
	if s, ok := argString(args, key); ok {
		return s
	}
	return def
}
