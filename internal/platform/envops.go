package platform

import (
	"context"
	"os"
	"strings"

	"github.com/emichael72/auto-forge/internal/forgeerr"
)

// environmentVariableSet sets name=value in both the process environment
// and the Variable Store, so later steps and child processes see it.
func environmentVariableSet(ctx context.Context, services *Services, args map[string]any) (forgeerr.CommandResult, error) {
	name, hasName := argString(args, "name")
	value, hasValue := argString(args, "value")
	if !hasName || !hasValue {
		return fail("environment_variable_set: missing name or value")
	}
	if err := os.Setenv(name, value); err != nil {
		return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrInternal, "setenv %q: %v", name, err)
	}
	services.Vars.Set(name, value)
	return ok(value), nil
}

// environmentVariableExpect fails unless name is present (and non-empty
// unless allow_empty is set).
func environmentVariableExpect(ctx context.Context, services *Services, args map[string]any) (forgeerr.CommandResult, error) {
	name, hasName := argString(args, "name")
	if !hasName {
		return fail("environment_variable_expect: missing name")
	}
	v, present := os.LookupEnv(name)
	if !present {
		return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrNotFound, "environment variable %q is not set", name)
	}
	if v == "" && !argBool(args, "allow_empty", false) {
		return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrNotFound, "environment variable %q is empty", name)
	}
	return ok(v), nil
}

// environmentVariableExpand reads name from the environment and expands
// it through the Variable Store, returning the expanded value.
func environmentVariableExpand(ctx context.Context, services *Services, args map[string]any) (forgeerr.CommandResult, error) {
	name, hasName := argString(args, "name")
	if !hasName {
		return fail("environment_variable_expand: missing name")
	}
	v, present := os.LookupEnv(name)
	if !present {
		return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrNotFound, "environment variable %q is not set", name)
	}
	expanded, err := services.Vars.Expand(v)
	if err != nil {
		return forgeerr.CommandResult{}, err
	}
	return ok(expanded), nil
}

// environmentVariableAppendToPath appends a directory to PATH, skipping
// the append when the entry is already present.
func environmentVariableAppendToPath(ctx context.Context, services *Services, args map[string]any) (forgeerr.CommandResult, error) {
	dir, hasDir := argString(args, "value")
	if !hasDir || dir == "" {
		return fail("environment_variable_append_to_path: missing value")
	}

	current := os.Getenv("PATH")
	parts := strings.Split(current, string(os.PathListSeparator))
	for _, p := range parts {
		if p == dir {
			return ok(current), nil
		}
	}

	newPath := current
	if newPath != "" {
		newPath += string(os.PathListSeparator)
	}
	newPath += dir

	if err := os.Setenv("PATH", newPath); err != nil {
		return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrInternal, "setenv PATH: %v", err)
	}
	services.Vars.Set("PATH", newPath)
	return ok(newPath), nil
}
