package platform

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/emichael72/auto-forge/internal/forgeerr"
	"github.com/emichael72/auto-forge/internal/supervisor"
)

// resolveDistroArgs accepts either a flat argument map (identified by the
// presence of a "command" key) or a map keyed by distro id with a
// "default" fallback, and returns the flat map that applies to the
// active distro.
func resolveDistroArgs(args map[string]any, distroID string) (map[string]any, error) {
	if _, flat := args["command"]; flat {
		return args, nil
	}
	if distroID != "" {
		if v, ok := args[distroID]; ok {
			if m, ok := v.(map[string]any); ok {
				return m, nil
			}
		}
	}
	if v, ok := args["default"]; ok {
		if m, ok := v.(map[string]any); ok {
			return m, nil
		}
	}
	return nil, forgeerr.Wrap(forgeerr.ErrInvalidArgument, "no arguments for distro %q and no default", distroID)
}

// validatePrerequisite dispatches to one of execute_process, read_file,
// or sys_package depending on the "method" argument, after resolving
// per-distro arguments.
func validatePrerequisite(ctx context.Context, services *Services, args map[string]any) (forgeerr.CommandResult, error) {
	method, hasMethod := argString(args, "method")
	if !hasMethod {
		return fail("validate_prerequisite: missing method")
	}

	resolved, err := resolveDistroArgs(args, services.DistroID)
	if err != nil {
		return forgeerr.CommandResult{}, err
	}

	switch method {
	case "execute_process":
		return validateExecuteProcess(ctx, services, resolved)
	case "read_file":
		return validateReadFile(resolved)
	case "sys_package":
		return validateSysPackage(ctx, services, resolved)
	default:
		return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrUnsupported, "unknown validate_prerequisite method %q", method)
	}
}

func validateExecuteProcess(ctx context.Context, services *Services, args map[string]any) (forgeerr.CommandResult, error) {
	commandLine, hasCommand := argString(args, "command")
	if !hasCommand {
		return fail("validate_prerequisite(execute_process): missing command")
	}

	res, err := services.Supervisor.Run(ctx, supervisor.Options{
		Command: strings.Fields(commandLine),
		Env:     services.ChildEnv(nil),
		Timeout: timeoutFrom(args, 10*time.Second),
	})
	if err != nil {
		return res, err
	}
	if !res.Success() || res.Response == nil {
		return fail(fmt.Sprintf("validate_prerequisite: %q failed", commandLine))
	}

	output := *res.Response

	if expected, hasExpected := argString(args, "expected_response"); hasExpected && expected != "" {
		if strings.Contains(output, expected) {
			return ok(output), nil
		}
		return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrVersionMismatch,
			"expected response %q not found in output of %q", expected, commandLine)
	}

	if version, hasVersion := argString(args, "version"); hasVersion && version != "" {
		detected, found := extractVersion(output)
		if !found {
			return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrVersionMismatch,
				"no version token found in output of %q", commandLine)
		}
		if !satisfiesConstraint(detected, version) {
			return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrVersionMismatch,
				"detected version %q does not satisfy %q", detected, version)
		}
		return ok(detected), nil
	}

	return ok(output), nil
}

// validateReadFile implements the "<file_path>:<line_number>[:<line_count>]"
// command syntax: read the given line(s) and match against
// expected_response.
func validateReadFile(args map[string]any) (forgeerr.CommandResult, error) {
	commandStr, hasCommand := argString(args, "command")
	if !hasCommand {
		return fail("validate_prerequisite(read_file): missing command")
	}

	parts := strings.SplitN(commandStr, ":", 3)
	if len(parts) < 2 {
		return fail(fmt.Sprintf("validate_prerequisite(read_file): malformed command %q", commandStr))
	}
	path := parts[0]
	lineNum, err := strconv.Atoi(parts[1])
	if err != nil || lineNum < 1 {
		return fail(fmt.Sprintf("validate_prerequisite(read_file): bad line number in %q", commandStr))
	}
	lineCount := 1
	if len(parts) == 3 {
		if n, err := strconv.Atoi(parts[2]); err == nil && n > 0 {
			lineCount = n
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrNotFound, "open %q: %v", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var collected []string
	current := 1
	for scanner.Scan() {
		if current >= lineNum && current < lineNum+lineCount {
			collected = append(collected, scanner.Text())
		}
		current++
		if current >= lineNum+lineCount {
			break
		}
	}

	text := strings.Join(collected, "\n")
	if expected, hasExpected := argString(args, "expected_response"); hasExpected && expected != "" {
		if !strings.Contains(text, expected) {
			return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrVersionMismatch,
				"expected %q not found on %s:%d", expected, path, lineNum)
		}
	}
	return ok(text), nil
}

func validateSysPackage(ctx context.Context, services *Services, args map[string]any) (forgeerr.CommandResult, error) {
	pkg, hasPkg := argString(args, "package")
	if !hasPkg {
		return fail("validate_prerequisite(sys_package): missing package")
	}

	res, err := services.Supervisor.Run(ctx, supervisor.Options{
		Command: []string{"dpkg", "-s", pkg},
		Env:     services.ChildEnv(nil),
		Timeout: timeoutFrom(args, 10*time.Second),
	})
	if err != nil {
		return res, err
	}
	if !res.Success() {
		return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrNotFound, "system package %q is not installed", pkg)
	}
	return ok(pkg), nil
}
