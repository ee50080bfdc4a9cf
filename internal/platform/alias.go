package platform

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/emichael72/auto-forge/internal/forgeerr"
)

func shellRCPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	shell := os.Getenv("SHELL")
	switch {
	case strings.Contains(shell, "zsh"):
		return filepath.Join(home, ".zshrc"), nil
	default:
		return filepath.Join(home, ".bashrc"), nil
	}
}

// createAlias appends `alias <name>='<command>'` to the user's shell rc
// file, skipping the append if an identical line is already present.
// When commit is false the alias is only validated, not written.
func createAlias(ctx context.Context, services *Services, args map[string]any) (forgeerr.CommandResult, error) {
	name, hasName := argString(args, "alias")
	command, hasCommand := argString(args, "command")
	if !hasName || !hasCommand {
		return fail("create_alias: missing alias or command")
	}
	if strings.ContainsAny(name, " \t'\"") {
		return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrInvalidArgument, "invalid alias name %q", name)
	}
	commit := argBool(args, "commit", true)

	line := fmt.Sprintf("alias %s='%s'", name, command)
	if !commit {
		return ok(name), nil
	}

	rcPath, err := shellRCPath()
	if err != nil {
		return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrInternal, "resolve shell rc: %v", err)
	}

	if existing, err := os.Open(rcPath); err == nil {
		scanner := bufio.NewScanner(existing)
		for scanner.Scan() {
			if strings.TrimSpace(scanner.Text()) == line {
				existing.Close()
				return ok(name), nil
			}
		}
		existing.Close()
	}

	f, err := os.OpenFile(rcPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrInternal, "open %q: %v", rcPath, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, line); err != nil {
		return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrInternal, "write %q: %v", rcPath, err)
	}
	return ok(name), nil
}
