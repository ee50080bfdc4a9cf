package platform

import (
	"context"
	"strings"
	"time"

	"github.com/emichael72/auto-forge/internal/forgeerr"
	"github.com/emichael72/auto-forge/internal/supervisor"
)

func echoTypeFromArgs(args map[string]any, def supervisor.EchoType) supervisor.EchoType {
	s, ok := argString(args, "echo_type")
	if !ok {
		return def
	}
	switch strings.ToUpper(s) {
	case "NONE":
		return supervisor.EchoNone
	case "BYTE":
		return supervisor.EchoByte
	case "LINE":
		return supervisor.EchoLine
	case "CLEAR_LINE":
		return supervisor.EchoClearLine
	case "SINGLE_LINE":
		return supervisor.EchoSingleLine
	default:
		return def
	}
}

// executeShellCommand is the general-purpose Subprocess Supervisor entry
// point a step reaches for directly, as opposed to the higher-level
// operations (git, pip, ...) that build their own Supervisor.Options.
func executeShellCommand(ctx context.Context, services *Services, args map[string]any) (forgeerr.CommandResult, error) {
	commandAndArgs, hasCommand := argString(args, "command_and_args")
	if !hasCommand || commandAndArgs == "" {
		return fail("execute_shell_command: missing command_and_args")
	}
	shell := argBool(args, "shell", true)

	var command []string
	if shell {
		command = []string{commandAndArgs}
	} else {
		command = strings.Fields(commandAndArgs)
	}

	return services.Supervisor.Run(ctx, supervisor.Options{
		Command:           command,
		Shell:             shell,
		UsePTY:            argBool(args, "use_pty", false),
		Cwd:               argStringDefault(args, "cwd", ""),
		Env:               services.ChildEnv(nil),
		Timeout:           timeoutFrom(args, 60*time.Second),
		EchoType:          echoTypeFromArgs(args, supervisor.EchoNone),
		Check:             argBool(args, "check", false),
		SearchedToken:     argStringDefault(args, "searched_token", ""),
		ApplyColorization: argBool(args, "apply_colorization", false),
	})
}
