package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/emichael72/auto-forge/internal/forgeerr"
	"github.com/emichael72/auto-forge/internal/supervisor"
)

// executeCLICommand runs an arbitrary named command with its argument
// list, comparing the exit code against expected_return_code (default 0)
// instead of the usual zero-means-success rule.
func executeCLICommand(ctx context.Context, services *Services, args map[string]any) (forgeerr.CommandResult, error) {
	name, hasName := argString(args, "name")
	if !hasName || name == "" {
		return fail("execute_cli_command: missing name")
	}

	command := []string{name}
	if rawArgs, ok := args["arguments"].([]any); ok {
		for _, a := range rawArgs {
			if s, ok := a.(string); ok {
				command = append(command, s)
			}
		}
	}

	expectedRC := 0
	if v, ok := args["expected_return_code"].(float64); ok {
		expectedRC = int(v)
	}

	res, err := services.Supervisor.Run(ctx, supervisor.Options{
		Command:       command,
		Shell:         argBool(args, "shell", false),
		Cwd:           argStringDefault(args, "cwd", ""),
		Env:           services.ChildEnv(nil),
		Timeout:       timeoutFrom(args, time.Minute),
		EchoType:      supervisor.EchoLine,
		SearchedToken: argStringDefault(args, "searched_token", ""),
	})
	if err != nil {
		return res, err
	}

	if res.ReturnCode != expectedRC {
		msg := fmt.Sprintf("execute_cli_command: %q returned %d, expected %d", name, res.ReturnCode, expectedRC)
		res.Message = &msg
		return res, &forgeerr.CommandFailedError{Result: res}
	}
	return res, nil
}
