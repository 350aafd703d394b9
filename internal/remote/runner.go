// Package remote issues shell commands on a deploy target and captures their
// output. Commands are synchronous and fail-fast: a non-zero exit aborts the
// enclosing task, nothing is retried.
package remote

import (
	"context"
	"fmt"
	"strings"
)

// Command is one remote shell invocation.
type Command struct {
	// Dir is the working directory, run through the remote shell so home
	// shorthand like ~/app works.
	Dir string
	// Script is the shell fragment to run.
	Script string
	// LoginShell sources the command through an interactive bash so
	// profile-configured environment (virtualenvs, PATH) is available.
	LoginShell bool
}

// Result captures a finished command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// ExitError reports a command that finished with a non-zero status.
type ExitError struct {
	Script string
	Result Result
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command %q exited with status %d", e.Script, e.Result.ExitCode)
}

// Runner executes commands on a single remote host.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// Script renders a Command into the single shell line shipped to the host.
func Script(cmd Command) string {
	script := cmd.Script
	if cmd.LoginShell {
		script = "bash -i -c '" + strings.ReplaceAll(script, "'", `'\''`) + "'"
	}
	if cmd.Dir != "" {
		script = "cd " + cmd.Dir + " && " + script
	}
	return script
}
