// Package ports defines interfaces for external dependencies.
package ports

import (
	"context"
	"fmt"
	"strings"
)

// CommandResult represents the result of executing a system command.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success returns true if the command exited with code 0.
func (r CommandResult) Success() bool {
	return r.ExitCode == 0
}

// Output returns stderr when it carries text, stdout otherwise.
// Used to build failure messages for tools that report errors on either stream.
func (r CommandResult) Output() string {
	if s := strings.TrimSpace(r.Stderr); s != "" {
		return s
	}
	return strings.TrimSpace(r.Stdout)
}

// CommandCall records a command invocation.
type CommandCall struct {
	Command string
	Args    []string
	// Dir is the working directory, empty for the caller's own.
	Dir string
}

// String renders the call the way a shell transcript would show it.
func (c CommandCall) String() string {
	if len(c.Args) == 0 {
		return c.Command
	}
	return c.Command + " " + strings.Join(c.Args, " ")
}

// CommandRunner executes system commands.
// Implementations return a non-nil error only when the command could not be
// started; a non-zero exit status is reported through CommandResult.
type CommandRunner interface {
	Run(ctx context.Context, command string, args ...string) (CommandResult, error)
	// RunIn is Run with the working directory set to dir.
	RunIn(ctx context.Context, dir, command string, args ...string) (CommandResult, error)
}

// CommandError describes a command that ran but exited unsuccessfully.
type CommandError struct {
	Call   CommandCall
	Result CommandResult
}

// Error returns the formatted error message.
func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Call.String(), e.Result.ExitCode)
	if out := e.Result.Output(); out != "" {
		msg += ": " + out
	}
	return msg
}

// RunChecked runs a command and converts a non-zero exit status into a
// *CommandError.
func RunChecked(ctx context.Context, runner CommandRunner, command string, args ...string) (CommandResult, error) {
	result, err := runner.Run(ctx, command, args...)
	if err != nil {
		return result, fmt.Errorf("%s: %w", CommandCall{Command: command, Args: args}.String(), err)
	}
	if !result.Success() {
		return result, &CommandError{
			Call:   CommandCall{Command: command, Args: args},
			Result: result,
		}
	}
	return result, nil
}
