// Package command provides command execution adapters.
package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/felixgeelhaar/crostini-setup/internal/ports"
)

// RealRunner executes actual system commands.
type RealRunner struct {
	env        []string
	transcript io.Writer
}

// RunnerOption configures a RealRunner.
type RunnerOption func(*RealRunner)

// WithEnv appends KEY=VALUE pairs to the inherited environment of every command.
func WithEnv(pairs ...string) RunnerOption {
	return func(r *RealRunner) {
		r.env = append(r.env, pairs...)
	}
}

// WithTranscript echoes each command line, prefixed with "$ ", to w before it runs.
func WithTranscript(w io.Writer) RunnerOption {
	return func(r *RealRunner) {
		r.transcript = w
	}
}

// NewRealRunner creates a new RealRunner.
func NewRealRunner(opts ...RunnerOption) *RealRunner {
	r := &RealRunner{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes a command and returns the result.
func (r *RealRunner) Run(ctx context.Context, command string, args ...string) (ports.CommandResult, error) {
	return r.RunIn(ctx, "", command, args...)
}

// RunIn executes a command with its working directory set to dir.
func (r *RealRunner) RunIn(ctx context.Context, dir, command string, args ...string) (ports.CommandResult, error) {
	if r.transcript != nil {
		_, _ = fmt.Fprintf(r.transcript, "$ %s\n", ports.CommandCall{Command: command, Args: args}.String())
	}

	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = dir
	if len(r.env) > 0 {
		cmd.Env = append(os.Environ(), r.env...)
	}

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := ports.CommandResult{
		ExitCode: 0,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, err
	}

	return result, nil
}

var _ ports.CommandRunner = (*RealRunner)(nil)
