package main

import (
	"io"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/crostini-setup/internal/adapters/command"
	"github.com/felixgeelhaar/crostini-setup/internal/adapters/filesystem"
	"github.com/felixgeelhaar/crostini-setup/internal/domain/keyring"
	"github.com/felixgeelhaar/crostini-setup/internal/ports"
	"github.com/felixgeelhaar/crostini-setup/internal/tui/ui"
)

// environment is everything a command touches outside the process. Tests
// replace the fields with mocks.
type environment struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	geteuid    func() int
	getenv     func(string) string
	lookupUser func(string) (*user.User, error)
	now        func() time.Time

	runner     ports.CommandRunner
	fs         ports.FileSystem
	logger     ports.Logger
	newFetcher func(keyserver string) keyring.Fetcher

	terminal bool
	width    int
	rerun    string
}

// newEnvironment wires the real adapters.
func newEnvironment(cmd *cobra.Command) *environment {
	stdout := cmd.OutOrStdout()

	opts := []command.RunnerOption{command.WithEnv("DEBIAN_FRONTEND=noninteractive")}
	if verbose {
		opts = append(opts, command.WithTranscript(stdout))
	}

	return &environment{
		stdin:      cmd.InOrStdin(),
		stdout:     stdout,
		stderr:     cmd.ErrOrStderr(),
		geteuid:    os.Geteuid,
		getenv:     os.Getenv,
		lookupUser: user.Lookup,
		now:        time.Now,
		runner:     command.NewRealRunner(opts...),
		fs:         filesystem.NewRealFileSystem(),
		logger:     newLogger(cmd.ErrOrStderr()),
		newFetcher: func(keyserver string) keyring.Fetcher {
			return keyring.NewHKPFetcher(keyserver)
		},
		terminal: ui.IsTerminal(int(os.Stdin.Fd())) && ui.IsTerminal(int(os.Stdout.Fd())),
		width:    ui.TerminalWidth(int(os.Stdout.Fd())),
		rerun:    rerunCommand(os.Args[0]),
	}
}

// rerunCommand is the command line the operator should type after rebooting.
func rerunCommand(arg0 string) string {
	if arg0 == "" || filepath.Base(arg0) == arg0 {
		return "sudo crostini-setup"
	}
	return "sudo " + arg0
}
