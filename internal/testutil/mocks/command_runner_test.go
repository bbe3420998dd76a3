package mocks

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/felixgeelhaar/crostini-setup/internal/ports"
)

func TestCommandRunner_AddResult(t *testing.T) {
	runner := NewCommandRunner()
	runner.AddResult("dpkg-query", []string{"-W", "git"}, ports.CommandResult{
		ExitCode: 0,
		Stdout:   "installed",
	})

	result, err := runner.Run(context.Background(), "dpkg-query", "-W", "git")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Stdout != "installed" {
		t.Errorf("Stdout = %q, want %q", result.Stdout, "installed")
	}
}

func TestCommandRunner_NotFound(t *testing.T) {
	runner := NewCommandRunner()

	_, err := runner.Run(context.Background(), "unknown", "command")
	if err == nil {
		t.Error("Run() should return error for unregistered command")
	}
}

func TestCommandRunner_Fallback(t *testing.T) {
	runner := NewCommandRunner()
	runner.SetFallback("dpkg-query", ports.CommandResult{ExitCode: 1})
	runner.AddResult("dpkg-query", []string{"git"}, ports.CommandResult{ExitCode: 0})

	exact, _ := runner.Run(context.Background(), "dpkg-query", "git")
	if exact.ExitCode != 0 {
		t.Errorf("exact match ExitCode = %d, want 0", exact.ExitCode)
	}
	other, err := runner.Run(context.Background(), "dpkg-query", "vim")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if other.ExitCode != 1 {
		t.Errorf("fallback ExitCode = %d, want 1", other.ExitCode)
	}
}

func TestCommandRunner_AddError(t *testing.T) {
	runner := NewCommandRunner()
	boom := errors.New("boom")
	runner.AddError("killall", []string{"-u", "ubuntu"}, boom)

	_, err := runner.Run(context.Background(), "killall", "-u", "ubuntu")
	if !errors.Is(err, boom) {
		t.Errorf("Run() error = %v, want %v", err, boom)
	}
}

func TestCommandRunner_OnRunAndCalled(t *testing.T) {
	runner := NewCommandRunner()
	fired := false
	runner.AddResult("userdel", []string{"-r", "ubuntu"}, ports.CommandResult{})
	runner.OnRun("userdel", []string{"-r", "ubuntu"}, func() { fired = true })

	_, _ = runner.Run(context.Background(), "userdel", "-r", "ubuntu")

	if !fired {
		t.Error("OnRun hook should fire")
	}
	if !runner.Called("userdel", "-r", "ubuntu") {
		t.Error("Called() should report the invocation")
	}
	if runner.Called("userdel", "ubuntu") {
		t.Error("Called() should match arguments exactly")
	}
}

func TestCommandRunner_Reset(t *testing.T) {
	runner := NewCommandRunner()
	runner.AddResult("id", []string{"-nG", "ubuntu"}, ports.CommandResult{})
	_, _ = runner.Run(context.Background(), "id", "-nG", "ubuntu")

	runner.Reset()

	if len(runner.Calls()) != 0 {
		t.Errorf("Calls() len = %d after Reset, want 0", len(runner.Calls()))
	}
	if _, err := runner.Run(context.Background(), "id", "-nG", "ubuntu"); err == nil {
		t.Error("Run() should fail after Reset")
	}
}

func TestCommandRunner_ConcurrentAccess(t *testing.T) {
	runner := NewCommandRunner()
	runner.SetFallback("true", ports.CommandResult{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = runner.Run(context.Background(), "true")
			_ = runner.Calls()
		}()
	}
	wg.Wait()

	if len(runner.Calls()) != 20 {
		t.Errorf("Calls() len = %d, want 20", len(runner.Calls()))
	}
}

func TestCommandRunner_RunInRecordsDir(t *testing.T) {
	runner := NewCommandRunner()
	runner.AddResult("apt-get", []string{"download", "cros-ui-config"}, ports.CommandResult{})

	if _, err := runner.RunIn(context.Background(), "/var/cache/crostini-setup", "apt-get", "download", "cros-ui-config"); err != nil {
		t.Fatalf("RunIn() error = %v", err)
	}

	calls := runner.Calls()
	if len(calls) != 1 || calls[0].Dir != "/var/cache/crostini-setup" {
		t.Errorf("Calls() = %+v, want one call in /var/cache/crostini-setup", calls)
	}
}
