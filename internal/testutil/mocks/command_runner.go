// Package mocks provides test doubles for testing.
package mocks

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/felixgeelhaar/crostini-setup/internal/ports"
)

// CommandRunner is a thread-safe test double for ports.CommandRunner.
// Results are keyed by command and arguments; a fallback result can be set
// per command for detectors called with varying arguments.
type CommandRunner struct {
	mu        sync.RWMutex
	results   map[string]ports.CommandResult
	errors    map[string]error
	fallbacks map[string]ports.CommandResult
	hooks     map[string]func()
	calls     []ports.CommandCall
}

// NewCommandRunner creates a new CommandRunner mock.
func NewCommandRunner() *CommandRunner {
	return &CommandRunner{
		results:   make(map[string]ports.CommandResult),
		errors:    make(map[string]error),
		fallbacks: make(map[string]ports.CommandResult),
		hooks:     make(map[string]func()),
		calls:     make([]ports.CommandCall, 0),
	}
}

// AddResult registers an expected command and its result.
func (m *CommandRunner) AddResult(command string, args []string, result ports.CommandResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[buildKey(command, args)] = result
}

// AddError registers an expected command that should fail to start.
func (m *CommandRunner) AddError(command string, args []string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[buildKey(command, args)] = err
}

// SetFallback registers the result for any invocation of command that has
// no exact match.
func (m *CommandRunner) SetFallback(command string, result ports.CommandResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbacks[command] = result
}

// OnRun registers a side effect that fires when the exact invocation runs.
// Tests use it to simulate the system change a command would make.
func (m *CommandRunner) OnRun(command string, args []string, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks[buildKey(command, args)] = fn
}

// Run executes a mock command.
func (m *CommandRunner) Run(ctx context.Context, command string, args ...string) (ports.CommandResult, error) {
	return m.RunIn(ctx, "", command, args...)
}

// RunIn executes a mock command, recording dir. Results are matched on
// command and arguments only.
func (m *CommandRunner) RunIn(_ context.Context, dir, command string, args ...string) (ports.CommandResult, error) {
	key := buildKey(command, args)

	m.mu.Lock()
	m.calls = append(m.calls, ports.CommandCall{
		Command: command,
		Args:    append([]string(nil), args...),
		Dir:     dir,
	})
	hook := m.hooks[key]
	m.mu.Unlock()

	if hook != nil {
		hook()
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if err, ok := m.errors[key]; ok {
		return ports.CommandResult{}, err
	}
	if result, ok := m.results[key]; ok {
		return result, nil
	}
	if result, ok := m.fallbacks[command]; ok {
		return result, nil
	}

	return ports.CommandResult{}, fmt.Errorf("no mock result for command: %s %v", command, args)
}

// Calls returns all recorded command invocations.
func (m *CommandRunner) Calls() []ports.CommandCall {
	m.mu.RLock()
	defer m.mu.RUnlock()

	calls := make([]ports.CommandCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// Called reports whether the exact invocation was recorded.
func (m *CommandRunner) Called(command string, args ...string) bool {
	key := buildKey(command, args)
	for _, c := range m.Calls() {
		if buildKey(c.Command, c.Args) == key {
			return true
		}
	}
	return false
}

// Reset clears all registered results, errors, and recorded calls.
func (m *CommandRunner) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = make(map[string]ports.CommandResult)
	m.errors = make(map[string]error)
	m.fallbacks = make(map[string]ports.CommandResult)
	m.hooks = make(map[string]func())
	m.calls = make([]ports.CommandCall, 0)
}

func buildKey(command string, args []string) string {
	return command + "\x00" + strings.Join(args, "\x00")
}

var _ ports.CommandRunner = (*CommandRunner)(nil)
