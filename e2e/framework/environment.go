//go:build e2e

// Package framework provides the end-to-end test infrastructure for
// crostini-setup. Tests run the real binary against a configuration whose
// system paths all point into a temporary directory.
package framework

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
)

// Environment represents an isolated test environment for E2E tests.
type Environment struct {
	t          *testing.T
	rootDir    string
	configDir  string
	binaryPath string
}

var (
	buildOnce   sync.Once
	binaryPath  string
	buildErr    error
	projectRoot string
)

// findProjectRoot locates the project root directory.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// buildBinary builds the crostini-setup binary once per test run.
func buildBinary(t *testing.T) (string, error) {
	buildOnce.Do(func() {
		projectRoot, buildErr = findProjectRoot()
		if buildErr != nil {
			return
		}

		binaryPath = filepath.Join(os.TempDir(), "crostini-setup-e2e-test")

		cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/crostini-setup")
		cmd.Dir = projectRoot

		var stderr bytes.Buffer
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			buildErr = err
			t.Logf("Build stderr: %s", stderr.String())
		}
	})

	return binaryPath, buildErr
}

// NewEnvironment creates a new isolated test environment.
func NewEnvironment(t *testing.T) *Environment {
	t.Helper()

	binary, err := buildBinary(t)
	if err != nil {
		t.Fatalf("Failed to build binary: %v", err)
	}

	rootDir := t.TempDir()
	configDir := filepath.Join(rootDir, "config")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("Failed to create config directory: %v", err)
	}

	return &Environment{
		t:          t,
		rootDir:    rootDir,
		configDir:  configDir,
		binaryPath: binary,
	}
}

// RootDir returns the directory standing in for the container's "/".
func (e *Environment) RootDir() string {
	return e.rootDir
}

// BinaryPath returns the path to the built binary.
func (e *Environment) BinaryPath() string {
	return e.binaryPath
}

// Path maps an absolute container path into the sandbox.
func (e *Environment) Path(p string) string {
	return filepath.Join(e.rootDir, p)
}

// WriteFile writes content to a sandboxed container path.
func (e *Environment) WriteFile(path, content string) {
	e.t.Helper()

	fullPath := e.Path(path)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		e.t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
		e.t.Fatalf("Failed to write file %s: %v", fullPath, err)
	}
}

// WriteSandboxConfig writes a YAML config whose system paths all live under
// RootDir, followed by extra YAML, and returns its path.
func (e *Environment) WriteSandboxConfig(extra string) string {
	e.t.Helper()

	cfg := fmt.Sprintf(`paths:
  work_dir: %[1]s/var/cache/crostini-setup
  history: %[1]s/var/lib/crostini-setup/history.jsonl
  sources_list: %[1]s/etc/apt/sources.list.d/cros.list
  sudoers: %[1]s/etc/sudoers.d/90-cloud-init-users
  trusted_dir: %[1]s/etc/apt/trusted.gpg.d
  trusted_keyring: %[1]s/etc/apt/trusted.gpg
  milestone: %[1]s/dev/.cros_milestone
  home_root: %[1]s/home
%[2]s`, e.rootDir, extra)

	return e.WriteConfig("config.yaml", cfg)
}

// WriteConfig writes a config file and returns its path.
func (e *Environment) WriteConfig(name, content string) string {
	e.t.Helper()

	configPath := filepath.Join(e.configDir, name)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		e.t.Fatalf("Failed to write config: %v", err)
	}
	return configPath
}

// FileExists checks if a sandboxed container path exists.
func (e *Environment) FileExists(path string) bool {
	_, err := os.Stat(e.Path(path))
	return err == nil
}
