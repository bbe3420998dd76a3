// Package apt drives apt-get and dpkg-query for the installer steps.
package apt

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/felixgeelhaar/crostini-setup/internal/ports"
	"github.com/felixgeelhaar/crostini-setup/internal/validation"
)

// ErrNotDownloaded is returned when apt-get download left no package file.
var ErrNotDownloaded = errors.New("package file not found after download")

// Client runs package management commands.
type Client struct {
	runner ports.CommandRunner
	fs     ports.FileSystem
}

// NewClient creates a new Client.
func NewClient(runner ports.CommandRunner, fs ports.FileSystem) *Client {
	return &Client{runner: runner, fs: fs}
}

// Installed reports whether dpkg considers the package installed.
// Unknown packages and query failures count as not installed.
func (c *Client) Installed(ctx context.Context, pkg string) bool {
	result, err := c.runner.Run(ctx, "dpkg-query", "-W", "-f=${db:Status-Status}", pkg)
	if err != nil || !result.Success() {
		return false
	}
	return strings.TrimSpace(result.Stdout) == "installed"
}

// AllInstalled reports whether every package is installed.
func (c *Client) AllInstalled(ctx context.Context, pkgs ...string) bool {
	for _, p := range pkgs {
		if !c.Installed(ctx, p) {
			return false
		}
	}
	return true
}

// Update refreshes the package index.
func (c *Client) Update(ctx context.Context, fixMissing bool) error {
	args := []string{"update"}
	if fixMissing {
		args = append(args, "--fix-missing")
	}
	_, err := ports.RunChecked(ctx, c.runner, "apt-get", args...)
	return err
}

// Install installs packages by name or by path to a local .deb file.
// Recommended packages are installed too.
func (c *Client) Install(ctx context.Context, targets ...string) error {
	return c.install(ctx, []string{"install", "-y"}, targets)
}

// Reinstall installs targets even when the same version is already present.
func (c *Client) Reinstall(ctx context.Context, targets ...string) error {
	return c.install(ctx, []string{"install", "-y", "--reinstall"}, targets)
}

func (c *Client) install(ctx context.Context, base, targets []string) error {
	for _, t := range targets {
		if strings.HasSuffix(t, ".deb") && filepath.IsAbs(t) {
			continue
		}
		if err := validation.ValidatePackageName(t); err != nil {
			return fmt.Errorf("invalid package name: %w", err)
		}
	}
	args := append(base, targets...)
	_, err := ports.RunChecked(ctx, c.runner, "apt-get", args...)
	return err
}

// Download fetches the package's .deb into dir and returns its path. When
// several versions are present the lexically greatest file name wins.
func (c *Client) Download(ctx context.Context, dir, pkg string) (string, error) {
	if err := validation.ValidatePackageName(pkg); err != nil {
		return "", fmt.Errorf("invalid package name: %w", err)
	}
	if err := c.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}

	result, err := c.runner.RunIn(ctx, dir, "apt-get", "download", pkg)
	if err != nil {
		return "", fmt.Errorf("apt-get download %s: %w", pkg, err)
	}
	if !result.Success() {
		return "", &ports.CommandError{
			Call:   ports.CommandCall{Command: "apt-get", Args: []string{"download", pkg}, Dir: dir},
			Result: result,
		}
	}

	matches, err := c.fs.Glob(filepath.Join(dir, pkg+"_*.deb"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: %s in %s", ErrNotDownloaded, pkg, dir)
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}
