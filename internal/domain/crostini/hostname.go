package crostini

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/crostini-setup/internal/ports"
	"github.com/felixgeelhaar/crostini-setup/internal/validation"
)

// PromptHostname is the question asked when no hostname is configured.
const PromptHostname = "Enter hostname"

func (i *Installer) currentHostname(ctx context.Context) (string, bool) {
	result, err := i.runner.Run(ctx, "hostname")
	if err != nil || !result.Success() {
		return "", false
	}
	return strings.TrimSpace(result.Stdout), true
}

// hostnameSet matches the configured hostname when there is one; otherwise
// any name other than the container default counts as set.
func (i *Installer) hostnameSet(ctx context.Context) bool {
	current, ok := i.currentHostname(ctx)
	if !ok || current == "" {
		return false
	}
	if want := i.cfg.Hostname.Desired; want != "" {
		return current == want
	}
	return current != i.cfg.Hostname.ContainerDefault
}

func (i *Installer) setHostname(ctx context.Context) error {
	name := i.cfg.Hostname.Desired
	if name == "" {
		answer, err := i.prompter.Ask(ctx, PromptHostname, i.cfg.Hostname.Default)
		if err != nil {
			return fmt.Errorf("read hostname: %w", err)
		}
		name = strings.TrimSpace(answer)
		if name == "" {
			name = i.cfg.Hostname.Default
		}
	}
	if err := validation.ValidateHostname(name); err != nil {
		return err
	}

	if _, err := ports.RunChecked(ctx, i.runner, "hostnamectl", "set-hostname", name); err != nil {
		return err
	}
	ports.ContextLogger(ctx).Info(ctx, "hostname set", ports.F("hostname", name))
	return nil
}
