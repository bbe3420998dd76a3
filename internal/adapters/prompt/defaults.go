package prompt

import (
	"context"

	"github.com/felixgeelhaar/crostini-setup/internal/ports"
)

// DefaultsPrompter never blocks: every confirmation is declined and every
// question takes its default. It backs unattended runs.
type DefaultsPrompter struct{}

// Confirm answers no.
func (DefaultsPrompter) Confirm(ctx context.Context, _ string) (bool, error) {
	return false, ctx.Err()
}

// Ask returns defaultValue.
func (DefaultsPrompter) Ask(ctx context.Context, _, defaultValue string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return defaultValue, nil
}

var _ ports.Prompter = DefaultsPrompter{}
