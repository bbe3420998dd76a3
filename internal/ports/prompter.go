package ports

import "context"

// Prompter asks the operator questions.
type Prompter interface {
	// Confirm asks a yes/no question. Anything other than an explicit yes
	// counts as no.
	Confirm(ctx context.Context, question string) (bool, error)

	// Ask requests free text. An empty answer yields defaultValue.
	Ask(ctx context.Context, question, defaultValue string) (string, error)
}
