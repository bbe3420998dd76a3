package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/felixgeelhaar/crostini-setup/internal/ports"
)

// Prompter is a scripted test double for ports.Prompter.
// Answers are consumed in order; running out of answers is an error.
type Prompter struct {
	mu        sync.Mutex
	confirms  []bool
	answers   []string
	questions []string
}

// NewPrompter creates a Prompter that answers Confirm with the given values.
func NewPrompter(confirms ...bool) *Prompter {
	return &Prompter{confirms: confirms}
}

// WithAnswers queues free-text answers for Ask.
func (p *Prompter) WithAnswers(answers ...string) *Prompter {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.answers = append(p.answers, answers...)
	return p
}

// Confirm returns the next scripted yes/no answer.
func (p *Prompter) Confirm(_ context.Context, question string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.questions = append(p.questions, question)
	if len(p.confirms) == 0 {
		return false, fmt.Errorf("unexpected confirmation: %q", question)
	}
	answer := p.confirms[0]
	p.confirms = p.confirms[1:]
	return answer, nil
}

// Ask returns the next scripted answer, or defaultValue for an empty one.
func (p *Prompter) Ask(_ context.Context, question, defaultValue string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.questions = append(p.questions, question)
	if len(p.answers) == 0 {
		return "", fmt.Errorf("unexpected question: %q", question)
	}
	answer := p.answers[0]
	p.answers = p.answers[1:]
	if answer == "" {
		return defaultValue, nil
	}
	return answer, nil
}

// Questions returns every question asked so far.
func (p *Prompter) Questions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.questions))
	copy(out, p.questions)
	return out
}

var _ ports.Prompter = (*Prompter)(nil)
