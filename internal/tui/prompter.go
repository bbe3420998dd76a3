// Package tui provides the interactive terminal front end of the installer:
// Bubble Tea prompts and the lipgloss progress checklist.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/crostini-setup/internal/domain/config"
	"github.com/felixgeelhaar/crostini-setup/internal/ports"
	"github.com/felixgeelhaar/crostini-setup/internal/tui/components"
	"github.com/felixgeelhaar/crostini-setup/internal/tui/ui"
)

// ErrInterrupted is returned when the operator presses ctrl+c in a prompt.
// It matches context.Canceled so the run exits like one stopped by SIGINT.
var ErrInterrupted = config.NewUserError(config.ErrCodeInteractionFailed, "prompt interrupted").
	WithSuggestion("Re-run the installer; steps that were applied are detected and skipped.").
	WithUnderlying(context.Canceled)

// Prompter asks questions with Bubble Tea widgets. It requires a terminal.
type Prompter struct {
	in     io.Reader
	out    io.Writer
	width  int
	styles ui.Styles
}

// NewPrompter creates a Prompter reading keys from in and drawing on out.
func NewPrompter(in io.Reader, out io.Writer, width int) *Prompter {
	return &Prompter{
		in:     in,
		out:    out,
		width:  ui.ClampWidth(width),
		styles: ui.DefaultStyles(),
	}
}

// Confirm shows a yes/no prompt with no focused.
func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	m := confirmModel{
		confirm: components.NewConfirm(question).WithWidth(p.width).WithStyles(p.styles),
	}
	final, err := p.run(ctx, m)
	if err != nil {
		return false, err
	}

	result, ok := final.(confirmModel)
	if !ok {
		return false, fmt.Errorf("unexpected model type %T", final)
	}
	if result.interrupted {
		return false, ErrInterrupted
	}
	return result.confirmed, nil
}

// Ask shows a single-line text prompt; an empty answer yields defaultValue.
func (p *Prompter) Ask(ctx context.Context, question, defaultValue string) (string, error) {
	m := askModel{
		input: components.NewInput(question, defaultValue).WithStyles(p.styles),
	}
	final, err := p.run(ctx, m)
	if err != nil {
		return "", err
	}

	result, ok := final.(askModel)
	if !ok {
		return "", fmt.Errorf("unexpected model type %T", final)
	}
	if result.interrupted {
		return "", ErrInterrupted
	}
	return result.value, nil
}

func (p *Prompter) run(ctx context.Context, m tea.Model) (tea.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prog := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithInput(p.in),
		tea.WithOutput(p.out),
	)
	final, err := prog.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, tea.ErrProgramKilled) {
			return nil, ctxErr
		}
		return nil, config.NewUserError(config.ErrCodeInteractionFailed, "prompt failed").WithUnderlying(err)
	}
	return final, nil
}

type confirmModel struct {
	confirm     components.Confirm
	done        bool
	confirmed   bool
	interrupted bool
}

func (m confirmModel) Init() tea.Cmd {
	return m.confirm.Init()
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case components.ConfirmResultMsg:
		m.done = true
		m.confirmed = msg.Confirmed
		return m, tea.Quit
	case components.InterruptMsg:
		m.done = true
		m.interrupted = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.confirm, cmd = m.confirm.Update(msg)
	return m, cmd
}

func (m confirmModel) View() string {
	if m.done {
		return m.confirm.Summary(m.confirmed) + "\n"
	}
	return m.confirm.View() + "\n"
}

type askModel struct {
	input       components.Input
	done        bool
	value       string
	interrupted bool
}

func (m askModel) Init() tea.Cmd {
	return m.input.Init()
}

func (m askModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case components.InputResultMsg:
		m.done = true
		m.value = msg.Value
		return m, tea.Quit
	case components.InterruptMsg:
		m.done = true
		m.interrupted = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m askModel) View() string {
	if m.done {
		return m.input.Summary(m.value) + "\n"
	}
	return m.input.View() + "\n"
}

var _ ports.Prompter = (*Prompter)(nil)
