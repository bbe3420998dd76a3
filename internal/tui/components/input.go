package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/crostini-setup/internal/tui/ui"
)

// InputResultMsg is sent when the operator submits an answer.
type InputResultMsg struct {
	Value string
}

// Input is a single-line free-text question with a default answer.
type Input struct {
	question     string
	defaultValue string
	input        textinput.Model
	keys         ui.KeyMap
	styles       ui.Styles
}

// NewInput creates a text question. The default is shown as placeholder and
// returned when the operator submits an empty line.
func NewInput(question, defaultValue string) Input {
	ti := textinput.New()
	ti.Placeholder = defaultValue
	ti.CharLimit = ui.HostnameCharLimit
	ti.Width = ui.MinWidth
	ti.Prompt = "> "
	ti.Focus()

	return Input{
		question:     question,
		defaultValue: defaultValue,
		input:        ti,
		keys:         ui.DefaultKeyMap(),
		styles:       ui.DefaultStyles(),
	}
}

// Value returns the current answer, with the default substituted for an
// empty line.
func (i Input) Value() string {
	v := strings.TrimSpace(i.input.Value())
	if v == "" {
		return i.defaultValue
	}
	return v
}

// WithStyles sets the styles.
func (i Input) WithStyles(styles ui.Styles) Input {
	i.styles = styles
	return i
}

// Init implements tea.Model.
func (i Input) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles key presses; everything except submit and interrupt goes
// to the text field.
func (i Input) Update(msg tea.Msg) (Input, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, i.keys.Interrupt):
			return i, func() tea.Msg { return InterruptMsg{} }
		case key.Matches(msg, i.keys.Select):
			value := i.Value()
			return i, func() tea.Msg { return InputResultMsg{Value: value} }
		}
	}

	var cmd tea.Cmd
	i.input, cmd = i.input.Update(msg)
	return i, cmd
}

// View renders the question and the text field.
func (i Input) View() string {
	question := i.styles.Question.Render(i.question) + " " +
		i.styles.Muted.Render("(default: "+i.defaultValue+")")
	return lipgloss.JoinVertical(lipgloss.Left, question, i.input.View())
}

// Summary is the one-line form left on screen after the prompt closes.
func (i Input) Summary(value string) string {
	return i.styles.Question.Render(i.question) + " " + i.styles.Muted.Render(value)
}
