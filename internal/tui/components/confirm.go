// Package components provides the Bubble Tea widgets behind the
// interactive prompts.
package components

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/crostini-setup/internal/tui/ui"
)

// ConfirmResultMsg is sent when the operator answers.
type ConfirmResultMsg struct {
	Confirmed bool
}

// InterruptMsg is sent when the operator aborts a prompt with ctrl+c.
type InterruptMsg struct{}

// Confirm is a yes/no question. No is focused initially, so a bare enter
// answers no.
type Confirm struct {
	message  string
	yesLabel string
	noLabel  string
	focused  bool // true = yes, false = no
	width    int
	keys     ui.KeyMap
	styles   ui.Styles
	help     help.Model
}

// NewConfirm creates a new confirmation prompt.
func NewConfirm(message string) Confirm {
	return Confirm{
		message:  message,
		yesLabel: "Yes",
		noLabel:  "No",
		width:    ui.DefaultWidth,
		keys:     ui.DefaultKeyMap(),
		styles:   ui.DefaultStyles(),
		help:     help.New(),
	}
}

// Message returns the question.
func (c Confirm) Message() string {
	return c.message
}

// Focused returns true if yes is focused, false if no is focused.
func (c Confirm) Focused() bool {
	return c.focused
}

// Width returns the prompt width.
func (c Confirm) Width() int {
	return c.width
}

// WithLabels sets the button labels.
func (c Confirm) WithLabels(yes, no string) Confirm {
	c.yesLabel = yes
	c.noLabel = no
	return c
}

// WithWidth sets the prompt width.
func (c Confirm) WithWidth(width int) Confirm {
	c.width = width
	return c
}

// WithStyles sets the styles.
func (c Confirm) WithStyles(styles ui.Styles) Confirm {
	c.styles = styles
	return c
}

// Init implements tea.Model.
func (c Confirm) Init() tea.Cmd {
	return nil
}

// Update handles key presses.
func (c Confirm) Update(msg tea.Msg) (Confirm, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		return c.handleKeyMsg(msg)
	}
	return c, nil
}

func (c Confirm) handleKeyMsg(msg tea.KeyMsg) (Confirm, tea.Cmd) {
	switch {
	case key.Matches(msg, c.keys.Interrupt):
		return c, func() tea.Msg { return InterruptMsg{} }
	case c.keys.IsLeft(msg):
		c.focused = true
	case c.keys.IsRight(msg):
		c.focused = false
	case key.Matches(msg, c.keys.Toggle):
		c.focused = !c.focused
	case key.Matches(msg, c.keys.Select):
		return c, c.confirmCmd(c.focused)
	case key.Matches(msg, c.keys.Accept):
		return c, c.confirmCmd(true)
	case key.Matches(msg, c.keys.Reject), key.Matches(msg, c.keys.Cancel):
		return c, c.confirmCmd(false)
	}
	return c, nil
}

func (c Confirm) confirmCmd(confirmed bool) tea.Cmd {
	return func() tea.Msg {
		return ConfirmResultMsg{Confirmed: confirmed}
	}
}

// View renders the question, the buttons and a key hint line.
func (c Confirm) View() string {
	yesStyle := c.styles.Button
	noStyle := c.styles.Button
	if c.focused {
		yesStyle = c.styles.ButtonActive
	} else {
		noStyle = c.styles.ButtonActive
	}

	question := c.styles.Question.Width(c.width).Render(c.message)
	buttons := lipgloss.JoinHorizontal(lipgloss.Center,
		yesStyle.Render(c.yesLabel), "  ", noStyle.Render(c.noLabel))
	hints := c.help.ShortHelpView(c.keys.ConfirmHelp())

	return lipgloss.JoinVertical(lipgloss.Left, question, "", buttons, "", hints)
}

// Summary is the one-line form left on screen after the prompt closes.
func (c Confirm) Summary(confirmed bool) string {
	answer := c.noLabel
	if confirmed {
		answer = c.yesLabel
	}
	return c.styles.Question.Render(c.message) + " " + c.styles.Muted.Render(answer)
}
