package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// KeyMap contains the key bindings used by the prompts.
type KeyMap struct {
	Left     key.Binding
	Right    key.Binding
	VimLeft  key.Binding
	VimRight key.Binding
	Toggle   key.Binding

	Select key.Binding
	Accept key.Binding
	Reject key.Binding
	Cancel key.Binding

	// Interrupt aborts the prompt and the run.
	Interrupt key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Left: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "yes"),
		),
		Right: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "no"),
		),
		VimLeft: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "yes"),
		),
		VimRight: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "no"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "toggle"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Accept: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "yes"),
		),
		Reject: key.NewBinding(
			key.WithKeys("n", "N"),
			key.WithHelp("n", "no"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "no"),
		),
		Interrupt: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "abort"),
		),
	}
}

// IsLeft returns true if the key message matches a left navigation key.
func (k KeyMap) IsLeft(msg tea.KeyMsg) bool {
	return key.Matches(msg, k.Left) || key.Matches(msg, k.VimLeft)
}

// IsRight returns true if the key message matches a right navigation key.
func (k KeyMap) IsRight(msg tea.KeyMsg) bool {
	return key.Matches(msg, k.Right) || key.Matches(msg, k.VimRight)
}

// ConfirmHelp is the key hint line shown under a yes/no prompt.
func (k KeyMap) ConfirmHelp() []key.Binding {
	return []key.Binding{k.Accept, k.Reject, k.Toggle, k.Select, k.Interrupt}
}
