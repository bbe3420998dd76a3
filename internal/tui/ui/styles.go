// Package ui provides shared styles, key bindings, and sizing for the
// installer's terminal output.
package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme colors (Catppuccin Mocha inspired).
var (
	ColorPrimary    = lipgloss.AdaptiveColor{Light: "#1e66f5", Dark: "#89b4fa"} // Blue
	ColorSecondary  = lipgloss.AdaptiveColor{Light: "#7c3aed", Dark: "#cba6f7"} // Mauve
	ColorSuccess    = lipgloss.AdaptiveColor{Light: "#40a02b", Dark: "#a6e3a1"} // Green
	ColorWarning    = lipgloss.AdaptiveColor{Light: "#df8e1d", Dark: "#f9e2af"} // Yellow
	ColorError      = lipgloss.AdaptiveColor{Light: "#d20f39", Dark: "#f38ba8"} // Red
	ColorMuted      = lipgloss.AdaptiveColor{Light: "#6c6f85", Dark: "#6c7086"} // Overlay0
	ColorText       = lipgloss.AdaptiveColor{Light: "#4c4f69", Dark: "#cdd6f4"} // Text
	ColorBackground = lipgloss.AdaptiveColor{Light: "#eff1f5", Dark: "#1e1e2e"} // Base
	ColorSurface    = lipgloss.AdaptiveColor{Light: "#e6e9ef", Dark: "#313244"} // Surface0
)

// Styles contains reusable lipgloss styles.
type Styles struct {
	Title     lipgloss.Style
	Paragraph lipgloss.Style
	Muted     lipgloss.Style

	// Step status tags
	Done      lipgloss.Style
	Pending   lipgloss.Style
	Completed lipgloss.Style
	Failed    lipgloss.Style
	Skipped   lipgloss.Style
	Warning   lipgloss.Style

	// Banners
	Banner        lipgloss.Style
	BannerSuccess lipgloss.Style
	BannerWarning lipgloss.Style

	// Prompts
	Question     lipgloss.Style
	Button       lipgloss.Style
	ButtonActive lipgloss.Style
	Help         lipgloss.Style
	Command      lipgloss.Style
}

// DefaultStyles returns the default styles.
func DefaultStyles() Styles {
	banner := lipgloss.NewStyle().
		Bold(true).
		Padding(0, 2).
		Border(lipgloss.DoubleBorder(), true, false).
		BorderForeground(ColorPrimary).
		Foreground(ColorPrimary)

	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary),

		Paragraph: lipgloss.NewStyle().
			Foreground(ColorText),

		Muted: lipgloss.NewStyle().
			Foreground(ColorMuted),

		Done: lipgloss.NewStyle().
			Foreground(ColorSuccess),

		Pending: lipgloss.NewStyle().
			Foreground(ColorWarning),

		Completed: lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true),

		Failed: lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true),

		Skipped: lipgloss.NewStyle().
			Foreground(ColorMuted),

		Warning: lipgloss.NewStyle().
			Foreground(ColorWarning),

		Banner: banner,

		BannerSuccess: banner.
			BorderForeground(ColorSuccess).
			Foreground(ColorSuccess),

		BannerWarning: banner.
			BorderForeground(ColorWarning).
			Foreground(ColorWarning),

		Question: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText),

		Button: lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(ColorText).
			Background(ColorSurface),

		ButtonActive: lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(ColorBackground).
			Background(ColorPrimary).
			Bold(true),

		Help: lipgloss.NewStyle().
			Foreground(ColorMuted),

		Command: lipgloss.NewStyle().
			Foreground(ColorSecondary).
			PaddingLeft(4),
	}
}

// WithWidth returns styles whose banners span width columns.
func (s Styles) WithWidth(width int) Styles {
	s.Banner = s.Banner.Width(width)
	s.BannerSuccess = s.BannerSuccess.Width(width)
	s.BannerWarning = s.BannerWarning.Width(width)
	return s
}
