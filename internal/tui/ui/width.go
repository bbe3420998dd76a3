package ui

import "golang.org/x/term"

// TerminalWidth returns the width of the terminal on fd, clamped to
// [MinWidth, MaxWidth]. DefaultWidth is returned when fd is not a terminal.
func TerminalWidth(fd int) int {
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return DefaultWidth
	}
	return ClampWidth(w)
}

// ClampWidth bounds a width to [MinWidth, MaxWidth].
func ClampWidth(w int) int {
	if w < MinWidth {
		return MinWidth
	}
	if w > MaxWidth {
		return MaxWidth
	}
	return w
}

// IsTerminal reports whether fd refers to a terminal.
func IsTerminal(fd int) bool {
	return term.IsTerminal(fd)
}
