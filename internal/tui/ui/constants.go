package ui

// Output dimensions.
const (
	// DefaultWidth is used when the terminal size cannot be read.
	DefaultWidth = 70

	// MinWidth and MaxWidth bound banners and the checklist.
	MinWidth = 40
	MaxWidth = 100

	// HostnameCharLimit matches the longest valid hostname.
	HostnameCharLimit = 253
)
