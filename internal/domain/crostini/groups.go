package crostini

import (
	"slices"
	"strings"

	"github.com/felixgeelhaar/crostini-setup/internal/validation"
)

// formatGroupsFile renders the saved groups as a shell line, so the file is
// also usable by hand after a failed run.
func formatGroupsFile(groups []string) string {
	return "sudo usermod -aG " + strings.Join(groups, ",") + " $USER\n"
}

// parseGroupsFile returns the comma-separated list following -aG. Invalid
// names are dropped.
func parseGroupsFile(content string) []string {
	fields := strings.Fields(content)
	idx := slices.Index(fields, "-aG")
	if idx < 0 || idx+1 >= len(fields) {
		return nil
	}
	return cleanGroups(strings.Split(fields[idx+1], ","), "")
}

// cleanGroups drops invalid names, duplicates and exclude, keeping order.
func cleanGroups(groups []string, exclude string) []string {
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		g = strings.TrimSpace(g)
		if g == exclude || slices.Contains(out, g) || validation.ValidateGroupName(g) != nil {
			continue
		}
		out = append(out, g)
	}
	return out
}
