// Package aptsource reads and writes one-line apt source entries such as
// "deb https://storage.googleapis.com/cros-packages/120 bookworm main".
package aptsource

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed is returned for a line that is not a one-line source entry.
var ErrMalformed = errors.New("malformed apt source line")

// Entry is one source line.
type Entry struct {
	Type       string // "deb" or "deb-src"
	Options    []string
	URI        string
	Suite      string
	Components []string
}

// New builds a binary package entry.
func New(uri, suite string, components ...string) Entry {
	return Entry{Type: "deb", URI: uri, Suite: suite, Components: components}
}

// Parse parses a single line. Options in square brackets are kept verbatim.
func Parse(line string) (Entry, error) {
	line = strings.TrimSpace(line)
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Entry{}, fmt.Errorf("%w: empty", ErrMalformed)
	}

	e := Entry{Type: fields[0]}
	if e.Type != "deb" && e.Type != "deb-src" {
		return Entry{}, fmt.Errorf("%w: unknown type %q", ErrMalformed, e.Type)
	}
	rest := fields[1:]

	if len(rest) > 0 && strings.HasPrefix(rest[0], "[") {
		end := -1
		for i, f := range rest {
			if strings.HasSuffix(f, "]") {
				end = i
				break
			}
		}
		if end < 0 {
			return Entry{}, fmt.Errorf("%w: unterminated options", ErrMalformed)
		}
		opts := strings.Join(rest[:end+1], " ")
		opts = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(opts, "["), "]"))
		if opts != "" {
			e.Options = strings.Fields(opts)
		}
		rest = rest[end+1:]
	}

	if len(rest) < 2 {
		return Entry{}, fmt.Errorf("%w: missing uri or suite", ErrMalformed)
	}
	e.URI = rest[0]
	e.Suite = rest[1]
	if len(rest) > 2 {
		e.Components = rest[2:]
	}
	return e, nil
}

// ParseFile returns every entry in a sources.list file, skipping blank lines,
// comments and lines that fail to parse.
func ParseFile(content string) []Entry {
	var out []Entry
	for _, line := range strings.Split(content, "\n") {
		e, err := Parse(line)
		if err != nil {
			continue
		}
		out = append(out, e)
	}
	return out
}

// String formats the entry as a single line without a trailing newline.
func (e Entry) String() string {
	parts := []string{e.Type}
	if len(e.Options) > 0 {
		parts = append(parts, "["+strings.Join(e.Options, " ")+"]")
	}
	parts = append(parts, e.URI, e.Suite)
	parts = append(parts, e.Components...)
	return strings.Join(parts, " ")
}

// References reports whether this is a binary entry served from base.
func (e Entry) References(base string) bool {
	base = strings.TrimSuffix(base, "/")
	return e.Type == "deb" && (e.URI == base || strings.HasPrefix(e.URI, base+"/"))
}
