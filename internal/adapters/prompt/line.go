// Package prompt provides operator prompt adapters.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/felixgeelhaar/crostini-setup/internal/ports"
)

// LinePrompter asks questions on a line-oriented stream. It is used when
// stdin is not a terminal and in tests.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewLinePrompter creates a LinePrompter reading answers from in and
// writing questions to out.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out}
}

// Confirm asks a yes/no question until it gets y, yes, n, no or an empty
// line. End of input counts as no.
func (p *LinePrompter) Confirm(ctx context.Context, question string) (bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		_, _ = fmt.Fprintf(p.out, "%s [y/N] ", question)

		line, err := p.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				_, _ = fmt.Fprintln(p.out)
				return false, nil
			}
			return false, err
		}

		switch strings.ToLower(line) {
		case "y", "yes":
			return true, nil
		case "n", "no", "":
			return false, nil
		}
	}
}

// Ask requests a free-text answer; an empty answer or end of input yields
// defaultValue.
func (p *LinePrompter) Ask(ctx context.Context, question, defaultValue string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	_, _ = fmt.Fprintf(p.out, "%s (default: %s): ", question, defaultValue)

	line, err := p.readLine()
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if line == "" {
		return defaultValue, nil
	}
	return line, nil
}

func (p *LinePrompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

var _ ports.Prompter = (*LinePrompter)(nil)
