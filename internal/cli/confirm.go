package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/timetable/internal/core"
)

// promptConfirmer asks on out and reads a y/N answer from in. With yes set
// it approves without asking.
type promptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
	yes bool
}

func newPromptConfirmer(in io.Reader, out io.Writer, yes bool) *promptConfirmer {
	return &promptConfirmer{in: bufio.NewReader(in), out: out, yes: yes}
}

var _ core.Confirmer = (*promptConfirmer)(nil)

func (p *promptConfirmer) Confirm(prompt string) bool {
	if p.yes {
		return true
	}
	fmt.Fprintf(p.out, "%s [y/N] ", prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(p.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
