package review

import (
	"context"
	"os"
	"strings"

	"github.com/gympass/goprompt"
	"golang.org/x/term"
)

// TerminalPrompter asks on the controlling terminal. When stdin is not a
// terminal it answers no without prompting, so unattended runs never block.
// The terminal read itself cannot be interrupted: after a timeout it stays
// pending until the process exits.
type TerminalPrompter struct {
	In *os.File
}

// Confirm implements Prompter. Only an explicit y or yes approves.
func (p TerminalPrompter) Confirm(ctx context.Context, question string) (bool, error) {
	in := p.In
	if in == nil {
		in = os.Stdin
	}
	if !term.IsTerminal(int(in.Fd())) {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	prompt := goprompt.Prompt{
		Label:        question,
		DefaultValue: "n",
		Description:  "y/N",
		Validation: func(s string) bool {
			switch strings.ToLower(strings.TrimSpace(s)) {
			case "", "y", "yes", "n", "no":
				return true
			}
			return false
		},
	}
	r, err := prompt.Run()
	if err != nil {
		return false, err
	}
	if r.Cancelled {
		return false, nil
	}
	switch strings.ToLower(strings.TrimSpace(r.Value)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
