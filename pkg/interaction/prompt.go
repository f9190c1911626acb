// pkg/interaction/prompt.go

// Package interaction handles the few operator prompts the installer
// needs.
package interaction

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	cerr "github.com/cockroachdb/errors"
	"golang.org/x/term"
)

// Prompter asks the operator questions. Non-interactive runs answer
// with defaults.
type Prompter interface {
	Confirm(prompt string, def bool) (bool, error)
	Input(prompt string, def string) (string, error)
}

// ConsolePrompter reads answers from a terminal. Prompts go to stderr
// so stdout stays clean for command output.
type ConsolePrompter struct {
	In  io.Reader
	Out io.Writer

	// ForceInteractive answers prompts even without a TTY, for tests.
	ForceInteractive bool

	reader *bufio.Reader
}

// NewConsolePrompter returns a prompter wired to the process terminal.
func NewConsolePrompter() *ConsolePrompter {
	return &ConsolePrompter{In: os.Stdin, Out: os.Stderr}
}

func (p *ConsolePrompter) interactive() bool {
	return p.ForceInteractive || term.IsTerminal(int(os.Stdin.Fd()))
}

// Confirm asks a yes/no question, rendering the default in caps.
// Empty input takes the default.
func (p *ConsolePrompter) Confirm(prompt string, def bool) (bool, error) {
	if !p.interactive() {
		return def, nil
	}

	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}
	for {
		fmt.Fprintf(p.Out, "%s %s: ", prompt, hint)
		answer, err := p.readLine()
		if err != nil {
			return def, err
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(p.Out, "Please answer y or n.")
	}
}

// Input asks a free-form question. Empty input takes the default.
func (p *ConsolePrompter) Input(prompt string, def string) (string, error) {
	if !p.interactive() {
		return def, nil
	}

	if def != "" {
		fmt.Fprintf(p.Out, "%s [%s]: ", prompt, def)
	} else {
		fmt.Fprintf(p.Out, "%s: ", prompt)
	}
	answer, err := p.readLine()
	if err != nil {
		return def, err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

func (p *ConsolePrompter) readLine() (string, error) {
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	line, err := p.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", cerr.Wrap(err, "reading input")
	}
	return line, nil
}
