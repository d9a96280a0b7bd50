// Package interactive provides terminal prompts for commands that ask
// the user before acting.
package interactive

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// Prompter asks questions on the terminal and reads the answers.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter creates a prompter on stdin/stdout.
func NewPrompter() *Prompter {
	return NewPrompterWithIO(os.Stdin, os.Stdout)
}

// NewPrompterWithIO creates a prompter with custom input/output (for testing).
func NewPrompterWithIO(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// IsTerminal checks if stdin is a terminal (TTY).
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// StderrIsTerminal checks if stderr is a terminal (TTY).
func StderrIsTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// Confirm asks a yes/no question and reports whether the user answered yes.
// Anything other than an explicit yes declines.
func (p *Prompter) Confirm(format string, args ...interface{}) bool {
	_, _ = fmt.Fprintf(p.out, format, args...)
	_, _ = fmt.Fprint(p.out, " [y/N]: ")

	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// Ask prints a question with a default answer and returns the reply, or the
// default when the user just presses enter.
func (p *Prompter) Ask(question, fallback string) (string, error) {
	_, _ = fmt.Fprintf(p.out, "%s [%s]: ", question, fallback)

	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	answer := strings.TrimSpace(line)
	if answer == "" {
		return fallback, nil
	}
	return answer, nil
}

// ReadLine prints a prompt and returns one trimmed line of input.
func (p *Prompter) ReadLine(prompt string) (string, error) {
	_, _ = fmt.Fprint(p.out, prompt)

	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Select shows a numbered menu and returns the index of the chosen option.
func (p *Prompter) Select(title string, options []string) (int, error) {
	_, _ = fmt.Fprintf(p.out, "\n%s\n", title)
	for i, option := range options {
		_, _ = fmt.Fprintf(p.out, "  %d. %s\n", i+1, option)
	}
	_, _ = fmt.Fprintf(p.out, "\nSelect [1-%d]: ", len(options))

	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return 0, fmt.Errorf("failed to read input: %w", err)
	}

	answer := strings.TrimSpace(line)
	num, err := strconv.Atoi(answer)
	if err != nil || num < 1 || num > len(options) {
		return 0, fmt.Errorf("invalid selection: %s", answer)
	}

	return num - 1, nil
}
