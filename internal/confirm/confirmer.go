package confirm

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/Iron-Ham/coursegen/internal/errors"
	"github.com/Iron-Ham/coursegen/internal/tui/styles"
)

// ErrNotInteractive is returned by TerminalConfirmer when input is not a
// terminal and no answer can be asked for.
var ErrNotInteractive = errors.New("confirmation needs an interactive terminal (use --yes to skip)")

// AutoConfirmer answers every prompt with Answer.
type AutoConfirmer struct {
	Answer bool
}

// Confirm implements Confirmer.
func (a AutoConfirmer) Confirm(ctx context.Context, p Prompt) (bool, error) {
	return a.Answer, ctx.Err()
}

// TerminalConfirmer asks a yes/no question on a terminal.
type TerminalConfirmer struct {
	In     io.Reader
	Out    io.Writer
	Styles styles.Set

	// isTerminal reports whether In is interactive; nil checks a file descriptor.
	isTerminal func() bool
}

// NewTerminalConfirmer asks on stdin/stderr.
func NewTerminalConfirmer(theme styles.ThemeName) *TerminalConfirmer {
	return &TerminalConfirmer{
		In:     os.Stdin,
		Out:    os.Stderr,
		Styles: styles.New(theme),
	}
}

func (t *TerminalConfirmer) interactive() bool {
	if t.isTerminal != nil {
		return t.isTerminal()
	}
	f, ok := t.In.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Confirm implements Confirmer. Only "y" or "yes" is affirmative; an empty
// line answers no.
func (t *TerminalConfirmer) Confirm(ctx context.Context, p Prompt) (bool, error) {
	if !t.interactive() {
		return false, ErrNotInteractive
	}

	if p.Title != "" {
		fmt.Fprintln(t.Out, t.Styles.Prompt.Render(p.Title))
	}
	fmt.Fprintf(t.Out, "%s %s ", p.Description, t.Styles.Muted.Render("[y/N]"))

	answer := make(chan string, 1)
	errc := make(chan error, 1)
	go func() {
		line, err := bufio.NewReader(t.In).ReadString('\n')
		if err != nil && line == "" {
			errc <- err
			return
		}
		answer <- line
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(t.Out)
		return false, ctx.Err()
	case err := <-errc:
		fmt.Fprintln(t.Out)
		return false, fmt.Errorf("read answer: %w", err)
	case line := <-answer:
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	}
}
