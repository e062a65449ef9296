// Package ui holds the terminal front end: confirmation prompts and live
// progress views.
package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/fenilsonani/cachescope/internal/cleaner"
	"github.com/fenilsonani/cachescope/internal/ui/models"
	"github.com/fenilsonani/cachescope/internal/ui/styles"
	"github.com/fenilsonani/cachescope/pkg/utils"
)

// IsTerminal reports whether v is an *os.File attached to a terminal
func IsTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// NewConfirmer picks the full-screen prompt when both ends are terminals
// and falls back to line input otherwise.
func NewConfirmer(in io.Reader, out io.Writer) cleaner.Confirmer {
	if IsTerminal(in) && IsTerminal(out) {
		return &PromptConfirmer{in: in, out: out}
	}
	return NewLineConfirmer(in, out)
}

// PromptConfirmer asks with a bubbletea view per item
type PromptConfirmer struct {
	in  io.Reader
	out io.Writer
}

// NewPromptConfirmer creates a PromptConfirmer over the given streams
func NewPromptConfirmer(in io.Reader, out io.Writer) *PromptConfirmer {
	return &PromptConfirmer{in: in, out: out}
}

func (c *PromptConfirmer) Confirm(ctx context.Context, p cleaner.Prompt) (cleaner.Decision, error) {
	m := models.NewConfirmViewModel(p)
	prog := tea.NewProgram(m,
		tea.WithInput(c.in),
		tea.WithOutput(c.out),
		tea.WithContext(ctx),
	)

	final, err := prog.Run()
	if err != nil {
		if ctx.Err() != nil {
			return cleaner.DecisionAbort, ctx.Err()
		}
		return cleaner.DecisionAbort, fmt.Errorf("error running confirmation prompt: %w", err)
	}

	if cm, ok := final.(*models.ConfirmViewModel); ok {
		if d, decided := cm.Decision(); decided {
			return d, nil
		}
	}
	return cleaner.DecisionAbort, nil
}

// LineConfirmer asks on a plain line: y deletes, q stops, anything else
// skips. End of input stops the run.
type LineConfirmer struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

// NewLineConfirmer creates a LineConfirmer over the given streams
func NewLineConfirmer(in io.Reader, out io.Writer) *LineConfirmer {
	return &LineConfirmer{in: bufio.NewReader(in), out: out}
}

func (c *LineConfirmer) Confirm(ctx context.Context, p cleaner.Prompt) (cleaner.Decision, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return cleaner.DecisionAbort, err
	}

	fmt.Fprintf(c.out, "\n[%d/%d] %s (%s, %s, %s)\n",
		p.Index, p.Total, p.Name,
		utils.FormatBytes(p.SizeBytes),
		string(p.Category),
		styles.RiskStyle(p.RiskLevel).Render(p.RiskLevel.String()))
	fmt.Fprintf(c.out, "  %s\n", styles.FilePathStyle.Render(p.Path))
	if !p.Backup {
		fmt.Fprintln(c.out, "  "+styles.WarningStyle.Render("no backup, cannot be undone"))
	}
	fmt.Fprint(c.out, "Delete? [y]es / [N]o / [q]uit: ")

	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(c.out)
			return cleaner.DecisionAbort, nil
		}
		return cleaner.DecisionAbort, fmt.Errorf("failed to read answer: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return cleaner.DecisionConfirm, nil
	case "q", "quit", "a", "abort":
		return cleaner.DecisionAbort, nil
	default:
		return cleaner.DecisionDecline, nil
	}
}
