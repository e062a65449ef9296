package ui

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/cachescope/internal/progress"
	"github.com/fenilsonani/cachescope/internal/ui/models"
)

// RunWithProgress runs work while rendering the updates published on pr.
// On a terminal a live view is drawn; otherwise LineProgress writes plain
// lines. The error is the one returned by work.
func RunWithProgress(ctx context.Context, pr *progress.Reporter, in io.Reader, out io.Writer, title string, work func(ctx context.Context) error) error {
	if pr == nil {
		return work(ctx)
	}

	updates := pr.Subscribe()
	defer pr.Unsubscribe(updates)

	if !IsTerminal(out) {
		lp := NewLineProgress(out, time.Second)
		done := make(chan struct{})
		go func() {
			defer close(done)
			lp.Consume(updates)
		}()
		err := work(ctx)
		pr.Unsubscribe(updates)
		<-done
		return err
	}

	m := models.NewProgressViewModel(ctx, title, updates, work)
	final, err := tea.NewProgram(m, tea.WithInput(in), tea.WithOutput(out)).Run()
	if err != nil {
		return fmt.Errorf("error running progress view: %w", err)
	}
	return final.(*models.ProgressViewModel).Err()
}

// LineProgress prints progress as plain lines, at most one per interval
// except for phase changes, which are always printed.
type LineProgress struct {
	mu       sync.Mutex
	out      io.Writer
	interval time.Duration
	last     time.Time
	phase    progress.Phase
}

// NewLineProgress creates a LineProgress writing to out
func NewLineProgress(out io.Writer, interval time.Duration) *LineProgress {
	return &LineProgress{out: out, interval: interval}
}

// Consume prints updates until the channel is closed
func (lp *LineProgress) Consume(updates <-chan any) {
	for u := range updates {
		lp.Update(u)
	}
}

// Update prints one *progress.ScanProgress or *progress.CleanProgress
func (lp *LineProgress) Update(u any) {
	var (
		phase progress.Phase
		line  string
	)
	switch p := u.(type) {
	case *progress.ScanProgress:
		phase, line = p.Phase, progress.FormatScanProgress(p)
	case *progress.CleanProgress:
		phase, line = p.Phase, progress.FormatCleanProgress(p)
	default:
		return
	}

	lp.mu.Lock()
	defer lp.mu.Unlock()

	now := time.Now()
	if phase == lp.phase && now.Sub(lp.last) < lp.interval {
		return
	}
	lp.phase = phase
	lp.last = now
	fmt.Fprintln(lp.out, line)
}
