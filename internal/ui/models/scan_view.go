package models

import (
	"context"
	"strings"

	progressbar "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/cachescope/internal/progress"
	"github.com/fenilsonani/cachescope/internal/ui/styles"
	uiutils "github.com/fenilsonani/cachescope/internal/ui/utils"
)

// ProgressUpdateMsg carries a *progress.ScanProgress or *progress.CleanProgress
type ProgressUpdateMsg struct {
	Update any
}

// WorkDoneMsg is sent when the tracked work returns
type WorkDoneMsg struct {
	Err error
}

// ProgressViewModel shows a spinner and bar while an inventory or cleanup
// runs. The work runs as a command; the view quits once it returns.
type ProgressViewModel struct {
	title   string
	spinner spinner.Model
	bar     progressbar.Model
	updates <-chan any
	work    func(ctx context.Context) error
	ctx     context.Context
	cancel  context.CancelFunc

	scan  *progress.ScanProgress
	clean *progress.CleanProgress
	done  bool
	err   error
	width int
}

// NewProgressViewModel tracks work, reading updates until the channel closes
func NewProgressViewModel(ctx context.Context, title string, updates <-chan any, work func(ctx context.Context) error) *ProgressViewModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SelectedStyle

	ctx, cancel := context.WithCancel(ctx)
	return &ProgressViewModel{
		title:   title,
		spinner: s,
		bar:     progressbar.New(progressbar.WithDefaultGradient(), progressbar.WithWidth(40)),
		updates: updates,
		work:    work,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Err returns the error of the work
func (m *ProgressViewModel) Err() error {
	return m.err
}

// Done reports whether the work has returned
func (m *ProgressViewModel) Done() bool {
	return m.done
}

func (m *ProgressViewModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForUpdate(), m.run())
}

func (m *ProgressViewModel) run() tea.Cmd {
	return func() tea.Msg {
		if m.work == nil {
			return WorkDoneMsg{}
		}
		return WorkDoneMsg{Err: m.work(m.ctx)}
	}
}

func (m *ProgressViewModel) waitForUpdate() tea.Cmd {
	if m.updates == nil {
		return nil
	}
	return func() tea.Msg {
		u, ok := <-m.updates
		if !ok {
			return nil
		}
		return ProgressUpdateMsg{Update: u}
	}
}

func (m *ProgressViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if w := msg.Width - 10; w > 0 && w < 40 {
			m.bar.Width = w
		}

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			// work observes the cancelled context and returns
			m.cancel()
		}

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ProgressUpdateMsg:
		switch u := msg.Update.(type) {
		case *progress.ScanProgress:
			m.scan = u
		case *progress.CleanProgress:
			m.clean = u
		}
		return m, m.waitForUpdate()

	case WorkDoneMsg:
		m.done = true
		m.err = msg.Err
		m.cancel()
		return m, tea.Quit
	}

	return m, nil
}

// fraction returns how far the tracked work is, in [0, 1]
func (m *ProgressViewModel) fraction() float64 {
	switch {
	case m.clean != nil && m.clean.ItemsTotal > 0:
		return float64(m.clean.ItemsDone) / float64(m.clean.ItemsTotal)
	case m.scan != nil && m.scan.LocationsTotal > 0:
		return float64(m.scan.LocationsDone) / float64(m.scan.LocationsTotal)
	}
	return 0
}

func (m *ProgressViewModel) status() string {
	if m.clean != nil {
		return progress.FormatCleanProgress(m.clean)
	}
	return progress.FormatScanProgress(m.scan)
}

func (m *ProgressViewModel) View() string {
	if m.done {
		if m.err != nil {
			return styles.ErrorStyle.Render("✗ "+m.title+": "+m.err.Error()) + "\n"
		}
		return styles.SuccessStyle.Render("✓ ") + m.status() + "\n"
	}

	width := m.width
	if width <= 0 {
		width = uiutils.MinTerminalWidth
	}

	var b strings.Builder
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(styles.BoldStyle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(uiutils.TruncateString(m.status(), width-2))
	b.WriteString("\n")
	if m.scan != nil && m.scan.CurrentPath != "" && m.clean == nil {
		b.WriteString(styles.FilePathStyle.Render(uiutils.TruncatePath(m.scan.CurrentPath, width-2)))
		b.WriteString("\n")
	}
	b.WriteString(m.bar.ViewAs(m.fraction()))
	b.WriteString("\n")
	b.WriteString(styles.HelpStyle.Render("ctrl+c to cancel"))
	b.WriteString("\n")

	return b.String()
}
