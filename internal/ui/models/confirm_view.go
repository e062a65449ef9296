package models

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/cachescope/internal/cleaner"
	"github.com/fenilsonani/cachescope/internal/scanner"
	"github.com/fenilsonani/cachescope/internal/ui/components"
	"github.com/fenilsonani/cachescope/internal/ui/styles"
	uiutils "github.com/fenilsonani/cachescope/internal/ui/utils"
	"github.com/fenilsonani/cachescope/pkg/utils"
)

// ConfirmKeyMap binds the keys of the confirmation view
type ConfirmKeyMap struct {
	Yes    key.Binding
	No     key.Binding
	Stop   key.Binding
	Left   key.Binding
	Right  key.Binding
	Select key.Binding
}

// DefaultConfirmKeys returns the standard bindings
func DefaultConfirmKeys() ConfirmKeyMap {
	return ConfirmKeyMap{
		Yes:    key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "delete")),
		No:     key.NewBinding(key.WithKeys("n", "N", "s"), key.WithHelp("n", "skip")),
		Stop:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "stop")),
		Left:   key.NewBinding(key.WithKeys("left", "h", "shift+tab")),
		Right:  key.NewBinding(key.WithKeys("right", "l", "tab")),
		Select: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "choose")),
	}
}

func (k ConfirmKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Yes, k.No, k.Stop, k.Select}
}

func (k ConfirmKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var buttons = []struct {
	label    string
	decision cleaner.Decision
}{
	{"[ Delete ]", cleaner.DecisionConfirm},
	{"[ Skip ]", cleaner.DecisionDecline},
	{"[ Stop ]", cleaner.DecisionAbort},
}

// ConfirmViewModel asks about a single item
type ConfirmViewModel struct {
	prompt   cleaner.Prompt
	keys     ConfirmKeyMap
	help     help.Model
	cursor   int
	decision cleaner.Decision
	decided  bool
	width    int
	height   int
}

// NewConfirmViewModel creates the view for p. The cursor starts on Skip
// for anything riskier than safe.
func NewConfirmViewModel(p cleaner.Prompt) *ConfirmViewModel {
	cursor := 0
	if p.RiskLevel > scanner.RiskSafe {
		cursor = 1
	}
	return &ConfirmViewModel{
		prompt: p,
		keys:   DefaultConfirmKeys(),
		help:   help.New(),
		cursor: cursor,
	}
}

// Decision returns the answer, if one was given
func (m *ConfirmViewModel) Decision() (cleaner.Decision, bool) {
	return m.decision, m.decided
}

func (m *ConfirmViewModel) Init() tea.Cmd {
	return nil
}

func (m *ConfirmViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Yes):
			return m.decide(cleaner.DecisionConfirm)
		case key.Matches(msg, m.keys.No):
			return m.decide(cleaner.DecisionDecline)
		case key.Matches(msg, m.keys.Stop):
			return m.decide(cleaner.DecisionAbort)
		case key.Matches(msg, m.keys.Left):
			m.cursor = (m.cursor + len(buttons) - 1) % len(buttons)
		case key.Matches(msg, m.keys.Right):
			m.cursor = (m.cursor + 1) % len(buttons)
		case key.Matches(msg, m.keys.Select):
			return m.decide(buttons[m.cursor].decision)
		}
	}

	return m, nil
}

func (m *ConfirmViewModel) decide(d cleaner.Decision) (tea.Model, tea.Cmd) {
	m.decision = d
	m.decided = true
	return m, tea.Quit
}

func (m *ConfirmViewModel) View() string {
	p := m.prompt
	if m.decided {
		return m.result() + "\n"
	}

	var b strings.Builder
	b.WriteString(uiutils.GetSizeWarningBanner(m.width, m.height))
	b.WriteString(components.PromptPanel(p, m.width).Render())
	b.WriteString("\n")

	if p.RiskLevel == scanner.RiskCaution {
		b.WriteString(styles.ErrorStyle.Render("This location may hold files you want to keep."))
		b.WriteString("\n")
	}
	if !p.Backup {
		b.WriteString(styles.WarningStyle.Render("No backup will be made. This cannot be undone."))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	labels := make([]string, len(buttons))
	for i, btn := range buttons {
		if i == m.cursor {
			labels[i] = styles.HighlightStyle.Render(btn.label)
		} else {
			labels[i] = btn.label
		}
	}
	b.WriteString(strings.Join(labels, "  "))
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")

	return b.String()
}

func (m *ConfirmViewModel) result() string {
	p := m.prompt
	size := utils.FormatBytes(p.SizeBytes)
	switch m.decision {
	case cleaner.DecisionConfirm:
		return fmt.Sprintf("%s [%d/%d] %s (%s) queued for deletion", styles.SuccessStyle.Render("✓"), p.Index, p.Total, p.Name, size)
	case cleaner.DecisionAbort:
		return fmt.Sprintf("%s [%d/%d] stopped at %s", styles.ErrorStyle.Render("✗"), p.Index, p.Total, p.Name)
	default:
		return fmt.Sprintf("%s [%d/%d] %s skipped", styles.DimStyle.Render("-"), p.Index, p.Total, p.Name)
	}
}
