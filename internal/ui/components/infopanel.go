package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fenilsonani/cachescope/internal/cleaner"
	"github.com/fenilsonani/cachescope/internal/scanner"
	"github.com/fenilsonani/cachescope/internal/ui/styles"
	uiutils "github.com/fenilsonani/cachescope/internal/ui/utils"
	"github.com/fenilsonani/cachescope/pkg/utils"
)

// InfoPanel is a bordered list of labelled values
type InfoPanel struct {
	title   string
	content []InfoItem
	width   int
	border  lipgloss.TerminalColor
}

// InfoItem represents a single piece of information
type InfoItem struct {
	Label string
	Value string
}

// NewInfoPanel creates a new info panel
func NewInfoPanel(title string, width int) *InfoPanel {
	return &InfoPanel{
		title:  title,
		width:  width,
		border: styles.FocusBorder,
	}
}

// AddItem adds an information item to the panel. Empty values are dropped.
func (p *InfoPanel) AddItem(label, value string) {
	if value == "" {
		return
	}
	p.content = append(p.content, InfoItem{Label: label, Value: value})
}

// SetBorder changes the border color
func (p *InfoPanel) SetBorder(c lipgloss.TerminalColor) {
	p.border = c
}

// Len returns the number of items
func (p *InfoPanel) Len() int {
	return len(p.content)
}

// Render draws the panel. Width is clamped to [40, 100].
func (p *InfoPanel) Render() string {
	width := clampWidth(p.width)

	labelWidth := 0
	for _, item := range p.content {
		if len(item.Label) > labelWidth {
			labelWidth = len(item.Label)
		}
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(styles.Primary).Bold(true).Render(p.title))
	for _, item := range p.content {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(styles.Secondary).Bold(true).
			Render(fmt.Sprintf("%-*s", labelWidth, item.Label)))
		b.WriteString("  ")
		b.WriteString(item.Value)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.border).
		Padding(0, 2).
		Width(width - 2).
		Render(b.String())
}

// PromptPanel describes an item awaiting confirmation
func PromptPanel(p cleaner.Prompt, width int) *InfoPanel {
	panel := NewInfoPanel(fmt.Sprintf("[%d/%d] %s", p.Index, p.Total, p.Name), width)
	// border, padding and the widest label
	panel.AddItem("Path", uiutils.TruncateMiddle(p.Path, clampWidth(width)-16))
	panel.AddItem("About", p.Description)
	panel.AddItem("Category", string(p.Category))
	panel.AddItem("Risk", styles.RiskStyle(p.RiskLevel).Render(styles.RiskIcon(p.RiskLevel)+" "+p.RiskLevel.String()))
	panel.AddItem("Size", styles.FileSizeStyle.Render(utils.FormatBytes(p.SizeBytes))+fmt.Sprintf(" in %d files", p.FileCount))
	panel.AddItem("Age", fmt.Sprintf("%d days since last use", p.AgeDays))
	if p.Backup {
		panel.AddItem("Backup", "copied before deletion")
	}

	if p.RiskLevel > scanner.RiskSafe {
		panel.SetBorder(styles.RiskStyle(p.RiskLevel).GetForeground())
	}
	return panel
}

func clampWidth(w int) int {
	if w < 40 {
		return 40
	}
	if w > 100 {
		return 100
	}
	return w
}
