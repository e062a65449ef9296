// Package styles holds the terminal palette shared by reports and prompts.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/fenilsonani/cachescope/internal/scanner"
)

// Theme colors
var (
	Primary   = lipgloss.Color("#7C3AED")
	Secondary = lipgloss.Color("#A78BFA")
	Success   = lipgloss.Color("#10B981")
	Warning   = lipgloss.Color("#F59E0B")
	Danger    = lipgloss.Color("#EF4444")
	Info      = lipgloss.Color("#3B82F6")
	Text      = lipgloss.Color("#F3F4F6")
	TextDim   = lipgloss.Color("#9CA3AF")
	Border    = lipgloss.Color("#4B5563")

	FocusBorder = lipgloss.Color("#7C3AED")
)

// Common styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			MarginBottom(1)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	FilePathStyle = lipgloss.NewStyle().
			Foreground(Info)

	FileSizeStyle = lipgloss.NewStyle().
			Foreground(Warning)

	CategoryStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Italic(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Danger).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(TextDim).
			Italic(true)

	HighlightStyle = lipgloss.NewStyle().
			Foreground(Text).
			Background(Primary).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(TextDim)

	BoldStyle = lipgloss.NewStyle().
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(Info).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true)
)

// RiskStyle colors a risk level: green for safe, amber for moderate, red
// for caution
func RiskStyle(level scanner.RiskLevel) lipgloss.Style {
	switch level {
	case scanner.RiskModerate:
		return lipgloss.NewStyle().Foreground(Warning)
	case scanner.RiskCaution:
		return lipgloss.NewStyle().Foreground(Danger).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(Success)
	}
}

// RiskIcon returns a short marker for a risk level
func RiskIcon(level scanner.RiskLevel) string {
	switch level {
	case scanner.RiskModerate:
		return "!"
	case scanner.RiskCaution:
		return "!!"
	default:
		return "✓"
	}
}
