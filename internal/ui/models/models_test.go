package models

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenilsonani/cachescope/internal/cleaner"
	"github.com/fenilsonani/cachescope/internal/progress"
	"github.com/fenilsonani/cachescope/internal/scanner"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func prompt(risk scanner.RiskLevel) cleaner.Prompt {
	return cleaner.Prompt{
		Index:     1,
		Total:     3,
		Path:      "/var/tmp/build",
		Name:      "Build Cache",
		Category:  scanner.CategoryDevelopment,
		RiskLevel: risk,
		SizeBytes: 4096,
	}
}

func TestConfirmView_QuickKeys(t *testing.T) {
	tests := []struct {
		key  tea.KeyMsg
		want cleaner.Decision
	}{
		{runes("y"), cleaner.DecisionConfirm},
		{runes("n"), cleaner.DecisionDecline},
		{runes("q"), cleaner.DecisionAbort},
		{tea.KeyMsg{Type: tea.KeyCtrlC}, cleaner.DecisionAbort},
		{tea.KeyMsg{Type: tea.KeyEsc}, cleaner.DecisionAbort},
	}

	for _, tt := range tests {
		t.Run(tt.key.String(), func(t *testing.T) {
			m := NewConfirmViewModel(prompt(scanner.RiskSafe))
			_, cmd := m.Update(tt.key)
			require.NotNil(t, cmd)
			assert.IsType(t, tea.QuitMsg{}, cmd())

			d, ok := m.Decision()
			assert.True(t, ok)
			assert.Equal(t, tt.want, d)
		})
	}
}

func TestConfirmView_Cursor(t *testing.T) {
	m := NewConfirmViewModel(prompt(scanner.RiskSafe))
	_, ok := m.Decision()
	assert.False(t, ok)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	d, _ := m.Decision()
	assert.Equal(t, cleaner.DecisionConfirm, d, "safe items default to delete")

	m = NewConfirmViewModel(prompt(scanner.RiskSafe))
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	d, _ = m.Decision()
	assert.Equal(t, cleaner.DecisionAbort, d, "left wraps to stop")

	m = NewConfirmViewModel(prompt(scanner.RiskCaution))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	d, _ = m.Decision()
	assert.Equal(t, cleaner.DecisionDecline, d, "risky items default to skip")

	m = NewConfirmViewModel(prompt(scanner.RiskModerate))
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	d, _ = m.Decision()
	assert.Equal(t, cleaner.DecisionAbort, d)
}

func TestConfirmView_View(t *testing.T) {
	m := NewConfirmViewModel(prompt(scanner.RiskCaution))
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	view := m.View()
	assert.Contains(t, view, "[1/3] Build Cache")
	assert.Contains(t, view, "/var/tmp/build")
	assert.Contains(t, view, "4.0 KiB")
	assert.Contains(t, view, "files you want to keep")
	assert.Contains(t, view, "cannot be undone")
	assert.Contains(t, view, "[ Skip ]")
	assert.NotContains(t, view, "Terminal too small")

	m.Update(runes("n"))
	assert.Contains(t, m.View(), "Build Cache skipped")
}

func TestConfirmView_SmallTerminal(t *testing.T) {
	m := NewConfirmViewModel(prompt(scanner.RiskSafe))
	m.Update(tea.WindowSizeMsg{Width: 50, Height: 10})
	assert.Contains(t, m.View(), "Terminal too small")
}

func TestProgressView_Updates(t *testing.T) {
	updates := make(chan any, 1)
	m := NewProgressViewModel(context.Background(), "Scanning", updates, nil)

	_, cmd := m.Update(ProgressUpdateMsg{Update: &progress.ScanProgress{
		Phase:          progress.PhaseScanning,
		Location:       "pip Cache",
		CurrentPath:    "/home/u/.cache/pip",
		LocationsDone:  1,
		LocationsTotal: 4,
	}})
	assert.NotNil(t, cmd, "keeps listening")
	assert.InDelta(t, 0.25, m.fraction(), 1e-9)

	view := m.View()
	assert.Contains(t, view, "Scanning pip Cache (1/4)")
	assert.Contains(t, view, "/home/u/.cache/pip")

	m.Update(ProgressUpdateMsg{Update: &progress.CleanProgress{Phase: progress.PhaseCleaning, ItemsDone: 1, ItemsTotal: 2, CurrentItem: "pip Cache"}})
	assert.InDelta(t, 0.5, m.fraction(), 1e-9)
	assert.Contains(t, m.View(), "Cleaning pip Cache")
}

func TestProgressView_Done(t *testing.T) {
	m := NewProgressViewModel(context.Background(), "Cleaning", nil, nil)

	_, cmd := m.Update(WorkDoneMsg{Err: errors.New("disk gone")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.Done())
	assert.EqualError(t, m.Err(), "disk gone")
	assert.Contains(t, m.View(), "disk gone")
}

func TestProgressView_RunsWork(t *testing.T) {
	var gotCtx context.Context
	m := NewProgressViewModel(context.Background(), "Scanning", nil, func(ctx context.Context) error {
		gotCtx = ctx
		return nil
	})

	msg := m.run()()
	assert.Equal(t, WorkDoneMsg{}, msg)
	require.NotNil(t, gotCtx)

	m.Update(runes("q"))
	assert.Error(t, gotCtx.Err(), "cancel key cancels the work context")
}
