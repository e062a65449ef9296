package cleaner

import (
	"context"
	"sync"

	"github.com/fenilsonani/cachescope/internal/scanner"
)

// Decision is the user's answer for one item. The zero value is not a
// decision and stops the run.
type Decision int

const (
	DecisionConfirm Decision = iota + 1
	DecisionDecline
	DecisionAbort
)

func (d Decision) String() string {
	switch d {
	case DecisionConfirm:
		return "confirm"
	case DecisionDecline:
		return "decline"
	case DecisionAbort:
		return "abort"
	default:
		return "unknown"
	}
}

// Prompt describes the item awaiting a decision
type Prompt struct {
	Index       int
	Total       int
	Path        string
	Name        string
	Description string
	Category    scanner.Category
	RiskLevel   scanner.RiskLevel
	SizeBytes   int64
	FileCount   int
	AgeDays     int
	Backup      bool
}

// Confirmer asks whether an item may be deleted. It is only called from
// the cleaner's goroutine, one prompt at a time.
type Confirmer interface {
	Confirm(ctx context.Context, p Prompt) (Decision, error)
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(ctx context.Context, p Prompt) (Decision, error)

func (f ConfirmFunc) Confirm(ctx context.Context, p Prompt) (Decision, error) {
	return f(ctx, p)
}

// ScriptedConfirmer answers from a fixed list, then with Default.
// It records every prompt it was shown.
type ScriptedConfirmer struct {
	mu        sync.Mutex
	Decisions []Decision
	Default   Decision
	Prompts   []Prompt
}

// NewScriptedConfirmer returns a confirmer that replies with decisions in order
func NewScriptedConfirmer(decisions ...Decision) *ScriptedConfirmer {
	return &ScriptedConfirmer{Decisions: decisions, Default: DecisionDecline}
}

func (s *ScriptedConfirmer) Confirm(_ context.Context, p Prompt) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Prompts = append(s.Prompts, p)
	if len(s.Decisions) == 0 {
		return s.Default, nil
	}
	d := s.Decisions[0]
	s.Decisions = s.Decisions[1:]
	return d, nil
}
