package cleaner

import (
	"fmt"
	"strings"
	"time"

	"github.com/fenilsonani/cachescope/internal/scanner"
)

// Mode selects how the cleaner treats each candidate
type Mode string

const (
	ModeInteractive Mode = "interactive"
	ModeAuto        Mode = "auto"
	ModeDryRun      Mode = "dry_run"
)

// ParseMode converts a mode name
func ParseMode(s string) (Mode, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_") {
	case "interactive":
		return ModeInteractive, nil
	case "auto":
		return ModeAuto, nil
	case "dry_run", "dryrun":
		return ModeDryRun, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Valid reports whether m is a known mode
func (m Mode) Valid() bool {
	return m == ModeInteractive || m == ModeAuto || m == ModeDryRun
}

// State is a step of an item's cleanup
type State string

const (
	StatePending    State = "pending"
	StateConfirming State = "confirming"
	StateBackingUp  State = "backing_up"
	StateDeleting   State = "deleting"
	StateDeleted    State = "deleted"
	StateFailed     State = "failed"
	StateSkipped    State = "skipped"
)

// Terminal reports whether no transition leaves s
func (s State) Terminal() bool {
	return s == StateDeleted || s == StateFailed || s == StateSkipped
}

// Outcome is the final classification of an item
type Outcome string

const (
	OutcomeDeleted         Outcome = "deleted"
	OutcomeSkippedByUser   Outcome = "skipped_by_user"
	OutcomeSkippedDryRun   Outcome = "skipped_dry_run"
	OutcomeSkippedByPolicy Outcome = "skipped_by_policy"
	OutcomeFailed          Outcome = "failed"
)

// ItemResult is what happened to one item
type ItemResult struct {
	Path        string            `json:"path" yaml:"path"`
	Name        string            `json:"name" yaml:"name"`
	Category    scanner.Category  `json:"category" yaml:"category"`
	RiskLevel   scanner.RiskLevel `json:"risk_level" yaml:"risk_level"`
	SizeBytes   int64             `json:"size_bytes" yaml:"size_bytes"`
	Outcome     Outcome           `json:"outcome" yaml:"outcome"`
	Transitions []State           `json:"transitions" yaml:"transitions"`
	BytesFreed  int64             `json:"bytes_freed" yaml:"bytes_freed"`
	BackupPath  string            `json:"backup_path,omitempty" yaml:"backup_path,omitempty"`
	Failure     *Failure          `json:"failure,omitempty" yaml:"failure,omitempty"`
}

// State returns the last state reached
func (r *ItemResult) State() State {
	if len(r.Transitions) == 0 {
		return StatePending
	}
	return r.Transitions[len(r.Transitions)-1]
}

func (r *ItemResult) to(s State) {
	r.Transitions = append(r.Transitions, s)
}

func (r *ItemResult) skip(o Outcome) {
	r.to(StateSkipped)
	r.Outcome = o
}

func (r *ItemResult) fail(kind FailureKind, err error) {
	derr := CategorizeError(r.Path, err)
	r.to(StateFailed)
	r.Outcome = OutcomeFailed
	r.Failure = &Failure{
		Path:      r.Path,
		Name:      r.Name,
		Kind:      kind,
		Reason:    derr.Reason,
		Message:   derr.UserMessage(),
		NeedsSudo: derr.NeedsSudo,
	}
}

// Summary aggregates a cleanup run. For a dry run BytesFreed holds what
// would have been freed and DryRun is set; nothing was removed.
type Summary struct {
	Mode         Mode          `json:"mode" yaml:"mode"`
	DryRun       bool          `json:"dry_run" yaml:"dry_run"`
	StartedAt    time.Time     `json:"started_at" yaml:"started_at"`
	Duration     time.Duration `json:"duration" yaml:"duration"`
	Results      []ItemResult  `json:"results" yaml:"results"`
	ItemsDeleted int           `json:"items_deleted" yaml:"items_deleted"`
	ItemsFailed  int           `json:"items_failed" yaml:"items_failed"`
	ItemsSkipped int           `json:"items_skipped" yaml:"items_skipped"`
	BytesFreed   int64         `json:"bytes_freed" yaml:"bytes_freed"`
	Aborted      bool          `json:"aborted" yaml:"aborted"`
	AbortReason  string        `json:"abort_reason,omitempty" yaml:"abort_reason,omitempty"`
	Failures     []Failure     `json:"failures" yaml:"failures"`
}

// ActualBytesFreed returns bytes really released, zero for a dry run
func (s *Summary) ActualBytesFreed() int64 {
	if s.DryRun {
		return 0
	}
	return s.BytesFreed
}

// Count returns how many items ended with outcome o
func (s *Summary) Count(o Outcome) int {
	n := 0
	for i := range s.Results {
		if s.Results[i].Outcome == o {
			n++
		}
	}
	return n
}

func (s *Summary) add(r ItemResult) {
	s.Results = append(s.Results, r)
	switch r.Outcome {
	case OutcomeDeleted:
		s.ItemsDeleted++
		s.BytesFreed += r.BytesFreed
	case OutcomeFailed:
		s.ItemsFailed++
		if r.Failure != nil {
			s.Failures = append(s.Failures, *r.Failure)
		}
	case OutcomeSkippedDryRun:
		s.ItemsSkipped++
		s.BytesFreed += r.SizeBytes
	default:
		s.ItemsSkipped++
	}
}
