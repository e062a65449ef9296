// Package cleaner removes inventoried locations one at a time, with optional
// confirmation and backup, reporting a per-item outcome.
package cleaner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fenilsonani/cachescope/internal/analyzer"
	"github.com/fenilsonani/cachescope/internal/logger"
	"github.com/fenilsonani/cachescope/internal/progress"
	"github.com/fenilsonani/cachescope/internal/scanner"
	"github.com/fenilsonani/cachescope/internal/security"
)

// DefaultRetryDelays are the waits between attempts on a busy item
var DefaultRetryDelays = []time.Duration{
	100 * time.Millisecond,
	500 * time.Millisecond,
	2 * time.Second,
}

// Recorder receives one call per processed item
type Recorder interface {
	RecordOutcome(outcome string, bytesFreed int64)
}

// Request parameterizes one cleanup run
type Request struct {
	Mode Mode

	// Backup copies each confirmed item to the backup sink before deletion
	Backup bool

	// MaxRisk skips items above this level in every mode. Unset allows all.
	MaxRisk scanner.RiskLevel
}

// Cleaner drives items through
// PENDING -> [CONFIRMING] -> [BACKING_UP] -> DELETING -> DELETED | FAILED | SKIPPED.
// Items are processed sequentially.
type Cleaner struct {
	confirmer   Confirmer
	backup      BackupSink
	validator   *security.PathValidator
	remover     Remover
	retryDelays []time.Duration
	elevated    bool
	manifest    *DeletionManifest
	progress    *progress.Reporter
	recorder    Recorder
	log         *logger.Logger
	now         func() time.Time
}

// Option configures a Cleaner
type Option func(*Cleaner)

// WithConfirmer sets the channel used in interactive mode
func WithConfirmer(cf Confirmer) Option {
	return func(c *Cleaner) { c.confirmer = cf }
}

// WithBackupSink sets where items are copied when backup is requested
func WithBackupSink(sink BackupSink) Option {
	return func(c *Cleaner) { c.backup = sink }
}

// WithValidator replaces the default path validator
func WithValidator(v *security.PathValidator) Option {
	return func(c *Cleaner) {
		if v != nil {
			c.validator = v
		}
	}
}

// WithRemover replaces filesystem removal
func WithRemover(r Remover) Option {
	return func(c *Cleaner) {
		if r != nil {
			c.remover = r
		}
	}
}

// WithRetryDelays sets the waits between attempts on busy items. An empty
// list disables retries.
func WithRetryDelays(delays []time.Duration) Option {
	return func(c *Cleaner) { c.retryDelays = delays }
}

// WithElevated overrides detection of administrator rights
func WithElevated(elevated bool) Option {
	return func(c *Cleaner) { c.elevated = elevated }
}

// WithProgress reports per-item progress
func WithProgress(pr *progress.Reporter) Option {
	return func(c *Cleaner) { c.progress = pr }
}

// WithRecorder sends outcomes to r
func WithRecorder(r Recorder) Option {
	return func(c *Cleaner) { c.recorder = r }
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(c *Cleaner) { c.log = l }
}

// New creates a Cleaner
func New(opts ...Option) *Cleaner {
	c := &Cleaner{
		validator:   security.NewPathValidator(),
		remover:     OSRemover{},
		retryDelays: DefaultRetryDelays,
		elevated:    Elevated(),
		manifest:    NewDeletionManifest(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Manifest returns the record of deletions made by this cleaner
func (c *Cleaner) Manifest() *DeletionManifest {
	return c.manifest
}

// SaveManifest writes the deletion manifest to path
func (c *Cleaner) SaveManifest(path string) error {
	return c.manifest.Save(path)
}

// CleanSelection cleans the items of snap matching criteria. The risk gate
// is the stricter of the two limits so nothing outside what the same
// criteria would list can be removed.
func (c *Cleaner) CleanSelection(ctx context.Context, snap *analyzer.Snapshot, criteria analyzer.Criteria, req Request) (*Summary, error) {
	if criteria.MaxRisk != 0 && (req.MaxRisk == 0 || criteria.MaxRisk < req.MaxRisk) {
		req.MaxRisk = criteria.MaxRisk
	}
	return c.Clean(ctx, analyzer.Select(snap, criteria), req)
}

// Clean processes items in order and returns the run summary.
//
// A failure on one item never stops the run. An abort decision, or a
// cancelled context, skips every remaining item. Dry runs touch nothing.
// An error is returned for an unusable request, with a nil summary, and
// for a failed confirmer, wrapping ErrConfirmation next to the summary of
// the aborted run.
func (c *Cleaner) Clean(ctx context.Context, items []scanner.Item, req Request) (*Summary, error) {
	if !req.Mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, req.Mode)
	}
	if req.Mode == ModeInteractive && c.confirmer == nil {
		return nil, ErrNoConfirmer
	}
	if req.Backup && req.Mode != ModeDryRun && c.backup == nil {
		return nil, ErrNoBackupSink
	}

	started := c.now()
	sum := &Summary{
		Mode:      req.Mode,
		DryRun:    req.Mode == ModeDryRun,
		StartedAt: started,
		Results:   make([]ItemResult, 0, len(items)),
		Failures:  []Failure{},
	}

	var totalBytes int64
	for i := range items {
		totalBytes += items[i].SizeBytes
	}

	c.log.Info("cleanup started",
		logger.F("mode", string(req.Mode)),
		logger.F("items", len(items)),
		logger.F("backup", req.Backup))

	var confirmErr error
	for i := range items {
		item := &items[i]
		res := ItemResult{
			Path:        item.Path,
			Name:        item.Name,
			Category:    item.Category,
			RiskLevel:   item.RiskLevel,
			SizeBytes:   item.SizeBytes,
			Transitions: []State{StatePending},
		}

		switch {
		case sum.Aborted:
			res.skip(OutcomeSkippedByUser)
		case ctx.Err() != nil:
			sum.Aborted = true
			sum.AbortReason = ctx.Err().Error()
			res.skip(OutcomeSkippedByUser)
		case !item.RiskLevel.AtMost(req.MaxRisk):
			res.skip(OutcomeSkippedByPolicy)
		case req.Mode == ModeDryRun:
			res.skip(OutcomeSkippedDryRun)
		default:
			abort, reason, err := c.process(ctx, i, len(items), item, req, &res)
			if abort {
				sum.Aborted = true
				sum.AbortReason = reason
			}
			if err != nil {
				confirmErr = err
			}
		}

		c.logResult(&res)
		sum.add(res)
		if c.recorder != nil {
			c.recorder.RecordOutcome(string(res.Outcome), res.BytesFreed)
		}
		c.progress.UpdateClean(&progress.CleanProgress{
			Phase:       progress.PhaseCleaning,
			CurrentItem: item.Name,
			ItemsDone:   i + 1,
			ItemsTotal:  len(items),
			FreedBytes:  sum.BytesFreed,
			TotalBytes:  totalBytes,
			Skipped:     sum.ItemsSkipped,
			Failed:      sum.ItemsFailed,
			DryRun:      sum.DryRun,
			StartTime:   started,
		})
	}

	sum.Duration = c.now().Sub(started)
	c.progress.UpdateClean(&progress.CleanProgress{
		Phase:      progress.PhaseComplete,
		ItemsDone:  len(items),
		ItemsTotal: len(items),
		FreedBytes: sum.BytesFreed,
		TotalBytes: totalBytes,
		Skipped:    sum.ItemsSkipped,
		Failed:     sum.ItemsFailed,
		DryRun:     sum.DryRun,
		StartTime:  started,
	})
	c.log.Info("cleanup finished",
		logger.F("mode", string(req.Mode)),
		logger.F("deleted", sum.ItemsDeleted),
		logger.F("failed", sum.ItemsFailed),
		logger.F("skipped", sum.ItemsSkipped),
		logger.F("bytes_freed", sum.BytesFreed),
		logger.F("dry_run", sum.DryRun),
		logger.F("aborted", sum.Aborted))

	if confirmErr != nil {
		return sum, fmt.Errorf("%w: %w", ErrConfirmation, confirmErr)
	}
	return sum, nil
}

// process runs one item past PENDING in a non dry-run mode. It reports
// whether the run must stop, and the confirmer's error if it failed.
func (c *Cleaner) process(ctx context.Context, index, total int, item *scanner.Item, req Request, res *ItemResult) (bool, string, error) {
	if req.Mode == ModeInteractive {
		res.to(StateConfirming)
		decision, err := c.confirmer.Confirm(ctx, Prompt{
			Index:       index + 1,
			Total:       total,
			Path:        item.Path,
			Name:        item.Name,
			Description: item.Description,
			Category:    item.Category,
			RiskLevel:   item.RiskLevel,
			SizeBytes:   item.SizeBytes,
			FileCount:   item.FileCount,
			AgeDays:     item.AgeDays,
			Backup:      req.Backup,
		})
		if err != nil {
			c.log.Error("confirmation failed, stopping", err, logger.F("path", item.Path))
			res.skip(OutcomeSkippedByUser)
			return true, fmt.Sprintf("confirmation failed: %v", err), err
		}
		switch decision {
		case DecisionConfirm:
		case DecisionDecline:
			res.skip(OutcomeSkippedByUser)
			return false, "", nil
		case DecisionAbort:
			res.skip(OutcomeSkippedByUser)
			return true, "aborted by user", nil
		default:
			// only an explicit confirm may lead to a deletion
			c.log.Warn("unknown confirmation decision, stopping",
				logger.F("path", item.Path), logger.F("decision", int(decision)))
			res.skip(OutcomeSkippedByUser)
			return true, "unknown decision", nil
		}
	}

	if req.Backup {
		res.to(StateBackingUp)
		if kind, err := c.preflight(item); err != nil {
			res.fail(kind, err)
			return false, "", nil
		}
		dest, err := c.backup.Backup(ctx, *item)
		if err != nil {
			res.fail(FailureBackup, err)
			return false, "", nil
		}
		res.BackupPath = dest
		res.to(StateDeleting)
	} else {
		res.to(StateDeleting)
		if kind, err := c.preflight(item); err != nil {
			res.fail(kind, err)
			return false, "", nil
		}
	}

	if err := c.deleteWithRetry(ctx, item); err != nil {
		res.fail(FailureDelete, err)
		return false, "", nil
	}

	res.to(StateDeleted)
	res.Outcome = OutcomeDeleted
	res.BytesFreed = item.SizeBytes
	c.manifest.Add(item.Path, item.SizeBytes, item.Category, res.BackupPath)
	return false, "", nil
}

// preflight runs the checks that must pass before anything is copied or
// removed
func (c *Cleaner) preflight(item *scanner.Item) (FailureKind, error) {
	if err := c.validator.ValidatePathForDeletion(item.Path); err != nil {
		return FailureProtected, &DeletionError{Path: item.Path, Reason: ErrorInvalidPath, Original: err}
	}
	if err := IsSafeToDelete(item.Path); err != nil {
		return FailureDelete, err
	}
	if item.RequiresAdmin && !c.elevated {
		return FailureDelete, ErrNeedsElevation
	}
	return "", nil
}

func (c *Cleaner) deleteWithRetry(ctx context.Context, item *scanner.Item) *DeletionError {
	var lastErr *DeletionError

	for attempt := 0; ; attempt++ {
		err := c.deleteItem(item)
		if err == nil {
			return nil
		}

		lastErr = CategorizeError(item.Path, err)
		if !lastErr.Retryable || attempt >= len(c.retryDelays) {
			return lastErr
		}

		c.log.Debug("item busy, retrying", logger.F("path", item.Path), logger.F("attempt", attempt+1))
		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(c.retryDelays[attempt]):
		}
	}
}

// deleteItem removes the item's root. Contents-only items, and roots that
// are symlinks to directories, are emptied in place so the bytes measured
// by the scan are the ones released.
func (c *Cleaner) deleteItem(item *scanner.Item) error {
	info, err := os.Lstat(item.Path)
	if err != nil {
		return err
	}

	dir := item.Path
	emptyOnly := item.ContentsOnly
	if info.Mode()&os.ModeSymlink != 0 {
		target, err := os.Stat(item.Path)
		if err != nil || !target.IsDir() {
			return c.remover.Remove(item.Path)
		}
		resolved, err := filepath.EvalSymlinks(item.Path)
		if err != nil {
			return err
		}
		dir = resolved
		emptyOnly = true
	} else if !info.IsDir() {
		return c.remover.Remove(item.Path)
	}

	if !emptyOnly {
		return c.remover.RemoveAll(dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var errs []error
	for _, e := range entries {
		if err := c.remover.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Cleaner) logResult(res *ItemResult) {
	fields := []logger.Field{
		logger.F("path", res.Path),
		logger.F("outcome", string(res.Outcome)),
		logger.F("bytes", res.SizeBytes),
	}
	if res.Failure != nil {
		fields = append(fields, logger.F("kind", string(res.Failure.Kind)), logger.F("reason", res.Failure.Reason.String()))
		c.log.Warn("item failed", fields...)
		return
	}
	c.log.Debug("item processed", fields...)
}
