// Package analyzer builds inventory snapshots from location descriptors and
// selects cleanup candidates from them.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fenilsonani/cachescope/internal/logger"
	"github.com/fenilsonani/cachescope/internal/progress"
	"github.com/fenilsonani/cachescope/internal/scanner"
)

var (
	// ErrCatalogEmpty means there was nothing that could be scanned
	ErrCatalogEmpty = errors.New("catalog empty")

	// ErrDiskUsage is returned alongside a complete snapshot when the
	// volume statistics could not be read
	ErrDiskUsage = errors.New("disk usage unavailable")
)

// Scan results as reported to the Recorder
const (
	ResultOK      = "ok"
	ResultPartial = "partial"
	ResultFailed  = "failed"
	ResultAbsent  = "absent"
	ResultInvalid = "invalid"
)

// Recorder receives inventory measurements
type Recorder interface {
	RecordLocation(result string)
	RecordInventory(duration time.Duration, totalBytes int64, items int)
}

// DiskUsageFunc reports usage of the volume holding path
type DiskUsageFunc func(path string) (DiskUsage, error)

// Analyzer scans descriptors concurrently into a Snapshot
type Analyzer struct {
	scanner   *scanner.Scanner
	workers   int
	diskUsage DiskUsageFunc
	diskPaths []string
	platform  PlatformInfo
	progress  *progress.Reporter
	recorder  Recorder
	log       *logger.Logger
	now       func() time.Time
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithWorkers bounds the number of concurrent location scans
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithDiskUsage queries volume statistics once per build. The paths are
// tried in order until one succeeds.
func WithDiskUsage(fn DiskUsageFunc, paths ...string) Option {
	return func(a *Analyzer) {
		a.diskUsage = fn
		a.diskPaths = paths
	}
}

// WithPlatform records the machine identity in snapshot metadata
func WithPlatform(info PlatformInfo) Option {
	return func(a *Analyzer) {
		a.platform = info
	}
}

// WithProgress reports per-location progress
func WithProgress(pr *progress.Reporter) Option {
	return func(a *Analyzer) {
		a.progress = pr
	}
}

// WithRecorder sends measurements to r
func WithRecorder(r Recorder) Option {
	return func(a *Analyzer) {
		a.recorder = r
	}
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(a *Analyzer) {
		a.log = l
	}
}

// WithClock overrides the time source for metadata
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		if now != nil {
			a.now = now
		}
	}
}

// DefaultWorkers returns twice the CPU count clamped to [4, 32]. Scans
// mostly wait on the filesystem.
func DefaultWorkers() int {
	return clampWorkers(2 * runtime.NumCPU())
}

func clampWorkers(n int) int {
	if n < 4 {
		n = 4
	}
	if n > 32 {
		n = 32
	}
	return n
}

// New creates an Analyzer around s
func New(s *scanner.Scanner, opts ...Option) *Analyzer {
	a := &Analyzer{
		scanner: s,
		workers: DefaultWorkers(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type slot struct {
	item   scanner.Item
	result string
}

// BuildInventory scans every location and returns an immutable snapshot.
//
// At most the configured number of scans run at once; submission blocks
// while the pool is saturated. Items keep the order of locs regardless of
// completion order. Absent locations are omitted and invalid ones skipped.
// The build fails with ErrCatalogEmpty only when no location could be
// processed at all. A failed disk query returns the snapshot together with
// an error wrapping ErrDiskUsage.
func (a *Analyzer) BuildInventory(ctx context.Context, locs []scanner.Location) (*Snapshot, error) {
	if len(locs) == 0 {
		return nil, fmt.Errorf("%w: no locations to scan", ErrCatalogEmpty)
	}

	started := a.now()
	slots := make([]slot, len(locs))

	var (
		mu    sync.Mutex
		done  int
		files int
		size  int64
	)

	var g errgroup.Group
	g.SetLimit(a.workers)
	for i, loc := range locs {
		i, loc := i, loc
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			slots[i] = a.scanOne(loc)

			mu.Lock()
			done++
			files += slots[i].item.FileCount
			size += slots[i].item.SizeBytes
			a.progress.UpdateScan(&progress.ScanProgress{
				Phase:          progress.PhaseScanning,
				Location:       loc.Name,
				CurrentPath:    loc.Path,
				LocationsTotal: len(locs),
				LocationsDone:  done,
				FilesFound:     files,
				TotalSize:      size,
				StartTime:      started,
			})
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("inventory cancelled: %w", err)
	}

	meta := Metadata{
		ScanStartedAt:      started,
		Platform:           a.platform,
		StaleThresholdDays: a.scanner.StaleThresholdDays(),
		PathsTotal:         len(locs),
	}
	items := make([]scanner.Item, 0, len(locs))
	for _, s := range slots {
		switch s.result {
		case ResultAbsent:
			meta.PathsAbsent++
		case ResultInvalid:
			meta.PathsSkipped++
		case ResultFailed:
			meta.PathsFailed++
			meta.PathsFound++
			items = append(items, s.item)
		default:
			meta.PathsFound++
			items = append(items, s.item)
		}
	}
	if meta.PathsSkipped == len(locs) {
		return nil, fmt.Errorf("%w: none of %d locations could be processed", ErrCatalogEmpty, len(locs))
	}
	meta.ScanDuration = a.now().Sub(started)

	snap := NewSnapshot(items, meta, DiskUsage{})
	diskErr := a.queryDisk(snap)

	a.progress.UpdateScan(&progress.ScanProgress{
		Phase:          progress.PhaseComplete,
		LocationsTotal: len(locs),
		LocationsDone:  done,
		FilesFound:     snap.stats.TotalFiles,
		TotalSize:      snap.stats.TotalSize,
		StartTime:      started,
	})
	if a.recorder != nil {
		a.recorder.RecordInventory(meta.ScanDuration, snap.stats.TotalSize, snap.Len())
	}
	a.log.Info("inventory built",
		logger.F("locations", len(locs)),
		logger.F("found", meta.PathsFound),
		logger.F("absent", meta.PathsAbsent),
		logger.F("failed", meta.PathsFailed),
		logger.F("total_bytes", snap.stats.TotalSize),
		logger.F("duration", meta.ScanDuration))

	if diskErr != nil {
		return snap, diskErr
	}
	return snap, nil
}

func (a *Analyzer) scanOne(loc scanner.Location) slot {
	item, err := a.scanner.Scan(loc)
	s := slot{item: item}
	switch {
	case errors.Is(err, scanner.ErrLocationAbsent):
		s.result = ResultAbsent
		a.log.Debug("location absent", logger.F("path", loc.Path))
	case err != nil:
		s.result = ResultInvalid
		a.log.Warn("location skipped", logger.F("name", loc.Name), logger.F("reason", err.Error()))
	case item.ScanError != nil && item.ScanError.Kind == scanner.ScanTotalFailure:
		s.result = ResultFailed
		a.log.Warn("location unreadable", logger.F("path", loc.Path), logger.F("reason", item.ScanError.Reason))
	case item.ScanError != nil:
		s.result = ResultPartial
		a.log.Warn("location partially scanned",
			logger.F("path", loc.Path),
			logger.F("failures", item.ScanError.Count),
			logger.F("first", item.ScanError.Path))
	default:
		s.result = ResultOK
		a.log.Debug("location scanned", logger.F("path", loc.Path), logger.F("bytes", item.SizeBytes))
	}
	if a.recorder != nil {
		a.recorder.RecordLocation(s.result)
	}
	return s
}

// queryDisk fills in disk usage, trying each configured path in turn
func (a *Analyzer) queryDisk(snap *Snapshot) error {
	if a.diskUsage == nil {
		return nil
	}
	var lastErr error
	for _, p := range a.diskPaths {
		du, err := a.diskUsage(p)
		if err == nil {
			snap.disk = du
			return nil
		}
		lastErr = err
		a.log.Debug("disk usage query failed", logger.F("path", p), logger.F("error", err.Error()))
	}
	if lastErr == nil {
		lastErr = errors.New("no volume path configured")
	}
	snap.diskErr = fmt.Errorf("%w: %v", ErrDiskUsage, lastErr)
	a.log.Error("disk usage unavailable", lastErr)
	return snap.diskErr
}
