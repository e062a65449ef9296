// Package engine assembles the scanner, analyzer and cleaner from a
// configuration. The CLI and the daemon both run through it.
package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fenilsonani/cachescope/internal/analyzer"
	"github.com/fenilsonani/cachescope/internal/cleaner"
	"github.com/fenilsonani/cachescope/internal/config"
	"github.com/fenilsonani/cachescope/internal/logger"
	"github.com/fenilsonani/cachescope/internal/metrics"
	"github.com/fenilsonani/cachescope/internal/platform"
	"github.com/fenilsonani/cachescope/internal/progress"
	"github.com/fenilsonani/cachescope/internal/scanner"
)

// maxRetryDelay caps the wait between attempts on a busy item
const maxRetryDelay = 30 * time.Second

// Engine runs inventories and cleanups for one configuration
type Engine struct {
	cfg       *config.Config
	info      *platform.Info
	catalog   []scanner.Location
	log       *logger.Logger
	progress  *progress.Reporter
	metrics   *metrics.PrometheusMetrics
	history   *config.SessionManager
	diskUsage analyzer.DiskUsageFunc
	cleanOpts []cleaner.Option
	now       func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithPlatformInfo skips host detection
func WithPlatformInfo(info *platform.Info) Option {
	return func(e *Engine) { e.info = info }
}

// WithCatalog replaces the built-in location catalog
func WithCatalog(locs []scanner.Location) Option {
	return func(e *Engine) { e.catalog = locs }
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithProgress publishes scan and clean progress on pr
func WithProgress(pr *progress.Reporter) Option {
	return func(e *Engine) { e.progress = pr }
}

// WithMetrics records inventories and outcomes in m
func WithMetrics(m *metrics.PrometheusMetrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithHistory saves a session record after every cleanup
func WithHistory(sm *config.SessionManager) Option {
	return func(e *Engine) { e.history = sm }
}

// WithDiskUsage replaces the volume statistics query
func WithDiskUsage(fn analyzer.DiskUsageFunc) Option {
	return func(e *Engine) { e.diskUsage = fn }
}

// WithClock sets the time source shared by the scanner and the analyzer
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithCleanerOptions appends options to every cleaner the engine builds
func WithCleanerOptions(opts ...cleaner.Option) Option {
	return func(e *Engine) { e.cleanOpts = append(e.cleanOpts, opts...) }
}

// New creates an Engine. Platform details are detected unless given.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.GetDefault()
	}
	e := &Engine{
		cfg:       cfg,
		log:       logger.Nop(),
		diskUsage: platform.DiskUsage,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.info == nil {
		info, err := platform.GetInfo(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get platform info: %w", err)
		}
		e.info = info
	}
	if e.catalog == nil {
		e.catalog = platform.Catalog(e.info)
	}
	return e, nil
}

// Config returns the configuration in use
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Platform returns the detected platform details
func (e *Engine) Platform() *platform.Info {
	return e.info
}

// Locations returns the catalog after configured exclusions, plus custom
// locations
func (e *Engine) Locations() []scanner.Location {
	return e.cfg.Locations(e.catalog)
}

// Inventory scans every location. A disk usage failure is logged and the
// snapshot is still returned.
func (e *Engine) Inventory(ctx context.Context) (*analyzer.Snapshot, error) {
	s := scanner.New(
		scanner.WithLargestFiles(e.cfg.LargestFiles),
		scanner.WithStaleThreshold(e.cfg.StaleThresholdDays),
		scanner.WithClock(e.now),
	)

	opts := []analyzer.Option{
		analyzer.WithWorkers(e.cfg.Workers),
		analyzer.WithPlatform(e.info.PlatformInfo()),
		analyzer.WithProgress(e.progress),
		analyzer.WithLogger(e.log),
		analyzer.WithClock(e.now),
	}
	if e.diskUsage != nil {
		paths := platform.DiskPaths(e.info)
		if e.cfg.DiskPath != "" {
			paths = []string{config.ExpandPath(e.cfg.DiskPath)}
		}
		opts = append(opts, analyzer.WithDiskUsage(e.diskUsage, paths...))
	}
	if e.metrics != nil {
		opts = append(opts, analyzer.WithRecorder(e.metrics))
	}

	snap, err := analyzer.New(s, opts...).BuildInventory(ctx, e.Locations())
	if err != nil {
		if errors.Is(err, analyzer.ErrDiskUsage) && snap != nil {
			e.log.Warn("disk usage unavailable", logger.F("error", err.Error()))
			return snap, nil
		}
		return nil, err
	}
	return snap, nil
}

// CleanOptions parameterizes one cleanup
type CleanOptions struct {
	Criteria  analyzer.Criteria
	Mode      cleaner.Mode
	Backup    bool
	BackupDir string // overrides the configured destination
	Confirmer cleaner.Confirmer
	Trigger   string // "cli" or a schedule name, kept in the history
}

// Result is what a cleanup produced besides its summary
type Result struct {
	Summary      *cleaner.Summary
	Session      *config.Session
	ManifestPath string
	BackupDir    string
}

// Clean selects from snap and runs the cleaner over the selection. When the
// confirmer fails the partial run is still recorded and returned together
// with an error wrapping cleaner.ErrConfirmation.
func (e *Engine) Clean(ctx context.Context, snap *analyzer.Snapshot, opts CleanOptions) (*Result, error) {
	copts := []cleaner.Option{
		cleaner.WithValidator(e.cfg.Validator(e.info.ProtectedPaths...)),
		cleaner.WithRetryDelays(RetryDelays(e.cfg.DeleteRetries)),
		cleaner.WithProgress(e.progress),
		cleaner.WithLogger(e.log),
	}
	if opts.Confirmer != nil {
		copts = append(copts, cleaner.WithConfirmer(opts.Confirmer))
	}
	if e.metrics != nil {
		copts = append(copts, cleaner.WithRecorder(e.metrics))
	}

	res := &Result{}
	var sink *cleaner.DirectoryBackup
	if opts.Backup && opts.Mode != cleaner.ModeDryRun {
		root := opts.BackupDir
		if root == "" {
			root = e.cfg.Backup.Destination
		}
		if root == "" {
			return nil, fmt.Errorf("backup requested but no destination configured")
		}
		sink = cleaner.NewDirectoryBackup(config.ExpandPath(root))
		sink.Verify = e.cfg.Backup.Verify
		copts = append(copts, cleaner.WithBackupSink(sink))
	}
	copts = append(copts, e.cleanOpts...)

	c := cleaner.New(copts...)
	sum, cleanErr := c.CleanSelection(ctx, snap, opts.Criteria, cleaner.Request{
		Mode:    opts.Mode,
		Backup:  opts.Backup,
		MaxRisk: opts.Criteria.MaxRisk,
	})
	if sum == nil {
		return nil, cleanErr
	}
	res.Summary = sum
	if sink != nil && sum.ItemsDeleted > 0 {
		res.BackupDir = sink.RunDir()
	}

	if !sum.DryRun && c.Manifest().Len() > 0 && e.cfg.ManifestDir != "" {
		path := filepath.Join(config.ExpandPath(e.cfg.ManifestDir),
			fmt.Sprintf("manifest-%s.txt", sum.StartedAt.Format("20060102-150405")))
		if err := c.SaveManifest(path); err != nil {
			e.log.Error("failed to save deletion manifest", err, logger.F("path", path))
		} else {
			res.ManifestPath = path
		}
	}

	if e.history != nil {
		res.Session = NewSession(sum, opts, res)
		if err := e.history.Save(res.Session); err != nil {
			e.log.Error("failed to save session", err)
		}
	}

	return res, cleanErr
}

// NewSession builds the history record of a cleanup
func NewSession(sum *cleaner.Summary, opts CleanOptions, res *Result) *config.Session {
	s := &config.Session{
		Timestamp:    sum.StartedAt,
		Mode:         string(sum.Mode),
		DryRun:       sum.DryRun,
		Trigger:      opts.Trigger,
		Categories:   make([]string, 0, len(opts.Criteria.Categories)),
		DeletedPaths: []string{},
		ItemsDeleted: sum.ItemsDeleted,
		ItemsFailed:  sum.ItemsFailed,
		ItemsSkipped: sum.ItemsSkipped,
		BytesFreed:   sum.BytesFreed,
		BackupDir:    res.BackupDir,
		ManifestPath: res.ManifestPath,
		Aborted:      sum.Aborted,
		Notes:        sum.AbortReason,
	}
	for _, c := range opts.Criteria.Categories {
		s.Categories = append(s.Categories, string(c))
	}
	for i := range sum.Results {
		if sum.Results[i].Outcome == cleaner.OutcomeDeleted {
			s.DeletedPaths = append(s.DeletedPaths, sum.Results[i].Path)
		}
	}
	return s
}

// RetryDelays returns the waits for n retries of a busy item: the
// defaults first, then doubling the previous wait up to maxRetryDelay
func RetryDelays(n int) []time.Duration {
	if n <= 0 {
		return nil
	}
	out := make([]time.Duration, n)
	for i := range out {
		switch {
		case i < len(cleaner.DefaultRetryDelays):
			out[i] = cleaner.DefaultRetryDelays[i]
		default:
			out[i] = min(2*out[i-1], maxRetryDelay)
		}
	}
	return out
}
