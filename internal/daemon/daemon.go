// Package daemon runs configured cleanups on cron schedules and serves
// metrics while it waits.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/fenilsonani/cachescope/internal/cleaner"
	"github.com/fenilsonani/cachescope/internal/config"
	"github.com/fenilsonani/cachescope/internal/engine"
	"github.com/fenilsonani/cachescope/internal/logger"
	"github.com/fenilsonani/cachescope/internal/metrics"
)

var (
	// ErrAlreadyRunning is returned when another daemon holds the pid file
	ErrAlreadyRunning = errors.New("daemon already running")

	// ErrBusy is returned when a skip_if_busy job finds another job running
	ErrBusy = errors.New("another job is running")
)

const stopTimeout = 30 * time.Second

// Daemon represents the cleanup daemon
type Daemon struct {
	config    *config.Config
	engine    *engine.Engine
	scheduler *Scheduler
	notifier  *Notifier
	history   *config.SessionManager
	gatherer  prometheus.Gatherer
	log       *logger.Logger

	running bool
	mu      sync.RWMutex
	jobMu   sync.Mutex

	metricsAddr string
}

// Option configures a Daemon
type Option func(*Daemon)

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(d *Daemon) { d.log = l }
}

// WithHistory prunes session records after every job
func WithHistory(sm *config.SessionManager) Option {
	return func(d *Daemon) { d.history = sm }
}

// WithGatherer sets the registry served on /metrics
func WithGatherer(g prometheus.Gatherer) Option {
	return func(d *Daemon) { d.gatherer = g }
}

// New creates a new daemon instance
func New(cfg *config.Config, eng *engine.Engine, opts ...Option) (*Daemon, error) {
	if len(cfg.Daemon.Schedules) == 0 {
		return nil, fmt.Errorf("no schedules configured")
	}

	d := &Daemon{
		config: cfg,
		engine: eng,
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}

	d.scheduler = NewScheduler(d.RunJob, d.log)
	if cfg.Daemon.Notifications.Enabled {
		d.notifier = NewNotifier(&cfg.Daemon.Notifications, d.log)
	}
	return d, nil
}

// Scheduler returns the job scheduler
func (d *Daemon) Scheduler() *Scheduler {
	return d.scheduler
}

// Run starts the scheduler and blocks until ctx is cancelled
func (d *Daemon) Run(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return ErrAlreadyRunning
	}
	d.running = true
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
	}()

	d.log.Info("starting cleanup daemon")

	pidFile := config.ExpandPath(d.config.Daemon.PidFile)
	if pidFile != "" {
		if err := acquirePidFile(ctx, pidFile); err != nil {
			return err
		}
		defer func() {
			if err := os.Remove(pidFile); err != nil && !os.IsNotExist(err) {
				d.log.Error("failed to remove pid file", err, logger.F("path", pidFile))
			}
		}()
	}

	var srv *http.Server
	if addr := d.config.Metrics.Listen; addr != "" {
		var err error
		srv, err = d.serveMetrics(addr)
		if err != nil {
			return err
		}
	}

	if err := d.scheduler.Start(ctx, d.config.Daemon.Schedules); err != nil {
		if srv != nil {
			srv.Close()
		}
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	for _, job := range d.scheduler.ListJobs() {
		d.log.Info("next run", logger.F("job", job.Name), logger.F("at", job.NextRun.Format(time.RFC3339)))
	}
	d.notifier.SendStartupNotification(ctx, len(d.config.Daemon.Schedules))

	<-ctx.Done()
	d.log.Info("daemon shutting down")

	d.scheduler.Stop(stopTimeout)
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			d.log.Error("metrics server shutdown failed", err)
		}
	}

	notifyCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	d.notifier.SendShutdownNotification(notifyCtx)

	return nil
}

// IsRunning returns whether the daemon is running
func (d *Daemon) IsRunning() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}

// MetricsAddr returns the address the metrics server listens on, once
// started
func (d *Daemon) MetricsAddr() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.metricsAddr
}

// RunJob inventories, selects by the schedule's criteria and cleans.
// Jobs never overlap; with SkipIfBusy a job gives up instead of waiting.
func (d *Daemon) RunJob(ctx context.Context, schedule config.Schedule) error {
	_, err := d.runJob(ctx, schedule)
	return err
}

func (d *Daemon) runJob(ctx context.Context, schedule config.Schedule) (*engine.Result, error) {
	if schedule.SkipIfBusy {
		if !d.jobMu.TryLock() {
			d.log.Warn("skipping job, another job is running", logger.F("job", schedule.Name))
			return nil, ErrBusy
		}
	} else {
		d.jobMu.Lock()
	}
	defer d.jobMu.Unlock()

	log := d.log.With(logger.F("job", schedule.Name))
	start := time.Now()

	criteria, err := schedule.Criteria()
	if err != nil {
		return nil, err
	}
	mode, err := cleaner.ParseMode(schedule.RunMode())
	if err != nil {
		return nil, err
	}
	if mode == cleaner.ModeInteractive {
		return nil, fmt.Errorf("job %s: interactive mode cannot run unattended", schedule.Name)
	}

	snap, err := d.engine.Inventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("inventory failed: %w", err)
	}
	log.Info("inventory complete",
		logger.F("locations", snap.Len()),
		logger.F("total_bytes", snap.Stats().TotalSize))

	res, err := d.engine.Clean(ctx, snap, engine.CleanOptions{
		Criteria: criteria,
		Mode:     mode,
		Backup:   schedule.Backup,
		Trigger:  schedule.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("cleanup failed: %w", err)
	}

	sum := res.Summary
	log.Info("job complete",
		logger.F("duration", time.Since(start).Round(time.Millisecond).String()),
		logger.F("deleted", sum.ItemsDeleted),
		logger.F("skipped", sum.ItemsSkipped),
		logger.F("failed", sum.ItemsFailed),
		logger.F("bytes_freed", sum.BytesFreed),
		logger.F("dry_run", sum.DryRun))

	if d.history != nil {
		if n, err := d.history.CleanOldSessions(d.config.History.KeepDays); err != nil {
			log.Error("failed to prune history", err)
		} else if n > 0 {
			log.Debug("pruned history", logger.F("removed", n))
		}
	}

	d.notifier.SendCleanupNotification(ctx, schedule.Name, sum)
	return res, nil
}

func (d *Daemon) serveMetrics(addr string) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(d.gatherer))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	d.mu.Lock()
	d.metricsAddr = ln.Addr().String()
	d.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.log.Error("metrics server failed", err)
		}
	}()
	d.log.Info("serving metrics", logger.F("addr", ln.Addr().String()))
	return srv, nil
}

// acquirePidFile creates path holding our pid. A pid file left by a
// process that no longer exists is replaced.
func acquirePidFile(ctx context.Context, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create pid directory: %w", err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
		if err == nil {
			_, err = fmt.Fprintf(file, "%d\n", os.Getpid())
			if cerr := file.Close(); err == nil {
				err = cerr
			}
			return err
		}
		if !os.IsExist(err) {
			return fmt.Errorf("failed to write pid file: %w", err)
		}

		pid, alive := readPid(ctx, path)
		if alive {
			return fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove stale pid file: %w", err)
		}
	}
	return fmt.Errorf("%w: could not claim %s", ErrAlreadyRunning, path)
}

// readPid returns the pid recorded in path and whether that process lives
func readPid(ctx context.Context, path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	alive, err := process.PidExistsWithContext(ctx, int32(pid))
	if err != nil {
		return pid, false
	}
	return pid, alive
}
