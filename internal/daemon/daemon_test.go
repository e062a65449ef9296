package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenilsonani/cachescope/internal/cleaner"
	"github.com/fenilsonani/cachescope/internal/config"
	"github.com/fenilsonani/cachescope/internal/engine"
	"github.com/fenilsonani/cachescope/internal/logger"
	"github.com/fenilsonani/cachescope/internal/metrics"
	"github.com/fenilsonani/cachescope/internal/platform"
	"github.com/fenilsonani/cachescope/internal/scanner"
	"github.com/fenilsonani/cachescope/internal/testutil"
)

// =============================================================================
// Helpers
// =============================================================================

// webhookRecorder collects the notifications posted to it
type webhookRecorder struct {
	mu       sync.Mutex
	messages []NotificationMessage
	headers  []http.Header
	status   int
}

func newWebhookServer(t *testing.T) (*httptest.Server, *webhookRecorder) {
	t.Helper()
	rec := &webhookRecorder{status: http.StatusOK}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg NotificationMessage
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rec.mu.Lock()
		rec.messages = append(rec.messages, msg)
		rec.headers = append(rec.headers, r.Header.Clone())
		status := rec.status
		rec.mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func (r *webhookRecorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.messages))
	for _, m := range r.messages {
		out = append(out, m.Type)
	}
	return out
}

func (r *webhookRecorder) last() NotificationMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.messages[len(r.messages)-1]
}

// newTestDaemon builds a daemon whose engine only sees two custom
// locations in a temp tree
func newTestDaemon(t *testing.T, schedules []config.Schedule, opts ...Option) (*Daemon, *testutil.TestFixture) {
	t.Helper()
	f := testutil.NewFixture(t)
	f.CreateFiles("cache/npm", 4, 512)
	f.CreateFiles("logs/app", 2, 1024)

	cfg := config.GetDefault()
	cfg.CustomLocations = []scanner.Location{
		{Path: f.Path("cache/npm"), Name: "npm Cache", Category: scanner.CategoryUserCache, RiskLevel: scanner.RiskSafe},
		{Path: f.Path("logs/app"), Name: "App Logs", Category: scanner.CategoryLogs, RiskLevel: scanner.RiskSafe},
	}
	cfg.ManifestDir = f.Path("manifests")
	cfg.DeleteRetries = 0
	cfg.Daemon.PidFile = f.Path("run/daemon.pid")
	cfg.Daemon.Schedules = schedules

	eng, err := engine.New(context.Background(), cfg,
		engine.WithPlatformInfo(platform.Resolve(platform.Linux, f.Path("home"), nil)),
		engine.WithCatalog([]scanner.Location{}),
		engine.WithDiskUsage(nil),
	)
	require.NoError(t, err)

	d, err := New(cfg, eng, append([]Option{WithLogger(logger.Nop())}, opts...)...)
	require.NoError(t, err)
	return d, f
}

// =============================================================================
// Scheduler
// =============================================================================

func TestScheduler_Jobs(t *testing.T) {
	var mu sync.Mutex
	var ran []string
	s := NewScheduler(func(_ context.Context, sched config.Schedule) error {
		mu.Lock()
		defer mu.Unlock()
		ran = append(ran, sched.Name)
		return nil
	}, logger.Nop())

	require.NoError(t, s.AddJob(config.Schedule{Name: "nightly", Schedule: "0 2 * * *", Mode: "auto"}))
	require.NoError(t, s.AddJob(config.Schedule{Name: "hourly", Schedule: "@hourly"}))
	assert.Error(t, s.AddJob(config.Schedule{Name: "nightly", Schedule: "0 3 * * *"}), "duplicate name")
	assert.Error(t, s.AddJob(config.Schedule{Name: "broken", Schedule: "not a cron"}))

	jobs := s.ListJobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "hourly", jobs[0].Name)
	assert.Equal(t, "dry_run", jobs[0].Mode, "unset mode previews")
	assert.Equal(t, "nightly", jobs[1].Name)
	assert.Equal(t, "auto", jobs[1].Mode)

	require.NoError(t, s.TriggerJob(context.Background(), "nightly"))
	assert.Equal(t, []string{"nightly"}, ran)
	assert.Error(t, s.TriggerJob(context.Background(), "missing"))

	require.NoError(t, s.RemoveJob("hourly"))
	assert.Error(t, s.RemoveJob("hourly"))
	_, err := s.GetNextRun("hourly")
	assert.Error(t, err)
	assert.Len(t, s.ListJobs(), 1)
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(func(context.Context, config.Schedule) error { return nil }, logger.Nop())

	err := s.Start(context.Background(), []config.Schedule{{Name: "weekly", Schedule: "0 3 * * 0"}})
	require.NoError(t, err)
	assert.Error(t, s.Start(context.Background(), nil), "already running")

	next, err := s.GetNextRun("weekly")
	require.NoError(t, err)
	assert.False(t, next.IsZero())
	assert.True(t, next.After(time.Now()))
	assert.Equal(t, time.Sunday, next.Weekday())

	s.Stop(time.Second)
	s.Stop(time.Second)
}

func TestScheduler_TriggerPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	s := NewScheduler(func(context.Context, config.Schedule) error { return boom }, logger.Nop())
	require.NoError(t, s.AddJob(config.Schedule{Name: "j", Schedule: "@daily"}))
	assert.ErrorIs(t, s.TriggerJob(context.Background(), "j"), boom)
}

// =============================================================================
// Notifier
// =============================================================================

func TestNotifier_Cleanup(t *testing.T) {
	srv, rec := newWebhookServer(t)
	cfg := &config.NotificationConfig{
		Enabled:   true,
		OnSuccess: true,
		OnFailure: true,
		Webhook: config.WebhookConfig{
			URL:     srv.URL,
			Headers: map[string]string{"X-Token": "secret"},
		},
	}
	n := NewNotifier(cfg, logger.Nop())
	ctx := context.Background()

	n.SendCleanupNotification(ctx, "nightly", &cleaner.Summary{
		Mode:         cleaner.ModeAuto,
		ItemsDeleted: 3,
		BytesFreed:   2048,
		Duration:     90 * time.Second,
	})
	msg := rec.last()
	assert.Equal(t, NotifyCleanupSuccess, msg.Type)
	assert.Equal(t, "Cleanup completed: nightly", msg.Title)
	assert.Contains(t, msg.Message, "Deleted 3 items, freed 2.0 KiB")
	assert.Equal(t, "nightly", msg.Data["job_name"])
	assert.Equal(t, float64(2048), msg.Data["bytes_freed"])
	assert.False(t, msg.Timestamp.IsZero())
	assert.Equal(t, "secret", rec.headers[0].Get("X-Token"))
	assert.Equal(t, "application/json", rec.headers[0].Get("Content-Type"))

	n.SendCleanupNotification(ctx, "nightly", &cleaner.Summary{Mode: cleaner.ModeAuto, ItemsFailed: 1})
	assert.Equal(t, NotifyCleanupFailure, rec.last().Type)
	assert.Equal(t, "Cleanup failed: nightly", rec.last().Title)

	n.SendCleanupNotification(ctx, "preview", &cleaner.Summary{Mode: cleaner.ModeDryRun, DryRun: true, ItemsSkipped: 2, BytesFreed: 1024})
	assert.Equal(t, "Cleanup preview: preview", rec.last().Title)
	assert.Contains(t, rec.last().Message, "1.0 KiB could be freed across 2 items")

	n.SendCleanupNotification(ctx, "nightly", &cleaner.Summary{Mode: cleaner.ModeAuto, Aborted: true})
	assert.Equal(t, NotifyCleanupFailure, rec.last().Type, "aborted runs count as failures")
}

func TestNotifier_Filters(t *testing.T) {
	srv, rec := newWebhookServer(t)
	cfg := &config.NotificationConfig{Enabled: true, OnFailure: true, Webhook: config.WebhookConfig{URL: srv.URL}}
	n := NewNotifier(cfg, logger.Nop())
	ctx := context.Background()

	n.SendCleanupNotification(ctx, "j", &cleaner.Summary{ItemsDeleted: 1})
	assert.Empty(t, rec.types(), "successes are filtered")

	n.SendCleanupNotification(ctx, "j", &cleaner.Summary{ItemsFailed: 1})
	assert.Equal(t, []string{NotifyCleanupFailure}, rec.types())

	cfg.Enabled = false
	n.SendStartupNotification(ctx, 2)
	n.SendCleanupNotification(ctx, "j", &cleaner.Summary{ItemsFailed: 1})
	assert.Len(t, rec.types(), 1, "disabled notifier stays quiet")

	var none *Notifier
	none.SendStartupNotification(ctx, 1)
	none.SendCleanupNotification(ctx, "j", &cleaner.Summary{})
	none.SendShutdownNotification(ctx)
}

func TestNotifier_WebhookErrors(t *testing.T) {
	srv, rec := newWebhookServer(t)
	rec.status = http.StatusInternalServerError
	cfg := &config.NotificationConfig{Enabled: true, Webhook: config.WebhookConfig{URL: srv.URL, Method: http.MethodPut}}
	n := NewNotifier(cfg, logger.Nop())

	err := n.sendWebhook(context.Background(), &NotificationMessage{Type: NotifyStartup})
	assert.EqualError(t, err, "webhook returned status 500")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, n.sendWebhook(ctx, &NotificationMessage{Type: NotifyStartup}))
}

// =============================================================================
// Jobs
// =============================================================================

func TestNew_NeedsSchedules(t *testing.T) {
	cfg := config.GetDefault()
	cfg.Daemon.Schedules = nil
	_, err := New(cfg, nil)
	assert.Error(t, err)
}

func TestRunJob_Auto(t *testing.T) {
	srv, rec := newWebhookServer(t)
	sched := config.Schedule{Name: "caches", Schedule: "@daily", Mode: "auto", Categories: []string{"user_cache"}}
	d, f := newTestDaemon(t, []config.Schedule{sched})
	d.notifier = NewNotifier(&config.NotificationConfig{Enabled: true, OnSuccess: true, Webhook: config.WebhookConfig{URL: srv.URL}}, logger.Nop())

	res, err := d.runJob(context.Background(), sched)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Summary.ItemsDeleted)
	assert.Equal(t, int64(4*512), res.Summary.BytesFreed)
	assert.False(t, f.Exists(f.Path("cache/npm")))
	assert.True(t, f.Exists(f.Path("logs/app")), "other categories are left alone")
	assert.NotEmpty(t, res.ManifestPath)

	assert.Equal(t, []string{NotifyCleanupSuccess}, rec.types())
	assert.Equal(t, "caches", rec.last().Data["job_name"])
}

func TestRunJob_DryRunByDefault(t *testing.T) {
	sched := config.Schedule{Name: "preview", Schedule: "@daily"}
	d, f := newTestDaemon(t, []config.Schedule{sched})

	res, err := d.runJob(context.Background(), sched)
	require.NoError(t, err)
	assert.True(t, res.Summary.DryRun)
	assert.Equal(t, 2, res.Summary.ItemsSkipped)
	assert.True(t, f.Exists(f.Path("cache/npm/file00.bin")))
	assert.True(t, f.Exists(f.Path("logs/app/file00.bin")))
}

func TestRunJob_Rejects(t *testing.T) {
	sched := config.Schedule{Name: "x", Schedule: "@daily"}
	d, _ := newTestDaemon(t, []config.Schedule{sched})

	err := d.RunJob(context.Background(), config.Schedule{Name: "ask", Mode: "interactive"})
	assert.Error(t, err)

	err = d.RunJob(context.Background(), config.Schedule{Name: "bad", Mode: "sometimes"})
	assert.ErrorIs(t, err, cleaner.ErrInvalidMode)

	err = d.RunJob(context.Background(), config.Schedule{Name: "bad", Categories: []string{"nope"}})
	assert.Error(t, err)
}

func TestRunJob_SkipIfBusy(t *testing.T) {
	sched := config.Schedule{Name: "busy", Schedule: "@daily", SkipIfBusy: true}
	d, _ := newTestDaemon(t, []config.Schedule{sched})

	d.jobMu.Lock()
	err := d.RunJob(context.Background(), sched)
	d.jobMu.Unlock()
	assert.ErrorIs(t, err, ErrBusy)

	assert.NoError(t, d.RunJob(context.Background(), sched))
}

func TestRunJob_PrunesHistory(t *testing.T) {
	sm, err := config.NewSessionManager(t.TempDir())
	require.NoError(t, err)
	old := &config.Session{ID: "old", Timestamp: time.Now().AddDate(0, 0, -400)}
	require.NoError(t, sm.Save(old))

	sched := config.Schedule{Name: "preview", Schedule: "@daily"}
	d, _ := newTestDaemon(t, []config.Schedule{sched}, WithHistory(sm))

	require.NoError(t, d.RunJob(context.Background(), sched))
	_, err = sm.Load("old")
	assert.Error(t, err, "sessions past keep_days are removed")
}

// =============================================================================
// Lifecycle
// =============================================================================

func TestRun_Lifecycle(t *testing.T) {
	srv, rec := newWebhookServer(t)
	reg := prometheus.NewRegistry()
	metrics.InitPrometheusMetrics("test", reg)

	sched := config.Schedule{Name: "weekly", Schedule: "0 3 * * 0"}
	d, f := newTestDaemon(t, []config.Schedule{sched}, WithGatherer(reg))
	d.config.Metrics.Listen = "127.0.0.1:0"
	d.notifier = NewNotifier(&config.NotificationConfig{Enabled: true, Webhook: config.WebhookConfig{URL: srv.URL}}, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.Eventually(t, func() bool { return d.MetricsAddr() != "" }, 5*time.Second, 10*time.Millisecond)
	assert.True(t, d.IsRunning())

	pid, err := os.ReadFile(f.Path("run/daemon.pid"))
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%d\n", os.Getpid()), string(pid))

	resp, err := http.Get("http://" + d.MetricsAddr() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get("http://" + d.MetricsAddr() + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "test_inventory_items")

	require.Eventually(t, func() bool { return len(d.Scheduler().ListJobs()) == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("daemon did not stop")
	}

	assert.False(t, d.IsRunning())
	assert.False(t, f.Exists(f.Path("run/daemon.pid")))
	assert.Equal(t, []string{NotifyStartup, NotifyShutdown}, rec.types())
}

func TestAcquirePidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "d.pid")
	ctx := context.Background()

	require.NoError(t, acquirePidFile(ctx, path))
	err := acquirePidFile(ctx, path)
	assert.ErrorIs(t, err, ErrAlreadyRunning, "our own pid is alive")

	require.NoError(t, os.WriteFile(path, []byte("2147483000\n"), 0644))
	require.NoError(t, acquirePidFile(ctx, path), "stale pid file is replaced")
	pid, alive := readPid(ctx, path)
	assert.Equal(t, os.Getpid(), pid)
	assert.True(t, alive)

	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0644))
	require.NoError(t, acquirePidFile(ctx, path), "unreadable pid file is replaced")
}
