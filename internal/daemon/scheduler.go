package daemon

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fenilsonani/cachescope/internal/config"
	"github.com/fenilsonani/cachescope/internal/logger"
)

// JobFunc runs one scheduled cleanup
type JobFunc func(ctx context.Context, schedule config.Schedule) error

// Scheduler manages scheduled cleanup jobs
type Scheduler struct {
	cron      *cron.Cron
	run       JobFunc
	log       *logger.Logger
	jobs      map[string]cron.EntryID
	schedules map[string]config.Schedule
	jobsMu    sync.RWMutex
	running   bool
	ctx       context.Context
}

// NewScheduler creates a scheduler calling run for every due schedule
func NewScheduler(run JobFunc, log *logger.Logger) *Scheduler {
	parser := cron.NewParser(
		cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)

	cl := cronLogger{log: log}
	c := cron.New(cron.WithParser(parser), cron.WithLogger(cl), cron.WithChain(
		cron.Recover(cl),
	))

	return &Scheduler{
		cron:      c,
		run:       run,
		log:       log,
		jobs:      make(map[string]cron.EntryID),
		schedules: make(map[string]config.Schedule),
		ctx:       context.Background(),
	}
}

// Start starts the scheduler. Jobs run with ctx.
func (s *Scheduler) Start(ctx context.Context, schedules []config.Schedule) error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	s.ctx = ctx

	for _, schedule := range schedules {
		if err := s.addJobInternal(schedule); err != nil {
			return fmt.Errorf("failed to add schedule %s: %w", schedule.Name, err)
		}
	}

	s.cron.Start()
	s.running = true

	s.log.Info("scheduler started", logger.F("jobs", len(s.jobs)))
	return nil
}

// Stop stops the scheduler and waits up to timeout for running jobs
func (s *Scheduler) Stop(timeout time.Duration) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	if !s.running {
		return
	}

	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(timeout):
		s.log.Warn("scheduler stop timed out", logger.F("timeout", timeout.String()))
	}

	s.running = false
	s.log.Info("scheduler stopped")
}

// addJobInternal adds a job (internal, no lock)
func (s *Scheduler) addJobInternal(schedule config.Schedule) error {
	if _, exists := s.jobs[schedule.Name]; exists {
		return fmt.Errorf("job %s already exists", schedule.Name)
	}

	id, err := s.cron.AddFunc(schedule.Schedule, func() {
		s.log.Info("executing scheduled job", logger.F("job", schedule.Name))
		if err := s.run(s.ctx, schedule); err != nil {
			s.log.Error("scheduled job failed", err, logger.F("job", schedule.Name))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.jobs[schedule.Name] = id
	s.schedules[schedule.Name] = schedule

	s.log.Info("added job",
		logger.F("job", schedule.Name),
		logger.F("schedule", schedule.Schedule),
		logger.F("mode", schedule.RunMode()))
	return nil
}

// AddJob adds a new job to the scheduler
func (s *Scheduler) AddJob(schedule config.Schedule) error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	return s.addJobInternal(schedule)
}

// RemoveJob removes a job from the scheduler
func (s *Scheduler) RemoveJob(name string) error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	id, exists := s.jobs[name]
	if !exists {
		return fmt.Errorf("job %s not found", name)
	}

	s.cron.Remove(id)
	delete(s.jobs, name)
	delete(s.schedules, name)

	s.log.Info("removed job", logger.F("job", name))
	return nil
}

// GetNextRun returns the next run time for a job. It is zero until the
// scheduler has started.
func (s *Scheduler) GetNextRun(name string) (time.Time, error) {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()

	id, exists := s.jobs[name]
	if !exists {
		return time.Time{}, fmt.Errorf("job %s not found", name)
	}

	return s.cron.Entry(id).Next, nil
}

// ListJobs returns information about all jobs, sorted by name
func (s *Scheduler) ListJobs() []JobInfo {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()

	jobs := make([]JobInfo, 0, len(s.jobs))
	for name, id := range s.jobs {
		entry := s.cron.Entry(id)
		sched := s.schedules[name]
		jobs = append(jobs, JobInfo{
			Name:     name,
			Schedule: sched.Schedule,
			Mode:     sched.RunMode(),
			NextRun:  entry.Next,
			PrevRun:  entry.Prev,
		})
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Name < jobs[j].Name })

	return jobs
}

// TriggerJob runs a job now, outside its schedule
func (s *Scheduler) TriggerJob(ctx context.Context, name string) error {
	s.jobsMu.RLock()
	schedule, exists := s.schedules[name]
	s.jobsMu.RUnlock()

	if !exists {
		return fmt.Errorf("job %s not found", name)
	}

	s.log.Info("manually triggering job", logger.F("job", name))
	return s.run(ctx, schedule)
}

// JobInfo contains information about a scheduled job
type JobInfo struct {
	Name     string    `json:"name" yaml:"name"`
	Schedule string    `json:"schedule" yaml:"schedule"`
	Mode     string    `json:"mode" yaml:"mode"`
	NextRun  time.Time `json:"next_run" yaml:"next_run"`
	PrevRun  time.Time `json:"prev_run" yaml:"prev_run"`
}

// cronLogger forwards cron's key/value logging to the structured logger
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, kvFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, err, kvFields(keysAndValues)...)
}

func kvFields(kv []interface{}) []logger.Field {
	fields := make([]logger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields = append(fields, logger.F(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return fields
}
