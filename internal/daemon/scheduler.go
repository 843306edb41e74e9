// Package daemon runs the update/reschedule cycle in-process for hosts
// without a crontab, with an optional status HTTP server.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Job is a named periodic task.
type Job interface {
	Name() string
	Schedule() string
	Run(ctx context.Context) error
}

// Scheduler manages periodic job execution using cron expressions.
// Each job name is protected by a per-name mutex so a slow run skips
// overlapping ticks instead of stacking up (TryLock — atomic, no race).
//
// Static jobs are registered before Start; the dynamic set can be swapped
// while running, which is how the day's random run times are installed.
type Scheduler struct {
	mu      sync.Mutex
	cron    *cron.Cron
	jobs    []Job
	names   map[string]struct{}
	locks   map[string]*sync.Mutex
	dynamic map[string][]cron.EntryID
	logger  *slog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewScheduler creates a scheduler. Static jobs must be registered before
// Start().
func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		names:   make(map[string]struct{}),
		locks:   make(map[string]*sync.Mutex),
		dynamic: make(map[string][]cron.EntryID),
		logger:  logger,
	}
}

// RegisterJob adds a static job. Must be called before Start().
// Returns an error if a job with the same name is already registered.
func (s *Scheduler) RegisterJob(j Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := j.Name()
	if _, exists := s.names[name]; exists {
		return fmt.Errorf("daemon: duplicate job name %q", name)
	}

	s.names[name] = struct{}{}
	s.locks[name] = &sync.Mutex{}
	s.jobs = append(s.jobs, j)
	return nil
}

// Start initializes the cron engine and begins executing registered jobs.
// Returns an error if any job has an invalid schedule expression.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	s.ctx = ctx
	s.cancel = cancel

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	s.cron = cron.New(cron.WithParser(parser))

	for _, j := range s.jobs {
		job := j
		if _, err := s.cron.AddFunc(job.Schedule(), s.guarded(job.Name(), job.Run)); err != nil {
			cancel()
			return fmt.Errorf("daemon: invalid schedule for job %q: %w", job.Name(), err)
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.jobs))
	return nil
}

// SetDynamic replaces the dynamic entry set registered under name with one
// entry per spec, all invoking run. May be called while the scheduler is
// running; passing no specs simply clears the set.
func (s *Scheduler) SetDynamic(name string, specs []string, run func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return fmt.Errorf("daemon: scheduler not started")
	}

	if _, ok := s.locks[name]; !ok {
		s.locks[name] = &sync.Mutex{}
	}

	for _, id := range s.dynamic[name] {
		s.cron.Remove(id)
	}
	s.dynamic[name] = nil

	ids := make([]cron.EntryID, 0, len(specs))
	for _, spec := range specs {
		id, err := s.cron.AddFunc(spec, s.guarded(name, run))
		if err != nil {
			// Roll back the partial set so the old and new entries
			// can never be active together.
			for _, added := range ids {
				s.cron.Remove(added)
			}
			return fmt.Errorf("daemon: invalid dynamic spec %q for %q: %w", spec, name, err)
		}
		ids = append(ids, id)
	}

	s.dynamic[name] = ids
	return nil
}

// guarded wraps a job body with the per-name skip lock and error logging.
// Callers hold s.mu.
func (s *Scheduler) guarded(name string, run func(ctx context.Context) error) func() {
	lock := s.locks[name]
	return func() {
		// TryLock is atomic — no race between check and acquire.
		// If the previous tick is still running, skip this one.
		if !lock.TryLock() {
			s.logger.Warn("job still running, skipping tick", "job", name)
			return
		}
		defer lock.Unlock()

		s.logger.Debug("job started", "job", name)
		if err := run(s.ctx); err != nil {
			s.logger.Error("job failed", "job", name, "error", err)
		} else {
			s.logger.Debug("job completed", "job", name)
		}
	}
}

// Stop gracefully shuts down the scheduler, waiting for in-flight jobs.
// The mutex is released before waiting: an in-flight job may be inside
// SetDynamic, which needs it.
func (s *Scheduler) Stop(_ context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	c := s.cron
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if c != nil {
		// Wait for running jobs to complete.
		<-c.Stop().Done()
		s.logger.Info("scheduler stopped")
	}
	return nil
}
