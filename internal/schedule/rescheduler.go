package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/flemzord/fancyjob/internal/crontab"
)

// Rescheduler performs the Unscheduled-Today → Scheduled-Today transition:
// at most once per calendar day it replaces all self-owned crontab entries
// with a fresh weighted-random plan.
type Rescheduler struct {
	marker    *Marker
	scheduler crontab.Scheduler
	rng       *rand.Rand
	weights   []int
	hours     []int
	entry     Entry
	logger    *slog.Logger
	now       func() time.Time
}

// ReschedulerConfig wires a Rescheduler.
type ReschedulerConfig struct {
	Marker    *Marker
	Scheduler crontab.Scheduler

	// Rng may be nil; a time-seeded source is used.
	Rng *rand.Rand

	Weights []int
	Hours   []int
	Entry   Entry
	Logger  *slog.Logger

	// Now may be nil; defaults to time.Now.
	Now func() time.Time
}

// NewRescheduler creates a Rescheduler.
func NewRescheduler(cfg ReschedulerConfig) *Rescheduler {
	if cfg.Rng == nil {
		cfg.Rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Rescheduler{
		marker:    cfg.Marker,
		scheduler: cfg.Scheduler,
		rng:       cfg.Rng,
		weights:   cfg.Weights,
		hours:     cfg.Hours,
		entry:     cfg.Entry,
		logger:    cfg.Logger,
		now:       cfg.Now,
	}
}

// Reschedule runs the daily regeneration. When today's marker is already
// present the call is a logged no-op returning a nil plan. Export failure
// is tolerated as an empty table; install and marker failures are not.
func (r *Rescheduler) Reschedule(ctx context.Context) (*Plan, error) {
	today := Day(r.now())

	if r.marker.Is(today) {
		r.logger.Info("already scheduled today, skipping", "day", today)
		return nil, nil
	}

	lines, err := r.scheduler.Export(ctx)
	if err != nil {
		r.logger.Warn("crontab export failed, assuming empty table", "error", err)
		lines = nil
	}

	kept, dropped := crontab.Partition(lines, r.entry.Tag)

	plan := NewPlan(r.rng, r.weights, r.hours)
	generated, err := plan.CrontabLines(r.entry)
	if err != nil {
		return nil, err
	}

	if err := r.scheduler.Install(ctx, append(kept, generated...)); err != nil {
		return nil, fmt.Errorf("schedule: installing table: %w", err)
	}

	if err := r.marker.Write(today); err != nil {
		return nil, err
	}

	r.logger.Info("scheduled random runs for today",
		"day", today,
		"runs", plan.RunCount,
		"times", timeStrings(plan.Times),
		"kept", len(kept),
		"dropped", len(dropped),
	)
	return &plan, nil
}

func timeStrings(times []Time) []string {
	out := make([]string, len(times))
	for i, t := range times {
		out[i] = t.String()
	}
	return out
}
