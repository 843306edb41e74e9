package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/flemzord/fancyjob/internal/history"
	"github.com/flemzord/fancyjob/internal/schedule"
)

// dynamicSet is the scheduler entry-set name holding the day's random runs.
const dynamicSet = "random-runs"

// Config wires a Daemon.
type Config struct {
	Logger *slog.Logger

	// Version is the build version shown in the startup log and /status.
	Version string

	// Anchors are cron specs at which the day's plan is re-drawn.
	Anchors []string

	// Weights and Hours parameterize the daily plan draw.
	Weights []int
	Hours   []int

	// Rng may be nil; a time-seeded source is used.
	Rng *rand.Rand

	// Update performs one counter update (increment, commit, push).
	Update func(ctx context.Context) error

	// History may be nil to disable run recording.
	History *history.Store

	// Listen is the optional status HTTP address. Empty disables it.
	Listen string

	// Now may be nil; defaults to time.Now.
	Now func() time.Time
}

// Daemon is the in-process alternative to crontab: it draws the same daily
// weighted-random plan and executes the update runs itself.
type Daemon struct {
	logger  *slog.Logger
	sched   *Scheduler
	metrics *Metrics
	cfg     Config

	mu         sync.Mutex
	rng        *rand.Rand
	plan       schedule.Plan
	plannedDay string
}

// New creates a Daemon.
func New(cfg Config) *Daemon {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Rng == nil {
		cfg.Rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Daemon{
		logger:  cfg.Logger,
		sched:   NewScheduler(cfg.Logger),
		metrics: &Metrics{},
		cfg:     cfg,
		rng:     cfg.Rng,
	}
}

// anchorJob re-draws the plan at a fixed time of day.
type anchorJob struct {
	spec string
	d    *Daemon
}

func (j anchorJob) Name() string                  { return "replan@" + j.spec }
func (j anchorJob) Schedule() string              { return j.spec }
func (j anchorJob) Run(ctx context.Context) error { return j.d.replan(ctx, false) }

// Run starts the scheduler, draws an initial plan, and blocks until the
// context is canceled. In-memory plan entries do not survive a restart,
// so the startup replan is unconditional.
func (d *Daemon) Run(ctx context.Context) error {
	d.logger.Info("daemon starting", "version", d.cfg.Version, "anchors", len(d.cfg.Anchors))

	for _, spec := range d.cfg.Anchors {
		if err := d.sched.RegisterJob(anchorJob{spec: spec, d: d}); err != nil {
			return err
		}
	}

	if err := d.sched.Start(); err != nil {
		return err
	}

	if err := d.replan(ctx, true); err != nil {
		d.logger.Error("initial plan failed", "error", err)
	}

	var srv *http.Server
	if d.cfg.Listen != "" {
		srv = d.statusServer(d.cfg.Listen)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				d.logger.Error("status server failed", "error", err)
			}
		}()
		d.logger.Info("status server listening", "addr", d.cfg.Listen)
	}

	<-ctx.Done()

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
	return d.sched.Stop(context.Background())
}

// replan swaps the dynamic run entries for a fresh daily plan. Anchor
// ticks are per-day idempotent; force bypasses the day guard on startup.
// The whole check-draw-install sequence runs under the mutex: anchor jobs
// carry distinct names, so two near-simultaneous ticks would otherwise
// both pass the day guard and double-draw the plan.
func (d *Daemon) replan(ctx context.Context, force bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	today := schedule.Day(d.cfg.Now())
	if !force && d.plannedDay == today {
		d.logger.Info("already planned today, skipping", "day", today)
		return nil
	}

	plan := schedule.NewPlan(d.rng, d.cfg.Weights, d.cfg.Hours)
	if err := d.sched.SetDynamic(dynamicSet, plan.CronSpecs(), d.runUpdate); err != nil {
		return fmt.Errorf("daemon: installing plan: %w", err)
	}

	d.plan = plan
	d.plannedDay = today

	d.metrics.RecordReplan()
	d.record(ctx, history.Run{Kind: history.KindReschedule, RunCount: plan.RunCount})

	d.logger.Info("planned random runs for today",
		"day", today,
		"runs", plan.RunCount,
		"times", planTimes(plan),
	)
	return nil
}

func (d *Daemon) runUpdate(ctx context.Context) error {
	err := d.cfg.Update(ctx)
	d.metrics.RecordUpdate(err)
	return err
}

// record writes a history row, best-effort.
func (d *Daemon) record(ctx context.Context, run history.Run) {
	if d.cfg.History == nil {
		return
	}
	if err := d.cfg.History.Record(ctx, run); err != nil {
		d.logger.Warn("recording run failed", "error", err)
	}
}

// Metrics exposes the daemon counters (used by the update flow to report
// push failures).
func (d *Daemon) Metrics() *Metrics {
	return d.metrics
}

func planTimes(plan schedule.Plan) []string {
	out := make([]string, len(plan.Times))
	for i, t := range plan.Times {
		out[i] = t.String()
	}
	return out
}
