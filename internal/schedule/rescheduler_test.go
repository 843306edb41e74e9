package schedule

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

// fakeScheduler is an in-memory crontab.Scheduler.
type fakeScheduler struct {
	table      []string
	exportErr  error
	installErr error
	installs   int
}

func (f *fakeScheduler) Export(_ context.Context) ([]string, error) {
	if f.exportErr != nil {
		return nil, f.exportErr
	}
	return slices.Clone(f.table), nil
}

func (f *fakeScheduler) Install(_ context.Context, lines []string) error {
	if f.installErr != nil {
		return f.installErr
	}
	f.installs++
	f.table = slices.Clone(lines)
	return nil
}

var fixedNow = func() time.Time {
	return time.Date(2026, 8, 30, 9, 15, 0, 0, time.UTC)
}

func newTestRescheduler(t *testing.T, sched *fakeScheduler, weights []int) *Rescheduler {
	t.Helper()
	return NewRescheduler(ReschedulerConfig{
		Marker:    NewMarker(filepath.Join(t.TempDir(), "marker.txt")),
		Scheduler: sched,
		Rng:       testRng(42),
		Weights:   weights,
		Hours:     []int{0, 1, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23},
		Entry:     testEntry,
		Logger:    slog.Default(),
		Now:       fixedNow,
	})
}

func TestRescheduler_ReplacesOwnedKeepsForeign(t *testing.T) {
	t.Parallel()

	foreign := []string{
		"MAILTO=ops@example.com",
		"1 0 * * * /usr/local/bin/fancyjob --schedule",
		"0 10 * * * /usr/bin/backup",
	}
	sched := &fakeScheduler{table: append(slices.Clone(foreign),
		"9 9 * * * cd /old && /usr/local/bin/fancyjob >> old.log 2>&1 # [fancyjob]",
	)}

	r := newTestRescheduler(t, sched, []int{0, 0, 0, 1}) // always 3 runs

	plan, err := r.Reschedule(context.Background())
	if err != nil {
		t.Fatalf("Reschedule() failed: %v", err)
	}
	if plan == nil || plan.RunCount != 3 {
		t.Fatalf("plan = %+v, want 3 runs", plan)
	}

	// Foreign lines first, byte-for-byte, in original order.
	if !slices.Equal(sched.table[:len(foreign)], foreign) {
		t.Errorf("foreign lines disturbed:\n%s", strings.Join(sched.table, "\n"))
	}

	generated := sched.table[len(foreign):]
	if len(generated) != 3 {
		t.Fatalf("got %d generated lines, want 3", len(generated))
	}
	for _, line := range generated {
		if !strings.Contains(line, "# [fancyjob]") {
			t.Errorf("generated line missing ownership tag: %q", line)
		}
		if strings.Contains(line, "/old") {
			t.Errorf("stale owned line survived: %q", line)
		}
	}
}

func TestRescheduler_SecondCallSameDayIsNoOp(t *testing.T) {
	t.Parallel()

	sched := &fakeScheduler{}
	r := newTestRescheduler(t, sched, []int{0, 1}) // always 1 run

	if _, err := r.Reschedule(context.Background()); err != nil {
		t.Fatalf("first Reschedule() failed: %v", err)
	}
	before := slices.Clone(sched.table)

	plan, err := r.Reschedule(context.Background())
	if err != nil {
		t.Fatalf("second Reschedule() failed: %v", err)
	}
	if plan != nil {
		t.Error("second call should return nil plan")
	}
	if sched.installs != 1 {
		t.Errorf("installs = %d, want 1", sched.installs)
	}
	if !slices.Equal(sched.table, before) {
		t.Error("second call changed the table")
	}
}

func TestRescheduler_ZeroRunDay(t *testing.T) {
	t.Parallel()

	sched := &fakeScheduler{table: []string{"0 10 * * * /usr/bin/backup"}}
	r := newTestRescheduler(t, sched, []int{1}) // always 0 runs

	plan, err := r.Reschedule(context.Background())
	if err != nil {
		t.Fatalf("Reschedule() failed: %v", err)
	}
	if plan.RunCount != 0 {
		t.Fatalf("run count = %d, want 0", plan.RunCount)
	}

	if !slices.Equal(sched.table, []string{"0 10 * * * /usr/bin/backup"}) {
		t.Errorf("zero-run day should install only kept lines, got %v", sched.table)
	}

	// Marker must still advance so the day is not re-drawn.
	if !r.marker.Is("2026-08-30") {
		t.Error("marker not written on zero-run day")
	}
}

func TestRescheduler_ExportFailureMeansEmptyTable(t *testing.T) {
	t.Parallel()

	sched := &fakeScheduler{exportErr: errors.New("no crontab for user")}
	r := newTestRescheduler(t, sched, []int{0, 0, 1}) // always 2 runs

	plan, err := r.Reschedule(context.Background())
	if err != nil {
		t.Fatalf("Reschedule() failed: %v", err)
	}
	if plan.RunCount != 2 {
		t.Fatalf("run count = %d, want 2", plan.RunCount)
	}
	if len(sched.table) != 2 {
		t.Errorf("table = %v, want exactly the 2 generated lines", sched.table)
	}
}

func TestRescheduler_InstallFailureLeavesMarkerUnset(t *testing.T) {
	t.Parallel()

	sched := &fakeScheduler{installErr: errors.New("crontab: command not found")}
	r := newTestRescheduler(t, sched, []int{0, 1})

	if _, err := r.Reschedule(context.Background()); err == nil {
		t.Fatal("expected install error")
	}
	if r.marker.Is("2026-08-30") {
		t.Error("marker must not be written when install fails")
	}
}
