package schedule

import (
	"math/rand/v2"
	"slices"
	"testing"
)

func testRng(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0))
}

func TestDrawRunCount_WithinRange(t *testing.T) {
	t.Parallel()

	weights := []int{13, 15, 17, 4, 11, 9, 8, 6, 5, 12}
	rng := testRng(1)

	for range 1000 {
		n := DrawRunCount(rng, weights)
		if n < 0 || n >= len(weights) {
			t.Fatalf("DrawRunCount() = %d, out of [0,%d)", n, len(weights))
		}
	}
}

func TestDrawRunCount_ZeroWeightNeverDrawn(t *testing.T) {
	t.Parallel()

	weights := []int{0, 10, 0, 10, 0}
	rng := testRng(2)

	for range 1000 {
		n := DrawRunCount(rng, weights)
		if n != 1 && n != 3 {
			t.Fatalf("DrawRunCount() = %d, drew a zero-weight index", n)
		}
	}
}

func TestDrawRunCount_DegenerateDistributions(t *testing.T) {
	t.Parallel()

	rng := testRng(3)

	if n := DrawRunCount(rng, []int{0, 0, 0}); n != 0 {
		t.Errorf("all-zero weights should yield 0, got %d", n)
	}
	if n := DrawRunCount(rng, nil); n != 0 {
		t.Errorf("empty weights should yield 0, got %d", n)
	}
	if n := DrawRunCount(rng, []int{0, 0, 7}); n != 2 {
		t.Errorf("single positive weight should always win, got %d", n)
	}
}

func TestDrawRunCount_RoughProportions(t *testing.T) {
	t.Parallel()

	// With weights 1:3, index 1 should land near 75% of draws.
	rng := testRng(4)
	hits := 0
	const draws = 10000
	for range draws {
		if DrawRunCount(rng, []int{1, 3}) == 1 {
			hits++
		}
	}
	ratio := float64(hits) / draws
	if ratio < 0.70 || ratio > 0.80 {
		t.Errorf("index 1 drawn %.3f of the time, want ~0.75", ratio)
	}
}

func TestDrawUniqueTimes(t *testing.T) {
	t.Parallel()

	hours := []int{0, 1, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23}
	rng := testRng(5)

	times := DrawUniqueTimes(rng, 8, hours)
	if len(times) != 8 {
		t.Fatalf("got %d times, want 8", len(times))
	}

	seen := make(map[Time]struct{})
	for _, tm := range times {
		if _, dup := seen[tm]; dup {
			t.Errorf("duplicate time %v", tm)
		}
		seen[tm] = struct{}{}

		if tm.Minute < 0 || tm.Minute > 59 {
			t.Errorf("minute %d out of range", tm.Minute)
		}
		if !slices.Contains(hours, tm.Hour) {
			t.Errorf("hour %d not in candidate set", tm.Hour)
		}
	}

	if !slices.IsSortedFunc(times, compare) {
		t.Errorf("times not sorted: %v", times)
	}
}

func TestDrawUniqueTimes_QuietWindowRespected(t *testing.T) {
	t.Parallel()

	hours := []int{0, 1, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23}
	rng := testRng(6)

	for _, tm := range DrawUniqueTimes(rng, 50, hours) {
		if tm.Hour >= 2 && tm.Hour <= 5 {
			t.Errorf("drew time %v inside quiet window", tm)
		}
	}
}

func TestDrawUniqueTimes_ZeroAndCap(t *testing.T) {
	t.Parallel()

	rng := testRng(7)

	if got := DrawUniqueTimes(rng, 0, []int{10}); got != nil {
		t.Errorf("n=0 should yield nil, got %v", got)
	}
	if got := DrawUniqueTimes(rng, 5, nil); got != nil {
		t.Errorf("no candidate hours should yield nil, got %v", got)
	}

	// One candidate hour can express at most 60 distinct times; asking
	// for more must terminate rather than spin forever.
	got := DrawUniqueTimes(rng, 100, []int{10})
	if len(got) != 60 {
		t.Errorf("capped draw = %d times, want 60", len(got))
	}
}

func TestTime_CronSpec(t *testing.T) {
	t.Parallel()

	if got := (Time{Hour: 7, Minute: 12}).CronSpec(); got != "12 7 * * *" {
		t.Errorf("CronSpec() = %q", got)
	}
	if got := (Time{Hour: 0, Minute: 0}).CronSpec(); got != "0 0 * * *" {
		t.Errorf("CronSpec() = %q", got)
	}
}
