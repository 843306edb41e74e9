// Package schedule implements the daily self-rescheduling algorithm: a
// weighted-random run count, a set of unique random run times, and the
// once-per-day regeneration of the self-owned crontab entries.
package schedule

import (
	"fmt"
	"math/rand/v2"
	"slices"
)

// Time is one (hour, minute) run time.
type Time struct {
	Hour   int
	Minute int
}

// CronSpec renders the standard five-field crontab spec for this time.
func (t Time) CronSpec() string {
	return fmt.Sprintf("%d %d * * *", t.Minute, t.Hour)
}

func (t Time) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// compare orders times by (hour, minute) ascending.
func compare(a, b Time) int {
	if a.Hour != b.Hour {
		return a.Hour - b.Hour
	}
	return a.Minute - b.Minute
}

// DrawRunCount draws an index from the unnormalized categorical
// distribution: index i is returned with probability weights[i]/sum.
// A non-positive total yields 0.
func DrawRunCount(rng *rand.Rand, weights []int) int {
	total := 0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return 0
	}

	target := rng.IntN(total)
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		if target < w {
			return i
		}
		target -= w
	}
	return len(weights) - 1
}

// DrawUniqueTimes draws n distinct run times, hours uniform over the given
// candidate slice and minutes uniform over [0,59], by rejection sampling
// into a set. The result is sorted ascending. n is capped at the number of
// distinct times the candidate hours can express.
func DrawUniqueTimes(rng *rand.Rand, n int, hours []int) []Time {
	if n <= 0 || len(hours) == 0 {
		return nil
	}
	if limit := len(hours) * 60; n > limit {
		n = limit
	}

	seen := make(map[Time]struct{}, n)
	for len(seen) < n {
		t := Time{
			Hour:   hours[rng.IntN(len(hours))],
			Minute: rng.IntN(60),
		}
		seen[t] = struct{}{}
	}

	times := make([]Time, 0, n)
	for t := range seen {
		times = append(times, t)
	}
	slices.SortFunc(times, compare)
	return times
}
