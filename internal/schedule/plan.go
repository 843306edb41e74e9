package schedule

import (
	"fmt"
	"math/rand/v2"

	"github.com/robfig/cron/v3"
)

// specParser accepts the standard five-field crontab format. Every
// generated entry passes through it before install; a formatting bug
// must fail here rather than corrupt the user's crontab.
var specParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Plan is one day's worth of self-scheduled runs.
type Plan struct {
	// RunCount is the drawn number of runs. Zero is legal: no entries
	// are generated and pre-existing anchor entries carry the day.
	RunCount int

	// Times holds RunCount distinct run times, sorted ascending.
	Times []Time
}

// NewPlan draws a run count from weights and that many unique times from
// the candidate hours.
func NewPlan(rng *rand.Rand, weights []int, hours []int) Plan {
	n := DrawRunCount(rng, weights)
	return Plan{
		RunCount: n,
		Times:    DrawUniqueTimes(rng, n, hours),
	}
}

// Entry describes how generated crontab lines invoke the tool.
type Entry struct {
	// Dir is cd'd into before the command runs.
	Dir string

	// Command is the invocation string, typically the executable path.
	Command string

	// LogPath receives the redirected output of each run.
	LogPath string

	// Tag is the ownership marker appended to every generated line.
	Tag string
}

// CrontabLines renders the plan as crontab lines, one per run time, each
// validated against the crontab spec grammar.
func (p Plan) CrontabLines(entry Entry) ([]string, error) {
	if len(p.Times) == 0 {
		return nil, nil
	}

	lines := make([]string, 0, len(p.Times))
	for _, t := range p.Times {
		if _, err := specParser.Parse(t.CronSpec()); err != nil {
			return nil, fmt.Errorf("schedule: generated invalid cron spec %q: %w", t.CronSpec(), err)
		}
		lines = append(lines, fmt.Sprintf("%s cd %s && %s >> %s 2>&1 %s",
			t.CronSpec(), entry.Dir, entry.Command, entry.LogPath, entry.Tag))
	}
	return lines, nil
}

// CronSpecs returns the plan's times as five-field cron specs, for
// registration with an in-process scheduler.
func (p Plan) CronSpecs() []string {
	specs := make([]string, len(p.Times))
	for i, t := range p.Times {
		specs[i] = t.CronSpec()
	}
	return specs
}
