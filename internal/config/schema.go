// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for fancyjob.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	Counter  CounterConfig  `yaml:"counter"`
	Git      GitConfig      `yaml:"git"`
	Commit   CommitConfig   `yaml:"commit"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Daemon   DaemonConfig   `yaml:"daemon"`
	History  HistoryConfig  `yaml:"history"`
}

// CounterConfig locates the persistent counter file.
type CounterConfig struct {
	// Path is the plain-text file holding the decimal counter.
	Path string `yaml:"path"`
}

// GitConfig controls the commit/push collaborator.
type GitConfig struct {
	// Dir is the working directory of the git repository.
	Dir string `yaml:"dir"`

	// Remote is passed to `git push` when set. Empty uses the
	// repository's default upstream.
	Remote string `yaml:"remote"`

	// PushTimeout bounds how long a push may block.
	PushTimeout Duration `yaml:"push_timeout"`
}

// CommitConfig selects how commit messages are produced.
type CommitConfig struct {
	// LLM configures the OpenAI-compatible endpoint used when the
	// FANCYJOB_USE_LLM environment variable is present. May be nil
	// when LLM messages are never requested.
	LLM *LLMConfig `yaml:"llm"`
}

// LLMConfig holds the connection and sampling parameters for the
// commit-message generator.
type LLMConfig struct {
	BaseURL     string   `yaml:"base_url"`
	APIKey      string   `yaml:"api_key"`
	APIKeyEnv   string   `yaml:"api_key_env"`
	Model       string   `yaml:"model"`
	MaxTokens   int      `yaml:"max_tokens"`
	Temperature *float64 `yaml:"temperature"`
	TopK        int      `yaml:"top_k"`
	TopP        *float64 `yaml:"top_p"`
	Samples     int      `yaml:"samples"`
	Timeout     Duration `yaml:"timeout"`
}

// ScheduleConfig controls the daily self-rescheduling algorithm.
type ScheduleConfig struct {
	// Weights is the unnormalized categorical distribution over run
	// counts: index i carries the weight of scheduling i runs per day.
	Weights []int `yaml:"weights"`

	// QuietHours excludes an inclusive hour window from the candidate
	// hours. Nil defaults to 02:00–05:59.
	QuietHours *QuietHoursConfig `yaml:"quiet_hours"`

	// Tag is the ownership marker appended to generated crontab lines.
	// Lines containing it are dropped and regenerated each day; all
	// other lines are preserved untouched.
	Tag string `yaml:"tag"`

	// MarkerPath is the file recording the last date a reschedule ran.
	MarkerPath string `yaml:"marker_path"`

	// LogPath is the redirect target for the output of scheduled runs.
	LogPath string `yaml:"log_path"`

	// Command is the invocation placed in generated crontab lines.
	// Empty defaults to the resolved path of the running executable.
	Command string `yaml:"command"`

	// AfterUpdate also reschedules at the end of every update run
	// instead of relying solely on anchor entries.
	AfterUpdate bool `yaml:"after_update"`

	// Anchors are cron specs at which daemon mode re-draws the day's
	// plan. Defaults to the four fixed anchor times.
	Anchors []string `yaml:"anchors"`
}

// QuietHoursConfig is an inclusive [Start, End] hour window excluded from
// scheduling. Set Disabled to allow the full 0–23 range.
type QuietHoursConfig struct {
	Disabled bool `yaml:"disabled"`
	Start    int  `yaml:"start"`
	End      int  `yaml:"end"`
}

// DaemonConfig controls the in-process scheduler mode.
type DaemonConfig struct {
	// Listen is the optional status HTTP address (e.g. "127.0.0.1:8978").
	// Empty disables the status server.
	Listen string `yaml:"listen"`
}

// HistoryConfig locates the run-history database.
type HistoryConfig struct {
	// Path is the SQLite database file. Empty defaults to the data
	// directory; the literal "off" disables history recording.
	Path string `yaml:"path"`
}

// DefaultWeights is the canonical run-count distribution. The alternative
// variant shipped [15, 25, 15, 10, 9, 8, 7, 5, 3, 3]; both are unnormalized.
var DefaultWeights = []int{13, 15, 17, 4, 11, 9, 8, 6, 5, 12}

// DefaultAnchors are the fixed re-planning times: shortly after midnight
// plus three daytime repeats so zero-run days still replan tomorrow.
var DefaultAnchors = []string{"1 0 * * *", "0 10 * * *", "0 15 * * *", "0 20 * * *"}

// applyDefaults fills unset fields with their documented defaults.
func (c *Config) applyDefaults() {
	if c.Counter.Path == "" {
		c.Counter.Path = "number.txt"
	}
	if c.Git.Dir == "" {
		c.Git.Dir = "."
	}
	if c.Git.PushTimeout == 0 {
		c.Git.PushTimeout = Duration(2 * time.Minute)
	}
	if len(c.Schedule.Weights) == 0 {
		c.Schedule.Weights = append([]int(nil), DefaultWeights...)
	}
	if c.Schedule.QuietHours == nil {
		c.Schedule.QuietHours = &QuietHoursConfig{Start: 2, End: 5}
	}
	if c.Schedule.Tag == "" {
		c.Schedule.Tag = "# [fancyjob]"
	}
	if c.Schedule.MarkerPath == "" {
		c.Schedule.MarkerPath = "cron_schedule_date.txt"
	}
	if c.Schedule.LogPath == "" {
		c.Schedule.LogPath = "cron_update.log"
	}
	if len(c.Schedule.Anchors) == 0 {
		c.Schedule.Anchors = append([]string(nil), DefaultAnchors...)
	}
	if c.Commit.LLM != nil {
		c.Commit.LLM.applyDefaults()
	}
}

func (l *LLMConfig) applyDefaults() {
	if l.MaxTokens == 0 {
		l.MaxTokens = 50
	}
	if l.Samples == 0 {
		l.Samples = 1
	}
	if l.Timeout == 0 {
		l.Timeout = Duration(30 * time.Second)
	}
}

// CandidateHours returns the hours eligible for scheduled runs in
// ascending order, honoring the quiet window.
func (s ScheduleConfig) CandidateHours() []int {
	quiet := s.QuietHours
	hours := make([]int, 0, 24)
	for h := range 24 {
		if quiet != nil && !quiet.Disabled && h >= quiet.Start && h <= quiet.End {
			continue
		}
		hours = append(hours, h)
	}
	return hours
}

// Duration is a time.Duration that unmarshals from YAML strings like "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("config: duration must be a string: %w", err)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }
