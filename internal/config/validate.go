package config

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/robfig/cron/v3"
)

// anchorParser accepts the standard five-field crontab format.
var anchorParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Validate checks the structural validity of a Config.
// All problems are collected and returned as a single joined error.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	if cfg.Counter.Path == "" {
		errs = append(errs, errors.New("config: counter.path is required"))
	}

	errs = append(errs, validateSchedule(cfg.Schedule)...)

	if cfg.Commit.LLM != nil {
		errs = append(errs, validateLLM(cfg.Commit.LLM)...)
	}

	return errors.Join(errs...)
}

func validateSchedule(s ScheduleConfig) []error {
	var errs []error

	if len(s.Weights) == 0 {
		errs = append(errs, errors.New("config: schedule.weights must not be empty"))
	}
	total := 0
	for i, w := range s.Weights {
		if w < 0 {
			errs = append(errs, fmt.Errorf("config: schedule.weights[%d] must not be negative", i))
			continue
		}
		total += w
	}
	if len(s.Weights) > 0 && total == 0 {
		errs = append(errs, errors.New("config: schedule.weights must contain at least one positive weight"))
	}

	if q := s.QuietHours; q != nil && !q.Disabled {
		if q.Start < 0 || q.Start > 23 || q.End < 0 || q.End > 23 {
			errs = append(errs, fmt.Errorf("config: schedule.quiet_hours must lie within 0–23, got %d–%d", q.Start, q.End))
		} else if q.Start > q.End {
			errs = append(errs, fmt.Errorf("config: schedule.quiet_hours start %d is after end %d", q.Start, q.End))
		}
	}
	if len(s.CandidateHours()) == 0 {
		errs = append(errs, errors.New("config: schedule.quiet_hours excludes every hour of the day"))
	}

	if s.Tag == "" {
		errs = append(errs, errors.New("config: schedule.tag is required"))
	}

	for i, spec := range s.Anchors {
		if _, err := anchorParser.Parse(spec); err != nil {
			errs = append(errs, fmt.Errorf("config: schedule.anchors[%d]: invalid cron spec %q: %w", i, spec, err))
		}
	}

	return errs
}

func validateLLM(l *LLMConfig) []error {
	var errs []error

	if l.BaseURL == "" {
		errs = append(errs, errors.New("config: commit.llm.base_url is required"))
	} else {
		u, err := url.Parse(l.BaseURL)
		if err != nil {
			errs = append(errs, fmt.Errorf("config: commit.llm.base_url is not a valid URL: %w", err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errs = append(errs, fmt.Errorf("config: commit.llm.base_url scheme must be http or https, got %q", u.Scheme))
		}
	}
	if l.Model == "" {
		errs = append(errs, errors.New("config: commit.llm.model is required"))
	}
	if l.APIKey == "" && l.APIKeyEnv == "" {
		errs = append(errs, errors.New("config: commit.llm requires one of api_key or api_key_env"))
	}
	if l.MaxTokens < 0 {
		errs = append(errs, errors.New("config: commit.llm.max_tokens must not be negative"))
	}
	if l.TopK < 0 {
		errs = append(errs, errors.New("config: commit.llm.top_k must not be negative"))
	}
	if l.Samples < 0 {
		errs = append(errs, errors.New("config: commit.llm.samples must not be negative"))
	}

	return errs
}
