package crontab

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Scheduler exports and installs the OS-level task table. Production code
// uses SystemCrontab; tests inject a fake.
type Scheduler interface {
	// Export returns the current table lines. Callers treat failure as
	// an empty table rather than aborting.
	Export(ctx context.Context) ([]string, error)

	// Install replaces the whole table with the given lines.
	Install(ctx context.Context, lines []string) error
}

// SystemCrontab drives the crontab CLI.
type SystemCrontab struct {
	// Binary overrides the crontab executable. Empty means "crontab".
	Binary string
}

var _ Scheduler = SystemCrontab{}

func (s SystemCrontab) binary() string {
	if s.Binary != "" {
		return s.Binary
	}
	return "crontab"
}

// Export implements Scheduler via `crontab -l`. A user with no crontab
// yields an error; callers fall back to an empty table.
func (s SystemCrontab) Export(ctx context.Context) ([]string, error) {
	cmd := exec.CommandContext(ctx, s.binary(), "-l")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("crontab: export: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}
	return Parse(stdout.String()), nil
}

// Install implements Scheduler. The table is written to a temporary file,
// fed to `crontab <file>`, and the file is removed afterwards.
func (s SystemCrontab) Install(ctx context.Context, lines []string) error {
	tmp, err := os.CreateTemp("", "fancyjob-cron-*")
	if err != nil {
		return fmt.Errorf("crontab: creating temp table: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	_, writeErr := tmp.WriteString(Render(lines))
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		return fmt.Errorf("crontab: writing temp table: %w", errors.Join(writeErr, closeErr))
	}

	cmd := exec.CommandContext(ctx, s.binary(), tmpName)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("crontab: install: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
