package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestRun_PrintsErrorOnStderr(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "missing.yaml")

	var stderr bytes.Buffer
	code := run([]string{"--config", missing}, &stderr)

	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	out := stderr.String()
	if !strings.HasPrefix(out, "Error:") {
		t.Errorf("stderr = %q, want an Error: line", out)
	}
	if !strings.Contains(out, missing) {
		t.Errorf("stderr should name the failing path: %q", out)
	}
}

func TestRun_SubcommandErrorIsReported(t *testing.T) {
	t.Parallel()

	var stderr bytes.Buffer
	code := run([]string{"config", "check", filepath.Join(t.TempDir(), "nope.yaml")}, &stderr)

	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if stderr.Len() == 0 {
		t.Error("failure produced no diagnostic output")
	}
}

func TestRun_VersionSucceedsQuietly(t *testing.T) {
	t.Parallel()

	var stderr bytes.Buffer
	if code := run([]string{"version"}, &stderr); code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if stderr.Len() != 0 {
		t.Errorf("unexpected stderr: %q", stderr.String())
	}
}
