// Package gitrepo stages, commits, and pushes the counter file by shelling
// out to the git CLI.
package gitrepo

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes a git subcommand in a working directory and returns its
// captured stdout and stderr. Production code uses the exec-backed
// implementation; tests inject a fake.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) (stdout, stderr string, err error)
}

// ExecRunner runs git via os/exec.
type ExecRunner struct{}

var _ Runner = ExecRunner{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, dir string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		err = fmt.Errorf("gitrepo: git %s: %w", strings.Join(args, " "), err)
	}
	return stdout.String(), stderr.String(), err
}

// Repo wraps the commit/push operations against one repository.
type Repo struct {
	dir    string
	remote string
	runner Runner
}

// New returns a Repo operating on dir. remote may be empty to use the
// repository's default upstream. A nil runner defaults to ExecRunner.
func New(dir, remote string, runner Runner) *Repo {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Repo{dir: dir, remote: remote, runner: runner}
}

// Stage adds the given path to the index.
func (r *Repo) Stage(ctx context.Context, path string) error {
	_, stderr, err := r.runner.Run(ctx, r.dir, "add", path)
	if err != nil {
		return fmt.Errorf("gitrepo: staging %s: %w (%s)", path, err, strings.TrimSpace(stderr))
	}
	return nil
}

// Commit records the staged changes with the given message.
func (r *Repo) Commit(ctx context.Context, message string) error {
	_, stderr, err := r.runner.Run(ctx, r.dir, "commit", "-m", message)
	if err != nil {
		return fmt.Errorf("gitrepo: commit: %w (%s)", err, strings.TrimSpace(stderr))
	}
	return nil
}

// Push sends committed changes to the remote. Callers treat a push
// failure as non-fatal: log the diagnostics and carry on.
func (r *Repo) Push(ctx context.Context) error {
	args := []string{"push"}
	if r.remote != "" {
		args = append(args, r.remote)
	}

	_, stderr, err := r.runner.Run(ctx, r.dir, args...)
	if err != nil {
		return fmt.Errorf("gitrepo: push: %w (%s)", err, strings.TrimSpace(stderr))
	}
	return nil
}
