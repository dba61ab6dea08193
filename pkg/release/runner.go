// Package release implements the version bump → changelog → commit/tag → push
// sequence behind `tool release`, plus the version handling the packaging and
// image builds rely on. Every external process runs through CommandRunner so
// the ordering rules can be tested without touching a real repository.
package release

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/rotisserie/eris"
)

// CommandRunner runs external commands. The pipeline is fail-fast: callers
// stop at the first error and never retry.
type CommandRunner interface {
	// Run executes the command, streaming its output to the operator.
	Run(ctx context.Context, name string, args ...string) error
	// RunEnv behaves like Run with additional environment entries that only
	// exist for this invocation.
	RunEnv(ctx context.Context, extraEnv []string, name string, args ...string) error
	// Output executes the command and captures its stdout.
	Output(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner runs commands in the given directory with the given extra
// environment entries.
type ExecRunner struct {
	Dir string
	Env []string
}

func (r *ExecRunner) command(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}
	return cmd
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	return r.RunEnv(ctx, nil, name, args...)
}

func (r *ExecRunner) RunEnv(ctx context.Context, extraEnv []string, name string, args ...string) error {
	cmd := r.command(ctx, name, args...)
	if len(extraEnv) > 0 {
		if cmd.Env == nil {
			cmd.Env = os.Environ()
		}
		cmd.Env = append(cmd.Env, extraEnv...)
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err != nil {
		return eris.Wrapf(err, "%s %s failed", name, strings.Join(args, " "))
	}
	return nil
}

func (r *ExecRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	cmd := r.command(ctx, name, args...)
	cmd.Stderr = os.Stderr

	out, err := cmd.Output()
	if err != nil {
		return "", eris.Wrapf(err, "%s %s failed", name, strings.Join(args, " "))
	}
	return strings.TrimRight(string(out), "\r\n"), nil
}
