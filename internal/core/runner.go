package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Runner executes host commands. The single seam between the reconcilers and
// the operating system, so tests can substitute a recording fake and assert
// that an already-converged host sees zero mutating commands.
type Runner interface {
	// Run executes a command, streaming its output to the runner's writers.
	Run(ctx context.Context, name string, args ...string) error
	// Output executes a command and returns its combined stdout.
	Output(ctx context.Context, name string, args ...string) (string, error)
	// LookPath resolves a binary on PATH.
	LookPath(name string) (string, error)
}

// ExecRunner runs commands through os/exec.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner creates an ExecRunner wired to the process stdio.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Stdout: os.Stdout, Stderr: os.Stderr}
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running %s: %w", commandLine(name, args), err)
	}
	return nil
}

func (r *ExecRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = r.Stderr
	out, err := cmd.Output()
	if err != nil {
		return string(out), fmt.Errorf("running %s: %w", commandLine(name, args), err)
	}
	return string(out), nil
}

func (r *ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func commandLine(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}
