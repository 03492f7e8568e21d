package adb

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// Output is what a finished process produced.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes a program. A non-zero exit is reported through
// Output.ExitCode with a nil error; the error is reserved for processes that
// could not be started or were stopped by ctx.
type Runner interface {
	Run(ctx context.Context, name string, args []string) (Output, error)
}

// ExecRunner runs programs on the local host.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, name string, args []string) (Output, error) {
	var stdout, stderr bytes.Buffer

	// #nosec G204 -- name is the configured adb binary
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := Output{Stdout: stdout.String(), Stderr: stderr.String()}

	if ctx.Err() != nil {
		return out, ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	}
	return out, err
}
