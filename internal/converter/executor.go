package converter

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// Result holds the outcome of a single converter invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int // -1 when the process never started or was killed.
	Duration time.Duration
	Err      error
}

// OK reports whether the converter exited with status zero.
func (r Result) OK() bool { return r.Err == nil && r.ExitCode == 0 }

// Executor runs converter invocations. Implementations must be safe for
// concurrent use.
type Executor interface {
	Execute(ctx context.Context, inv Invocation) Result
}

// ProcessExecutor runs the converter as a child process. Stdout and stderr
// are captured in full and never streamed. No timeout is applied beyond
// what ctx carries.
type ProcessExecutor struct{}

// Execute runs inv and blocks until the process exits.
func (ProcessExecutor) Execute(ctx context.Context, inv Invocation) Result {
	cmd := exec.CommandContext(ctx, inv.Path, inv.Args...)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		Duration: time.Since(start),
		Err:      err,
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		res.ExitCode = 0
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		res.ExitCode = -1
	}
	return res
}
