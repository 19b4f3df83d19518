// Package process runs short-lived external commands bound to a context.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

var (
	ErrNotFound = errors.New("command not found")
	ErrTimeout  = errors.New("command timed out")
)

// waitDelay bounds how long output pipes are drained after the process is
// killed, in case it left children holding them open.
const waitDelay = 2 * time.Second

// ExitError reports a command that ran and exited with a non-zero status.
type ExitError struct {
	Command string
	Code    int
	Stderr  string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Command, e.Code)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Result is the captured output of a completed command.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	Duration time.Duration
}

// Run executes name with args and waits for it. The process is killed when
// ctx is done. A non-zero exit is returned as *ExitError alongside the
// captured output.
func Run(ctx context.Context, name string, args ...string) (*Result, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	start := time.Now()
	err := cmd.Run()
	res := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}

	if err == nil {
		return res, nil
	}

	if errors.Is(err, exec.ErrNotFound) {
		return res, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return res, fmt.Errorf("%w: %s after %s", ErrTimeout, name, res.Duration.Round(time.Millisecond))
		}
		return res, ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return res, &ExitError{
			Command: name,
			Code:    exitErr.ExitCode(),
			Stderr:  strings.TrimSpace(stderr.String()),
		}
	}
	return res, fmt.Errorf("run %s: %w", name, err)
}

// Available reports an error when name cannot be resolved on PATH.
func Available(name string) error {
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}
