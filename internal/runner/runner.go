// Package runner executes the external programs the dataset tools drive:
// Blender for rendering, the ultralytics CLI and Python training scripts.
//
// Commands are built as plain values so callers and tests can inspect the
// argument vector before anything runs. Run keeps the tail of the child's
// stderr and attaches it to the returned error, since that is where Python
// tracebacks end up.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

// stderrTail is how much of the child's stderr is kept for error reports.
const stderrTail = 8 << 10

// waitDelay bounds how long Run waits for output pipes after the child is
// killed.
const waitDelay = 2 * time.Second

// Command is an external program invocation.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory; empty means the current one.
	Dir string
	// Env is appended to the inherited environment.
	Env []string

	// Stdout and Stderr receive the child's output as it runs. Nil discards
	// stdout; stderr is always captured for the error report.
	Stdout io.Writer
	Stderr io.Writer
}

// New returns a command for name with args.
func New(name string, args ...string) *Command {
	return &Command{Name: name, Args: args}
}

// String renders the command line for logs, quoting arguments with spaces.
func (c *Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	for _, a := range append([]string{c.Name}, c.Args...) {
		if a == "" || strings.ContainsAny(a, " \t\"'") {
			a = fmt.Sprintf("%q", a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// ExitError reports a command that could not start or exited unsuccessfully.
type ExitError struct {
	Command string
	Err     error
	// Stderr is the last part of what the command wrote to stderr.
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%s: %v\n%s", e.Command, e.Err, e.Stderr)
}

func (e *ExitError) Unwrap() error { return e.Err }

// ErrNotFound is returned when the program is not on PATH.
var ErrNotFound = errors.New("executable not found")

// Run starts the command and waits for it. Cancelling ctx kills the child.
func (c *Command) Run(ctx context.Context) error {
	path, err := exec.LookPath(c.Name)
	if err != nil {
		return &ExitError{Command: c.String(), Err: fmt.Errorf("%w: %s", ErrNotFound, c.Name)}
	}

	cmd := exec.CommandContext(ctx, path, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(cmd.Environ(), c.Env...)
	}

	tail := &tailBuffer{limit: stderrTail}
	cmd.Stderr = tail
	if c.Stderr != nil {
		cmd.Stderr = io.MultiWriter(tail, c.Stderr)
	}
	cmd.Stdout = c.Stdout
	cmd.WaitDelay = waitDelay

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return &ExitError{Command: c.String(), Err: err, Stderr: strings.TrimSpace(tail.String())}
	}
	return nil
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	buf   bytes.Buffer
	limit int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if len(p) >= t.limit {
		t.buf.Reset()
		t.buf.Write(p[len(p)-t.limit:])
		return n, nil
	}
	if over := t.buf.Len() + len(p) - t.limit; over > 0 {
		t.buf.Next(over)
	}
	t.buf.Write(p)
	return n, nil
}

func (t *tailBuffer) String() string { return t.buf.String() }
