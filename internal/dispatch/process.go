package dispatch

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/xdg/execpipe/internal/request"
)

// ProcessDispatcher runs each command as a child process and waits for it.
type ProcessDispatcher struct {
	timeout    time.Duration
	inheritEnv bool
	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
}

// Option configures a ProcessDispatcher.
type Option func(*ProcessDispatcher)

// WithTimeout kills commands still running after d. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(p *ProcessDispatcher) {
		p.timeout = d
	}
}

// WithInheritEnv prefixes each command's environment with the server's own.
// Entries from the request take precedence.
func WithInheritEnv(inherit bool) Option {
	return func(p *ProcessDispatcher) {
		p.inheritEnv = inherit
	}
}

// WithStdio sets the child's standard streams. A nil reader or writer
// connects the stream to the null device.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(p *ProcessDispatcher) {
		p.stdin = stdin
		p.stdout = stdout
		p.stderr = stderr
	}
}

// NewProcessDispatcher creates a ProcessDispatcher. By default children
// share the server's stdout and stderr and get an empty stdin.
func NewProcessDispatcher(opts ...Option) *ProcessDispatcher {
	p := &ProcessDispatcher{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Dispatch runs cmd and returns its outcome.
func (p *ProcessDispatcher) Dispatch(ctx context.Context, cmd *request.CommandRequest) Result {
	if err := validateExecStrings(cmd); err != nil {
		return Result{Status: StatusError, ExitCode: -1, Error: err.Error()}
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	c := exec.CommandContext(ctx, cmd.Path)
	if len(cmd.Argv) > 0 {
		c.Args = cmd.Argv
	}
	c.Env = p.environ(cmd.Envp)
	c.Stdin = p.stdin
	c.Stdout = p.stdout
	c.Stderr = p.stderr

	err := c.Run()
	if err == nil {
		return Result{Status: StatusCompleted}
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		status := StatusTimeout
		msg := "command timed out"
		if errors.Is(ctxErr, context.Canceled) {
			status = StatusError
			msg = "command canceled"
		}
		return Result{Status: status, ExitCode: -1, Error: msg}
	}

	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return Result{Status: StatusError, ExitCode: -1, Error: "executable not found: " + cmd.Path}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return Result{Status: StatusCompleted, ExitCode: exitErr.ExitCode()}
	}

	return Result{Status: StatusError, ExitCode: -1, Error: err.Error()}
}

// environ returns the child environment. The result is never nil, so a
// request with no entries runs with an empty environment.
func (p *ProcessDispatcher) environ(envp []string) []string {
	var env []string
	if p.inheritEnv {
		env = os.Environ()
	}
	return append(append(make([]string, 0, len(env)+len(envp)), env...), envp...)
}
