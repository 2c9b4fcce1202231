package dispatch

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/xdg/execpipe/internal/request"
)

// TestProcessDispatcherInterface verifies ProcessDispatcher implements Dispatcher.
func TestProcessDispatcherInterface(_ *testing.T) {
	var _ Dispatcher = &ProcessDispatcher{}
	var _ Dispatcher = NewProcessDispatcher()
}

func newCapturing(opts ...Option) (*ProcessDispatcher, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	opts = append([]Option{WithStdio(nil, &stdout, &stderr)}, opts...)
	return NewProcessDispatcher(opts...), &stdout, &stderr
}

// TestProcessDispatcherEcho verifies argv is passed through, argv[0] included.
func TestProcessDispatcherEcho(t *testing.T) {
	d, stdout, _ := newCapturing()
	cmd := &request.CommandRequest{
		Path: "sh",
		Argv: []string{"custom-name", "-c", `echo "$0" "$1"`, "hello"},
	}

	res := d.Dispatch(context.Background(), cmd)

	if res.Status != StatusCompleted {
		t.Fatalf("Status: got %q, want %q (error %q)", res.Status, StatusCompleted, res.Error)
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode: got %d, want 0", res.ExitCode)
	}
	if got := strings.TrimSpace(stdout.String()); got != "custom-name hello" {
		t.Errorf("stdout: got %q, want %q", got, "custom-name hello")
	}
}

// TestProcessDispatcherEmptyArgv verifies the path is used as argv[0] when argv is empty.
func TestProcessDispatcherEmptyArgv(t *testing.T) {
	d, _, _ := newCapturing()
	res := d.Dispatch(context.Background(), &request.CommandRequest{Path: "true"})

	if res.Status != StatusCompleted || res.ExitCode != 0 {
		t.Errorf("got %+v, want completed with exit 0", res)
	}
}

// TestProcessDispatcherExactEnv verifies only the request's environment is passed.
func TestProcessDispatcherExactEnv(t *testing.T) {
	t.Setenv("EXECPIPE_HOST_ONLY", "leaked")

	d, stdout, _ := newCapturing()
	cmd := &request.CommandRequest{
		Path: "sh",
		Argv: []string{"sh", "-c", `echo "[$TEST_VAR][$EXECPIPE_HOST_ONLY]"`},
		Envp: []string{"TEST_VAR=test_value_12345"},
	}

	res := d.Dispatch(context.Background(), cmd)

	if res.Status != StatusCompleted {
		t.Fatalf("Status: got %q, want %q (error %q)", res.Status, StatusCompleted, res.Error)
	}
	if got := strings.TrimSpace(stdout.String()); got != "[test_value_12345][]" {
		t.Errorf("stdout: got %q, want %q", got, "[test_value_12345][]")
	}
}

// TestProcessDispatcherInheritEnv verifies host variables are inherited and
// request entries take precedence.
func TestProcessDispatcherInheritEnv(t *testing.T) {
	t.Setenv("EXECPIPE_HOST_ONLY", "host")
	t.Setenv("EXECPIPE_OVERRIDE", "host")

	d, stdout, _ := newCapturing(WithInheritEnv(true))
	cmd := &request.CommandRequest{
		Path: "sh",
		Argv: []string{"sh", "-c", `echo "$EXECPIPE_HOST_ONLY $EXECPIPE_OVERRIDE"`},
		Envp: []string{"EXECPIPE_OVERRIDE=request"},
	}

	res := d.Dispatch(context.Background(), cmd)

	if res.Status != StatusCompleted {
		t.Fatalf("Status: got %q, want %q (error %q)", res.Status, StatusCompleted, res.Error)
	}
	if got := strings.TrimSpace(stdout.String()); got != "host request" {
		t.Errorf("stdout: got %q, want %q", got, "host request")
	}
}

// TestProcessDispatcherExitCode verifies a non-zero exit is reported as completed.
func TestProcessDispatcherExitCode(t *testing.T) {
	d, _, stderr := newCapturing()
	cmd := &request.CommandRequest{
		Path: "sh",
		Argv: []string{"sh", "-c", "echo oops >&2; exit 3"},
	}

	res := d.Dispatch(context.Background(), cmd)

	if res.Status != StatusCompleted {
		t.Errorf("Status: got %q, want %q", res.Status, StatusCompleted)
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode: got %d, want 3", res.ExitCode)
	}
	if !strings.Contains(stderr.String(), "oops") {
		t.Errorf("stderr should contain 'oops', got: %q", stderr.String())
	}
}

// TestProcessDispatcherNonexistentCommand verifies error handling for missing executables.
func TestProcessDispatcherNonexistentCommand(t *testing.T) {
	d, _, _ := newCapturing()
	res := d.Dispatch(context.Background(), &request.CommandRequest{
		Path: "this-command-definitely-does-not-exist-anywhere",
	})

	if res.Status != StatusError {
		t.Errorf("Status: got %q, want %q", res.Status, StatusError)
	}
	if !strings.Contains(res.Error, "executable not found") {
		t.Errorf("Error should contain 'executable not found', got: %q", res.Error)
	}
}

// TestProcessDispatcherTimeout verifies timeout handling.
func TestProcessDispatcherTimeout(t *testing.T) {
	d, _, _ := newCapturing(WithTimeout(100 * time.Millisecond))
	res := d.Dispatch(context.Background(), &request.CommandRequest{
		Path: "sleep",
		Argv: []string{"sleep", "10"},
	})

	if res.Status != StatusTimeout {
		t.Errorf("Status: got %q, want %q", res.Status, StatusTimeout)
	}
	if res.ExitCode != -1 {
		t.Errorf("ExitCode: got %d, want -1", res.ExitCode)
	}
	if !strings.Contains(res.Error, "timed out") {
		t.Errorf("Error should contain 'timed out', got: %q", res.Error)
	}
}

// TestProcessDispatcherCanceled verifies a canceled context is not reported as a timeout.
func TestProcessDispatcherCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d, _, _ := newCapturing()
	res := d.Dispatch(ctx, &request.CommandRequest{Path: "sleep", Argv: []string{"sleep", "10"}})

	if res.Status != StatusError {
		t.Errorf("Status: got %q, want %q", res.Status, StatusError)
	}
}

// TestProcessDispatcherRejectsNUL verifies strings that cannot reach execve are refused.
func TestProcessDispatcherRejectsNUL(t *testing.T) {
	d, _, _ := newCapturing()
	res := d.Dispatch(context.Background(), &request.CommandRequest{
		Path: "echo",
		Argv: []string{"echo", "a\x00b"},
	})

	if res.Status != StatusError {
		t.Errorf("Status: got %q, want %q", res.Status, StatusError)
	}
	if !strings.Contains(res.Error, "argv") {
		t.Errorf("Error should mention argv, got: %q", res.Error)
	}
}

// TestProcessDispatcherRejectsNULPath verifies a path with a NUL byte never starts a process.
func TestProcessDispatcherRejectsNULPath(t *testing.T) {
	d, _, _ := newCapturing()
	res := d.Dispatch(context.Background(), &request.CommandRequest{Path: "ec\x00ho", Argv: []string{"echo"}})

	if res.Status != StatusError || res.ExitCode != -1 {
		t.Errorf("got %+v, want error with exit code -1", res)
	}
	if !strings.HasPrefix(res.Error, "path") {
		t.Errorf("Error should start with path, got: %q", res.Error)
	}
}
