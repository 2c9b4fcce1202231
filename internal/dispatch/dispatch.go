// Package dispatch runs decoded requests on the host.
package dispatch

import (
	"context"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/xdg/execpipe/internal/request"
)

// Dispatcher runs command requests.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd *request.CommandRequest) Result
}

// Result describes how a dispatched command ended.
type Result struct {
	Status   string `json:"status"` // "completed", "timeout", "error"
	ExitCode int    `json:"exit_code"`
	Error    string `json:"error,omitempty"`
}

// Status constants for Result.Status.
const (
	StatusCompleted = "completed"
	StatusTimeout   = "timeout"
	StatusError     = "error"
)

// validateExecStrings reports whether every string in cmd can be passed to
// execve(2). The path, arguments and environment entries must not contain
// a NUL byte.
func validateExecStrings(cmd *request.CommandRequest) error {
	if _, err := unix.ByteSliceFromString(cmd.Path); err != nil {
		return fmt.Errorf("path: %w", err)
	}
	if err := validateStrings(cmd.Argv); err != nil {
		return fmt.Errorf("argv: %w", err)
	}
	if err := validateStrings(cmd.Envp); err != nil {
		return fmt.Errorf("envp: %w", err)
	}
	return nil
}

func validateStrings(ss []string) error {
	for i, s := range ss {
		if _, err := unix.ByteSliceFromString(s); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return nil
}

// ExecVectors converts a command's argv and envp into the form execve(2)
// expects: arrays of pointers to NUL-terminated strings, each ending with a
// nil pointer. Strings containing a NUL byte cannot be represented and are
// rejected.
func ExecVectors(cmd *request.CommandRequest) (argv, envp []*byte, err error) {
	argv, err = sentinelVector(cmd.Argv)
	if err != nil {
		return nil, nil, fmt.Errorf("argv: %w", err)
	}
	envp, err = sentinelVector(cmd.Envp)
	if err != nil {
		return nil, nil, fmt.Errorf("envp: %w", err)
	}
	return argv, envp, nil
}

func sentinelVector(ss []string) ([]*byte, error) {
	v := make([]*byte, len(ss)+1)
	for i, s := range ss {
		p, err := unix.BytePtrFromString(s)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		v[i] = p
	}
	return v, nil
}
