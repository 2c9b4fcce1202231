// Package clog provides operational logging for execpipe.
// This is distinct from user-facing output (see internal/term).
//
// Log levels:
//   - Debug: per-message diagnostics such as the reason a message was rejected
//   - Info: requests received, commands run, channels opened and closed
//   - Warn: skipped messages and failed commands
//   - Error: failures that stop the server
//
// Output destinations:
//   - File: all levels at or above the configured level
//   - Stderr: Warn and Error only, disabled in daemon mode
package clog

import "strings"

// Level represents the severity of a log message.
type Level int

const (
	// LevelDebug is for verbose diagnostic information.
	LevelDebug Level = iota
	// LevelInfo is for normal operational events.
	LevelInfo
	// LevelWarn is for unexpected conditions that don't stop the server.
	LevelWarn
	// LevelError is for failures that stop the server.
	LevelError
)

// String returns the uppercase name of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a level name, ignoring case.
// Unrecognized names give LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error", "err":
		return LevelError
	default:
		return LevelInfo
	}
}
