package clog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger writes levelled log lines to a file and, for warnings and errors,
// to stderr.
type Logger struct {
	mu         sync.Mutex
	level      Level
	fileWriter io.Writer // receives every line at or above level
	errWriter  io.Writer // receives warn/error unless in daemon mode
	daemonMode bool
	now        func() time.Time
}

// NewLogger creates a logger at Info level writing warnings to stderr.
func NewLogger() *Logger {
	return &Logger{
		level:     LevelInfo,
		errWriter: os.Stderr,
		now:       time.Now,
	}
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level Level) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return level >= l.level
}

// SetFileOutput sets the file writer. Pass nil to disable file logging.
func (l *Logger) SetFileOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fileWriter = w
}

// SetErrOutput sets the stderr writer. Pass nil to disable it.
func (l *Logger) SetErrOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errWriter = w
}

// SetDaemonMode enables or disables daemon mode.
// In daemon mode nothing is written to the stderr writer.
func (l *Logger) SetDaemonMode(daemon bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.daemonMode = daemon
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...any) {
	l.log(LevelDebug, format, args...)
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...any) {
	l.log(LevelInfo, format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...any) {
	l.log(LevelWarn, format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...any) {
	l.log(LevelError, format, args...)
}

func (l *Logger) log(level Level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	msg := fmt.Sprintf(format, args...)

	if l.fileWriter != nil {
		timestamp := l.now().UTC().Format(time.RFC3339)
		_, _ = fmt.Fprintf(l.fileWriter, "%s [%s] %s\n", timestamp, level, msg)
	}

	// stderr lines carry no timestamp
	if !l.daemonMode && l.errWriter != nil && level >= LevelWarn {
		_, _ = fmt.Fprintf(l.errWriter, "[%s] %s\n", level, msg)
	}
}

// OpenLogFile opens a log file for appending, creating parent directories
// if needed.
func OpenLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// DefaultLogPath returns $XDG_STATE_HOME/execpipe/execpipe.log, falling back
// to ~/.local/state when XDG_STATE_HOME is unset.
func DefaultLogPath() string {
	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		stateDir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateDir, "execpipe", "execpipe.log")
}
