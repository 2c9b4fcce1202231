package clog

import (
	"io"
	"log"
	"strings"
)

// std is the logger behind the package-level functions.
var std = NewLogger()

// Configure sets up the global logger.
// An empty logPath disables file logging. In daemon mode nothing is written
// to stderr.
func Configure(logPath string, level Level, daemonMode bool) error {
	std.SetLevel(level)
	std.SetDaemonMode(daemonMode)

	if logPath != "" {
		f, err := OpenLogFile(logPath)
		if err != nil {
			return err
		}
		std.SetFileOutput(f)
	}
	return nil
}

// SetLevel sets the minimum level of the global logger.
func SetLevel(level Level) {
	std.SetLevel(level)
}

// SetFileOutput sets the file writer of the global logger.
func SetFileOutput(w io.Writer) {
	std.SetFileOutput(w)
}

// SetErrOutput sets the stderr writer of the global logger.
func SetErrOutput(w io.Writer) {
	std.SetErrOutput(w)
}

// SetDaemonMode enables or disables daemon mode for the global logger.
func SetDaemonMode(daemon bool) {
	std.SetDaemonMode(daemon)
}

// Debug logs a debug message using the global logger.
func Debug(format string, args ...any) {
	std.Debug(format, args...)
}

// Info logs an informational message using the global logger.
func Info(format string, args ...any) {
	std.Info(format, args...)
}

// Warn logs a warning message using the global logger.
func Warn(format string, args ...any) {
	std.Warn(format, args...)
}

// Error logs an error message using the global logger.
func Error(format string, args ...any) {
	std.Error(format, args...)
}

// Close closes the global logger's file writer if it is an io.Closer.
func Close() error {
	std.mu.Lock()
	defer std.mu.Unlock()

	if closer, ok := std.fileWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Reset restores the global logger to its defaults.
func Reset() {
	std = NewLogger()
}

// Discard silences the global logger.
func Discard() {
	std.SetFileOutput(io.Discard)
	std.SetErrOutput(io.Discard)
}

// TestLogger returns a debug-level logger writing everything to w.
func TestLogger(w io.Writer) *Logger {
	l := NewLogger()
	l.SetFileOutput(w)
	l.SetErrOutput(nil)
	l.SetLevel(LevelDebug)
	return l
}

// ReplaceGlobal replaces the global logger and returns the previous one.
func ReplaceGlobal(l *Logger) *Logger {
	old := std
	std = l
	return old
}

// RedirectStdLog sends output of the standard library's log package to the
// global logger at the given level.
func RedirectStdLog(level Level) {
	log.SetFlags(0)
	log.SetPrefix("")
	log.SetOutput(Writer(level))
}

// Writer returns an io.Writer that logs each write at level.
func Writer(level Level) io.Writer {
	return &levelWriter{level: level}
}

type levelWriter struct {
	level Level
}

func (w *levelWriter) Write(p []byte) (int, error) {
	msg := strings.TrimSuffix(string(p), "\n")
	switch w.level {
	case LevelDebug:
		Debug("%s", msg)
	case LevelInfo:
		Info("%s", msg)
	case LevelWarn:
		Warn("%s", msg)
	case LevelError:
		Error("%s", msg)
	}
	return len(p), nil
}
