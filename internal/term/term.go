// Package term provides user-facing terminal output for the execpipe CLI.
// This is distinct from operational logging (see internal/clog).
//
// Print/Printf/Println write to stdout and are suppressed with --silent.
// Warn and Error write to stderr and are never suppressed. Status writes a
// pass/fail marker, colored when stdout is a terminal.
package term

import (
	"fmt"
	"io"
	"os"
	"sync"

	xterm "golang.org/x/term"
)

const (
	ansiGreen = "\x1b[32m"
	ansiRed   = "\x1b[31m"
	ansiReset = "\x1b[0m"
)

var (
	mu     sync.Mutex
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
	silent bool
	color  = isTerminal(os.Stdout)
)

// SetSilent enables or disables silent mode.
// When silent, Print/Printf/Println/Status are suppressed.
func SetSilent(s bool) {
	mu.Lock()
	defer mu.Unlock()
	silent = s
}

// IsSilent returns whether silent mode is enabled.
func IsSilent() bool {
	mu.Lock()
	defer mu.Unlock()
	return silent
}

// SetOutput sets the writer for stdout output. Pass nil to use os.Stdout.
// Color is enabled only when the writer is a terminal.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stdout
	}
	stdout = w
	color = isTerminal(w)
}

// SetErrOutput sets the writer for stderr output. Pass nil to use os.Stderr.
func SetErrOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	stderr = w
}

// Print formats and writes to stdout.
func Print(a ...any) {
	out(func(w io.Writer) { _, _ = fmt.Fprint(w, a...) })
}

// Printf formats according to a format specifier and writes to stdout.
func Printf(format string, a ...any) {
	out(func(w io.Writer) { _, _ = fmt.Fprintf(w, format, a...) })
}

// Println writes to stdout with a trailing newline.
func Println(a ...any) {
	out(func(w io.Writer) { _, _ = fmt.Fprintln(w, a...) })
}

// Status writes one result line to stdout, prefixed with "ok" or "FAIL".
func Status(ok bool, format string, a ...any) {
	mark, code := "ok  ", ansiGreen
	if !ok {
		mark, code = "FAIL", ansiRed
	}
	msg := fmt.Sprintf(format, a...)
	out(func(w io.Writer) {
		if color {
			_, _ = fmt.Fprintf(w, "%s%s%s %s\n", code, mark, ansiReset, msg)
			return
		}
		_, _ = fmt.Fprintf(w, "%s %s\n", mark, msg)
	})
}

// Warn writes a warning message to stderr with "Warning: " prefix.
func Warn(format string, a ...any) {
	mu.Lock()
	defer mu.Unlock()
	_, _ = fmt.Fprintf(stderr, "Warning: %s\n", fmt.Sprintf(format, a...))
}

// Error writes an error message to stderr with "Error: " prefix.
func Error(format string, a ...any) {
	mu.Lock()
	defer mu.Unlock()
	_, _ = fmt.Fprintf(stderr, "Error: %s\n", fmt.Sprintf(format, a...))
}

// Stdout returns the current stdout writer, or io.Discard when silent.
func Stdout() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	if silent {
		return io.Discard
	}
	return stdout
}

// Stderr returns the current stderr writer.
func Stderr() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return stderr
}

// Reset restores the package defaults.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	stdout = os.Stdout
	stderr = os.Stderr
	silent = false
	color = isTerminal(os.Stdout)
}

// Discard configures the package to discard all output.
func Discard() {
	mu.Lock()
	defer mu.Unlock()
	stdout = io.Discard
	stderr = io.Discard
	color = false
}

func out(write func(io.Writer)) {
	mu.Lock()
	defer mu.Unlock()
	if silent {
		return
	}
	write(stdout)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && xterm.IsTerminal(int(f.Fd()))
}
