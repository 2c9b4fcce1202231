// Package audit records one key=value line per request outcome.
// Lines look like:
//
//	2024-01-15T14:32:05Z EXEC COMPLETE channel="stdin" id=3f0c... cmd="make -C src" exit=0 duration=2.3s
//	2024-01-15T14:32:06Z EXEC REJECT channel="stdin" reason="json: error on line 1: ..."
package audit

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of audit event.
type EventType string

const (
	EventRequest  EventType = "REQUEST"
	EventReject   EventType = "REJECT"
	EventComplete EventType = "COMPLETE"
	EventTimeout  EventType = "TIMEOUT"
	EventError    EventType = "ERROR"
)

// Event is a single audit log entry.
type Event struct {
	Timestamp time.Time
	Type      EventType

	// Channel names the request channel the message arrived on.
	Channel string

	// ID is the request ID. Rejected messages have none.
	ID uuid.UUID

	// Cmd is the display form of the command.
	Cmd string

	// Reason explains REJECT and ERROR events.
	Reason string

	// ExitCode and Duration are set for COMPLETE events.
	ExitCode int
	Duration time.Duration
}

// Format returns the log entry as a single line without a newline.
func (e *Event) Format() string {
	var b strings.Builder

	b.WriteString(e.Timestamp.UTC().Format(time.RFC3339))
	b.WriteString(" EXEC ")
	b.WriteString(string(e.Type))
	b.WriteString(" channel=")
	b.WriteString(quoteValue(e.Channel))

	if e.ID != uuid.Nil {
		b.WriteString(" id=")
		b.WriteString(e.ID.String())
	}
	writeOptionalField(&b, "cmd", e.Cmd)

	switch e.Type {
	case EventComplete:
		b.WriteString(" exit=")
		b.WriteString(strconv.Itoa(e.ExitCode))
		b.WriteString(" duration=")
		b.WriteString(formatDuration(e.Duration))
	case EventReject, EventError:
		writeOptionalField(&b, "reason", e.Reason)
	}

	return b.String()
}

func writeOptionalField(b *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	b.WriteString(" ")
	b.WriteString(key)
	b.WriteString("=")
	b.WriteString(quoteValue(value))
}

// quoteValue always quotes so values with spaces stay one field.
func quoteValue(s string) string {
	return strconv.Quote(s)
}

// formatDuration formats a duration as e.g. "850.0ms", "2.3s" or "1m30s".
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return d.Round(time.Second).String()
}

// Logger writes audit events to an io.Writer.
// A nil *Logger discards every event.
type Logger struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// NewLogger creates an audit logger that writes to w.
func NewLogger(w io.Writer) *Logger {
	return &Logger{w: w, now: time.Now}
}

// Log writes an event, stamping it if Timestamp is zero.
func (l *Logger) Log(e *Event) error {
	if l == nil || l.w == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if e.Timestamp.IsZero() {
		e.Timestamp = l.now()
	}
	if _, err := io.WriteString(l.w, e.Format()+"\n"); err != nil {
		return fmt.Errorf("write audit event: %w", err)
	}
	return nil
}

// LogRequest logs a REQUEST event for an accepted message.
func (l *Logger) LogRequest(channel string, id uuid.UUID, cmd string) error {
	return l.Log(&Event{Type: EventRequest, Channel: channel, ID: id, Cmd: cmd})
}

// LogReject logs a REJECT event for a message that could not be decoded.
func (l *Logger) LogReject(channel, reason string) error {
	return l.Log(&Event{Type: EventReject, Channel: channel, Reason: reason})
}

// LogComplete logs a COMPLETE event for a command that ran to exit.
func (l *Logger) LogComplete(channel string, id uuid.UUID, cmd string, exitCode int, duration time.Duration) error {
	return l.Log(&Event{
		Type:     EventComplete,
		Channel:  channel,
		ID:       id,
		Cmd:      cmd,
		ExitCode: exitCode,
		Duration: duration,
	})
}

// LogTimeout logs a TIMEOUT event for a command killed at its deadline.
func (l *Logger) LogTimeout(channel string, id uuid.UUID, cmd string) error {
	return l.Log(&Event{Type: EventTimeout, Channel: channel, ID: id, Cmd: cmd})
}

// LogError logs an ERROR event for a command that could not be run.
func (l *Logger) LogError(channel string, id uuid.UUID, cmd, reason string) error {
	return l.Log(&Event{Type: EventError, Channel: channel, ID: id, Cmd: cmd, Reason: reason})
}
