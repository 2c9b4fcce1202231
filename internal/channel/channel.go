// Package channel reads newline-delimited messages from a request channel.
//
// A channel is the read side of a pipe or socket handed to execpipe already
// open. Reads block until a full line or the end of the channel is available;
// there are no timeouts at this layer.
package channel

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// ErrEndOfChannel is returned by ReadLine when no more data will ever arrive.
// It marks normal termination, not a failure.
var ErrEndOfChannel = errors.New("end of channel")

// LineTooLongError is returned when a line exceeds the configured limit.
// The offending line has been consumed; the next ReadLine starts on the
// following line.
type LineTooLongError struct {
	Limit int
}

func (e *LineTooLongError) Error() string {
	return fmt.Sprintf("line exceeds %d bytes", e.Limit)
}

// Channel reads one line at a time from an underlying reader.
// It is not safe for concurrent use; one read is in flight per channel.
type Channel struct {
	name    string
	r       *bufio.Reader
	file    *os.File // set when opened from a descriptor
	maxLine int      // 0 means unlimited
	ended   bool
}

// Option configures a Channel.
type Option func(*Channel)

// WithMaxLineBytes limits the size of a single line, delimiter included.
// Zero disables the limit.
func WithMaxLineBytes(n int) Option {
	return func(c *Channel) {
		c.maxLine = n
	}
}

// WithName sets the name used in error messages.
func WithName(name string) Option {
	return func(c *Channel) {
		c.name = name
	}
}

// New wraps r as a channel.
func New(r io.Reader, opts ...Option) *Channel {
	c := &Channel{
		name: "request channel",
		r:    bufio.NewReader(r),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open wraps an already open descriptor as a channel. The descriptor is
// marked close-on-exec so that processes started for decoded requests do not
// inherit it.
func Open(fd uintptr, name string, opts ...Option) (*Channel, error) {
	if _, err := unix.FcntlInt(fd, unix.F_SETFD, unix.FD_CLOEXEC); err != nil {
		return nil, fmt.Errorf("set close-on-exec on fd %d: %w", fd, err)
	}
	f := os.NewFile(fd, name)
	if f == nil {
		return nil, fmt.Errorf("invalid descriptor %d", fd)
	}
	c := New(f, append([]Option{WithName(name)}, opts...)...)
	c.file = f
	return c, nil
}

// Name returns the channel's name.
func (c *Channel) Name() string {
	return c.name
}

// IsTerminal reports whether the channel was opened on a terminal.
func (c *Channel) IsTerminal() bool {
	if c.file == nil {
		return false
	}
	return term.IsTerminal(int(c.file.Fd()))
}

// ReadLine returns the next line, including its trailing newline.
// A final line without a newline is returned as is; the call after it
// returns ErrEndOfChannel. Once the end has been reached every later call
// returns ErrEndOfChannel.
func (c *Channel) ReadLine() ([]byte, error) {
	if c.ended {
		return nil, ErrEndOfChannel
	}

	var line []byte
	tooLong := false
	for {
		frag, err := c.r.ReadSlice('\n')
		if !tooLong {
			if c.maxLine > 0 && len(line)+len(frag) > c.maxLine {
				tooLong = true
				line = nil
			} else {
				line = append(line, frag...)
			}
		}

		switch {
		case err == nil:
			if tooLong {
				return nil, &LineTooLongError{Limit: c.maxLine}
			}
			return line, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			c.ended = true
			if tooLong {
				return nil, &LineTooLongError{Limit: c.maxLine}
			}
			if len(line) == 0 {
				return nil, ErrEndOfChannel
			}
			return line, nil
		default:
			return nil, fmt.Errorf("read %s: %w", c.name, err)
		}
	}
}

// Close closes the underlying descriptor, if the channel owns one.
func (c *Channel) Close() error {
	if c.file == nil {
		return nil
	}
	return c.file.Close()
}
