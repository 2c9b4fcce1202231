// Package decoder turns a request channel into a sequence of typed requests.
//
// Next reports one of three outcomes: a request, a recoverable error for a
// single bad message (the caller logs it and asks again), or ErrExiting when
// the channel has closed and no more requests will come.
package decoder

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/xdg/execpipe/internal/channel"
	"github.com/xdg/execpipe/internal/clog"
	"github.com/xdg/execpipe/internal/request"
)

// ErrExiting is returned once the channel has been closed by its writer.
// Callers must stop asking for requests.
var ErrExiting = errors.New("exiting")

// LineReader reads one message per call. *channel.Channel implements it.
type LineReader interface {
	ReadLine() ([]byte, error)
}

// Result is a successfully decoded request.
type Result struct {
	// ID identifies the request in log output.
	ID      uuid.UUID
	Request request.Request
}

// Decoder decodes requests from a LineReader.
// It is not safe for concurrent use.
type Decoder struct {
	r        LineReader
	registry *request.Registry

	exited bool
	done   chan struct{}
	once   sync.Once
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithRegistry sets the registry used to build requests.
func WithRegistry(r *request.Registry) Option {
	return func(d *Decoder) {
		d.registry = r
	}
}

// New creates a Decoder reading from r.
func New(r LineReader, opts ...Option) *Decoder {
	d := &Decoder{
		r:    r,
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.registry == nil {
		d.registry = request.NewRegistry()
	}
	return d
}

// Done is closed when the decoder reaches the end of its channel.
func (d *Decoder) Done() <-chan struct{} {
	return d.done
}

// Next reads and decodes the next request.
//
// Errors:
//   - ErrExiting: the channel is closed; every later call returns it too.
//   - *request.SyntaxError: the line is not well-formed JSON.
//   - request.ErrSchemaMismatch: the line is JSON but not a valid request.
//   - *channel.LineTooLongError: the line exceeded the channel's limit.
//
// The last three are recoverable (see Recoverable). Any other error comes
// from the channel itself and is terminal.
func (d *Decoder) Next() (Result, error) {
	if d.exited {
		return Result{}, ErrExiting
	}

	line, err := d.r.ReadLine()
	if err != nil {
		if errors.Is(err, channel.ErrEndOfChannel) {
			d.exit()
			return Result{}, ErrExiting
		}
		var tooLong *channel.LineTooLongError
		if errors.As(err, &tooLong) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("read request: %w", err)
	}

	tree, err := request.Parse(trimDelimiter(line))
	if err != nil {
		return Result{}, err
	}

	req, err := d.registry.Build(tree)
	if err != nil {
		clog.Debug("decoder: rejected message: %v", err)
		return Result{}, request.ErrSchemaMismatch
	}

	return Result{ID: uuid.New(), Request: req}, nil
}

func (d *Decoder) exit() {
	d.exited = true
	d.once.Do(func() {
		clog.Debug("decoder: end of channel")
		close(d.done)
	})
}

// Recoverable reports whether err concerns a single message, so the caller
// may keep reading.
func Recoverable(err error) bool {
	var syntaxErr *request.SyntaxError
	var tooLong *channel.LineTooLongError
	return errors.As(err, &syntaxErr) ||
		errors.As(err, &tooLong) ||
		errors.Is(err, request.ErrSchemaMismatch)
}

// trimDelimiter strips the line terminator so syntax error line numbers
// refer to the message itself.
func trimDelimiter(line []byte) []byte {
	line = bytes.TrimSuffix(line, []byte{'\n'})
	return bytes.TrimSuffix(line, []byte{'\r'})
}
