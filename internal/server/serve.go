// Package server connects request channels to a dispatcher.
package server

import (
	"context"
	"errors"
	"time"

	"github.com/xdg/execpipe/internal/audit"
	"github.com/xdg/execpipe/internal/clog"
	"github.com/xdg/execpipe/internal/decoder"
	"github.com/xdg/execpipe/internal/dispatch"
	"github.com/xdg/execpipe/internal/request"
)

// Stats counts what a Serve loop saw.
type Stats struct {
	Dispatched int
	Rejected   int
}

// Option configures a Serve loop.
type Option func(*loop)

// WithChannelName names the channel in log and audit lines.
func WithChannelName(name string) Option {
	return func(l *loop) {
		l.channel = name
	}
}

// WithAudit records every request outcome to a.
func WithAudit(a *audit.Logger) Option {
	return func(l *loop) {
		l.audit = a
	}
}

// WithDispatchContext runs each command under ctx instead of the loop
// context, so canceling the loop stops reading without killing a command
// that is already running.
func WithDispatchContext(ctx context.Context) Option {
	return func(l *loop) {
		l.dispatchCtx = ctx
	}
}

type loop struct {
	dec         *decoder.Decoder
	d           dispatch.Dispatcher
	channel     string
	audit       *audit.Logger
	dispatchCtx context.Context
	stats       Stats
}

// Serve decodes requests from dec and dispatches them one at a time until
// the channel closes, which is reported as a nil error. Malformed messages
// are logged and skipped. ctx is checked between messages; a pending read is
// only interrupted by closing the channel.
func Serve(ctx context.Context, dec *decoder.Decoder, d dispatch.Dispatcher, opts ...Option) (Stats, error) {
	l := &loop{dec: dec, d: d, channel: "request channel"}
	for _, opt := range opts {
		opt(l)
	}
	return l.run(ctx)
}

func (l *loop) run(ctx context.Context) (Stats, error) {
	for {
		if err := ctx.Err(); err != nil {
			return l.stats, err
		}

		res, err := l.dec.Next()
		switch {
		case err == nil:
		case errors.Is(err, decoder.ErrExiting):
			clog.Info("%s closed after %d requests (%d rejected)", l.channel, l.stats.Dispatched, l.stats.Rejected)
			return l.stats, nil
		case decoder.Recoverable(err):
			l.stats.Rejected++
			clog.Warn("%s: skipping message: %v", l.channel, err)
			l.record(l.audit.LogReject(l.channel, err.Error()))
			continue
		default:
			return l.stats, err
		}

		l.stats.Dispatched++
		if l.dispatchCtx != nil {
			l.handle(l.dispatchCtx, res)
		} else {
			l.handle(ctx, res)
		}
	}
}

func (l *loop) handle(ctx context.Context, res decoder.Result) {
	switch req := res.Request.(type) {
	case *request.CommandRequest:
		cmd := req.String()
		clog.Info("request %s: running %s", res.ID, cmd)
		l.record(l.audit.LogRequest(l.channel, res.ID, cmd))

		start := time.Now()
		out := l.d.Dispatch(ctx, req)
		elapsed := time.Since(start)

		switch out.Status {
		case dispatch.StatusCompleted:
			clog.Info("request %s: exited with code %d", res.ID, out.ExitCode)
			l.record(l.audit.LogComplete(l.channel, res.ID, cmd, out.ExitCode, elapsed))
		case dispatch.StatusTimeout:
			clog.Warn("request %s: %s: %s", res.ID, out.Status, out.Error)
			l.record(l.audit.LogTimeout(l.channel, res.ID, cmd))
		default:
			clog.Warn("request %s: %s: %s", res.ID, out.Status, out.Error)
			l.record(l.audit.LogError(l.channel, res.ID, cmd, out.Error))
		}
	default:
		clog.Warn("request %s: no handler for request type %q", res.ID, req.Type())
		l.record(l.audit.LogError(l.channel, res.ID, "", "no handler for request type "+req.Type()))
	}
}

// record reports audit write failures without stopping the loop.
func (l *loop) record(err error) {
	if err != nil {
		clog.Error("audit: %v", err)
	}
}
