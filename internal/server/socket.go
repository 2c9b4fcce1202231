package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/xdg/execpipe/internal/audit"
	"github.com/xdg/execpipe/internal/channel"
	"github.com/xdg/execpipe/internal/clog"
	"github.com/xdg/execpipe/internal/decoder"
	"github.com/xdg/execpipe/internal/dispatch"
	"github.com/xdg/execpipe/internal/request"
)

// SocketServer listens on a Unix socket and serves every accepted connection
// as its own request channel.
type SocketServer struct {
	socketPath   string
	dispatcher   dispatch.Dispatcher
	registry     *request.Registry
	maxLineBytes int
	audit        *audit.Logger
	nextID       int

	listener net.Listener
	conns    map[net.Conn]struct{}
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.Mutex // protects listener, conns and shutdown state
}

// SocketServerOption configures a SocketServer.
type SocketServerOption func(*SocketServer)

// WithRegistry sets the request registry used to decode each channel.
func WithRegistry(r *request.Registry) SocketServerOption {
	return func(s *SocketServer) {
		s.registry = r
	}
}

// WithMaxLineBytes limits the size of a single message. Zero means no limit.
func WithMaxLineBytes(n int) SocketServerOption {
	return func(s *SocketServer) {
		s.maxLineBytes = n
	}
}

// WithAuditLog records the outcome of every request on every channel.
func WithAuditLog(a *audit.Logger) SocketServerOption {
	return func(s *SocketServer) {
		s.audit = a
	}
}

// NewSocketServer creates a SocketServer listening at socketPath.
func NewSocketServer(socketPath string, d dispatch.Dispatcher, opts ...SocketServerOption) *SocketServer {
	s := &SocketServer{
		socketPath: socketPath,
		dispatcher: d,
		conns:      make(map[net.Conn]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = request.NewRegistry()
	}
	return s
}

// Start begins listening on the Unix socket.
// It creates the parent directory if needed and sets socket permissions to 0600.
func (s *SocketServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0700); err != nil {
		return err
	}

	// Remove a stale socket left by a previous run
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return err
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return err
	}

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return err
	}

	s.listener = listener
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Stop closes the listener and every open channel, then waits for the
// channel loops to finish. A command already running is allowed to complete
// and Stop blocks until it does.
func (s *SocketServer) Stop() error {
	s.mu.Lock()
	if s.listener == nil {
		s.mu.Unlock()
		return nil
	}

	s.cancel()
	err := s.listener.Close()
	s.listener = nil
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()

	os.Remove(s.socketPath)

	return err
}

// SocketPath returns the path to the Unix socket.
func (s *SocketServer) SocketPath() string {
	return s.socketPath
}

func (s *SocketServer) acceptLoop() {
	defer s.wg.Done()

	for {
		s.mu.Lock()
		listener := s.listener
		s.mu.Unlock()
		if listener == nil {
			return
		}

		conn, err := listener.Accept()
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			clog.Warn("socket: accept failed: %v", err)
			continue
		}

		if !s.track(conn) {
			conn.Close()
			return
		}
		s.wg.Add(1)
		go s.serveConn(conn)
	}
}

// serveConn runs a decode loop for one connection until its writer closes it.
func (s *SocketServer) serveConn(conn net.Conn) {
	defer s.wg.Done()
	defer s.untrack(conn)
	defer conn.Close()

	name := s.channelName()
	ch := channel.New(conn,
		channel.WithName(name),
		channel.WithMaxLineBytes(s.maxLineBytes),
	)
	dec := decoder.New(ch, decoder.WithRegistry(s.registry))

	clog.Debug("socket: accepted %s", name)
	_, err := Serve(s.ctx, dec, s.dispatcher,
		WithChannelName(name),
		WithAudit(s.audit),
		WithDispatchContext(context.WithoutCancel(s.ctx)),
	)
	if err != nil && s.ctx.Err() == nil {
		clog.Warn("socket: %s ended: %v", name, err)
	}
}

// channelName numbers connections in accept order.
func (s *SocketServer) channelName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	return fmt.Sprintf("socket channel %d", s.nextID)
}

func (s *SocketServer) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *SocketServer) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}
