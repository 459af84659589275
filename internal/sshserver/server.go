// SPDX-License-Identifier: MPL-2.0

package sshserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/pubpublica/pubctl/internal/dispatch"
	"github.com/pubpublica/pubctl/internal/runtime"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
)

type (
	// Dispatcher runs one operation per session. *dispatch.Dispatcher
	// satisfies it.
	Dispatcher interface {
		Run(ctx context.Context, req dispatch.Request) (*dispatch.Result, error)
		Table() *dispatch.Table
		Mode() runtime.Mode
	}

	// Option configures a Server.
	Option func(*Server)

	// Server serves operation dispatches over SSH. A Server is single-use:
	// once stopped or failed, create a new instance.
	Server struct {
		cfg        Config
		dispatcher Dispatcher
		logger     *log.Logger

		state atomic.Int32

		mu       sync.Mutex
		srv      *ssh.Server
		listener net.Listener
		addr     string
		lastErr  error

		wg        sync.WaitGroup
		startedCh chan struct{}
		doneCh    chan struct{}
		doneOnce  sync.Once
		errCh     chan error

		sessions atomic.Int64
	}
)

// WithLogger sets the logger for server and session diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a server that dispatches session commands through d.
// The server is not started; call Start to begin accepting sessions.
func New(cfg Config, d Dispatcher, opts ...Option) (*Server, error) {
	if d == nil {
		return nil, ErrNilDispatcher
	}
	if cfg.Address == "" {
		cfg.Address = DefaultAddress
	}
	if cfg.StartupTimeout == 0 {
		cfg.StartupTimeout = defaultStartupTimeout
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:        cfg,
		dispatcher: d,
		logger:     log.New(io.Discard),
		startedCh:  make(chan struct{}),
		doneCh:     make(chan struct{}),
		errCh:      make(chan error, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state.Store(int32(StateCreated))
	return s, nil
}

// Start binds the listener and blocks until the server accepts sessions,
// startup fails, ctx is cancelled or the startup timeout passes.
// After Start returns nil, use Err to monitor for serve errors.
func (s *Server) Start(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateCreated), int32(StateStarting)) {
		return fmt.Errorf("cannot start server in state %s", s.State())
	}

	// A cancelled context must fail before the serve goroutine can reach Running.
	if err := ctx.Err(); err != nil {
		s.transitionToFailed(fmt.Errorf("context cancelled before start: %w", err))
		return s.LastError()
	}

	if s.cfg.AuthorizedKeysPath != "" {
		if _, err := os.Stat(s.cfg.AuthorizedKeysPath); err != nil {
			s.transitionToFailed(fmt.Errorf("authorized keys: %w", err))
			return s.LastError()
		}
	}

	if err := os.MkdirAll(filepath.Dir(s.cfg.HostKeyPath), 0o700); err != nil {
		s.transitionToFailed(fmt.Errorf("host key directory: %w", err))
		return s.LastError()
	}

	startupCtx, startupCancel := context.WithTimeout(ctx, s.cfg.StartupTimeout)
	defer startupCancel()

	var lc net.ListenConfig
	listener, err := lc.Listen(startupCtx, "tcp", s.cfg.Address)
	if err != nil {
		s.transitionToFailed(fmt.Errorf("failed to listen on %s: %w", s.cfg.Address, err))
		return s.LastError()
	}

	srvOpts := []ssh.Option{
		wish.WithAddress(listener.Addr().String()),
		wish.WithHostKeyPath(s.cfg.HostKeyPath),
		wish.WithMiddleware(
			s.dispatchMiddleware(),
			s.loggingMiddleware(),
		),
	}
	if s.cfg.AuthorizedKeysPath != "" {
		srvOpts = append(srvOpts, wish.WithAuthorizedKeys(s.cfg.AuthorizedKeysPath))
	} else if !s.cfg.Loopback() {
		s.logger.Warn("unauthenticated access allowed, any client can dispatch operations", "address", s.cfg.Address)
	}

	srv, err := wish.NewServer(srvOpts...)
	if err != nil {
		_ = listener.Close() // Best-effort cleanup on error
		s.transitionToFailed(fmt.Errorf("failed to create SSH server: %w", err))
		return s.LastError()
	}

	s.mu.Lock()
	s.srv = srv
	s.listener = listener
	s.addr = listener.Addr().String()
	s.mu.Unlock()

	if s.State() != StateStarting {
		_ = srv.Close()
		s.closeListener()
		return fmt.Errorf("server %s during start", s.State())
	}

	s.wg.Add(1)
	go s.serve(srv, listener)

	select {
	case <-s.startedCh:
		s.logger.Info("dispatch server started", "address", s.Address())
		return nil
	case err := <-s.errCh:
		s.transitionToFailed(err)
		return err
	case <-startupCtx.Done():
		s.closeListener()
		s.transitionToFailed(fmt.Errorf("startup timeout: %w", startupCtx.Err()))
		return s.LastError()
	}
}

// Stop shuts the server down, waiting up to the shutdown timeout for open
// sessions. It is safe to call more than once and from any state.
func (s *Server) Stop() error {
	for {
		current := s.State()
		switch current {
		case StateStopped, StateFailed:
			return nil
		case StateCreated:
			if s.state.CompareAndSwap(int32(StateCreated), int32(StateStopped)) {
				s.markDone()
				return nil
			}
		case StateStopping:
			<-s.doneCh
			return nil
		case StateStarting, StateRunning:
			if s.state.CompareAndSwap(int32(current), int32(StateStopping)) {
				return s.doStop()
			}
		default:
			return fmt.Errorf("unknown server state: %d", current)
		}
	}
}

// Wait blocks until the server has stopped or failed. It returns the
// failure cause, if any.
func (s *Server) Wait() error {
	<-s.doneCh
	if s.State() == StateFailed {
		return s.LastError()
	}
	return nil
}

// Err returns a channel that receives a fatal serve error.
func (s *Server) Err() <-chan error {
	return s.errCh
}

// State returns the current lifecycle state.
func (s *Server) State() State {
	return State(s.state.Load())
}

// IsRunning reports whether the server is accepting sessions.
func (s *Server) IsRunning() bool {
	return s.State() == StateRunning
}

// LastError returns the error that caused StateFailed, or nil.
func (s *Server) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Address returns the bound host:port, or "" before the listener exists.
func (s *Server) Address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Port returns the bound port, or 0 before the listener exists.
func (s *Server) Port() int {
	_, portStr, err := net.SplitHostPort(s.Address())
	if err != nil {
		return 0
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0
	}
	return port
}

// Sessions returns how many sessions have been handled.
func (s *Server) Sessions() int64 {
	return s.sessions.Load()
}

func (s *Server) serve(srv *ssh.Server, listener net.Listener) {
	defer s.wg.Done()

	if s.state.CompareAndSwap(int32(StateStarting), int32(StateRunning)) {
		close(s.startedCh)
	}

	err := srv.Serve(listener)
	if err == nil || errors.Is(err, ssh.ErrServerClosed) || errors.Is(err, net.ErrClosed) {
		return
	}

	select {
	case s.errCh <- fmt.Errorf("serve error: %w", err):
	default:
		s.logger.Error("dispatch server error", "err", err)
	}
}

func (s *Server) doStop() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()

	var shutdownErr error
	if srv != nil {
		shutdownErr = srv.Shutdown(shutdownCtx)
		if shutdownErr != nil && !errors.Is(shutdownErr, net.ErrClosed) {
			s.logger.Error("shutdown error", "err", shutdownErr)
			// Sessions still open after the timeout are cut off.
			_ = srv.Close()
		} else {
			shutdownErr = nil
		}
	}
	s.closeListener()

	s.wg.Wait()
	s.state.Store(int32(StateStopped))
	s.markDone()
	s.logger.Info("dispatch server stopped", "sessions", s.Sessions())
	return shutdownErr
}

func (s *Server) closeListener() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		_ = s.listener.Close() // Best-effort; Serve may already have closed it
	}
}

func (s *Server) markDone() {
	s.doneOnce.Do(func() { close(s.doneCh) })
}

// transitionToFailed records err and releases Wait. A server that is
// already stopping keeps that state.
func (s *Server) transitionToFailed(err error) {
	for {
		current := s.State()
		if current == StateStopping || current == StateStopped || current == StateFailed {
			return
		}
		if s.state.CompareAndSwap(int32(current), int32(StateFailed)) {
			break
		}
	}

	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	s.markDone()

	select {
	case s.errCh <- err:
	default:
	}
}
