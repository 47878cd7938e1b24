package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"notewise/internal/config"
	"notewise/internal/logging"
	"notewise/internal/workflow"
)

// Server serves one workflow session and enforces single-instance execution
// per data directory.
type Server struct {
	cfg     *config.Config
	session *workflow.Session
	logger  *slog.Logger
	handler http.Handler

	lockPath string
	lock     *flock.Flock

	listener net.Listener
	server   *http.Server
	running  atomic.Bool
}

// New constructs a server for session.
func New(cfg *config.Config, session *workflow.Session, logger *slog.Logger) (*Server, error) {
	if cfg == nil || session == nil {
		return nil, errors.New("server requires config and session")
	}
	s := &Server{
		cfg:      cfg,
		session:  session,
		logger:   logging.NewComponentLogger(logger, "api-server"),
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	s.handler = authMiddleware(strings.TrimSpace(cfg.Paths.APIToken), s.routes())
	return s, nil
}

// Handler returns the routed, authenticated handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Start acquires the lock and begins listening on the configured bind
// address. It returns once the listener is ready; ctx cancellation shuts the
// server down.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return errors.New("server already running")
	}
	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another notewise server is already running (lock %s)", s.lockPath)
	}

	bind := strings.TrimSpace(s.cfg.Paths.APIBind)
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		_ = s.lock.Unlock()
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.running.Store(true)

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening",
		logging.String("address", listener.Addr().String()),
		logging.String("lock", s.lockPath),
		logging.Bool("auth", strings.TrimSpace(s.cfg.Paths.APIToken) != ""),
	)
	return nil
}

// Addr returns the listening address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the listener down and releases the lock.
func (s *Server) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("api server shutdown incomplete", logging.Error(err))
	}
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("failed to release server lock", logging.Error(err))
	}
	s.logger.Info("api server stopped")
}
