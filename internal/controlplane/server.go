// Package controlplane serves the local HTTP API overlays and scripts use to
// read timers and send actions.
package controlplane

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/raidtimer/timerlink/internal/controlplane/handlers"
	"github.com/raidtimer/timerlink/internal/controlplane/middleware"
	"github.com/raidtimer/timerlink/internal/utils"
)

const DefaultShutdownTimeout = 10 * time.Second

type Server struct {
	config *Config
	server *http.Server

	mu       sync.Mutex
	listener net.Listener
}

func NewServer(config *Config, ov handlers.Overlay) (*Server, error) {
	if config == nil || config.Addr == "" {
		return nil, errors.New("controlplane: address is required")
	}

	httpServer := &http.Server{
		Addr:    config.Addr,
		Handler: liftWriteDeadline(SetupRoutes(ov, config), middleware.StreamingPaths),
		// Timeouts to prevent slow client attacks
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}

	// Streaming handlers end when their request context does, so request
	// contexts are cancelled as soon as shutdown begins.
	baseCtx, cancel := context.WithCancel(context.Background())
	httpServer.BaseContext = func(net.Listener) context.Context { return baseCtx }
	httpServer.RegisterOnShutdown(cancel)

	return &Server{
		config: config,
		server: httpServer,
	}, nil
}

// Start listens and serves until Stop. It returns nil after a clean stop.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("control plane listen: %w", err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	slog.Info("control plane start", "addr", fmt.Sprintf("http://%s", ln.Addr()), "token", utils.MaskSecret(s.config.AuthToken))
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("control plane serve: %w", err)
	}
	return nil
}

// Addr is the bound address once Start has listened, else the configured
// one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Addr
}

func (s *Server) Stop(ctx context.Context) error {
	slog.Info("control plane stop")
	return s.server.Shutdown(ctx)
}

// Run serves until ctx is done, then shuts down within
// DefaultShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start(ctx)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := s.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("control plane shutdown: %w", err)
	}
	return <-errCh
}

// liftWriteDeadline clears the server write timeout for the long-lived feed
// responses. It wraps the router so that it sees the net/http writer.
func liftWriteDeadline(next http.Handler, paths []string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if slices.Contains(paths, r.URL.Path) {
			if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
				slog.Debug("clear write deadline", "path", r.URL.Path, "error", err)
			}
		}
		next.ServeHTTP(w, r)
	})
}
