package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/marmos91/rhc-coord/internal/logger"
	"github.com/marmos91/rhc-coord/pkg/api/auth"
	"github.com/marmos91/rhc-coord/pkg/node"
)

// Server is the operator status API's HTTP server: health probes, a
// clock/lease/consensus snapshot, and read-only lease and round lookups.
// It supports graceful shutdown with a bounded timeout.
type Server struct {
	server       *http.Server
	config       Config
	shutdownOnce sync.Once
}

// NewServer creates a status API server for n. jwtService may be nil,
// which disables Bearer auth on every /api/v1 route (tests only;
// cmd/coordd always passes one).
func NewServer(config Config, n *node.Node, jwtService *auth.Service) *Server {
	config.applyDefaults()

	router := NewRouter(n, jwtService)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Port),
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return &Server{server: server, config: config}
}

// Start listens on the configured port and blocks until ctx is cancelled
// or the server fails. Cancellation triggers a graceful shutdown bounded
// to 5 seconds.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("status API listening", "port", s.config.Port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("status API shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("status API server failed: %w", err)
	}
}

// Stop gracefully shuts the server down. Safe to call multiple times and
// concurrently with Start.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("status API shutdown error: %w", err)
			logger.Error("status API shutdown error", "error", err)
		} else {
			logger.Info("status API stopped gracefully")
		}
	})
	return shutdownErr
}

// Port returns the TCP port the server is listening on.
func (s *Server) Port() int {
	return s.config.Port
}
