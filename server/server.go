package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/poiesic/pitwall/core"
)

const (
	// DefaultAddr is the listen address used when none is configured.
	DefaultAddr = ":3000"

	// DefaultMaxBodyBytes caps the size of a chat request body.
	DefaultMaxBodyBytes = 1 << 20

	// ReadHeaderTimeout bounds how long a client may take to send headers.
	ReadHeaderTimeout = 5 * time.Second

	shutdownTimeout = 10 * time.Second
)

// Replier produces the assistant's next message for a conversation.
type Replier interface {
	Reply(ctx context.Context, messages []core.ChatMessage) (string, error)
}

// Server is the HTTP front end for a Replier.
type Server struct {
	replier        Replier
	addr           string
	allowedOrigins []string
	maxBodyBytes   int64
	logger         *slog.Logger
	srv            *http.Server
}

// Option configures a Server.
type Option func(*Server) error

// WithAddr sets the listen address.
// Default is DefaultAddr.
func WithAddr(addr string) Option {
	return func(s *Server) error {
		if addr == "" {
			return errors.New("address cannot be empty")
		}
		s.addr = addr
		return nil
	}
}

// WithAllowedOrigins restricts CORS to the given origins.
// Default allows any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) error {
		s.allowedOrigins = origins
		return nil
	}
}

// WithMaxBodyBytes caps the request body size.
// Default is DefaultMaxBodyBytes.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) error {
		if n <= 0 {
			return errors.New("max body bytes must be positive")
		}
		s.maxBodyBytes = n
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "server")
		return nil
	}
}

// New creates a Server answering chat requests with replier.
func New(replier Replier, opts ...Option) (*Server, error) {
	if replier == nil {
		return nil, ErrReplierRequired
	}

	s := &Server{
		replier:      replier,
		addr:         DefaultAddr,
		maxBodyBytes: DefaultMaxBodyBytes,
		logger:       slog.Default().With("component", "server"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
	}
	return s, nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests before returning.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("HTTP server listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("HTTP server shutdown error", "err", err)
			return err
		}
		return nil
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		s.logger.Error("HTTP server error", "err", err)
		return err
	}
}
