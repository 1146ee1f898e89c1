// Package web serves the leaderboards over HTTP.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/unrolled/render"

	"aoc-leaderboard/view"
)

const shutdownTimeout = 10 * time.Second

// Server is the HTTP front end.
type Server struct {
	server *http.Server
	logger *slog.Logger
}

// Option configures a Server.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	gatherer prometheus.Gatherer
	renderer *render.Render
}

// WithLogger sets the logger for requests and server events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithGatherer exposes the metrics of g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(o *options) {
		o.gatherer = g
	}
}

// WithRenderer sets the renderer for pages. Defaults to view.NewRenderer.
func WithRenderer(r *render.Render) Option {
	return func(o *options) {
		o.renderer = r
	}
}

// NewServer creates a server listening on addr.
func NewServer(addr string, standings StandingsSource, opts ...Option) *Server {
	o := &options{
		logger:   slog.Default(),
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.renderer == nil {
		o.renderer = view.NewRenderer()
	}

	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           getRouter(standings, o),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: o.logger,
	}
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.server.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("web server is listening", "addr", ln.Addr().String())
		errCh <- s.server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down web server")
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
