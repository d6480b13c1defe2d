// Package server exposes the HTTP API: project documents, view ingestion,
// stats and the operational endpoints. The API is read-mostly and thin;
// everything interesting happens in the store.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/clomonitor/internal/metrics"
	"git.home.luguber.info/inful/clomonitor/internal/storage"
)

// DB is the slice of the store the API reads from.
type DB interface {
	ProjectDetail(ctx context.Context, foundationID, name string) (*storage.ProjectDetail, error)
	ProjectID(ctx context.Context, foundationID, name string) (uuid.UUID, error)
	Stats(ctx context.Context, foundationID string) (*storage.Stats, error)
	Ping(ctx context.Context) error
}

// ViewTracker ingests view increments.
type ViewTracker interface {
	TrackView(projectID uuid.UUID) error
}

// Options configure a Server.
type Options struct {
	Addr  string
	DB    DB
	Views ViewTracker

	// Registry, when set, exposes Prometheus metrics on /metrics.
	Registry *prom.Registry
}

// Server is the HTTP front of the service.
type Server struct {
	addr string
	srv  *http.Server
	ln   net.Listener
}

// New assembles the routes and middleware. Start binds and serves.
func New(opts Options) *Server {
	h := &handlers{db: opts.DB, views: opts.Views}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.health)
	mux.HandleFunc("GET /api/projects/{foundation}/{project}", h.project)
	mux.HandleFunc("POST /api/projects/{foundation}/{project}/views", h.trackView)
	mux.HandleFunc("GET /api/stats", h.stats)
	if opts.Registry != nil {
		mux.Handle("GET /metrics", metrics.HTTPHandler(opts.Registry))
	}

	return &Server{
		addr: opts.Addr,
		srv: &http.Server{
			Handler:      chain(slog.Default())(mux),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
	}
}

// Start binds the listen address and serves in the background. Binding
// happens here so startup fails fast on an occupied port instead of logging
// from a goroutine later.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("binding %s: %w", s.addr, err)
	}
	s.ln = ln

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()
	slog.Info("HTTP server started", slog.String("addr", s.addr))
	return nil
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	slog.Info("HTTP server stopped")
	return nil
}

// Addr returns the bound address, useful when listening on port 0.
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.addr
	}
	return s.ln.Addr().String()
}
