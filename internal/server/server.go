// Package server exposes workflow execution and validation over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/randalmurphal/ragflow/pkg/ragflow"
	"github.com/randalmurphal/ragflow/pkg/ragflow/retrieval"
)

// Indexer stores document text in a collection. retrieval.Service
// implements it.
type Indexer interface {
	Index(ctx context.Context, req retrieval.IndexRequest) (int, error)
}

// Server serves the ragflow HTTP API.
type Server struct {
	engine          *ragflow.Engine
	indexer         Indexer
	logger          *slog.Logger
	requestTimeout  time.Duration
	shutdownTimeout time.Duration
	maxBodyBytes    int64

	router  *mux.Router
	metrics *httpMetrics
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIndexer enables POST /api/documents/index.
func WithIndexer(ix Indexer) Option {
	return func(s *Server) { s.indexer = ix }
}

// WithRequestTimeout bounds each workflow execution. Zero disables the bound.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) { s.requestTimeout = d }
}

// WithShutdownTimeout bounds graceful shutdown.
// Default: 30s
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// New creates a Server around an Engine.
func New(engine *ragflow.Engine, opts ...Option) *Server {
	s := &Server{
		engine:          engine,
		logger:          slog.Default(),
		shutdownTimeout: 30 * time.Second,
		maxBodyBytes:    10 << 20,
		metrics:         newHTTPMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.metrics.middleware)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/workflows/execute", s.handleExecute).Methods(http.MethodPost)
	api.HandleFunc("/chat/execute", s.handleExecute).Methods(http.MethodPost)
	api.HandleFunc("/workflows/validate", s.handleValidate).Methods(http.MethodPost)
	api.HandleFunc("/documents/index", s.handleIndex).Methods(http.MethodPost)
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/health/ready", s.handleReady).Methods(http.MethodGet)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.handler()).Methods(http.MethodGet)
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve accepts connections on l until ctx is done, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("ragflow server listening", slog.String("addr", l.Addr().String()))
		errCh <- srv.Serve(l)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server exited")
	return nil
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}
