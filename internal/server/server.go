package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sundayezeilo/tinylink/internal/config"
	"github.com/sundayezeilo/tinylink/internal/httpx"
	"github.com/sundayezeilo/tinylink/internal/idgen"
	"github.com/sundayezeilo/tinylink/internal/metrics"
	"github.com/sundayezeilo/tinylink/internal/shortener"
)

const (
	healthCheckTimeout = 2 * time.Second
	healthPath         = "/healthz"
)

// ReservedCodes lists the single-segment paths the router serves itself.
// Links stored under these codes would never resolve.
func ReservedCodes(cfg *config.Config) []string {
	reserved := []string{strings.TrimPrefix(healthPath, "/")}
	if cfg.Observability.MetricsEnabled {
		segment := strings.TrimPrefix(cfg.Observability.MetricsPath, "/")
		if segment != "" && !strings.Contains(segment, "/") {
			reserved = append(reserved, segment)
		}
	}
	return reserved
}

// Pinger reports whether the link store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server with all dependencies.
type Server struct {
	config  *config.Config
	logger  *slog.Logger
	handler *shortener.Handler
	store   Pinger
	metrics *metrics.Metrics // nil when metrics are disabled
	server  *http.Server
}

// New creates a new Server instance.
func New(cfg *config.Config, logger *slog.Logger, handler *shortener.Handler, store Pinger, m *metrics.Metrics) *Server {
	return &Server{
		config:  cfg,
		logger:  logger,
		handler: handler,
		store:   store,
		metrics: m,
	}
}

// Handler returns the fully routed and middleware-wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.applyMiddleware(s.setupRoutes())
}

// Start starts the HTTP server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Server.Host, s.config.Server.Port),
		Handler:      s.Handler(),
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("starting http server",
			"addr", s.server.Addr,
			"env", s.config.App.Environment,
		)
		serverErrors <- s.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		s.logger.Info("shutdown requested", "cause", context.Cause(ctx))
		return s.gracefulStop()
	}
}

func (s *Server) gracefulStop() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		// Force close if graceful shutdown fails
		if closeErr := s.server.Close(); closeErr != nil {
			return fmt.Errorf("failed to close server: %w", closeErr)
		}
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	s.logger.Info("server stopped gracefully")
	return nil
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET "+healthPath, s.healthCheckHandler)
	if s.metrics != nil {
		mux.Handle("GET "+s.config.Observability.MetricsPath, s.metrics.Handler())
	}

	mux.HandleFunc("POST /api/links", s.handler.CreateLink)
	mux.HandleFunc("GET /api/links", s.handler.ListLinks)
	mux.HandleFunc("GET /api/links/{code}", s.handler.GetLink)
	mux.HandleFunc("DELETE /api/links/{code}", s.handler.DeleteLink)

	mux.HandleFunc("GET /{code}", s.handler.ResolveLink)

	return mux
}

// applyMiddleware wraps the handler with middleware in the correct order.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	var observe httpx.ObserveFunc
	if s.metrics != nil {
		observe = s.metrics.ObserveHTTP
	}

	return httpx.Chain(
		httpx.Recovery(s.logger),                   // Outermost: catch panics
		httpx.RequestID(idgen.NewV7()),             // Add request ID
		httpx.Logger(s.logger),                     // Log requests
		httpx.Metrics(observe),                     // Latency by route pattern
		httpx.CORS(s.config.Server.AllowedOrigins), // Empty list allows all
	)(handler)
}

// healthCheckHandler reports service identity and store reachability.
func (s *Server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK

	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		if err := s.store.Ping(ctx); err != nil {
			s.logger.WarnContext(ctx, "health check failed", "error", err)
			status, code = "unavailable", http.StatusServiceUnavailable
		}
	}

	httpx.WriteJSON(w, code, map[string]string{
		"status":  status,
		"service": s.config.Observability.ServiceName,
		"version": s.config.Observability.ServiceVersion,
	})
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	s.logger.Info("shutting down server")

	if err := s.server.Shutdown(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("shutdown timeout exceeded, forcing close")
			return s.server.Close()
		}
		return err
	}

	return nil
}
