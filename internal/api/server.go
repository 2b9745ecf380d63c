package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/inkwell/newsletter-platform/internal/auth"
	"github.com/inkwell/newsletter-platform/internal/config"
)

// Server wraps the HTTP server and router.
type Server struct {
	config   config.ServerConfig
	handler  http.Handler
	handlers *Handlers
	server   *http.Server
	router   *chi.Mux
}

// NewServer creates the API server. authManager may be nil for tests.
func NewServer(cfg config.ServerConfig, h *Handlers, authManager *auth.Manager, allowedOrigins []string) *Server {
	router := SetupRoutes(h, authManager, allowedOrigins)
	return &Server{
		config:   cfg,
		handler:  router,
		handlers: h,
		router:   router,
	}
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		// Batch sends settle synchronously within the request, so the write
		// timeout leaves room for a large list on a slow provider.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing
func (s *Server) Handler() http.Handler {
	return s.handler
}
