// Package core provides the API chassis for the zoo platform. It creates a
// chi router and enforces cross-cutting concerns -- request identity,
// logging, panic recovery, authentication -- before requests reach
// domain-specific handlers.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yizus58/api-zoo/internal/config"
)

// Server encapsulates the router and shared handler dependencies, allowing
// injection during testing and distinct configuration per environment.
type Server struct {
	Config    *config.Config
	Logger    *slog.Logger
	Validator *Validator

	// RouteRegistrars are mounted under the authenticated route group by
	// MountRoutes. Handlers append themselves here during wiring.
	RouteRegistrars []func(r chi.Router)

	// PublicRouteRegistrars are mounted without authentication (login,
	// health).
	PublicRouteRegistrars []func(r chi.Router)

	// Authenticator resolves a bearer token to an Actor; see
	// middleware_auth.go.
	Authenticator TokenVerifier

	router *chi.Mux
}

// NewServer initializes the chassis. The caller mounts routes after
// construction via MountRoutes.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config:    cfg,
		Logger:    logger,
		Validator: NewValidator(),
		router:    chi.NewRouter(),
	}, nil
}

// MountRoutes installs the middleware chain and registered routes. The
// recoverer is outermost so every panic is caught; the request ID runs
// before logging so log lines carry it.
func (s *Server) MountRoutes() {
	s.router.Use(s.Recoverer)
	s.router.Use(RequestID)
	s.router.Use(RequestLogger(s.Logger))

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	for _, register := range s.PublicRouteRegistrars {
		register(s.router)
	}

	s.router.Group(func(r chi.Router) {
		r.Use(s.RequireAuth)
		for _, register := range s.RouteRegistrars {
			register(r)
		}
	})
}

// Handler returns the http.Handler for http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux for tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Shutdown logs the server teardown. Resource closing (pool, broker) is
// owned by the process entry point that opened them.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.InfoContext(ctx, "server shutdown complete")
	return nil
}
