// Package handlers contains the HTTP handler implementations for the zoo
// API. Every handler depends on small locally-defined interfaces so tests
// can inject fakes without touching the database or the broker.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yizus58/api-zoo/internal/auth"
	"github.com/yizus58/api-zoo/internal/core"
)

// LoginService verifies credentials and issues a token.
type LoginService interface {
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
}

// LoginRequest is the request body for POST /auth.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=4"`
}

// AuthHandler exposes the login endpoint.
type AuthHandler struct {
	service   LoginService
	validator *core.Validator
	logger    *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service LoginService, v *core.Validator, l *slog.Logger) *AuthHandler {
	if l == nil {
		l = slog.Default()
	}
	return &AuthHandler{service: service, validator: v, logger: l}
}

// RegisterRoutes mounts the public auth routes.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth", h.Login)
}

// Login handles POST /auth.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, result)
}
