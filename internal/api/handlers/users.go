package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/yizus58/api-zoo/internal/auth"
	"github.com/yizus58/api-zoo/internal/core"
	"github.com/yizus58/api-zoo/internal/types"
)

// UserStore is the data access contract for user operations.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*types.User, error)
	List(ctx context.Context) ([]types.User, error)
	Create(ctx context.Context, u *types.User) error
}

// CreateUserRequest is the request body for POST /users.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=ADMIN EMPLEADO USUARIO"`
}

// UserHandler manages account creation and lookup.
type UserHandler struct {
	store     UserStore
	validator *core.Validator
	logger    *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(store UserStore, v *core.Validator, l *slog.Logger) *UserHandler {
	if l == nil {
		l = slog.Default()
	}
	return &UserHandler{store: store, validator: v, logger: l}
}

// RegisterRoutes mounts the user routes. Account creation is reserved for
// administrators; any authenticated user can read the roster or their own
// profile.
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/profile", h.Profile)
		r.With(core.RequireRole(types.RoleAdmin)).Post("/", h.Create)
	})
}

// Create handles POST /users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		core.Error(w, r, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to hash password", err))
		return
	}

	user := &types.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         types.UserRole(req.Role),
	}
	if err := h.store.Create(r.Context(), user); err != nil {
		core.Error(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "user created", "user_id", user.ID, "role", user.Role)
	core.JSON(w, r, http.StatusCreated, user)
}

// List handles GET /users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.List(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, users)
}

// Profile handles GET /users/profile, returning the authenticated account.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	actor, ok := types.GetActor(r.Context())
	if !ok {
		core.Error(w, r, types.NewAppError(types.ErrCodeAuthTokenMissing, "authentication required", nil))
		return
	}
	user, err := h.store.GetByID(r.Context(), actor.ID)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, user)
}
