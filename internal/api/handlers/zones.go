package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/yizus58/api-zoo/internal/core"
	"github.com/yizus58/api-zoo/internal/types"
)

// ZoneStore is the data access contract for zone operations.
type ZoneStore interface {
	GetByID(ctx context.Context, id string) (*types.Zone, error)
	List(ctx context.Context) ([]types.Zone, error)
	Create(ctx context.Context, z *types.Zone) error
	Update(ctx context.Context, z *types.Zone) error
	Delete(ctx context.Context, id string) error
}

// ZoneRequest is the request body for zone creation and renames.
type ZoneRequest struct {
	Name string `json:"nombre" validate:"required,max=120"`
}

// ZoneHandler manages the zoo's physical areas.
type ZoneHandler struct {
	store     ZoneStore
	validator *core.Validator
	logger    *slog.Logger
}

// NewZoneHandler creates a new ZoneHandler.
func NewZoneHandler(store ZoneStore, v *core.Validator, l *slog.Logger) *ZoneHandler {
	if l == nil {
		l = slog.Default()
	}
	return &ZoneHandler{store: store, validator: v, logger: l}
}

// RegisterRoutes mounts the zone routes under /areas. Mutations are
// restricted to administrators.
func (h *ZoneHandler) RegisterRoutes(r chi.Router) {
	r.Route("/areas", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(core.RequireRole(types.RoleAdmin))
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

// List handles GET /areas.
func (h *ZoneHandler) List(w http.ResponseWriter, r *http.Request) {
	zones, err := h.store.List(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, zones)
}

// Get handles GET /areas/{id}.
func (h *ZoneHandler) Get(w http.ResponseWriter, r *http.Request) {
	zone, err := h.store.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, zone)
}

// Create handles POST /areas.
func (h *ZoneHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ZoneRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	zone := &types.Zone{ID: uuid.NewString(), Name: req.Name}
	if err := h.store.Create(r.Context(), zone); err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusCreated, zone)
}

// Update handles PUT /areas/{id}.
func (h *ZoneHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req ZoneRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	zone := &types.Zone{ID: chi.URLParam(r, "id"), Name: req.Name}
	if err := h.store.Update(r.Context(), zone); err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, zone)
}

// Delete handles DELETE /areas/{id}.
func (h *ZoneHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		core.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
