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

// SpeciesStore is the data access contract for species operations.
type SpeciesStore interface {
	GetByID(ctx context.Context, id string) (*types.Species, error)
	List(ctx context.Context) ([]types.Species, error)
	Create(ctx context.Context, s *types.Species) error
	Update(ctx context.Context, s *types.Species) error
	Delete(ctx context.Context, id string) error
}

// SpeciesRequest is the request body for species creation and updates.
type SpeciesRequest struct {
	Name   string `json:"nombre" validate:"required,max=120"`
	ZoneID string `json:"id_area" validate:"required,uuid4"`
}

// SpeciesHandler manages the species catalog.
type SpeciesHandler struct {
	store     SpeciesStore
	validator *core.Validator
	logger    *slog.Logger
}

// NewSpeciesHandler creates a new SpeciesHandler.
func NewSpeciesHandler(store SpeciesStore, v *core.Validator, l *slog.Logger) *SpeciesHandler {
	if l == nil {
		l = slog.Default()
	}
	return &SpeciesHandler{store: store, validator: v, logger: l}
}

// RegisterRoutes mounts the species routes under /especies. Staff (admin or
// empleado) may mutate; reads are open to any authenticated user.
func (h *SpeciesHandler) RegisterRoutes(r chi.Router) {
	r.Route("/especies", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(core.RequireRole(types.RoleAdmin, types.RoleEmpleado))
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

// List handles GET /especies.
func (h *SpeciesHandler) List(w http.ResponseWriter, r *http.Request) {
	species, err := h.store.List(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, species)
}

// Get handles GET /especies/{id}.
func (h *SpeciesHandler) Get(w http.ResponseWriter, r *http.Request) {
	sp, err := h.store.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, sp)
}

// Create handles POST /especies.
func (h *SpeciesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req SpeciesRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	sp := &types.Species{ID: uuid.NewString(), Name: req.Name, ZoneID: req.ZoneID}
	if err := h.store.Create(r.Context(), sp); err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusCreated, sp)
}

// Update handles PUT /especies/{id}.
func (h *SpeciesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req SpeciesRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	sp := &types.Species{ID: chi.URLParam(r, "id"), Name: req.Name, ZoneID: req.ZoneID}
	if err := h.store.Update(r.Context(), sp); err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, sp)
}

// Delete handles DELETE /especies/{id}.
func (h *SpeciesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		core.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
