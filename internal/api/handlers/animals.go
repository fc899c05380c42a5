package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/yizus58/api-zoo/internal/core"
	"github.com/yizus58/api-zoo/internal/types"
)

// AnimalStore is the data access contract for animal operations.
type AnimalStore interface {
	GetByID(ctx context.Context, id string) (*types.Animal, error)
	List(ctx context.Context) ([]types.Animal, error)
	Create(ctx context.Context, a *types.Animal) error
	Update(ctx context.Context, a *types.Animal) error
	Delete(ctx context.Context, id string) error
}

// CreateAnimalRequest is the request body for POST /animales. The owner is
// the user who will receive this animal's daily comment reports.
type CreateAnimalRequest struct {
	Name      string `json:"nombre" validate:"required,max=120"`
	SpeciesID string `json:"id_especie" validate:"required,uuid4"`
	OwnerID   string `json:"id_user" validate:"required,uuid4"`
}

// UpdateAnimalRequest is the request body for PUT /animales/{id}. Ownership
// never changes after registration.
type UpdateAnimalRequest struct {
	Name      string `json:"nombre" validate:"required,max=120"`
	SpeciesID string `json:"id_especie" validate:"required,uuid4"`
}

// AnimalHandler manages the animal registry.
type AnimalHandler struct {
	store     AnimalStore
	validator *core.Validator
	logger    *slog.Logger
}

// NewAnimalHandler creates a new AnimalHandler.
func NewAnimalHandler(store AnimalStore, v *core.Validator, l *slog.Logger) *AnimalHandler {
	if l == nil {
		l = slog.Default()
	}
	return &AnimalHandler{store: store, validator: v, logger: l}
}

// RegisterRoutes mounts the animal routes under /animales.
func (h *AnimalHandler) RegisterRoutes(r chi.Router) {
	r.Route("/animales", func(r chi.Router) {
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

// List handles GET /animales.
func (h *AnimalHandler) List(w http.ResponseWriter, r *http.Request) {
	animals, err := h.store.List(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, animals)
}

// Get handles GET /animales/{id}.
func (h *AnimalHandler) Get(w http.ResponseWriter, r *http.Request) {
	animal, err := h.store.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, animal)
}

// Create handles POST /animales.
func (h *AnimalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAnimalRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	animal := &types.Animal{
		ID:        uuid.NewString(),
		Name:      req.Name,
		SpeciesID: req.SpeciesID,
		OwnerID:   req.OwnerID,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.store.Create(r.Context(), animal); err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusCreated, animal)
}

// Update handles PUT /animales/{id}.
func (h *AnimalHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateAnimalRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	animal := &types.Animal{
		ID:        chi.URLParam(r, "id"),
		Name:      req.Name,
		SpeciesID: req.SpeciesID,
	}
	if err := h.store.Update(r.Context(), animal); err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, animal)
}

// Delete handles DELETE /animales/{id}.
func (h *AnimalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		core.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
