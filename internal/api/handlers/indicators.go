package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yizus58/api-zoo/internal/core"
	"github.com/yizus58/api-zoo/internal/db"
)

// IndicatorService computes the aggregate animal counts.
type IndicatorService interface {
	TotalAnimalsByZone(ctx context.Context, zoneID string) ([]db.ZoneTotalRow, error)
	TotalAnimalsBySpecies(ctx context.Context, speciesID string) ([]db.SpeciesTotalRow, error)
}

// IndicatorHandler exposes the dashboard count endpoints. Empty datasets
// answer 204 rather than an empty array.
type IndicatorHandler struct {
	service IndicatorService
	logger  *slog.Logger
}

// NewIndicatorHandler creates a new IndicatorHandler.
func NewIndicatorHandler(service IndicatorService, l *slog.Logger) *IndicatorHandler {
	if l == nil {
		l = slog.Default()
	}
	return &IndicatorHandler{service: service, logger: l}
}

// RegisterRoutes mounts the indicator routes under /indicadores.
func (h *IndicatorHandler) RegisterRoutes(r chi.Router) {
	r.Route("/indicadores", func(r chi.Router) {
		r.Get("/total-animales", h.TotalByZone)
		r.Get("/total-animales/{id}", h.TotalByZone)
		r.Get("/total-animales-especies", h.TotalBySpecies)
		r.Get("/total-animales-especies/{id}", h.TotalBySpecies)
	})
}

// TotalByZone handles GET /indicadores/total-animales[/{id}].
func (h *IndicatorHandler) TotalByZone(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.TotalAnimalsByZone(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if len(rows) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	core.JSON(w, r, http.StatusOK, rows)
}

// TotalBySpecies handles GET /indicadores/total-animales-especies[/{id}].
func (h *IndicatorHandler) TotalBySpecies(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.TotalAnimalsBySpecies(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if len(rows) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	core.JSON(w, r, http.StatusOK, rows)
}
