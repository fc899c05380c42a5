// Package indicators computes aggregate animal counts per zone and per
// species for the dashboard endpoints.
package indicators

import (
	"context"
	"log/slog"

	"github.com/yizus58/api-zoo/internal/db"
)

// Repository is the read-side dependency, satisfied by
// *db.IndicatorRepository.
type Repository interface {
	AnimalsByZone(ctx context.Context, id string) ([]db.ZoneTotalRow, error)
	AnimalsBySpecies(ctx context.Context, id string) ([]db.SpeciesTotalRow, error)
}

// Service answers the indicator queries. An empty result is returned as-is;
// the transport layer maps it to a no-content response.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new indicators Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// TotalAnimalsByZone returns the animal count of every zone, or of a single
// zone when zoneID is non-empty. Single-zone rows drop the redundant id
// field from their JSON form.
func (s *Service) TotalAnimalsByZone(ctx context.Context, zoneID string) ([]db.ZoneTotalRow, error) {
	rows, err := s.repo.AnimalsByZone(ctx, zoneID)
	if err != nil {
		return nil, err
	}
	if zoneID != "" {
		for i := range rows {
			rows[i].ID = ""
		}
	}
	return rows, nil
}

// TotalAnimalsBySpecies returns the animal count of every species, or of a
// single species when speciesID is non-empty.
func (s *Service) TotalAnimalsBySpecies(ctx context.Context, speciesID string) ([]db.SpeciesTotalRow, error) {
	return s.repo.AnimalsBySpecies(ctx, speciesID)
}
