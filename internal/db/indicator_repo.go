package db

import (
	"context"

	"github.com/yizus58/api-zoo/internal/types"
)

// ZoneTotalRow is one row of the animals-per-zone indicator.
type ZoneTotalRow struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	TotalAnimals int    `json:"total animals"`
}

// SpeciesTotalRow is one row of the animals-per-species indicator.
type SpeciesTotalRow struct {
	ID           string `json:"id"`
	Name         string `json:"nombre"`
	TotalAnimals int    `json:"total animals"`
}

// IndicatorRepository runs the aggregate count queries behind the
// indicators endpoints.
type IndicatorRepository struct {
	db DBTX
}

// NewIndicatorRepository creates a new IndicatorRepository.
func NewIndicatorRepository(db DBTX) *IndicatorRepository {
	return &IndicatorRepository{db: db}
}

// AnimalsByZone counts animals per zone. When id is non-empty the result is
// restricted to that zone.
func (r *IndicatorRepository) AnimalsByZone(ctx context.Context, id string) ([]ZoneTotalRow, error) {
	query := `SELECT a.id, a.nombre, COUNT(an.id)
	          FROM areas a
	          LEFT JOIN species s ON s.id_area = a.id
	          LEFT JOIN animals an ON an.id_especie = s.id`
	args := []any{}
	if id != "" {
		query += ` WHERE a.id = $1`
		args = append(args, id)
	}
	query += ` GROUP BY a.id, a.nombre ORDER BY a.nombre`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to count animals by zone", err)
	}
	defer rows.Close()

	var result []ZoneTotalRow
	for rows.Next() {
		var row ZoneTotalRow
		if err := rows.Scan(&row.ID, &row.Name, &row.TotalAnimals); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan zone total", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to read zone totals", err)
	}
	return result, nil
}

// AnimalsBySpecies counts animals per species. When id is non-empty the
// result is restricted to that species.
func (r *IndicatorRepository) AnimalsBySpecies(ctx context.Context, id string) ([]SpeciesTotalRow, error) {
	query := `SELECT s.id, s.nombre, COUNT(an.id)
	          FROM species s
	          LEFT JOIN animals an ON an.id_especie = s.id`
	args := []any{}
	if id != "" {
		query += ` WHERE s.id = $1`
		args = append(args, id)
	}
	query += ` GROUP BY s.id, s.nombre ORDER BY s.nombre`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to count animals by species", err)
	}
	defer rows.Close()

	var result []SpeciesTotalRow
	for rows.Next() {
		var row SpeciesTotalRow
		if err := rows.Scan(&row.ID, &row.Name, &row.TotalAnimals); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan species total", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to read species totals", err)
	}
	return result, nil
}
