package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/yizus58/api-zoo/internal/types"
)

// ZoneRepository provides data access for the areas table.
type ZoneRepository struct {
	db DBTX
}

// NewZoneRepository creates a new ZoneRepository.
func NewZoneRepository(db DBTX) *ZoneRepository {
	return &ZoneRepository{db: db}
}

// GetByID retrieves a zone by primary key.
func (r *ZoneRepository) GetByID(ctx context.Context, id string) (*types.Zone, error) {
	var z types.Zone
	err := r.db.QueryRow(ctx,
		`SELECT a.id, a.nombre FROM areas a WHERE a.id = $1`, id).
		Scan(&z.ID, &z.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundZone, "zone not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve zone", err)
	}
	return &z, nil
}

// List returns all zones ordered by name.
func (r *ZoneRepository) List(ctx context.Context) ([]types.Zone, error) {
	rows, err := r.db.Query(ctx, `SELECT a.id, a.nombre FROM areas a ORDER BY a.nombre`)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list zones", err)
	}
	defer rows.Close()

	var zones []types.Zone
	for rows.Next() {
		var z types.Zone
		if err := rows.Scan(&z.ID, &z.Name); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan zone", err)
		}
		zones = append(zones, z)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to read zones", err)
	}
	return zones, nil
}

// Create inserts a new zone. Zone names are unique.
func (r *ZoneRepository) Create(ctx context.Context, z *types.Zone) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO areas (id, nombre) VALUES ($1, $2)`, z.ID, z.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return types.NewAppError(types.ErrCodeConflictName, "zone name already exists", err)
		}
		return types.NewAppError(types.ErrCodeInternalDB, "failed to create zone", err)
	}
	return nil
}

// Update renames a zone.
func (r *ZoneRepository) Update(ctx context.Context, z *types.Zone) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE areas SET nombre = $1 WHERE id = $2`, z.Name, z.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return types.NewAppError(types.ErrCodeConflictName, "zone name already exists", err)
		}
		return types.NewAppError(types.ErrCodeInternalDB, "failed to update zone", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundZone, "zone not found", nil)
	}
	return nil
}

// Delete removes a zone by id.
func (r *ZoneRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM areas WHERE id = $1`, id)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to delete zone", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundZone, "zone not found", nil)
	}
	return nil
}
