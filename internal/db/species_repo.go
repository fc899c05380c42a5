package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yizus58/api-zoo/internal/types"
)

// SpeciesRepository provides data access for the species table.
type SpeciesRepository struct {
	db DBTX
}

// NewSpeciesRepository creates a new SpeciesRepository.
func NewSpeciesRepository(db DBTX) *SpeciesRepository {
	return &SpeciesRepository{db: db}
}

// GetByID retrieves a species by primary key.
func (r *SpeciesRepository) GetByID(ctx context.Context, id string) (*types.Species, error) {
	var s types.Species
	err := r.db.QueryRow(ctx,
		`SELECT s.id, s.nombre, s.id_area FROM species s WHERE s.id = $1`, id).
		Scan(&s.ID, &s.Name, &s.ZoneID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundSpecies, "species not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve species", err)
	}
	return &s, nil
}

// List returns all species ordered by name.
func (r *SpeciesRepository) List(ctx context.Context) ([]types.Species, error) {
	rows, err := r.db.Query(ctx,
		`SELECT s.id, s.nombre, s.id_area FROM species s ORDER BY s.nombre`)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list species", err)
	}
	defer rows.Close()

	var list []types.Species
	for rows.Next() {
		var s types.Species
		if err := rows.Scan(&s.ID, &s.Name, &s.ZoneID); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan species", err)
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to read species", err)
	}
	return list, nil
}

// Create inserts a new species. The referenced zone must exist.
func (r *SpeciesRepository) Create(ctx context.Context, s *types.Species) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO species (id, nombre, id_area) VALUES ($1, $2, $3)`,
		s.ID, s.Name, s.ZoneID)
	if err != nil {
		if isUniqueViolation(err) {
			return types.NewAppError(types.ErrCodeConflictName, "species name already exists", err)
		}
		if isForeignKeyViolation(err) {
			return types.NewAppError(types.ErrCodeNotFoundZone, "zone not found", err)
		}
		return types.NewAppError(types.ErrCodeInternalDB, "failed to create species", err)
	}
	return nil
}

// Update modifies a species name and zone assignment.
func (r *SpeciesRepository) Update(ctx context.Context, s *types.Species) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE species SET nombre = $1, id_area = $2 WHERE id = $3`,
		s.Name, s.ZoneID, s.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return types.NewAppError(types.ErrCodeConflictName, "species name already exists", err)
		}
		if isForeignKeyViolation(err) {
			return types.NewAppError(types.ErrCodeNotFoundZone, "zone not found", err)
		}
		return types.NewAppError(types.ErrCodeInternalDB, "failed to update species", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundSpecies, "species not found", nil)
	}
	return nil
}

// Delete removes a species by id.
func (r *SpeciesRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM species WHERE id = $1`, id)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to delete species", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundSpecies, "species not found", nil)
	}
	return nil
}

// isForeignKeyViolation reports whether err is a Postgres foreign key
// violation (SQLSTATE 23503).
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
