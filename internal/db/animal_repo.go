package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/yizus58/api-zoo/internal/types"
)

// AnimalRepository provides data access for the animals table.
type AnimalRepository struct {
	db DBTX
}

// NewAnimalRepository creates a new AnimalRepository.
func NewAnimalRepository(db DBTX) *AnimalRepository {
	return &AnimalRepository{db: db}
}

const animalColumns = `an.id, an.nombre, an.id_especie, an.id_user, an.fecha`

func scanAnimal(row pgx.Row) (*types.Animal, error) {
	var a types.Animal
	err := row.Scan(&a.ID, &a.Name, &a.SpeciesID, &a.OwnerID, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByID retrieves an animal by primary key.
func (r *AnimalRepository) GetByID(ctx context.Context, id string) (*types.Animal, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+animalColumns+` FROM animals an WHERE an.id = $1`, id)

	a, err := scanAnimal(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundAnimal, "animal not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve animal", err)
	}
	return a, nil
}

// List returns all animals ordered by name.
func (r *AnimalRepository) List(ctx context.Context) ([]types.Animal, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+animalColumns+` FROM animals an ORDER BY an.nombre`)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list animals", err)
	}
	defer rows.Close()

	var animals []types.Animal
	for rows.Next() {
		a, err := scanAnimal(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan animal", err)
		}
		animals = append(animals, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to read animals", err)
	}
	return animals, nil
}

// Create inserts a new animal. The species and owner must exist.
func (r *AnimalRepository) Create(ctx context.Context, a *types.Animal) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO animals (id, nombre, id_especie, id_user, fecha)
		 VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.Name, a.SpeciesID, a.OwnerID, a.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return types.NewAppError(types.ErrCodeConflictName, "animal name already exists", err)
		}
		if isForeignKeyViolation(err) {
			return types.NewAppError(types.ErrCodeNotFoundSpecies, "species or owner not found", err)
		}
		return types.NewAppError(types.ErrCodeInternalDB, "failed to create animal", err)
	}
	return nil
}

// Update modifies an animal's name and species.
func (r *AnimalRepository) Update(ctx context.Context, a *types.Animal) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE animals SET nombre = $1, id_especie = $2 WHERE id = $3`,
		a.Name, a.SpeciesID, a.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return types.NewAppError(types.ErrCodeConflictName, "animal name already exists", err)
		}
		if isForeignKeyViolation(err) {
			return types.NewAppError(types.ErrCodeNotFoundSpecies, "species not found", err)
		}
		return types.NewAppError(types.ErrCodeInternalDB, "failed to update animal", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundAnimal, "animal not found", nil)
	}
	return nil
}

// Delete removes an animal by id.
func (r *AnimalRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM animals WHERE id = $1`, id)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to delete animal", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundAnimal, "animal not found", nil)
	}
	return nil
}
