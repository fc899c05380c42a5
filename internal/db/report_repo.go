package db

import (
	"context"
	"time"

	"github.com/yizus58/api-zoo/internal/types"
)

// CommentOfDayRow is one comment inside the aggregation window with its
// animal relations resolved through LEFT JOINs. The joined fields are
// pointers because a dangling animal reference must surface as a skippable
// row, not a query failure.
type CommentOfDayRow struct {
	ID          string
	Text        string
	ParentID    *string
	CreatedAt   time.Time
	AuthorEmail string

	AnimalID    *string
	AnimalName  *string
	SpeciesName *string
	ZoneName    *string
	OwnerID     *string
	OwnerEmail  *string
}

// Resolved reports whether the full zone/species/animal/owner chain was
// found for this comment.
func (r CommentOfDayRow) Resolved() bool {
	return r.AnimalID != nil && r.AnimalName != nil && r.SpeciesName != nil &&
		r.ZoneName != nil && r.OwnerID != nil && r.OwnerEmail != nil
}

// ReportRepository runs the read queries behind the daily report pipeline.
type ReportRepository struct {
	db DBTX
}

// NewReportRepository creates a new ReportRepository.
func NewReportRepository(db DBTX) *ReportRepository {
	return &ReportRepository{db: db}
}

// CommentsBetween returns every comment (top-level and replies) whose
// timestamp falls inside [start, end] inclusive, ordered by timestamp then
// id so repeated runs over unchanged data produce identical output. The
// animal/species/zone/owner chain is LEFT JOINed; unresolvable relations
// come back as NULLs for the aggregator to skip.
func (r *ReportRepository) CommentsBetween(ctx context.Context, start, end time.Time) ([]CommentOfDayRow, error) {
	rows, err := r.db.Query(ctx,
		`SELECT c.id, c.comentario, c.id_comentario_principal, c.fecha, cu.email,
		        an.id, an.nombre, s.nombre, a.nombre, ou.id, ou.email
		 FROM comments c
		 JOIN users cu ON cu.id = c.id_user
		 LEFT JOIN animals an ON an.id = c.id_animal
		 LEFT JOIN species s ON s.id = an.id_especie
		 LEFT JOIN areas a ON a.id = s.id_area
		 LEFT JOIN users ou ON ou.id = an.id_user
		 WHERE c.fecha >= $1 AND c.fecha <= $2
		 ORDER BY c.fecha, c.id`,
		start, end)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query comments of the day", err)
	}
	defer rows.Close()

	var result []CommentOfDayRow
	for rows.Next() {
		var row CommentOfDayRow
		err := rows.Scan(&row.ID, &row.Text, &row.ParentID, &row.CreatedAt, &row.AuthorEmail,
			&row.AnimalID, &row.AnimalName, &row.SpeciesName, &row.ZoneName,
			&row.OwnerID, &row.OwnerEmail)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan comment row", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to read comment rows", err)
	}
	return result, nil
}
