package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/yizus58/api-zoo/internal/types"
)

// CommentView is the API-facing projection of a comment with its animal and
// author resolved. Replies are nested one level deep; the API does not
// thread beyond parent/child.
type CommentView struct {
	ID        string        `json:"id"`
	Text      string        `json:"comentario"`
	Animal    string        `json:"animal"`
	Author    string        `json:"autor"`
	CreatedAt time.Time     `json:"fecha"`
	Replies   []CommentView `json:"respuestas,omitempty"`
}

// CommentRepository provides data access for the comments table.
type CommentRepository struct {
	db DBTX
}

// NewCommentRepository creates a new CommentRepository.
func NewCommentRepository(db DBTX) *CommentRepository {
	return &CommentRepository{db: db}
}

// GetByID retrieves a comment by primary key.
func (r *CommentRepository) GetByID(ctx context.Context, id string) (*types.Comment, error) {
	var c types.Comment
	err := r.db.QueryRow(ctx,
		`SELECT c.id, c.comentario, c.id_animal, c.id_user, c.id_comentario_principal, c.fecha
		 FROM comments c WHERE c.id = $1`, id).
		Scan(&c.ID, &c.Text, &c.AnimalID, &c.AuthorID, &c.ParentID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundComment, "comment not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve comment", err)
	}
	return &c, nil
}

// ListByAnimal returns the top-level comments for one animal with their
// replies nested, oldest first.
func (r *CommentRepository) ListByAnimal(ctx context.Context, animalID string) ([]CommentView, error) {
	rows, err := r.db.Query(ctx,
		`SELECT c.id, c.comentario, an.nombre, u.email, c.fecha, c.id_comentario_principal
		 FROM comments c
		 JOIN animals an ON an.id = c.id_animal
		 JOIN users u ON u.id = c.id_user
		 WHERE c.id_animal = $1
		 ORDER BY c.fecha`, animalID)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list comments", err)
	}
	defer rows.Close()

	return collectCommentViews(rows)
}

// ListAll returns every top-level comment with replies nested, oldest first.
func (r *CommentRepository) ListAll(ctx context.Context) ([]CommentView, error) {
	rows, err := r.db.Query(ctx,
		`SELECT c.id, c.comentario, an.nombre, u.email, c.fecha, c.id_comentario_principal
		 FROM comments c
		 JOIN animals an ON an.id = c.id_animal
		 JOIN users u ON u.id = c.id_user
		 ORDER BY c.fecha`)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list comments", err)
	}
	defer rows.Close()

	return collectCommentViews(rows)
}

// collectCommentViews scans joined comment rows and nests replies under
// their parents. Replies whose parent is not part of the result set are
// dropped; the thread model is one level deep.
func collectCommentViews(rows pgx.Rows) ([]CommentView, error) {
	type flatRow struct {
		view     CommentView
		parentID *string
	}

	var flat []flatRow
	for rows.Next() {
		var fr flatRow
		err := rows.Scan(&fr.view.ID, &fr.view.Text, &fr.view.Animal,
			&fr.view.Author, &fr.view.CreatedAt, &fr.parentID)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan comment", err)
		}
		flat = append(flat, fr)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to read comments", err)
	}

	byID := make(map[string]int, len(flat))
	var result []CommentView
	for _, fr := range flat {
		if fr.parentID == nil || *fr.parentID == "" {
			result = append(result, fr.view)
			byID[fr.view.ID] = len(result) - 1
		}
	}
	for _, fr := range flat {
		if fr.parentID == nil || *fr.parentID == "" {
			continue
		}
		if idx, ok := byID[*fr.parentID]; ok {
			result[idx].Replies = append(result[idx].Replies, fr.view)
		}
	}
	return result, nil
}

// Create inserts a new comment. Animal, author, and (when set) the parent
// comment must exist.
func (r *CommentRepository) Create(ctx context.Context, c *types.Comment) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO comments (id, comentario, id_animal, id_user, id_comentario_principal, fecha)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.Text, c.AnimalID, c.AuthorID, c.ParentID, c.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return types.NewAppError(types.ErrCodeNotFoundAnimal, "animal, user, or parent comment not found", err)
		}
		return types.NewAppError(types.ErrCodeInternalDB, "failed to create comment", err)
	}
	return nil
}

// Update changes the text of an existing comment.
func (r *CommentRepository) Update(ctx context.Context, id, text string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE comments SET comentario = $1 WHERE id = $2`, text, id)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to update comment", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundComment, "comment not found", nil)
	}
	return nil
}

// Delete removes a comment and, through the FK cascade, its replies.
func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to delete comment", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundComment, "comment not found", nil)
	}
	return nil
}
