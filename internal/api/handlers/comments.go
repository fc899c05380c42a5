package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/yizus58/api-zoo/internal/core"
	"github.com/yizus58/api-zoo/internal/db"
	"github.com/yizus58/api-zoo/internal/types"
)

// CommentStore is the data access contract for comment operations.
type CommentStore interface {
	GetByID(ctx context.Context, id string) (*types.Comment, error)
	ListByAnimal(ctx context.Context, animalID string) ([]db.CommentView, error)
	ListAll(ctx context.Context) ([]db.CommentView, error)
	Create(ctx context.Context, c *types.Comment) error
	Update(ctx context.Context, id, text string) error
	Delete(ctx context.Context, id string) error
}

// CreateCommentRequest is the request body for POST /comentarios. A set
// ParentID makes the comment a reply.
type CreateCommentRequest struct {
	Text     string `json:"comentario" validate:"required,max=2000"`
	AnimalID string `json:"id_animal" validate:"required,uuid4"`
	ParentID string `json:"id_comentario_principal" validate:"omitempty,uuid4"`
}

// UpdateCommentRequest is the request body for PUT /comentarios/{id}.
type UpdateCommentRequest struct {
	Text string `json:"comentario" validate:"required,max=2000"`
}

// CommentHandler manages threaded comments on animals. Any authenticated
// user may comment; editing is restricted to the author, deletion to the
// author or an admin.
type CommentHandler struct {
	store     CommentStore
	validator *core.Validator
	logger    *slog.Logger
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(store CommentStore, v *core.Validator, l *slog.Logger) *CommentHandler {
	if l == nil {
		l = slog.Default()
	}
	return &CommentHandler{store: store, validator: v, logger: l}
}

// RegisterRoutes mounts the comment routes under /comentarios.
func (h *CommentHandler) RegisterRoutes(r chi.Router) {
	r.Route("/comentarios", func(r chi.Router) {
		r.Get("/", h.ListAll)
		r.Get("/animal/{id}", h.ListByAnimal)
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// ListAll handles GET /comentarios.
func (h *CommentHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	comments, err := h.store.ListAll(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, comments)
}

// ListByAnimal handles GET /comentarios/animal/{id}.
func (h *CommentHandler) ListByAnimal(w http.ResponseWriter, r *http.Request) {
	comments, err := h.store.ListByAnimal(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, comments)
}

// Create handles POST /comentarios.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := types.GetActor(r.Context())
	if !ok {
		core.Error(w, r, types.NewAppError(types.ErrCodeAuthTokenMissing, "authentication required", nil))
		return
	}

	var req CreateCommentRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	comment := &types.Comment{
		ID:        uuid.NewString(),
		Text:      req.Text,
		AnimalID:  req.AnimalID,
		AuthorID:  actor.ID,
		CreatedAt: time.Now().UTC(),
	}

	// Threading is one level deep: a reply must target a top-level comment
	// on the same animal.
	if req.ParentID != "" {
		parent, err := h.store.GetByID(r.Context(), req.ParentID)
		if err != nil {
			core.Error(w, r, err)
			return
		}
		if parent.IsReply() {
			core.Error(w, r, types.NewAppError(types.ErrCodeValidationInvalidBody,
				"cannot reply to a reply", nil))
			return
		}
		if parent.AnimalID != req.AnimalID {
			core.Error(w, r, types.NewAppError(types.ErrCodeValidationInvalidBody,
				"parent comment belongs to a different animal", nil))
			return
		}
		comment.ParentID = &req.ParentID
	}

	if err := h.store.Create(r.Context(), comment); err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusCreated, comment)
}

// Update handles PUT /comentarios/{id}.
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := types.GetActor(r.Context())
	if !ok {
		core.Error(w, r, types.NewAppError(types.ErrCodeAuthTokenMissing, "authentication required", nil))
		return
	}

	var req UpdateCommentRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	comment, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if comment.AuthorID != actor.ID {
		core.Error(w, r, types.NewAppError(types.ErrCodePermissionOwner,
			"only the author may edit a comment", nil))
		return
	}

	if err := h.store.Update(r.Context(), id, req.Text); err != nil {
		core.Error(w, r, err)
		return
	}
	comment.Text = req.Text
	core.JSON(w, r, http.StatusOK, comment)
}

// Delete handles DELETE /comentarios/{id}.
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := types.GetActor(r.Context())
	if !ok {
		core.Error(w, r, types.NewAppError(types.ErrCodeAuthTokenMissing, "authentication required", nil))
		return
	}

	id := chi.URLParam(r, "id")
	comment, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if comment.AuthorID != actor.ID && actor.Role != types.RoleAdmin {
		core.Error(w, r, types.NewAppError(types.ErrCodePermissionOwner,
			"only the author or an admin may delete a comment", nil))
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		core.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
