package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yizus58/api-zoo/internal/core"
	"github.com/yizus58/api-zoo/internal/reports"
	"github.com/yizus58/api-zoo/internal/types"
)

// ReportService is the slice of the report orchestrator the handler uses.
type ReportService interface {
	RunDailyTask(ctx context.Context) (*types.RunSummary, error)
	RenderDaily(ctx context.Context, renderer reports.WorkbookRenderer) ([]byte, error)
	RenderForUser(ctx context.Context, userID string, renderer reports.Renderer) ([]byte, error)
}

// DownloadRenderer is the renderer behind the synchronous download
// endpoint: per-owner documents for self-service callers and one workbook
// spanning every owner for staff. Satisfied by *reports.ExcelRenderer.
type DownloadRenderer interface {
	reports.Renderer
	RenderAll(jobs []types.UserReportJob) ([]byte, error)
}

// EmailPublisher dispatches ad-hoc email messages through the durable queue.
type EmailPublisher interface {
	PublishMessageBackoff(ctx context.Context, msg *types.QueueMessage) error
}

// PublishEmailRequest is the request body for POST /publish-with-backoff.
// Attachments, when present, reference previously uploaded objects by
// display name and storage key.
type PublishEmailRequest struct {
	Recipients  types.Recipients       `json:"recipients" validate:"required,min=1,dive,email"`
	Subject     string                 `json:"subject" validate:"required,max=200"`
	HTML        string                 `json:"html" validate:"required"`
	Text        string                 `json:"text"`
	Attachments types.EmailAttachments `json:"attachments"`
}

// ReportHandler exposes the on-demand report download, the ad-hoc email
// publish endpoint, and the manual trigger for the daily run.
type ReportHandler struct {
	service   ReportService
	publisher EmailPublisher
	excel     DownloadRenderer
	validator *core.Validator
	logger    *slog.Logger
}

// NewReportHandler creates a new ReportHandler. excel is the renderer used
// by the synchronous download endpoint.
func NewReportHandler(
	service ReportService,
	publisher EmailPublisher,
	excel DownloadRenderer,
	v *core.Validator,
	l *slog.Logger,
) *ReportHandler {
	if l == nil {
		l = slog.Default()
	}
	return &ReportHandler{
		service:   service,
		publisher: publisher,
		excel:     excel,
		validator: v,
		logger:    l,
	}
}

// RegisterRoutes mounts the report routes. The manual daily trigger is
// admin-only; the download and publish endpoints require any authenticated
// user.
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/excel/comentarios-del-dia", h.DownloadDaily)
	r.Post("/publish-with-backoff", h.PublishEmail)
	r.With(core.RequireRole(types.RoleAdmin)).Post("/reportes/diario", h.RunDaily)
}

// DownloadDaily handles GET /excel/comentarios-del-dia. It runs the
// aggregation synchronously; nothing is uploaded or published. Staff
// receive the full-day workbook with one sheet per affected owner; other
// callers receive only their own sheet. With formato=archivo the workbook
// is written server-side instead of streamed (staff only).
func (h *ReportHandler) DownloadDaily(w http.ResponseWriter, r *http.Request) {
	actor, ok := types.GetActor(r.Context())
	if !ok {
		core.Error(w, r, types.NewAppError(types.ErrCodeAuthTokenMissing, "authentication required", nil))
		return
	}
	staff := actor.Role == types.RoleAdmin || actor.Role == types.RoleEmpleado

	var data []byte
	var err error
	if staff {
		data, err = h.service.RenderDaily(r.Context(), h.excel)
	} else {
		data, err = h.service.RenderForUser(r.Context(), actor.ID, h.excel)
	}
	if err != nil {
		core.Error(w, r, err)
		return
	}

	if r.URL.Query().Get("formato") == "archivo" {
		if !staff {
			core.Error(w, r, types.NewAppError(types.ErrCodePermissionRole, "insufficient role", nil))
			return
		}
		h.writeReportFile(w, r, data)
		return
	}

	name := fmt.Sprintf("comentarios-animales-%s%s",
		time.Now().UTC().Format("2006-01-02"), h.excel.FileExtension())
	w.Header().Set("Content-Type", h.excel.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.WarnContext(r.Context(), "report download interrupted", "error", err)
	}
}

// writeReportFile stores the workbook under the requested name in the
// process working directory. The name must be bare: anything that could
// escape the directory is rejected.
func (h *ReportHandler) writeReportFile(w http.ResponseWriter, r *http.Request, data []byte) {
	name := r.URL.Query().Get("archivo")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		core.Error(w, r, types.NewAppError(types.ErrCodeValidationMissingField,
			"archivo must be a plain file name", nil))
		return
	}
	if err := os.WriteFile(name, data, 0o644); err != nil {
		core.Error(w, r, types.NewAppError(types.ErrCodeReportGeneration,
			"failed to write report file", err))
		return
	}
	core.JSON(w, r, http.StatusOK, map[string]string{
		"message": "Archivo Excel generado exitosamente",
		"archivo": name,
	})
}

// PublishEmail handles POST /publish-with-backoff.
func (h *ReportHandler) PublishEmail(w http.ResponseWriter, r *http.Request) {
	actor, ok := types.GetActor(r.Context())
	if !ok {
		core.Error(w, r, types.NewAppError(types.ErrCodeAuthTokenMissing, "authentication required", nil))
		return
	}

	var req PublishEmailRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	msg := types.NewEmailMessage(types.EmailPayload{
		UserID:      actor.ID,
		Recipients:  req.Recipients,
		Subject:     req.Subject,
		HTML:        req.HTML,
		Text:        req.Text,
		Attachments: req.Attachments,
	})
	if err := h.publisher.PublishMessageBackoff(r.Context(), msg); err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusAccepted, map[string]any{"published": true})
}

// RunDaily handles POST /reportes/diario. Partial failures still answer 200;
// the embedded error list carries the per-user detail. Only fatal-class
// errors (aggregation failure, overlapping run) produce an error status.
func (h *ReportHandler) RunDaily(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.RunDailyTask(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, summary)
}
