package documents

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/hesabu-biz/hesabu/internal/platform/httpx"
)

// Exporter enqueues background PDF exports. Satisfied by *jobs.Client.
type Exporter interface {
	EnqueueExport(ctx context.Context, documentID int64) (string, error)
}

type Handler struct {
	logger   *slog.Logger
	service  *Service
	exporter Exporter
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, exporter Exporter) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		exporter: exporter,
		validate: validator.New(),
	}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/documents", h.List)
	r.Post("/documents", h.Create)
	r.Get("/documents/next-number", h.NextNumber)
	r.Get("/documents/{id}", h.Show)
	r.Patch("/documents/{id}", h.Update)
	r.Post("/documents/{id}/finalize", h.Finalize)
	r.Get("/documents/{id}/pdf", h.PDF)
	r.Post("/documents/{id}/exports", h.Export)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateDocumentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}

	doc, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("create document failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, doc)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}
	doc, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}
	var req UpdateDocumentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}

	doc, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.logger.Error("update document failed", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req := ListDocumentsRequest{Limit: 50}
	q := r.URL.Query()
	if v := q.Get("type"); v != "" {
		req.Type = &v
	}
	if v := q.Get("status"); v != "" {
		req.Status = &v
	}
	if v := q.Get("customer_id"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.CustomerID = &n
		}
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			req.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			req.Offset = n
		}
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}

	list, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list documents failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"documents": list,
		"total":     total,
		"limit":     req.Limit,
		"offset":    req.Offset,
	})
}

func (h *Handler) Finalize(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}
	doc, err := h.service.Finalize(r.Context(), id)
	if err != nil {
		h.logger.Error("finalize document failed", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

// PDF streams the composed document for download.
func (h *Handler) PDF(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}
	rendered, err := h.service.Render(r.Context(), id)
	if err != nil {
		h.logger.Error("render document failed", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rendered.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(rendered.Data)))
	_, _ = w.Write(rendered.Data)
}

// Export enqueues a background render; the worker writes the PDF to the
// export directory. Fire-and-forget: the job id is returned for log
// correlation only.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}
	if _, err := h.service.Get(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}

	jobID, err := h.exporter.EnqueueExport(r.Context(), id)
	if err != nil {
		h.logger.Error("enqueue export failed", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]any{
		"job_id":      jobID,
		"document_id": id,
	})
}

// NextNumber previews the next number for ?type= without consuming it.
func (h *Handler) NextNumber(w http.ResponseWriter, r *http.Request) {
	docType := r.URL.Query().Get("type")
	number, err := h.service.NextNumber(r.Context(), docType)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{
		"type":   docType,
		"number": number,
	})
}

func (h *Handler) documentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid document id")
		return 0, false
	}
	return id, true
}
