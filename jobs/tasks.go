// Package jobs wires background work through Asynq: PDF exports are
// enqueued by the HTTP API and rendered out-of-band by cmd/worker.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/hesabu-biz/hesabu/internal/documents"
	jobmetrics "github.com/hesabu-biz/hesabu/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeExportDocument renders a document to PDF and stores it in
	// the export directory.
	TaskTypeExportDocument = "document:export"
)

// ExportDocumentPayload identifies the document to render. JobID
// correlates worker logs with the API response that enqueued the task.
type ExportDocumentPayload struct {
	DocumentID int64  `json:"document_id"`
	JobID      string `json:"job_id"`
}

// NewExportDocumentTask constructs an Asynq task.
func NewExportDocumentTask(payload ExportDocumentPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeExportDocument, data), nil
}

// Renderer produces finished PDFs. Satisfied by *documents.Service.
type Renderer interface {
	Render(ctx context.Context, id int64) (*documents.Rendered, error)
}

// NewExportHandler returns the handler for TaskTypeExportDocument. The
// rendered file lands in exportDir under the document's canonical
// filename; re-running a job overwrites the previous export.
func NewExportHandler(renderer Renderer, exportDir string, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ExportDocumentPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			logger.Error("bad export payload", slog.Any("error", err))
			return asynq.SkipRetry
		}

		tracker := metrics.Track("document_export")
		err := exportDocument(ctx, renderer, exportDir, payload, metrics, logger)
		return tracker.End(err)
	}
}

func exportDocument(ctx context.Context, renderer Renderer, exportDir string, payload ExportDocumentPayload, metrics *jobmetrics.Metrics, logger *slog.Logger) error {
	rendered, err := renderer.Render(ctx, payload.DocumentID)
	if err != nil {
		return fmt.Errorf("render document %d: %w", payload.DocumentID, err)
	}

	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(exportDir, rendered.Filename)
	if err := os.WriteFile(path, rendered.Data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}

	metrics.AddExport(documentTypeFromFilename(rendered.Filename))
	logger.Info("document exported",
		slog.String("job_id", payload.JobID),
		slog.Int64("document_id", payload.DocumentID),
		slog.String("path", path),
		slog.Int("bytes", len(rendered.Data)))
	return nil
}

// documentTypeFromFilename pulls the type segment out of
// "{company}_{type}_{id}.pdf" for metric labeling; unknown shapes map
// to "unknown" rather than polluting the label space.
func documentTypeFromFilename(name string) string {
	for _, t := range []string{"invoice", "quotation", "proforma"} {
		if strings.Contains(name, "_"+t+"_") {
			return t
		}
	}
	return "unknown"
}
