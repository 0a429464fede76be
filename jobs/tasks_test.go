package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hesabu-biz/hesabu/internal/documents"
	jobmetrics "github.com/hesabu-biz/hesabu/internal/jobs"
)

type stubRenderer struct {
	rendered *documents.Rendered
	err      error
	calls    int
}

func (s *stubRenderer) Render(_ context.Context, id int64) (*documents.Rendered, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.rendered, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func exportTask(t *testing.T, payload ExportDocumentPayload) *asynq.Task {
	t.Helper()
	task, err := NewExportDocumentTask(payload)
	require.NoError(t, err)
	return task
}

func TestExportHandlerWritesPDF(t *testing.T) {
	dir := t.TempDir()
	renderer := &stubRenderer{rendered: &documents.Rendered{
		Data:     []byte("%PDF-1.4 fake"),
		Filename: "Hesabu_Trading_Co_invoice_INV-2025-000007.pdf",
	}}
	metrics := jobmetrics.NewMetrics(prometheus.NewRegistry())
	handler := NewExportHandler(renderer, dir, metrics, testLogger())

	task := exportTask(t, ExportDocumentPayload{DocumentID: 7, JobID: "job-1"})
	require.NoError(t, handler(context.Background(), task))

	data, err := os.ReadFile(filepath.Join(dir, renderer.rendered.Filename))
	require.NoError(t, err)
	assert.Equal(t, renderer.rendered.Data, data)
}

func TestExportHandlerPropagatesRenderFailure(t *testing.T) {
	renderer := &stubRenderer{err: errors.New("boom")}
	metrics := jobmetrics.NewMetrics(prometheus.NewRegistry())
	handler := NewExportHandler(renderer, t.TempDir(), metrics, testLogger())

	task := exportTask(t, ExportDocumentPayload{DocumentID: 7})
	err := handler(context.Background(), task)
	assert.Error(t, err)
}

func TestExportHandlerSkipsRetryOnBadPayload(t *testing.T) {
	metrics := jobmetrics.NewMetrics(prometheus.NewRegistry())
	renderer := &stubRenderer{}
	handler := NewExportHandler(renderer, t.TempDir(), metrics, testLogger())

	task := asynq.NewTask(TaskTypeExportDocument, []byte("{not json"))
	err := handler(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Zero(t, renderer.calls)
}

func TestExportPayloadRoundTrip(t *testing.T) {
	task := exportTask(t, ExportDocumentPayload{DocumentID: 42, JobID: "abc"})

	var got ExportDocumentPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &got))
	assert.Equal(t, int64(42), got.DocumentID)
	assert.Equal(t, "abc", got.JobID)
}
