package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/drive-backup-api/internal/models"
	appErrors "github.com/noah-isme/drive-backup-api/pkg/errors"
)

type stubReportStorage struct {
	saved   map[string][]byte
	cleaned bool
}

func (s *stubReportStorage) Save(filename string, data []byte) (string, error) {
	if s.saved == nil {
		s.saved = map[string][]byte{}
	}
	s.saved[filename] = data
	return filename, nil
}

func (s *stubReportStorage) CleanupOlderThan(time.Duration) ([]string, error) {
	s.cleaned = true
	return nil, nil
}

func sampleReport() *models.CycleReport {
	return &models.CycleReport{
		ID:         "7d7f9a3e",
		StartedAt:  time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2026, 8, 23, 10, 5, 0, 0, time.UTC),
		Status:     models.CycleStatusCompleted,
		ActivePool: "Legacydrivebackup",
		Projection: models.UsageProjection{ItemPercent: 42.5, FolderPercent: 3.25},
		Rotation:   models.RotationOutcome{Fired: false, Threshold: 80},
		Admitted: []models.CostEstimate{
			{Email: "a@example.com", FileCount: 100, EstimatedMinutes: 2},
		},
		TotalMinutes:   2,
		CopyDispatched: 1,
	}
}

func TestReportRenderCSV(t *testing.T) {
	reports := NewReportService(nil, 0, nil)

	payload, filename, err := reports.Render(sampleReport(), ReportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "cycle-7d7f9a3e.csv", filename)

	body := string(payload)
	assert.Contains(t, body, "7d7f9a3e")
	assert.Contains(t, body, "COMPLETED")
	assert.Contains(t, body, "Legacydrivebackup")
	assert.Contains(t, body, "42.50")
	assert.Contains(t, body, "3.25")
	assert.Contains(t, body, "Admitted:a@example.com")
	assert.True(t, strings.HasPrefix(body, "Field,Value"))
}

func TestReportRenderPDF(t *testing.T) {
	reports := NewReportService(nil, 0, nil)

	payload, filename, err := reports.Render(sampleReport(), ReportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "cycle-7d7f9a3e.pdf", filename)
	assert.True(t, strings.HasPrefix(string(payload), "%PDF"))
}

func TestReportRenderRejectsUnknownFormat(t *testing.T) {
	reports := NewReportService(nil, 0, nil)

	_, _, err := reports.Render(sampleReport(), ReportFormat("xlsx"))
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}

func TestReportRenderNilReport(t *testing.T) {
	reports := NewReportService(nil, 0, nil)

	_, _, err := reports.Render(nil, ReportFormatCSV)
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestReportPersistWritesAndPrunes(t *testing.T) {
	storage := &stubReportStorage{}
	reports := NewReportService(storage, time.Hour, nil)

	require.NoError(t, reports.Persist(sampleReport()))
	assert.Contains(t, storage.saved, "cycle-7d7f9a3e.csv")
	assert.True(t, storage.cleaned)
}
