package service

import (
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/drive-backup-api/internal/models"
	appErrors "github.com/noah-isme/drive-backup-api/pkg/errors"
	"github.com/noah-isme/drive-backup-api/pkg/export"
)

// ReportFormat selects the rendered cycle report encoding.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ReportService renders cycle reports for operators and keeps an on-disk
// audit trail of past cycles.
type ReportService struct {
	storage   fileStorage
	csv       csvRenderer
	pdf       pdfRenderer
	resultTTL time.Duration
	logger    *zap.Logger
}

// NewReportService constructs the report renderer.
func NewReportService(storage fileStorage, resultTTL time.Duration, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if resultTTL <= 0 {
		resultTTL = 30 * 24 * time.Hour
	}
	return &ReportService{
		storage:   storage,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		resultTTL: resultTTL,
		logger:    logger,
	}
}

// Persist writes the CSV rendering of the report to storage and prunes
// expired reports.
func (s *ReportService) Persist(report *models.CycleReport) error {
	if s.storage == nil {
		return nil
	}
	payload, _, err := s.Render(report, ReportFormatCSV)
	if err != nil {
		return err
	}
	filename := fmt.Sprintf("cycle-%s.csv", report.ID)
	if _, err := s.storage.Save(filename, payload); err != nil {
		return err
	}
	if deleted, err := s.storage.CleanupOlderThan(s.resultTTL); err != nil {
		s.logger.Warn("report cleanup failed", zap.Error(err))
	} else if len(deleted) > 0 {
		s.logger.Info("pruned expired cycle reports", zap.Int("count", len(deleted)))
	}
	return nil
}

// Render produces the report in the requested format and a download filename.
func (s *ReportService) Render(report *models.CycleReport, format ReportFormat) ([]byte, string, error) {
	if report == nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "no cycle report available")
	}

	dataset := buildDataset(report)
	switch format {
	case ReportFormatCSV:
		payload, err := s.csv.Render(dataset)
		return payload, fmt.Sprintf("cycle-%s.csv", report.ID), err
	case ReportFormatPDF:
		title := fmt.Sprintf("Backup cycle %s", report.StartedAt.Format("2006-01-02 15:04"))
		payload, err := s.pdf.Render(dataset, title)
		return payload, fmt.Sprintf("cycle-%s.pdf", report.ID), err
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported report format "+string(format))
	}
}

func buildDataset(report *models.CycleReport) export.Dataset {
	headers := []string{"Field", "Value"}
	rows := []map[string]string{
		{"Field": "CycleID", "Value": report.ID},
		{"Field": "Status", "Value": string(report.Status)},
		{"Field": "StartedAt", "Value": report.StartedAt.Format(time.RFC3339)},
		{"Field": "FinishedAt", "Value": report.FinishedAt.Format(time.RFC3339)},
		{"Field": "ActivePool", "Value": report.ActivePool},
		{"Field": "ItemPercent", "Value": strconv.FormatFloat(report.Projection.ItemPercent, 'f', 2, 64)},
		{"Field": "FolderPercent", "Value": strconv.FormatFloat(report.Projection.FolderPercent, 'f', 2, 64)},
		{"Field": "RotationFired", "Value": strconv.FormatBool(report.Rotation.Fired)},
		{"Field": "NewPool", "Value": report.Rotation.NewName},
		{"Field": "Admitted", "Value": strconv.Itoa(len(report.Admitted))},
		{"Field": "AdmittedMinutes", "Value": strconv.Itoa(report.TotalMinutes)},
		{"Field": "Deferred", "Value": strconv.Itoa(report.Deferred)},
		{"Field": "ManualTrack", "Value": strconv.Itoa(report.ManualTrack)},
		{"Field": "DroppedRows", "Value": strconv.Itoa(report.DroppedRows)},
		{"Field": "CopyDispatched", "Value": strconv.Itoa(report.CopyDispatched)},
		{"Field": "CopyFailures", "Value": strconv.Itoa(report.CopyFailures)},
	}
	if report.Error != "" {
		rows = append(rows, map[string]string{"Field": "Error", "Value": report.Error})
	}
	for _, user := range report.Admitted {
		rows = append(rows, map[string]string{
			"Field": "Admitted:" + user.Email,
			"Value": fmt.Sprintf("%d files / %d min", user.FileCount, user.EstimatedMinutes),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
