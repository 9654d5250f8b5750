package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	appErrors "github.com/noah-isme/drive-backup-api/pkg/errors"
)

// FileStore keeps each sheet as a CSV file under baseDir/resourceID.
// Writes are atomic: the sheet is rendered to a temp file and renamed over
// the previous one, so an interrupted cycle never leaves a half-written sheet.
type FileStore struct {
	baseDir string
}

// NewFileStore ensures the base directory exists and returns the store.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		baseDir = "./data"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create tabular directory: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

// Download reads and parses the sheet CSV.
func (s *FileStore) Download(ctx context.Context, resourceID, sheet string) (Table, error) {
	path := s.path(resourceID, sheet)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Table{}, appErrors.Clone(appErrors.ErrNotFound, "sheet not found: "+sheet)
		}
		return Table{}, appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "open sheet "+sheet)
	}
	defer file.Close() //nolint:errcheck

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return Table{}, appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "parse sheet "+sheet)
	}
	if len(records) == 0 {
		return Table{}, nil
	}

	table := Table{Headers: records[0]}
	table.Rows = make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(table.Headers))
		for i, header := range table.Headers {
			if i < len(record) {
				row[header] = record[i]
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// Upload renders the table to CSV and atomically replaces the sheet file.
func (s *FileStore) Upload(ctx context.Context, resourceID, sheet string, table Table) error {
	if len(table.Headers) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "upload requires a stable header row")
	}

	dir := filepath.Join(s.baseDir, resourceID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("prepare resource directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, sheet+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp sheet: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	writer := csv.NewWriter(tmp)
	if err := writer.Write(table.Headers); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("write sheet headers: %w", err)
	}
	for _, row := range table.Rows {
		record := make([]string, len(table.Headers))
		for i, header := range table.Headers {
			record[i] = row[header]
		}
		if err := writer.Write(record); err != nil {
			tmp.Close() //nolint:errcheck
			return fmt.Errorf("write sheet row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("flush sheet: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp sheet: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path(resourceID, sheet)); err != nil {
		return fmt.Errorf("replace sheet: %w", err)
	}
	return nil
}

func (s *FileStore) path(resourceID, sheet string) string {
	return filepath.Join(s.baseDir, resourceID, sheet+".csv")
}
