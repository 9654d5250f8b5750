package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/noah-isme/drive-backup-api/pkg/errors"
)

// SQLStore mirrors the tabular exchange in Postgres. Each sheet keeps its
// header list in tabular_sheets and one JSON row per record in tabular_rows,
// ordered by position so round-trips preserve row order.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore wraps an open database handle.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Download loads the headers and rows of a sheet.
func (s *SQLStore) Download(ctx context.Context, resourceID, sheet string) (Table, error) {
	const headerQuery = `SELECT headers FROM tabular_sheets WHERE resource_id = $1 AND sheet = $2`

	var rawHeaders []byte
	if err := s.db.GetContext(ctx, &rawHeaders, headerQuery, resourceID, sheet); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Table{}, appErrors.Clone(appErrors.ErrNotFound, "sheet not found: "+sheet)
		}
		return Table{}, appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "load sheet headers")
	}

	var table Table
	if err := json.Unmarshal(rawHeaders, &table.Headers); err != nil {
		return Table{}, fmt.Errorf("decode sheet headers: %w", err)
	}

	const rowQuery = `SELECT data FROM tabular_rows WHERE resource_id = $1 AND sheet = $2 ORDER BY position ASC`
	var rawRows [][]byte
	if err := s.db.SelectContext(ctx, &rawRows, rowQuery, resourceID, sheet); err != nil {
		return Table{}, appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "load sheet rows")
	}

	table.Rows = make([]map[string]string, 0, len(rawRows))
	for _, raw := range rawRows {
		row := map[string]string{}
		if err := json.Unmarshal(raw, &row); err != nil {
			return Table{}, fmt.Errorf("decode sheet row: %w", err)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// Upload replaces the sheet contents within a transaction.
func (s *SQLStore) Upload(ctx context.Context, resourceID, sheet string, table Table) error {
	if len(table.Headers) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "upload requires a stable header row")
	}

	headers, err := json.Marshal(table.Headers)
	if err != nil {
		return fmt.Errorf("encode sheet headers: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "begin sheet upload")
	}
	defer tx.Rollback() //nolint:errcheck

	const upsertSheet = `INSERT INTO tabular_sheets (resource_id, sheet, headers, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (resource_id, sheet)
DO UPDATE SET headers = EXCLUDED.headers, updated_at = EXCLUDED.updated_at`
	if _, err := tx.ExecContext(ctx, upsertSheet, resourceID, sheet, headers, time.Now().UTC()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "upsert sheet headers")
	}

	const deleteRows = `DELETE FROM tabular_rows WHERE resource_id = $1 AND sheet = $2`
	if _, err := tx.ExecContext(ctx, deleteRows, resourceID, sheet); err != nil {
		return appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "clear sheet rows")
	}

	const insertRow = `INSERT INTO tabular_rows (resource_id, sheet, position, data) VALUES ($1, $2, $3, $4)`
	for i, row := range table.Rows {
		data, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("encode sheet row %d: %w", i, err)
		}
		if _, err := tx.ExecContext(ctx, insertRow, resourceID, sheet, i, data); err != nil {
			return appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "insert sheet row")
		}
	}

	if err := tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "commit sheet upload")
	}
	return nil
}
