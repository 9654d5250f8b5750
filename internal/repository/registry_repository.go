package repository

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/drive-backup-api/internal/models"
	"github.com/noah-isme/drive-backup-api/internal/store"
	appErrors "github.com/noah-isme/drive-backup-api/pkg/errors"
)

// Registry sheet layout. LastUpdated is optional on read.
const (
	colDriveName   = "DriveName"
	colDriveID     = "DriveID"
	colIsFull      = "IsFull"
	colLastUpdated = "LastUpdated"

	registryTimeLayout = "2006-01-02 15:04:05"
)

var registryHeaders = []string{colDriveName, colDriveID, colIsFull, colLastUpdated}

// RegistryRepository is the single writer of the pool registry sheet.
type RegistryRepository struct {
	store      store.Tabular
	resourceID string
	sheet      string
	logger     *zap.Logger
}

// NewRegistryRepository constructs the repository.
func NewRegistryRepository(tabular store.Tabular, resourceID, sheet string, logger *zap.Logger) *RegistryRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistryRepository{store: tabular, resourceID: resourceID, sheet: sheet, logger: logger}
}

// Load downloads and parses the registry. A missing sheet is an empty
// registry; malformed rows are dropped and logged, never fatal.
func (r *RegistryRepository) Load(ctx context.Context) ([]models.PoolRecord, error) {
	table, err := r.store.Download(ctx, r.resourceID, r.sheet)
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrNotFound) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "download pool registry")
	}

	records := make([]models.PoolRecord, 0, len(table.Rows))
	for i, row := range table.Rows {
		name := strings.TrimSpace(store.Get(row, colDriveName))
		id := strings.TrimSpace(store.Get(row, colDriveID))
		if name == "" || id == "" {
			r.logger.Warn("dropping malformed registry row",
				zap.Int("row", i), zap.String("drive_name", name), zap.String("drive_id", id))
			continue
		}

		record := models.PoolRecord{
			DriveName: name,
			DriveID:   id,
			IsFull:    parseFlag(store.Get(row, colIsFull)),
		}
		if raw := strings.TrimSpace(store.Get(row, colLastUpdated)); raw != "" {
			if ts, err := time.Parse(registryTimeLayout, raw); err == nil {
				record.LastUpdated = ts
			}
		}
		records = append(records, record)
	}
	return records, nil
}

// Active returns the single pool accepting writes. Zero or multiple active
// records violate the registry invariant; the caller must not guess.
func (r *RegistryRepository) Active(records []models.PoolRecord) (models.PoolRecord, error) {
	var active []models.PoolRecord
	for _, record := range records {
		if !record.IsFull {
			active = append(active, record)
		}
	}
	switch len(active) {
	case 1:
		return active[0], nil
	case 0:
		return models.PoolRecord{}, appErrors.Clone(appErrors.ErrStateInvariant, "no active pool in registry")
	default:
		return models.PoolRecord{}, appErrors.Clone(appErrors.ErrStateInvariant, "multiple active pools in registry")
	}
}

// Save persists the full registry back to the store in one upload.
func (r *RegistryRepository) Save(ctx context.Context, records []models.PoolRecord) error {
	table := store.Table{Headers: registryHeaders}
	table.Rows = make([]map[string]string, 0, len(records))
	for _, record := range records {
		table.Rows = append(table.Rows, map[string]string{
			colDriveName:   record.DriveName,
			colDriveID:     record.DriveID,
			colIsFull:      formatFlag(record.IsFull),
			colLastUpdated: record.LastUpdated.UTC().Format(registryTimeLayout),
		})
	}
	if err := r.store.Upload(ctx, r.resourceID, r.sheet, table); err != nil {
		return appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "upload pool registry")
	}
	return nil
}

func parseFlag(raw string) bool {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "TRUE", "1", "YES":
		return true
	default:
		return false
	}
}

func formatFlag(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}
