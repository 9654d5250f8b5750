package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/drive-backup-api/internal/models"
	"github.com/noah-isme/drive-backup-api/internal/store"
	appErrors "github.com/noah-isme/drive-backup-api/pkg/errors"
)

func seedRegistry(ms *store.MemoryStore, rows []map[string]string) {
	ms.Seed("backup-registry", "PoolRegistry", store.Table{
		Headers: []string{"DriveName", "DriveID", "IsFull", "LastUpdated"},
		Rows:    rows,
	})
}

func TestRegistryRepositoryLoad(t *testing.T) {
	ms := store.NewMemoryStore()
	seedRegistry(ms, []map[string]string{
		{"DriveName": "Legacydrivebackup", "DriveID": "0AAbc", "IsFull": "TRUE", "LastUpdated": "2024-01-10 08:00:00"},
		{"DriveName": "Legacydrivebackup2", "DriveID": "0AAde", "IsFull": "FALSE"},
		{"DriveName": "", "DriveID": "0AAff", "IsFull": "FALSE"}, // malformed, dropped
	})

	repo := NewRegistryRepository(ms, "backup-registry", "PoolRegistry", nil)
	records, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, records[0].IsFull)
	assert.Equal(t, 2024, records[0].LastUpdated.Year())
	assert.False(t, records[1].IsFull)
	assert.True(t, records[1].LastUpdated.IsZero())
}

func TestRegistryRepositoryLoadMissingSheetIsEmpty(t *testing.T) {
	repo := NewRegistryRepository(store.NewMemoryStore(), "backup-registry", "PoolRegistry", nil)
	records, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRegistryRepositoryActive(t *testing.T) {
	repo := NewRegistryRepository(store.NewMemoryStore(), "backup-registry", "PoolRegistry", nil)

	active, err := repo.Active([]models.PoolRecord{
		{DriveName: "a", DriveID: "1", IsFull: true},
		{DriveName: "b", DriveID: "2", IsFull: false},
	})
	require.NoError(t, err)
	assert.Equal(t, "b", active.DriveName)
}

func TestRegistryRepositoryActiveInvariantViolations(t *testing.T) {
	repo := NewRegistryRepository(store.NewMemoryStore(), "backup-registry", "PoolRegistry", nil)

	_, err := repo.Active([]models.PoolRecord{{DriveName: "a", DriveID: "1", IsFull: true}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStateInvariant.Code, appErrors.FromError(err).Code)

	_, err = repo.Active([]models.PoolRecord{
		{DriveName: "a", DriveID: "1", IsFull: false},
		{DriveName: "b", DriveID: "2", IsFull: false},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStateInvariant.Code, appErrors.FromError(err).Code)
}

func TestRegistryRepositorySaveRoundTrip(t *testing.T) {
	ms := store.NewMemoryStore()
	repo := NewRegistryRepository(ms, "backup-registry", "PoolRegistry", nil)

	records := []models.PoolRecord{
		{DriveName: "Legacydrivebackup", DriveID: "0AAbc", IsFull: true, LastUpdated: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{DriveName: "Legacydrivebackup2", DriveID: "0AAde", IsFull: false, LastUpdated: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
	}
	require.NoError(t, repo.Save(context.Background(), records))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, records[0].DriveName, got[0].DriveName)
	assert.Equal(t, records[1].IsFull, got[1].IsFull)
	assert.True(t, records[0].LastUpdated.Equal(got[0].LastUpdated))
}
