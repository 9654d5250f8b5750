package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/drive-backup-api/internal/models"
)

type stubPoolProvider struct {
	existing    map[string]string
	created     []string
	grants      []string
	attrs       map[string]string
	createErr   error
	findErr     error
	grantErr    error
	nextID      string
	attrFailure error
}

func newStubPoolProvider() *stubPoolProvider {
	return &stubPoolProvider{
		existing: map[string]string{},
		attrs:    map[string]string{},
		nextID:   "pool-new",
	}
}

func (s *stubPoolProvider) CreatePool(_ context.Context, name string) (string, error) {
	if s.createErr != nil {
		return "", s.createErr
	}
	s.created = append(s.created, name)
	return s.nextID, nil
}

func (s *stubPoolProvider) FindPool(_ context.Context, name string) (string, bool, error) {
	if s.findErr != nil {
		return "", false, s.findErr
	}
	id, ok := s.existing[name]
	return id, ok, nil
}

func (s *stubPoolProvider) SetPoolAttribute(_ context.Context, poolID, attr, value string) error {
	if s.attrFailure != nil {
		return s.attrFailure
	}
	s.attrs[poolID+":"+attr] = value
	return nil
}

func (s *stubPoolProvider) GrantRole(_ context.Context, poolID, identity, role string) error {
	if s.grantErr != nil {
		return s.grantErr
	}
	s.grants = append(s.grants, poolID+":"+identity+":"+role)
	return nil
}

type stubRegistryWriter struct {
	saved   [][]models.PoolRecord
	saveErr error
}

func (s *stubRegistryWriter) Save(_ context.Context, records []models.PoolRecord) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	copied := make([]models.PoolRecord, len(records))
	copy(copied, records)
	s.saved = append(s.saved, copied)
	return nil
}

func projection(items, folders float64) models.UsageProjection {
	return models.UsageProjection{ItemPercent: items, FolderPercent: folders}
}

func TestShouldRotateThresholdBoundary(t *testing.T) {
	rotator := NewRotatorService(nil, nil, 80, "Legacydrivebackup", nil, nil)

	assert.True(t, rotator.ShouldRotate(projection(80.00, 10)))
	assert.False(t, rotator.ShouldRotate(projection(79.99, 10)))
	assert.True(t, rotator.ShouldRotate(projection(10, 80.00)))
	assert.True(t, rotator.ShouldRotate(projection(95.5, 12)))
	assert.False(t, rotator.ShouldRotate(models.UsageProjection{
		ItemPercent:   models.UnknownPercent,
		FolderPercent: models.UnknownPercent,
	}))
}

func TestRotateFreezesPriorAndAppendsActive(t *testing.T) {
	pools := newStubPoolProvider()
	registry := &stubRegistryWriter{}
	rotator := NewRotatorService(registry, pools, 80, "Legacydrivebackup", []string{"admin@example.com"}, nil)

	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	records := []models.PoolRecord{
		{DriveName: "Legacydrivebackup", DriveID: "pool-1", IsFull: false},
	}

	updated, outcome, err := rotator.Rotate(context.Background(), records, now)
	require.NoError(t, err)
	assert.True(t, outcome.Fired)
	assert.False(t, outcome.Adopted)
	assert.Equal(t, "Legacydrivebackup2", outcome.NewName)

	require.Len(t, updated, 2)
	assert.True(t, updated[0].IsFull)
	assert.False(t, updated[1].IsFull)
	assert.Equal(t, "Legacydrivebackup2", updated[1].DriveName)

	active := 0
	for _, record := range updated {
		if !record.IsFull {
			active++
		}
	}
	assert.Equal(t, 1, active)

	require.Len(t, registry.saved, 1)
	assert.Equal(t, []string{"Legacydrivebackup2"}, pools.created)
	assert.Equal(t, "true", pools.attrs["pool-new:adminManagedRestrictions"])
	assert.Equal(t, []string{"pool-new:admin@example.com:organizer"}, pools.grants)
}

func TestRotateAdoptsPoolLeftByInterruptedRun(t *testing.T) {
	pools := newStubPoolProvider()
	pools.existing["Legacydrivebackup2"] = "pool-orphan"
	registry := &stubRegistryWriter{}
	rotator := NewRotatorService(registry, pools, 80, "Legacydrivebackup", nil, nil)

	records := []models.PoolRecord{
		{DriveName: "Legacydrivebackup", DriveID: "pool-1", IsFull: false},
	}

	updated, outcome, err := rotator.Rotate(context.Background(), records, time.Now())
	require.NoError(t, err)
	assert.True(t, outcome.Adopted)
	assert.Equal(t, "pool-orphan", outcome.NewID)
	assert.Empty(t, pools.created)
	assert.Equal(t, "pool-orphan", updated[len(updated)-1].DriveID)
}

func TestRotateNamingSequence(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		want     string
	}{
		{"empty registry starts at base", nil, "Legacydrivebackup"},
		{"base alone yields suffix two", []string{"Legacydrivebackup"}, "Legacydrivebackup2"},
		{"sequence advances past highest", []string{"Legacydrivebackup", "Legacydrivebackup2"}, "Legacydrivebackup3"},
		{"gaps do not reset the sequence", []string{"Legacydrivebackup", "Legacydrivebackup7"}, "Legacydrivebackup8"},
		{"unrelated names are ignored", []string{"Legacydrivebackup", "Scratch"}, "Legacydrivebackup2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := make([]models.PoolRecord, 0, len(tt.existing))
			for _, name := range tt.existing {
				records = append(records, models.PoolRecord{DriveName: name})
			}
			assert.Equal(t, tt.want, nextPoolName("Legacydrivebackup", records))
		})
	}
}

func TestRotateAbortsWhenProvisioningFails(t *testing.T) {
	pools := newStubPoolProvider()
	pools.createErr = errors.New("quota exceeded")
	registry := &stubRegistryWriter{}
	rotator := NewRotatorService(registry, pools, 80, "Legacydrivebackup", nil, nil)

	records := []models.PoolRecord{
		{DriveName: "Legacydrivebackup", DriveID: "pool-1", IsFull: false},
	}

	updated, outcome, err := rotator.Rotate(context.Background(), records, time.Now())
	require.Error(t, err)
	assert.False(t, outcome.Fired)
	assert.Equal(t, records, updated)
	assert.Empty(t, registry.saved)
}

func TestRotateLeavesRegistryWhenSaveFails(t *testing.T) {
	pools := newStubPoolProvider()
	registry := &stubRegistryWriter{saveErr: errors.New("upload failed")}
	rotator := NewRotatorService(registry, pools, 80, "Legacydrivebackup", nil, nil)

	records := []models.PoolRecord{
		{DriveName: "Legacydrivebackup", DriveID: "pool-1", IsFull: false},
	}

	updated, outcome, err := rotator.Rotate(context.Background(), records, time.Now())
	require.Error(t, err)
	assert.False(t, outcome.Fired)
	assert.Equal(t, records, updated)
}

func TestRotateSurfacesGrantFailureAfterPersist(t *testing.T) {
	pools := newStubPoolProvider()
	pools.grantErr = errors.New("permission denied")
	registry := &stubRegistryWriter{}
	rotator := NewRotatorService(registry, pools, 80, "Legacydrivebackup", []string{"admin@example.com"}, nil)

	records := []models.PoolRecord{
		{DriveName: "Legacydrivebackup", DriveID: "pool-1", IsFull: false},
	}

	updated, outcome, err := rotator.Rotate(context.Background(), records, time.Now())
	require.Error(t, err)
	// Registry is already persisted: the rotation counts, the grant is alerted.
	assert.True(t, outcome.Fired)
	require.Len(t, updated, 2)
	require.Len(t, registry.saved, 1)
}
