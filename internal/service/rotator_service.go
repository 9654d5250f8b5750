package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/drive-backup-api/internal/models"
	appErrors "github.com/noah-isme/drive-backup-api/pkg/errors"
)

// OrganizerRole is granted to the admin set on every new pool.
const OrganizerRole = "organizer"

type poolProvider interface {
	CreatePool(ctx context.Context, name string) (string, error)
	FindPool(ctx context.Context, name string) (string, bool, error)
	SetPoolAttribute(ctx context.Context, poolID, attr, value string) error
	GrantRole(ctx context.Context, poolID, identity, role string) error
}

type registryWriter interface {
	Save(ctx context.Context, records []models.PoolRecord) error
}

// RotatorService retires the active pool and provisions its replacement once
// projected occupancy crosses the rotation threshold.
type RotatorService struct {
	registry  registryWriter
	pools     poolProvider
	threshold float64
	baseName  string
	grantees  []string
	logger    *zap.Logger
}

// NewRotatorService constructs the rotator.
func NewRotatorService(registry registryWriter, pools poolProvider, threshold float64, baseName string, grantees []string, logger *zap.Logger) *RotatorService {
	if threshold <= 0 {
		threshold = 80
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RotatorService{
		registry:  registry,
		pools:     pools,
		threshold: threshold,
		baseName:  baseName,
		grantees:  grantees,
		logger:    logger,
	}
}

// ShouldRotate fires when either projected percentage reaches the threshold.
// Exactly threshold fires; just below does not. Unknown projections never fire.
func (s *RotatorService) ShouldRotate(p models.UsageProjection) bool {
	if !p.Known() {
		return false
	}
	return p.ItemPercent >= s.threshold || p.FolderPercent >= s.threshold
}

// Rotate provisions the next pool, freezes every existing record, appends the
// new active record and persists the registry in a single upload. A pool that
// was provisioned by an interrupted run but never registered is adopted by
// name instead of being duplicated. Any failure aborts and leaves the prior
// registry untouched, except a grant failure after the registry persisted,
// which is surfaced for alerting.
func (s *RotatorService) Rotate(ctx context.Context, records []models.PoolRecord, now time.Time) ([]models.PoolRecord, models.RotationOutcome, error) {
	outcome := models.RotationOutcome{Threshold: s.threshold}

	name := nextPoolName(s.baseName, records)

	poolID, found, err := s.pools.FindPool(ctx, name)
	if err != nil {
		return records, outcome, appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "look up pool "+name)
	}
	if found {
		s.logger.Info("adopting pool provisioned by interrupted rotation",
			zap.String("pool", name), zap.String("pool_id", poolID))
		outcome.Adopted = true
	} else {
		poolID, err = s.pools.CreatePool(ctx, name)
		if err != nil {
			return records, outcome, appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "create pool "+name)
		}
		if err := s.pools.SetPoolAttribute(ctx, poolID, "adminManagedRestrictions", "true"); err != nil {
			s.logger.Warn("set pool attribute failed", zap.String("pool", name), zap.Error(err))
		}
	}

	updated := make([]models.PoolRecord, 0, len(records)+1)
	for _, record := range records {
		record.IsFull = true
		record.LastUpdated = now
		updated = append(updated, record)
	}
	updated = append(updated, models.PoolRecord{
		DriveName:   name,
		DriveID:     poolID,
		IsFull:      false,
		LastUpdated: now,
	})

	if err := s.registry.Save(ctx, updated); err != nil {
		// Registry untouched remotely; the provisioned pool will be adopted
		// by name on the next run.
		return records, outcome, err
	}

	outcome.Fired = true
	outcome.NewName = name
	outcome.NewID = poolID

	for _, grantee := range s.grantees {
		if err := s.pools.GrantRole(ctx, poolID, grantee, OrganizerRole); err != nil {
			return updated, outcome, appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status,
				"grant "+OrganizerRole+" on "+name+" to "+grantee)
		}
	}

	s.logger.Info("pool rotated",
		zap.String("pool", name), zap.String("pool_id", poolID), zap.Bool("adopted", outcome.Adopted))
	return updated, outcome, nil
}

// nextPoolName derives the replacement name from the monotonic suffix
// sequence over existing registry entries: base, base2, base3, ...
func nextPoolName(base string, records []models.PoolRecord) string {
	highest := 0
	for _, record := range records {
		if record.DriveName == base {
			if highest < 1 {
				highest = 1
			}
			continue
		}
		if !strings.HasPrefix(record.DriveName, base) {
			continue
		}
		suffix := record.DriveName[len(base):]
		if n, err := strconv.Atoi(suffix); err == nil && n > highest {
			highest = n
		}
	}
	if highest == 0 {
		return base
	}
	return base + strconv.Itoa(highest+1)
}
