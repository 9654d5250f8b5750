package service

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/noah-isme/drive-backup-api/internal/models"
	appErrors "github.com/noah-isme/drive-backup-api/pkg/errors"
)

type inventoryLister interface {
	ListFiles(ctx context.Context, owner string) ([]models.FileEntry, error)
}

type probeCache interface {
	Get(ctx context.Context, owner string) (models.PoolCount, error)
	Set(ctx context.Context, owner string, count models.PoolCount)
}

// ProjectorService measures the active pool and forecasts its occupancy
// after the users queued but not yet copied land in it.
type ProjectorService struct {
	inventory   inventoryLister
	cache       probeCache
	itemLimit   int
	folderLimit int
	logger      *zap.Logger
}

// NewProjectorService constructs the projector. The cache is optional.
func NewProjectorService(inventory inventoryLister, cache probeCache, itemLimit, folderLimit int, logger *zap.Logger) *ProjectorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectorService{
		inventory:   inventory,
		cache:       cache,
		itemLimit:   itemLimit,
		folderLimit: folderLimit,
		logger:      logger,
	}
}

// Project computes current and projected occupancy percentages against the
// configured hard limits. A failed per-user probe contributes zero and is
// logged; a failed probe of the active pool itself is systemic and yields
// the unknown sentinel alongside a transport error.
func (s *ProjectorService) Project(ctx context.Context, activePool models.PoolRecord, pending []models.CandidateUser) (models.UsageProjection, error) {
	current, err := s.count(ctx, activePool.DriveID, false)
	if err != nil {
		s.logger.Error("active pool inventory probe failed",
			zap.String("pool", activePool.DriveName), zap.Error(err))
		return models.UsageProjection{
			ItemPercent:   models.UnknownPercent,
			FolderPercent: models.UnknownPercent,
		}, appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "probe active pool "+activePool.DriveName)
	}

	projected := current
	for _, user := range pending {
		contribution, err := s.count(ctx, user.Email, true)
		if err != nil {
			// Degrade to zero: projection must not abort for a handful of
			// unreachable accounts.
			s.logger.Warn("per-user inventory probe failed, contributing zero",
				zap.String("email", user.Email), zap.Error(err))
			continue
		}
		projected.Add(contribution)
	}

	return models.UsageProjection{
		CurrentItems:     current.Items,
		CurrentFolders:   current.Folders,
		ProjectedItems:   projected.Items,
		ProjectedFolders: projected.Folders,
		ItemPercent:      percent(projected.Items, s.itemLimit),
		FolderPercent:    percent(projected.Folders, s.folderLimit),
	}, nil
}

func (s *ProjectorService) count(ctx context.Context, owner string, cacheable bool) (models.PoolCount, error) {
	if cacheable && s.cache != nil {
		if cached, err := s.cache.Get(ctx, owner); err == nil {
			return cached, nil
		}
	}

	entries, err := s.inventory.ListFiles(ctx, owner)
	if err != nil {
		return models.PoolCount{}, err
	}

	count := models.PoolCount{}
	for _, entry := range entries {
		count.Items++
		if entry.IsFolder {
			count.Folders++
		}
	}

	if cacheable && s.cache != nil {
		s.cache.Set(ctx, owner, count)
	}
	return count, nil
}

// percent rounds occupancy to two decimal places, matching the registry's
// human-audited history.
func percent(value, limit int) float64 {
	if limit <= 0 {
		return models.UnknownPercent
	}
	return math.Round(float64(value)/float64(limit)*100*100) / 100
}
