package repository

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/drive-backup-api/internal/models"
	"github.com/noah-isme/drive-backup-api/internal/store"
	appErrors "github.com/noah-isme/drive-backup-api/pkg/errors"
)

// Batch sheet layouts. ManualTrack is optional on read; absent means deferred.
const (
	colUserEmail      = "UserEmail"
	colFileCount      = "FileCount"
	colSuspendedSince = "SuspendedSince"
	colEstimatedMin   = "EstimatedCopyTimeMin"
	colRotationTime   = "RotationTime"
	colManualTrack    = "ManualTrack"
	colDeferred       = "Deferred"

	suspendedDateLayout = "2006-01-02"
	rotationTimeLayout  = "2006-01-02 15:04:05"
)

var (
	candidateHeaders = []string{colUserEmail, colFileCount, colSuspendedSince}
	oversizedHeaders = []string{colUserEmail, colFileCount, colEstimatedMin, colRotationTime, colManualTrack}
	eligibleHeaders  = []string{colUserEmail, colFileCount, colEstimatedMin, colRotationTime, colDeferred}
)

// BatchSheets names the per-run sheets inside one tabular resource.
type BatchSheets struct {
	Candidates string
	Oversized  string
	Eligible   string
}

// BatchRepository reads the candidate list and owns the oversized queue and
// eligible batch sheets for the duration of one cycle.
type BatchRepository struct {
	store      store.Tabular
	resourceID string
	sheets     BatchSheets
	logger     *zap.Logger
}

// NewBatchRepository constructs the repository.
func NewBatchRepository(tabular store.Tabular, resourceID string, sheets BatchSheets, logger *zap.Logger) *BatchRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchRepository{store: tabular, resourceID: resourceID, sheets: sheets, logger: logger}
}

// LoadCandidates parses the per-run candidate list. Malformed rows are
// dropped and logged; the returned count reports how many were skipped.
func (r *BatchRepository) LoadCandidates(ctx context.Context) ([]models.CandidateUser, int, error) {
	table, err := r.store.Download(ctx, r.resourceID, r.sheets.Candidates)
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrNotFound) {
			return nil, 0, nil
		}
		return nil, 0, appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "download candidate list")
	}

	candidates := make([]models.CandidateUser, 0, len(table.Rows))
	dropped := 0
	for i, row := range table.Rows {
		candidate, err := parseCandidate(row)
		if err != nil {
			dropped++
			r.logger.Warn("dropping malformed candidate row",
				zap.Int("row", i), zap.String("email", store.Get(row, colUserEmail)), zap.Error(err))
			continue
		}
		candidates = append(candidates, candidate)
	}
	return candidates, dropped, nil
}

// LoadOversized parses the persisted oversized queue.
func (r *BatchRepository) LoadOversized(ctx context.Context) ([]models.OversizedUser, error) {
	table, err := r.store.Download(ctx, r.resourceID, r.sheets.Oversized)
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrNotFound) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "download oversized queue")
	}

	users := make([]models.OversizedUser, 0, len(table.Rows))
	for i, row := range table.Rows {
		email := models.NormalizeEmail(store.Get(row, colUserEmail))
		if email == "" {
			r.logger.Warn("dropping malformed oversized row", zap.Int("row", i))
			continue
		}
		count, err := parseNonNegativeInt(store.Get(row, colFileCount))
		if err != nil {
			r.logger.Warn("dropping malformed oversized row", zap.Int("row", i), zap.String("email", email), zap.Error(err))
			continue
		}
		minutes, _ := parseNonNegativeInt(store.Get(row, colEstimatedMin))

		user := models.OversizedUser{
			Email:            email,
			FileCount:        count,
			EstimatedMinutes: minutes,
			ManualTrack:      parseFlag(store.Get(row, colManualTrack)),
		}
		if raw := strings.TrimSpace(store.Get(row, colRotationTime)); raw != "" {
			if ts, err := time.Parse(rotationTimeLayout, raw); err == nil {
				user.RecordedAt = ts
			}
		}
		users = append(users, user)
	}
	return users, nil
}

// SaveOversized persists the merged oversized queue.
func (r *BatchRepository) SaveOversized(ctx context.Context, users []models.OversizedUser) error {
	table := store.Table{Headers: oversizedHeaders}
	table.Rows = make([]map[string]string, 0, len(users))
	for _, user := range users {
		table.Rows = append(table.Rows, map[string]string{
			colUserEmail:    user.Email,
			colFileCount:    strconv.Itoa(user.FileCount),
			colEstimatedMin: strconv.Itoa(user.EstimatedMinutes),
			colRotationTime: user.RecordedAt.UTC().Format(rotationTimeLayout),
			colManualTrack:  formatFlag(user.ManualTrack),
		})
	}
	if err := r.store.Upload(ctx, r.resourceID, r.sheets.Oversized, table); err != nil {
		return appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "upload oversized queue")
	}
	return nil
}

// SaveEligible persists the admitted batch handed to the copy collaborator.
func (r *BatchRepository) SaveEligible(ctx context.Context, plan models.RunPlan, at time.Time) error {
	table := store.Table{Headers: eligibleHeaders}
	table.Rows = make([]map[string]string, 0, len(plan.Users))
	for _, user := range plan.Users {
		table.Rows = append(table.Rows, map[string]string{
			colUserEmail:    user.Email,
			colFileCount:    strconv.Itoa(user.FileCount),
			colEstimatedMin: strconv.Itoa(user.EstimatedMinutes),
			colRotationTime: at.UTC().Format(rotationTimeLayout),
			colDeferred:     formatFlag(false),
		})
	}
	if err := r.store.Upload(ctx, r.resourceID, r.sheets.Eligible, table); err != nil {
		return appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "upload eligible batch")
	}
	return nil
}

// LoadEligible re-imports the eligible batch sheet.
func (r *BatchRepository) LoadEligible(ctx context.Context) ([]models.CostEstimate, error) {
	table, err := r.store.Download(ctx, r.resourceID, r.sheets.Eligible)
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrNotFound) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "download eligible batch")
	}

	users := make([]models.CostEstimate, 0, len(table.Rows))
	for i, row := range table.Rows {
		email := models.NormalizeEmail(store.Get(row, colUserEmail))
		if email == "" {
			r.logger.Warn("dropping malformed eligible row", zap.Int("row", i))
			continue
		}
		count, err := parseNonNegativeInt(store.Get(row, colFileCount))
		if err != nil {
			r.logger.Warn("dropping malformed eligible row", zap.Int("row", i), zap.String("email", email), zap.Error(err))
			continue
		}
		minutes, _ := parseNonNegativeInt(store.Get(row, colEstimatedMin))
		users = append(users, models.CostEstimate{Email: email, FileCount: count, EstimatedMinutes: minutes})
	}
	return users, nil
}

func parseCandidate(row map[string]string) (models.CandidateUser, error) {
	email := models.NormalizeEmail(store.Get(row, colUserEmail))
	if email == "" {
		return models.CandidateUser{}, appErrors.Clone(appErrors.ErrValidation, "missing user email")
	}
	count, err := parseNonNegativeInt(store.Get(row, colFileCount))
	if err != nil {
		return models.CandidateUser{}, err
	}

	candidate := models.CandidateUser{Email: email, FileCount: count}
	if raw := strings.TrimSpace(store.Get(row, colSuspendedSince)); raw != "" {
		ts, err := time.Parse(suspendedDateLayout, raw)
		if err != nil {
			return models.CandidateUser{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "malformed suspension date")
		}
		candidate.SuspendedSince = ts
	}
	return candidate, nil
}

func parseNonNegativeInt(raw string) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, appErrors.Clone(appErrors.ErrValidation, "missing numeric value")
	}
	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "non-numeric value")
	}
	if value < 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "negative value")
	}
	return value, nil
}
