package service

import (
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/drive-backup-api/internal/models"
)

// PlannerService performs the greedy admission of candidates into a batch
// bounded by a per-cycle time budget. Planning is deterministic: the same
// candidate set and budget always yield the same partition.
type PlannerService struct {
	estimator *EstimatorService
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewPlannerService constructs the planner.
func NewPlannerService(estimator *EstimatorService, validate *validator.Validate, logger *zap.Logger) *PlannerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlannerService{estimator: estimator, validate: validate, logger: logger}
}

// PlanResult is the eligible/oversized partition of one cycle.
type PlanResult struct {
	Plan      models.RunPlan
	Oversized []models.OversizedUser
	Dropped   int
}

// Plan partitions candidates into an admitted batch and an oversized set.
// Candidates are walked oldest SuspendedSince first (ties broken by email).
// A user whose estimate alone exceeds the whole budget is marked ManualTrack;
// a user displaced by contention is deferred and retried next cycle.
// Malformed candidates are dropped and logged, never fatal.
func (s *PlannerService) Plan(candidates []models.CandidateUser, maxMinutes int, now time.Time) PlanResult {
	result := PlanResult{Plan: models.RunPlan{MaxMinutes: maxMinutes}}

	deduped := make(map[string]models.CandidateUser, len(candidates))
	for _, candidate := range candidates {
		candidate.Email = models.NormalizeEmail(candidate.Email)
		if err := s.validate.Struct(candidate); err != nil {
			result.Dropped++
			s.logger.Warn("dropping invalid candidate", zap.String("email", candidate.Email), zap.Error(err))
			continue
		}
		// Last write wins on duplicate emails.
		deduped[candidate.Email] = candidate
	}

	sorted := make([]models.CandidateUser, 0, len(deduped))
	for _, candidate := range deduped {
		sorted = append(sorted, candidate)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].SuspendedSince.Equal(sorted[j].SuspendedSince) {
			return sorted[i].SuspendedSince.Before(sorted[j].SuspendedSince)
		}
		return sorted[i].Email < sorted[j].Email
	})

	cumulative := 0
	for _, candidate := range sorted {
		estimate := s.estimator.Estimate(candidate)
		switch {
		case estimate.EstimatedMinutes > maxMinutes:
			result.Oversized = append(result.Oversized, models.OversizedUser{
				Email:            estimate.Email,
				FileCount:        estimate.FileCount,
				EstimatedMinutes: estimate.EstimatedMinutes,
				ManualTrack:      true,
				RecordedAt:       now,
			})
		case cumulative+estimate.EstimatedMinutes <= maxMinutes:
			result.Plan.Users = append(result.Plan.Users, estimate)
			cumulative += estimate.EstimatedMinutes
		default:
			result.Oversized = append(result.Oversized, models.OversizedUser{
				Email:            estimate.Email,
				FileCount:        estimate.FileCount,
				EstimatedMinutes: estimate.EstimatedMinutes,
				RecordedAt:       now,
			})
		}
	}
	result.Plan.TotalMinutes = cumulative
	return result
}

// MergeOversized unions the persisted queue with this cycle's additions.
// Keys are emails; the fresh record wins; output order is sorted by email so
// re-running the merge is idempotent and diffable.
func (s *PlannerService) MergeOversized(prior, fresh []models.OversizedUser) []models.OversizedUser {
	merged := make(map[string]models.OversizedUser, len(prior)+len(fresh))
	for _, user := range prior {
		merged[models.NormalizeEmail(user.Email)] = user
	}
	for _, user := range fresh {
		user.Email = models.NormalizeEmail(user.Email)
		merged[user.Email] = user
	}

	emails := make([]string, 0, len(merged))
	for email := range merged {
		emails = append(emails, email)
	}
	sort.Strings(emails)

	out := make([]models.OversizedUser, 0, len(emails))
	for _, email := range emails {
		out = append(out, merged[email])
	}
	return out
}
