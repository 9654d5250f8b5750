package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/drive-backup-api/internal/models"
	appErrors "github.com/noah-isme/drive-backup-api/pkg/errors"
	"github.com/noah-isme/drive-backup-api/pkg/config"
)

type registryStore interface {
	Load(ctx context.Context) ([]models.PoolRecord, error)
	Active(records []models.PoolRecord) (models.PoolRecord, error)
}

type batchStore interface {
	LoadCandidates(ctx context.Context) ([]models.CandidateUser, int, error)
	LoadOversized(ctx context.Context) ([]models.OversizedUser, error)
	SaveOversized(ctx context.Context, users []models.OversizedUser) error
	SaveEligible(ctx context.Context, plan models.RunPlan, at time.Time) error
}

type usageProjector interface {
	Project(ctx context.Context, activePool models.PoolRecord, pending []models.CandidateUser) (models.UsageProjection, error)
}

type poolRotator interface {
	ShouldRotate(p models.UsageProjection) bool
	Rotate(ctx context.Context, records []models.PoolRecord, now time.Time) ([]models.PoolRecord, models.RotationOutcome, error)
}

type copyDispatcher interface {
	Dispatch(ctx context.Context, owner, poolID string) error
}

type alertSink interface {
	Alert(subject, body string)
}

type reportSink interface {
	Persist(report *models.CycleReport) error
}

// CycleService runs one full measurement→decision→action pass: project the
// active pool, rotate it if needed, admit a batch under the time budget,
// persist the partition and hand the admitted users to the copy executor.
// Cycles are strictly sequential; overlapping invocations are rejected.
type CycleService struct {
	cfg       config.EngineConfig
	registry  registryStore
	batches   batchStore
	planner   *PlannerService
	projector usageProjector
	rotator   poolRotator
	backups   copyDispatcher
	alerts    alertSink
	reports   reportSink
	metrics   *MetricsService
	logger    *zap.Logger

	runMu  sync.Mutex
	lastMu sync.RWMutex
	last   *models.CycleReport
}

// NewCycleService wires the cycle orchestrator.
func NewCycleService(
	cfg config.EngineConfig,
	registry registryStore,
	batches batchStore,
	planner *PlannerService,
	projector usageProjector,
	rotator poolRotator,
	backups copyDispatcher,
	alerts alertSink,
	reports reportSink,
	metrics *MetricsService,
	logger *zap.Logger,
) *CycleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CycleService{
		cfg:       cfg,
		registry:  registry,
		batches:   batches,
		planner:   planner,
		projector: projector,
		rotator:   rotator,
		backups:   backups,
		alerts:    alerts,
		reports:   reports,
		metrics:   metrics,
		logger:    logger,
	}
}

// Run executes one cycle. A second caller while a cycle is in flight gets
// ErrCycleInProgress without touching any state.
func (s *CycleService) Run(ctx context.Context) (*models.CycleReport, error) {
	if !s.runMu.TryLock() {
		return nil, appErrors.ErrCycleInProgress
	}
	defer s.runMu.Unlock()

	now := time.Now().UTC()
	report := &models.CycleReport{
		ID:        uuid.NewString(),
		StartedAt: now,
		Status:    models.CycleStatusFailed,
		Rotation:  models.RotationOutcome{Threshold: s.cfg.RotationThresholdPct},
	}
	s.logger.Info("cycle started", zap.String("cycle_id", report.ID))

	records, err := s.registry.Load(ctx)
	if err != nil {
		return s.fail(report, err, "pool registry unreachable")
	}
	active, err := s.registry.Active(records)
	if err != nil {
		return s.fail(report, err, "pool registry invariant violated")
	}
	report.ActivePool = active.DriveName

	candidates, dropped, err := s.batches.LoadCandidates(ctx)
	if err != nil {
		return s.fail(report, err, "candidate list unreachable")
	}
	report.DroppedRows = dropped

	prior, err := s.batches.LoadOversized(ctx)
	if err != nil {
		return s.fail(report, err, "oversized queue unreachable")
	}

	projection, err := s.projector.Project(ctx, active, pendingCohort(candidates, prior))
	report.Projection = projection
	if err != nil {
		return s.fail(report, err, "active pool projection failed")
	}

	if s.rotator.ShouldRotate(projection) {
		updated, outcome, err := s.rotator.Rotate(ctx, records, now)
		report.Rotation = outcome
		report.Rotation.Threshold = s.cfg.RotationThresholdPct
		if err != nil {
			return s.fail(report, err, "pool rotation failed")
		}
		records = updated
		active, err = s.registry.Active(records)
		if err != nil {
			return s.fail(report, err, "pool registry invariant violated after rotation")
		}
		report.ActivePool = active.DriveName
		s.alerts.Alert("backup pool rotated",
			fmt.Sprintf("new active pool %s (%s), projection items=%.2f%% folders=%.2f%%",
				outcome.NewName, outcome.NewID, projection.ItemPercent, projection.FolderPercent))
	}

	planned := s.planner.Plan(candidates, s.cfg.MaxMinutes, now)
	report.Admitted = planned.Plan.Users
	report.TotalMinutes = planned.Plan.TotalMinutes
	report.DroppedRows += planned.Dropped
	for _, user := range planned.Oversized {
		if user.ManualTrack {
			report.ManualTrack++
		} else {
			report.Deferred++
		}
	}

	merged := s.planner.MergeOversized(prior, planned.Oversized)
	if err := s.batches.SaveOversized(ctx, merged); err != nil {
		return s.fail(report, err, "persist oversized queue failed")
	}
	if err := s.batches.SaveEligible(ctx, planned.Plan, now); err != nil {
		return s.fail(report, err, "persist eligible batch failed")
	}

	for _, user := range planned.Plan.Users {
		if err := s.backups.Dispatch(ctx, user.Email, active.DriveID); err != nil {
			report.CopyFailures++
			s.logger.Error("copy dispatch failed",
				zap.String("cycle_id", report.ID), zap.String("email", user.Email), zap.Error(err))
			continue
		}
		report.CopyDispatched++
	}
	if report.CopyFailures > 0 {
		s.alerts.Alert("copy dispatch failures",
			fmt.Sprintf("cycle %s: %d of %d dispatches failed", report.ID, report.CopyFailures, len(planned.Plan.Users)))
	}

	report.Status = models.CycleStatusCompleted
	report.FinishedAt = time.Now().UTC()
	s.finish(report)
	s.logger.Info("cycle completed",
		zap.String("cycle_id", report.ID),
		zap.Int("admitted", len(report.Admitted)),
		zap.Int("deferred", report.Deferred),
		zap.Int("manual_track", report.ManualTrack),
		zap.Bool("rotated", report.Rotation.Fired))
	return report, nil
}

// PreviewProjection measures the active pool and the pending cohort without
// admitting, rotating or persisting anything. Safe to call while a cycle runs.
func (s *CycleService) PreviewProjection(ctx context.Context) (string, models.UsageProjection, error) {
	records, err := s.registry.Load(ctx)
	if err != nil {
		return "", models.UsageProjection{}, err
	}
	active, err := s.registry.Active(records)
	if err != nil {
		return "", models.UsageProjection{}, err
	}
	candidates, _, err := s.batches.LoadCandidates(ctx)
	if err != nil {
		return active.DriveName, models.UsageProjection{}, err
	}
	prior, err := s.batches.LoadOversized(ctx)
	if err != nil {
		return active.DriveName, models.UsageProjection{}, err
	}
	projection, err := s.projector.Project(ctx, active, pendingCohort(candidates, prior))
	return active.DriveName, projection, err
}

// Pools returns the current pool registry.
func (s *CycleService) Pools(ctx context.Context) ([]models.PoolRecord, error) {
	return s.registry.Load(ctx)
}

// LastReport returns the most recent cycle report, if any.
func (s *CycleService) LastReport() *models.CycleReport {
	s.lastMu.RLock()
	defer s.lastMu.RUnlock()
	return s.last
}

func (s *CycleService) fail(report *models.CycleReport, err error, subject string) (*models.CycleReport, error) {
	report.Error = err.Error()
	report.FinishedAt = time.Now().UTC()
	s.alerts.Alert(subject, fmt.Sprintf("cycle %s: %v", report.ID, err))
	s.finish(report)
	s.logger.Error("cycle failed", zap.String("cycle_id", report.ID), zap.String("subject", subject), zap.Error(err))
	return report, err
}

func (s *CycleService) finish(report *models.CycleReport) {
	s.metrics.ObserveCycle(report)
	if s.reports != nil {
		if err := s.reports.Persist(report); err != nil {
			s.logger.Warn("persist cycle report failed", zap.String("cycle_id", report.ID), zap.Error(err))
		}
	}
	s.lastMu.Lock()
	s.last = report
	s.lastMu.Unlock()
}

// pendingCohort is the set of users queued but not yet copied: the current
// candidates plus previously deferred users. Manual-track users are excluded,
// they will never be auto-copied into the pool.
func pendingCohort(candidates []models.CandidateUser, oversized []models.OversizedUser) []models.CandidateUser {
	seen := make(map[string]struct{}, len(candidates))
	pending := make([]models.CandidateUser, 0, len(candidates)+len(oversized))
	for _, candidate := range candidates {
		email := models.NormalizeEmail(candidate.Email)
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		pending = append(pending, candidate)
	}
	for _, user := range oversized {
		if user.ManualTrack {
			continue
		}
		email := models.NormalizeEmail(user.Email)
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		pending = append(pending, models.CandidateUser{Email: email, FileCount: user.FileCount})
	}
	return pending
}
