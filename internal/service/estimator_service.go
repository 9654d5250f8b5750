package service

import (
	"math"

	"github.com/noah-isme/drive-backup-api/internal/models"
)

// DefaultSecondsPerFile is the calibrated copy cost of a single drive file.
const DefaultSecondsPerFile = 1.2

// EstimatorService converts raw file counts into copy duration estimates.
type EstimatorService struct {
	secondsPerFile float64
}

// NewEstimatorService builds an estimator with the given calibration constant.
func NewEstimatorService(secondsPerFile float64) *EstimatorService {
	if secondsPerFile <= 0 {
		secondsPerFile = DefaultSecondsPerFile
	}
	return &EstimatorService{secondsPerFile: secondsPerFile}
}

// Estimate maps a candidate to its projected copy minutes, rounding up.
func (s *EstimatorService) Estimate(user models.CandidateUser) models.CostEstimate {
	minutes := int(math.Ceil(float64(user.FileCount) * s.secondsPerFile / 60))
	return models.CostEstimate{
		Email:            user.Email,
		FileCount:        user.FileCount,
		EstimatedMinutes: minutes,
	}
}
