package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/drive-backup-api/internal/models"
)

func TestEstimatorEstimate(t *testing.T) {
	estimator := NewEstimatorService(1.2)

	tests := []struct {
		name      string
		fileCount int
		want      int
	}{
		{"hundred files is two minutes", 100, 2},
		{"fifty files is one minute", 50, 1},
		{"zero files is zero minutes", 0, 0},
		{"partial minutes round up", 10, 1},
		{"single file rounds up", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := estimator.Estimate(models.CandidateUser{Email: "u@example.com", FileCount: tt.fileCount})
			assert.Equal(t, tt.want, got.EstimatedMinutes)
			assert.Equal(t, tt.fileCount, got.FileCount)
		})
	}
}

func TestEstimatorDefaultsCalibration(t *testing.T) {
	estimator := NewEstimatorService(0)
	got := estimator.Estimate(models.CandidateUser{Email: "u@example.com", FileCount: 100})
	assert.Equal(t, 2, got.EstimatedMinutes)
}
