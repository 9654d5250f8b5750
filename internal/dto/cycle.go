package dto

import (
	"time"

	"github.com/noah-isme/drive-backup-api/internal/models"
)

// CycleResponse is the operator-facing view of one cycle outcome.
type CycleResponse struct {
	ID             string             `json:"id"`
	Status         models.CycleStatus `json:"status"`
	StartedAt      time.Time          `json:"startedAt"`
	FinishedAt     time.Time          `json:"finishedAt"`
	ActivePool     string             `json:"activePool"`
	Rotation       RotationResponse   `json:"rotation"`
	Projection     ProjectionBody     `json:"projection"`
	Admitted       int                `json:"admitted"`
	AdmittedEmails []string           `json:"admittedEmails"`
	TotalMinutes   int                `json:"totalMinutes"`
	Deferred       int                `json:"deferred"`
	ManualTrack    int                `json:"manualTrack"`
	DroppedRows    int                `json:"droppedRows"`
	CopyDispatched int                `json:"copyDispatched"`
	CopyFailures   int                `json:"copyFailures"`
	Error          string             `json:"error,omitempty"`
}

// RotationResponse reports whether and how the pool rotated during a cycle.
type RotationResponse struct {
	Fired     bool    `json:"fired"`
	Adopted   bool    `json:"adopted"`
	NewName   string  `json:"newName,omitempty"`
	NewID     string  `json:"newId,omitempty"`
	Threshold float64 `json:"threshold"`
}

// ProjectionBody carries measured and projected pool occupancy. Percentages
// of -1 mean the measurement failed and occupancy is unknown.
type ProjectionBody struct {
	CurrentItems     int     `json:"currentItems"`
	CurrentFolders   int     `json:"currentFolders"`
	ProjectedItems   int     `json:"projectedItems"`
	ProjectedFolders int     `json:"projectedFolders"`
	ItemPercent      float64 `json:"itemPercent"`
	FolderPercent    float64 `json:"folderPercent"`
}

// ProjectionResponse is the standalone projection endpoint payload.
type ProjectionResponse struct {
	ActivePool string         `json:"activePool"`
	Projection ProjectionBody `json:"projection"`
}

// PoolResponse is one registry row.
type PoolResponse struct {
	DriveName   string    `json:"driveName"`
	DriveID     string    `json:"driveId"`
	IsFull      bool      `json:"isFull"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// NewCycleResponse maps a cycle report onto the API contract.
func NewCycleResponse(report *models.CycleReport) CycleResponse {
	emails := make([]string, 0, len(report.Admitted))
	for _, user := range report.Admitted {
		emails = append(emails, user.Email)
	}
	return CycleResponse{
		ID:         report.ID,
		Status:     report.Status,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		ActivePool: report.ActivePool,
		Rotation: RotationResponse{
			Fired:     report.Rotation.Fired,
			Adopted:   report.Rotation.Adopted,
			NewName:   report.Rotation.NewName,
			NewID:     report.Rotation.NewID,
			Threshold: report.Rotation.Threshold,
		},
		Projection:     NewProjectionBody(report.Projection),
		Admitted:       len(report.Admitted),
		AdmittedEmails: emails,
		TotalMinutes:   report.TotalMinutes,
		Deferred:       report.Deferred,
		ManualTrack:    report.ManualTrack,
		DroppedRows:    report.DroppedRows,
		CopyDispatched: report.CopyDispatched,
		CopyFailures:   report.CopyFailures,
		Error:          report.Error,
	}
}

// NewProjectionBody maps a usage projection onto the API contract.
func NewProjectionBody(p models.UsageProjection) ProjectionBody {
	return ProjectionBody{
		CurrentItems:     p.CurrentItems,
		CurrentFolders:   p.CurrentFolders,
		ProjectedItems:   p.ProjectedItems,
		ProjectedFolders: p.ProjectedFolders,
		ItemPercent:      p.ItemPercent,
		FolderPercent:    p.FolderPercent,
	}
}

// NewPoolResponses maps registry records onto the API contract.
func NewPoolResponses(records []models.PoolRecord) []PoolResponse {
	out := make([]PoolResponse, 0, len(records))
	for _, record := range records {
		out = append(out, PoolResponse{
			DriveName:   record.DriveName,
			DriveID:     record.DriveID,
			IsFull:      record.IsFull,
			LastUpdated: record.LastUpdated,
		})
	}
	return out
}
