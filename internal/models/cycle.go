package models

import "time"

// CycleStatus summarises how a cycle ended.
type CycleStatus string

const (
	CycleStatusCompleted CycleStatus = "COMPLETED"
	CycleStatusFailed    CycleStatus = "FAILED"
)

// RotationOutcome records whether and how the active pool was rotated.
type RotationOutcome struct {
	Fired     bool   `json:"fired"`
	NewName   string `json:"newName,omitempty"`
	NewID     string `json:"newId,omitempty"`
	Adopted   bool   `json:"adopted,omitempty"`
	Threshold float64 `json:"threshold"`
}

// CycleReport is the operator-facing record of one measurement→decision→action pass.
type CycleReport struct {
	ID             string          `json:"id"`
	StartedAt      time.Time       `json:"startedAt"`
	FinishedAt     time.Time       `json:"finishedAt"`
	Status         CycleStatus     `json:"status"`
	ActivePool     string          `json:"activePool"`
	Projection     UsageProjection `json:"projection"`
	Rotation       RotationOutcome `json:"rotation"`
	Admitted       []CostEstimate  `json:"admitted"`
	Deferred       int             `json:"deferred"`
	ManualTrack    int             `json:"manualTrack"`
	DroppedRows    int             `json:"droppedRows"`
	CopyDispatched int             `json:"copyDispatched"`
	CopyFailures   int             `json:"copyFailures"`
	TotalMinutes   int             `json:"totalMinutes"`
	Error          string          `json:"error,omitempty"`
}
