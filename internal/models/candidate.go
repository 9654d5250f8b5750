package models

import (
	"strings"
	"time"
)

// CandidateUser is a suspended account waiting for its drive to be backed up.
// Produced by the inventory collaborator; immutable for the duration of a cycle.
type CandidateUser struct {
	Email          string    `json:"email" validate:"required,email"`
	FileCount      int       `json:"fileCount" validate:"gte=0"`
	SuspendedSince time.Time `json:"suspendedSince"`
}

// NormalizeEmail lower-cases and trims the unique candidate key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CostEstimate is the projected copy duration for one candidate.
type CostEstimate struct {
	Email            string `json:"email"`
	FileCount        int    `json:"fileCount"`
	EstimatedMinutes int    `json:"estimatedMinutes"`
}

// RunPlan is the ordered batch admitted for the current cycle. Insertion
// order is priority order: the longest-suspended users come first.
type RunPlan struct {
	Users        []CostEstimate `json:"users"`
	TotalMinutes int            `json:"totalMinutes"`
	MaxMinutes   int            `json:"maxMinutes"`
}

// OversizedUser is a candidate excluded from the current batch. ManualTrack
// distinguishes users whose estimate alone exceeds the entire budget (manual
// handling, never auto-retried) from users merely deferred by contention.
type OversizedUser struct {
	Email            string    `json:"email"`
	FileCount        int       `json:"fileCount"`
	EstimatedMinutes int       `json:"estimatedMinutes"`
	ManualTrack      bool      `json:"manualTrack"`
	RecordedAt       time.Time `json:"recordedAt"`
}
