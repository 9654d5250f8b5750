package models

import "time"

// PoolRecord is one row of the pool registry. Exactly one record has
// IsFull=false at any time: the active pool receiving backup writes.
type PoolRecord struct {
	DriveName   string    `json:"driveName"`
	DriveID     string    `json:"driveId"`
	IsFull      bool      `json:"isFull"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// FileEntry is a single inventory listing result.
type FileEntry struct {
	ID       string `json:"id"`
	IsFolder bool   `json:"isFolder"`
}

// PoolCount is an item/folder occupancy measurement.
type PoolCount struct {
	Items   int `json:"items"`
	Folders int `json:"folders"`
}

// Add accumulates another measurement.
func (c *PoolCount) Add(other PoolCount) {
	c.Items += other.Items
	c.Folders += other.Folders
}

// UnknownPercent is the sentinel returned when the active pool itself could
// not be measured. Distinguishable from the valid 0-100 range.
const UnknownPercent float64 = -1

// UsageProjection is the transient occupancy forecast for the active pool.
type UsageProjection struct {
	CurrentItems     int     `json:"currentItems"`
	CurrentFolders   int     `json:"currentFolders"`
	ProjectedItems   int     `json:"projectedItems"`
	ProjectedFolders int     `json:"projectedFolders"`
	ItemPercent      float64 `json:"itemPercent"`
	FolderPercent    float64 `json:"folderPercent"`
}

// Known reports whether the projection carries measured percentages.
func (p UsageProjection) Known() bool {
	return p.ItemPercent != UnknownPercent && p.FolderPercent != UnknownPercent
}
