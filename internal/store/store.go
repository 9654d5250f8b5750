// Package store provides the tabular backing stores behind the pool registry
// and the batch queues. Persistence is CSV-shaped: named columns, string
// cells, a stable header row. Backends are injectable; the engine never
// assumes anything beyond Download/Upload round-trips.
package store

import "context"

// Table is one downloaded or uploaded sheet.
type Table struct {
	Headers []string
	Rows    []map[string]string
}

// Tabular is the registry exchange contract. Download returns the current
// rows of a sheet; Upload replaces the sheet wholesale. Read-modify-write
// coordination is the caller's responsibility (single cycle at a time).
type Tabular interface {
	Download(ctx context.Context, resourceID, sheet string) (Table, error)
	Upload(ctx context.Context, resourceID, sheet string, table Table) error
}

// Get returns the named cell, tolerating missing optional columns.
func Get(row map[string]string, column string) string {
	if row == nil {
		return ""
	}
	return row[column]
}
