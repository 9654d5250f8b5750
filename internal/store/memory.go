package store

import (
	"context"
	"sync"

	appErrors "github.com/noah-isme/drive-backup-api/pkg/errors"
)

// MemoryStore is an in-process Tabular backend for tests and local runs.
type MemoryStore struct {
	mu     sync.RWMutex
	sheets map[string]Table
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sheets: make(map[string]Table)}
}

// Download returns a deep copy of the stored sheet.
func (s *MemoryStore) Download(ctx context.Context, resourceID, sheet string) (Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	table, ok := s.sheets[s.key(resourceID, sheet)]
	if !ok {
		return Table{}, appErrors.Clone(appErrors.ErrNotFound, "sheet not found: "+sheet)
	}
	return copyTable(table), nil
}

// Upload replaces the sheet contents.
func (s *MemoryStore) Upload(ctx context.Context, resourceID, sheet string, table Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sheets[s.key(resourceID, sheet)] = copyTable(table)
	return nil
}

// Seed installs a sheet without going through Upload, useful in tests.
func (s *MemoryStore) Seed(resourceID, sheet string, table Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheets[s.key(resourceID, sheet)] = copyTable(table)
}

func (s *MemoryStore) key(resourceID, sheet string) string {
	return resourceID + "/" + sheet
}

func copyTable(t Table) Table {
	out := Table{Headers: append([]string(nil), t.Headers...)}
	out.Rows = make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		dup := make(map[string]string, len(row))
		for k, v := range row {
			dup[k] = v
		}
		out.Rows = append(out.Rows, dup)
	}
	return out
}
