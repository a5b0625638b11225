// Package store holds scan records in memory. It is the single source of
// truth for scan state: the request path reads from it while the background
// runner and the enrichment pass write to it.
package store

import (
	"fmt"
	"sync"

	"github.com/sitelens/sitelens/internal/model"
)

// ScanStore is the record store contract. Writes are atomic full
// replacements: readers never observe a partially written record.
type ScanStore interface {
	// Create inserts a new record under its ScanID. It fails if the id
	// already exists; scan ids are never reused.
	Create(rec model.ScanRecord) error

	// Get returns a copy of the record, or model.ErrScanNotFound.
	Get(scanID string) (model.ScanRecord, error)

	// Put replaces the whole record.
	Put(scanID string, rec model.ScanRecord) error

	// Update applies fn to the current record under the store lock and
	// commits the result as one replacement. fn must not block on I/O.
	Update(scanID string, fn func(rec *model.ScanRecord)) (model.ScanRecord, error)
}

// MemoryStore is a mutex-guarded map of scan records. Contention per record
// is low (the creator, the runner once, the enricher once), so a single
// RWMutex over the map is enough.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]model.ScanRecord
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]model.ScanRecord)}
}

func (m *MemoryStore) Create(rec model.ScanRecord) error {
	if rec.ScanID == "" {
		return fmt.Errorf("create scan record: empty scan id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.records[rec.ScanID]; exists {
		return fmt.Errorf("create scan record: id %s already exists", rec.ScanID)
	}
	m.records[rec.ScanID] = rec.Clone()
	return nil
}

func (m *MemoryStore) Get(scanID string) (model.ScanRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[scanID]
	if !ok {
		return model.ScanRecord{}, model.ErrScanNotFound
	}
	return rec.Clone(), nil
}

func (m *MemoryStore) Put(scanID string, rec model.ScanRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[scanID]; !ok {
		return model.ErrScanNotFound
	}
	m.records[scanID] = rec.Clone()
	return nil
}

func (m *MemoryStore) Update(scanID string, fn func(rec *model.ScanRecord)) (model.ScanRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[scanID]
	if !ok {
		return model.ScanRecord{}, model.ErrScanNotFound
	}
	working := rec.Clone()
	fn(&working)
	m.records[scanID] = working
	return working.Clone(), nil
}

// Len returns the number of stored records.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
