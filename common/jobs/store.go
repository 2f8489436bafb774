package jobs

import (
	"sync"
)

// RecordStore is a concurrency-safe map of job ID to its current Record.
// Writers are serialized per ID by the runner owning that job; readers are
// unbounded. Entries are kept for the process lifetime.
type RecordStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewRecordStore creates an empty store.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		records: make(map[string]Record),
	}
}

// Set replaces the record for a job ID.
func (s *RecordStore) Set(id string, record Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[id] = record
}

// Get returns the record for a job ID and whether it exists.
func (s *RecordStore) Get(id string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	return record, ok
}

// Len returns the number of tracked jobs.
func (s *RecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
