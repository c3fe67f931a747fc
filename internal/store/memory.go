package store

import (
	"context"
	"sync"

	"github.com/staffmeal/validation-service/internal/record"
)

// MemoryStore is an in-memory Store used by the CLI and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	records []record.ValidationRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

// Append stores a copy of the record and returns the assigned id.
func (s *MemoryStore) Append(ctx context.Context, rec *record.ValidationRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *rec
	stored.ID = s.nextID
	s.nextID++
	s.records = append(s.records, stored)
	return stored.ID, nil
}

// Query returns records matching the filter in insertion order.
func (s *MemoryStore) Query(ctx context.Context, filter Filter) ([]record.ValidationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]record.ValidationRecord, 0)
	for _, rec := range s.records {
		if !matches(&rec, filter) {
			continue
		}
		out = append(out, rec)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func matches(rec *record.ValidationRecord, filter Filter) bool {
	if filter.OrderID != "" && rec.OrderID != filter.OrderID {
		return false
	}
	if filter.Operator != "" && rec.Operator != filter.Operator {
		return false
	}
	if filter.Source != "" && rec.ExpectedOrder.Source != filter.Source {
		return false
	}
	if !filter.From.IsZero() && rec.Timestamp.Before(filter.From) {
		return false
	}
	if !filter.Until.IsZero() && !rec.Timestamp.Before(filter.Until) {
		return false
	}
	return true
}
