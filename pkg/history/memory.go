package history

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore implements Store using in-memory storage. All records are
// lost when the process exits.
//
// MemoryStore is thread-safe and supports concurrent access using
// sync.RWMutex.
type MemoryStore struct {
	// records holds the trail in append order.
	records []*Record

	// mu protects access to records.
	mu sync.RWMutex

	// maxRecords caps the trail; the oldest records are dropped when the
	// cap is reached.
	maxRecords int
}

// DefaultMaxMemoryRecords caps an unconfigured in-memory trail.
const DefaultMaxMemoryRecords = 100_000

// NewMemoryStore creates a new in-memory trail store with default settings.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{maxRecords: DefaultMaxMemoryRecords}
}

// Append adds a record to the trail.
func (m *MemoryStore) Append(ctx context.Context, rec *Record) error {
	if rec == nil {
		return fmt.Errorf("record cannot be nil")
	}
	if rec.ID == "" {
		return fmt.Errorf("record id cannot be empty")
	}
	if rec.Path == "" {
		return fmt.Errorf("record path cannot be empty")
	}
	if rec.DeletedAt.IsZero() {
		rec.DeletedAt = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append(m.records, rec)
	if len(m.records) > m.maxRecords {
		m.records = m.records[len(m.records)-m.maxRecords:]
	}
	return nil
}

// Recent returns up to limit records for a root, newest first.
func (m *MemoryStore) Recent(ctx context.Context, rootName string, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 100
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*Record
	for _, rec := range m.records {
		if rootName == "" || rec.RootName == rootName {
			matched = append(matched, rec)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].DeletedAt.After(matched[j].DeletedAt)
	})

	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// Count returns the number of stored records for a root.
func (m *MemoryStore) Count(ctx context.Context, rootName string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if rootName == "" {
		return int64(len(m.records)), nil
	}
	var count int64
	for _, rec := range m.records {
		if rec.RootName == rootName {
			count++
		}
	}
	return count, nil
}

// Cleanup removes records deleted before the cutoff.
func (m *MemoryStore) Cleanup(ctx context.Context, olderThan time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.records[:0]
	deleted := 0
	for _, rec := range m.records {
		if rec.DeletedAt.Before(olderThan) {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	m.records = kept
	return deleted, nil
}

// Close releases any resources held by the store.
func (m *MemoryStore) Close() error {
	return nil
}

// Size returns the current number of stored records.
// This is useful for monitoring and testing.
func (m *MemoryStore) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
