// internal/storage/batch/memory.go
package batch

import (
	"context"
	"sync"
	"time"

	"github.com/newthinker/binsig/internal/core"
)

type memoryEntry struct {
	batch     core.Batch
	expiresAt time.Time
}

// MemoryStore is an in-memory batch store bounded by count and age.
type MemoryStore struct {
	entries []memoryEntry // oldest first
	maxSize int
	ttl     time.Duration
	mu      sync.RWMutex
	now     func() time.Time
}

// NewMemoryStore creates a new in-memory store with max capacity.
// A zero ttl keeps batches until they are pushed out by newer ones.
func NewMemoryStore(maxSize int, ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make([]memoryEntry, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Save adds a batch to the store.
func (m *MemoryStore) Save(ctx context.Context, b core.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := memoryEntry{batch: b}
	if m.ttl > 0 {
		e.expiresAt = m.now().Add(m.ttl)
	}
	m.entries = append(m.entries, e)

	// Trim if over capacity (remove oldest)
	if m.maxSize > 0 && len(m.entries) > m.maxSize {
		m.entries = m.entries[len(m.entries)-m.maxSize:]
	}

	return nil
}

// Get retrieves a batch by ID.
func (m *MemoryStore) Get(ctx context.Context, id string) (*core.Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.now()
	for i := range m.entries {
		e := m.entries[i]
		if e.batch.ID == id && m.live(e, now) {
			b := e.batch
			return &b, nil
		}
	}
	return nil, core.ErrBatchNotFound
}

// List returns batches matching the filter, newest first.
func (m *MemoryStore) List(ctx context.Context, filter ListFilter) ([]core.Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.now()
	result := []core.Batch{}
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if !m.live(e, now) || !filter.matches(e.batch) {
			continue
		}
		result = append(result, e.batch)
		if filter.Limit > 0 && len(result) == filter.Limit {
			break
		}
	}
	return result, nil
}

func (m *MemoryStore) live(e memoryEntry, now time.Time) bool {
	return e.expiresAt.IsZero() || now.Before(e.expiresAt)
}
