package jobs

import (
	"context"
	"sync"
)

// MemoryStore keeps the most recent jobs in memory, oldest evicted first.
type MemoryStore struct {
	mu       sync.RWMutex
	capacity int
	jobs     []Job // oldest first
}

// NewMemoryStore creates a store holding at most capacity jobs.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = 200
	}
	return &MemoryStore{capacity: capacity}
}

// Record implements Store.
func (m *MemoryStore) Record(_ context.Context, job Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.jobs = append(m.jobs, job)
	if over := len(m.jobs) - m.capacity; over > 0 {
		m.jobs = append(m.jobs[:0:0], m.jobs[over:]...)
	}
	return nil
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, id string) (Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.jobs) - 1; i >= 0; i-- {
		if m.jobs[i].ID == id {
			return m.jobs[i], nil
		}
	}
	return Job{}, ErrNotFound
}

// Recent implements Store, newest first.
func (m *MemoryStore) Recent(_ context.Context, limit int) ([]Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > len(m.jobs) {
		limit = len(m.jobs)
	}
	out := make([]Job, 0, limit)
	for i := len(m.jobs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.jobs[i])
	}
	return out, nil
}
