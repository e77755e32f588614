package logstore

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory log store for demo/development mode.
type MemoryStore struct {
	partitions map[int64][]Entry
	mu         sync.RWMutex
}

// NewMemoryStore creates a new in-memory log store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		partitions: make(map[int64][]Entry),
	}
}

func (m *MemoryStore) Append(ctx context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	m.partitions[e.AgentID] = append(m.partitions[e.AgentID], e)
	return nil
}

func (m *MemoryStore) RecentN(ctx context.Context, agentID int64, n int) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	part := m.partitions[agentID]
	out := make([]Entry, len(part))
	copy(out, part)
	sortNewestFirst(out)

	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (m *MemoryStore) Range(ctx context.Context, agentID int64, from, to time.Time) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Entry
	for _, e := range m.partitions[agentID] {
		// Both bounds inclusive.
		if e.Timestamp.Before(from) || e.Timestamp.After(to) {
			continue
		}
		out = append(out, e)
	}
	if out == nil {
		out = []Entry{}
	}
	sortNewestFirst(out)
	return out, nil
}

func (m *MemoryStore) ListPartitions(ctx context.Context) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]int64, 0, len(m.partitions))
	for id, part := range m.partitions {
		if len(part) == 0 {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func sortNewestFirst(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
}
