package agents

import (
	"context"
	"sync"
	"time"
)

// MemoryStatusStore is an in-memory status mirror for demo/development mode.
type MemoryStatusStore struct {
	statuses map[int64]StatusRecord
	mu       sync.RWMutex
}

// NewMemoryStatusStore creates a new in-memory status mirror.
func NewMemoryStatusStore() *MemoryStatusStore {
	return &MemoryStatusStore{statuses: make(map[int64]StatusRecord)}
}

func (m *MemoryStatusStore) SetStatus(ctx context.Context, agentID int64, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[agentID] = StatusRecord{
		AgentID:    agentID,
		Status:     status,
		LastActive: time.Now().UTC(),
	}
	return nil
}

func (m *MemoryStatusStore) GetStatus(ctx context.Context, agentID int64) (StatusRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.statuses[agentID]
	if !ok {
		return StatusRecord{}, ErrStatusNotFound
	}
	return rec, nil
}
