package notify

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory notification store for demo/development mode.
type MemoryStore struct {
	byUser map[string][]Notification
	mu     sync.RWMutex
}

// NewMemoryStore creates a new in-memory notification store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byUser: make(map[string][]Notification)}
}

func (m *MemoryStore) Add(ctx context.Context, n Notification) (Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now().UTC()
	}
	m.byUser[n.User] = append(m.byUser[n.User], n)
	return n, nil
}

func (m *MemoryStore) List(ctx context.Context, user string, limit int) ([]Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := m.byUser[user]
	out := make([]Notification, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) MarkRead(ctx context.Context, user, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := m.byUser[user]
	for i := range items {
		if items[i].ID == id {
			items[i].Read = true
			return nil
		}
	}
	return ErrNotFound
}
