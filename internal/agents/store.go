package agents

import (
	"context"
	"errors"
	"time"
)

// ErrStatusNotFound is returned when no mirrored status exists yet.
var ErrStatusNotFound = errors.New("agents: status not found")

// StatusRecord is the locally mirrored status of one agent.
type StatusRecord struct {
	AgentID    int64     `json:"agent_id"`
	Status     string    `json:"status"`
	LastActive time.Time `json:"last_active"`
}

// StatusStore mirrors agent statuses written through this backend so
// the UI reads the new value before the transaction confirms. The
// chain remains the source of truth.
type StatusStore interface {
	SetStatus(ctx context.Context, agentID int64, status string) error
	GetStatus(ctx context.Context, agentID int64) (StatusRecord, error)
}
