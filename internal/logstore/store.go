package logstore

import (
	"context"
	"time"
)

// Store is the persistence interface for agent action logs.
//
// All read operations return entries newest-first. A partition that does
// not exist behaves exactly like an empty one.
type Store interface {
	// Append persists one entry into its agent's partition.
	Append(ctx context.Context, e Entry) error

	// RecentN returns up to n most recent entries for one agent.
	RecentN(ctx context.Context, agentID int64, n int) ([]Entry, error)

	// Range returns entries for one agent with from <= timestamp <= to,
	// both bounds inclusive.
	Range(ctx context.Context, agentID int64, from, to time.Time) ([]Entry, error)

	// ListPartitions returns the ids of every agent that has at least one
	// entry, in ascending order.
	ListPartitions(ctx context.Context) ([]int64, error)
}
