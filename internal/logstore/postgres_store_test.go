//go:build integration

package logstore

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) (*PostgresStore, func()) {
	t.Helper()

	dbURL := os.Getenv("POSTGRES_URL")
	if dbURL == "" {
		t.Skip("POSTGRES_URL not set, skipping integration test")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	store := NewPostgresStore(db)
	ctx := context.Background()

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	cleanup := func() {
		db.ExecContext(ctx, `DELETE FROM agent_logs`)
		db.Close()
	}
	return store, cleanup
}

func TestPostgresStore_AppendAndRecentN(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	txid := "stx-tx-1"
	amount := int64(25000)

	for i, action := range []string{"scan", "trade", "rebalance"} {
		e := Entry{
			AgentID:   1,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Action:    action,
			Status:    "success",
			Details:   "integration",
		}
		if action == "trade" {
			e.TransactionID = &txid
			e.Amount = &amount
		}
		require.NoError(t, store.Append(ctx, e))
	}

	entries, err := store.RecentN(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "rebalance", entries[0].Action)
	assert.Equal(t, "trade", entries[1].Action)

	require.NotNil(t, entries[1].TransactionID)
	assert.Equal(t, "stx-tx-1", *entries[1].TransactionID)
	assert.Nil(t, entries[0].TransactionID)
	assert.Nil(t, entries[0].Fee)
}

func TestPostgresStore_RangeInclusive(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, Entry{
			AgentID:   2,
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Action:    "tick",
			Status:    "success",
		}))
	}

	entries, err := store.Range(ctx, 2, base.Add(time.Hour), base.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	empty, err := store.Range(ctx, 2, base.Add(24*time.Hour), base.Add(48*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPostgresStore_ListPartitions(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Now().UTC()
	for _, id := range []int64{9, 3, 6} {
		require.NoError(t, store.Append(ctx, Entry{
			AgentID: id, Timestamp: now, Action: "scan", Status: "success",
		}))
	}

	ids, err := store.ListPartitions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 6, 9}, ids)
}
