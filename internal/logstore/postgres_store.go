package logstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bitgenius/backend/internal/metrics"
)

// PostgresStore implements Store with PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed log store
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the agent_logs table. Production deployments run the
// goose migrations instead; this covers integration tests and demo mode.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS agent_logs (
			id              BIGSERIAL PRIMARY KEY,
			agent_id        BIGINT NOT NULL,
			timestamp       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			action          VARCHAR(100) NOT NULL,
			status          VARCHAR(20) NOT NULL,
			details         VARCHAR(500) NOT NULL DEFAULT '',
			transaction_id  VARCHAR(128),
			amount          BIGINT,
			fee             BIGINT
		);

		CREATE INDEX IF NOT EXISTS idx_agent_logs_agent_ts ON agent_logs(agent_id, timestamp DESC);
		CREATE INDEX IF NOT EXISTS idx_agent_logs_tx ON agent_logs(transaction_id) WHERE transaction_id IS NOT NULL;
	`)
	return err
}

func (p *PostgresStore) Append(ctx context.Context, e Entry) error {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO agent_logs (agent_id, timestamp, action, status, details, transaction_id, amount, fee)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, e.AgentID, ts, e.Action, e.Status, e.Details, e.TransactionID, e.Amount, e.Fee)
	if err != nil {
		return p.unavailable("append", err)
	}
	return nil
}

func (p *PostgresStore) RecentN(ctx context.Context, agentID int64, n int) ([]Entry, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT agent_id, timestamp, action, status, details, transaction_id, amount, fee
		FROM agent_logs
		WHERE agent_id = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`, agentID, n)
	if err != nil {
		return nil, p.unavailable("recent_n", err)
	}
	defer rows.Close()

	return p.scanEntries(rows, "recent_n")
}

func (p *PostgresStore) Range(ctx context.Context, agentID int64, from, to time.Time) ([]Entry, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT agent_id, timestamp, action, status, details, transaction_id, amount, fee
		FROM agent_logs
		WHERE agent_id = $1 AND timestamp >= $2 AND timestamp <= $3
		ORDER BY timestamp DESC
	`, agentID, from, to)
	if err != nil {
		return nil, p.unavailable("range", err)
	}
	defer rows.Close()

	return p.scanEntries(rows, "range")
}

func (p *PostgresStore) ListPartitions(ctx context.Context) ([]int64, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT DISTINCT agent_id FROM agent_logs ORDER BY agent_id ASC
	`)
	if err != nil {
		return nil, p.unavailable("list_partitions", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, p.unavailable("list_partitions", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, p.unavailable("list_partitions", err)
	}
	return ids, nil
}

func (p *PostgresStore) scanEntries(rows *sql.Rows, op string) ([]Entry, error) {
	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.AgentID, &e.Timestamp, &e.Action, &e.Status, &e.Details,
			&e.TransactionID, &e.Amount, &e.Fee); err != nil {
			return nil, p.unavailable(op, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, p.unavailable(op, err)
	}
	return entries, nil
}

func (p *PostgresStore) unavailable(op string, err error) error {
	metrics.LogStoreErrorsTotal.WithLabelValues(op).Inc()
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}
