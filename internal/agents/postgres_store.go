package agents

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresStatusStore implements StatusStore with PostgreSQL
type PostgresStatusStore struct {
	db *sql.DB
}

// NewPostgresStatusStore creates a new PostgreSQL-backed status mirror
func NewPostgresStatusStore(db *sql.DB) *PostgresStatusStore {
	return &PostgresStatusStore{db: db}
}

// Migrate creates the agent_status table. Production deployments run
// the goose migrations instead.
func (p *PostgresStatusStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS agent_status (
			agent_id     BIGINT PRIMARY KEY,
			status       VARCHAR(20) NOT NULL,
			last_active  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	return err
}

func (p *PostgresStatusStore) SetStatus(ctx context.Context, agentID int64, status string) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO agent_status (agent_id, status, last_active)
		VALUES ($1, $2, $3)
		ON CONFLICT (agent_id) DO UPDATE SET status = $2, last_active = $3
	`, agentID, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("agents: set status: %w", err)
	}
	return nil
}

func (p *PostgresStatusStore) GetStatus(ctx context.Context, agentID int64) (StatusRecord, error) {
	rec := StatusRecord{AgentID: agentID}
	err := p.db.QueryRowContext(ctx, `
		SELECT status, last_active FROM agent_status WHERE agent_id = $1
	`, agentID).Scan(&rec.Status, &rec.LastActive)
	if err == sql.ErrNoRows {
		return StatusRecord{}, ErrStatusNotFound
	}
	if err != nil {
		return StatusRecord{}, fmt.Errorf("agents: get status: %w", err)
	}
	return rec, nil
}
