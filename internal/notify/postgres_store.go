package notify

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PostgresStore implements Store with PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed notification store
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the notifications table. Production deployments run
// the goose migrations instead.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS notifications (
			id         VARCHAR(36) PRIMARY KEY,
			user_addr  VARCHAR(64) NOT NULL,
			timestamp  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			title      VARCHAR(200) NOT NULL,
			message    TEXT NOT NULL,
			type       VARCHAR(20) NOT NULL,
			read       BOOLEAN NOT NULL DEFAULT FALSE,
			agent_id   BIGINT
		);

		CREATE INDEX IF NOT EXISTS idx_notifications_user_ts ON notifications(user_addr, timestamp DESC);
	`)
	return err
}

func (p *PostgresStore) Add(ctx context.Context, n Notification) (Notification, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now().UTC()
	}

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_addr, timestamp, title, message, type, read, agent_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, n.ID, n.User, n.Timestamp, n.Title, n.Message, n.Type, n.Read, n.AgentID)
	if err != nil {
		return Notification{}, fmt.Errorf("notify: add: %w", err)
	}
	return n, nil
}

func (p *PostgresStore) List(ctx context.Context, user string, limit int) ([]Notification, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, user_addr, timestamp, title, message, type, read, agent_id
		FROM notifications
		WHERE user_addr = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`, user, limit)
	if err != nil {
		return nil, fmt.Errorf("notify: list: %w", err)
	}
	defer rows.Close()

	out := []Notification{}
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.User, &n.Timestamp, &n.Title, &n.Message, &n.Type, &n.Read, &n.AgentID); err != nil {
			return nil, fmt.Errorf("notify: list: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("notify: list: %w", err)
	}
	return out, nil
}

func (p *PostgresStore) MarkRead(ctx context.Context, user, id string) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE notifications SET read = TRUE WHERE user_addr = $1 AND id = $2
	`, user, id)
	if err != nil {
		return fmt.Errorf("notify: mark read: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
