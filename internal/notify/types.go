// Package notify stores per-user dashboard notifications.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a notification id does not exist for the user.
var ErrNotFound = errors.New("notify: notification not found")

// Notification types surfaced on the dashboard.
const (
	TypeAgent  = "agent"
	TypeWallet = "wallet"
	TypeSystem = "system"
)

// Notification is one dashboard notification. AgentID is set only for
// agent-scoped notifications.
type Notification struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Timestamp time.Time `json:"timestamp"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Read      bool      `json:"read"`
	AgentID   *int64    `json:"agent_id,omitempty"`
}

type notificationWire struct {
	ID        string `json:"id"`
	User      string `json:"user"`
	Timestamp int64  `json:"timestamp"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Type      string `json:"type"`
	Read      bool   `json:"read"`
	AgentID   *int64 `json:"agent_id,omitempty"`
}

func (n Notification) MarshalJSON() ([]byte, error) {
	return json.Marshal(notificationWire{
		ID:        n.ID,
		User:      n.User,
		Timestamp: n.Timestamp.Unix(),
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type,
		Read:      n.Read,
		AgentID:   n.AgentID,
	})
}

func (n *Notification) UnmarshalJSON(data []byte) error {
	var w notificationWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*n = Notification{
		ID:      w.ID,
		User:    w.User,
		Title:   w.Title,
		Message: w.Message,
		Type:    w.Type,
		Read:    w.Read,
		AgentID: w.AgentID,
	}
	if w.Timestamp != 0 {
		n.Timestamp = time.Unix(w.Timestamp, 0).UTC()
	}
	return nil
}

// Store persists notifications per user, read back newest first.
type Store interface {
	Add(ctx context.Context, n Notification) (Notification, error)
	List(ctx context.Context, user string, limit int) ([]Notification, error)
	MarkRead(ctx context.Context, user, id string) error
}
