// Package logstore persists agent action logs partitioned by agent.
//
// Every entry belongs to exactly one agent partition. Reads are always
// returned newest-first, and an agent with no history yields an empty
// slice, not an error.
package logstore

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/bitgenius/backend/internal/validation"
)

// ErrUnavailable wraps backend failures so callers can distinguish an
// unreachable store from an empty one.
var ErrUnavailable = errors.New("logstore: store unavailable")

// Entry is a single agent action record.
//
// Status is the action outcome ("success", "failed", and friends), not
// the agent lifecycle status; the two vocabularies never mix.
// TransactionID, Amount, and Fee are optional; a nil pointer means the
// field was absent at log time, which is distinct from a present zero.
type Entry struct {
	AgentID   int64     `json:"agent_id"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Status    string    `json:"status"`
	Details   string    `json:"details"`

	TransactionID *string `json:"transaction_id,omitempty"`
	Amount        *int64  `json:"amount,omitempty"`
	Fee           *int64  `json:"fee,omitempty"`
}

// StatusSuccess is the outcome value performance rollups count as a win.
const StatusSuccess = "success"

// entryWire mirrors Entry with the timestamp as Unix seconds, which is
// how log timestamps travel on the API surface.
type entryWire struct {
	AgentID       int64   `json:"agent_id"`
	Timestamp     int64   `json:"timestamp"`
	Action        string  `json:"action"`
	Status        string  `json:"status"`
	Details       string  `json:"details"`
	TransactionID *string `json:"transaction_id,omitempty"`
	Amount        *int64  `json:"amount,omitempty"`
	Fee           *int64  `json:"fee,omitempty"`
}

func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(entryWire{
		AgentID:       e.AgentID,
		Timestamp:     e.Timestamp.Unix(),
		Action:        e.Action,
		Status:        e.Status,
		Details:       e.Details,
		TransactionID: e.TransactionID,
		Amount:        e.Amount,
		Fee:           e.Fee,
	})
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var w entryWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*e = Entry{
		AgentID:       w.AgentID,
		Action:        w.Action,
		Status:        w.Status,
		Details:       w.Details,
		TransactionID: w.TransactionID,
		Amount:        w.Amount,
		Fee:           w.Fee,
	}
	if w.Timestamp != 0 {
		e.Timestamp = time.Unix(w.Timestamp, 0).UTC()
	}
	return nil
}

// Validate checks the entry before it is appended. All four descriptive
// fields are required; an entry is accepted whole or not at all.
func (e *Entry) Validate() error {
	if err := validation.Validate(
		validation.Positive("agent_id", e.AgentID),
		validation.BoundedString("action", e.Action, validation.MaxTriggerLength),
		validation.Required("status", e.Status),
		validation.BoundedString("details", e.Details, validation.MaxDetailsLength),
		validation.NonNegative("amount", e.Amount),
		validation.NonNegative("fee", e.Fee),
	); err != nil {
		return err
	}
	if e.TransactionID != nil && *e.TransactionID == "" {
		return &validation.ValidationError{Field: "transaction_id", Message: "transaction_id must not be empty when present"}
	}
	return nil
}

// HasTransaction reports whether the entry carries a transaction id.
func (e *Entry) HasTransaction() bool {
	return e.TransactionID != nil && *e.TransactionID != ""
}
