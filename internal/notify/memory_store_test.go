package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUser = "ST2CY5V39NHDPWSXMW9QDT3HC3GD6Q6XX4CFRK9AG"

func TestMemoryStore_AddAssignsIDAndTimestamp(t *testing.T) {
	s := NewMemoryStore()

	n, err := s.Add(context.Background(), Notification{
		User:    testUser,
		Title:   "Agent online",
		Message: "dca-bot switched to online",
		Type:    TypeAgent,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, n.ID)
	assert.False(t, n.Timestamp.IsZero())
	assert.False(t, n.Read)
}

func TestMemoryStore_ListNewestFirstWithLimit(t *testing.T) {
	s := NewMemoryStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, title := range []string{"first", "second", "third"} {
		_, err := s.Add(context.Background(), Notification{
			User:      testUser,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Title:     title,
			Message:   "m",
			Type:      TypeSystem,
		})
		require.NoError(t, err)
	}

	out, err := s.List(context.Background(), testUser, 2)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "third", out[0].Title)
	assert.Equal(t, "second", out[1].Title)

	// Unknown users read empty, not an error.
	out, err = s.List(context.Background(), "ST3AM1A56AK2C1XAFJ4K3ZJN5T9SYGJ7BB9TQXGZP", 10)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestMemoryStore_MarkRead(t *testing.T) {
	s := NewMemoryStore()

	n, err := s.Add(context.Background(), Notification{
		User: testUser, Title: "t", Message: "m", Type: TypeWallet,
	})
	require.NoError(t, err)

	require.NoError(t, s.MarkRead(context.Background(), testUser, n.ID))

	out, err := s.List(context.Background(), testUser, 10)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].Read)

	assert.ErrorIs(t, s.MarkRead(context.Background(), testUser, "missing"), ErrNotFound)
	assert.ErrorIs(t, s.MarkRead(context.Background(), "other-user", n.ID), ErrNotFound)
}

func TestNotificationJSON_TimestampIsUnixSeconds(t *testing.T) {
	n := Notification{
		ID:        "n-1",
		User:      testUser,
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Title:     "t",
		Message:   "m",
		Type:      TypeAgent,
	}

	data, err := n.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"timestamp":1772366400`)

	var back Notification
	require.NoError(t, back.UnmarshalJSON(data))
	assert.True(t, n.Timestamp.Equal(back.Timestamp))
}
