package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genai-playground/gateway/internal/shared/models"
)

func TestMemoryStoreUsers(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	user := &models.User{Username: "alice", PasswordHash: []byte("hash"), CreatedAt: time.Now()}
	require.NoError(t, s.CreateUser(ctx, user))

	got, err := s.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, []byte("hash"), got.PasswordHash)

	err = s.CreateUser(ctx, &models.User{Username: "alice"})
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	_, err = s.GetUser(ctx, "bob")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMemoryStoreHistoryLimitAndOwnership(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 60; i++ {
		require.NoError(t, s.Append(ctx, &models.HistoryRecord{
			Username:  "alice",
			Prompt:    fmt.Sprintf("prompt-%d", i),
			Model:     "flux_kontext",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(ctx, &models.HistoryRecord{
			Username:  "bob",
			Prompt:    fmt.Sprintf("bob-%d", i),
			Model:     "flux_krea",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	records, err := s.Query(ctx, "alice", 50)
	require.NoError(t, err)
	require.Len(t, records, 50)

	for i, rec := range records {
		assert.Equal(t, "alice", rec.Username)
		if i > 0 {
			assert.False(t, rec.Timestamp.After(records[i-1].Timestamp),
				"records must be newest-first")
		}
	}
	// The newest record wins the first slot, the 10 oldest fall off.
	assert.Equal(t, "prompt-59", records[0].Prompt)
	assert.Equal(t, "prompt-10", records[49].Prompt)
}

func TestMemoryStoreHistoryTieBreakIsInsertionOrder(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Append(ctx, &models.HistoryRecord{
			Username:  "alice",
			Prompt:    fmt.Sprintf("tied-%d", i),
			Timestamp: ts,
		}))
	}

	records, err := s.Query(ctx, "alice", 50)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "tied-2", records[0].Prompt)
	assert.Equal(t, "tied-1", records[1].Prompt)
	assert.Equal(t, "tied-0", records[2].Prompt)
}

func TestMemoryStoreDefaultLimit(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 55; i++ {
		require.NoError(t, s.Append(ctx, &models.HistoryRecord{
			Username:  "alice",
			Timestamp: time.Now().Add(time.Duration(i) * time.Second),
		}))
	}

	records, err := s.Query(ctx, "alice", 0)
	require.NoError(t, err)
	assert.Len(t, records, DefaultHistoryLimit)
}

func TestMemoryStoreTextRecords(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.AppendText(ctx, &models.TextRecord{
		Type:     "text",
		Username: "alice",
		Prompt:   "hello",
	}))

	records := s.TextRecords()
	require.Len(t, records, 1)
	assert.Equal(t, "alice", records[0].Username)
}
