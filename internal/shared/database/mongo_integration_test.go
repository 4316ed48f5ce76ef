package database

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genai-playground/gateway/internal/shared/models"
)

// Integration coverage for the Mongo store. Set MONGO_TEST_URL to run, e.g.
// MONGO_TEST_URL=mongodb://localhost:27017 go test ./internal/shared/database/...
func newIntegrationStore(t *testing.T) *MongoStore {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URL")
	if uri == "" {
		t.Skip("MONGO_TEST_URL not set, skipping Mongo integration test")
	}

	dbName := fmt.Sprintf("gateway_test_%d", time.Now().UnixNano())
	store, err := NewMongoStore(context.Background(), uri, dbName)
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = store.db.Drop(ctx)
		_ = store.Close(ctx)
	})
	return store
}

func TestMongoStoreUsersIntegration(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, &models.User{
		Username:     "alice",
		PasswordHash: []byte("hash"),
		CreatedAt:    time.Now().UTC(),
	}))

	got, err := s.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	err = s.CreateUser(ctx, &models.User{Username: "alice"})
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	_, err = s.GetUser(ctx, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMongoStoreHistoryIntegration(t *testing.T) {
	s := newIntegrationStore(t)
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
			Timestamp: base,
		}))
	}

	records, err := s.Query(ctx, "alice", 50)
	require.NoError(t, err)
	require.Len(t, records, 50)
	for _, rec := range records {
		assert.Equal(t, "alice", rec.Username)
	}
	assert.Equal(t, "prompt-59", records[0].Prompt)
}
