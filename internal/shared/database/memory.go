package database

import (
	"context"
	"sort"
	"sync"

	"github.com/genai-playground/gateway/internal/shared/models"
)

// MemoryStore is an in-memory Store. It backs the gateway when no database
// URL is configured (the API stays up, persistence is non-durable) and the
// unit tests.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[string]models.User
	history []models.HistoryRecord
	texts   []models.TextRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]models.User)}
}

func (s *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Username]; ok {
		return ErrDuplicateUsername
	}
	s.users[user.Username] = *user
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (s *MemoryStore) Append(ctx context.Context, rec *models.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, *rec)
	return nil
}

// Query returns up to limit records for username, newest first. Ties on
// timestamp keep the later insertion first so pagination stays stable.
func (s *MemoryStore) Query(ctx context.Context, username string, limit int64) ([]models.HistoryRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	s.mu.RLock()
	matched := make([]models.HistoryRecord, 0, limit)
	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].Username == username {
			matched = append(matched, s.history[i])
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	if int64(len(matched)) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *MemoryStore) AppendText(ctx context.Context, rec *models.TextRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, *rec)
	return nil
}

// TextRecords returns a copy of the stored text generations. Test helper.
func (s *MemoryStore) TextRecords() []models.TextRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.TextRecord, len(s.texts))
	copy(out, s.texts)
	return out
}

func (s *MemoryStore) Close(ctx context.Context) error { return nil }
