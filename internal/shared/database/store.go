package database

import (
	"context"
	"errors"

	"github.com/genai-playground/gateway/internal/shared/models"
)

// ErrUserNotFound is returned by GetUser for unknown usernames.
var ErrUserNotFound = errors.New("user not found")

// ErrDuplicateUsername is returned by CreateUser when the username exists.
var ErrDuplicateUsername = errors.New("username already exists")

// DefaultHistoryLimit bounds a history query when the caller passes no limit.
const DefaultHistoryLimit = 50

// UserStore persists accounts. Users are created once and never updated.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, username string) (*models.User, error)
}

// HistoryStore is the append-only per-user image generation record store.
// Query returns at most limit records for one user, newest first.
type HistoryStore interface {
	Append(ctx context.Context, rec *models.HistoryRecord) error
	Query(ctx context.Context, username string, limit int64) ([]models.HistoryRecord, error)
}

// TextStore persists text/chat generations. Write-only from the gateway's
// perspective; failures are logged by callers, never surfaced.
type TextStore interface {
	AppendText(ctx context.Context, rec *models.TextRecord) error
}

// Store bundles every collection the gateway uses.
type Store interface {
	UserStore
	HistoryStore
	TextStore
	Close(ctx context.Context) error
}
