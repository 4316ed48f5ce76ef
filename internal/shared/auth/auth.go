package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/genai-playground/gateway/internal/shared/database"
	"github.com/genai-playground/gateway/internal/shared/models"
)

var (
	// ErrInvalidInvitation is returned on a bad or missing invitation code.
	ErrInvalidInvitation = errors.New("invalid invitation code")
	// ErrDuplicateUsername is returned when the username is taken.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrInvalidCredentials is returned on a bad username or password.
	// Deliberately identical for both cases.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrTokenExpired is returned for tokens past their expiry.
	ErrTokenExpired = errors.New("token has expired")
	// ErrTokenInvalid is returned for malformed or tampered tokens.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrUserNotFound is returned when a valid token names a user that no
	// longer resolves.
	ErrUserNotFound = errors.New("user not found")
)

// Service issues and verifies credentials. Passwords are stored as bcrypt
// hashes; tokens are HS256-signed JWTs carrying the username as their sole
// identity claim.
type Service struct {
	users          database.UserStore
	secret         []byte
	expiry         time.Duration
	invitationCode string
	now            func() time.Time
}

// NewService creates the auth service. An empty invitationCode closes
// registration entirely.
func NewService(users database.UserStore, secret string, expiry time.Duration, invitationCode string) *Service {
	return &Service{
		users:          users,
		secret:         []byte(secret),
		expiry:         expiry,
		invitationCode: invitationCode,
		now:            time.Now,
	}
}

// Register creates a new account after validating the invitation code.
func (s *Service) Register(ctx context.Context, username, password, invitationCode string) (*models.User, error) {
	if s.invitationCode == "" || invitationCode != s.invitationCode {
		return nil, ErrInvalidInvitation
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicateUsername) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login verifies the password and returns a signed token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": user.Username,
		"exp":      jwt.NewNumericDate(s.now().Add(s.expiry)),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Authenticate verifies a token and returns the username it names. The user
// must still exist in the store.
func (s *Service) Authenticate(ctx context.Context, tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr,
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{"HS256"}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrTokenInvalid
	}
	username, _ := claims["username"].(string)
	if username == "" {
		return "", ErrTokenInvalid
	}

	if _, err := s.users.GetUser(ctx, username); err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("failed to verify user: %w", err)
	}
	return username, nil
}
