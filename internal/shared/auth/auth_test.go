package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genai-playground/gateway/internal/shared/database"
)

const (
	testSecret = "test-signing-secret"
	testInvite = "friends-only"
)

func newTestService() (*Service, *database.MemoryStore) {
	store := database.NewMemoryStore()
	svc := NewService(store, testSecret, 24*time.Hour, testInvite)
	return svc, store
}

func TestRegisterLoginAuthenticate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "s3cret", testInvite)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.NotEqual(t, []byte("s3cret"), user.PasswordHash, "password must be hashed")

	token, err := svc.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	username, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "alice", username)
}

func TestTokenClaimsAndExpiry(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "pw", testInvite)
	require.NoError(t, err)

	before := time.Now()
	tokenStr, err := svc.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		return []byte(testSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "alice", claims["username"])

	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	assert.WithinDuration(t, before.Add(24*time.Hour), exp.Time, time.Minute)
}

func TestRegisterInvalidInvitationCode(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Register(context.Background(), "alice", "pw", "wrong-code")
	assert.ErrorIs(t, err, ErrInvalidInvitation)
}

func TestRegisterClosedWhenNoCodeConfigured(t *testing.T) {
	svc := NewService(database.NewMemoryStore(), testSecret, time.Hour, "")

	// Even an empty submitted code is rejected when registration is closed.
	_, err := svc.Register(context.Background(), "alice", "pw", "")
	assert.ErrorIs(t, err, ErrInvalidInvitation)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "pw", testInvite)
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "other", testInvite)
	assert.ErrorIs(t, err, ErrDuplicateUsername)
}

func TestLoginBadCredentials(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "pw", testInvite)
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateExpiredToken(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "pw", testInvite)
	require.NoError(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": "alice",
		"exp":      jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	tokenStr, err := expired.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, tokenStr)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestAuthenticateMalformedToken(t *testing.T) {
	svc, _ := newTestService()

	for _, tok := range []string{"", "not-a-jwt", "aaaa.bbbb.cccc"} {
		_, err := svc.Authenticate(context.Background(), tok)
		assert.ErrorIs(t, err, ErrTokenInvalid, "token %q", tok)
	}
}

func TestAuthenticateWrongSignature(t *testing.T) {
	svc, _ := newTestService()

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": "alice",
		"exp":      jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	tokenStr, err := forged.SignedString([]byte("some-other-secret"))
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), tokenStr)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestAuthenticateUnknownUser(t *testing.T) {
	svc, _ := newTestService()

	// Valid signature, but the user was never registered.
	ghost := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": "ghost",
		"exp":      jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	tokenStr, err := ghost.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), tokenStr)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAuthenticateTokenWithoutUsername(t *testing.T) {
	svc, _ := newTestService()

	anonymous := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	tokenStr, err := anonymous.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), tokenStr)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
