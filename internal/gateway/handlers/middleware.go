package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/genai-playground/gateway/internal/shared/auth"
	"github.com/genai-playground/gateway/internal/shared/metrics"
	"github.com/genai-playground/gateway/internal/shared/redis"
)

// usernameKey is the context key for the authenticated username.
type usernameKey struct{}

// UsernameFromContext extracts the authenticated username, or "" if the
// request did not pass the auth middleware.
func UsernameFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(usernameKey{}).(string); ok {
		return v
	}
	return ""
}

type Middleware struct {
	auth           *auth.Service
	redis          *redis.Client // nil disables rate limiting
	limit          int
	allowedOrigins []string
	metrics        *metrics.Collector
	logger         *zap.Logger
}

func NewMiddleware(authSvc *auth.Service, redisClient *redis.Client, limit int, allowedOrigins []string, collector *metrics.Collector, logger *zap.Logger) *Middleware {
	return &Middleware{
		auth:           authSvc,
		redis:          redisClient,
		limit:          limit,
		allowedOrigins: allowedOrigins,
		metrics:        collector,
		logger:         logger,
	}
}

// AuthMiddleware verifies the Bearer token and injects the username.
func (m *Middleware) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "missing or malformed authorization header")
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")

		username, err := m.auth.Authenticate(r.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrTokenExpired):
				writeError(w, http.StatusUnauthorized, "token has expired")
			case errors.Is(err, auth.ErrUserNotFound):
				writeError(w, http.StatusUnauthorized, "user not found")
			default:
				writeError(w, http.StatusUnauthorized, "invalid token")
			}
			return
		}

		ctx := context.WithValue(r.Context(), usernameKey{}, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RateLimitMiddleware enforces the per-user fixed-window limit. Disabled
// entirely when no Redis client is configured; a Redis outage fails open.
func (m *Middleware) RateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.redis == nil {
			next.ServeHTTP(w, r)
			return
		}

		username := UsernameFromContext(r.Context())
		if username == "" {
			next.ServeHTTP(w, r)
			return
		}

		exceeded, remaining, err := m.redis.CheckRateLimit(r.Context(), username, m.limit)
		if err != nil {
			m.logger.Warn("rate limit check failed", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(m.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if exceeded {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// CORSMiddleware allows the configured cross-origin callers.
func (m *Middleware) CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && m.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) originAllowed(origin string) bool {
	for _, allowed := range m.allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// RequestLogger logs each request and records the request counter.
func (m *Middleware) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		m.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rw.statusCode),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote_addr", r.RemoteAddr),
		)
		if m.metrics != nil {
			m.metrics.RequestsTotal.WithLabelValues(r.URL.Path, fmt.Sprintf("%d", rw.statusCode)).Inc()
		}
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
