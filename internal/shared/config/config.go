package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the gateway.
type Config struct {
	// Server
	Port string
	Env  string

	// MongoDB. Empty URL disables durable persistence (the API stays up on
	// an in-memory store).
	MongoURL    string
	MongoDBName string

	// Inference provider
	VerdaAPIKey            string
	VerdaClientID          string
	VerdaClientSecret      string
	ContainerAPIURL        string
	UpstreamTimeoutSeconds int

	// Per-model endpoint URLs
	FluxKontextURL string
	FluxKreaURL    string
	FluxKleinURL   string
	QwenImageURL   string

	// Auth
	JWTSecret      string
	JWTExpiryHours int
	InvitationCode string

	// CORS
	AllowedOrigins []string

	// Rate limiting (enabled only when RedisURL is set)
	RedisURL           string
	RateLimitPerMinute int
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Port:                   getEnv("PORT", "8080"),
		Env:                    getEnv("ENV", "development"),
		MongoURL:               getEnv("MONGO_DB_URL", ""),
		MongoDBName:            getEnv("MONGO_DB_NAME", "gen_ai_playground"),
		VerdaAPIKey:            getEnv("VERDA_API_KEY", ""),
		VerdaClientID:          getEnv("VERDA_CLIENT_ID", ""),
		VerdaClientSecret:      getEnv("VERDA_CLIENT_SECRET", ""),
		ContainerAPIURL:        getEnv("VERDA_CONTAINER_API_URL", "https://containers.datacrunch.io/v1"),
		UpstreamTimeoutSeconds: getEnvInt("UPSTREAM_TIMEOUT_SECONDS", 120),
		FluxKontextURL:         getEnv("FLUX_KONTEXT_URL", "https://inference.datacrunch.io/flux-kontext-dev/predict"),
		FluxKreaURL:            getEnv("FLUX_KREA_URL", "https://inference.datacrunch.io/flux-krea-dev/runsync"),
		FluxKleinURL:           getEnv("FLUX_KLEIN_URL", "https://inference.datacrunch.io/flux-klein/predict"),
		QwenImageURL:           getEnv("QWEN_IMAGE_URL", "https://inference.datacrunch.io/qwen-image-edit/predict"),
		JWTSecret:              getEnv("JWT_SECRET_KEY", ""),
		JWTExpiryHours:         getEnvInt("JWT_EXPIRY_HOURS", 24),
		InvitationCode:         getEnv("INVITATION_CODE", ""),
		AllowedOrigins:         splitOrigins(getEnv("ALLOWED_ORIGINS", "")),
		RedisURL:               getEnv("REDIS_URL", ""),
		RateLimitPerMinute:     getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
	}

	// Validate required fields
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if cfg.UpstreamTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("UPSTREAM_TIMEOUT_SECONDS must be positive")
	}

	return cfg, nil
}

func splitOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
