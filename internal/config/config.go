// Package config provides environment configuration for the API server.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	FrontendURL        string

	// Database settings
	DatabaseURL string

	// OpenAI settings
	OpenAIAPIKey         string
	OpenAIModel          string
	OpenAIEmbeddingModel string

	// Anthropic settings (optional alternative completion provider)
	AnthropicAPIKey string
	AnthropicModel  string

	// Pinecone settings
	PineconeAPIKey      string
	PineconeIndex       string
	PineconeEnvironment string
	PineconeSkipSeed    bool

	// Funnel settings
	QualifiedScoreThreshold float64
	SessionExpiryMinutes    int

	// NATS settings (optional lead event publishing)
	NATSURL   string
	NATSToken string

	// JWT settings (operator API)
	JWTSecret string

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:3000"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", ""),

		// OpenAI
		OpenAIAPIKey:         getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:          getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIEmbeddingModel: getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),

		// Anthropic
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-3-5-haiku-20241022"),

		// Pinecone
		PineconeAPIKey:      getEnv("PINECONE_API_KEY", ""),
		PineconeIndex:       getEnv("PINECONE_INDEX_NAME", ""),
		PineconeEnvironment: getEnv("PINECONE_ENVIRONMENT", "gcp-starter"),
		PineconeSkipSeed:    getBoolEnv("SKIP_PINECONE_SEED", false),

		// Funnel
		QualifiedScoreThreshold: getFloatEnv("RAG_QUALIFIED_SCORE_THRESHOLD", 0.75),
		SessionExpiryMinutes:    getIntEnv("SESSION_EXPIRY_MINUTES", 15),

		// NATS
		NATSURL:   getEnv("NATS_URL", ""),
		NATSToken: getEnv("NATS_TOKEN", ""),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "development-secret-change-in-production"),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

// Validate checks that required variables are present and well formed.
// The server refuses to boot on a misconfigured environment.
func (c *Config) Validate() error {
	var missing []string
	for name, value := range map[string]string{
		"DATABASE_URL":        c.DatabaseURL,
		"OPENAI_API_KEY":      c.OpenAIAPIKey,
		"PINECONE_API_KEY":    c.PineconeAPIKey,
		"PINECONE_INDEX_NAME": c.PineconeIndex,
	} {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if !strings.HasPrefix(c.DatabaseURL, "postgres://") && !strings.HasPrefix(c.DatabaseURL, "postgresql://") {
		return fmt.Errorf("DATABASE_URL must be a valid PostgreSQL connection string")
	}

	if c.QualifiedScoreThreshold < 0 || c.QualifiedScoreThreshold > 1 {
		return fmt.Errorf("RAG_QUALIFIED_SCORE_THRESHOLD must be between 0 and 1")
	}

	if c.SessionExpiryMinutes <= 0 {
		return fmt.Errorf("SESSION_EXPIRY_MINUTES must be positive")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
