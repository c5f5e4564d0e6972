package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	PostgreSQL PostgreSQLConfig
	Server     ServerConfig
	Embedding  EmbeddingConfig
	Classifier ClassifierConfig
	Context    ContextConfig
	Reply      ReplyConfig
	RateLimit  RateLimitConfig
	Logging    LoggingConfig
	Catalog    CatalogConfig
}

// PostgreSQLConfig holds PostgreSQL database configuration.
// Persistence is optional; the assistant runs without it.
type PostgreSQLConfig struct {
	Enabled            bool
	DSN                string // full connection string, takes precedence
	Host               string
	Port               int `validate:"min=1,max=65535"`
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int `validate:"min=1"`
	MaxIdleConnections int `validate:"min=0"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            int `validate:"min=1,max=65535"`
	Host            string
	GinMode         string `validate:"oneof=debug release test"`
	AllowedOrigins  string
	AllowedMethods  string
	AllowedHeaders  string
	ShutdownTimeout time.Duration `validate:"min=0"`
}

// EmbeddingConfig holds embedding provider configuration
type EmbeddingConfig struct {
	Provider        string `validate:"oneof=openai lexical none"`
	APIKey          string
	APIBase         string `validate:"omitempty,url"`
	Model           string `validate:"required"`
	Dimensions      int    `validate:"min=0"`
	ExtraBody       string // JSON string for extra_body (e.g., {"truncate":"NONE"})
	BatchSize       int    `validate:"min=1"`
	Timeout         int    `validate:"min=1"` // seconds, HTTP client
	WarmConcurrency int    `validate:"min=1"`
}

// ClassifierConfig holds intent classifier configuration
type ClassifierConfig struct {
	Threshold float64       `validate:"gte=0,lte=1"`
	Timeout   time.Duration `validate:"min=1ms"` // per-message embedding deadline
}

// ContextConfig bounds the per-user conversation store
type ContextConfig struct {
	MaxUsers int           `validate:"min=1"`
	TTL      time.Duration `validate:"min=0"` // 0 disables expiry
}

// ReplyConfig selects how canned replies are picked
type ReplyConfig struct {
	Strategy string `validate:"oneof=random round_robin"`
	Seed     int64  // 0 seeds from the clock
}

// RateLimitConfig holds per-client request limits
type RateLimitConfig struct {
	RPS     float64 `validate:"min=0"` // 0 disables
	Burst   int     `validate:"min=1"`
	Clients int     `validate:"min=1"` // limiters kept in memory
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=json console"`
}

// CatalogConfig points at an intent catalog file; empty uses the built-in one
type CatalogConfig struct {
	Path string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	dsn := getEnv("DATABASE_URL", getEnv("POSTGRESQL_URI", getEnv("PG_DSN", "")))
	apiKey := getEnv("EMBEDDING_API_KEY", getEnv("OPENAI_API_KEY", ""))
	defaultProvider := "lexical"
	if apiKey != "" {
		defaultProvider = "openai"
	}

	cfg := &Config{
		PostgreSQL: PostgreSQLConfig{
			Enabled:            getEnvAsBool("PG_ENABLED", dsn != ""),
			DSN:                dsn,
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "assistant"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 2),
		},
		Server: ServerConfig{
			Port:            getEnvAsInt("SERVER_PORT", 5000),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:         getEnv("GIN_MODE", "release"),
			AllowedOrigins:  getEnv("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods:  getEnv("CORS_ALLOWED_METHODS", "GET,POST,OPTIONS"),
			AllowedHeaders:  getEnv("CORS_ALLOWED_HEADERS", "Content-Type,Authorization,X-User-ID"),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Embedding: EmbeddingConfig{
			Provider:        getEnv("EMBEDDING_PROVIDER", defaultProvider),
			APIKey:          apiKey,
			APIBase:         strings.TrimRight(getEnv("EMBEDDING_API_BASE", getEnv("OPENAI_API_BASE", "https://api.openai.com/v1")), "/"),
			Model:           getEnv("EMBEDDING_MODEL", getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small")),
			Dimensions:      getEnvAsInt("EMBEDDING_DIMENSIONS", 0),
			ExtraBody:       getEnv("EMBEDDING_EXTRA_BODY", ""),
			BatchSize:       getEnvAsInt("EMBEDDING_BATCH_SIZE", 100),
			Timeout:         getEnvAsInt("EMBEDDING_TIMEOUT", 30),
			WarmConcurrency: getEnvAsInt("EMBEDDING_WARM_CONCURRENCY", 4),
		},
		Classifier: ClassifierConfig{
			Threshold: getEnvAsFloat("CLASSIFIER_THRESHOLD", 0.5),
			Timeout:   getEnvAsDuration("CLASSIFIER_TIMEOUT", 3*time.Second),
		},
		Context: ContextConfig{
			MaxUsers: getEnvAsInt("CONTEXT_MAX_USERS", 10000),
			TTL:      getEnvAsDuration("CONTEXT_TTL", 24*time.Hour),
		},
		Reply: ReplyConfig{
			Strategy: getEnv("REPLY_STRATEGY", "random"),
			Seed:     int64(getEnvAsInt("REPLY_SEED", 0)),
		},
		RateLimit: RateLimitConfig{
			RPS:     getEnvAsFloat("RATE_LIMIT_RPS", 5),
			Burst:   getEnvAsInt("RATE_LIMIT_BURST", 10),
			Clients: getEnvAsInt("RATE_LIMIT_CLIENTS", 10000),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Catalog: CatalogConfig{
			Path: getEnv("INTENT_CATALOG_PATH", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and cross-field rules
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Embedding.Provider == "openai" && c.Embedding.APIKey == "" {
		return fmt.Errorf("invalid configuration: EMBEDDING_PROVIDER=openai requires EMBEDDING_API_KEY")
	}
	return nil
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float value for %s, using default %f", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean value for %s, using default %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration value for %s, using default %s", key, defaultValue)
		return defaultValue
	}
	return value
}
