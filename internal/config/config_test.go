package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment
// cannot leak into the test.
func clearEnv(t *testing.T) {
	for _, key := range []string{
		"DATABASE_URL", "POSTGRESQL_URI", "PG_DSN", "PG_ENABLED",
		"EMBEDDING_PROVIDER", "EMBEDDING_API_KEY", "OPENAI_API_KEY",
		"EMBEDDING_API_BASE", "OPENAI_API_BASE", "EMBEDDING_MODEL", "OPENAI_EMBEDDING_MODEL",
		"CLASSIFIER_THRESHOLD", "CLASSIFIER_TIMEOUT", "CONTEXT_MAX_USERS", "CONTEXT_TTL",
		"REPLY_STRATEGY", "REPLY_SEED", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
		"LOG_LEVEL", "LOG_FORMAT", "GIN_MODE", "SERVER_PORT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "lexical", cfg.Embedding.Provider)
	assert.False(t, cfg.PostgreSQL.Enabled)
	assert.Equal(t, 0.5, cfg.Classifier.Threshold)
	assert.Equal(t, 3*time.Second, cfg.Classifier.Timeout)
	assert.Equal(t, 10000, cfg.Context.MaxUsers)
	assert.Equal(t, 24*time.Hour, cfg.Context.TTL)
	assert.Equal(t, "random", cfg.Reply.Strategy)
	assert.Equal(t, 5000, cfg.Server.Port)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/assistant")
	t.Setenv("CONTEXT_TTL", "30m")
	t.Setenv("REPLY_STRATEGY", "round_robin")
	t.Setenv("CLASSIFIER_TIMEOUT", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.True(t, cfg.PostgreSQL.Enabled)
	assert.Equal(t, "postgres://u:p@db:5432/assistant", cfg.GetPostgreSQLDSN())
	assert.Equal(t, 30*time.Minute, cfg.Context.TTL)
	assert.Equal(t, "round_robin", cfg.Reply.Strategy)
	assert.Equal(t, 3*time.Second, cfg.Classifier.Timeout, "malformed value falls back to default")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "threshold above one", env: map[string]string{"CLASSIFIER_THRESHOLD": "1.5"}},
		{name: "unknown provider", env: map[string]string{"EMBEDDING_PROVIDER": "magic"}},
		{name: "openai without key", env: map[string]string{"EMBEDDING_PROVIDER": "openai"}},
		{name: "unknown strategy", env: map[string]string{"REPLY_STRATEGY": "shuffle"}},
		{name: "zero capacity", env: map[string]string{"CONTEXT_MAX_USERS": "0"}},
		{name: "bad log level", env: map[string]string{"LOG_LEVEL": "verbose"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestGetPostgreSQLDSN_FromParts(t *testing.T) {
	cfg := &Config{PostgreSQL: PostgreSQLConfig{
		Host: "h", Port: 1, User: "u", Password: "p", Database: "d", SSLMode: "disable",
	}}
	assert.Equal(t, "host=h port=1 user=u password=p dbname=d sslmode=disable", cfg.GetPostgreSQLDSN())
}
