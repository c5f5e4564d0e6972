package repository

import (
	"context"
	"fmt"
	"time"

	"assistant/internal/model"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// PostgresRepository handles database operations
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute) // Shorter lifetime to avoid stale connections
	db.SetConnMaxIdleTime(2 * time.Minute) // Close idle connections sooner

	return NewPostgresRepositoryFromDB(db), nil
}

// NewPostgresRepositoryFromDB wraps an existing connection pool
func NewPostgresRepositoryFromDB(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// Ping checks the connection
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,
	`CREATE TABLE IF NOT EXISTS chat_turns (
		turn_id          UUID PRIMARY KEY,
		user_id          TEXT NOT NULL,
		message          TEXT NOT NULL,
		intent           TEXT,
		confidence       DOUBLE PRECISION NOT NULL DEFAULT 0,
		entities         JSONB NOT NULL DEFAULT '{}'::jsonb,
		can_search       BOOLEAN NOT NULL DEFAULT false,
		degraded         BOOLEAN NOT NULL DEFAULT false,
		response_time_ms INTEGER NOT NULL DEFAULT 0,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS chat_turns_user_created_idx ON chat_turns (user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS intent_vectors (
		corpus_hash     TEXT NOT NULL,
		embedding_model TEXT NOT NULL,
		intent          TEXT NOT NULL,
		phrase_index    INTEGER NOT NULL,
		phrase          TEXT NOT NULL,
		embedding       vector NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (corpus_hash, intent, phrase_index)
	)`,
}

// EnsureSchema creates the tables the assistant writes to
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// LogTurn records one processed chat turn
func (r *PostgresRepository) LogTurn(ctx context.Context, turn model.TurnRecord) error {
	query := `
		INSERT INTO chat_turns (turn_id, user_id, message, intent, confidence, entities, can_search, degraded, response_time_ms, created_at)
		VALUES (:turn_id, :user_id, :message, :intent, :confidence, :entities, :can_search, :degraded, :response_time_ms, :created_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, turn); err != nil {
		return fmt.Errorf("failed to log turn: %w", err)
	}
	return nil
}

// RecentTurns returns the latest turns of a user, newest first
func (r *PostgresRepository) RecentTurns(ctx context.Context, userID string, limit int) ([]model.TurnRecord, error) {
	query := `
		SELECT turn_id, user_id, message, intent, confidence, entities, can_search, degraded, response_time_ms, created_at
		FROM chat_turns
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	var turns []model.TurnRecord
	if err := r.db.SelectContext(ctx, &turns, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to fetch turns: %w", err)
	}
	return turns, nil
}

type intentVectorRow struct {
	Intent      string          `db:"intent"`
	PhraseIndex int             `db:"phrase_index"`
	Phrase      string          `db:"phrase"`
	Embedding   pgvector.Vector `db:"embedding"`
}

// LoadIntentVectors returns the cached phrase vectors for a corpus hash
func (r *PostgresRepository) LoadIntentVectors(ctx context.Context, corpusHash string) ([]model.IntentVector, error) {
	query := `
		SELECT intent, phrase_index, phrase, embedding
		FROM intent_vectors
		WHERE corpus_hash = $1
		ORDER BY intent, phrase_index
	`
	var rows []intentVectorRow
	if err := r.db.SelectContext(ctx, &rows, query, corpusHash); err != nil {
		return nil, fmt.Errorf("failed to load intent vectors: %w", err)
	}

	vectors := make([]model.IntentVector, len(rows))
	for i, row := range rows {
		vectors[i] = model.IntentVector{
			Intent:      row.Intent,
			PhraseIndex: row.PhraseIndex,
			Phrase:      row.Phrase,
			Embedding:   row.Embedding.Slice(),
		}
	}
	return vectors, nil
}

// SaveIntentVectors replaces the cached phrase vectors for a corpus hash
func (r *PostgresRepository) SaveIntentVectors(ctx context.Context, corpusHash, embeddingModel string, vectors []model.IntentVector) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM intent_vectors WHERE corpus_hash = $1`, corpusHash); err != nil {
		return fmt.Errorf("failed to clear intent vectors: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO intent_vectors (corpus_hash, embedding_model, intent, phrase_index, phrase, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, v := range vectors {
		vec := pgvector.NewVector(v.Embedding)
		if _, err := stmt.ExecContext(ctx, corpusHash, embeddingModel, v.Intent, v.PhraseIndex, v.Phrase, vec); err != nil {
			return fmt.Errorf("intent %s phrase %d: %w", v.Intent, v.PhraseIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
