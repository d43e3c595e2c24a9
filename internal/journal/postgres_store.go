package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists entries in Postgres via a shared pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the table and indexes if they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("entry store not initialized")
	}
	statements := []string{
		`CREATE TABLE IF NOT EXISTS journal_entries (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    content TEXT NOT NULL,
    mood TEXT NOT NULL DEFAULT '',
    health JSONB,
    image_ref TEXT NOT NULL DEFAULT '',
    analysis JSONB NOT NULL,
    embedding REAL[],
    created_at TIMESTAMPTZ NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_journal_entries_user_created ON journal_entries (user_id, created_at DESC);`,
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Insert appends a new entry row.
func (s *PostgresStore) Insert(ctx context.Context, entry Entry) (Entry, error) {
	if s == nil || s.pool == nil {
		return entry, fmt.Errorf("entry store not initialized")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	analysisJSON, err := json.Marshal(entry.Analysis)
	if err != nil {
		return entry, fmt.Errorf("encode analysis: %w", err)
	}
	var healthJSON []byte
	if entry.Health != nil {
		healthJSON, err = json.Marshal(entry.Health)
		if err != nil {
			return entry, fmt.Errorf("encode health metadata: %w", err)
		}
	}

	_, err = s.pool.Exec(ctx, `
INSERT INTO journal_entries (id, user_id, content, mood, health, image_ref, analysis, embedding, created_at)
VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7::jsonb, $8, $9)
`, entry.ID, entry.UserID, entry.Content, string(entry.Mood), healthJSON, entry.ImageRef, analysisJSON, entry.Embedding, entry.CreatedAt)
	return entry, err
}

// FindRecent returns up to limit entries for the user, newest first.
func (s *PostgresStore) FindRecent(ctx context.Context, userID string, limit int) ([]Entry, error) {
	if s == nil || s.pool == nil {
		return nil, fmt.Errorf("entry store not initialized")
	}
	if limit <= 0 {
		limit = 5
	}

	rows, err := s.pool.Query(ctx, `
SELECT id, user_id, content, mood, health, image_ref, analysis, embedding, created_at
FROM journal_entries
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// FindByID returns one entry or ErrNotFound.
func (s *PostgresStore) FindByID(ctx context.Context, id string) (Entry, error) {
	if s == nil || s.pool == nil {
		return Entry{}, fmt.Errorf("entry store not initialized")
	}

	rows, err := s.pool.Query(ctx, `
SELECT id, user_id, content, mood, health, image_ref, analysis, embedding, created_at
FROM journal_entries
WHERE id = $1
`, id)
	if err != nil {
		return Entry{}, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Entry{}, err
		}
		return Entry{}, ErrNotFound
	}
	return scanEntry(rows)
}

func scanEntry(row pgx.Row) (Entry, error) {
	var (
		entry        Entry
		mood         string
		healthJSON   []byte
		analysisJSON []byte
	)
	if err := row.Scan(&entry.ID, &entry.UserID, &entry.Content, &mood, &healthJSON,
		&entry.ImageRef, &analysisJSON, &entry.Embedding, &entry.CreatedAt); err != nil {
		return Entry{}, err
	}
	entry.Mood = Mood(mood)
	if len(healthJSON) > 0 {
		var health HealthMetadata
		if err := json.Unmarshal(healthJSON, &health); err != nil {
			return Entry{}, fmt.Errorf("decode health metadata: %w", err)
		}
		entry.Health = &health
	}
	if err := json.Unmarshal(analysisJSON, &entry.Analysis); err != nil {
		return Entry{}, fmt.Errorf("decode analysis: %w", err)
	}
	return entry, nil
}
