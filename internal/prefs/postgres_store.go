package prefs

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists preferences in Postgres via a shared pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed preferences store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("preferences store not initialized")
	}
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS user_preferences (
    user_id TEXT PRIMARY KEY,
    persona_preference TEXT NOT NULL DEFAULT '',
    emergency_contact TEXT NOT NULL DEFAULT ''
);`)
	return err
}

// Get returns the user's preferences or ErrNotFound.
func (s *PostgresStore) Get(ctx context.Context, userID string) (UserPreferences, error) {
	if s == nil || s.pool == nil {
		return UserPreferences{}, fmt.Errorf("preferences store not initialized")
	}

	var prefs UserPreferences
	var persona string
	err := s.pool.QueryRow(ctx, `
SELECT user_id, persona_preference, emergency_contact
FROM user_preferences
WHERE user_id = $1
`, userID).Scan(&prefs.UserID, &persona, &prefs.EmergencyContact)
	if errors.Is(err, pgx.ErrNoRows) {
		return UserPreferences{}, ErrNotFound
	}
	if err != nil {
		return UserPreferences{}, err
	}
	prefs.PersonaPreference = Persona(persona)
	return prefs, nil
}

// Save upserts the user's preferences.
func (s *PostgresStore) Save(ctx context.Context, prefs UserPreferences) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("preferences store not initialized")
	}
	_, err := s.pool.Exec(ctx, `
INSERT INTO user_preferences (user_id, persona_preference, emergency_contact)
VALUES ($1, $2, $3)
ON CONFLICT (user_id) DO UPDATE
SET persona_preference = EXCLUDED.persona_preference,
    emergency_contact = EXCLUDED.emergency_contact
`, prefs.UserID, string(prefs.PersonaPreference), prefs.EmergencyContact)
	return err
}
