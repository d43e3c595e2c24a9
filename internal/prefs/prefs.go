package prefs

import (
	"context"
	"errors"
)

// Persona is the conversational role that conditions prompt framing and
// voice selection.
type Persona string

const (
	PersonaFriend    Persona = "friend"
	PersonaTherapist Persona = "therapist"
)

// DefaultPersona is used whenever no stored preference applies.
const DefaultPersona = PersonaFriend

// Valid reports whether p is a known persona.
func (p Persona) Valid() bool {
	switch p {
	case PersonaFriend, PersonaTherapist:
		return true
	}
	return false
}

// UserPreferences is the single per-user preference record.
type UserPreferences struct {
	UserID           string  `json:"user_id"`
	PersonaPreference Persona `json:"persona_preference,omitempty"`

	// EmergencyContact is an optional phone number for high-confidence
	// tactic alerts. Empty disables alerting for the user.
	EmergencyContact string `json:"emergency_contact,omitempty"`
}

// ErrNotFound is returned when no preference record exists for a user.
var ErrNotFound = errors.New("prefs: not found")

// Store abstracts persistence for user preferences.
type Store interface {
	EnsureSchema(ctx context.Context) error

	// Get returns the user's preferences or ErrNotFound.
	Get(ctx context.Context, userID string) (UserPreferences, error)

	// Save creates or replaces the user's preferences.
	Save(ctx context.Context, prefs UserPreferences) error
}
