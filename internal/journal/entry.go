package journal

import (
	"strings"
	"time"
)

// Mood is an optional self-reported tag attached to an entry.
type Mood string

const (
	MoodHappy   Mood = "happy"
	MoodSad     Mood = "sad"
	MoodAnxious Mood = "anxious"
	MoodAngry   Mood = "angry"
	MoodCalm    Mood = "calm"
	MoodNeutral Mood = "neutral"
)

// Valid reports whether m is one of the known mood tags. The empty mood is
// valid and means "not provided".
func (m Mood) Valid() bool {
	switch m {
	case "", MoodHappy, MoodSad, MoodAnxious, MoodAngry, MoodCalm, MoodNeutral:
		return true
	}
	return false
}

// HealthMetadata carries optional wellness fields. The pipeline passes them
// through to the prompt verbatim and attaches no semantics of its own.
type HealthMetadata struct {
	CyclePhase  string  `json:"cycle_phase,omitempty"`
	SleepHours  float64 `json:"sleep_hours,omitempty"`
	StressLevel int     `json:"stress_level,omitempty"`
}

// AnalysisResult is the structured empathetic analysis attached 1:1 to an
// entry at creation time and never edited afterwards.
type AnalysisResult struct {
	EmpathyResponse    string  `json:"empathy_response"`
	TacticIdentified   bool    `json:"tactic_identified"`
	TacticName         *string `json:"tactic_name"`
	TacticExplanation  *string `json:"tactic_explanation"`
	Confidence         float64 `json:"confidence"`
	ReflectionQuestion string  `json:"reflection_question"`
}

// Entry is one journal submission by a user.
//
// Embedding is optional: entries written before embeddings existed, or whose
// embedding generation failed, carry none and are still retrievable through
// the chronological fallback.
type Entry struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Content   string          `json:"content"`
	Mood      Mood            `json:"mood,omitempty"`
	Health    *HealthMetadata `json:"health,omitempty"`
	ImageRef  string          `json:"image_ref,omitempty"`
	Analysis  AnalysisResult  `json:"analysis"`
	Embedding []float32       `json:"-"`
	CreatedAt time.Time       `json:"created_at"`
}

// HasContent reports whether the entry carries non-whitespace text.
func (e Entry) HasContent() bool {
	return strings.TrimSpace(e.Content) != ""
}

// ContextEntry is the projection of a past entry injected into a prompt as
// conversational context: content, mood, timestamp, and (for similarity
// hits) the match score.
type ContextEntry struct {
	Content    string    `json:"content"`
	Mood       Mood      `json:"mood,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	Similarity float32   `json:"similarity,omitempty"`
}
