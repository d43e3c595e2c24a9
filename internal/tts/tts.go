package tts

import (
	"context"

	"deardiary/internal/prefs"
)

// Synthesizer converts text to speech audio.
type Synthesizer interface {
	// Synthesize returns encoded audio (MP3) for the text in the given voice.
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}

// Default ElevenLabs voices per persona; overridable via configuration.
const (
	defaultFriendVoice    = "EXAVITQu4vr4xnSDxMaL"
	defaultTherapistVoice = "ThT5KcBeYPX3keUQqHPh"
)

// VoiceMap resolves the voice for a persona.
type VoiceMap map[string]string

// VoiceFor returns the configured voice for the persona, falling back to
// the built-in defaults.
func (m VoiceMap) VoiceFor(persona prefs.Persona) string {
	if voice, ok := m[string(persona)]; ok && voice != "" {
		return voice
	}
	if persona == prefs.PersonaTherapist {
		return defaultTherapistVoice
	}
	return defaultFriendVoice
}
