package tts

import "context"

// MockSynthesizer implements Synthesizer for tests.
type MockSynthesizer struct {
	Audio []byte
	Err   error

	// LastText and LastVoice record the most recent call.
	LastText  string
	LastVoice string
}

// Synthesize records the call and returns the canned audio or error.
func (m *MockSynthesizer) Synthesize(_ context.Context, text, voiceID string) ([]byte, error) {
	m.LastText = text
	m.LastVoice = voiceID
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Audio != nil {
		return m.Audio, nil
	}
	return []byte("mock-audio"), nil
}
