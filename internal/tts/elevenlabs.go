package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"deardiary/internal/logging"
)

// Config configures the ElevenLabs client.
type Config struct {
	APIKey  string
	BaseURL string // optional, defaults to the ElevenLabs API
	ModelID string // optional, defaults to eleven_multilingual_v2
}

// elevenLabsClient implements Synthesizer against the ElevenLabs API.
type elevenLabsClient struct {
	config     Config
	httpClient *http.Client
	logger     logging.Logger
}

// NewElevenLabsClient creates a speech synthesizer backed by ElevenLabs.
func NewElevenLabsClient(config Config) (Synthesizer, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("elevenlabs API key is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.elevenlabs.io"
	}
	if config.ModelID == "" {
		config.ModelID = "eleven_multilingual_v2"
	}
	return &elevenLabsClient{
		config:     config,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logging.NewComponentLogger("elevenlabs"),
	}, nil
}

// Synthesize returns MP3 audio for the text in the given voice.
func (c *elevenLabsClient) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty text")
	}
	if voiceID == "" {
		return nil, fmt.Errorf("voice id is required")
	}

	reqBody := map[string]any{
		"text":     text,
		"model_id": c.config.ModelID,
		"voice_settings": map[string]any{
			"stability":        0.5,
			"similarity_boost": 0.75,
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", strings.TrimRight(c.config.BaseURL, "/"), voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("elevenlabs error %d: %s", resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	return audio, nil
}
