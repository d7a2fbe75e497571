package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

const elevenLabsBaseURL = "https://api.elevenlabs.io/v1"

// AudioGenerator renders the narrative as spoken audio via the ElevenLabs
// text-to-speech API.
type AudioGenerator struct {
	apiKey     string
	voiceID    string
	baseURL    string
	httpClient *http.Client
}

// NewAudioGenerator builds the generator. An empty key disables it.
func NewAudioGenerator(apiKey, voiceID string, httpClient *http.Client) *AudioGenerator {
	return &AudioGenerator{
		apiKey:     apiKey,
		voiceID:    voiceID,
		baseURL:    elevenLabsBaseURL,
		httpClient: httpClient,
	}
}

// Generate requests a spoken rendition of the text. Any failure returns an
// absent outcome with a logged warning.
func (g *AudioGenerator) Generate(ctx context.Context, text string) Outcome {
	if g.apiKey == "" {
		slog.Info("audio generation disabled, no api key configured")
		return Absent("audio generation disabled: no api key")
	}
	if text == "" {
		return Absent("no narrative text to narrate")
	}

	payload, err := json.Marshal(map[string]any{
		"text":     text,
		"model_id": "eleven_multilingual_v2",
	})
	if err != nil {
		return Absent(fmt.Sprintf("audio request not encodable: %v", err))
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", g.baseURL, g.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Absent(fmt.Sprintf("audio request not buildable: %v", err))
	}
	req.Header.Set("xi-api-key", g.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		slog.Warn("audio generation failed", "error", err)
		return Absent(fmt.Sprintf("audio provider error: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("audio provider returned non-success status", "status", resp.StatusCode)
		return Absent(fmt.Sprintf("audio provider status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Warn("reading audio payload failed", "error", err)
		return Absent(fmt.Sprintf("audio payload not readable: %v", err))
	}
	if len(data) == 0 {
		return Absent("audio provider returned empty payload")
	}

	return Generated(data, "audio/mpeg")
}
