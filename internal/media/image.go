package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ImageRequest carries the scene facts the image prompt is built from.
type ImageRequest struct {
	LocationName string
	Description  string
	TemperatureC float64
	LocalTime    time.Time
	Narrative    string
}

// ImageGenerator produces the companion weather image.
type ImageGenerator struct {
	client  *openai.Client
	enabled bool
}

// NewImageGenerator builds the generator. An empty key disables it.
func NewImageGenerator(apiKey string, httpClient *http.Client) *ImageGenerator {
	if apiKey == "" {
		return &ImageGenerator{enabled: false}
	}
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(httpClient),
	)
	return &ImageGenerator{client: &client, enabled: true}
}

// Generate requests a weather scene image. Any failure returns an absent
// outcome with a logged warning.
func (g *ImageGenerator) Generate(ctx context.Context, req ImageRequest) Outcome {
	if !g.enabled {
		slog.Info("image generation disabled, no api key configured")
		return Absent("image generation disabled: no api key")
	}

	prompt := buildImagePrompt(req)

	resp, err := g.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          openai.ImageModelDallE3,
		Size:           openai.ImageGenerateParamsSize1024x1024,
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
	})
	if err != nil {
		slog.Warn("image generation failed", "error", err)
		return Absent(fmt.Sprintf("image provider error: %v", err))
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		slog.Warn("image generation returned no image data")
		return Absent("image provider returned no image data")
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		slog.Warn("image payload not decodable", "error", err)
		return Absent(fmt.Sprintf("image payload not decodable: %v", err))
	}

	return Generated(data, "image/png")
}

// buildImagePrompt derives a compact visual-scene prompt from the current
// conditions and a slice of the narrative.
func buildImagePrompt(req ImageRequest) string {
	scene := req.Narrative
	if len(scene) > 200 {
		scene = scene[:200]
	}
	return fmt.Sprintf(`Present a clear, 45° top-down isometric miniature 3D cartoon scene of %s, featuring its most iconic landmarks and architectural elements. Use soft, refined textures with realistic PBR materials and gentle, lifelike lighting and shadows. Integrate the current weather conditions (%s) directly into the city environment to create an immersive atmospheric mood. The mood of the scene: %s
Use a clean, minimalistic composition with a soft, solid-colored background.

At the top-center, place the title "%s" in large bold text, a prominent weather icon beneath it, then the date (%s) and temperature (%.0f°C).
All text must be centered with consistent spacing, and may subtly overlap the tops of the buildings.`,
		req.LocationName,
		req.Description,
		scene,
		req.LocationName,
		req.LocalTime.Format("Monday, January 2"),
		req.TemperatureC,
	)
}
