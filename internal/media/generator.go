package media

import (
	"context"
	"net/http"
)

// Generator bundles the two optional media steps behind one surface.
type Generator struct {
	image *ImageGenerator
	audio *AudioGenerator
}

// NewGenerator wires both generators. Empty keys disable the respective
// medium without error.
func NewGenerator(imageAPIKey, audioAPIKey, voiceID string, httpClient *http.Client) *Generator {
	return &Generator{
		image: NewImageGenerator(imageAPIKey, httpClient),
		audio: NewAudioGenerator(audioAPIKey, voiceID, httpClient),
	}
}

// GenerateImage produces the companion image, or an absent outcome.
func (g *Generator) GenerateImage(ctx context.Context, req ImageRequest) Outcome {
	return g.image.Generate(ctx, req)
}

// GenerateAudio produces the spoken narration, or an absent outcome.
func (g *Generator) GenerateAudio(ctx context.Context, text string) Outcome {
	return g.audio.Generate(ctx, text)
}
