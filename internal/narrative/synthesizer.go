package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/sj14/astral/pkg/astral"

	"github.com/weatherscribe/weatherscribe/internal/apperr"
	"github.com/weatherscribe/weatherscribe/internal/config"
	"github.com/weatherscribe/weatherscribe/internal/weather"
)

const systemPromptTemplate = `You are a weather narrator producing a short report for a small local page.

Style rules:
1. One to two paragraphs, no headers, no bullet points, no exclamation marks
2. Emotive words over numbers and figures, but never flowery
3. Written like a novelist describing the scene, suitable for calm reading on a classical radio station between songs, somewhere between Jack Kerouac and J. Peterman
4. Cover the current conditions, the expected weather for the day, how pleasant or unpleasant it looks, how one might dress, and what one might do given the conditions, day, and time
5. This report is regenerated many times a day, so recommended activities must be mundane and not cliche
6. Keep the report under %d words

Output as JSON only, no other text:
{
  "report": "the weather report text",
  "color": "one of: %s"
}
The color is the single mood tag that best represents the forecast and time of day.`

// Report is the synthesized narrative plus its palette color code.
type Report struct {
	Text  string
	Color Color
}

// Synthesizer turns structured weather data into a narrative report via a
// language-model call.
type Synthesizer struct {
	client         *openai.Client
	model          openai.ChatModel
	maxReportWords int
	apiKey         string
}

// NewSynthesizer builds a synthesizer sharing the given HTTP client so the
// configured timeout bounds the model call.
func NewSynthesizer(apiKey string, httpClient *http.Client, maxReportWords int) *Synthesizer {
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(httpClient),
	)
	return &Synthesizer{
		client:         &client,
		model:          openai.ChatModelGPT4o,
		maxReportWords: maxReportWords,
		apiKey:         apiKey,
	}
}

// Synthesize requests a narrative report for the given weather picture.
// The returned text is non-empty and the color is always a palette entry;
// an unmappable model color degrades to text inference, then neutral.
func (s *Synthesizer) Synthesize(ctx context.Context, loc config.Location, snap weather.Snapshot, forecast weather.ForecastSet, localTime time.Time) (Report, error) {
	const op = "narrative.synthesize"

	if s.apiKey == "" {
		return Report{}, apperr.New(apperr.Configuration, op, "openai api key is not configured")
	}
	if len(forecast) == 0 {
		return Report{}, apperr.New(apperr.Configuration, op, "forecast set is empty")
	}

	systemPrompt := fmt.Sprintf(systemPromptTemplate, s.maxReportWords, paletteList())
	userPrompt := buildUserPrompt(loc, snap, forecast, localTime)

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: s.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	})
	if err != nil {
		return Report{}, apperr.Wrap(apperr.RemoteService, op, err)
	}
	if len(resp.Choices) == 0 {
		return Report{}, apperr.New(apperr.RemoteService, op, "no choices in model response")
	}

	content := cleanJSONResponse(resp.Choices[0].Message.Content)

	var parsed struct {
		Report string `json:"report"`
		Color  string `json:"color"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		// A model that ignored the JSON instruction still gave us text.
		// Salvage the narrative rather than aborting the run on format.
		parsed.Report = strings.TrimSpace(content)
		parsed.Color = ""
	}

	text := strings.TrimSpace(parsed.Report)
	if text == "" {
		return Report{}, apperr.New(apperr.RemoteService, op, "model returned empty narrative")
	}

	color, ok := ParseColor(parsed.Color)
	if !ok {
		color = InferColor(text)
		slog.Warn("model color not in palette, inferred from text",
			"raw", parsed.Color, "inferred", string(color))
	}

	return Report{Text: text, Color: color}, nil
}

// buildUserPrompt lays out the structured facts the model writes from.
func buildUserPrompt(loc config.Location, snap weather.Snapshot, forecast weather.ForecastSet, localTime time.Time) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Below is the weather forecast for %s:\n", loc.Name)
	fmt.Fprintf(&sb, "\nCurrent conditions: %s, %.1f°C, humidity %.0f%%, wind %.0f mph\n",
		snap.Description, snap.TemperatureC, snap.Humidity, snap.WindSpeedMPH)

	sb.WriteString("\nForecast:\n")
	for _, period := range forecast {
		fmt.Fprintf(&sb, " - %s: %s, %.1f°C\n",
			period.StartTime.In(localTime.Location()).Format("Mon 15:04"),
			period.Summary, period.TemperatureC)
	}

	fmt.Fprintf(&sb, "\nCurrent local time: %s\n", localTime.Format("2006-01-02 15:04:05"))

	observer := astral.Observer{Latitude: loc.Latitude, Longitude: loc.Longitude}
	if sunrise, err := astral.Sunrise(observer, localTime); err == nil {
		fmt.Fprintf(&sb, "Sunrise today: %s\n", sunrise.In(localTime.Location()).Format("15:04"))
	}
	if sunset, err := astral.Sunset(observer, localTime); err == nil {
		fmt.Fprintf(&sb, "Sunset today: %s\n", sunset.In(localTime.Location()).Format("15:04"))
	}

	sb.WriteString("\nReview the forecast and assess the weather, specifically how sunny it will be, the clarity of the day, and more, then write the report.")
	return sb.String()
}

func paletteList() string {
	names := make([]string, len(Palette))
	for i, c := range Palette {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

// cleanJSONResponse strips markdown code fences some models wrap around
// JSON output.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
