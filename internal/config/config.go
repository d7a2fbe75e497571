package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelvins/geocoder"

	"github.com/weatherscribe/weatherscribe/internal/apperr"
)

// Default deployment coordinates, used when no location file is present.
const (
	DefaultLatitude     = -31.9544
	DefaultLongitude    = 115.8526
	DefaultLocationName = "Perth, Australia"
)

// Location is the configured point the report is generated for.
type Location struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Name      string  `json:"location_name"`
}

// AppConfig holds everything a run needs, read once at startup and passed
// down explicitly. No package keeps ambient config state.
type AppConfig struct {
	OpenWeatherAPIKey string
	OpenAIAPIKey      string
	ImageAPIKey       string
	ElevenLabsAPIKey  string
	GeocoderAPIKey    string

	Location Location

	// OutputDir receives the report document and media files.
	OutputDir string

	// HTTPTimeout bounds every outbound provider call.
	HTTPTimeout time.Duration

	// FetchInterval controls watch mode.
	FetchInterval time.Duration

	Port string

	// MaxReportWords bounds the narrative length asked of the model.
	MaxReportWords int

	// VoiceID selects the text-to-speech voice.
	VoiceID string
}

var validate = validator.New()

// Load reads configuration from environment and the location file.
// Missing media keys disable their features; missing load-bearing keys
// are configuration errors surfaced before any network call.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	cfg := &AppConfig{
		OpenWeatherAPIKey: os.Getenv("OPENWEATHER_API_KEY"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		ImageAPIKey:       os.Getenv("IMAGE_API_KEY"),
		ElevenLabsAPIKey:  os.Getenv("ELEVENLABS_API_KEY"),
		GeocoderAPIKey:    os.Getenv("GEOCODER_API_KEY"),
		OutputDir:         getenvDefault("OUTPUT_DIR", "output"),
		Port:              getenvDefault("PORT", "8080"),
		MaxReportWords:    getenvInt("MAX_REPORT_WORDS", 500),
		VoiceID:           getenvDefault("ELEVENLABS_VOICE_ID", "qNkzaJoHLLdpvgh5tISm"),
	}

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "30s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, apperr.Newf(apperr.Configuration, "config.load", "invalid HTTP_TIMEOUT: %v", err)
	}
	cfg.HTTPTimeout = timeout

	intervalStr := getenvDefault("FETCH_INTERVAL", "1h")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, apperr.Newf(apperr.Configuration, "config.load", "invalid FETCH_INTERVAL: %v", err)
	}
	cfg.FetchInterval = interval

	if cfg.OpenWeatherAPIKey == "" {
		return nil, apperr.New(apperr.Configuration, "config.load", "OPENWEATHER_API_KEY is not set")
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, apperr.New(apperr.Configuration, "config.load", "OPENAI_API_KEY is not set")
	}
	if cfg.ImageAPIKey == "" {
		slog.Warn("IMAGE_API_KEY not set, image generation disabled")
	}
	if cfg.ElevenLabsAPIKey == "" {
		slog.Warn("ELEVENLABS_API_KEY not set, audio generation disabled")
	}

	loc, err := loadLocation(getenvDefault("LOCATION_FILE", "location.json"))
	if err != nil {
		return nil, err
	}
	cfg.Location = loc

	if cfg.Location.Name == "" {
		cfg.Location.Name = resolveName(cfg.GeocoderAPIKey, cfg.Location)
	}

	return cfg, nil
}

// loadLocation reads the location descriptor. An absent or malformed file
// falls back to the default location; out-of-range coordinates do not.
func loadLocation(path string) (Location, error) {
	fallback := Location{
		Latitude:  DefaultLatitude,
		Longitude: DefaultLongitude,
		Name:      DefaultLocationName,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("location file not readable, using default location", "path", path, "error", err)
		return fallback, nil
	}

	var loc Location
	if err := json.Unmarshal(data, &loc); err != nil {
		slog.Warn("location file is not valid JSON, using default location", "path", path, "error", err)
		return fallback, nil
	}

	if err := validate.Struct(loc); err != nil {
		return Location{}, apperr.Newf(apperr.Configuration, "config.location",
			"coordinates out of range in %s: %v", path, err)
	}
	return loc, nil
}

// resolveName reverse-geocodes a display name for an unnamed location.
// Any failure falls back to a generic name.
func resolveName(apiKey string, loc Location) string {
	const fallback = "Current Location"
	if apiKey == "" {
		return fallback
	}

	geocoder.ApiKey = apiKey
	addresses, err := geocoder.GeocodingReverse(geocoder.Location{
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
	})
	if err != nil || len(addresses) == 0 {
		slog.Warn("reverse geocoding failed", "error", err)
		return fallback
	}

	addr := addresses[0]
	if addr.City != "" && addr.Country != "" {
		return fmt.Sprintf("%s, %s", addr.City, addr.Country)
	}
	if addr.FormattedAddress != "" {
		return addr.FormattedAddress
	}
	return fallback
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
