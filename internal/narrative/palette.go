package narrative

import (
	"strings"

	"github.com/weatherscribe/weatherscribe/internal/common"
)

// Color is the enumerated weather-mood tag the front end uses to tint the
// page. The palette is fixed; anything the model produces outside it maps
// to ColorNeutral.
type Color string

const (
	ColorClear   Color = "clear"
	ColorCloudy  Color = "cloudy"
	ColorRain    Color = "rain"
	ColorStorm   Color = "storm"
	ColorSnow    Color = "snow"
	ColorMist    Color = "mist"
	ColorDusk    Color = "dusk"
	ColorNeutral Color = "neutral"
)

// Palette lists every valid color code.
var Palette = []Color{
	ColorClear, ColorCloudy, ColorRain, ColorStorm,
	ColorSnow, ColorMist, ColorDusk, ColorNeutral,
}

// ParseColor maps a raw model output to a palette entry.
func ParseColor(s string) (Color, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range Palette {
		if s == string(c) {
			return c, true
		}
	}
	return ColorNeutral, false
}

// InferColor derives a palette entry from free text when the model did not
// return a usable color field. Order matters: severe moods win over mild
// ones when both appear.
func InferColor(text string) Color {
	t := strings.ToLower(text)
	switch {
	case common.HasAny(t, "thunder", "storm", "lightning"):
		return ColorStorm
	case common.HasAny(t, "snow", "sleet", "blizzard"):
		return ColorSnow
	case common.HasAny(t, "rain", "drizzle", "shower", "downpour"):
		return ColorRain
	case common.HasAny(t, "fog", "mist", "haze", "marine layer"):
		return ColorMist
	case common.HasAny(t, "dusk", "sunset", "twilight", "evening"):
		return ColorDusk
	case common.HasAny(t, "overcast", "cloud", "grey", "gray", "gloomy"):
		return ColorCloudy
	case common.HasAny(t, "clear", "sunny", "blue sky", "sunshine", "bright"):
		return ColorClear
	default:
		return ColorNeutral
	}
}
