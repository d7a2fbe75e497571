// Package report assembles and persists the weather report document, the
// one file the front end polls.
package report

import (
	"github.com/weatherscribe/weatherscribe/internal/weather"
)

// Well-known output filenames. The front end fetches these paths directly,
// so they never change between runs.
const (
	DocumentFile = "weather_report.json"
	ImageFile    = "weather_image.png"
	AudioFile    = "forecast.mp3"
)

// LocationInfo is the resolved location the document was generated for.
type LocationInfo struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
}

// ForecastLocation names the place inside the forecast data block.
type ForecastLocation struct {
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ForecastData groups the structured weather facts the narrative was
// written from.
type ForecastData struct {
	Location          ForecastLocation    `json:"location"`
	CurrentConditions weather.Snapshot    `json:"current_conditions"`
	Forecast          weather.ForecastSet `json:"forecast"`
}

// MediaRef records whether a media artifact was produced this run and
// where it lives.
type MediaRef struct {
	Present bool   `json:"present"`
	File    string `json:"file,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// Document is the persisted weather report. Field names are a contract
// with the front end and do not change.
type Document struct {
	RunID         string       `json:"run_id"`
	ForecastData  ForecastData `json:"forecast_data"`
	WeatherReport string       `json:"weather_report"`
	ColorCode     string       `json:"color_code"`
	Timestamp     string       `json:"timestamp"`
	Location      LocationInfo `json:"location"`
	Image         MediaRef     `json:"image"`
	Audio         MediaRef     `json:"audio"`
}
