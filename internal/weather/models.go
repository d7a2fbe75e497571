package weather

import (
	"sort"
	"time"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// Snapshot is the normalized view of current conditions at observation time.
// JSON field names form part of the persisted document contract.
type Snapshot struct {
	ObservedAt    time.Time `json:"timestamp"`
	TemperatureC  float64   `json:"temperature_c"`
	TemperatureF  float64   `json:"temperature_f"`
	Humidity      float64   `json:"humidity"`
	WindSpeedMPH  float64   `json:"wind_speed_mph"`
	WindDirection int       `json:"wind_direction"`
	Description   string    `json:"description"`
	Condition     Condition `json:"condition"`
	Country       string    `json:"-"`
}

// ForecastPeriod is one step of the forecast.
type ForecastPeriod struct {
	StartTime     time.Time `json:"startTime"`
	TemperatureC  float64   `json:"temperature"`
	WindSpeedMPH  float64   `json:"windSpeed"`
	WindDirection int       `json:"windDirection"`
	Summary       string    `json:"shortForecast"`
	Condition     Condition `json:"-"`
}

// ForecastSet is an ordered sequence of forecast periods, earliest first.
type ForecastSet []ForecastPeriod

// SortChronological orders the set by start time ascending.
func (f ForecastSet) SortChronological() {
	sort.Slice(f, func(i, j int) bool {
		return f[i].StartTime.Before(f[j].StartTime)
	})
}

// IsChronological reports whether the set is ordered earliest first.
func (f ForecastSet) IsChronological() bool {
	return sort.SliceIsSorted(f, func(i, j int) bool {
		return f[i].StartTime.Before(f[j].StartTime)
	})
}

// CelsiusToFahrenheit converts a temperature reading.
func CelsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

// MetersPerSecondToMPH converts a wind speed reading.
func MetersPerSecondToMPH(ms float64) float64 {
	return ms * 2.237
}
