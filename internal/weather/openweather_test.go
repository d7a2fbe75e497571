package weather

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weatherscribe/weatherscribe/internal/apperr"
)

const currentBody = `{
	"dt": 1735543200,
	"main": {"temp": 24.5, "humidity": 40},
	"wind": {"speed": 5.0, "deg": 180},
	"weather": [{"main": "Clear", "description": "clear sky"}],
	"sys": {"country": "AU"}
}`

const forecastBody = `{
	"list": [
		{"dt": 1735564800, "main": {"temp": 21.0}, "wind": {"speed": 4.0, "deg": 190}, "weather": [{"main": "Clouds", "description": "few clouds"}]},
		{"dt": 1735554000, "main": {"temp": 26.0}, "wind": {"speed": 3.0, "deg": 170}, "weather": [{"main": "Clear", "description": "clear sky"}]},
		{"dt": 1735575600, "main": {"temp": 18.0}, "wind": {"speed": 6.0, "deg": 200}, "weather": [{"main": "Rain", "description": "light rain"}]}
	]
}`

func newMockedClient(t *testing.T) *Client {
	t.Helper()
	httpClient := &http.Client{Timeout: 5 * time.Second}
	httpmock.ActivateNonDefault(httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)
	return NewClient(httpClient, "test-key")
}

func TestFetchWeather(t *testing.T) {
	client := newMockedClient(t)

	httpmock.RegisterResponder(http.MethodGet, `=~^https://api\.openweathermap\.org/data/2\.5/weather`,
		httpmock.NewStringResponder(http.StatusOK, currentBody))
	httpmock.RegisterResponder(http.MethodGet, `=~^https://api\.openweathermap\.org/data/2\.5/forecast`,
		httpmock.NewStringResponder(http.StatusOK, forecastBody))

	snap, forecast, err := client.FetchWeather(context.Background(), -31.9523, 115.8613)
	require.NoError(t, err)

	assert.InDelta(t, 24.5, snap.TemperatureC, 0.001)
	assert.InDelta(t, 76.1, snap.TemperatureF, 0.001)
	assert.InDelta(t, 11.185, snap.WindSpeedMPH, 0.001)
	assert.Equal(t, "clear sky", snap.Description)
	assert.Equal(t, ConditionClear, snap.Condition)
	assert.Equal(t, "AU", snap.Country)

	require.Len(t, forecast, 3)
	assert.True(t, forecast.IsChronological(), "forecast must be ordered earliest first")
	assert.Equal(t, "clear sky", forecast[0].Summary)
	assert.Equal(t, ConditionRain, forecast[2].Condition)
}

func TestFetchWeatherMissingKey(t *testing.T) {
	client := NewClient(&http.Client{}, "")

	_, _, err := client.FetchWeather(context.Background(), -31.9523, 115.8613)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Configuration))
	// No network call may happen before the key check.
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestFetchWeatherServerError(t *testing.T) {
	client := newMockedClient(t)

	httpmock.RegisterResponder(http.MethodGet, `=~^https://api\.openweathermap\.org/data/2\.5/weather`,
		httpmock.NewStringResponder(http.StatusInternalServerError, "boom"))

	_, _, err := client.FetchWeather(context.Background(), -31.9523, 115.8613)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.RemoteService))
}

func TestFetchWeatherMalformedPayload(t *testing.T) {
	client := newMockedClient(t)

	httpmock.RegisterResponder(http.MethodGet, `=~^https://api\.openweathermap\.org/data/2\.5/weather`,
		httpmock.NewStringResponder(http.StatusOK, `{"weather": "not a list"`))

	_, _, err := client.FetchWeather(context.Background(), -31.9523, 115.8613)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.RemoteService))
}

func TestFetchWeatherEmptyForecast(t *testing.T) {
	client := newMockedClient(t)

	httpmock.RegisterResponder(http.MethodGet, `=~^https://api\.openweathermap\.org/data/2\.5/weather`,
		httpmock.NewStringResponder(http.StatusOK, currentBody))
	httpmock.RegisterResponder(http.MethodGet, `=~^https://api\.openweathermap\.org/data/2\.5/forecast`,
		httpmock.NewStringResponder(http.StatusOK, `{"list": []}`))

	_, _, err := client.FetchWeather(context.Background(), -31.9523, 115.8613)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.RemoteService))
}

func TestMapCondition(t *testing.T) {
	cases := map[string]Condition{
		"Clear":        ConditionClear,
		"Clouds":       ConditionCloudy,
		"Rain":         ConditionRain,
		"Drizzle":      ConditionRain,
		"Snow":         ConditionSnow,
		"Thunderstorm": ConditionStorm,
		"Fog":          ConditionMist,
		"Tornado":      ConditionUnknown,
	}
	for in, want := range cases {
		assert.Equal(t, want, mapCondition(in), "condition for %q", in)
	}
}
