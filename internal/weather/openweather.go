package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/weatherscribe/weatherscribe/internal/apperr"
)

// forecastPeriods caps how many forecast steps a run carries. The provider
// returns 3-hour steps, so 8 covers the next 24 hours.
const forecastPeriods = 8

// Client fetches current conditions and forecast from OpenWeatherMap.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	circuit    *gobreaker.CircuitBreaker
}

// NewClient creates an OpenWeather client sharing the given HTTP client,
// whose timeout bounds each provider call.
func NewClient(httpClient *http.Client, apiKey string) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweather",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		apiKey:     apiKey,
		baseURL:    "https://api.openweathermap.org/data/2.5",
		httpClient: httpClient,
		circuit:    cb,
	}
}

// FetchWeather retrieves current conditions and the forecast for the
// coordinates. On success the forecast set is non-empty and ordered
// earliest first. Failures are never retried; the caller aborts the run.
func (c *Client) FetchWeather(ctx context.Context, lat, lon float64) (Snapshot, ForecastSet, error) {
	const op = "weather.fetch"

	if c.apiKey == "" {
		return Snapshot{}, nil, apperr.New(apperr.Configuration, op, "openweather api key is not configured")
	}

	snapshot, err := c.fetchCurrent(ctx, lat, lon)
	if err != nil {
		return Snapshot{}, nil, err
	}

	forecast, err := c.fetchForecast(ctx, lat, lon)
	if err != nil {
		return Snapshot{}, nil, err
	}

	return snapshot, forecast, nil
}

func (c *Client) get(ctx context.Context, endpoint string, lat, lon float64) (*http.Response, error) {
	values := url.Values{}
	values.Set("lat", fmt.Sprintf("%f", lat))
	values.Set("lon", fmt.Sprintf("%f", lon))
	values.Set("appid", c.apiKey)
	values.Set("units", "metric")

	u := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, values.Encode())
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	return doRequest(ctx, c.httpClient, c.circuit, req)
}

func (c *Client) fetchCurrent(ctx context.Context, lat, lon float64) (Snapshot, error) {
	const op = "weather.current"

	resp, err := c.get(ctx, "weather", lat, lon)
	if err != nil {
		return Snapshot{}, apperr.Wrap(apperr.RemoteService, op, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp     float64 `json:"temp"`
			Humidity float64 `json:"humidity"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
			Deg   int     `json:"deg"`
		} `json:"wind"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
		} `json:"weather"`
		Sys struct {
			Country string `json:"country"`
		} `json:"sys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Snapshot{}, apperr.Wrap(apperr.RemoteService, op, err)
	}
	if len(payload.Weather) == 0 {
		return Snapshot{}, apperr.New(apperr.RemoteService, op, "payload missing weather block")
	}

	ts := time.Unix(payload.Dt, 0).UTC()
	if payload.Dt == 0 {
		ts = time.Now().UTC()
	}

	return Snapshot{
		ObservedAt:    ts,
		TemperatureC:  payload.Main.Temp,
		TemperatureF:  CelsiusToFahrenheit(payload.Main.Temp),
		Humidity:      payload.Main.Humidity,
		WindSpeedMPH:  MetersPerSecondToMPH(payload.Wind.Speed),
		WindDirection: payload.Wind.Deg,
		Description:   payload.Weather[0].Description,
		Condition:     mapCondition(payload.Weather[0].Main),
		Country:       payload.Sys.Country,
	}, nil
}

func (c *Client) fetchForecast(ctx context.Context, lat, lon float64) (ForecastSet, error) {
	const op = "weather.forecast"

	resp, err := c.get(ctx, "forecast", lat, lon)
	if err != nil {
		return nil, apperr.Wrap(apperr.RemoteService, op, err)
	}
	defer resp.Body.Close()

	var payload struct {
		List []struct {
			Dt   int64 `json:"dt"`
			Main struct {
				Temp float64 `json:"temp"`
			} `json:"main"`
			Wind struct {
				Speed float64 `json:"speed"`
				Deg   int     `json:"deg"`
			} `json:"wind"`
			Weather []struct {
				Main        string `json:"main"`
				Description string `json:"description"`
			} `json:"weather"`
		} `json:"list"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperr.Wrap(apperr.RemoteService, op, err)
	}
	if len(payload.List) == 0 {
		return nil, apperr.New(apperr.RemoteService, op, "forecast payload is empty")
	}

	limit := len(payload.List)
	if limit > forecastPeriods {
		limit = forecastPeriods
	}

	forecast := make(ForecastSet, 0, limit)
	for _, period := range payload.List[:limit] {
		if len(period.Weather) == 0 {
			// Skip malformed periods rather than failing the run,
			// as long as at least one usable period remains.
			continue
		}
		forecast = append(forecast, ForecastPeriod{
			StartTime:     time.Unix(period.Dt, 0).UTC(),
			TemperatureC:  period.Main.Temp,
			WindSpeedMPH:  MetersPerSecondToMPH(period.Wind.Speed),
			WindDirection: period.Wind.Deg,
			Summary:       period.Weather[0].Description,
			Condition:     mapCondition(period.Weather[0].Main),
		})
	}
	if len(forecast) == 0 {
		return nil, apperr.New(apperr.RemoteService, op, "no usable forecast periods in payload")
	}

	forecast.SortChronological()
	return forecast, nil
}

func mapCondition(main string) Condition {
	switch main {
	case "Clear":
		return ConditionClear
	case "Clouds":
		return ConditionCloudy
	case "Rain", "Drizzle":
		return ConditionRain
	case "Snow":
		return ConditionSnow
	case "Thunderstorm":
		return ConditionStorm
	case "Mist", "Fog", "Haze":
		return ConditionMist
	default:
		return ConditionUnknown
	}
}
