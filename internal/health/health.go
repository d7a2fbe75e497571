// Package health probes the things a scheduled deployment silently breaks
// on: provider reachability, a stale output document, and an unwritable
// output directory.
package health

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/weatherscribe/weatherscribe/internal/config"
	"github.com/weatherscribe/weatherscribe/internal/report"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// maxDocumentAge is how stale the output document may get before the
// freshness check degrades. Generous enough for hourly scheduling.
const maxDocumentAge = 3 * time.Hour

// CheckResult is a single probe outcome.
type CheckResult struct {
	Name           string  `json:"name"`
	Status         string  `json:"status"`
	ResponseTimeMS float64 `json:"response_time_ms,omitempty"`
	Details        string  `json:"details,omitempty"`
	Error          string  `json:"error,omitempty"`
}

// Report aggregates all probe outcomes.
type Report struct {
	Status      string        `json:"status"`
	GeneratedAt time.Time     `json:"generated_at"`
	Checks      []CheckResult `json:"checks"`
}

// Checker runs the probes against a loaded configuration.
type Checker struct {
	cfg        *config.AppConfig
	httpClient *http.Client
}

// NewChecker builds a checker sharing the run's HTTP client.
func NewChecker(cfg *config.AppConfig, httpClient *http.Client) *Checker {
	return &Checker{cfg: cfg, httpClient: httpClient}
}

// Run executes all probes. Provider unreachability makes the report
// unhealthy; staleness alone only degrades it.
func (c *Checker) Run(ctx context.Context) Report {
	checks := []CheckResult{
		c.checkWeatherAPI(ctx),
		c.checkDocumentFreshness(),
		c.checkOutputWritable(),
	}

	status := StatusHealthy
	for _, check := range checks {
		switch check.Status {
		case StatusUnhealthy:
			status = StatusUnhealthy
		case StatusDegraded:
			if status == StatusHealthy {
				status = StatusDegraded
			}
		}
	}

	return Report{
		Status:      status,
		GeneratedAt: time.Now().UTC(),
		Checks:      checks,
	}
}

func (c *Checker) checkWeatherAPI(ctx context.Context) CheckResult {
	const name = "openweather_api"

	values := url.Values{}
	values.Set("lat", fmt.Sprintf("%f", c.cfg.Location.Latitude))
	values.Set("lon", fmt.Sprintf("%f", c.cfg.Location.Longitude))
	values.Set("appid", c.cfg.OpenWeatherAPIKey)
	values.Set("units", "metric")
	endpoint := "https://api.openweathermap.org/data/2.5/weather?" + values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return CheckResult{Name: name, Status: StatusUnhealthy, Error: err.Error()}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := float64(time.Since(start).Milliseconds())
	if err != nil {
		return CheckResult{
			Name: name, Status: StatusUnhealthy,
			Error:   err.Error(),
			Details: "failed to connect to weather provider",
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return CheckResult{
			Name: name, Status: StatusUnhealthy,
			ResponseTimeMS: elapsed,
			Details:        fmt.Sprintf("HTTP %d", resp.StatusCode),
		}
	}
	return CheckResult{
		Name: name, Status: StatusHealthy,
		ResponseTimeMS: elapsed,
		Details:        fmt.Sprintf("HTTP %d", resp.StatusCode),
	}
}

func (c *Checker) checkDocumentFreshness() CheckResult {
	const name = "report_freshness"

	path := filepath.Join(c.cfg.OutputDir, report.DocumentFile)
	info, err := os.Stat(path)
	if err != nil {
		return CheckResult{
			Name: name, Status: StatusDegraded,
			Details: "no report document found",
			Error:   err.Error(),
		}
	}

	age := time.Since(info.ModTime())
	if age > maxDocumentAge {
		return CheckResult{
			Name: name, Status: StatusDegraded,
			Details: fmt.Sprintf("document is %s old", age.Round(time.Minute)),
		}
	}
	return CheckResult{
		Name: name, Status: StatusHealthy,
		Details: fmt.Sprintf("document is %s old", age.Round(time.Minute)),
	}
}

func (c *Checker) checkOutputWritable() CheckResult {
	const name = "output_writable"

	if err := os.MkdirAll(c.cfg.OutputDir, 0o755); err != nil {
		return CheckResult{Name: name, Status: StatusUnhealthy, Error: err.Error()}
	}

	probe, err := os.CreateTemp(c.cfg.OutputDir, ".health-*")
	if err != nil {
		return CheckResult{
			Name: name, Status: StatusUnhealthy,
			Details: "output directory is not writable",
			Error:   err.Error(),
		}
	}
	probe.Close()
	os.Remove(probe.Name())

	return CheckResult{Name: name, Status: StatusHealthy, Details: "output directory writable"}
}
