package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/weatherscribe/weatherscribe/internal/health"
	"github.com/weatherscribe/weatherscribe/internal/history"
	"github.com/weatherscribe/weatherscribe/internal/media"
	"github.com/weatherscribe/weatherscribe/internal/report"
)

type stubChecker struct {
	report health.Report
}

func (s stubChecker) Run(ctx context.Context) health.Report {
	return s.report
}

type testApp struct {
	dir  string
	hist *history.Store
	app  *fiber.App
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	dir := t.TempDir()
	hist := history.NewStore(filepath.Join(dir, "weather_history.json"))
	checker := stubChecker{report: health.Report{Status: health.StatusHealthy}}
	return &testApp{
		dir:  dir,
		hist: hist,
		app:  New(dir, hist, checker),
	}
}

func writeSampleDocument(t *testing.T, dir string) *report.Document {
	t.Helper()
	doc := &report.Document{
		RunID:         "run-1",
		WeatherReport: "A crisp blue sky greets Perth this afternoon.",
		ColorCode:     "clear",
		Timestamp:     "2025-12-30T14:00:00+08:00",
		Location:      report.LocationInfo{Name: "Perth", Timezone: "Australia/Perth"},
	}
	w := report.NewWriter(dir)
	if err := w.Write(doc, media.Absent("disabled"), media.Absent("disabled")); err != nil {
		t.Fatalf("writing sample document: %v", err)
	}
	return doc
}

func TestReportEndpoint(t *testing.T) {
	ta := newTestApp(t)
	writeSampleDocument(t, ta.dir)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/report", nil)
	resp, err := ta.app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var doc report.Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if doc.WeatherReport != "A crisp blue sky greets Perth this afternoon." {
		t.Fatalf("unexpected narrative: %q", doc.WeatherReport)
	}
	if doc.ColorCode != "clear" {
		t.Fatalf("unexpected color code: %q", doc.ColorCode)
	}
}

func TestReportEndpointMissingDocument(t *testing.T) {
	ta := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/report", nil)
	resp, err := ta.app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.StatusCode)
	}
}

func TestStaticDocumentServed(t *testing.T) {
	ta := newTestApp(t)
	writeSampleDocument(t, ta.dir)

	req := httptest.NewRequest(http.MethodGet, "/"+report.DocumentFile, nil)
	resp, err := ta.app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
}

func TestHistoryEndpointValidation(t *testing.T) {
	ta := newTestApp(t)

	// Out-of-range hours value should return 400.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/history?hours=200", nil)
	resp, err := ta.app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.StatusCode)
	}

	// No history yet returns an empty list, not an error.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
	resp, err = ta.app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	ta := newTestApp(t)
	doc := writeSampleDocument(t, ta.dir)
	if err := ta.hist.Add(doc, time.Now()); err != nil {
		t.Fatalf("adding history entry: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history?hours=24", nil)
	resp, err := ta.app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var entries []history.Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].LocationName != "Perth" {
		t.Fatalf("unexpected location: %q", entries[0].LocationName)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ta := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := ta.app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
}

func TestHealthEndpointUnhealthy(t *testing.T) {
	dir := t.TempDir()
	hist := history.NewStore(filepath.Join(dir, "weather_history.json"))
	app := New(dir, hist, stubChecker{report: health.Report{Status: health.StatusUnhealthy}})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", resp.StatusCode)
	}
}
