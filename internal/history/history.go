// Package history keeps a rolling log of past run summaries for trend
// queries. Failures here never fail a run; the document is the product,
// history is bookkeeping.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/weatherscribe/weatherscribe/internal/report"
)

// ErrNoData is returned when no history is available for a query.
var ErrNoData = errors.New("no history data")

// Entry is one run's summary. Full documents are not kept.
type Entry struct {
	Timestamp     time.Time `json:"timestamp"`
	LocationName  string    `json:"location_name"`
	TemperatureC  float64   `json:"temperature_c"`
	Condition     string    `json:"condition"`
	ReportSummary string    `json:"report_summary"`
	ColorCode     string    `json:"color_code"`
}

// Trend summarizes how temperature moved over a recent window.
type Trend struct {
	Trend   string  `json:"trend"` // rising, falling, stable, insufficient_data
	ChangeC float64 `json:"change_c"`
	Message string  `json:"message"`
}

// Store is a file-backed history with retention by count and age.
type Store struct {
	path       string
	maxEntries int
	maxAge     time.Duration
}

// NewStore creates a store at path. Defaults keep a week of hourly runs.
func NewStore(path string) *Store {
	return &Store{
		path:       path,
		maxEntries: 168,
		maxAge:     7 * 24 * time.Hour,
	}
}

// Add appends a summary of the document and enforces retention.
func (s *Store) Add(doc *report.Document, generatedAt time.Time) error {
	entries, err := s.load()
	if err != nil {
		return err
	}

	summary := doc.WeatherReport
	if len(summary) > 100 {
		summary = summary[:100] + "..."
	}

	entries = append(entries, Entry{
		Timestamp:     generatedAt,
		LocationName:  doc.Location.Name,
		TemperatureC:  doc.ForecastData.CurrentConditions.TemperatureC,
		Condition:     string(doc.ForecastData.CurrentConditions.Condition),
		ReportSummary: summary,
		ColorCode:     doc.ColorCode,
	})

	// Retention by count.
	if len(entries) > s.maxEntries {
		entries = entries[len(entries)-s.maxEntries:]
	}

	// Retention by age.
	if s.maxAge > 0 {
		cutoff := generatedAt.Add(-s.maxAge)
		i := 0
		for ; i < len(entries); i++ {
			if !entries[i].Timestamp.Before(cutoff) {
				break
			}
		}
		entries = entries[i:]
	}

	return s.save(entries)
}

// Recent returns entries from the last given duration, newest last.
func (s *Store) Recent(window time.Duration) ([]Entry, error) {
	entries, err := s.load()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNoData
	}

	cutoff := time.Now().Add(-window)
	var recent []Entry
	for _, e := range entries {
		if !e.Timestamp.Before(cutoff) {
			recent = append(recent, e)
		}
	}
	if len(recent) == 0 {
		return nil, ErrNoData
	}
	return recent, nil
}

// TemperatureTrend compares the oldest and newest readings in the window.
func (s *Store) TemperatureTrend(window time.Duration) Trend {
	recent, err := s.Recent(window)
	if err != nil || len(recent) < 2 {
		return Trend{Trend: "insufficient_data", Message: "not enough data for trend analysis"}
	}

	change := recent[len(recent)-1].TemperatureC - recent[0].TemperatureC
	trend := "stable"
	switch {
	case change > 1.0:
		trend = "rising"
	case change < -1.0:
		trend = "falling"
	}

	return Trend{
		Trend:   trend,
		ChangeC: change,
		Message: fmt.Sprintf("temperature %s %.1f°C over %d readings", trend, change, len(recent)),
	}
}

func (s *Store) load() ([]Entry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		// A corrupt history file is dropped rather than wedging every
		// future run.
		return nil, nil
	}
	return entries, nil
}

func (s *Store) save(entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}
