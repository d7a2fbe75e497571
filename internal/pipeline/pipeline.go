// Package pipeline runs one report generation end to end: resolve the
// location's timezone, fetch weather, synthesize the narrative, generate
// optional media, persist. Strictly linear; a load-bearing failure aborts
// before anything is written.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/weatherscribe/weatherscribe/internal/config"
	"github.com/weatherscribe/weatherscribe/internal/media"
	"github.com/weatherscribe/weatherscribe/internal/narrative"
	"github.com/weatherscribe/weatherscribe/internal/report"
	"github.com/weatherscribe/weatherscribe/internal/weather"
)

// TimezoneResolver maps the configured coordinates to a local timezone.
type TimezoneResolver interface {
	Resolve(lat, lon float64) (string, error)
	Zone(lat, lon float64) (*time.Location, error)
}

// WeatherFetcher retrieves current conditions and the forecast.
type WeatherFetcher interface {
	FetchWeather(ctx context.Context, lat, lon float64) (weather.Snapshot, weather.ForecastSet, error)
}

// Synthesizer produces the narrative report.
type Synthesizer interface {
	Synthesize(ctx context.Context, loc config.Location, snap weather.Snapshot, forecast weather.ForecastSet, localTime time.Time) (narrative.Report, error)
}

// MediaGenerator produces the optional image and audio artifacts.
type MediaGenerator interface {
	GenerateImage(ctx context.Context, req media.ImageRequest) media.Outcome
	GenerateAudio(ctx context.Context, text string) media.Outcome
}

// DocumentWriter persists the assembled document and artifacts.
type DocumentWriter interface {
	Write(doc *report.Document, image, audio media.Outcome) error
}

// Recorder keeps the rolling run history. Its failures are absorbed.
type Recorder interface {
	Add(doc *report.Document, generatedAt time.Time) error
}

// Service orchestrates one pipeline run.
type Service struct {
	cfg      *config.AppConfig
	resolver TimezoneResolver
	fetcher  WeatherFetcher
	synth    Synthesizer
	media    MediaGenerator
	writer   DocumentWriter
	recorder Recorder

	// now is swapped in tests.
	now func() time.Time
}

// New creates a pipeline service from its collaborators.
func New(cfg *config.AppConfig, resolver TimezoneResolver, fetcher WeatherFetcher, synth Synthesizer, mediaGen MediaGenerator, writer DocumentWriter, recorder Recorder) *Service {
	return &Service{
		cfg:      cfg,
		resolver: resolver,
		fetcher:  fetcher,
		synth:    synth,
		media:    mediaGen,
		writer:   writer,
		recorder: recorder,
		now:      time.Now,
	}
}

// Run executes the pipeline once and returns the persisted document.
// Configuration, remote-service and persistence errors abort the run with
// nothing written; media failures degrade to absent artifacts.
func (s *Service) Run(ctx context.Context) (*report.Document, error) {
	runID := uuid.NewString()
	loc := s.cfg.Location
	log := slog.With("run_id", runID, "location", loc.Name)
	started := s.now()

	tzName, err := s.resolver.Resolve(loc.Latitude, loc.Longitude)
	if err != nil {
		return nil, err
	}
	zone, err := s.resolver.Zone(loc.Latitude, loc.Longitude)
	if err != nil {
		return nil, err
	}
	localTime := s.now().In(zone)
	log.Info("run started", "timezone", tzName, "local_time", localTime.Format(time.RFC3339))

	snap, forecast, err := s.fetcher.FetchWeather(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		return nil, err
	}
	log.Info("weather fetched",
		"temperature_c", snap.TemperatureC,
		"condition", string(snap.Condition),
		"forecast_periods", len(forecast))

	rep, err := s.synth.Synthesize(ctx, loc, snap, forecast, localTime)
	if err != nil {
		return nil, err
	}
	log.Info("narrative synthesized", "color_code", string(rep.Color), "words", len(rep.Text))

	image := s.media.GenerateImage(ctx, media.ImageRequest{
		LocationName: loc.Name,
		Description:  snap.Description,
		TemperatureC: snap.TemperatureC,
		LocalTime:    localTime,
		Narrative:    rep.Text,
	})
	audio := s.media.GenerateAudio(ctx, rep.Text)
	log.Info("media generated", "image", image.Present, "audio", audio.Present)

	doc := &report.Document{
		RunID: runID,
		ForecastData: report.ForecastData{
			Location: report.ForecastLocation{
				Name:      loc.Name,
				Country:   snap.Country,
				Latitude:  loc.Latitude,
				Longitude: loc.Longitude,
			},
			CurrentConditions: snap,
			Forecast:          forecast,
		},
		WeatherReport: rep.Text,
		ColorCode:     string(rep.Color),
		Timestamp:     localTime.Format(time.RFC3339),
		Location: report.LocationInfo{
			Name:      loc.Name,
			Latitude:  loc.Latitude,
			Longitude: loc.Longitude,
			Timezone:  tzName,
		},
	}

	if err := s.writer.Write(doc, image, audio); err != nil {
		return nil, err
	}

	if s.recorder != nil {
		if err := s.recorder.Add(doc, localTime); err != nil {
			log.Warn("failed to record run in history", "error", err)
		}
	}

	log.Info("run completed", "duration", s.now().Sub(started).String())
	return doc, nil
}
