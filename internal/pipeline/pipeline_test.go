package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weatherscribe/weatherscribe/internal/apperr"
	"github.com/weatherscribe/weatherscribe/internal/config"
	"github.com/weatherscribe/weatherscribe/internal/media"
	"github.com/weatherscribe/weatherscribe/internal/narrative"
	"github.com/weatherscribe/weatherscribe/internal/report"
	"github.com/weatherscribe/weatherscribe/internal/weather"
)

type stubResolver struct{}

func (stubResolver) Resolve(lat, lon float64) (string, error) { return "Australia/Perth", nil }
func (stubResolver) Zone(lat, lon float64) (*time.Location, error) {
	return time.LoadLocation("Australia/Perth")
}

type stubFetcher struct {
	snap     weather.Snapshot
	forecast weather.ForecastSet
	err      error
	calls    int
}

func (f *stubFetcher) FetchWeather(ctx context.Context, lat, lon float64) (weather.Snapshot, weather.ForecastSet, error) {
	f.calls++
	return f.snap, f.forecast, f.err
}

type stubSynth struct {
	rep   narrative.Report
	err   error
	calls int
}

func (s *stubSynth) Synthesize(ctx context.Context, loc config.Location, snap weather.Snapshot, forecast weather.ForecastSet, localTime time.Time) (narrative.Report, error) {
	s.calls++
	return s.rep, s.err
}

type stubMedia struct {
	image media.Outcome
	audio media.Outcome
}

func (m *stubMedia) GenerateImage(ctx context.Context, req media.ImageRequest) media.Outcome {
	return m.image
}

func (m *stubMedia) GenerateAudio(ctx context.Context, text string) media.Outcome {
	return m.audio
}

type stubRecorder struct {
	err   error
	calls int
}

func (r *stubRecorder) Add(doc *report.Document, generatedAt time.Time) error {
	r.calls++
	return r.err
}

func fiveForecastPeriods() weather.ForecastSet {
	base := time.Date(2025, 12, 30, 6, 0, 0, 0, time.UTC)
	fs := make(weather.ForecastSet, 5)
	for i := range fs {
		fs[i] = weather.ForecastPeriod{
			StartTime:    base.Add(time.Duration(i) * 3 * time.Hour),
			TemperatureC: 20 + float64(i),
			Summary:      "clear sky",
		}
	}
	return fs
}

func newTestService(t *testing.T, fetcher *stubFetcher, synth *stubSynth, m *stubMedia, rec *stubRecorder) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.AppConfig{
		Location:  config.Location{Latitude: -31.9523, Longitude: 115.8613, Name: "Perth"},
		OutputDir: dir,
	}
	svc := New(cfg, stubResolver{}, fetcher, synth, m, report.NewWriter(dir), rec)
	return svc, dir
}

func TestRunHappyPath(t *testing.T) {
	fetcher := &stubFetcher{
		snap:     weather.Snapshot{TemperatureC: 24.5, Description: "clear sky", Condition: weather.ConditionClear, Country: "AU"},
		forecast: fiveForecastPeriods(),
	}
	synth := &stubSynth{rep: narrative.Report{Text: "A crisp blue sky greets Perth this afternoon.", Color: narrative.ColorClear}}
	m := &stubMedia{image: media.Absent("disabled"), audio: media.Absent("disabled")}
	rec := &stubRecorder{}
	svc, dir := newTestService(t, fetcher, synth, m, rec)

	before := time.Now()
	doc, err := svc.Run(context.Background())
	after := time.Now()
	require.NoError(t, err)

	assert.Equal(t, "A crisp blue sky greets Perth this afternoon.", doc.WeatherReport)
	assert.Equal(t, "clear", doc.ColorCode)
	assert.Equal(t, "Perth", doc.Location.Name)
	assert.Equal(t, "Australia/Perth", doc.Location.Timezone)
	assert.NotEmpty(t, doc.RunID)
	assert.False(t, doc.Image.Present)
	assert.False(t, doc.Audio.Present)
	assert.Equal(t, 1, rec.calls)

	// Generation timestamp falls in the run's wall-clock window.
	stamp, err := time.Parse(time.RFC3339, doc.Timestamp)
	require.NoError(t, err)
	assert.False(t, stamp.Before(before.Add(-time.Second)))
	assert.False(t, stamp.After(after.Add(time.Second)))

	// The document landed on disk.
	got, err := report.NewWriter(dir).Read()
	require.NoError(t, err)
	assert.Equal(t, doc.WeatherReport, got.WeatherReport)
}

func TestRunWeatherFailureWritesNothing(t *testing.T) {
	fetcher := &stubFetcher{err: apperr.New(apperr.RemoteService, "weather.fetch", "HTTP 500")}
	synth := &stubSynth{}
	svc, dir := newTestService(t, fetcher, synth, &stubMedia{}, &stubRecorder{})

	// A previous run's document must survive the failed run untouched.
	prior := []byte(`{"run_id": "previous"}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, report.DocumentFile), prior, 0o644))

	_, err := svc.Run(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.RemoteService))
	assert.Equal(t, 0, synth.calls, "synthesizer must not run after weather failure")

	got, readErr := os.ReadFile(filepath.Join(dir, report.DocumentFile))
	require.NoError(t, readErr)
	assert.Equal(t, prior, got, "document must be byte-identical to its pre-run state")
}

func TestRunSynthesizerFailureAborts(t *testing.T) {
	fetcher := &stubFetcher{forecast: fiveForecastPeriods()}
	synth := &stubSynth{err: apperr.New(apperr.RemoteService, "narrative.synthesize", "overloaded")}
	rec := &stubRecorder{}
	svc, dir := newTestService(t, fetcher, synth, &stubMedia{}, rec)

	_, err := svc.Run(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.RemoteService))
	assert.Equal(t, 0, rec.calls)

	_, statErr := os.Stat(filepath.Join(dir, report.DocumentFile))
	assert.True(t, os.IsNotExist(statErr), "no document may be written on abort")
}

func TestRunMediaDegradationStillWritesDocument(t *testing.T) {
	fetcher := &stubFetcher{
		snap:     weather.Snapshot{TemperatureC: 20, Description: "light rain", Condition: weather.ConditionRain},
		forecast: fiveForecastPeriods(),
	}
	synth := &stubSynth{rep: narrative.Report{Text: "Rain threads the afternoon.", Color: narrative.ColorRain}}
	m := &stubMedia{
		image: media.Absent("image provider error: timeout"),
		audio: media.Generated([]byte("mp3"), "audio/mpeg"),
	}
	svc, dir := newTestService(t, fetcher, synth, m, &stubRecorder{})

	doc, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, doc.WeatherReport)
	assert.False(t, doc.Image.Present)
	assert.Contains(t, doc.Image.Reason, "timeout")
	assert.True(t, doc.Audio.Present)

	_, statErr := os.Stat(filepath.Join(dir, report.AudioFile))
	assert.NoError(t, statErr)
	_, statErr = os.Stat(filepath.Join(dir, report.ImageFile))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunHistoryFailureDoesNotAbort(t *testing.T) {
	fetcher := &stubFetcher{forecast: fiveForecastPeriods(), snap: weather.Snapshot{Description: "clear sky"}}
	synth := &stubSynth{rep: narrative.Report{Text: "text", Color: narrative.ColorNeutral}}
	rec := &stubRecorder{err: errors.New("disk hiccup")}
	svc, _ := newTestService(t, fetcher, synth, &stubMedia{image: media.Absent("x"), audio: media.Absent("x")}, rec)

	_, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rec.calls)
}

func TestRunIdempotentExceptTimestamp(t *testing.T) {
	fetcher := &stubFetcher{
		snap:     weather.Snapshot{TemperatureC: 24.5, Description: "clear sky", Condition: weather.ConditionClear},
		forecast: fiveForecastPeriods(),
	}
	synth := &stubSynth{rep: narrative.Report{Text: "A crisp blue sky greets Perth this afternoon.", Color: narrative.ColorClear}}
	m := &stubMedia{image: media.Absent("disabled"), audio: media.Absent("disabled")}
	svc, _ := newTestService(t, fetcher, synth, m, &stubRecorder{})

	first, err := svc.Run(context.Background())
	require.NoError(t, err)
	second, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.WeatherReport, second.WeatherReport)
	assert.Equal(t, first.ColorCode, second.ColorCode)
	assert.Equal(t, first.ForecastData, second.ForecastData)
	assert.Equal(t, first.Location, second.Location)
}
