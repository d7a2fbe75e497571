package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/weatherscribe/weatherscribe/internal/apperr"
	"github.com/weatherscribe/weatherscribe/internal/config"
	"github.com/weatherscribe/weatherscribe/internal/health"
	"github.com/weatherscribe/weatherscribe/internal/history"
	"github.com/weatherscribe/weatherscribe/internal/location"
	"github.com/weatherscribe/weatherscribe/internal/media"
	"github.com/weatherscribe/weatherscribe/internal/narrative"
	"github.com/weatherscribe/weatherscribe/internal/pipeline"
	"github.com/weatherscribe/weatherscribe/internal/report"
	"github.com/weatherscribe/weatherscribe/internal/scheduler"
	"github.com/weatherscribe/weatherscribe/internal/server"
	"github.com/weatherscribe/weatherscribe/internal/weather"
)

// runTimeout bounds a full pipeline run; individual provider calls are
// bounded separately by the configured HTTP timeout.
const runTimeout = 5 * time.Minute

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := rootCommand().Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(apperr.ExitCode(err))
	}
}

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "weatherscribe",
		Short:         "Generates a narrated weather report for a configured location",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd.Context())
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Generate the report once and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runOnce(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "watch",
			Short: "Regenerate the report on an interval",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runWatch()
			},
		},
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the output directory and health endpoint",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe()
			},
		},
		&cobra.Command{
			Use:   "healthcheck",
			Short: "Probe providers and output state, print a health report",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runHealthcheck(cmd.Context())
			},
		},
	)

	return root
}

// buildService wires the pipeline from a loaded configuration.
func buildService(cfg *config.AppConfig) (*pipeline.Service, error) {
	resolver, err := location.NewResolver()
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	fetcher := weather.NewClient(httpClient, cfg.OpenWeatherAPIKey)
	synth := narrative.NewSynthesizer(cfg.OpenAIAPIKey, httpClient, cfg.MaxReportWords)
	mediaGen := media.NewGenerator(cfg.ImageAPIKey, cfg.ElevenLabsAPIKey, cfg.VoiceID, httpClient)
	writer := report.NewWriter(cfg.OutputDir)
	hist := history.NewStore(historyPath(cfg))

	return pipeline.New(cfg, resolver, fetcher, synth, mediaGen, writer, hist), nil
}

func historyPath(cfg *config.AppConfig) string {
	return filepath.Join(cfg.OutputDir, "weather_history.json")
}

func runOnce(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	svc, err := buildService(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(parent, runTimeout)
	defer cancel()

	if _, err := svc.Run(ctx); err != nil {
		return err
	}
	return nil
}

func runWatch() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	svc, err := buildService(cfg)
	if err != nil {
		return err
	}

	sched := scheduler.New(cfg.FetchInterval, runTimeout, func(ctx context.Context) error {
		_, err := svc.Run(ctx)
		return err
	})
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	slog.Info("watch mode started", "interval", cfg.FetchInterval.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	slog.Info("watch mode stopping")
	return nil
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	checker := health.NewChecker(cfg, httpClient)
	hist := history.NewStore(historyPath(cfg))

	app := server.New(cfg.OutputDir, hist, checker)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server stopped", "error", err)
		}
	}()
	slog.Info("serving output directory", "port", cfg.Port, "dir", cfg.OutputDir)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

func runHealthcheck(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(parent, cfg.HTTPTimeout)
	defer cancel()

	checker := health.NewChecker(cfg, &http.Client{Timeout: cfg.HTTPTimeout})
	rep := checker.Run(ctx)

	out, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if rep.Status == health.StatusUnhealthy {
		return apperr.Newf(apperr.RemoteService, "healthcheck", "status %s", rep.Status)
	}
	return nil
}
