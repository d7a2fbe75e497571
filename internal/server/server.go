// Package server exposes a small read-only HTTP surface for the static
// front end: the output files themselves, the latest document, run
// history and a health endpoint.
package server

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/weatherscribe/weatherscribe/internal/health"
	"github.com/weatherscribe/weatherscribe/internal/history"
	"github.com/weatherscribe/weatherscribe/internal/report"
)

// HealthChecker runs the deployment probes.
type HealthChecker interface {
	Run(ctx context.Context) health.Report
}

// New builds the fiber app over the output directory.
func New(outputDir string, hist *history.Store, checker HealthChecker) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "weatherscribe",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		rep := checker.Run(c.Context())
		status := fiber.StatusOK
		if rep.Status == health.StatusUnhealthy {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(rep)
	})

	writer := report.NewWriter(outputDir)

	app.Get("/api/v1/report", func(c *fiber.Ctx) error {
		doc, err := writer.Read()
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "no report document available")
		}
		return c.JSON(doc)
	})

	app.Get("/api/v1/history", func(c *fiber.Ctx) error {
		hours, err := strconv.Atoi(c.Query("hours", "24"))
		if err != nil || hours < 1 || hours > 168 {
			return fiber.NewError(fiber.StatusBadRequest, "hours must be between 1 and 168")
		}

		entries, err := hist.Recent(time.Duration(hours) * time.Hour)
		if err != nil {
			if err == history.ErrNoData {
				return c.JSON([]history.Entry{})
			}
			return err
		}
		return c.JSON(entries)
	})

	app.Get("/api/v1/history/trend", func(c *fiber.Ctx) error {
		hours, err := strconv.Atoi(c.Query("hours", "12"))
		if err != nil || hours < 1 || hours > 168 {
			return fiber.NewError(fiber.StatusBadRequest, "hours must be between 1 and 168")
		}
		return c.JSON(hist.TemperatureTrend(time.Duration(hours) * time.Hour))
	})

	// The front end fetches weather_report.json and media directly.
	app.Static("/", outputDir)

	return app
}
