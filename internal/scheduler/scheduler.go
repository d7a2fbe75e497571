// Package scheduler drives repeated pipeline runs for deployments that
// have no external cron. One job, one location, no overlap: gocron waits
// for the previous run before starting the next.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// RunFunc executes one pipeline run.
type RunFunc func(ctx context.Context) error

// Scheduler periodically regenerates the weather report.
type Scheduler struct {
	scheduler *gocron.Scheduler
	run       RunFunc
	interval  time.Duration
	timeout   time.Duration
}

// New creates a Scheduler. The timeout bounds each run so a hung provider
// cannot stall the schedule indefinitely.
func New(interval, timeout time.Duration, run RunFunc) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		run:       run,
		interval:  interval,
		timeout:   timeout,
	}
}

// Start schedules the job, runs it once immediately, and starts the
// underlying scheduler.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 60
	}

	_, err := s.scheduler.Every(minutes).Minutes().StartImmediately().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.run(ctx); err != nil {
			// The previous document stays in place; the next tick tries again.
			slog.Error("scheduled run failed", "error", err)
			return
		}
		slog.Info("scheduled run completed")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
