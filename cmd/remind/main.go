// Command remind runs the reminder dispatch job.
//
// By default it performs a single pass and exits: 0 when the pass finished
// (including when nothing was due), 1 on any fatal error. This is the mode
// a scheduled CI workflow uses; the prepared bodies and the GITHUB_OUTPUT
// keys are consumed by a later mail step.
//
// With POSTMUSE_REMINDER_CRON set (e.g. "*/5 * * * *") it instead stays
// up and runs a pass on that schedule until SIGINT/SIGTERM.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sakif/postmuse/internal/clock"
	"github.com/sakif/postmuse/internal/config"
	"github.com/sakif/postmuse/internal/reminder"
	"github.com/sakif/postmuse/internal/repository/sqlite"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		return 1
	}

	// stdout is left to the workflow; logs go to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel(),
	}))

	zone, err := cfg.Zone()
	if err != nil {
		logger.Error("invalid timezone", slog.String("error", err.Error()))
		return 1
	}
	rcfg, err := cfg.ReminderConfig()
	if err != nil {
		logger.Error("invalid reminder configuration", slog.String("error", err.Error()))
		return 1
	}

	db, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		logger.Error("failed to open database",
			slog.String("path", cfg.Database.Path),
			slog.String("error", err.Error()),
		)
		return 1
	}
	defer db.Close()

	notifier := reminder.FileNotifier{
		BodiesPath: cfg.Reminder.BodiesPath,
		OutputPath: cfg.Reminder.OutputFile,
	}
	dispatcher := reminder.NewDispatcher(db, clock.Real{}, zone, notifier, rcfg, logger)

	if cfg.Reminder.Cron == "" {
		batch, err := dispatcher.Run(context.Background())
		if err != nil {
			logger.Error("reminder pass failed", slog.String("error", err.Error()))
			return 1
		}
		logger.Info("done",
			slog.Int("due", batch.DueCount),
			slog.Int("sent", batch.Len()),
		)
		return 0
	}

	scheduler, err := reminder.NewScheduler(cfg.Reminder.Cron, dispatcher, logger)
	if err != nil {
		logger.Error("invalid reminder schedule", slog.String("error", err.Error()))
		return 1
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	scheduler.Start()
	logger.Info("reminder scheduler running", slog.String("cron", cfg.Reminder.Cron))

	sig := <-quit
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	scheduler.Stop()

	if n := scheduler.Failures(); n > 0 {
		logger.Warn("some reminder passes failed", slog.Int("failures", n))
	}
	return 0
}
