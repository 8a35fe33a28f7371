package main

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"

	"github.com/briangreenhill/gpxfetch/internal/activity"
	"github.com/briangreenhill/gpxfetch/internal/config"
	"github.com/briangreenhill/gpxfetch/internal/garmin"
	"github.com/briangreenhill/gpxfetch/internal/gpxfile"
	"github.com/briangreenhill/gpxfetch/internal/store"
)

func main() {
	w := os.Stdout
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))

	// Credentials and overrides may live in a local .env file.
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file loaded", slog.Any("error", err))
	}

	cfg, err := config.Load(context.Background())
	if err != nil {
		logger.Error("Error loading configuration", slog.Any("error", err))
		os.Exit(1)
	}

	if err := activity.SetLogLevel(level, cfg.LogLevel); err != nil {
		logger.Error("Error setting log level", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := sql.Open("sqlite3", cfg.DatabasePath)
	if err != nil {
		logger.Error("Error opening database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	history, err := store.New(db)
	if err != nil {
		logger.Error("Error preparing download history", slog.Any("error", err))
		os.Exit(1)
	}

	client := garmin.NewClient(cfg.BaseURL, cfg.TokenDir, cfg.Email, cfg.Password, logger)
	writer := gpxfile.NewWriter(cfg.OutputDir, logger)
	service := activity.NewService(client, history, writer, logger)

	if err := run(w, os.Args[1:], service, history, logger, level, cfg.SkipTypes); err != nil {
		logger.Error("Error running gpxfetch", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(w io.Writer, args []string, service *activity.Service, history activity.History, logger *slog.Logger, level *slog.LevelVar, skipTypes []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cli := activity.NewCLI(w, service, history, logger, level, skipTypes)

	return cli.Run(ctx, args)
}
