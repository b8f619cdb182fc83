package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"fleetboard/internal/config"
	"fleetboard/internal/database"
	"fleetboard/internal/fetcher"
	"fleetboard/internal/pipeline"
	"fleetboard/internal/scheduler"
	"fleetboard/internal/tasks"
)

func initLogger(cfg *config.Config) {
	var logLevel slog.Level
	switch cfg.Log.Level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.TimeOnly,
		})
	}

	slog.SetDefault(slog.New(handler))
}

func main() {
	configPath := flag.String("config", "", "Path to config file (YAML)")
	daemon := flag.Bool("daemon", false, "Run continuously: refresh positions and rebuild the dashboard on a schedule")
	flag.Parse()

	// SkyRouter credentials commonly live in a local .env file.
	_ = godotenv.Load()

	if *configPath != "" {
		os.Setenv("FLEETBOARD_CONFIG_PATH", *configPath)
	}

	cfg, err := config.Load()
	if err != nil {
		// Use basic logging for config errors since logger isn't initialized yet
		basicLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		basicLogger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	initLogger(cfg)

	db, err := database.New(cfg.Path(cfg.DBPath))
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	runner, err := pipeline.New(cfg, db)
	if err != nil {
		slog.Error("Failed to initialize pipeline", "error", err)
		os.Exit(1)
	}

	if !*daemon {
		if err := runner.Run(time.Now()); err != nil {
			slog.Error("Dashboard build failed", "error", err)
			os.Exit(1)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.New(ctx)

	client, err := fetcher.NewClient(cfg.SkyRouter, cfg.Bases)
	if err != nil {
		slog.Warn("Position refresh disabled", "error", err)
	} else {
		sched.AddTask(tasks.NewPositionRefresh(client, cfg))
	}

	sched.AddTask(tasks.NewDashboardBuild(
		runner,
		time.Duration(cfg.Daemon.DashboardMinutes)*time.Minute,
	))

	sched.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	slog.Info("Received interrupt signal, shutting down...")

	sched.Stop()
	slog.Info("Shutdown complete")
}
