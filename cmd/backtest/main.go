// Command backtest runs one capital-management simulation over a price
// series. It loads configuration, validates it, wires the engine and prints
// a run report, optionally dumping the full diagnostics table as CSV.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/quantfold/backtest/internal/app"
	"github.com/quantfold/backtest/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (optional)")
	dataPath := flag.String("data", "", "path to OHLCV CSV file (overrides config)")
	strategyName := flag.String("strategy", "", "signal strategy: multi_timeframe, supertrend, sma_cross (overrides config)")
	bars := flag.Int("bars", 0, "synthetic series length (overrides config)")
	dumpPath := flag.String("dump", "", "write the per-bar diagnostics table as CSV to this path")
	flag.Parse()

	// Setup structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration.
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config",
			slog.String("path", *configPath),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// Flags win over file and environment.
	if *dataPath != "" {
		cfg.Data.CSVPath = *dataPath
	}
	if *strategyName != "" {
		cfg.Strategy.Type = *strategyName
	}
	if *bars > 0 {
		cfg.Data.SyntheticBars = *bars
	}

	// Set log level from config.
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Validate configuration.
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("backtest starting",
		slog.String("strategy", cfg.Strategy.Type),
		slog.String("config", *configPath),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application := app.New(cfg, logger)
	res, stats, err := application.Run(ctx)
	if err != nil {
		logger.Error("backtest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	app.WriteSummary(os.Stdout, res, app.Summarize(res))
	app.WriteCacheStats(os.Stdout, stats)

	if *dumpPath != "" {
		if err := app.DumpRows(*dumpPath, res); err != nil {
			logger.Error("failed to write diagnostics table",
				slog.String("path", *dumpPath),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
		logger.Info("diagnostics table written", slog.String("path", *dumpPath))
	}
}
