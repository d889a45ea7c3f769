// Package app provides the top-level lifecycle for the backtester. It wires
// the price feed, the strategy registry and the simulation engine from the
// loaded configuration and runs a single backtest to completion.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quantfold/backtest/internal/config"
	"github.com/quantfold/backtest/internal/domain"
	"github.com/quantfold/backtest/internal/engine"
	"github.com/quantfold/backtest/internal/feed"
	"github.com/quantfold/backtest/internal/strategy"
)

// App is the root application object. It owns the configuration and logger
// and produces the simulation result for the reporting layer.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run loads the price series, wires the engine and runs the simulation.
// The returned Stats carry the per-cache hit ratios and fault count of
// the run for the report.
func (a *App) Run(ctx context.Context) (*engine.Result, engine.Stats, error) {
	bars, err := a.loadBars()
	if err != nil {
		return nil, engine.Stats{}, fmt.Errorf("app: load bars: %w", err)
	}
	a.logger.InfoContext(ctx, "price series loaded",
		slog.Int("bars", len(bars)),
		slog.String("source", a.source()),
	)

	registry := a.buildRegistry()
	eng := engine.New(a.cfg.Engine.InitialCapital, a.cfg.Risk.ToParams(), registry, a.logger)

	res := eng.Simulate(ctx, bars, engine.Options{
		InitialF:     a.cfg.Engine.InitialF,
		RiskPerTrade: a.cfg.Engine.RiskPerTrade,
		Strategy:     a.cfg.Strategy.Type,
		DynamicRisk:  a.cfg.Engine.DynamicRisk,
		ATRPeriod:    a.cfg.Engine.ATRPeriod,
	})

	a.logger.InfoContext(ctx, "simulation finished",
		slog.String("run_id", res.RunID),
		slog.Float64("final_capital", res.FinalCapital),
		slog.Float64("total_return", res.TotalReturn),
		slog.Int("trades", len(res.Trades)),
		slog.Int("faults", res.FaultCount),
		slog.Bool("degraded", res.Degraded),
	)
	return res, eng.CacheStats(), nil
}

// loadBars reads the CSV series when a path is configured, otherwise
// generates the synthetic random walk.
func (a *App) loadBars() ([]domain.PriceBar, error) {
	d := a.cfg.Data
	if d.CSVPath != "" {
		return feed.LoadCSV(d.CSVPath)
	}
	return feed.Synthetic(d.SyntheticBars, d.StartPrice, d.Drift, d.Volatility, d.Seed), nil
}

func (a *App) source() string {
	if a.cfg.Data.CSVPath != "" {
		return a.cfg.Data.CSVPath
	}
	return "synthetic"
}

// buildRegistry registers the built-in strategies with the configured
// windows.
func (a *App) buildRegistry() *strategy.Registry {
	sc := a.cfg.Strategy.ToStrategy()
	registry := strategy.NewRegistry()
	mt := strategy.NewMultiTimeframe(sc, a.logger)
	st := strategy.NewSuperTrend(sc, a.logger)
	sma := strategy.NewSMACross()
	registry.Register(mt.Name(), mt)
	registry.Register(st.Name(), st)
	registry.Register(sma.Name(), sma)
	return registry
}
