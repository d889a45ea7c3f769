// Package metrics registers the Prometheus instrumentation of the
// backtester:
//   - backtest_cache_events_total{cache,event} – memo hits/misses per cache
//   - backtest_trades_total{exit_reason,side}  – closed trades by exit path
//   - backtest_faults_total{kind}              – recoverable faults by kind
//   - backtest_final_equity                    – capital after the last run
//
// Collectors are package-level and registered in init(); a host process can
// serve them through its own registry handler.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtest_cache_events_total",
			Help: "Memo table hits and misses per cache",
		},
		[]string{"cache", "event"},
	)

	Trades = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtest_trades_total",
			Help: "Closed trades by exit reason and side",
		},
		[]string{"exit_reason", "side"},
	)

	Faults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtest_faults_total",
			Help: "Recoverable faults by kind",
		},
		[]string{"kind"},
	)

	FinalEquity = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "backtest_final_equity",
			Help: "Capital at the end of the most recent run",
		},
	)
)

func init() {
	prometheus.MustRegister(CacheEvents, Trades, Faults, FinalEquity)
}

// RecordCache adds a cache's hit/miss deltas to the counters.
func RecordCache(cache string, hits, misses uint64) {
	CacheEvents.WithLabelValues(cache, "hit").Add(float64(hits))
	CacheEvents.WithLabelValues(cache, "miss").Add(float64(misses))
}
