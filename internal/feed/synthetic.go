package feed

import (
	"math"
	"math/rand"
	"time"

	"github.com/quantfold/backtest/internal/domain"
)

// Synthetic generates a random-walk daily OHLCV series for smoke runs. The
// walk applies drift and volatility as daily percentage moves starting from
// start; highs and lows wrap the open/close with a small random range.
func Synthetic(n int, start, drift, vol float64, seed int64) []domain.PriceBar {
	if n <= 0 {
		return nil
	}
	rng := rand.New(rand.NewSource(seed))
	bars := make([]domain.PriceBar, n)
	t0 := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

	price := start
	for i := range bars {
		open := price
		move := drift + vol*rng.NormFloat64()
		price = open * (1 + move)
		if price < 0.01 {
			price = 0.01
		}
		high := math.Max(open, price) * (1 + 0.002*rng.Float64())
		low := math.Min(open, price) * (1 - 0.002*rng.Float64())
		bars[i] = domain.PriceBar{
			Timestamp: t0.AddDate(0, 0, i),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     price,
			Volume:    1000 + 100*rng.Float64(),
		}
	}
	return bars
}
