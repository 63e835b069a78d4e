package indicators

import (
	"math"

	"github.com/chidi150c/divergence-trader/internal/types"
)

// TrueRange returns the per-candle true range series.
func TrueRange(candles []types.Candle) []float64 {
	out := make([]float64, len(candles))
	for i := range candles {
		if i == 0 {
			out[i] = candles[i].High - candles[i].Low
			continue
		}
		hl := candles[i].High - candles[i].Low
		hc := math.Abs(candles[i].High - candles[i-1].Close)
		lc := math.Abs(candles[i].Low - candles[i-1].Close)
		out[i] = math.Max(hl, math.Max(hc, lc))
	}
	return out
}

// ATR returns the n-period Average True Range using Wilder's smoothing
// (default 14 per spec §4.3).
func ATR(candles []types.Candle, n int) []float64 {
	out := make([]float64, len(candles))
	if n <= 0 || len(candles) == 0 {
		for i := range out {
			out[i] = types.Missing
		}
		return out
	}
	tr := TrueRange(candles)
	var sum float64
	for i := range candles {
		switch {
		case i < n-1:
			sum += tr[i]
			out[i] = types.Missing
		case i == n-1:
			sum += tr[i]
			out[i] = sum / float64(n)
		default:
			out[i] = (out[i-1]*float64(n-1) + tr[i]) / float64(n)
		}
	}
	return out
}
