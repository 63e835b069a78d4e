package indicators

import "github.com/chidi150c/divergence-trader/internal/types"

// EMA returns the n-period exponential moving average of close. The series
// seeds on the n-period SMA, matching talib's EMA warmup convention used by
// original_source/bot/layer1_data/indicators.py.
func EMA(candles []types.Candle, n int) []float64 {
	out := make([]float64, len(candles))
	if n <= 0 || len(candles) == 0 {
		for i := range out {
			out[i] = types.Missing
		}
		return out
	}
	sma := SMA(candles, n)
	alpha := 2.0 / float64(n+1)
	for i := range candles {
		switch {
		case i < n-1:
			out[i] = types.Missing
		case i == n-1:
			out[i] = sma[i]
		default:
			out[i] = (candles[i].Close-out[i-1])*alpha + out[i-1]
		}
	}
	return out
}
