package indicators

import "github.com/chidi150c/divergence-trader/internal/types"

// WilliamsR returns the n-period Williams %R, range [-100, 0].
func WilliamsR(candles []types.Candle, n int) []float64 {
	out := make([]float64, len(candles))
	if n <= 0 || len(candles) == 0 {
		for i := range out {
			out[i] = types.Missing
		}
		return out
	}
	for i := range candles {
		if i < n-1 {
			out[i] = types.Missing
			continue
		}
		hh, ll := candles[i].High, candles[i].Low
		for j := i - n + 1; j <= i; j++ {
			if candles[j].High > hh {
				hh = candles[j].High
			}
			if candles[j].Low < ll {
				ll = candles[j].Low
			}
		}
		if hh == ll {
			out[i] = -50
			continue
		}
		out[i] = (hh - candles[i].Close) / (hh - ll) * -100
	}
	return out
}
