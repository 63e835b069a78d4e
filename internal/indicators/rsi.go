package indicators

import "github.com/chidi150c/divergence-trader/internal/types"

// RSI returns the n-period Relative Strength Index using Wilder's smoothing,
// ported from indicators.go and extended to emit an explicit types.Missing
// sentinel before the first full window instead of a bare zero.
func RSI(candles []types.Candle, n int) []float64 {
	out := make([]float64, len(candles))
	if n <= 0 || len(candles) == 0 {
		return out
	}
	out[0] = types.Missing
	var gain, loss float64
	for i := 1; i < len(candles); i++ {
		d := candles[i].Close - candles[i-1].Close
		switch {
		case i < n:
			if d > 0 {
				gain += d
			} else {
				loss -= d
			}
			out[i] = types.Missing
		case i == n:
			if d > 0 {
				gain += d
			} else {
				loss -= d
			}
			avgGain := gain / float64(n)
			avgLoss := loss / float64(n)
			gain, loss = avgGain, avgLoss
			out[i] = rsiFromAvg(gain, loss)
		default:
			if d > 0 {
				gain = (gain*float64(n-1) + d) / float64(n)
				loss = (loss * float64(n-1)) / float64(n)
			} else {
				gain = (gain * float64(n-1)) / float64(n)
				loss = (loss*float64(n-1) - d) / float64(n)
			}
			out[i] = rsiFromAvg(gain, loss)
		}
	}
	return out
}

func rsiFromAvg(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}
