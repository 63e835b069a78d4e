package indicators

import "github.com/chidi150c/divergence-trader/internal/types"

// OBV returns the On-Balance Volume series: a running total of volume signed
// by the direction of the close-to-close move.
func OBV(candles []types.Candle) []float64 {
	out := make([]float64, len(candles))
	if len(candles) == 0 {
		return out
	}
	out[0] = candles[0].Volume
	for i := 1; i < len(candles); i++ {
		switch {
		case candles[i].Close > candles[i-1].Close:
			out[i] = out[i-1] + candles[i].Volume
		case candles[i].Close < candles[i-1].Close:
			out[i] = out[i-1] - candles[i].Volume
		default:
			out[i] = out[i-1]
		}
	}
	return out
}
