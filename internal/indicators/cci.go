package indicators

import (
	"math"

	"github.com/chidi150c/divergence-trader/internal/types"
)

// CCI returns the n-period Commodity Channel Index (default 20 per spec
// §4.3) over the typical price, using the standard 0.015 scaling constant.
func CCI(candles []types.Candle, n int) []float64 {
	out := make([]float64, len(candles))
	if n <= 0 || len(candles) == 0 {
		for i := range out {
			out[i] = types.Missing
		}
		return out
	}
	typical := make([]float64, len(candles))
	for i, c := range candles {
		typical[i] = (c.High + c.Low + c.Close) / 3
	}
	for i := range candles {
		if i < n-1 {
			out[i] = types.Missing
			continue
		}
		var sum float64
		for j := i - n + 1; j <= i; j++ {
			sum += typical[j]
		}
		mean := sum / float64(n)
		var meanDev float64
		for j := i - n + 1; j <= i; j++ {
			meanDev += math.Abs(typical[j] - mean)
		}
		meanDev /= float64(n)
		if meanDev == 0 {
			out[i] = 0
			continue
		}
		out[i] = (typical[i] - mean) / (0.015 * meanDev)
	}
	return out
}
