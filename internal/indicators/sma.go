package indicators

import (
	"math"

	"github.com/chidi150c/divergence-trader/internal/types"
)

// SMA returns the n-period simple moving average of close, aligned to
// candles. Indices before the first full window carry types.Missing.
func SMA(candles []types.Candle, n int) []float64 {
	out := make([]float64, len(candles))
	if n <= 0 || len(candles) == 0 {
		for i := range out {
			out[i] = types.Missing
		}
		return out
	}
	var sum float64
	for i := range candles {
		sum += candles[i].Close
		if i >= n {
			sum -= candles[i-n].Close
		}
		if i >= n-1 {
			out[i] = sum / float64(n)
		} else {
			out[i] = types.Missing
		}
	}
	return out
}

// VolumeSMA returns the n-period simple moving average of volume.
func VolumeSMA(candles []types.Candle, n int) []float64 {
	out := make([]float64, len(candles))
	if n <= 0 || len(candles) == 0 {
		for i := range out {
			out[i] = types.Missing
		}
		return out
	}
	var sum float64
	for i := range candles {
		sum += candles[i].Volume
		if i >= n {
			sum -= candles[i-n].Volume
		}
		if i >= n-1 {
			out[i] = sum / float64(n)
		} else {
			out[i] = types.Missing
		}
	}
	return out
}

// ZScore returns the rolling z-score of close over window n.
func ZScore(candles []types.Candle, n int) []float64 {
	out := make([]float64, len(candles))
	if n <= 1 || len(candles) == 0 {
		for i := range out {
			out[i] = types.Missing
		}
		return out
	}
	var sum, sumSq float64
	for i := range candles {
		x := candles[i].Close
		sum += x
		sumSq += x * x
		if i >= n {
			y := candles[i-n].Close
			sum -= y
			sumSq -= y * y
		}
		if i >= n-1 {
			mean := sum / float64(n)
			variance := (sumSq / float64(n)) - (mean * mean)
			std := math.Sqrt(math.Max(variance, 1e-12))
			out[i] = (x - mean) / std
		} else {
			out[i] = types.Missing
		}
	}
	return out
}
