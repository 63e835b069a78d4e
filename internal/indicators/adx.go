package indicators

import "github.com/chidi150c/divergence-trader/internal/types"

// ADX returns the n-period Average Directional Index (default 14 per spec
// §4.3), Wilder-smoothed over +DM/-DM and true range.
func ADX(candles []types.Candle, n int) []float64 {
	out := make([]float64, len(candles))
	if n <= 0 || len(candles) == 0 {
		for i := range out {
			out[i] = types.Missing
		}
		return out
	}
	tr := TrueRange(candles)
	plusDM := make([]float64, len(candles))
	minusDM := make([]float64, len(candles))
	for i := 1; i < len(candles); i++ {
		upMove := candles[i].High - candles[i-1].High
		downMove := candles[i-1].Low - candles[i].Low
		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}
	}

	smoothTR := wilderSmooth(tr, n)
	smoothPlusDM := wilderSmooth(plusDM, n)
	smoothMinusDM := wilderSmooth(minusDM, n)

	dx := make([]float64, len(candles))
	for i := range candles {
		if types.IsMissing(smoothTR[i]) || smoothTR[i] == 0 {
			dx[i] = types.Missing
			continue
		}
		plusDI := 100 * smoothPlusDM[i] / smoothTR[i]
		minusDI := 100 * smoothMinusDM[i] / smoothTR[i]
		denom := plusDI + minusDI
		if denom == 0 {
			dx[i] = 0
			continue
		}
		dx[i] = 100 * absF(plusDI-minusDI) / denom
	}
	return wilderSmooth(dx, n)
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// wilderSmooth applies Wilder's smoothing over a raw series, seeding on the
// n-period sum and carrying types.Missing entries through the warmup.
func wilderSmooth(series []float64, n int) []float64 {
	out := make([]float64, len(series))
	var sum float64
	for i := range series {
		switch {
		case types.IsMissing(series[i]):
			out[i] = types.Missing
		case i < n-1:
			sum += series[i]
			out[i] = types.Missing
		case i == n-1:
			sum += series[i]
			out[i] = sum / float64(n)
		default:
			if types.IsMissing(out[i-1]) {
				out[i] = types.Missing
				continue
			}
			out[i] = (out[i-1]*float64(n-1) + series[i]) / float64(n)
		}
	}
	return out
}
