package indicators

import "github.com/chidi150c/divergence-trader/internal/types"

// MFI returns the n-period Money Flow Index, the volume-weighted RSI
// analogue, over the typical price (high+low+close)/3.
func MFI(candles []types.Candle, n int) []float64 {
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
		if i < n {
			out[i] = types.Missing
			continue
		}
		var posFlow, negFlow float64
		for j := i - n + 1; j <= i; j++ {
			if j == 0 {
				continue
			}
			rawFlow := typical[j] * candles[j].Volume
			if typical[j] > typical[j-1] {
				posFlow += rawFlow
			} else if typical[j] < typical[j-1] {
				negFlow += rawFlow
			}
		}
		if negFlow == 0 {
			out[i] = 100
			continue
		}
		ratio := posFlow / negFlow
		out[i] = 100 - (100 / (1 + ratio))
	}
	return out
}
