package indicators

import "github.com/chidi150c/divergence-trader/internal/types"

// Stochastic returns %K and %D over the kPeriod/dPeriod window (defaults
// 14/3 per spec §4.3). %D is the dPeriod simple moving average of %K.
func Stochastic(candles []types.Candle, kPeriod, dPeriod int) (k, d []float64) {
	k = make([]float64, len(candles))
	if kPeriod <= 0 || len(candles) == 0 {
		for i := range k {
			k[i] = types.Missing
		}
		return k, make([]float64, len(candles))
	}
	for i := range candles {
		if i < kPeriod-1 {
			k[i] = types.Missing
			continue
		}
		hh, ll := candles[i].High, candles[i].Low
		for j := i - kPeriod + 1; j <= i; j++ {
			if candles[j].High > hh {
				hh = candles[j].High
			}
			if candles[j].Low < ll {
				ll = candles[j].Low
			}
		}
		if hh == ll {
			k[i] = 50
			continue
		}
		k[i] = (candles[i].Close - ll) / (hh - ll) * 100
	}
	d = make([]float64, len(candles))
	if dPeriod <= 0 {
		for i := range d {
			d[i] = types.Missing
		}
		return k, d
	}
	var sum float64
	validCount := 0
	for i := range candles {
		if types.IsMissing(k[i]) {
			d[i] = types.Missing
			continue
		}
		sum += k[i]
		validCount++
		if validCount > dPeriod {
			// subtract the oldest valid k within the window
			sum -= k[i-dPeriod]
		}
		if validCount < dPeriod {
			d[i] = types.Missing
			continue
		}
		d[i] = sum / float64(dPeriod)
	}
	return k, d
}
