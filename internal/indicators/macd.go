package indicators

import "github.com/chidi150c/divergence-trader/internal/types"

// MACD returns the MACD line, signal line and histogram using the
// fast/slow/signal periods from spec §4.3 (defaults 12/26/9).
func MACD(candles []types.Candle, fast, slow, signal int) (line, sig, hist []float64) {
	emaFast := EMA(candles, fast)
	emaSlow := EMA(candles, slow)
	line = make([]float64, len(candles))
	for i := range candles {
		if types.IsMissing(emaFast[i]) || types.IsMissing(emaSlow[i]) {
			line[i] = types.Missing
		} else {
			line[i] = emaFast[i] - emaSlow[i]
		}
	}
	sig = emaOfSeries(line, signal)
	hist = make([]float64, len(candles))
	for i := range candles {
		if types.IsMissing(line[i]) || types.IsMissing(sig[i]) {
			hist[i] = types.Missing
		} else {
			hist[i] = line[i] - sig[i]
		}
	}
	return line, sig, hist
}

// emaOfSeries computes an n-period EMA over an arbitrary float series that
// may carry leading types.Missing entries (used to derive the MACD signal
// line from the MACD line itself).
func emaOfSeries(series []float64, n int) []float64 {
	out := make([]float64, len(series))
	if n <= 0 || len(series) == 0 {
		for i := range out {
			out[i] = types.Missing
		}
		return out
	}
	firstValid := -1
	for i, v := range series {
		if !types.IsMissing(v) {
			firstValid = i
			break
		}
	}
	if firstValid == -1 {
		for i := range out {
			out[i] = types.Missing
		}
		return out
	}
	alpha := 2.0 / float64(n+1)
	var sum float64
	count := 0
	seeded := false
	for i := range series {
		if i < firstValid {
			out[i] = types.Missing
			continue
		}
		if !seeded {
			sum += series[i]
			count++
			if count < n {
				out[i] = types.Missing
				continue
			}
			out[i] = sum / float64(n)
			seeded = true
			continue
		}
		out[i] = (series[i]-out[i-1])*alpha + out[i-1]
	}
	return out
}
