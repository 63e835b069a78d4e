package indicators

import "github.com/chidi150c/divergence-trader/internal/types"

// Compute runs the full indicator set over candles for (symbol, timeframe),
// the Go equivalent of original_source's compute_indicators: every series is
// server-computed here so the detector and validator only ever read numbers.
func Compute(candles []types.Candle, symbol string, tf types.Timeframe, p Periods) *types.IndicatorSet {
	set := &types.IndicatorSet{
		Symbol:    symbol,
		Timeframe: tf,
	}
	if len(candles) == 0 {
		return set
	}
	set.LastCandleTime = candles[len(candles)-1].Time.Unix()

	set.Closes = make([]float64, len(candles))
	set.Highs = make([]float64, len(candles))
	set.Lows = make([]float64, len(candles))
	set.Volumes = make([]float64, len(candles))
	for i, c := range candles {
		set.Closes[i] = c.Close
		set.Highs[i] = c.High
		set.Lows[i] = c.Low
		set.Volumes[i] = c.Volume
	}

	set.RSI = RSI(candles, p.RSI)
	set.MACDLine, set.MACDSignal, set.MACDHistogram = MACD(candles, p.MACDFast, p.MACDSlow, p.MACDSignal)
	set.OBV = OBV(candles)
	set.MFI = MFI(candles, p.MFI)
	set.StochK, set.StochD = Stochastic(candles, p.StochK, p.StochD)
	set.CCI = CCI(candles, p.CCI)
	set.WilliamsR = WilliamsR(candles, p.WilliamsR)
	set.ATR = ATR(candles, p.ATR)
	set.ADX = ADX(candles, p.ADX)
	set.EMAShort = EMA(candles, p.EMAShort)
	set.EMAMedium = EMA(candles, p.EMAMedium)
	set.EMALong = EMA(candles, p.EMALong)
	set.VolumeSMA = VolumeSMA(candles, p.VolumeSMA)
	set.CandlePatterns = ComputePatterns(candles)

	return set
}
