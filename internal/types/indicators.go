package types

import "math"

// Missing is the sentinel used for warmup entries in indicator arrays. Every
// indicators package function assigns this explicitly during warmup rather
// than letting a library NaN leak through unconverted.
const Missing = math.NaN()

// IsMissing reports whether v is the warmup sentinel.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// LastValid returns the last non-missing value in s and true, or (0, false)
// if every entry is missing.
func LastValid(s []float64) (float64, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if !IsMissing(s[i]) {
			return s[i], true
		}
	}
	return 0, false
}

// IndicatorSet holds parallel equal-length sequences for one
// (symbol, timeframe, last-candle-timestamp) computation.
type IndicatorSet struct {
	Symbol         string
	Timeframe      Timeframe
	LastCandleTime int64 // unix seconds of candles[len-1].Time

	// Raw series, never missing.
	Closes  []float64
	Highs   []float64
	Lows    []float64
	Volumes []float64

	RSI            []float64
	MACDLine       []float64
	MACDSignal     []float64
	MACDHistogram  []float64
	OBV            []float64
	MFI            []float64
	StochK         []float64
	StochD         []float64
	CCI            []float64
	WilliamsR      []float64
	ATR            []float64
	ADX            []float64
	EMAShort       []float64
	EMAMedium      []float64
	EMALong        []float64
	VolumeSMA      []float64

	// CandlePatterns maps a pattern name to a signed strength sequence in
	// {+100, 0, -100} aligned to the candle index.
	CandlePatterns map[string][]float64
}

// Len returns the common series length (candle count).
func (s *IndicatorSet) Len() int { return len(s.Closes) }
