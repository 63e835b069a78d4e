// Package indicators computes the fixed set of technical indicators (C4)
// from an OHLCV candle sequence. Pure functions; no I/O.
//
// Grounded on indicators.go's SMA/RSI/ZScore idiom (Wilder smoothing for RSI,
// accumulator-based rolling windows) generalized to the full indicator set
// original_source/bot/layer1_data/indicators.py computes via talib.
package indicators

// Periods holds the configurable lookback windows from spec §4.3. Zero
// values are never valid; use DefaultPeriods() for the documented defaults.
type Periods struct {
	RSI          int
	MACDFast     int
	MACDSlow     int
	MACDSignal   int
	StochK       int
	StochD       int
	MFI          int
	ATR          int
	ADX          int
	CCI          int
	WilliamsR    int
	EMAShort     int
	EMAMedium    int
	EMALong      int
	VolumeSMA    int
}

// DefaultPeriods returns the spec §4.3 documented defaults.
func DefaultPeriods() Periods {
	return Periods{
		RSI:        14,
		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,
		StochK:     14,
		StochD:     3,
		MFI:        14,
		ATR:        14,
		ADX:        14,
		CCI:        20,
		WilliamsR:  14,
		EMAShort:   20,
		EMAMedium:  50,
		EMALong:    200,
		VolumeSMA:  20,
	}
}
