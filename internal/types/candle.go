package types

import "time"

// Candle is the normalized OHLCV row used everywhere downstream. Timestamps
// are unique per (symbol, timeframe) and aligned to the timeframe boundary.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Key returns the dedup key used by the candle-status and signal caches.
func Key(symbol string, tf Timeframe) string {
	return symbol + "/" + string(tf)
}
