package indicators

import "github.com/chidi150c/divergence-trader/internal/types"

// Candlestick pattern detectors return the talib convention: 100 for a
// bullish signal, -100 for a bearish signal, 0 for no signal. Detectors that
// look back N candles leave the first N-1 entries at 0 (no signal, not
// types.Missing — these are not numeric lookback windows, they simply have
// nothing to evaluate yet).

func body(c types.Candle) float64 {
	b := c.Close - c.Open
	if b < 0 {
		return -b
	}
	return b
}

func isBullish(c types.Candle) bool { return c.Close > c.Open }
func isBearish(c types.Candle) bool { return c.Close < c.Open }

func upperShadow(c types.Candle) float64 {
	top := c.Close
	if c.Open > top {
		top = c.Open
	}
	return c.High - top
}

func lowerShadow(c types.Candle) float64 {
	bottom := c.Close
	if c.Open < bottom {
		bottom = c.Open
	}
	return bottom - c.Low
}

func candleRange(c types.Candle) float64 { return c.High - c.Low }

// Hammer: small body near the top of the range, long lower shadow, little or
// no upper shadow. Bullish at the bottom of a downtrend.
func Hammer(candles []types.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		r := candleRange(c)
		if r == 0 {
			continue
		}
		b := body(c)
		if b/r < 0.3 && lowerShadow(c) > 2*b && upperShadow(c) < b {
			out[i] = 100
		}
	}
	return out
}

// InvertedHammer: small body near the bottom, long upper shadow, little or
// no lower shadow.
func InvertedHammer(candles []types.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		r := candleRange(c)
		if r == 0 {
			continue
		}
		b := body(c)
		if b/r < 0.3 && upperShadow(c) > 2*b && lowerShadow(c) < b {
			out[i] = 100
		}
	}
	return out
}

// HangingMan is geometrically identical to Hammer but bearish: it only
// signals after an uptrend (prior close higher than the candle two bars back).
func HangingMan(candles []types.Candle) []float64 {
	out := make([]float64, len(candles))
	for i := 2; i < len(candles); i++ {
		c := candles[i]
		r := candleRange(c)
		if r == 0 {
			continue
		}
		b := body(c)
		if b/r < 0.3 && lowerShadow(c) > 2*b && upperShadow(c) < b &&
			candles[i-1].Close > candles[i-2].Close {
			out[i] = -100
		}
	}
	return out
}

// ShootingStar is geometrically identical to InvertedHammer but bearish: it
// only signals after an uptrend.
func ShootingStar(candles []types.Candle) []float64 {
	out := make([]float64, len(candles))
	for i := 2; i < len(candles); i++ {
		c := candles[i]
		r := candleRange(c)
		if r == 0 {
			continue
		}
		b := body(c)
		if b/r < 0.3 && upperShadow(c) > 2*b && lowerShadow(c) < b &&
			candles[i-1].Close > candles[i-2].Close {
			out[i] = -100
		}
	}
	return out
}

// Engulfing detects a two-candle reversal where the later body fully
// contains the prior body.
func Engulfing(candles []types.Candle) []float64 {
	out := make([]float64, len(candles))
	for i := 1; i < len(candles); i++ {
		prev, cur := candles[i-1], candles[i]
		switch {
		case isBearish(prev) && isBullish(cur) && cur.Open <= prev.Close && cur.Close >= prev.Open && body(cur) > body(prev):
			out[i] = 100
		case isBullish(prev) && isBearish(cur) && cur.Open >= prev.Close && cur.Close <= prev.Open && body(cur) > body(prev):
			out[i] = -100
		}
	}
	return out
}

// Piercing: bearish candle followed by a bullish candle that opens below the
// prior low and closes above the prior body's midpoint.
func Piercing(candles []types.Candle) []float64 {
	out := make([]float64, len(candles))
	for i := 1; i < len(candles); i++ {
		prev, cur := candles[i-1], candles[i]
		if !isBearish(prev) || !isBullish(cur) {
			continue
		}
		mid := (prev.Open + prev.Close) / 2
		if cur.Open < prev.Low && cur.Close > mid && cur.Close < prev.Open {
			out[i] = 100
		}
	}
	return out
}

// DarkCloudCover: bullish candle followed by a bearish candle that opens
// above the prior high and closes below the prior body's midpoint.
func DarkCloudCover(candles []types.Candle) []float64 {
	out := make([]float64, len(candles))
	for i := 1; i < len(candles); i++ {
		prev, cur := candles[i-1], candles[i]
		if !isBullish(prev) || !isBearish(cur) {
			continue
		}
		mid := (prev.Open + prev.Close) / 2
		if cur.Open > prev.High && cur.Close < mid && cur.Close > prev.Open {
			out[i] = -100
		}
	}
	return out
}

// MorningStar: three-candle bullish reversal — long bearish, small-bodied
// middle gapping down, long bullish closing well into the first candle's body.
func MorningStar(candles []types.Candle) []float64 {
	out := make([]float64, len(candles))
	for i := 2; i < len(candles); i++ {
		first, mid, last := candles[i-2], candles[i-1], candles[i]
		if !isBearish(first) || !isBullish(last) {
			continue
		}
		if body(mid) > 0.3*body(first) {
			continue
		}
		if mid.Open < first.Close && mid.Close < first.Close && last.Close > (first.Open+first.Close)/2 {
			out[i] = 100
		}
	}
	return out
}

// EveningStar: three-candle bearish reversal, the mirror of MorningStar.
func EveningStar(candles []types.Candle) []float64 {
	out := make([]float64, len(candles))
	for i := 2; i < len(candles); i++ {
		first, mid, last := candles[i-2], candles[i-1], candles[i]
		if !isBullish(first) || !isBearish(last) {
			continue
		}
		if body(mid) > 0.3*body(first) {
			continue
		}
		if mid.Open > first.Close && mid.Close > first.Close && last.Close < (first.Open+first.Close)/2 {
			out[i] = -100
		}
	}
	return out
}

// ComputePatterns runs all nine named pattern detectors and returns the same
// key set original_source/bot/layer1_data/indicators.py produces.
func ComputePatterns(candles []types.Candle) map[string][]float64 {
	return map[string][]float64{
		"hammer":          Hammer(candles),
		"engulfing":       Engulfing(candles),
		"morning_star":    MorningStar(candles),
		"piercing":        Piercing(candles),
		"inverted_hammer": InvertedHammer(candles),
		"shooting_star":   ShootingStar(candles),
		"evening_star":    EveningStar(candles),
		"dark_cloud":      DarkCloudCover(candles),
		"hanging_man":     HangingMan(candles),
	}
}
