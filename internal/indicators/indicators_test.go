package indicators

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chidi150c/divergence-trader/internal/types"
)

func mkCandles(closes []float64) []types.Candle {
	out := make([]types.Candle, len(closes))
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		out[i] = types.Candle{
			Time:   base.Add(time.Duration(i) * time.Hour),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 100 + float64(i),
		}
	}
	return out
}

func TestSMAWarmupIsMissing(t *testing.T) {
	c := mkCandles([]float64{1, 2, 3, 4, 5})
	out := SMA(c, 3)
	assert.True(t, types.IsMissing(out[0]))
	assert.True(t, types.IsMissing(out[1]))
	assert.False(t, types.IsMissing(out[2]))
	assert.InDelta(t, 2.0, out[2], 1e-9)
	assert.InDelta(t, 4.0, out[4], 1e-9)
}

func TestRSIBounds(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	c := mkCandles(closes)
	out := RSI(c, 14)
	last, ok := types.LastValid(out)
	require.True(t, ok)
	assert.GreaterOrEqual(t, last, 0.0)
	assert.LessOrEqual(t, last, 100.0)
	// strictly rising closes drive RSI to 100
	assert.InDelta(t, 100.0, last, 1e-6)
}

func TestEMASeedsOnSMA(t *testing.T) {
	c := mkCandles([]float64{1, 2, 3, 4, 5, 6})
	sma := SMA(c, 3)
	ema := EMA(c, 3)
	assert.True(t, types.IsMissing(ema[0]))
	assert.InDelta(t, sma[2], ema[2], 1e-9)
}

func TestMACDMissingUntilBothEMAsValid(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i%5)
	}
	c := mkCandles(closes)
	line, sig, hist := MACD(c, 12, 26, 9)
	assert.True(t, types.IsMissing(line[0]))
	_, ok := types.LastValid(sig)
	require.True(t, ok)
	last, ok := types.LastValid(hist)
	require.True(t, ok)
	assert.False(t, types.IsMissing(last))
}

func TestOBVAccumulatesSign(t *testing.T) {
	c := mkCandles([]float64{10, 11, 10, 12})
	out := OBV(c)
	require.Len(t, out, 4)
	assert.InDelta(t, out[0]+c[1].Volume, out[1], 1e-9) // up move adds volume
	assert.InDelta(t, out[1]-c[2].Volume, out[2], 1e-9) // down move subtracts
}

func TestATRNonNegativeAfterWarmup(t *testing.T) {
	closes := []float64{10, 10.5, 9.8, 10.2, 10.6, 10.1, 9.9, 10.3, 10.7, 10.4, 10.2, 10.8, 10.6, 10.9, 11.0}
	c := mkCandles(closes)
	out := ATR(c, 14)
	last, ok := types.LastValid(out)
	require.True(t, ok)
	assert.GreaterOrEqual(t, last, 0.0)
}

func TestWilliamsRRange(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i%7)
	}
	c := mkCandles(closes)
	out := WilliamsR(c, 14)
	for _, v := range out {
		if types.IsMissing(v) {
			continue
		}
		assert.LessOrEqual(t, v, 0.0)
		assert.GreaterOrEqual(t, v, -100.0)
	}
}

func TestComputePopulatesAllSeriesAtEqualLength(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i%10)
	}
	c := mkCandles(closes)
	set := Compute(c, "BTC-USD", types.TF1h, DefaultPeriods())
	n := set.Len()
	require.Equal(t, 60, n)
	assert.Len(t, set.RSI, n)
	assert.Len(t, set.MACDLine, n)
	assert.Len(t, set.ATR, n)
	assert.Len(t, set.ADX, n)
	assert.Contains(t, set.CandlePatterns, "hammer")
	assert.Contains(t, set.CandlePatterns, "engulfing")
	assert.Equal(t, c[len(c)-1].Time.Unix(), set.LastCandleTime)
}

func TestEngulfingDetectsBullish(t *testing.T) {
	c := []types.Candle{
		{Open: 10, High: 10.2, Low: 9.0, Close: 9.2},
		{Open: 9.0, High: 10.5, Low: 8.8, Close: 10.4},
	}
	out := Engulfing(c)
	assert.Equal(t, 100.0, out[1])
}
