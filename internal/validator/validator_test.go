package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chidi150c/divergence-trader/internal/types"
)

func baseSettings() Settings {
	return Settings{
		MinConfidence:             0.55,
		MinRiskReward:             1.5,
		MinConfirmingIndicators:   2,
		MinSwingBars4h:            3,
		MinSwingBars1h:            5,
		MinDivergenceMagnitudeRSI: 3.0,
		VolumeLowThreshold:        0.5,
		CandleGateLookback:        5,
	}
}

func floatPtr(v float64) *float64 { return &v }
func dirPtr(d types.Direction) *types.Direction { return &d }

func validSignal() (types.Signal, *types.IndicatorSet) {
	dir := types.Long
	entry, stop, tp1 := 100.0, 95.0, 110.0
	n := 30
	volumes := make([]float64, n)
	volSMA := make([]float64, n)
	rsi := make([]float64, n)
	atr := make([]float64, n)
	adx := make([]float64, n)
	emaLong := make([]float64, n)
	patterns := map[string][]float64{
		"hammer": make([]float64, n), "engulfing": make([]float64, n),
		"morning_star": make([]float64, n), "piercing": make([]float64, n),
		"inverted_hammer": make([]float64, n), "shooting_star": make([]float64, n),
		"evening_star": make([]float64, n), "dark_cloud": make([]float64, n),
		"hanging_man": make([]float64, n),
	}
	for i := 0; i < n; i++ {
		volumes[i] = 1000
		volSMA[i] = 900
		rsi[i] = 45
		atr[i] = 2
		adx[i] = 30
		emaLong[i] = 100 + float64(i)
	}
	patterns["hammer"][n-1] = 100

	set := &types.IndicatorSet{
		Timeframe:      types.TF1h,
		Volumes:        volumes,
		VolumeSMA:      volSMA,
		RSI:            rsi,
		ATR:            atr,
		ADX:            adx,
		EMALong:        emaLong,
		CandlePatterns: patterns,
	}
	sig := types.Signal{
		Direction:            dirPtr(dir),
		Confidence:           0.7,
		EntryPrice:           floatPtr(entry),
		StopLoss:             floatPtr(stop),
		TakeProfit1:          floatPtr(tp1),
		Indicator:            "MACD_HISTOGRAM",
		ConfirmingIndicators: []string{"RSI", "MACD_HISTOGRAM"},
		SwingLengthBars:      8,
		DivergenceMagnitude:  10,
		Timeframe:            types.TF1h,
	}
	return sig, set
}

func TestValidatePassesAllRules(t *testing.T) {
	sig, set := validSignal()
	res := Validate(sig, set, baseSettings(), types.Crypto)
	assert.True(t, res.Passed)
}

func TestValidateRejectsMissingDirection(t *testing.T) {
	sig, set := validSignal()
	sig.Direction = nil
	res := Validate(sig, set, baseSettings(), types.Crypto)
	require.False(t, res.Passed)
	assert.Equal(t, "direction_present", res.Rule)
}

func TestValidateRejectsLowConfidence(t *testing.T) {
	sig, set := validSignal()
	sig.Confidence = 0.1
	res := Validate(sig, set, baseSettings(), types.Crypto)
	require.False(t, res.Passed)
	assert.Equal(t, "min_confidence", res.Rule)
}

func TestValidateRejectsBadStopSide(t *testing.T) {
	sig, set := validSignal()
	sig.StopLoss = floatPtr(105) // above entry for a long
	res := Validate(sig, set, baseSettings(), types.Crypto)
	require.False(t, res.Passed)
	assert.Equal(t, "stop_side", res.Rule)
}

func TestValidateRejectsLowRiskReward(t *testing.T) {
	sig, set := validSignal()
	sig.TakeProfit1 = floatPtr(101) // reward 1 vs risk 5
	res := Validate(sig, set, baseSettings(), types.Crypto)
	require.False(t, res.Passed)
	assert.Equal(t, "risk_reward", res.Rule)
}

func TestValidateRejectsRSIContradiction(t *testing.T) {
	sig, set := validSignal()
	for i := range set.RSI {
		set.RSI[i] = 85
	}
	res := Validate(sig, set, baseSettings(), types.Crypto)
	require.False(t, res.Passed)
	assert.Equal(t, "rsi_contradiction", res.Rule)
}

func TestValidateRejectsTightATRStop(t *testing.T) {
	sig, set := validSignal()
	for i := range set.ATR {
		set.ATR[i] = 100 // stop distance 5 / atr 100 == 0.05x, below 0.5x
	}
	res := Validate(sig, set, baseSettings(), types.Crypto)
	require.False(t, res.Passed)
	assert.Equal(t, "atr_stop_band", res.Rule)
}

func TestValidateRejectsChoppyCryptoADX(t *testing.T) {
	sig, set := validSignal()
	for i := range set.ADX {
		set.ADX[i] = 10
	}
	res := Validate(sig, set, baseSettings(), types.Crypto)
	require.False(t, res.Passed)
	assert.Equal(t, "crypto_adx", res.Rule)
}

func TestValidateAllowsChoppyADXForNonCrypto(t *testing.T) {
	sig, set := validSignal()
	for i := range set.ADX {
		set.ADX[i] = 10
	}
	// flatten EMA slope too: crypto_adx lets the Forex signal through, so the
	// ranging_market rule is the one that rejects it
	for i := range set.EMALong {
		set.EMALong[i] = 100
	}
	res := Validate(sig, set, baseSettings(), types.Forex)
	require.False(t, res.Passed)
	assert.Equal(t, "ranging_market", res.Rule)
}

func TestValidateRejectsOscillatorStackBelowMinimum(t *testing.T) {
	sig, set := validSignal()
	sig.ConfirmingIndicators = []string{"RSI"}
	res := Validate(sig, set, baseSettings(), types.Crypto)
	require.False(t, res.Passed)
	assert.Equal(t, "oscillator_stack", res.Rule)
}

func TestValidateRejectsShortSwingLength(t *testing.T) {
	sig, set := validSignal()
	sig.SwingLengthBars = 1
	res := Validate(sig, set, baseSettings(), types.Crypto)
	require.False(t, res.Passed)
	assert.Equal(t, "swing_length", res.Rule)
}

func TestValidateRejectsLowRSIMagnitude(t *testing.T) {
	sig, set := validSignal()
	sig.Indicator = "RSI"
	sig.DivergenceMagnitude = 1
	res := Validate(sig, set, baseSettings(), types.Crypto)
	require.False(t, res.Passed)
	assert.Equal(t, "magnitude_rsi", res.Rule)
}

func TestValidateRejectsZeroVolume(t *testing.T) {
	sig, set := validSignal()
	set.Volumes[len(set.Volumes)-1] = 0
	res := Validate(sig, set, baseSettings(), types.Crypto)
	require.False(t, res.Passed)
	assert.Equal(t, "zero_volume", res.Rule)
}

func TestValidateRejectsLowVolume(t *testing.T) {
	sig, set := validSignal()
	set.Volumes[len(set.Volumes)-1] = 100 // below 0.5 * 900
	res := Validate(sig, set, baseSettings(), types.Crypto)
	require.False(t, res.Passed)
	assert.Equal(t, "low_volume", res.Rule)
}

func TestValidateRejectsMissingCandleGatePattern(t *testing.T) {
	sig, set := validSignal()
	for k := range set.CandlePatterns {
		set.CandlePatterns[k] = make([]float64, len(set.Volumes))
	}
	res := Validate(sig, set, baseSettings(), types.Crypto)
	require.False(t, res.Passed)
	assert.Equal(t, "candle_gate", res.Rule)
}

func TestValidateAllowsBearishEngulfingForShort(t *testing.T) {
	sig, set := validSignal()
	short := types.Short
	sig.Direction = &short
	sig.EntryPrice = floatPtr(100)
	sig.StopLoss = floatPtr(105)
	sig.TakeProfit1 = floatPtr(90)
	for k := range set.CandlePatterns {
		set.CandlePatterns[k] = make([]float64, len(set.Volumes))
	}
	set.CandlePatterns["engulfing"][len(set.Volumes)-1] = -100
	res := Validate(sig, set, baseSettings(), types.Crypto)
	assert.True(t, res.Passed)
}
