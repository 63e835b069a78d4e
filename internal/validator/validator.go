// Package validator implements the Validator (C6): a pure, synchronous
// function applying a fixed, re-orderable set of independent predicate rules
// to a Signal. Each rule returns its own rejection reason; the first failure
// wins. Grounded on original_source/bot/layer2_intelligence/validator.py's
// rules 0-8 (ported here as rules 1-9), extended with rules 10-15 authored
// fresh from spec §4.5's table in the same independent-predicate idiom.
package validator

import (
	"fmt"
	"math"

	"github.com/chidi150c/divergence-trader/internal/types"
)

// Settings holds every threshold the fifteen rules read. Decoupled from the
// config package the way internal/indicators stays decoupled — the caller
// (the analysis cycle) is responsible for translating its config.Config into
// this shape.
type Settings struct {
	MinConfidence             float64
	MinRiskReward             float64
	MinConfirmingIndicators   int
	MinSwingBars4h            int
	MinSwingBars1h            int
	MinDivergenceMagnitudeRSI float64
	VolumeLowThreshold        float64
	CandleGateLookback        int
}

// Rule is one named, independent predicate. It returns (failed, reason).
type Rule struct {
	Name  string
	Check func(signal types.Signal, set *types.IndicatorSet, s Settings, assetClass types.AssetClass) (bool, string)
}

// Rules returns the fifteen validation rules in their canonical order. The
// set is re-orderable without changing which signals get rejected — each
// rule depends only on the signal/indicator/settings inputs, never on
// another rule having run first.
func Rules() []Rule {
	return []Rule{
		{"direction_present", ruleDirectionPresent},
		{"min_confidence", ruleMinConfidence},
		{"required_levels", ruleRequiredLevels},
		{"stop_side", ruleStopSide},
		{"risk_reward", ruleRiskReward},
		{"rsi_contradiction", ruleRSIContradiction},
		{"atr_stop_band", ruleATRStopBand},
		{"crypto_adx", ruleCryptoADX},
		{"ranging_market", ruleRangingMarket},
		{"oscillator_stack", ruleOscillatorStack},
		{"swing_length", ruleSwingLength},
		{"magnitude_rsi", ruleMagnitudeRSI},
		{"zero_volume", ruleZeroVolume},
		{"low_volume", ruleLowVolume},
		{"candle_gate", ruleCandleGate},
	}
}

// Validate runs every rule in order and returns the first rejection, or a
// passing ValidationResult if every rule clears.
func Validate(signal types.Signal, set *types.IndicatorSet, s Settings, assetClass types.AssetClass) types.ValidationResult {
	for _, r := range Rules() {
		if failed, reason := r.Check(signal, set, s, assetClass); failed {
			return types.ValidationResult{Passed: false, Rule: r.Name, Reason: reason}
		}
	}
	return types.ValidationResult{Passed: true, Rule: "", Reason: "all validation rules passed"}
}

func ruleDirectionPresent(signal types.Signal, set *types.IndicatorSet, s Settings, assetClass types.AssetClass) (bool, string) {
	if signal.Direction == nil {
		return true, "signal has no direction"
	}
	return false, ""
}

func ruleMinConfidence(signal types.Signal, set *types.IndicatorSet, s Settings, assetClass types.AssetClass) (bool, string) {
	if signal.Confidence < s.MinConfidence {
		return true, fmt.Sprintf("confidence %.2f below %.2f threshold", signal.Confidence, s.MinConfidence)
	}
	return false, ""
}

func ruleRequiredLevels(signal types.Signal, set *types.IndicatorSet, s Settings, assetClass types.AssetClass) (bool, string) {
	if signal.EntryPrice == nil || signal.StopLoss == nil || signal.TakeProfit1 == nil {
		return true, "missing entry_price, stop_loss, or take_profit_1"
	}
	return false, ""
}

func ruleStopSide(signal types.Signal, set *types.IndicatorSet, s Settings, assetClass types.AssetClass) (bool, string) {
	if signal.Direction == nil || signal.EntryPrice == nil || signal.StopLoss == nil {
		return false, ""
	}
	entry, stop := *signal.EntryPrice, *signal.StopLoss
	switch *signal.Direction {
	case types.Long:
		if stop >= entry {
			return true, "long signal: stop_loss must be below entry_price"
		}
		if signal.TakeProfit1 != nil && *signal.TakeProfit1 <= entry {
			return true, "long signal: take_profit_1 must be above entry_price"
		}
	case types.Short:
		if stop <= entry {
			return true, "short signal: stop_loss must be above entry_price"
		}
		if signal.TakeProfit1 != nil && *signal.TakeProfit1 >= entry {
			return true, "short signal: take_profit_1 must be below entry_price"
		}
	}
	return false, ""
}

func ruleRiskReward(signal types.Signal, set *types.IndicatorSet, s Settings, assetClass types.AssetClass) (bool, string) {
	if signal.EntryPrice == nil || signal.StopLoss == nil || signal.TakeProfit1 == nil {
		return false, ""
	}
	entry, stop, tp1 := *signal.EntryPrice, *signal.StopLoss, *signal.TakeProfit1
	risk := math.Abs(entry - stop)
	if risk == 0 {
		return true, "zero risk distance (entry == stop_loss)"
	}
	reward := math.Abs(tp1 - entry)
	rr := reward / risk
	if rr < s.MinRiskReward-0.01 {
		return true, fmt.Sprintf("r:r ratio %.2f below %.2f minimum", rr, s.MinRiskReward)
	}
	return false, ""
}

func ruleRSIContradiction(signal types.Signal, set *types.IndicatorSet, s Settings, assetClass types.AssetClass) (bool, string) {
	if signal.Direction == nil {
		return false, ""
	}
	rsi, ok := types.LastValid(set.RSI)
	if !ok {
		return false, ""
	}
	if *signal.Direction == types.Long && rsi > 80 {
		return true, fmt.Sprintf("long signal but RSI=%.1f is extremely overbought (>80)", rsi)
	}
	if *signal.Direction == types.Short && rsi < 20 {
		return true, fmt.Sprintf("short signal but RSI=%.1f is extremely oversold (<20)", rsi)
	}
	return false, ""
}

func ruleATRStopBand(signal types.Signal, set *types.IndicatorSet, s Settings, assetClass types.AssetClass) (bool, string) {
	if signal.EntryPrice == nil || signal.StopLoss == nil {
		return false, ""
	}
	atr, ok := types.LastValid(set.ATR)
	if !ok || atr <= 0 {
		return false, ""
	}
	stopDistance := math.Abs(*signal.EntryPrice - *signal.StopLoss)
	multiple := stopDistance / atr
	if multiple < 0.5 {
		return true, fmt.Sprintf("stop too tight: %.1fx ATR (minimum 0.5x)", multiple)
	}
	if multiple > 5.0 {
		return true, fmt.Sprintf("stop too wide: %.1fx ATR (maximum 5.0x)", multiple)
	}
	return false, ""
}

func ruleCryptoADX(signal types.Signal, set *types.IndicatorSet, s Settings, assetClass types.AssetClass) (bool, string) {
	adx, ok := types.LastValid(set.ADX)
	if !ok {
		return false, ""
	}
	if assetClass == types.Crypto && adx < 20 {
		return true, fmt.Sprintf("crypto market too choppy: ADX=%.1f (minimum 20)", adx)
	}
	return false, ""
}

func ruleRangingMarket(signal types.Signal, set *types.IndicatorSet, s Settings, assetClass types.AssetClass) (bool, string) {
	adx, ok := types.LastValid(set.ADX)
	if !ok || adx >= 25 || signal.Direction == nil {
		return false, ""
	}
	var valid []float64
	for _, v := range set.EMALong {
		if !types.IsMissing(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) < 10 {
		return false, ""
	}
	now := valid[len(valid)-1]
	tenAgo := valid[len(valid)-10]
	if tenAgo == 0 {
		return false, ""
	}
	slopePct := math.Abs(now-tenAgo) / math.Abs(tenAgo) * 100
	if slopePct < 0.05 {
		return true, fmt.Sprintf("ranging market: ADX=%.1f, EMA200 slope=%.3f%% — divergence unreliable", adx, slopePct)
	}
	return false, ""
}

func ruleOscillatorStack(signal types.Signal, set *types.IndicatorSet, s Settings, assetClass types.AssetClass) (bool, string) {
	if len(signal.ConfirmingIndicators) < s.MinConfirmingIndicators {
		return true, fmt.Sprintf("only %d confirming indicators, need %d", len(signal.ConfirmingIndicators), s.MinConfirmingIndicators)
	}
	return false, ""
}

func ruleSwingLength(signal types.Signal, set *types.IndicatorSet, s Settings, assetClass types.AssetClass) (bool, string) {
	min := s.MinSwingBars1h
	if set.Timeframe == types.TF4h {
		min = s.MinSwingBars4h
	}
	if signal.SwingLengthBars < min {
		return true, fmt.Sprintf("swing length %d bars below %d minimum for %s", signal.SwingLengthBars, min, set.Timeframe)
	}
	return false, ""
}

func ruleMagnitudeRSI(signal types.Signal, set *types.IndicatorSet, s Settings, assetClass types.AssetClass) (bool, string) {
	if signal.Indicator == "RSI" && signal.DivergenceMagnitude < s.MinDivergenceMagnitudeRSI {
		return true, fmt.Sprintf("RSI divergence magnitude %.2f below %.2f minimum", signal.DivergenceMagnitude, s.MinDivergenceMagnitudeRSI)
	}
	return false, ""
}

func lastNVolumes(volumes []float64, n int) []float64 {
	if len(volumes) < n {
		return volumes
	}
	return volumes[len(volumes)-n:]
}

func ruleZeroVolume(signal types.Signal, set *types.IndicatorSet, s Settings, assetClass types.AssetClass) (bool, string) {
	last3 := lastNVolumes(set.Volumes, 3)
	if len(last3) == 0 {
		return false, ""
	}
	var maxVol float64
	for _, v := range last3 {
		if v == 0 {
			return true, "one of the last three candles has zero volume"
		}
		if v > maxVol {
			maxVol = v
		}
	}
	volSMA, ok := types.LastValid(set.VolumeSMA)
	if ok && volSMA > 0 && maxVol < 0.01*volSMA {
		return true, "last three candles' volume is below 1% of the volume average"
	}
	return false, ""
}

func ruleLowVolume(signal types.Signal, set *types.IndicatorSet, s Settings, assetClass types.AssetClass) (bool, string) {
	if len(set.Volumes) == 0 {
		return false, ""
	}
	lastVolume := set.Volumes[len(set.Volumes)-1]
	volSMA, ok := types.LastValid(set.VolumeSMA)
	if !ok || volSMA <= 0 {
		return false, ""
	}
	if lastVolume < s.VolumeLowThreshold*volSMA {
		return true, fmt.Sprintf("last candle volume %.2f below %.2fx the volume average", lastVolume, s.VolumeLowThreshold)
	}
	return false, ""
}

var bullishPatterns = []string{"hammer", "morning_star", "piercing", "inverted_hammer"}
var bearishPatterns = []string{"shooting_star", "evening_star", "dark_cloud", "hanging_man"}

func ruleCandleGate(signal types.Signal, set *types.IndicatorSet, s Settings, assetClass types.AssetClass) (bool, string) {
	if signal.Direction == nil || set.CandlePatterns == nil {
		return false, ""
	}
	lookback := s.CandleGateLookback
	if lookback <= 0 {
		lookback = 5
	}

	names := bearishPatterns
	wantSign := -1.0
	if *signal.Direction == types.Long {
		names = bullishPatterns
		wantSign = 1.0
	}

	for _, name := range names {
		series := set.CandlePatterns[name]
		if matchesInWindow(series, lookback, wantSign) {
			return false, ""
		}
	}
	// Engulfing is bidirectional: sign determines which direction it confirms.
	if matchesInWindow(set.CandlePatterns["engulfing"], lookback, wantSign) {
		return false, ""
	}

	dirName := "bullish"
	if wantSign < 0 {
		dirName = "bearish"
	}
	return true, fmt.Sprintf("no matching %s reversal pattern in last %d bars", dirName, lookback)
}

func matchesInWindow(series []float64, lookback int, wantSign float64) bool {
	if len(series) == 0 {
		return false
	}
	start := len(series) - lookback
	if start < 0 {
		start = 0
	}
	for _, v := range series[start:] {
		if wantSign > 0 && v > 0 {
			return true
		}
		if wantSign < 0 && v < 0 {
			return true
		}
	}
	return false
}
