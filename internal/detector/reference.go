package detector

import (
	"context"

	"github.com/chidi150c/divergence-trader/internal/types"
)

// ReferenceConfig holds the knobs the deterministic detector needs — all
// sourced from spec §4.4/§6.
type ReferenceConfig struct {
	SwingOrder          int // minimum 5
	MinConfirming       int
	TrendFilterEnabled  bool
	VolumeFilterEnabled bool
	VolumeSMAPeriod     int
	MinRiskReward       float64
	ATRStopBufferMult   float64
}

func DefaultReferenceConfig() ReferenceConfig {
	return ReferenceConfig{
		SwingOrder:          5,
		MinConfirming:       2,
		TrendFilterEnabled:  true,
		VolumeFilterEnabled: true,
		VolumeSMAPeriod:     20,
		MinRiskReward:       1.5,
		ATRStopBufferMult:   0.25,
	}
}

// ReferenceDetector is the deterministic swing/confluence divergence
// detector from spec §4.4: symmetric-window swing detection over three
// uncorrelated oscillators (momentum=RSI, trend-momentum=MACD histogram,
// volume-flow=OBV), confluence counting across the four divergence patterns,
// a hard trend filter, a volume-confirmation filter, and ATR-buffered
// entry/stop/TP derivation. Grounded on strategy.go's decide() control-flow
// shape (pattern-match a fixed set of named regime booleans, then gate on
// thresholds) generalized from EMA4/EMA8 crossovers to swing confluence.
type ReferenceDetector struct {
	Cfg ReferenceConfig
}

func NewReferenceDetector(cfg ReferenceConfig) *ReferenceDetector {
	return &ReferenceDetector{Cfg: cfg}
}

type oscillatorVote struct {
	name      string
	dtype     types.DivergenceType
	direction types.Direction
	magnitude float64
}

func (d *ReferenceDetector) Detect(ctx context.Context, candles []types.Candle, set *types.IndicatorSet, symbol string, tf types.Timeframe) (types.Signal, error) {
	sig := types.Signal{Symbol: symbol, Timeframe: tf}
	order := d.Cfg.SwingOrder
	if order < 5 {
		order = 5
	}
	n := set.Len()
	if n < 2*order+2 {
		return sig, nil // not enough candles to form two swings
	}

	priceHighs := SwingHighs(set.Highs, order)
	priceLows := SwingLows(set.Lows, order)

	bullPriorLow, bullLatestLow, bullOK := LastTwo(priceLows)
	bearPriorHigh, bearLatestHigh, bearOK := LastTwo(priceHighs)

	oscillators := []struct {
		name   string
		series []float64
	}{
		{"RSI", set.RSI},
		{"MACD_HISTOGRAM", set.MACDHistogram},
		{"OBV", set.OBV},
	}

	var votes []oscillatorVote
	for _, osc := range oscillators {
		if bullOK {
			if v, ok := classifyBullish(osc.series, bullPriorLow, bullLatestLow); ok {
				votes = append(votes, oscillatorVote{name: osc.name, dtype: v.dtype, direction: types.Long, magnitude: v.magnitude})
			}
		}
		if bearOK {
			if v, ok := classifyBearish(osc.series, bearPriorHigh, bearLatestHigh); ok {
				votes = append(votes, oscillatorVote{name: osc.name, dtype: v.dtype, direction: types.Short, magnitude: v.magnitude})
			}
		}
	}
	if len(votes) == 0 {
		return sig, nil
	}

	// Tally confluence per (type, direction) pair; priority order breaks ties
	// among equally-confirmed patterns, matching the fixed GLOSSARY order.
	priority := []types.DivergenceType{types.BullishRegular, types.BearishRegular, types.BullishHidden, types.BearishHidden}
	type tally struct {
		count     int
		names     []string
		magnitude float64
		direction types.Direction
	}
	tallies := make(map[types.DivergenceType]*tally)
	for _, v := range votes {
		t, ok := tallies[v.dtype]
		if !ok {
			t = &tally{direction: v.direction}
			tallies[v.dtype] = t
		}
		t.count++
		t.names = append(t.names, v.name)
		t.magnitude += v.magnitude
	}

	var winner types.DivergenceType
	var winnerTally *tally
	for _, dt := range priority {
		if t, ok := tallies[dt]; ok {
			if winnerTally == nil || t.count > winnerTally.count {
				winner, winnerTally = dt, t
			}
		}
	}
	if winnerTally == nil || winnerTally.count < d.Cfg.MinConfirming {
		return sig, nil
	}

	lastClose, ok := types.LastValid(set.Closes)
	if !ok {
		return sig, nil
	}
	lastATR, hasATR := types.LastValid(set.ATR)
	if !hasATR || lastATR <= 0 {
		return sig, nil
	}

	direction := winnerTally.direction

	if d.Cfg.TrendFilterEnabled {
		if emaLong, ok := types.LastValid(set.EMALong); ok {
			if direction == types.Long && lastClose < emaLong {
				return sig, nil
			}
			if direction == types.Short && lastClose > emaLong {
				return sig, nil
			}
		}
	}

	if d.Cfg.VolumeFilterEnabled {
		if volSMA, ok := types.LastValid(set.VolumeSMA); ok && volSMA > 0 {
			lastVolume := set.Volumes[n-1]
			if lastVolume < volSMA {
				return sig, nil
			}
		}
	}

	var swingLatest, swingPrior SwingPoint
	if direction == types.Long {
		swingLatest, swingPrior = bullLatestLow, bullPriorLow
	} else {
		swingLatest, swingPrior = bearLatestHigh, bearPriorHigh
	}

	entry := lastClose
	buffer := d.Cfg.ATRStopBufferMult * lastATR
	var stop float64
	if direction == types.Long {
		stop = swingLatest.Value - buffer
	} else {
		stop = swingLatest.Value + buffer
	}
	riskDistance := entry - stop
	if direction == types.Short {
		riskDistance = stop - entry
	}
	if riskDistance <= 0 {
		return sig, nil
	}

	rr := d.Cfg.MinRiskReward
	if rr <= 0 {
		rr = 1.0
	}
	tp1 := tpLevel(entry, riskDistance, 1.0*rr, direction)
	tp2 := tpLevel(entry, riskDistance, 1.5*rr, direction)
	tp3 := tpLevel(entry, riskDistance, 2.0*rr, direction)

	confirming := dedupe(winnerTally.names)
	confidence := confidenceForConfluence(len(confirming))

	dt := winner
	dir := direction
	sig.DivergenceDetected = true
	sig.DivergenceType = &dt
	sig.Direction = &dir
	sig.Confidence = confidence
	sig.EntryPrice = &entry
	sig.StopLoss = &stop
	sig.TakeProfit1 = &tp1
	sig.TakeProfit2 = &tp2
	sig.TakeProfit3 = &tp3
	sig.Indicator = confirming[0]
	sig.ConfirmingIndicators = confirming
	sig.SwingLengthBars = swingLatest.Index - swingPrior.Index
	sig.DivergenceMagnitude = winnerTally.magnitude / float64(winnerTally.count)
	sig.Reasoning = reasoningFor(winner, direction, confirming)

	return sig, nil
}

func tpLevel(entry, riskDistance, multiple float64, dir types.Direction) float64 {
	if dir == types.Long {
		return entry + multiple*riskDistance
	}
	return entry - multiple*riskDistance
}

func confidenceForConfluence(count int) float64 {
	switch {
	case count >= 3:
		return 0.85
	case count == 2:
		return 0.65
	default:
		return 0.45
	}
}

type classification struct {
	dtype     types.DivergenceType
	magnitude float64
}

func classifyBullish(osc []float64, prior, latest SwingPoint) (classification, bool) {
	if latest.Index >= len(osc) || prior.Index >= len(osc) {
		return classification{}, false
	}
	oscPrior, oscLatest := osc[prior.Index], osc[latest.Index]
	if types.IsMissing(oscPrior) || types.IsMissing(oscLatest) {
		return classification{}, false
	}
	switch {
	case latest.Value < prior.Value && oscLatest > oscPrior:
		return classification{dtype: types.BullishRegular, magnitude: oscLatest - oscPrior}, true
	case latest.Value > prior.Value && oscLatest < oscPrior:
		return classification{dtype: types.BullishHidden, magnitude: oscPrior - oscLatest}, true
	default:
		return classification{}, false
	}
}

func classifyBearish(osc []float64, prior, latest SwingPoint) (classification, bool) {
	if latest.Index >= len(osc) || prior.Index >= len(osc) {
		return classification{}, false
	}
	oscPrior, oscLatest := osc[prior.Index], osc[latest.Index]
	if types.IsMissing(oscPrior) || types.IsMissing(oscLatest) {
		return classification{}, false
	}
	switch {
	case latest.Value > prior.Value && oscLatest < oscPrior:
		return classification{dtype: types.BearishRegular, magnitude: oscPrior - oscLatest}, true
	case latest.Value < prior.Value && oscLatest > oscPrior:
		return classification{dtype: types.BearishHidden, magnitude: oscLatest - oscPrior}, true
	default:
		return classification{}, false
	}
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

func reasoningFor(dt types.DivergenceType, dir types.Direction, confirming []string) string {
	return string(dt) + " confirmed by " + joinComma(confirming) + "; direction=" + string(dir)
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ","
		}
		out += p
	}
	return out
}
