package multitf

import "github.com/chidi150c/divergence-trader/internal/types"

// tpMultipliers mirrors the reference detector's {1, 1.5, 2} ladder — kept as
// a local copy rather than an import of internal/detector, since the
// confirmation step is a distinct concern (recomputing targets off a
// confirmed risk distance, not detecting a new pattern).
var tpMultipliers = [3]float64{1, 1.5, 2}

// Confirm builds the confirmed signal for a 1h signal that matched a
// retained 4h ActiveSetup, per spec §4.10.i: entry is the 1h entry, the stop
// is the 4h setup's stop unless it sits on the wrong side of the 1h entry (in
// which case the 1h signal's own stop is used as fallback), and take-profit
// levels are recomputed from that confirmed risk distance against the
// configured minimum risk:reward.
func Confirm(setup types.ActiveSetup, oneHour types.Signal, minRiskReward float64) types.Signal {
	confirmed := oneHour
	confirmed.Direction = &setup.Direction

	entry := *oneHour.EntryPrice
	stop := *setup.Signal.StopLoss
	if wrongSide(setup.Direction, entry, stop) {
		stop = *oneHour.StopLoss
	}

	riskDistance := entry - stop
	if setup.Direction == types.Short {
		riskDistance = stop - entry
	}
	if riskDistance <= 0 {
		riskDistance = absFloat(entry - stop)
	}

	confirmed.EntryPrice = floatPtr(entry)
	confirmed.StopLoss = floatPtr(stop)
	confirmed.TakeProfit1 = floatPtr(tpLevel(setup.Direction, entry, riskDistance, minRiskReward, tpMultipliers[0]))
	confirmed.TakeProfit2 = floatPtr(tpLevel(setup.Direction, entry, riskDistance, minRiskReward, tpMultipliers[1]))
	confirmed.TakeProfit3 = floatPtr(tpLevel(setup.Direction, entry, riskDistance, minRiskReward, tpMultipliers[2]))
	confirmed.Reasoning = "multi-timeframe confirmation: " + oneHour.Reasoning

	return confirmed
}

// wrongSide reports whether the 4h stop is on the wrong side of the 1h
// entry — i.e. it would neither protect nor make sense for the direction.
func wrongSide(dir types.Direction, entry, stop float64) bool {
	if dir == types.Long {
		return stop >= entry
	}
	return stop <= entry
}

func tpLevel(dir types.Direction, entry, riskDistance, minRiskReward, multiple float64) float64 {
	reward := multiple * minRiskReward * riskDistance
	if dir == types.Long {
		return entry + reward
	}
	return entry - reward
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func floatPtr(v float64) *float64 { return &v }
