package outcome

import (
	"time"

	"github.com/chidi150c/divergence-trader/internal/types"
)

// processSingleOutcome is the pure transform behind updateUnresolvedOutcomes:
// checkpoints, MFE/MAE, sticky TP/SL hit detection, and verdict, all folded
// into a fresh Outcome value. Ports
// original_source/bot/layer5_monitoring/outcome_tracker.py's
// _process_single_outcome.
func processSingleOutcome(o Outcome, candles []types.Candle, now time.Time) Outcome {
	isLong := o.Direction == types.Long
	elapsedHours := now.Sub(o.SignalCreatedAt).Hours()

	relevant := make([]types.Candle, 0, len(candles))
	for _, c := range candles {
		if !c.Time.Before(o.SignalCreatedAt) {
			relevant = append(relevant, c)
		}
	}
	if len(relevant) == 0 {
		return o
	}

	fillCheckpoint(&o.Price1h, 1, elapsedHours, o.SignalCreatedAt, relevant)
	fillCheckpoint(&o.Price4h, 4, elapsedHours, o.SignalCreatedAt, relevant)
	fillCheckpoint(&o.Price12h, 12, elapsedHours, o.SignalCreatedAt, relevant)
	fillCheckpoint(&o.Price24h, 24, elapsedHours, o.SignalCreatedAt, relevant)

	o.Return1h = signedReturn(isLong, o.EntryPrice, o.Price1h)
	o.Return4h = signedReturn(isLong, o.EntryPrice, o.Price4h)
	o.Return12h = signedReturn(isLong, o.EntryPrice, o.Price12h)
	o.Return24h = signedReturn(isLong, o.EntryPrice, o.Price24h)

	updateMFEMAE(&o, isLong, relevant)
	updateTPSLHits(&o, isLong, relevant)

	o.FullyResolved = elapsedHours >= 24
	o.Verdict = computeVerdict(o.TP1Hit, o.SLHit, o.Return24h, o.FullyResolved)

	return o
}

// fillCheckpoint fills *price from the candle closest to signalTime+hours,
// but only once enough time has elapsed and only if not already filled —
// matching the original's "already filled, skip" idempotence.
func fillCheckpoint(price **float64, hours, elapsedHours float64, signalTime time.Time, candles []types.Candle) {
	if *price != nil || elapsedHours < hours {
		return
	}
	target := signalTime.Add(time.Duration(hours * float64(time.Hour)))
	c, ok := closestCandle(candles, target)
	if !ok {
		return
	}
	v := c.Close
	*price = &v
}

func closestCandle(candles []types.Candle, target time.Time) (types.Candle, bool) {
	var best types.Candle
	var bestDiff time.Duration = -1
	for _, c := range candles {
		diff := c.Time.Sub(target)
		if diff < 0 {
			diff = -diff
		}
		if bestDiff < 0 || diff < bestDiff {
			best = c
			bestDiff = diff
		}
	}
	return best, bestDiff >= 0
}

func signedReturn(isLong bool, entry float64, price *float64) *float64 {
	if price == nil || entry <= 0 {
		return nil
	}
	var ret float64
	if isLong {
		ret = (*price - entry) / entry * 100
	} else {
		ret = (entry - *price) / entry * 100
	}
	return &ret
}

func updateMFEMAE(o *Outcome, isLong bool, candles []types.Candle) {
	for _, c := range candles {
		best, worst := c.High, c.Low
		if !isLong {
			best, worst = c.Low, c.High
		}

		if o.MaxFavorablePrice == nil {
			v := best
			o.MaxFavorablePrice = &v
		} else if isLong {
			if best > *o.MaxFavorablePrice {
				*o.MaxFavorablePrice = best
			}
		} else if best < *o.MaxFavorablePrice {
			*o.MaxFavorablePrice = best
		}

		if o.MaxAdversePrice == nil {
			v := worst
			o.MaxAdversePrice = &v
		} else if isLong {
			if worst < *o.MaxAdversePrice {
				*o.MaxAdversePrice = worst
			}
		} else if worst > *o.MaxAdversePrice {
			*o.MaxAdversePrice = worst
		}
	}

	o.MaxFavorablePct = signedReturn(isLong, o.EntryPrice, o.MaxFavorablePrice)
	o.MaxAdversePct = signedReturn(isLong, o.EntryPrice, o.MaxAdversePrice)
}

// updateTPSLHits walks candles in order, setting sticky first-hit flags and
// timestamps for tp1/tp2/tp3/sl — once hit, never cleared.
func updateTPSLHits(o *Outcome, isLong bool, candles []types.Candle) {
	for _, c := range candles {
		ts := c.Time
		if isLong {
			if o.TakeProfit1 != nil && !o.TP1Hit && c.High >= *o.TakeProfit1 {
				o.TP1Hit, o.TP1HitAt = true, &ts
			}
			if o.TakeProfit2 != nil && !o.TP2Hit && c.High >= *o.TakeProfit2 {
				o.TP2Hit, o.TP2HitAt = true, &ts
			}
			if o.TakeProfit3 != nil && !o.TP3Hit && c.High >= *o.TakeProfit3 {
				o.TP3Hit, o.TP3HitAt = true, &ts
			}
			if o.StopLoss != nil && !o.SLHit && c.Low <= *o.StopLoss {
				o.SLHit, o.SLHitAt = true, &ts
			}
		} else {
			if o.TakeProfit1 != nil && !o.TP1Hit && c.Low <= *o.TakeProfit1 {
				o.TP1Hit, o.TP1HitAt = true, &ts
			}
			if o.TakeProfit2 != nil && !o.TP2Hit && c.Low <= *o.TakeProfit2 {
				o.TP2Hit, o.TP2HitAt = true, &ts
			}
			if o.TakeProfit3 != nil && !o.TP3Hit && c.Low <= *o.TakeProfit3 {
				o.TP3Hit, o.TP3HitAt = true, &ts
			}
			if o.StopLoss != nil && !o.SLHit && c.High >= *o.StopLoss {
				o.SLHit, o.SLHitAt = true, &ts
			}
		}
	}
}

// computeVerdict implements spec §4.11.6 exactly.
func computeVerdict(tp1Hit, slHit bool, return24h *float64, fullyResolved bool) string {
	switch {
	case tp1Hit && slHit:
		return "partial"
	case tp1Hit:
		return "correct"
	case slHit:
		return "incorrect"
	}
	if fullyResolved && return24h != nil {
		switch {
		case *return24h > CorrectThreshold:
			return "correct"
		case *return24h < IncorrectThreshold:
			return "incorrect"
		default:
			return "partial"
		}
	}
	return "pending"
}
