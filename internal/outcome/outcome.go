// Package outcome implements the Outcome Tracker (C11): a periodic job that
// records what actually happened after every signal, spec §4.11. Grounded
// on original_source/bot/layer5_monitoring/outcome_tracker.py's
// track_signal_outcomes almost directly — the create-missing-rows /
// group-by-symbol-and-fetch / per-outcome checkpoint-MFE-MAE-TP-SL-verdict
// pipeline is ported near-verbatim in control-flow shape.
package outcome

import (
	"context"
	"time"

	"github.com/chidi150c/divergence-trader/internal/broker"
	"github.com/chidi150c/divergence-trader/internal/types"
)

// CorrectThreshold/IncorrectThreshold are the 24h-return verdict bands from
// spec §4.11.6, matching the original's CORRECT_THRESHOLD/INCORRECT_THRESHOLD.
const (
	CorrectThreshold   = 0.5
	IncorrectThreshold = -0.5
	candleFetchCap     = 500
)

// SignalRef is the slice of a persisted signal the tracker needs to open a
// new outcome row: spec §6's "signals" table columns it reads.
type SignalRef struct {
	ID              string
	BrokerID        string
	Symbol          string
	Direction       types.Direction
	EntryPrice      float64
	StopLoss        *float64
	TakeProfit1     *float64
	TakeProfit2     *float64
	TakeProfit3     *float64
	SignalCreatedAt time.Time
}

// Outcome is spec §6's "signal_outcomes" row shape.
type Outcome struct {
	SignalID        string
	BrokerID        string
	Symbol          string
	Direction       types.Direction
	EntryPrice      float64
	StopLoss        *float64
	TakeProfit1     *float64
	TakeProfit2     *float64
	TakeProfit3     *float64
	SignalCreatedAt time.Time

	Price1h, Price4h, Price12h, Price24h       *float64
	Return1h, Return4h, Return12h, Return24h   *float64
	MaxFavorablePrice, MaxAdversePrice         *float64
	MaxFavorablePct, MaxAdversePct             *float64

	TP1Hit, TP2Hit, TP3Hit, SLHit             bool
	TP1HitAt, TP2HitAt, TP3HitAt, SLHitAt     *time.Time

	Verdict       string
	FullyResolved bool
}

// Store is the persistence dependency the tracker needs. Implemented by
// internal/storage.
type Store interface {
	SignalsWithoutOutcomes() ([]SignalRef, error)
	InsertOutcome(sig SignalRef) error
	UnresolvedOutcomes() ([]Outcome, error)
	UpdateOutcome(o Outcome) error
}

// Tracker runs one pass of spec §4.11: create missing outcome rows, then
// update every unresolved one with fresh checkpoints/MFE-MAE/TP-SL/verdict.
type Tracker struct {
	Router *broker.Router
	Store  Store
	// Clock lets tests inject a fixed "now"; nil uses time.Now.
	Clock func() time.Time
}

func (t *Tracker) now() time.Time {
	if t.Clock != nil {
		return t.Clock()
	}
	return time.Now().UTC()
}

// Run executes one tracker pass and returns (created, updated) counts.
func (t *Tracker) Run(ctx context.Context) (created, updated int, err error) {
	created, err = t.createMissingOutcomes()
	if err != nil {
		return created, 0, err
	}
	updated, err = t.updateUnresolvedOutcomes(ctx)
	return created, updated, err
}

func (t *Tracker) createMissingOutcomes() (int, error) {
	refs, err := t.Store.SignalsWithoutOutcomes()
	if err != nil {
		return 0, err
	}
	count := 0
	for _, ref := range refs {
		if err := t.Store.InsertOutcome(ref); err != nil {
			continue // one bad row never blocks the rest, matching the original's per-row try/except
		}
		count++
	}
	return count, nil
}

func (t *Tracker) updateUnresolvedOutcomes(ctx context.Context) (int, error) {
	rows, err := t.Store.UnresolvedOutcomes()
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	bySymbol := make(map[string][]Outcome)
	brokerOf := make(map[string]string)
	for _, o := range rows {
		bySymbol[o.Symbol] = append(bySymbol[o.Symbol], o)
		brokerOf[o.Symbol] = o.BrokerID
	}

	now := t.now()
	count := 0
	for symbol, outcomes := range bySymbol {
		oldest := outcomes[0].SignalCreatedAt
		for _, o := range outcomes[1:] {
			if o.SignalCreatedAt.Before(oldest) {
				oldest = o.SignalCreatedAt
			}
		}
		hoursNeeded := int(now.Sub(oldest).Hours()) + 2
		limit := hoursNeeded
		if limit > candleFetchCap {
			limit = candleFetchCap
		}
		if limit < 1 {
			limit = 1
		}

		b, ok := t.Router.GetByID(brokerOf[symbol])
		if !ok {
			continue
		}
		candles, err := b.FetchOHLCV(ctx, symbol, types.TF1h, limit)
		if err != nil || len(candles) == 0 {
			continue
		}

		for _, o := range outcomes {
			updatedOutcome := processSingleOutcome(o, candles, now)
			if err := t.Store.UpdateOutcome(updatedOutcome); err != nil {
				continue
			}
			count++
		}
	}
	return count, nil
}
