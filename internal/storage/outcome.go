package storage

import (
	"time"

	"github.com/chidi150c/divergence-trader/internal/outcome"
	"github.com/chidi150c/divergence-trader/internal/types"
)

// SignalsWithoutOutcomes implements outcome.Store: every validated signal
// with entry/direction set that has no row in signal_outcomes yet.
func (s *Store) SignalsWithoutOutcomes() ([]outcome.SignalRef, error) {
	var rows []SignalRecord
	err := s.db.Where(
		"validated = ? AND entry_price IS NOT NULL AND direction != '' AND id NOT IN (?)",
		true,
		s.db.Model(&SignalOutcomeRecord{}).Select("signal_id"),
	).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]outcome.SignalRef, 0, len(rows))
	for _, r := range rows {
		out = append(out, outcome.SignalRef{
			ID: r.ID, BrokerID: r.BrokerID, Symbol: r.Symbol,
			Direction: types.Direction(r.Direction), EntryPrice: derefFloat(r.EntryPrice),
			StopLoss: r.StopLoss, TakeProfit1: r.TakeProfit1, TakeProfit2: r.TakeProfit2,
			TakeProfit3: r.TakeProfit3, SignalCreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}

// InsertOutcome implements outcome.Store.
func (s *Store) InsertOutcome(ref outcome.SignalRef) error {
	row := SignalOutcomeRecord{
		SignalID: ref.ID, BrokerID: ref.BrokerID, Symbol: ref.Symbol,
		Direction: string(ref.Direction), EntryPrice: ref.EntryPrice,
		StopLoss: ref.StopLoss, TakeProfit1: ref.TakeProfit1,
		TakeProfit2: ref.TakeProfit2, TakeProfit3: ref.TakeProfit3,
		SignalCreatedAt: ref.SignalCreatedAt, Verdict: "pending",
		LastCheckedAt: time.Now().UTC(),
	}
	return s.db.Create(&row).Error
}

// UnresolvedOutcomes implements outcome.Store.
func (s *Store) UnresolvedOutcomes() ([]outcome.Outcome, error) {
	var rows []SignalOutcomeRecord
	if err := s.db.Where("fully_resolved = ?", false).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]outcome.Outcome, 0, len(rows))
	for _, r := range rows {
		out = append(out, outcomeFromRecord(r))
	}
	return out, nil
}

// UpdateOutcome implements outcome.Store. Looks up the row's auto-increment
// ID by the unique signal_id first so Save updates the existing row instead
// of inserting a duplicate.
func (s *Store) UpdateOutcome(o outcome.Outcome) error {
	var existing SignalOutcomeRecord
	if err := s.db.Where("signal_id = ?", o.SignalID).First(&existing).Error; err != nil {
		return err
	}
	row := recordFromOutcome(o)
	row.ID = existing.ID
	row.LastCheckedAt = time.Now().UTC()
	return s.db.Save(&row).Error
}

func derefFloat(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func outcomeFromRecord(r SignalOutcomeRecord) outcome.Outcome {
	return outcome.Outcome{
		SignalID: r.SignalID, BrokerID: r.BrokerID, Symbol: r.Symbol,
		Direction: types.Direction(r.Direction), EntryPrice: r.EntryPrice,
		StopLoss: r.StopLoss, TakeProfit1: r.TakeProfit1, TakeProfit2: r.TakeProfit2,
		TakeProfit3: r.TakeProfit3, SignalCreatedAt: r.SignalCreatedAt,
		Price1h: r.Price1h, Price4h: r.Price4h, Price12h: r.Price12h, Price24h: r.Price24h,
		Return1h: r.Return1h, Return4h: r.Return4h, Return12h: r.Return12h, Return24h: r.Return24h,
		MaxFavorablePrice: r.MaxFavorablePrice, MaxAdversePrice: r.MaxAdversePrice,
		MaxFavorablePct: r.MaxFavorablePct, MaxAdversePct: r.MaxAdversePct,
		TP1Hit: r.TP1Hit, TP2Hit: r.TP2Hit, TP3Hit: r.TP3Hit, SLHit: r.SLHit,
		TP1HitAt: r.TP1HitAt, TP2HitAt: r.TP2HitAt, TP3HitAt: r.TP3HitAt, SLHitAt: r.SLHitAt,
		Verdict: r.Verdict, FullyResolved: r.FullyResolved,
	}
}

func recordFromOutcome(o outcome.Outcome) SignalOutcomeRecord {
	return SignalOutcomeRecord{
		SignalID: o.SignalID, BrokerID: o.BrokerID, Symbol: o.Symbol,
		Direction: string(o.Direction), EntryPrice: o.EntryPrice,
		StopLoss: o.StopLoss, TakeProfit1: o.TakeProfit1, TakeProfit2: o.TakeProfit2,
		TakeProfit3: o.TakeProfit3, SignalCreatedAt: o.SignalCreatedAt,
		Price1h: o.Price1h, Price4h: o.Price4h, Price12h: o.Price12h, Price24h: o.Price24h,
		Return1h: o.Return1h, Return4h: o.Return4h, Return12h: o.Return12h, Return24h: o.Return24h,
		MaxFavorablePrice: o.MaxFavorablePrice, MaxAdversePrice: o.MaxAdversePrice,
		MaxFavorablePct: o.MaxFavorablePct, MaxAdversePct: o.MaxAdversePct,
		TP1Hit: o.TP1Hit, TP2Hit: o.TP2Hit, TP3Hit: o.TP3Hit, SLHit: o.SLHit,
		TP1HitAt: o.TP1HitAt, TP2HitAt: o.TP2HitAt, TP3HitAt: o.TP3HitAt, SLHitAt: o.SLHitAt,
		Verdict: o.Verdict, FullyResolved: o.FullyResolved,
	}
}
