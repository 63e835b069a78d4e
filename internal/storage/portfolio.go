package storage

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/chidi150c/divergence-trader/internal/types"
)

// OpenPositions implements risk.PortfolioStore: every non-terminal order for
// a broker.
func (s *Store) OpenPositions(brokerID string) ([]*types.Order, error) {
	var rows []OrderRecord
	terminal := []string{string(types.StateClosed), string(types.StateCancelled), string(types.StateRejected)}
	if err := s.db.Where("broker_id = ? AND state NOT IN ?", brokerID, terminal).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*types.Order, 0, len(rows))
	for _, r := range rows {
		out = append(out, orderFromRecord(r))
	}
	return out, nil
}

// RealizedPnLSince implements risk.PortfolioStore: the sum of PnL across
// orders closed at or after `since` for a broker.
func (s *Store) RealizedPnLSince(brokerID string, since time.Time) (decimal.Decimal, error) {
	var rows []OrderRecord
	if err := s.db.Where("broker_id = ? AND state = ? AND closed_at >= ?", brokerID, string(types.StateClosed), since).Find(&rows).Error; err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.PnL)
	}
	return total, nil
}

// PeakEquity implements risk.PortfolioStore.
func (s *Store) PeakEquity(brokerID string) (decimal.Decimal, error) {
	var row PeakEquityRecord
	err := s.db.First(&row, "broker_id = ?", brokerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return row.Equity, nil
}

// SetPeakEquity implements risk.PortfolioStore.
func (s *Store) SetPeakEquity(brokerID string, equity decimal.Decimal) error {
	row := PeakEquityRecord{BrokerID: brokerID, Equity: equity}
	return s.db.Save(&row).Error
}

// RecordCircuitBreakerEvent implements risk.PortfolioStore.
func (s *Store) RecordCircuitBreakerEvent(brokerID string, state types.CircuitBreakerState, reason string) error {
	row := CircuitBreakerEventRecord{
		BrokerID:    brokerID,
		Reason:      string(state),
		Details:     reason,
		TriggeredAt: time.Now().UTC(),
	}
	return s.db.Create(&row).Error
}

// SavePortfolioSnapshot implements analysis.Store.
func (s *Store) SavePortfolioSnapshot(brokerID string, portfolio *types.Portfolio, at time.Time) error {
	row := PortfolioSnapshotRecord{
		Time:              at,
		BrokerID:          brokerID,
		TotalEquity:       portfolio.TotalEquity,
		AvailableBalance:  portfolio.AvailableBalance,
		OpenPositionCount: len(portfolio.OpenPositions),
		DailyPnL:          portfolio.DailyPnL,
		DailyTrades:       portfolio.DailyTrades,
	}
	return s.db.Create(&row).Error
}
