package risk

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/chidi150c/divergence-trader/internal/types"
)

// PortfolioStore is the persistence dependency ReconstructPortfolio needs.
// Implemented by internal/storage; kept narrow here so the risk package
// never imports the storage/database layer directly.
type PortfolioStore interface {
	OpenPositions(brokerID string) ([]*types.Order, error)
	RealizedPnLSince(brokerID string, since time.Time) (decimal.Decimal, error)
	PeakEquity(brokerID string) (decimal.Decimal, error)
	SetPeakEquity(brokerID string, equity decimal.Decimal) error
	RecordCircuitBreakerEvent(brokerID string, state types.CircuitBreakerState, reason string) error
}

// ReconstructPortfolio implements spec §4.6's get_portfolio_state: starting
// equity (per-broker config) + cumulative realised PnL across closed orders,
// open positions, and daily PnL since UTC day-start, followed by the
// drawdown check against the persisted peak equity.
func (m *Manager) ReconstructPortfolio(store PortfolioStore, brokerID string, startingEquity decimal.Decimal, maxDrawdownPct float64, now time.Time) (*types.Portfolio, error) {
	open, err := store.OpenPositions(brokerID)
	if err != nil {
		return nil, err
	}

	realizedSinceEpoch, err := store.RealizedPnLSince(brokerID, time.Unix(0, 0).UTC())
	if err != nil {
		return nil, err
	}
	totalEquity := startingEquity.Add(realizedSinceEpoch)

	dayStart := time.Date(now.UTC().Year(), now.UTC().Month(), now.UTC().Day(), 0, 0, 0, 0, time.UTC)
	dailyPnL, err := store.RealizedPnLSince(brokerID, dayStart)
	if err != nil {
		return nil, err
	}

	portfolio := &types.Portfolio{
		BrokerID:         brokerID,
		TotalEquity:      totalEquity,
		AvailableBalance: totalEquity,
		OpenPositions:    open,
		DailyPnL:         dailyPnL,
	}

	if err := m.checkDrawdown(store, brokerID, totalEquity, maxDrawdownPct); err != nil {
		return nil, err
	}

	return portfolio, nil
}

func (m *Manager) checkDrawdown(store PortfolioStore, brokerID string, currentEquity decimal.Decimal, maxDrawdownPct float64) error {
	peak, err := store.PeakEquity(brokerID)
	if err != nil {
		return err
	}
	if peak.IsZero() || currentEquity.GreaterThan(peak) {
		return store.SetPeakEquity(brokerID, currentEquity)
	}

	drop := peak.Sub(currentEquity).Div(peak).Mul(decimal.NewFromInt(100))
	if drop.GreaterThanOrEqual(decimal.NewFromFloat(maxDrawdownPct)) {
		reason := "drawdown " + drop.StringFixed(1) + "% from peak exceeds " + decimal.NewFromFloat(maxDrawdownPct).StringFixed(1) + "% limit"
		m.breakerFor(brokerID).TripDrawdown(reason)
		return store.RecordCircuitBreakerEvent(brokerID, types.DrawdownTripped, reason)
	}
	return nil
}
