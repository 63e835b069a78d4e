package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is the mutable position/order record tracked through the execution
// FSM. Prices, quantities, PnL and fees use decimal.Decimal so fee/PnL math
// is reproducible bit-for-bit under the same inputs (spec §9).
type Order struct {
	ID            string
	SignalID      string
	ExchangeOrderID string
	Symbol        string
	BrokerID      string
	Direction     Direction
	State         OrderState

	EntryPrice       decimal.Decimal
	StopLoss         decimal.Decimal // mutable
	OriginalStopLoss decimal.Decimal // immutable snapshot at open
	TakeProfit1      decimal.Decimal
	TakeProfit2      *decimal.Decimal
	TakeProfit3      *decimal.Decimal

	SLTrailStage int // 0, 1, 2 — monotonically non-decreasing
	TPStage      int // 0, 1 — monotonically non-decreasing

	Quantity          decimal.Decimal
	RemainingQuantity decimal.Decimal // monotonically non-increasing

	FilledPrice *decimal.Decimal
	RealizedPnL decimal.Decimal
	Fees        decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
	ClosedAt  *time.Time
}

// IsTerminal reports whether the order is in a terminal FSM state.
func (o *Order) IsTerminal() bool {
	switch o.State {
	case StateClosed, StateCancelled, StateRejected:
		return true
	default:
		return false
	}
}

// Portfolio is the per-broker reconstructed account state.
type Portfolio struct {
	BrokerID         string
	TotalEquity      decimal.Decimal
	AvailableBalance decimal.Decimal
	OpenPositions    []*Order
	DailyPnL         decimal.Decimal
	DailyTrades      int
}

// OpenPositionsForSymbolDirection returns open (non-terminal) orders matching
// the given symbol and, if dir is non-nil, direction.
func (p *Portfolio) OpenPositionsForSymbolDirection(symbol string, dir *Direction) []*Order {
	var out []*Order
	for _, o := range p.OpenPositions {
		if o.IsTerminal() {
			continue
		}
		if o.Symbol != symbol {
			continue
		}
		if dir != nil && o.Direction != *dir {
			continue
		}
		out = append(out, o)
	}
	return out
}
