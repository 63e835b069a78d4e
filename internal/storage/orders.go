package storage

import (
	"github.com/chidi150c/divergence-trader/internal/types"
)

// SaveOrder implements execution.OrderStore.
func (s *Store) SaveOrder(order *types.Order) error {
	row := recordFromOrder(order)
	return s.db.Create(&row).Error
}

// UpdateOrder implements execution.OrderStore. Orders are mutated in place
// throughout their FSM lifetime (stop raises, TP stage advances, closure),
// so this is a full-row save keyed on ID.
func (s *Store) UpdateOrder(order *types.Order) error {
	row := recordFromOrder(order)
	return s.db.Save(&row).Error
}

// OpenOrdersByBroker implements execution.OpenOrderStore.
func (s *Store) OpenOrdersByBroker(brokerID string) ([]*types.Order, error) {
	return s.OpenPositions(brokerID)
}

func recordFromOrder(o *types.Order) OrderRecord {
	return OrderRecord{
		ID:                o.ID,
		SignalID:          o.SignalID,
		ExchangeOrderID:   o.ExchangeOrderID,
		Symbol:            o.Symbol,
		BrokerID:          o.BrokerID,
		Direction:         string(o.Direction),
		State:             string(o.State),
		EntryPrice:        o.EntryPrice,
		StopLoss:          o.StopLoss,
		OriginalStopLoss:  o.OriginalStopLoss,
		SLTrailStage:      o.SLTrailStage,
		TPStage:           o.TPStage,
		TakeProfit1:       o.TakeProfit1,
		TakeProfit2:       o.TakeProfit2,
		TakeProfit3:       o.TakeProfit3,
		Quantity:          o.Quantity,
		RemainingQuantity: o.RemainingQuantity,
		FilledQuantity:    o.Quantity.Sub(o.RemainingQuantity),
		FilledPrice:       o.FilledPrice,
		PnL:               o.RealizedPnL,
		Fees:              o.Fees,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
		ClosedAt:          o.ClosedAt,
	}
}

func orderFromRecord(r OrderRecord) *types.Order {
	return &types.Order{
		ID:               r.ID,
		SignalID:         r.SignalID,
		ExchangeOrderID:  r.ExchangeOrderID,
		Symbol:           r.Symbol,
		BrokerID:         r.BrokerID,
		Direction:        types.Direction(r.Direction),
		State:            types.OrderState(r.State),
		EntryPrice:       r.EntryPrice,
		StopLoss:         r.StopLoss,
		OriginalStopLoss: r.OriginalStopLoss,
		TakeProfit1:      r.TakeProfit1,
		TakeProfit2:      r.TakeProfit2,
		TakeProfit3:      r.TakeProfit3,
		SLTrailStage:     r.SLTrailStage,
		TPStage:          r.TPStage,
		Quantity:          r.Quantity,
		RemainingQuantity: r.RemainingQuantity,
		FilledPrice:       r.FilledPrice,
		RealizedPnL:       r.PnL,
		Fees:              r.Fees,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
		ClosedAt:          r.ClosedAt,
	}
}
