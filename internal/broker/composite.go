package broker

import (
	"context"

	"github.com/chidi150c/divergence-trader/internal/types"
)

// CompositeAdapter satisfies spec §4.1's "composite adapters are allowed"
// clause: one venue supplies price data while a different venue executes
// orders, and the composite's BrokerID is the execution venue's — exactly
// broker_bridge.go's role relative to the primary exchange broker (the
// bridge sidecar serves candles/ticker; the primary broker places orders).
type CompositeAdapter struct {
	executionID string
	data        Broker
	execution   Broker
}

// NewCompositeAdapter builds an adapter that reads market data from `data`
// and submits/cancels orders and checks balance through `execution`. The
// composite reports `execution`'s broker id, per spec.
func NewCompositeAdapter(data, execution Broker) *CompositeAdapter {
	return &CompositeAdapter{executionID: execution.BrokerID(), data: data, execution: execution}
}

func (c *CompositeAdapter) BrokerID() string { return c.executionID }

func (c *CompositeAdapter) FetchOHLCV(ctx context.Context, symbol string, tf types.Timeframe, limit int) ([]types.Candle, error) {
	return c.data.FetchOHLCV(ctx, symbol, tf, limit)
}

func (c *CompositeAdapter) FetchTicker(ctx context.Context, symbol string) (Ticker, error) {
	return c.data.FetchTicker(ctx, symbol)
}

func (c *CompositeAdapter) FetchBalance(ctx context.Context) (Balance, error) {
	return c.execution.FetchBalance(ctx)
}

func (c *CompositeAdapter) CreateLimitOrder(ctx context.Context, symbol string, side Side, amount, price float64) (OrderAck, error) {
	return c.execution.CreateLimitOrder(ctx, symbol, side, amount, price)
}

func (c *CompositeAdapter) CreateStopOrder(ctx context.Context, symbol string, side Side, amount, stopPrice float64) (OrderAck, error) {
	return c.execution.CreateStopOrder(ctx, symbol, side, amount, stopPrice)
}

func (c *CompositeAdapter) CancelOrder(ctx context.Context, orderID, symbol string) (OrderAck, error) {
	return c.execution.CancelOrder(ctx, orderID, symbol)
}

func (c *CompositeAdapter) CheckConnectivity(ctx context.Context) error {
	if err := c.data.CheckConnectivity(ctx); err != nil {
		return err
	}
	return c.execution.CheckConnectivity(ctx)
}

func (c *CompositeAdapter) Close() error {
	dataErr := c.data.Close()
	execErr := c.execution.Close()
	if execErr != nil {
		return execErr
	}
	return dataErr
}
