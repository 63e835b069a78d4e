package broker

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/chidi150c/divergence-trader/internal/types"
)

// PaperAdapter is a paper venue ported from broker_paper.go's PaperBroker
// (mutex-guarded prices, uuid client-side order ids). It serves seeded
// candles and, per symbol, the close of the last candle passed to
// SeedCandles as its ticker (100 when nothing is seeded). Orders are only
// acknowledged with a fresh uuid; the adapter does not simulate fills.
type PaperAdapter struct {
	mu     sync.Mutex
	id     string
	price  map[string]float64
	candle map[string][]types.Candle
}

func NewPaperAdapter(brokerID string) *PaperAdapter {
	return &PaperAdapter{
		id:     brokerID,
		price:  make(map[string]float64),
		candle: make(map[string][]types.Candle),
	}
}

func (p *PaperAdapter) BrokerID() string { return p.id }

// SeedCandles lets the caller (e.g. a backfill job) populate paper-mode price
// history so FetchOHLCV/FetchTicker have something to return.
func (p *PaperAdapter) SeedCandles(symbol string, candles []types.Candle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.candle[symbol] = TimeSortCandles(candles)
	if n := len(candles); n > 0 {
		p.price[symbol] = candles[n-1].Close
	}
}

func (p *PaperAdapter) FetchOHLCV(ctx context.Context, symbol string, tf types.Timeframe, limit int) ([]types.Candle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := p.candle[symbol]
	if limit > 0 && limit < len(c) {
		c = c[len(c)-limit:]
	}
	out := make([]types.Candle, len(c))
	copy(out, c)
	return out, nil
}

func (p *PaperAdapter) FetchTicker(ctx context.Context, symbol string) (Ticker, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.price[symbol]
	if last <= 0 {
		last = 100
	}
	return Ticker{Last: last, Bid: last, Ask: last}, nil
}

func (p *PaperAdapter) FetchBalance(ctx context.Context) (Balance, error) {
	return Balance{}, nil // the paper portfolio is reconstructed by internal/risk, not here
}

func (p *PaperAdapter) CreateLimitOrder(ctx context.Context, symbol string, side Side, amount, price float64) (OrderAck, error) {
	return OrderAck{ID: uuid.New().String()}, nil
}

func (p *PaperAdapter) CreateStopOrder(ctx context.Context, symbol string, side Side, amount, stopPrice float64) (OrderAck, error) {
	return OrderAck{ID: uuid.New().String()}, nil
}

func (p *PaperAdapter) CancelOrder(ctx context.Context, orderID, symbol string) (OrderAck, error) {
	return OrderAck{ID: orderID}, nil
}

func (p *PaperAdapter) CheckConnectivity(ctx context.Context) error { return nil }

func (p *PaperAdapter) Close() error { return nil }
