// Package broker defines the uniform Broker capability set (C1/C2) and the
// Router that holds every adapter under its broker id.
//
// Grounded on broker.go's Broker interface (Name/GetNowPrice/PlaceMarketQuote/
// GetRecentCandles) generalized to spec §6's fuller capability set, and on
// broker_bridge.go/broker_hitbtc.go/broker_binance.go's manual http.Client +
// manual JSON decode + retry idiom for the HTTP adapters.
package broker

import (
	"context"

	"github.com/chidi150c/divergence-trader/internal/types"
)

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

type Ticker struct {
	Last, Bid, Ask float64
}

type Balance struct {
	Total, Free, Used float64
}

type OrderAck struct {
	ID  string
	Raw map[string]any
}

// Broker is the uniform per-venue capability set from spec §6.
type Broker interface {
	BrokerID() string
	FetchOHLCV(ctx context.Context, symbol string, tf types.Timeframe, limit int) ([]types.Candle, error)
	FetchTicker(ctx context.Context, symbol string) (Ticker, error)
	FetchBalance(ctx context.Context) (Balance, error)
	CreateLimitOrder(ctx context.Context, symbol string, side Side, amount, price float64) (OrderAck, error)
	CreateStopOrder(ctx context.Context, symbol string, side Side, amount, stopPrice float64) (OrderAck, error)
	CancelOrder(ctx context.Context, orderID, symbol string) (OrderAck, error)
	CheckConnectivity(ctx context.Context) error
	Close() error
}

// Router holds every adapter under its own broker id and looks adapters up
// by that id only. It holds no instrument registry and has no symbol-based
// route: callers pass the broker id that owns the symbol.
type Router struct {
	adapters map[string]Broker
}

func NewRouter() *Router {
	return &Router{adapters: make(map[string]Broker)}
}

func (r *Router) Register(b Broker) {
	r.adapters[b.BrokerID()] = b
}

// GetByID is a direct adapter lookup.
func (r *Router) GetByID(brokerID string) (Broker, bool) {
	b, ok := r.adapters[brokerID]
	return b, ok
}

// All enumerates every registered adapter.
func (r *Router) All() []Broker {
	out := make([]Broker, 0, len(r.adapters))
	for _, b := range r.adapters {
		out = append(out, b)
	}
	return out
}

// CloseAll releases every adapter's resources, continuing past individual
// close errors so one broken venue cannot block shutdown of the rest.
func (r *Router) CloseAll() []error {
	var errsOut []error
	for _, b := range r.adapters {
		if err := b.Close(); err != nil {
			errsOut = append(errsOut, err)
		}
	}
	return errsOut
}

// TimeSortCandles is the ascending-time guarantee every adapter must honor,
// ported from broker_bridge.go's sort.Slice(... out[i].Time.Before...).
func TimeSortCandles(candles []types.Candle) []types.Candle {
	out := make([]types.Candle, len(candles))
	copy(out, candles)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Time.Before(out[j-1].Time); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
