package execution

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chidi150c/divergence-trader/internal/alert"
	"github.com/chidi150c/divergence-trader/internal/broker"
	"github.com/chidi150c/divergence-trader/internal/config"
	"github.com/chidi150c/divergence-trader/internal/instruments"
	"github.com/chidi150c/divergence-trader/internal/risk"
	"github.com/chidi150c/divergence-trader/internal/types"
)

type memStore struct {
	saved   []*types.Order
	updated []*types.Order
}

func (m *memStore) SaveOrder(o *types.Order) error   { m.saved = append(m.saved, o); return nil }
func (m *memStore) UpdateOrder(o *types.Order) error { m.updated = append(m.updated, o); return nil }
func (m *memStore) OpenOrdersByBroker(brokerID string) ([]*types.Order, error) {
	var out []*types.Order
	for _, o := range append(append([]*types.Order{}, m.saved...), m.updated...) {
		if !o.IsTerminal() {
			out = append(out, o)
		}
	}
	return out, nil
}

func testEngine(mode types.TradingMode, tp1ClosePct float64) (*Engine, *broker.Router, *memStore) {
	reg := instruments.NewRegistry("paper")
	reg.Register(instruments.Instrument{Symbol: "BTC-USD", BrokerID: "paper", AssetClass: types.Crypto, FeeRate: 0.001})
	riskCfg := config.RiskConfig{MaxPositionPct: 2, MaxDailyLossPct: 5, MaxOpenPositions: 5, BrokerOverrides: map[string]config.RiskOverride{}}
	m := risk.NewManager(riskCfg, reg)

	router := broker.NewRouter()
	paper := broker.NewPaperAdapter("paper")
	router.Register(paper)

	store := &memStore{}
	eng := &Engine{
		Mode:        mode,
		Router:      router,
		Risk:        m,
		Registry:    reg,
		Alerts:      alert.New(""),
		Store:       store,
		TP1ClosePct: tp1ClosePct,
	}
	return eng, router, store
}

func floatPtr(v float64) *float64 { return &v }

func TestExecuteSignalPaperModeSubmits(t *testing.T) {
	eng, _, store := testEngine(types.ModePaper, 0)
	dir := types.Long
	signal := types.Signal{
		Symbol: "BTC-USD", Direction: &dir,
		EntryPrice: floatPtr(100), StopLoss: floatPtr(95), TakeProfit1: floatPtr(110),
	}
	portfolio := &types.Portfolio{TotalEquity: decimal.NewFromFloat(10000)}

	order, err := eng.ExecuteSignal(context.Background(), signal, portfolio, "paper", "sig-1")
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, types.StateSubmitted, order.State)
	require.Len(t, store.saved, 1)
}

func TestExecuteSignalDevModeSkipsPersistence(t *testing.T) {
	eng, _, store := testEngine(types.ModeDev, 0)
	dir := types.Long
	signal := types.Signal{
		Symbol: "BTC-USD", Direction: &dir,
		EntryPrice: floatPtr(100), StopLoss: floatPtr(95), TakeProfit1: floatPtr(110),
	}
	portfolio := &types.Portfolio{TotalEquity: decimal.NewFromFloat(10000)}

	order, err := eng.ExecuteSignal(context.Background(), signal, portfolio, "paper", "sig-1")
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, types.StatePending, order.State)
	assert.Empty(t, store.saved)
}

func TestExecuteSignalReturnsNilOnRiskRejection(t *testing.T) {
	eng, _, _ := testEngine(types.ModePaper, 0)
	dir := types.Long
	signal := types.Signal{
		Symbol: "BTC-USD", Direction: &dir,
		EntryPrice: floatPtr(100), StopLoss: floatPtr(95), TakeProfit1: floatPtr(110),
	}
	portfolio := &types.Portfolio{
		TotalEquity: decimal.NewFromFloat(10000),
		OpenPositions: []*types.Order{
			{ID: "existing", Symbol: "BTC-USD", Direction: types.Long, State: types.StateFilled},
		},
	}
	order, err := eng.ExecuteSignal(context.Background(), signal, portfolio, "paper", "sig-1")
	require.Error(t, err)
	assert.Nil(t, order)
}

func TestMonitorPositionsClosesOnStopLossHit(t *testing.T) {
	eng, router, store := testEngine(types.ModePaper, 0)
	paper := mustGetPaper(router)
	paper.SeedCandles("BTC-USD", []types.Candle{{Time: time.Now(), Close: 90}})

	order := &types.Order{
		ID: "o1", Symbol: "BTC-USD", BrokerID: "paper", Direction: types.Long, State: types.StateFilled,
		EntryPrice: decimal.NewFromFloat(100), StopLoss: decimal.NewFromFloat(95),
		TakeProfit1: decimal.NewFromFloat(110), Quantity: decimal.NewFromFloat(1), RemainingQuantity: decimal.NewFromFloat(1),
	}
	store.saved = append(store.saved, order)

	closed, err := eng.MonitorPositions(context.Background(), store, "paper")
	require.NoError(t, err)
	assert.Equal(t, 1, closed)
	assert.Equal(t, types.StateClosed, order.State)
}

func TestMonitorPositionsSimulatesFillThenTracksStage0Trail(t *testing.T) {
	eng, router, store := testEngine(types.ModePaper, 0)
	paper := mustGetPaper(router)
	paper.SeedCandles("BTC-USD", []types.Candle{{Time: time.Now(), Close: 105}})

	order := &types.Order{
		ID: "o1", Symbol: "BTC-USD", BrokerID: "paper", Direction: types.Long, State: types.StateSubmitted,
		EntryPrice: decimal.NewFromFloat(100), StopLoss: decimal.NewFromFloat(95),
		TakeProfit1: decimal.NewFromFloat(110), Quantity: decimal.NewFromFloat(1), RemainingQuantity: decimal.NewFromFloat(1),
	}
	store.saved = append(store.saved, order)

	_, err := eng.MonitorPositions(context.Background(), store, "paper")
	require.NoError(t, err)
	assert.Equal(t, types.StateFilled, order.State)

	// Next pass: ticker 105 is halfway from entry 100 to TP1 110, so the
	// stage-0 trail moves the stop to breakeven.
	_, err = eng.MonitorPositions(context.Background(), store, "paper")
	require.NoError(t, err)
	assert.Equal(t, 1, order.SLTrailStage)
	assert.True(t, order.StopLoss.Equal(decimal.NewFromFloat(100)))
}

func mustGetPaper(r *broker.Router) *broker.PaperAdapter {
	b, _ := r.GetByID("paper")
	return b.(*broker.PaperAdapter)
}
