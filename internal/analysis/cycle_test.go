package analysis

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
	"github.com/chidi150c/divergence-trader/internal/execution"
	"github.com/chidi150c/divergence-trader/internal/instruments"
	"github.com/chidi150c/divergence-trader/internal/multitf"
	"github.com/chidi150c/divergence-trader/internal/risk"
	"github.com/chidi150c/divergence-trader/internal/types"
)

// fakeBroker is a minimal broker.Broker stub returning a fixed candle series.
type fakeBroker struct {
	id      string
	candles []types.Candle
	ticker  broker.Ticker
}

func (f *fakeBroker) BrokerID() string { return f.id }
func (f *fakeBroker) FetchOHLCV(ctx context.Context, symbol string, tf types.Timeframe, limit int) ([]types.Candle, error) {
	return f.candles, nil
}
func (f *fakeBroker) FetchTicker(ctx context.Context, symbol string) (broker.Ticker, error) {
	return f.ticker, nil
}
func (f *fakeBroker) FetchBalance(ctx context.Context) (broker.Balance, error) { return broker.Balance{}, nil }
func (f *fakeBroker) CreateLimitOrder(ctx context.Context, symbol string, side broker.Side, amount, price float64) (broker.OrderAck, error) {
	return broker.OrderAck{ID: "ack-1"}, nil
}
func (f *fakeBroker) CreateStopOrder(ctx context.Context, symbol string, side broker.Side, amount, stopPrice float64) (broker.OrderAck, error) {
	return broker.OrderAck{ID: "ack-2"}, nil
}
func (f *fakeBroker) CancelOrder(ctx context.Context, orderID, symbol string) (broker.OrderAck, error) {
	return broker.OrderAck{}, nil
}
func (f *fakeBroker) CheckConnectivity(ctx context.Context) error { return nil }
func (f *fakeBroker) Close() error                                { return nil }

// fakeStore satisfies analysis.Store (and execution.OrderStore, which the
// Engine under test also needs) with in-memory slices.
type fakeStore struct {
	signals   []PersistedSignal
	snapshots int
	cycles    []Result
	open      map[string][]*types.Order
	peak      map[string]decimal.Decimal
	orders    []*types.Order
}

func newFakeStore() *fakeStore {
	return &fakeStore{open: make(map[string][]*types.Order), peak: make(map[string]decimal.Decimal)}
}

func (s *fakeStore) OpenPositions(brokerID string) ([]*types.Order, error) { return s.open[brokerID], nil }
func (s *fakeStore) RealizedPnLSince(brokerID string, since time.Time) (decimal.Decimal, error) {
	return decimal.Zero, nil
}
func (s *fakeStore) PeakEquity(brokerID string) (decimal.Decimal, error) { return s.peak[brokerID], nil }
func (s *fakeStore) UpsertCandles(symbol string, tf types.Timeframe, candles []types.Candle) error {
	return nil
}
func (s *fakeStore) SetPeakEquity(brokerID string, equity decimal.Decimal) error {
	s.peak[brokerID] = equity
	return nil
}
func (s *fakeStore) RecordCircuitBreakerEvent(brokerID string, state types.CircuitBreakerState, reason string) error {
	return nil
}
func (s *fakeStore) SaveSignal(sig PersistedSignal) error {
	s.signals = append(s.signals, sig)
	return nil
}
func (s *fakeStore) SavePortfolioSnapshot(brokerID string, portfolio *types.Portfolio, at time.Time) error {
	s.snapshots++
	return nil
}
func (s *fakeStore) SaveCycleResult(result Result) error {
	s.cycles = append(s.cycles, result)
	return nil
}
func (s *fakeStore) SaveOrder(o *types.Order) error   { s.orders = append(s.orders, o); return nil }
func (s *fakeStore) UpdateOrder(o *types.Order) error { return nil }

// stubDetector always reports the same validated-shape bullish signal,
// mirroring internal/validator's validSignal() fixture so the full
// detect->validate->execute chain exercises without fighting rule
// thresholds unrelated to this package's own logic.
type stubDetector struct{ hit bool }

func (d *stubDetector) Detect(ctx context.Context, candles []types.Candle, set *types.IndicatorSet, symbol string, tf types.Timeframe) (types.Signal, error) {
	if !d.hit {
		return types.Signal{}, nil
	}
	dir := types.Long
	entry, stop, tp1 := 100.0, 95.0, 110.0
	return types.Signal{
		DivergenceDetected:   true,
		Direction:            &dir,
		Confidence:           0.7,
		EntryPrice:           &entry,
		StopLoss:             &stop,
		TakeProfit1:          &tp1,
		Indicator:            "MACD_HISTOGRAM",
		ConfirmingIndicators: []string{"RSI", "MACD_HISTOGRAM"},
		SwingLengthBars:      8,
		DivergenceMagnitude:  10,
		Symbol:               symbol,
		Timeframe:            tf,
	}, nil
}

// testCandles builds a flat series with a hammer-shaped final candle, so the
// validator's candle-reversal gate (which requires a matching pattern in the
// lookback window) clears the same way validator_test.go's validSignal()
// fixture primes its hammer series.
func testCandles(n int) []types.Candle {
	out := make([]types.Candle, n)
	base := time.Now().Add(-time.Duration(n) * time.Hour)
	for i := range out {
		out[i] = types.Candle{Time: base.Add(time.Duration(i) * time.Hour), Open: 100, High: 101, Low: 99, Close: 100, Volume: 1000}
	}
	last := &out[n-1]
	last.Open, last.Close, last.High, last.Low = 100, 100.5, 100.6, 97
	return out
}

func baseConfig() config.Config {
	return config.Config{
		Symbols:         []string{"BTC-USD"},
		Timeframes:      []types.Timeframe{types.TF1h},
		LookbackCandles: 20,
		Risk: config.RiskConfig{
			MaxPositionPct: 2, MaxDailyLossPct: 5, MaxDrawdownPct: 20, MaxOpenPositions: 5,
			MinRiskReward: 1.5, MinConfidence: 0.55, BrokerOverrides: map[string]config.RiskOverride{},
		},
		Validator: config.ValidatorConfig{
			MinConfirmingIndicators: 2, MinSwingBars4h: 3, MinSwingBars1h: 5,
			MinDivergenceMagnitudeRSI: 3.0, VolumeLowThreshold: 0.5, CandleGateLookback: 5,
		},
		Brokers: map[string]config.BrokerConfig{
			"paper": {ID: "paper", StartingEquity: 10000},
		},
	}
}

func buildCycle(t *testing.T, det *stubDetector) (*Cycle, *fakeStore, *fakeBroker) {
	t.Helper()
	return buildCycleWithConfig(t, det, baseConfig())
}

func buildCycleWithConfig(t *testing.T, det *stubDetector, cfg config.Config) (*Cycle, *fakeStore, *fakeBroker) {
	t.Helper()
	reg := instruments.NewRegistry("paper")
	reg.Register(instruments.Instrument{Symbol: "BTC-USD", BrokerID: "paper", AssetClass: types.Crypto, FeeRate: 0.001})

	fb := &fakeBroker{id: "paper", candles: testCandles(25), ticker: broker.Ticker{Last: 100, Bid: 99.9, Ask: 100.1}}

	router := broker.NewRouter()
	router.Register(fb)

	store := newFakeStore()
	riskMgr := risk.NewManager(cfg.Risk, reg)
	eng := &execution.Engine{Mode: types.ModePaper, Router: router, Risk: riskMgr, Registry: reg, Alerts: alert.New(""), Store: store}

	c := &Cycle{
		Config: cfg, Router: router, Registry: reg, Detector: det, Risk: riskMgr,
		Execution: eng, MultiTF: multitf.NewStore(), Store: store, Alerts: alert.New(""),
	}
	return c, store, fb
}

func TestRunExecutesValidatedSignalEndToEnd(t *testing.T) {
	c, store, _ := buildCycle(t, &stubDetector{hit: true})

	result := c.Run(context.Background())

	assert.Equal(t, 1, result.Evaluated)
	assert.Equal(t, 1, result.Validated)
	assert.Equal(t, 1, result.Executed)
	assert.Contains(t, result.TradedSymbols, "BTC-USD")
	require.Len(t, store.signals, 1)
	assert.True(t, store.signals[0].Validated)
	assert.Equal(t, 1, store.snapshots)
	require.Len(t, store.cycles, 1)
}

func TestRunSkipsInsufficientData(t *testing.T) {
	c, store, fb := buildCycle(t, &stubDetector{hit: true})
	fb.candles = testCandles(2)

	result := c.Run(context.Background())
	assert.Equal(t, 0, result.Evaluated)
	require.NotEmpty(t, result.Errors)
	assert.Empty(t, store.signals)
}

func TestRunDedupesSameClosedCandleAcrossCycles(t *testing.T) {
	c, _, _ := buildCycle(t, &stubDetector{hit: true})

	first := c.Run(context.Background())
	second := c.Run(context.Background())

	assert.Equal(t, 1, first.Evaluated)
	assert.Equal(t, 0, second.Evaluated, "same closed candle must not re-evaluate within the dedup window")
}

func TestMultiTFFourHourSignalCreatesSetupWithoutExecuting(t *testing.T) {
	cfg := baseConfig()
	cfg.Timeframes = []types.Timeframe{types.TF4h}
	cfg.MultiTF.UseMultiTFConfirmation = true
	cfg.MultiTF.SetupExpiryHours = 12

	c, _, _ := buildCycleWithConfig(t, &stubDetector{hit: true}, cfg)

	result := c.Run(context.Background())
	assert.Equal(t, 0, result.Executed, "a 4h signal only retains a setup, it never executes directly")

	_, ok := c.MultiTF.Match("paper", "BTC-USD", types.Long)
	assert.True(t, ok, "the 4h signal must be retained as an ActiveSetup")
}

func TestMultiTFOneHourConfirmationExecutesRetainedSetup(t *testing.T) {
	cfg := baseConfig()
	cfg.Timeframes = []types.Timeframe{types.TF1h}
	cfg.MultiTF.UseMultiTFConfirmation = true
	cfg.MultiTF.SetupExpiryHours = 12

	c, _, _ := buildCycleWithConfig(t, &stubDetector{hit: true}, cfg)
	long := types.Long
	entry4h, stop4h := 98.0, 90.0
	c.MultiTF.Put(types.ActiveSetup{
		BrokerID: "paper", Symbol: "BTC-USD", Direction: types.Long,
		Signal:    types.Signal{Direction: &long, EntryPrice: &entry4h, StopLoss: &stop4h},
		ExpiresAt: time.Now().Add(time.Hour),
	})

	result := c.Run(context.Background())
	assert.Equal(t, 1, result.Executed, "a matching 1h signal must consume the setup and execute")

	_, ok := c.MultiTF.Match("paper", "BTC-USD", types.Long)
	assert.False(t, ok, "the consumed setup must be removed")
}
