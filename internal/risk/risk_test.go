package risk

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chidi150c/divergence-trader/internal/config"
	"github.com/chidi150c/divergence-trader/internal/instruments"
	"github.com/chidi150c/divergence-trader/internal/types"
)

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func TestSizeCryptoCapsAtTenPercentNotional(t *testing.T) {
	size := SizeCrypto(d(10000), d(2), d(100), d(99)) // 2% of equity risk pct
	// risk_amount=200, stop_distance=1 -> 200 units, but capped at 0.10*10000/100=10
	assert.True(t, size.Equal(d(10)))
}

func TestSizeCryptoZeroOnZeroStopDistance(t *testing.T) {
	size := SizeCrypto(d(10000), d(2), d(100), d(100))
	assert.True(t, size.IsZero())
}

func TestSizePipBasedFloorsToInteger(t *testing.T) {
	inst := instruments.Instrument{
		AssetClass: types.Forex, PipSize: 0.0001, PipValuePerUnit: 0.0001,
		MaxLeverage: 30, QuoteCurrency: "USD",
	}
	size := SizePipBased(d(10000), d(1), d(1.10), d(1.095), inst)
	assert.True(t, size.Equal(size.Floor()))
}

func TestCircuitBreakerDailyResetsOnNewUTCDay(t *testing.T) {
	cb := &CircuitBreaker{}
	day1 := time.Date(2026, 1, 1, 23, 0, 0, 0, time.UTC)
	cb.TripDaily("loss", day1)
	active, _ := cb.Active()
	require.True(t, active)

	day2 := time.Date(2026, 1, 2, 0, 5, 0, 0, time.UTC)
	cb.CheckRollover(day2)
	active, _ = cb.Active()
	assert.False(t, active)
}

func TestCircuitBreakerDrawdownRequiresManualReset(t *testing.T) {
	cb := &CircuitBreaker{}
	cb.TripDrawdown("drawdown")
	cb.CheckRollover(time.Now())
	active, _ := cb.Active()
	require.True(t, active)
	cb.ResetDrawdown()
	active, _ = cb.Active()
	assert.False(t, active)
}

func testRegistry() *instruments.Registry {
	reg := instruments.NewRegistry("paper")
	reg.Register(instruments.Instrument{Symbol: "BTC-USD", BrokerID: "paper", AssetClass: types.Crypto})
	return reg
}

func TestCheckEntryApprovesCleanPortfolio(t *testing.T) {
	cfg := config.RiskConfig{MaxDailyLossPct: 5, MaxOpenPositions: 5, BrokerOverrides: map[string]config.RiskOverride{}}
	m := NewManager(cfg, testRegistry())
	dir := types.Long
	sig := types.Signal{Symbol: "BTC-USD", Direction: &dir}
	portfolio := &types.Portfolio{TotalEquity: d(10000)}
	approved, reason := m.CheckEntry(sig, portfolio, "paper", time.Now())
	require.True(t, approved)
	assert.Equal(t, "all risk checks passed", reason)
}

func TestCheckEntryRejectsSameSymbolSameDirection(t *testing.T) {
	cfg := config.RiskConfig{MaxDailyLossPct: 5, MaxOpenPositions: 5, BrokerOverrides: map[string]config.RiskOverride{}}
	m := NewManager(cfg, testRegistry())
	dir := types.Long
	sig := types.Signal{Symbol: "BTC-USD", Direction: &dir}
	portfolio := &types.Portfolio{
		TotalEquity: d(10000),
		OpenPositions: []*types.Order{
			{ID: "o1", Symbol: "BTC-USD", Direction: types.Long, State: types.StateFilled},
		},
	}
	approved, _ := m.CheckEntry(sig, portfolio, "paper", time.Now())
	assert.False(t, approved)
}

func TestCheckEntryApprovesReversalOnOppositeDirection(t *testing.T) {
	cfg := config.RiskConfig{MaxDailyLossPct: 5, MaxOpenPositions: 5, BrokerOverrides: map[string]config.RiskOverride{}}
	m := NewManager(cfg, testRegistry())
	dir := types.Short
	sig := types.Signal{Symbol: "BTC-USD", Direction: &dir}
	portfolio := &types.Portfolio{
		TotalEquity: d(10000),
		OpenPositions: []*types.Order{
			{ID: "o1", Symbol: "BTC-USD", Direction: types.Long, State: types.StateFilled},
		},
	}
	approved, reason := m.CheckEntry(sig, portfolio, "paper", time.Now())
	require.True(t, approved)
	assert.Equal(t, "REVERSAL:o1", reason)
}

func TestCheckEntryRejectsMaxOpenPositions(t *testing.T) {
	cfg := config.RiskConfig{MaxDailyLossPct: 5, MaxOpenPositions: 1, BrokerOverrides: map[string]config.RiskOverride{}}
	m := NewManager(cfg, testRegistry())
	dir := types.Long
	sig := types.Signal{Symbol: "ETH-USD", Direction: &dir}
	portfolio := &types.Portfolio{
		TotalEquity: d(10000),
		OpenPositions: []*types.Order{
			{ID: "o1", Symbol: "BTC-USD", Direction: types.Long, State: types.StateFilled},
		},
	}
	approved, _ := m.CheckEntry(sig, portfolio, "paper", time.Now())
	assert.False(t, approved)
}

func TestCheckEntryTripsDailyBreakerOnLossLimit(t *testing.T) {
	cfg := config.RiskConfig{MaxDailyLossPct: 5, MaxOpenPositions: 5, BrokerOverrides: map[string]config.RiskOverride{}}
	m := NewManager(cfg, testRegistry())
	dir := types.Long
	sig := types.Signal{Symbol: "BTC-USD", Direction: &dir}
	portfolio := &types.Portfolio{TotalEquity: d(10000), DailyPnL: d(-600)} // 6% loss
	approved, _ := m.CheckEntry(sig, portfolio, "paper", time.Now())
	require.False(t, approved)

	// breaker should now stay tripped on a subsequent check even with healthy PnL
	portfolio2 := &types.Portfolio{TotalEquity: d(10000), DailyPnL: d(0)}
	approved2, reason2 := m.CheckEntry(sig, portfolio2, "paper", time.Now())
	assert.False(t, approved2)
	assert.Contains(t, reason2, "circuit breaker active")
}
