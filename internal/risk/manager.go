// Package risk implements the Risk Manager (C7): the admission gate
// (check_entry), position sizing dispatch, portfolio reconstruction, and the
// circuit breaker state machine from spec §4.6. Grounded on
// original_source/bot/layer4_risk/manager.py's RiskManager class shape
// (settings-driven hard-coded rules, "no signal overrides these"),
// generalized from its single-broker/crypto-only checks to the spec's
// multi-broker, multi-asset-class admission sequence.
package risk

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chidi150c/divergence-trader/internal/config"
	"github.com/chidi150c/divergence-trader/internal/instruments"
	"github.com/chidi150c/divergence-trader/internal/types"
)

// Manager runs admission checks and sizing for every broker. One Manager is
// shared across brokers; circuit breaker state is tracked per broker id.
type Manager struct {
	cfg       config.RiskConfig
	registry  *instruments.Registry

	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

func NewManager(cfg config.RiskConfig, registry *instruments.Registry) *Manager {
	return &Manager{cfg: cfg, registry: registry, breakers: make(map[string]*CircuitBreaker)}
}

func (m *Manager) breakerFor(brokerID string) *CircuitBreaker {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.breakers[brokerID]
	if !ok {
		b = &CircuitBreaker{}
		m.breakers[brokerID] = b
	}
	return b
}

// Breaker exposes the per-broker circuit breaker for manual reset (e.g. an
// operator endpoint resetting a drawdown trip).
func (m *Manager) Breaker(brokerID string) *CircuitBreaker { return m.breakerFor(brokerID) }

var activeStates = map[types.OrderState]bool{
	types.StateSubmitted:       true,
	types.StateFilled:          true,
	types.StatePartiallyFilled: true,
}

// CheckEntry runs the six-step admission sequence from spec §4.6 and returns
// (approved, reason). A reason of the form "REVERSAL:<order_id>" means the
// execution engine must close the named existing position before opening the
// new one.
func (m *Manager) CheckEntry(signal types.Signal, portfolio *types.Portfolio, brokerID string, now time.Time) (bool, string) {
	breaker := m.breakerFor(brokerID)

	// Step 1: day-rollover auto-reset.
	breaker.CheckRollover(now)

	// Step 2: circuit breaker / kill switch.
	if active, reason := breaker.Active(); active {
		return false, "circuit breaker active: " + reason
	}

	// Step 3: daily loss limit.
	if portfolio.TotalEquity.IsPositive() && portfolio.DailyPnL.IsNegative() {
		lossPct := portfolio.DailyPnL.Abs().Div(portfolio.TotalEquity).Mul(decimal.NewFromInt(100))
		maxLoss := decimal.NewFromFloat(m.cfg.MaxDailyLossPct)
		if lossPct.GreaterThanOrEqual(maxLoss) {
			reason := fmt.Sprintf("daily loss %s%% exceeds %s%% limit", lossPct.StringFixed(1), maxLoss.StringFixed(1))
			breaker.TripDaily(reason, now)
			return false, "circuit breaker active: " + reason
		}
	}

	// Step 4: same-symbol check — reject same direction, approve reversal on
	// opposite direction.
	for _, p := range portfolio.OpenPositions {
		if !activeStates[p.State] || p.Symbol != signal.Symbol {
			continue
		}
		if signal.Direction != nil && p.Direction == *signal.Direction {
			return false, fmt.Sprintf("already have an open %s position on %s", p.Direction, signal.Symbol)
		}
		return true, "REVERSAL:" + p.ID
	}

	// Step 5: per-broker open-position cap.
	openCount := 0
	for _, p := range portfolio.OpenPositions {
		if activeStates[p.State] {
			openCount++
		}
	}
	maxOpen := m.cfg.EffectiveMaxOpenPositions(brokerID)
	if openCount >= maxOpen {
		return false, fmt.Sprintf("max open positions (%d) reached (%d open)", maxOpen, openCount)
	}

	// Step 6: asset-class correlation limit.
	if signal.Direction != nil && m.registry != nil {
		if inst, err := m.registry.Get(brokerID, signal.Symbol); err == nil {
			limit := instruments.CorrelationLimit(inst.AssetClass)
			count := 0
			for _, p := range portfolio.OpenPositions {
				if !activeStates[p.State] || p.Direction != *signal.Direction {
					continue
				}
				if other, err := m.registry.Get(brokerID, p.Symbol); err == nil && other.AssetClass == inst.AssetClass {
					count++
				}
			}
			if count >= limit {
				return false, fmt.Sprintf("correlation limit: %d %s %s positions already open (max %d)", count, string(*signal.Direction), strings.ToLower(string(inst.AssetClass)), limit)
			}
		}
	}

	return true, "all risk checks passed"
}

// Size dispatches to the crypto or pip-based sizing formula for the signal's
// instrument.
func (m *Manager) Size(signal types.Signal, portfolio *types.Portfolio, brokerID string) decimal.Decimal {
	if m.registry == nil {
		return decimal.Zero
	}
	inst, err := m.registry.Get(brokerID, signal.Symbol)
	if err != nil {
		return decimal.Zero
	}
	return PositionSize(signal, portfolio.TotalEquity, m.cfg.MaxPositionPct, inst)
}
