// Package execution implements the Execution Engine (C8): the signal-to-order
// pipeline (spec §4.7), the position-lifecycle FSM wiring (spec §4.8, the FSM
// table itself lives in internal/types), and the position monitor (spec
// §4.9). Grounded on original_source/bot/layer3_execution/engine.py's
// ExecutionEngine class shape (the six/seven-step execute_signal pipeline,
// the monitor_open_positions batched-ticker-fetch idiom) and trader.go's
// updateRunnerTrail (the activate/raise/trigger progress-gated, monotonic
// trailing-stop idiom, generalized from USD-gated single-stage trailing to
// the spec's two-stage TP1/TP2 progress-ratio trailing).
package execution

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/google/uuid"

	"github.com/chidi150c/divergence-trader/internal/alert"
	"github.com/chidi150c/divergence-trader/internal/broker"
	"github.com/chidi150c/divergence-trader/internal/errs"
	"github.com/chidi150c/divergence-trader/internal/instruments"
	"github.com/chidi150c/divergence-trader/internal/risk"
	"github.com/chidi150c/divergence-trader/internal/types"
)

// OrderStore is the narrow persistence dependency the engine needs.
// Implemented by internal/storage.
type OrderStore interface {
	SaveOrder(order *types.Order) error
	UpdateOrder(order *types.Order) error
}

// Engine wires the risk manager, broker router, instrument registry, and
// alert transport into the execute_signal / position-monitor pipeline.
type Engine struct {
	Mode      types.TradingMode
	Router    *broker.Router
	Risk      *risk.Manager
	Registry  *instruments.Registry
	Alerts    alert.Transport
	Store     OrderStore
	TP1ClosePct float64
}

// ExecuteSignal is spec §4.7's execute_signal: admission check, optional
// reversal close, sizing, order construction, mode-dispatched submission,
// persistence, and alerting.
func (e *Engine) ExecuteSignal(ctx context.Context, signal types.Signal, portfolio *types.Portfolio, brokerID, signalID string) (*types.Order, error) {
	approved, reason := e.Risk.CheckEntry(signal, portfolio, brokerID, time.Now())
	if !approved {
		return nil, &errs.RiskRejection{Reason: reason}
	}

	if strings.HasPrefix(reason, "REVERSAL:") {
		oldID := strings.TrimPrefix(reason, "REVERSAL:")
		if old := findOrder(portfolio, oldID); old != nil {
			if err := e.closeOrder(ctx, old, brokerID, "reversal: closing for new signal"); err != nil {
				return nil, err
			}
		}
	}

	size := e.Risk.Size(signal, portfolio, brokerID)
	if !size.IsPositive() {
		return nil, nil
	}

	if signal.EntryPrice == nil || signal.StopLoss == nil || signal.TakeProfit1 == nil || signal.Direction == nil {
		return nil, nil
	}

	order := &types.Order{
		ID:               uuid.New().String(),
		SignalID:         signalID,
		Symbol:           signal.Symbol,
		BrokerID:         brokerID,
		Direction:        *signal.Direction,
		State:            types.StatePending,
		EntryPrice:       decimal.NewFromFloat(*signal.EntryPrice),
		StopLoss:         decimal.NewFromFloat(*signal.StopLoss),
		OriginalStopLoss: decimal.NewFromFloat(*signal.StopLoss),
		TakeProfit1:      decimal.NewFromFloat(*signal.TakeProfit1),
		Quantity:          size,
		RemainingQuantity: size,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}
	if signal.TakeProfit2 != nil {
		tp2 := decimal.NewFromFloat(*signal.TakeProfit2)
		order.TakeProfit2 = &tp2
	}
	if signal.TakeProfit3 != nil {
		tp3 := decimal.NewFromFloat(*signal.TakeProfit3)
		order.TakeProfit3 = &tp3
	}

	side := broker.SideBuy
	if *signal.Direction == types.Short {
		side = broker.SideSell
	}

	switch e.Mode {
	case types.ModeDev:
		e.Alerts.Send(fmt.Sprintf("DEV MODE: would place %s order for %s qty=%s", side, order.Symbol, order.Quantity.String()))
		return order, nil

	case types.ModePaper:
		order.ExchangeOrderID = fmt.Sprintf("paper-%s-%d", order.Symbol, time.Now().Unix())
		if err := order.Transition(types.StateSubmitted); err != nil {
			return nil, err
		}

	case types.ModeLive:
		b, ok := e.Router.GetByID(brokerID)
		if !ok {
			return nil, fmt.Errorf("execution: unknown broker %s", brokerID)
		}
		entryFloat, _ := order.EntryPrice.Float64()
		qtyFloat, _ := order.Quantity.Float64()
		ack, err := b.CreateLimitOrder(ctx, order.Symbol, side, qtyFloat, entryFloat)
		if err != nil {
			return e.onSubmitFailure(order, signalID, err)
		}
		order.ExchangeOrderID = ack.ID

		slSide := broker.SideSell
		if side == broker.SideSell {
			slSide = broker.SideBuy
		}
		stopFloat, _ := order.StopLoss.Float64()
		if _, err := b.CreateStopOrder(ctx, order.Symbol, slSide, qtyFloat, stopFloat); err != nil {
			return e.onSubmitFailure(order, signalID, err)
		}

		if err := order.Transition(types.StateSubmitted); err != nil {
			return nil, err
		}
	}

	if err := e.Store.SaveOrder(order); err != nil {
		return nil, &errs.DatabaseError{Op: "save_order", Err: err}
	}
	e.Alerts.Send(fmt.Sprintf("OPEN %s %s qty=%s entry=%s sl=%s tp1=%s", order.Direction, order.Symbol, order.Quantity.String(), order.EntryPrice.String(), order.StopLoss.String(), order.TakeProfit1.String()))

	return order, nil
}

func (e *Engine) onSubmitFailure(order *types.Order, signalID string, submitErr error) (*types.Order, error) {
	_ = order.Transition(types.StateError)
	e.Alerts.Send(fmt.Sprintf("ORDER ERROR %s: %v", order.Symbol, submitErr))
	order.SignalID = signalID
	if err := e.Store.SaveOrder(order); err != nil {
		// Persistence failure never masks the original submit error.
		e.Alerts.Send(fmt.Sprintf("failed to persist error order %s: %v", order.Symbol, err))
	}
	return nil, &errs.TransientBrokerError{Broker: order.BrokerID, Op: "submit_order", Err: submitErr}
}

func findOrder(portfolio *types.Portfolio, id string) *types.Order {
	for _, o := range portfolio.OpenPositions {
		if o.ID == id {
			return o
		}
	}
	return nil
}

// closeOrder closes the remainder of an order at the current ticker
// midpoint, computing realised PnL net of fees and transitioning the FSM to
// Closed.
func (e *Engine) closeOrder(ctx context.Context, order *types.Order, brokerID, note string) error {
	b, ok := e.Router.GetByID(brokerID)
	if !ok {
		return fmt.Errorf("execution: unknown broker %s", brokerID)
	}
	ticker, err := b.FetchTicker(ctx, order.Symbol)
	if err != nil {
		return &errs.TransientBrokerError{Broker: brokerID, Op: "fetch_ticker", Err: err}
	}
	exit := midpoint(ticker)
	return e.settleClose(order, brokerID, exit, note)
}

func midpoint(t broker.Ticker) float64 {
	if t.Bid > 0 && t.Ask > 0 {
		return (t.Bid + t.Ask) / 2
	}
	return t.Last
}

func (e *Engine) settleClose(order *types.Order, brokerID string, exitPrice float64, note string) error {
	exit := decimal.NewFromFloat(exitPrice)
	pnl := exit.Sub(order.EntryPrice)
	if order.Direction == types.Short {
		pnl = order.EntryPrice.Sub(exit)
	}
	pnl = pnl.Mul(order.RemainingQuantity)

	feeRate := e.feeRate(brokerID, order.Symbol)
	fees := decimal.Zero
	if feeRate > 0 {
		fees = order.EntryPrice.Add(exit).Mul(order.RemainingQuantity).Mul(decimal.NewFromFloat(feeRate))
	}

	order.RealizedPnL = order.RealizedPnL.Add(pnl.Sub(fees))
	order.Fees = order.Fees.Add(fees)
	order.RemainingQuantity = decimal.Zero

	target := types.StateClosed
	if order.State != types.StateFilled {
		// A Submitted order never reached Filled in this cycle; the FSM
		// requires passing through Filled before Closed.
		if err := order.Transition(types.StateFilled); err != nil {
			return err
		}
	}
	if err := order.Transition(target); err != nil {
		return err
	}
	now := time.Now()
	order.ClosedAt = &now
	order.FilledPrice = &exit

	if err := e.Store.UpdateOrder(order); err != nil {
		return &errs.DatabaseError{Op: "update_order", Err: err}
	}
	e.Alerts.Send(fmt.Sprintf("CLOSE %s %s %s qty=%s pnl=%s (%s)", order.Direction, order.Symbol, order.State, order.Quantity.String(), order.RealizedPnL.String(), note))
	return nil
}

func (e *Engine) feeRate(brokerID, symbol string) float64 {
	if e.Registry == nil {
		return 0
	}
	inst, err := e.Registry.Get(brokerID, symbol)
	if err != nil {
		return 0
	}
	return inst.FeeRate
}
