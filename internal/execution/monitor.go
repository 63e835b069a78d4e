package execution

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/chidi150c/divergence-trader/internal/broker"
	"github.com/chidi150c/divergence-trader/internal/errs"
	"github.com/chidi150c/divergence-trader/internal/types"
)

// OpenOrderStore is the query dependency the position monitor needs, beyond
// the narrower OrderStore write path Engine already has.
type OpenOrderStore interface {
	OpenOrdersByBroker(brokerID string) ([]*types.Order, error)
}

// MonitorPositions runs one pass of spec §4.9's position monitor for a
// single broker: batched-by-symbol ticker fetch, Submitted→Filled
// simulation, stage-0 pre-TP1 trailing / SL / TP1 handling, and stage-1
// trailing-to-TP2. Returns the number of orders closed this pass.
func (e *Engine) MonitorPositions(ctx context.Context, store OpenOrderStore, brokerID string) (int, error) {
	orders, err := store.OpenOrdersByBroker(brokerID)
	if err != nil {
		return 0, &errs.DatabaseError{Op: "open_orders_by_broker", Err: err}
	}
	if len(orders) == 0 {
		return 0, nil
	}

	b, ok := e.Router.GetByID(brokerID)
	if !ok {
		return 0, fmt.Errorf("execution: unknown broker %s", brokerID)
	}

	tickers := make(map[string]broker.Ticker)
	for _, o := range orders {
		if _, ok := tickers[o.Symbol]; ok {
			continue
		}
		t, err := b.FetchTicker(ctx, o.Symbol)
		if err != nil {
			continue // ticker fetch failures skip that symbol's orders this pass
		}
		tickers[o.Symbol] = t
	}

	closed := 0
	for _, o := range orders {
		ticker, ok := tickers[o.Symbol]
		if !ok {
			continue
		}
		current := ticker.Last

		if o.State == types.StateSubmitted {
			entryFloat, _ := o.EntryPrice.Float64()
			current = entryFloat
			if err := o.Transition(types.StateFilled); err != nil {
				continue
			}
			if err := e.Store.UpdateOrder(o); err != nil {
				e.Alerts.Send(fmt.Sprintf("failed to persist fill for %s: %v", o.Symbol, err))
			}
		}

		if o.State != types.StateFilled && o.State != types.StatePartiallyFilled {
			continue
		}

		didClose, err := e.processStage(ctx, o, brokerID, current)
		if err != nil {
			e.Alerts.Send(fmt.Sprintf("position monitor error for %s: %v", o.Symbol, err))
			continue
		}
		if didClose {
			closed++
		}
	}

	return closed, nil
}

func (e *Engine) processStage(ctx context.Context, o *types.Order, brokerID string, current float64) (bool, error) {
	if o.TPStage == 0 {
		return e.processStage0(o, brokerID, current)
	}
	return e.processStage1(o, brokerID, current)
}

func isLong(dir types.Direction) bool { return dir == types.Long }

func (e *Engine) processStage0(o *types.Order, brokerID string, current float64) (bool, error) {
	entry, _ := o.EntryPrice.Float64()
	sl, _ := o.StopLoss.Float64()
	tp1, _ := o.TakeProfit1.Float64()
	long := isLong(o.Direction)

	// Pre-TP1 trailing stop, only while no partial-TP policy is in effect —
	// once tp1_close_pct > 0 the TP1-hit branch below handles the breakeven
	// move instead, matching spec §4.9's "only when partial TP disabled" note.
	if e.TP1ClosePct <= 0 && tp1 != entry {
		progress := (current - entry) / (tp1 - entry)
		if !long {
			progress = -progress
		}
		e.applyStage0Trail(o, progress, entry, tp1, long)
		sl, _ = o.StopLoss.Float64()
	}

	hitSL := (long && current <= sl) || (!long && current >= sl)
	hitTP := (long && current >= tp1) || (!long && current <= tp1)

	switch {
	case hitSL:
		return true, e.settleClose(o, brokerID, current, "stop loss")
	case hitTP:
		if e.TP1ClosePct > 0 && o.TakeProfit2 != nil {
			return false, e.partialCloseTP1(o, brokerID, current)
		}
		return true, e.settleClose(o, brokerID, current, "take profit 1")
	}
	return false, nil
}

func (e *Engine) applyStage0Trail(o *types.Order, progress, entry, tp1 float64, long bool) {
	if progress >= 0.50 && o.SLTrailStage < 1 {
		o.StopLoss = decimal.NewFromFloat(entry)
		o.SLTrailStage = 1
	}
	if progress >= 0.75 && o.SLTrailStage < 2 {
		offset := 0.25 * (tp1 - entry)
		level := entry + offset
		if !long {
			level = entry - offset
		}
		o.StopLoss = decimal.NewFromFloat(level)
		o.SLTrailStage = 2
	}
}

func (e *Engine) partialCloseTP1(o *types.Order, brokerID string, exitPrice float64) error {
	closeQty := o.RemainingQuantity.Mul(decimal.NewFromFloat(e.TP1ClosePct))
	exit := decimal.NewFromFloat(exitPrice)

	pnl := exit.Sub(o.EntryPrice)
	if o.Direction == types.Short {
		pnl = o.EntryPrice.Sub(exit)
	}
	pnl = pnl.Mul(closeQty)

	feeRate := e.feeRate(brokerID, o.Symbol)
	fees := decimal.Zero
	if feeRate > 0 {
		fees = o.EntryPrice.Add(exit).Mul(closeQty).Mul(decimal.NewFromFloat(feeRate))
	}

	o.RealizedPnL = o.RealizedPnL.Add(pnl.Sub(fees))
	o.Fees = o.Fees.Add(fees)
	o.RemainingQuantity = o.RemainingQuantity.Sub(closeQty)
	o.StopLoss = o.EntryPrice
	o.TPStage = 1

	if err := e.Store.UpdateOrder(o); err != nil {
		return &errs.DatabaseError{Op: "update_order", Err: err}
	}
	e.Alerts.Send(fmt.Sprintf("PARTIAL CLOSE %s %s qty=%s remaining=%s", o.Direction, o.Symbol, closeQty.String(), o.RemainingQuantity.String()))
	return nil
}

func (e *Engine) processStage1(o *types.Order, brokerID string, current float64) (bool, error) {
	if o.TakeProfit2 == nil {
		return false, nil
	}
	entry, _ := o.EntryPrice.Float64()
	tp1, _ := o.TakeProfit1.Float64()
	tp2, _ := o.TakeProfit2.Float64()
	sl, _ := o.StopLoss.Float64()
	long := isLong(o.Direction)

	if tp2 != entry {
		progress := (current - entry) / (tp2 - entry)
		if !long {
			progress = -progress
		}
		e.applyStage1Trail(o, progress, tp1, tp2, long)
		sl, _ = o.StopLoss.Float64()
	}

	hitSL := (long && current <= sl) || (!long && current >= sl)
	hitTP2 := (long && current >= tp2) || (!long && current <= tp2)

	switch {
	case hitSL:
		return true, e.settleClose(o, brokerID, current, "stop loss (runner)")
	case hitTP2:
		return true, e.settleClose(o, brokerID, current, "take profit 2")
	}
	return false, nil
}

func (e *Engine) applyStage1Trail(o *types.Order, progress, tp1, tp2 float64, long bool) {
	currentSL, _ := o.StopLoss.Float64()

	if progress >= 0.50 {
		candidate := tp1
		if improves(candidate, currentSL, long) {
			o.StopLoss = decimal.NewFromFloat(candidate)
			currentSL = candidate
		}
	}
	if progress >= 0.75 {
		offset := 0.25 * (tp2 - tp1)
		candidate := tp1 + offset
		if !long {
			candidate = tp1 - offset
		}
		if improves(candidate, currentSL, long) {
			o.StopLoss = decimal.NewFromFloat(candidate)
		}
	}
}

// improves reports whether candidate is a monotonic improvement over current
// for the given direction (higher for Long, lower for Short).
func improves(candidate, current float64, long bool) bool {
	if long {
		return candidate > current
	}
	return candidate < current
}
