// Package analysis implements the Analysis Cycle (C9): the per-tick
// orchestration of every other component, spec §4.10. Grounded on live.go's
// runLive ticker-driven loop (fetch -> compute -> decide -> act),
// generalized from a single symbol/timeframe pair to the full
// multi-broker/multi-symbol/multi-timeframe matrix, with the candle-dedup
// caches kept as teacher-style package-level (here: struct-level) maps
// rather than reaching for a database round-trip on every cycle.
package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chidi150c/divergence-trader/internal/alert"
	"github.com/chidi150c/divergence-trader/internal/broker"
	"github.com/chidi150c/divergence-trader/internal/config"
	"github.com/chidi150c/divergence-trader/internal/detector"
	"github.com/chidi150c/divergence-trader/internal/execution"
	"github.com/chidi150c/divergence-trader/internal/indicators"
	"github.com/chidi150c/divergence-trader/internal/instruments"
	"github.com/chidi150c/divergence-trader/internal/multitf"
	"github.com/chidi150c/divergence-trader/internal/risk"
	"github.com/chidi150c/divergence-trader/internal/types"
	"github.com/chidi150c/divergence-trader/internal/validator"
)

// PersistedSignal is the row shape the analysis cycle hands to storage for
// every evaluated (symbol, timeframe) signal, spec §6's "signals" table.
type PersistedSignal struct {
	ID         string
	BrokerID   string
	Symbol     string
	Timeframe  types.Timeframe
	Signal     types.Signal
	Validated  bool
	Reason     string
	CreatedAt  time.Time
}

// Result is the AnalysisCycleResult spec §4.10 step 5 persists.
type Result struct {
	StartedAt     time.Time
	CompletedAt   time.Time
	TradedSymbols []string
	Evaluated     int
	Validated     int
	Executed      int
	Errors        []string
}

// Store is the narrow persistence surface the cycle needs beyond the
// risk/execution packages' own store interfaces. Implemented by
// internal/storage.
type Store interface {
	risk.PortfolioStore
	UpsertCandles(symbol string, tf types.Timeframe, candles []types.Candle) error
	SaveSignal(sig PersistedSignal) error
	SavePortfolioSnapshot(brokerID string, portfolio *types.Portfolio, at time.Time) error
	SaveCycleResult(result Result) error
}

// idGenerator lets tests supply a deterministic id sequence; when NewID is
// nil, Cycle's default is "sig-" followed by the current Unix nanoseconds.
type idGenerator func() string

// Cycle runs one pass of every (broker, symbol, timeframe) combination.
type Cycle struct {
	Config     config.Config
	Router     *broker.Router
	Registry   *instruments.Registry
	Detector   detector.Detector
	Risk       *risk.Manager
	Execution  *execution.Engine
	MultiTF    *multitf.Store
	Store      Store
	Alerts     alert.Transport
	NewID      idGenerator

	// lastCandleTimes/signaledCandles are process-local, single-writer caches
	// keyed "symbol/timeframe" — spec §4.10.c/d. Written and read only by
	// Run, so no mutex is needed (ordering guarantee per spec §5).
	lastCandleTimes map[string]int64
	signaledCandles map[string]int64
}

func key(symbol string, tf types.Timeframe) string {
	return symbol + "/" + string(tf)
}

// SeedCandleCache performs spec §4.10's startup seeding: one limit=1 OHLCV
// fetch per (broker, symbol, timeframe) so the first real cycle does not
// treat the prevailing candle as newly closed.
func (c *Cycle) SeedCandleCache(ctx context.Context) {
	if c.lastCandleTimes == nil {
		c.lastCandleTimes = make(map[string]int64)
		c.signaledCandles = make(map[string]int64)
	}
	for _, b := range c.Router.All() {
		for _, symbol := range c.symbolsFor(b.BrokerID()) {
			for _, tf := range c.Config.Timeframes {
				candles, err := b.FetchOHLCV(ctx, symbol, tf, 1)
				if err != nil || len(candles) == 0 {
					continue
				}
				c.lastCandleTimes[key(symbol, tf)] = candles[len(candles)-1].Time.Unix()
			}
		}
	}
}

func (c *Cycle) symbolsFor(brokerID string) []string {
	if bc, ok := c.Config.Brokers[brokerID]; ok && len(bc.Instruments) > 0 {
		return bc.Instruments
	}
	return c.Config.Symbols
}

func (c *Cycle) newID() string {
	if c.NewID != nil {
		return c.NewID()
	}
	return fmt.Sprintf("sig-%d", time.Now().UnixNano())
}

// Run executes one analysis cycle across every registered broker, per spec
// §4.10 steps 1-5.
func (c *Cycle) Run(ctx context.Context) Result {
	if c.lastCandleTimes == nil {
		c.lastCandleTimes = make(map[string]int64)
		c.signaledCandles = make(map[string]int64)
	}

	result := Result{StartedAt: time.Now()}
	now := result.StartedAt

	for _, b := range c.Router.All() {
		brokerID := b.BrokerID()

		portfolio, err := c.snapshotPortfolio(brokerID, now)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("portfolio reconstruction failed for %s: %v", brokerID, err))
			continue
		}

		c.MultiTF.ExpireBefore(now)

		tradedSymbols := make(map[string]bool)
		for _, symbol := range c.symbolsFor(brokerID) {
			for _, tf := range c.Config.Timeframes {
				c.runOne(ctx, b, brokerID, symbol, tf, portfolio, tradedSymbols, &result)
			}
		}

		for s := range tradedSymbols {
			result.TradedSymbols = append(result.TradedSymbols, s)
		}
	}

	result.CompletedAt = time.Now()
	if err := c.Store.SaveCycleResult(result); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to persist cycle result: %v", err))
	}
	return result
}

func (c *Cycle) snapshotPortfolio(brokerID string, now time.Time) (*types.Portfolio, error) {
	bc := c.Config.Brokers[brokerID]
	startingEquity := decimal.NewFromFloat(bc.StartingEquity)
	portfolio, err := c.Risk.ReconstructPortfolio(c.Store, brokerID, startingEquity, c.Config.Risk.MaxDrawdownPct, now)
	if err != nil {
		return nil, err
	}
	if err := c.Store.SavePortfolioSnapshot(brokerID, portfolio, now); err != nil {
		return nil, err
	}
	return portfolio, nil
}

// runOne runs spec §4.10 steps 4a-4l for a single (broker, symbol, timeframe).
func (c *Cycle) runOne(ctx context.Context, b broker.Broker, brokerID, symbol string, tf types.Timeframe, portfolio *types.Portfolio, tradedSymbols map[string]bool, result *Result) {
	candles, err := b.FetchOHLCV(ctx, symbol, tf, c.Config.LookbackCandles)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("fetch_ohlcv %s/%s: %v", symbol, tf, err))
		return
	}
	if len(candles) < c.Config.LookbackCandles/2 {
		result.Errors = append(result.Errors, fmt.Sprintf("insufficient_data %s/%s", symbol, tf))
		return
	}

	if err := c.Store.UpsertCandles(symbol, tf, candles); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("upsert_candles %s/%s: %v", symbol, tf, err))
	}

	set := indicators.Compute(candles, symbol, tf, toPeriods(c.Config.Indicators))

	k := key(symbol, tf)
	latestTS := candles[len(candles)-1].Time.Unix()
	status := "forming"
	if c.lastCandleTimes[k] != latestTS {
		status = "closed"
		c.lastCandleTimes[k] = latestTS
		delete(c.signaledCandles, k)
	}

	if c.signaledCandles[k] == latestTS {
		return
	}

	sig, err := c.Detector.Detect(ctx, candles, set, symbol, tf)
	sig.CandleStatus = status
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("detect %s/%s: %v", symbol, tf, err))
		return
	}
	result.Evaluated++
	if !sig.DivergenceDetected {
		return
	}
	c.signaledCandles[k] = latestTS

	inst, instErr := c.Registry.Get(brokerID, symbol)
	assetClass := types.Crypto
	if instErr == nil {
		assetClass = inst.AssetClass
	}

	vs := c.validatorSettings()
	vr := validator.Validate(sig, set, vs, assetClass)
	validated := vr.Passed
	reason := vr.Reason
	if validated && sig.Confidence < c.Config.Risk.EffectiveMinConfidence(brokerID) {
		validated = false
		reason = fmt.Sprintf("confidence %.2f below broker %s threshold", sig.Confidence, brokerID)
	}

	signalID := c.newID()
	if err := c.Store.SaveSignal(PersistedSignal{
		ID: signalID, BrokerID: brokerID, Symbol: symbol, Timeframe: tf,
		Signal: sig, Validated: validated, Reason: reason, CreatedAt: time.Now(),
	}); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("persist signal %s/%s: %v", symbol, tf, err))
	}
	if !validated {
		return
	}
	result.Validated++

	execSignal, shouldExecute := c.dispatchMultiTF(sig, brokerID, symbol, tf)
	if !shouldExecute {
		return
	}

	if tradedSymbols[symbol] {
		return
	}

	order, err := c.Execution.ExecuteSignal(ctx, execSignal, portfolio, brokerID, signalID)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("execute %s/%s: %v", symbol, tf, err))
		return
	}
	if order == nil {
		return
	}

	tradedSymbols[symbol] = true
	portfolio.OpenPositions = append(portfolio.OpenPositions, order)
	result.Executed++
	c.Alerts.Send(fmt.Sprintf("SIGNAL %s %s %s confidence=%.2f", *sig.Direction, symbol, tf, sig.Confidence))
}

// dispatchMultiTF implements spec §4.10.i. When multi-TF confirmation is
// disabled, every validated signal executes directly.
func (c *Cycle) dispatchMultiTF(sig types.Signal, brokerID, symbol string, tf types.Timeframe) (types.Signal, bool) {
	if !c.Config.MultiTF.UseMultiTFConfirmation {
		return sig, true
	}

	switch tf {
	case types.TF4h:
		c.MultiTF.Put(types.ActiveSetup{
			Signal:     sig,
			BrokerID:   brokerID,
			Symbol:     symbol,
			Direction:  *sig.Direction,
			DetectedAt: time.Now(),
			ExpiresAt:  time.Now().Add(time.Duration(c.Config.MultiTF.SetupExpiryHours * float64(time.Hour))),
		})
		c.Alerts.Send(fmt.Sprintf("SETUP %s %s %s awaiting 1h confirmation", *sig.Direction, symbol, tf))
		return types.Signal{}, false

	case types.TF1h:
		setup, ok := c.MultiTF.Match(brokerID, symbol, *sig.Direction)
		if !ok {
			return types.Signal{}, false
		}
		confirmed := multitf.Confirm(setup, sig, c.Config.Risk.EffectiveMinRiskReward(brokerID))
		c.MultiTF.Remove(brokerID, symbol, setup.Direction)
		return confirmed, true

	default:
		return sig, true
	}
}

func (c *Cycle) validatorSettings() validator.Settings {
	vc := c.Config.Validator
	return validator.Settings{
		MinConfidence:             c.Config.Risk.MinConfidence,
		MinRiskReward:             c.Config.Risk.MinRiskReward,
		MinConfirmingIndicators:   vc.MinConfirmingIndicators,
		MinSwingBars4h:            vc.MinSwingBars4h,
		MinSwingBars1h:            vc.MinSwingBars1h,
		MinDivergenceMagnitudeRSI: vc.MinDivergenceMagnitudeRSI,
		VolumeLowThreshold:        vc.VolumeLowThreshold,
		CandleGateLookback:        vc.CandleGateLookback,
	}
}

func toPeriods(p config.IndicatorPeriods) indicators.Periods {
	return indicators.Periods{
		RSI: p.RSI, MACDFast: p.MACDFast, MACDSlow: p.MACDSlow, MACDSignal: p.MACDSignal,
		StochK: p.StochK, StochD: p.StochD, MFI: p.MFI, ATR: p.ATR, ADX: p.ADX,
		CCI: p.CCI, WilliamsR: p.WilliamsR, EMAShort: p.EMAShort, EMAMedium: p.EMAMedium,
		EMALong: p.EMALong, VolumeSMA: p.VolumeSMA,
	}
}
