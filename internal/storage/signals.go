package storage

import (
	"strconv"
	"strings"

	"gorm.io/gorm/clause"

	"github.com/chidi150c/divergence-trader/internal/analysis"
	"github.com/chidi150c/divergence-trader/internal/types"
)

// UpsertCandles implements analysis.Store: spec §6's "upsert on conflict"
// requirement for the candles table, keyed on (time, symbol, timeframe).
func (s *Store) UpsertCandles(symbol string, tf types.Timeframe, candles []types.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	rows := make([]CandleRecord, len(candles))
	for i, c := range candles {
		rows[i] = CandleRecord{
			Time: c.Time, Symbol: symbol, Timeframe: string(tf),
			Open: c.Open, High: c.High, Low: c.Low, Close: c.Close, Volume: c.Volume,
		}
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "time"}, {Name: "symbol"}, {Name: "timeframe"}},
		UpdateAll: true,
	}).Create(&rows).Error
}

// SaveSignal implements analysis.Store.
func (s *Store) SaveSignal(sig analysis.PersistedSignal) error {
	row := SignalRecord{
		ID:               sig.ID,
		BrokerID:         sig.BrokerID,
		Symbol:           sig.Symbol,
		Timeframe:        string(sig.Timeframe),
		Indicator:        sig.Signal.Indicator,
		Confidence:       sig.Signal.Confidence,
		EntryPrice:       sig.Signal.EntryPrice,
		StopLoss:         sig.Signal.StopLoss,
		TakeProfit1:      sig.Signal.TakeProfit1,
		TakeProfit2:      sig.Signal.TakeProfit2,
		TakeProfit3:      sig.Signal.TakeProfit3,
		Reasoning:        sig.Signal.Reasoning,
		Validated:        sig.Validated,
		ValidationReason: sig.Reason,
		CreatedAt:        sig.CreatedAt,
	}
	if sig.Signal.DivergenceType != nil {
		row.DivergenceType = string(*sig.Signal.DivergenceType)
	}
	if sig.Signal.Direction != nil {
		row.Direction = string(*sig.Signal.Direction)
	}
	return s.db.Create(&row).Error
}

// SaveCycleResult implements analysis.Store.
func (s *Store) SaveCycleResult(result analysis.Result) error {
	row := AnalysisCycleRecord{
		ID:               strconv.FormatInt(result.StartedAt.UnixNano(), 10),
		StartedAt:        result.StartedAt,
		CompletedAt:      result.CompletedAt,
		SymbolsAnalyzed:  strings.Join(result.TradedSymbols, ","),
		SignalsFound:     result.Evaluated,
		SignalsValidated: result.Validated,
		OrdersPlaced:     result.Executed,
		Errors:           strings.Join(result.Errors, "; "),
		DurationMs:       result.CompletedAt.Sub(result.StartedAt).Milliseconds(),
	}
	return s.db.Create(&row).Error
}
