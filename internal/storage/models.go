package storage

import (
	"time"

	"github.com/shopspring/decimal"
)


// These are the GORM row shapes for spec §6's seven schema-contract tables,
// plus one small piece of supporting state (peak equity) the risk package
// needs but §6 doesn't name a table for. Money fields use decimal.Decimal in
// the domain types; here they're persisted as MySQL DECIMAL columns via
// shopspring/decimal's own driver.Valuer/sql.Scanner implementation — the
// same "don't trust float storage for money" instinct as
// transaction_recorder.go's string-backed big.Int columns, but using the
// library's native SQL support instead of manual string conversion.

// CandleRecord is the "candles" table: composite-keyed on (time, symbol,
// timeframe), upserted on conflict.
type CandleRecord struct {
	Time      time.Time `gorm:"primaryKey"`
	Symbol    string    `gorm:"primaryKey;size:32"`
	Timeframe string    `gorm:"primaryKey;size:8"`
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

func (CandleRecord) TableName() string { return "candles" }

// SignalRecord is the "signals" table.
type SignalRecord struct {
	ID               string `gorm:"primaryKey;size:64"`
	BrokerID         string `gorm:"index;size:32"`
	Symbol           string `gorm:"index;size:32"`
	Timeframe        string `gorm:"size:8"`
	DivergenceType   string `gorm:"size:32"`
	Indicator        string `gorm:"size:32"`
	Confidence       float64
	Direction        string `gorm:"size:8"`
	EntryPrice       *float64
	StopLoss         *float64
	TakeProfit1      *float64
	TakeProfit2      *float64
	TakeProfit3      *float64
	Reasoning        string `gorm:"type:text"`
	RawPayload       string `gorm:"type:text"`
	Validated        bool
	ValidationReason string `gorm:"type:text"`
	CreatedAt        time.Time `gorm:"index"`
}

func (SignalRecord) TableName() string { return "signals" }

// OrderRecord is the "orders" table — the execution FSM's persisted shape.
type OrderRecord struct {
	ID                string `gorm:"primaryKey;size:64"`
	SignalID          string `gorm:"index;size:64"`
	ExchangeOrderID   string `gorm:"size:64"`
	Symbol            string `gorm:"index;size:32"`
	BrokerID          string `gorm:"index;size:32"`
	Direction         string `gorm:"size:8"`
	State             string `gorm:"index;size:24"`
	EntryPrice        decimal.Decimal  `gorm:"type:decimal(36,18)"`
	StopLoss          decimal.Decimal  `gorm:"type:decimal(36,18)"`
	OriginalStopLoss  decimal.Decimal  `gorm:"type:decimal(36,18)"`
	SLTrailStage      int
	TPStage           int
	TakeProfit1       decimal.Decimal  `gorm:"type:decimal(36,18)"`
	TakeProfit2       *decimal.Decimal `gorm:"type:decimal(36,18)"`
	TakeProfit3       *decimal.Decimal `gorm:"type:decimal(36,18)"`
	Quantity          decimal.Decimal  `gorm:"type:decimal(36,18)"`
	RemainingQuantity decimal.Decimal  `gorm:"type:decimal(36,18)"`
	FilledQuantity    decimal.Decimal  `gorm:"type:decimal(36,18)"`
	FilledPrice       *decimal.Decimal `gorm:"type:decimal(36,18)"`
	PnL               decimal.Decimal  `gorm:"type:decimal(36,18)"`
	Fees              decimal.Decimal  `gorm:"type:decimal(36,18)"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ClosedAt          *time.Time
}

func (OrderRecord) TableName() string { return "orders" }

// PortfolioSnapshotRecord is the "portfolio_snapshots" table.
type PortfolioSnapshotRecord struct {
	ID                uint      `gorm:"primaryKey;autoIncrement"`
	Time              time.Time `gorm:"index"`
	BrokerID          string    `gorm:"index;size:32"`
	TotalEquity       decimal.Decimal `gorm:"type:decimal(36,18)"`
	AvailableBalance  decimal.Decimal `gorm:"type:decimal(36,18)"`
	OpenPositionCount int
	DailyPnL          decimal.Decimal `gorm:"type:decimal(36,18)"`
	DailyTrades       int
}

func (PortfolioSnapshotRecord) TableName() string { return "portfolio_snapshots" }

// CircuitBreakerEventRecord is the "circuit_breaker_events" table.
type CircuitBreakerEventRecord struct {
	ID          uint `gorm:"primaryKey;autoIncrement"`
	BrokerID    string `gorm:"index;size:32"`
	Reason      string `gorm:"type:text"`
	Details     string `gorm:"type:text"`
	TriggeredAt time.Time `gorm:"index"`
	ResolvedAt  *time.Time
}

func (CircuitBreakerEventRecord) TableName() string { return "circuit_breaker_events" }

// AnalysisCycleRecord is the "analysis_cycles" table. SymbolsAnalyzed is
// stored as a comma-joined string — GORM/MySQL has no native array column,
// and the teacher's own records never need one either.
type AnalysisCycleRecord struct {
	ID               string `gorm:"primaryKey;size:64"`
	StartedAt        time.Time `gorm:"index"`
	CompletedAt      time.Time
	SymbolsAnalyzed  string `gorm:"type:text"`
	SignalsFound     int
	SignalsValidated int
	OrdersPlaced     int
	Errors           string `gorm:"type:text"`
	DurationMs       int64
}

func (AnalysisCycleRecord) TableName() string { return "analysis_cycles" }

// SignalOutcomeRecord is the "signal_outcomes" table.
type SignalOutcomeRecord struct {
	ID              uint   `gorm:"primaryKey;autoIncrement"`
	SignalID        string `gorm:"uniqueIndex;size:64"`
	BrokerID        string `gorm:"size:32"`
	Symbol          string `gorm:"size:32"`
	Direction       string `gorm:"size:8"`
	EntryPrice      float64
	StopLoss        *float64
	TakeProfit1     *float64
	TakeProfit2     *float64
	TakeProfit3     *float64
	SignalCreatedAt time.Time

	Price1h, Price4h, Price12h, Price24h     *float64
	Return1h, Return4h, Return12h, Return24h *float64
	MaxFavorablePrice, MaxAdversePrice       *float64
	MaxFavorablePct, MaxAdversePct           *float64

	TP1Hit, TP2Hit, TP3Hit, SLHit         bool
	TP1HitAt, TP2HitAt, TP3HitAt, SLHitAt *time.Time

	Verdict       string `gorm:"size:16"`
	FullyResolved bool
	LastCheckedAt time.Time
}

func (SignalOutcomeRecord) TableName() string { return "signal_outcomes" }

// PeakEquityRecord tracks each broker's all-time-high reconstructed equity
// for the drawdown kill switch (spec §4.6). Not named as a table in §6, but
// the drawdown check has nowhere else to persist it across restarts.
type PeakEquityRecord struct {
	BrokerID string          `gorm:"primaryKey;size:32"`
	Equity   decimal.Decimal `gorm:"type:decimal(36,18)"`
}

func (PeakEquityRecord) TableName() string { return "broker_peak_equity" }

// AllModels lists every table AutoMigrate needs to create.
func AllModels() []interface{} {
	return []interface{}{
		&CandleRecord{},
		&SignalRecord{},
		&OrderRecord{},
		&PortfolioSnapshotRecord{},
		&CircuitBreakerEventRecord{},
		&AnalysisCycleRecord{},
		&SignalOutcomeRecord{},
		&PeakEquityRecord{},
	}
}
