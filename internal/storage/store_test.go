package storage

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/chidi150c/divergence-trader/internal/analysis"
	"github.com/chidi150c/divergence-trader/internal/outcome"
	"github.com/chidi150c/divergence-trader/internal/types"
)

// newMockStore wires a *Store to a sqlmock-backed *gorm.DB without
// AutoMigrate, following transaction_recorder_test.go's pattern: tests
// assert on the SQL GORM actually issues, not on a real schema.
func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return &Store{db: gormDB}, mock
}

func TestSaveOrderInsertsOneRow(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `orders`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	order := &types.Order{
		ID: "o1", Symbol: "BTC-USD", BrokerID: "paper", Direction: types.Long,
		State: types.StatePending, EntryPrice: decimal.NewFromInt(100),
		Quantity: decimal.NewFromInt(1), RemainingQuantity: decimal.NewFromInt(1),
		TakeProfit1: decimal.NewFromInt(110),
	}
	err := store.SaveOrder(order)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenPositionsExcludesTerminalStates(t *testing.T) {
	store, mock := newMockStore(t)
	rows := sqlmock.NewRows([]string{"id", "symbol", "broker_id", "direction", "state", "entry_price", "quantity", "remaining_quantity"}).
		AddRow("o1", "BTC-USD", "paper", "long", "filled", "100", "1", "1")
	mock.ExpectQuery("SELECT \\* FROM `orders` WHERE broker_id = \\? AND state NOT IN").WillReturnRows(rows)

	got, err := store.OpenPositions("paper")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "o1", got[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetPeakEquitySavesRow(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `broker_peak_equity`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.SetPeakEquity("paper", decimal.NewFromInt(10500))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordCircuitBreakerEventInsertsRow(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `circuit_breaker_events`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := store.RecordCircuitBreakerEvent("paper", types.DrawdownTripped, "drawdown 12.0% from peak exceeds 10.0% limit")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertCandlesUsesOnConflictClause(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `candles`").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	candles := []types.Candle{
		{Time: time.Unix(0, 0), Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
		{Time: time.Unix(3600, 0), Open: 1.5, High: 2.5, Low: 1, Close: 2, Volume: 12},
	}
	err := store.UpsertCandles("BTC-USD", types.TF1h, candles)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveSignalInsertsOneRow(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `signals`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	dir := types.Long
	sig := analysis.PersistedSignal{
		ID: "s1", BrokerID: "paper", Symbol: "BTC-USD", Timeframe: types.TF1h,
		Signal:    types.Signal{Direction: &dir, Confidence: 0.8},
		Validated: true, CreatedAt: time.Now(),
	}
	err := store.SaveSignal(sig)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveCycleResultJoinsSymbolsAndErrors(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `analysis_cycles`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	result := analysis.Result{
		StartedAt: time.Now(), CompletedAt: time.Now().Add(time.Second),
		TradedSymbols: []string{"BTC-USD", "ETH-USD"}, Errors: []string{"insufficient_data"},
	}
	err := store.SaveCycleResult(result)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertOutcomeDefaultsToPendingVerdict(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `signal_outcomes`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := store.InsertOutcome(outcome.SignalRef{ID: "s1", BrokerID: "paper", Symbol: "BTC-USD", Direction: types.Long, EntryPrice: 100})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateOutcomeUpdatesExistingRowByID(t *testing.T) {
	store, mock := newMockStore(t)
	rows := sqlmock.NewRows([]string{"id", "signal_id"}).AddRow(7, "s1")
	mock.ExpectQuery("SELECT \\* FROM `signal_outcomes`").WillReturnRows(rows)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `signal_outcomes`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := store.UpdateOutcome(outcome.Outcome{SignalID: "s1", Verdict: "correct", FullyResolved: true})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
