package broker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chidi150c/divergence-trader/internal/errs"
	"github.com/chidi150c/divergence-trader/internal/types"
)

func TestWithRetryRetriesTransientThenSucceeds(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		if calls < 2 {
			return &errs.TransientBrokerError{Broker: "x", Op: "y", Err: errors.New("boom")}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestWithRetryDoesNotRetryPermanent(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return &errs.PermanentBrokerError{Broker: "x", Op: "y", Err: errors.New("bad request")}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetryGivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return &errs.TransientBrokerError{Broker: "x", Op: "y", Err: errors.New("boom")}
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestRateLimiterBlocksUntilWindowFrees(t *testing.T) {
	rl := NewRateLimiter(100*time.Millisecond, map[string]int{"data": 1})
	ctx := context.Background()
	require.NoError(t, rl.Acquire(ctx, "data"))

	start := time.Now()
	require.NoError(t, rl.Acquire(ctx, "data"))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestPaperAdapterRoundTrip(t *testing.T) {
	p := NewPaperAdapter("paper")
	now := time.Now().UTC()
	p.SeedCandles("BTC-USD", []types.Candle{
		{Time: now.Add(-time.Hour), Close: 100},
		{Time: now, Close: 105},
	})
	candles, err := p.FetchOHLCV(context.Background(), "BTC-USD", types.TF1h, 10)
	require.NoError(t, err)
	require.Len(t, candles, 2)

	ticker, err := p.FetchTicker(context.Background(), "BTC-USD")
	require.NoError(t, err)
	assert.Equal(t, 105.0, ticker.Last)

	ack, err := p.CreateLimitOrder(context.Background(), "BTC-USD", SideBuy, 1, 105)
	require.NoError(t, err)
	assert.NotEmpty(t, ack.ID)
}
