package detector

import (
	"context"
	"time"

	"github.com/chidi150c/divergence-trader/internal/errs"
	"github.com/chidi150c/divergence-trader/internal/types"
)

// Oracle is an off-process detector — an LLM call, a separate scoring
// service, anything that can't run in-process. Excluded from this module's
// scope per spec §1 ("the Claude LLM analysis call itself"); External wraps
// whatever implements this interface with a per-call timeout, so swapping
// the reference detector for one never requires touching the analysis
// cycle. External makes a single attempt per call; a failed call is not
// retried.
type Oracle interface {
	Score(ctx context.Context, candles []types.Candle, set *types.IndicatorSet, symbol string, tf types.Timeframe) (types.Signal, error)
}

// External adapts an Oracle to the Detector interface: bounded by Timeout,
// and any error surfaced by the oracle is wrapped as transient so the
// analysis cycle's per-symbol error recovery (spec §7) treats an oracle
// outage the same way it treats a broker outage — skip this symbol, keep
// the cycle going.
type External struct {
	Oracle  Oracle
	Timeout time.Duration
}

func NewExternal(oracle Oracle, timeout time.Duration) *External {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &External{Oracle: oracle, Timeout: timeout}
}

func (e *External) Detect(ctx context.Context, candles []types.Candle, set *types.IndicatorSet, symbol string, tf types.Timeframe) (types.Signal, error) {
	ctx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	sig, err := e.Oracle.Score(ctx, candles, set, symbol, tf)
	if err != nil {
		return types.Signal{}, &errs.TransientBrokerError{Broker: "oracle", Op: "score", Err: err}
	}
	return sig, nil
}
