// Package detector implements the pluggable Divergence Detector (C5): one
// Signal per (symbol, timeframe) call, produced either by the deterministic
// reference algorithm (spec §4.4) or an external oracle.
package detector

import (
	"context"

	"github.com/chidi150c/divergence-trader/internal/types"
)

// Detector produces one Signal per (symbol, timeframe) call.
type Detector interface {
	Detect(ctx context.Context, candles []types.Candle, set *types.IndicatorSet, symbol string, tf types.Timeframe) (types.Signal, error)
}
