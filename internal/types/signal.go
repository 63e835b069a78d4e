package types

import "time"

// Signal is produced by a DivergenceDetector for one (symbol, timeframe) call.
type Signal struct {
	DivergenceDetected bool
	DivergenceType     *DivergenceType
	Direction          *Direction
	Confidence         float64

	EntryPrice    *float64
	StopLoss      *float64
	TakeProfit1   *float64
	TakeProfit2   *float64
	TakeProfit3   *float64

	Indicator             string
	ConfirmingIndicators  []string
	SwingLengthBars       int
	DivergenceMagnitude   float64
	Reasoning             string

	Symbol    string
	Timeframe Timeframe

	// CandleStatus carries "closed" or "forming" metadata to the detector.
	// The deterministic reference detector ignores it; an external detector
	// may act on it.
	CandleStatus string
}

// ActiveSetup is a retained 4h signal awaiting 1h confirmation.
type ActiveSetup struct {
	Signal      Signal
	BrokerID    string
	Symbol      string
	Direction   Direction
	DetectedAt  time.Time
	ExpiresAt   time.Time
	SignalID    string // persisted signal id
}

// SetupKey returns the "broker:symbol:direction" key the multi-TF store
// indexes by — a symbol may hold multiple setups with distinct directions
// (spec §3), so direction is part of the key, not just a post-lookup filter.
func SetupKey(brokerID, symbol string, direction Direction) string {
	return brokerID + ":" + symbol + ":" + string(direction)
}

// ValidationResult is the pure output of the validator.
type ValidationResult struct {
	Passed bool
	Reason string
	Rule   string
}
