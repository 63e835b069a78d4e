package risk

import (
	"github.com/shopspring/decimal"

	"github.com/chidi150c/divergence-trader/internal/instruments"
	"github.com/chidi150c/divergence-trader/internal/types"
)

// SizeCrypto implements spec §4.6's crypto sizing formula:
// risk_amount = equity * max_position_pct/100; size = risk_amount/stop_distance;
// capped at 0.10 * equity/entry_price.
func SizeCrypto(equity, maxPositionPct, entry, stop decimal.Decimal) decimal.Decimal {
	if entry.IsZero() {
		return decimal.Zero
	}
	stopDistance := entry.Sub(stop).Abs()
	if stopDistance.IsZero() {
		return decimal.Zero
	}
	riskAmount := equity.Mul(maxPositionPct).Div(decimal.NewFromInt(100))
	size := riskAmount.Div(stopDistance)

	maxNotional := equity.Mul(decimal.NewFromFloat(0.10))
	maxQuantity := maxNotional.Div(entry)
	if size.GreaterThan(maxQuantity) {
		size = maxQuantity
	}
	if size.IsNegative() {
		return decimal.Zero
	}
	return size
}

// SizePipBased implements spec §4.6's FX/index/commodity pip-based sizing:
// stop_pips = stop_distance/pip_size; pip_value_aud = pip_value_per_unit *
// quote_to_aud_rate; units = risk_amount/(stop_pips*pip_value_aud); capped at
// (equity*max_leverage)/(entry_price*quote_to_aud); floored to an integer.
func SizePipBased(equity, maxPositionPct, entry, stop decimal.Decimal, inst instruments.Instrument) decimal.Decimal {
	if entry.IsZero() || inst.PipSize <= 0 {
		return decimal.Zero
	}
	stopDistance := entry.Sub(stop).Abs()
	if stopDistance.IsZero() {
		return decimal.Zero
	}
	quoteToAUD := decimal.NewFromFloat(QuoteToAUD(inst.QuoteCurrency))
	pipSize := decimal.NewFromFloat(inst.PipSize)
	pipValuePerUnit := decimal.NewFromFloat(inst.PipValuePerUnit)
	maxLeverage := decimal.NewFromFloat(inst.MaxLeverage)

	stopPips := stopDistance.Div(pipSize)
	pipValueAUD := pipValuePerUnit.Mul(quoteToAUD)
	if pipValueAUD.IsZero() || stopPips.IsZero() {
		return decimal.Zero
	}

	riskAmount := equity.Mul(maxPositionPct).Div(decimal.NewFromInt(100))
	units := riskAmount.Div(stopPips.Mul(pipValueAUD))

	maxUnits := equity.Mul(maxLeverage).Div(entry.Mul(quoteToAUD))
	if units.GreaterThan(maxUnits) {
		units = maxUnits
	}
	if units.IsNegative() {
		return decimal.Zero
	}
	return units.Floor()
}

// PositionSize dispatches to the sizing formula for the instrument's asset
// class, returning 0 if entry/stop are missing or degenerate.
func PositionSize(signal types.Signal, equity decimal.Decimal, maxPositionPct float64, inst instruments.Instrument) decimal.Decimal {
	if signal.EntryPrice == nil || signal.StopLoss == nil {
		return decimal.Zero
	}
	entry := decimal.NewFromFloat(*signal.EntryPrice)
	stop := decimal.NewFromFloat(*signal.StopLoss)
	pct := decimal.NewFromFloat(maxPositionPct)

	if inst.AssetClass == types.Crypto {
		return SizeCrypto(equity, pct, entry, stop)
	}
	return SizePipBased(equity, pct, entry, stop, inst)
}
