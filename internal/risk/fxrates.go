package risk

// fxToAUD is the static quote-currency-to-AUD conversion table used for pip
// sizing and dashboard display (spec §4.6). A real venue feed would replace
// this, but the spec calls for a static table, not a live FX rate source.
var fxToAUD = map[string]float64{
	"AUD": 1.0,
	"USD": 1.52,
	"GBP": 1.93,
	"EUR": 1.65,
	"NZD": 1.09,
	"CAD": 1.11,
	"CHF": 1.72,
	"JPY": 0.0103,
}

// QuoteToAUD returns the static conversion rate for the given quote currency,
// defaulting to 1.0 (treat as AUD) for an unrecognized currency code.
func QuoteToAUD(quoteCurrency string) float64 {
	if rate, ok := fxToAUD[quoteCurrency]; ok {
		return rate
	}
	return 1.0
}
