// Package instruments holds the static per-symbol metadata the risk manager
// and position sizer need: asset class, pip size, pip value, leverage, fees.
//
// Grounded on original_source/bot/instruments.py's field set and config.go's
// static-knob style (a package-level map populated at init, with an
// auto-generate fallback for unknown symbols of the default broker).
package instruments

import (
	"fmt"
	"sync"

	"github.com/chidi150c/divergence-trader/internal/types"
)

// Instrument is the static metadata record for one tradeable symbol.
type Instrument struct {
	Symbol         string
	BrokerID       string
	DisplayName    string
	AssetClass     types.AssetClass
	PipSize        float64
	PipValuePerUnit float64 // in quote currency
	MinUnits       float64
	MaxLeverage    float64
	FeeRate        float64
	BaseCurrency   string
	QuoteCurrency  string
}

// Registry is a static symbol->Instrument mapping with an auto-generate
// fallback for unknown symbols of the default broker.
type Registry struct {
	mu            sync.RWMutex
	byKey         map[string]Instrument // key = brokerID + ":" + symbol
	defaultBroker string
}

func key(brokerID, symbol string) string { return brokerID + ":" + symbol }

// NewRegistry constructs an empty registry. defaultBroker is the broker id
// used for the unknown-symbol auto-generate fallback.
func NewRegistry(defaultBroker string) *Registry {
	return &Registry{byKey: make(map[string]Instrument), defaultBroker: defaultBroker}
}

// Register adds or overwrites a static instrument entry.
func (r *Registry) Register(inst Instrument) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byKey[key(inst.BrokerID, inst.Symbol)] = inst
}

// Get returns the instrument for (brokerID, symbol). For unknown symbols of
// the default broker, a Crypto entry is auto-generated with fee_rate=0.001
// and leverage=1 per spec §4.2; for unknown symbols of any other broker an
// error is returned.
func (r *Registry) Get(brokerID, symbol string) (Instrument, error) {
	r.mu.RLock()
	inst, ok := r.byKey[key(brokerID, symbol)]
	r.mu.RUnlock()
	if ok {
		return inst, nil
	}
	if brokerID == r.defaultBroker {
		generated := Instrument{
			Symbol:        symbol,
			BrokerID:      brokerID,
			DisplayName:   symbol,
			AssetClass:    types.Crypto,
			PipSize:       0.01,
			PipValuePerUnit: 0.01,
			MinUnits:      0,
			MaxLeverage:   1,
			FeeRate:       0.001,
			QuoteCurrency: "USD",
		}
		r.mu.Lock()
		r.byKey[key(brokerID, symbol)] = generated
		r.mu.Unlock()
		return generated, nil
	}
	return Instrument{}, fmt.Errorf("instruments: unknown symbol %s on broker %s", symbol, brokerID)
}

// CorrelationLimit returns the default max same-direction/same-asset-class
// open position count per spec §4.6.
func CorrelationLimit(ac types.AssetClass) int {
	switch ac {
	case types.Forex:
		return 4
	case types.Index:
		return 3
	case types.Commodity:
		return 3
	case types.Bond:
		return 1
	case types.Crypto:
		return 4
	default:
		return 2
	}
}
