// Package multitf implements the multi-timeframe ActiveSetup store (C10):
// a 4h signal is retained awaiting 1h confirmation, keyed
// "broker:symbol:direction" so a symbol can hold a Long and a Short setup at
// once without one overwriting the other (spec §3: "a symbol may hold
// multiple setups with distinct directions"). Spec §4.10 describes this as
// single-writer, process-local state — there is no direct teacher analogue
// (the teacher is single-timeframe), so the store is authored fresh in the
// same mutex-guarded-map idiom broker.RateLimiter and broker.PaperAdapter
// already use.
package multitf

import (
	"sync"
	"time"

	"github.com/chidi150c/divergence-trader/internal/types"
)

// Store holds at most one ActiveSetup per (broker, symbol, direction) key —
// a Long and a Short setup for the same symbol coexist independently.
type Store struct {
	mu     sync.Mutex
	setups map[string]types.ActiveSetup
}

func NewStore() *Store {
	return &Store{setups: make(map[string]types.ActiveSetup)}
}

// Put retains a 4h setup, overwriting any prior setup for the same
// (broker, symbol, direction) key only — a setup of the opposite direction
// for the same symbol is left untouched.
func (s *Store) Put(setup types.ActiveSetup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setups[types.SetupKey(setup.BrokerID, setup.Symbol, setup.Direction)] = setup
}

// Match looks up a retained setup for (brokerID, symbol, direction).
func (s *Store) Match(brokerID, symbol string, direction types.Direction) (types.ActiveSetup, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	setup, ok := s.setups[types.SetupKey(brokerID, symbol, direction)]
	if !ok {
		return types.ActiveSetup{}, false
	}
	return setup, true
}

// Remove deletes the retained setup for (brokerID, symbol, direction), used
// once a matching 1h signal has consumed it.
func (s *Store) Remove(brokerID, symbol string, direction types.Direction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.setups, types.SetupKey(brokerID, symbol, direction))
}

// ExpireBefore prunes every setup whose ExpiresAt is at or before now and
// returns the expired setups for alerting/logging. Called at the start of
// every analysis cycle per spec §4.10 step 2.
func (s *Store) ExpireBefore(now time.Time) []types.ActiveSetup {
	s.mu.Lock()
	defer s.mu.Unlock()
	var expired []types.ActiveSetup
	for key, setup := range s.setups {
		if !setup.ExpiresAt.After(now) {
			expired = append(expired, setup)
			delete(s.setups, key)
		}
	}
	return expired
}
