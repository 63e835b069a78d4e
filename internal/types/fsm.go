package types

import "github.com/chidi150c/divergence-trader/internal/errs"

// transitions is the declared transition table from spec §4.8. Terminal
// states map to an empty set.
var transitions = map[OrderState]map[OrderState]bool{
	StatePending: {
		StateSubmitted: true,
		StateCancelled: true,
		StateRejected:  true,
		StateError:     true,
	},
	StateSubmitted: {
		StatePartiallyFilled: true,
		StateFilled:          true,
		StateCancelled:       true,
		StateRejected:        true,
		StateError:           true,
	},
	StatePartiallyFilled: {
		StateFilled:    true,
		StateCancelled: true,
		StateError:     true,
	},
	StateFilled: {
		StateClosed: true,
	},
	StateCancelled: {},
	StateRejected:  {},
	StateClosed:    {},
	StateError: {
		StatePending: true, // recoverable once
	},
}

// CanTransition reports whether target is a legal next state from from.
func CanTransition(from, to OrderState) bool {
	return transitions[from][to]
}

// IsTerminalState reports whether state has no outgoing transitions.
func IsTerminalState(state OrderState) bool {
	return len(transitions[state]) == 0
}

// Transition moves o.State to target or returns an InvalidStateTransition —
// a programmer error per spec §4.8/§7: it never panics, but the caller must
// treat the error as fatal to the current operation only.
func (o *Order) Transition(target OrderState) error {
	if !CanTransition(o.State, target) {
		return &errs.InvalidStateTransition{From: string(o.State), To: string(target)}
	}
	o.State = target
	return nil
}
