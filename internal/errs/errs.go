// Package errs defines the error taxonomy every component branches on.
//
// TransientBrokerError is retried by the caller; PermanentBrokerError is
// surfaced. RiskRejection and ValidationRejection are expected, non-fatal
// outcomes of the trading pipeline. InvalidStateTransition is a programmer
// error — it halts the individual operation loudly but never the process.
// CircuitBreakerTripped means admissions are rejected until reset.
// DatabaseError wraps any persistence failure; callers log and move on.
package errs

import "fmt"

// TransientBrokerError wraps network/timeout/5xx/rate-limit failures that are
// safe to retry with backoff.
type TransientBrokerError struct {
	Broker string
	Op     string
	Err    error
}

func (e *TransientBrokerError) Error() string {
	return fmt.Sprintf("transient broker error: %s.%s: %v", e.Broker, e.Op, e.Err)
}

func (e *TransientBrokerError) Unwrap() error { return e.Err }

// PermanentBrokerError wraps 4xx validation failures or auth failures that
// survived one re-authentication attempt. Never retried.
type PermanentBrokerError struct {
	Broker string
	Op     string
	Err    error
}

func (e *PermanentBrokerError) Error() string {
	return fmt.Sprintf("permanent broker error: %s.%s: %v", e.Broker, e.Op, e.Err)
}

func (e *PermanentBrokerError) Unwrap() error { return e.Err }

// RiskRejection is a normal, non-fatal admission refusal from the risk manager.
type RiskRejection struct {
	Reason string
}

func (e *RiskRejection) Error() string { return "risk rejected: " + e.Reason }

// ValidationRejection is a normal rejection from the signal validator.
type ValidationRejection struct {
	Rule   string
	Reason string
}

func (e *ValidationRejection) Error() string {
	return fmt.Sprintf("validation rejected (%s): %s", e.Rule, e.Reason)
}

// InvalidStateTransition is a programmer error: an FSM was asked to perform a
// transition not present in its transition table.
type InvalidStateTransition struct {
	From, To string
}

func (e *InvalidStateTransition) Error() string {
	return fmt.Sprintf("invalid state transition: %s -> %s", e.From, e.To)
}

// CircuitBreakerTripped means the risk manager is currently rejecting all
// admissions for the stated reason.
type CircuitBreakerTripped struct {
	Reason string
}

func (e *CircuitBreakerTripped) Error() string { return "circuit breaker tripped: " + e.Reason }

// DatabaseError wraps any persistence-layer failure. Persistence failures
// never block market-data processing; callers log and abandon the current
// step only.
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string { return fmt.Sprintf("database error (%s): %v", e.Op, e.Err) }

func (e *DatabaseError) Unwrap() error { return e.Err }
