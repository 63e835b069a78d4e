package risk

import (
	"sync"
	"time"
)

// CircuitBreaker is the per-broker state machine from spec §4.6: Healthy,
// DailyTripped (auto-resets at UTC midnight), DrawdownTripped (manual reset
// only). Both trips can be active simultaneously.
type CircuitBreaker struct {
	mu sync.Mutex

	dailyTripped   bool
	dailyReason    string
	dailyTrippedOn time.Time // UTC calendar day the trip occurred on

	drawdownTripped bool
	drawdownReason  string
}

// CheckRollover resets the daily trip if now (UTC) has crossed into a new
// calendar day since the trip occurred. Must be called at the start of every
// admission check, per spec §4.6 step 1.
func (c *CircuitBreaker) CheckRollover(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dailyTripped {
		return
	}
	now = now.UTC()
	if now.Year() != c.dailyTrippedOn.Year() || now.YearDay() != c.dailyTrippedOn.YearDay() {
		c.dailyTripped = false
		c.dailyReason = ""
	}
}

func (c *CircuitBreaker) TripDaily(reason string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dailyTripped = true
	c.dailyReason = reason
	c.dailyTrippedOn = now.UTC()
}

func (c *CircuitBreaker) TripDrawdown(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drawdownTripped = true
	c.drawdownReason = reason
}

// ResetDrawdown manually clears the drawdown trip. There is no automatic
// equivalent — a human must confirm the account has recovered.
func (c *CircuitBreaker) ResetDrawdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drawdownTripped = false
	c.drawdownReason = ""
}

// Active reports whether any trip is active and, if so, why. Both reasons
// are joined when both trips are active simultaneously.
func (c *CircuitBreaker) Active() (bool, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.dailyTripped && c.drawdownTripped:
		return true, c.dailyReason + "; " + c.drawdownReason
	case c.dailyTripped:
		return true, c.dailyReason
	case c.drawdownTripped:
		return true, c.drawdownReason
	default:
		return false, ""
	}
}
