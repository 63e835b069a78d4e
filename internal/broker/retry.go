package broker

import (
	"context"
	"errors"
	"time"

	"github.com/chidi150c/divergence-trader/internal/errs"
)

// WithRetry retries op up to 3 attempts total with exponential backoff
// (base 2s, cap 30s) on TransientBrokerError; PermanentBrokerError and any
// other error are returned immediately per spec §4.1/§7.
func WithRetry(ctx context.Context, op func() error) error {
	const maxAttempts = 3
	const base = 2 * time.Second
	const cap_ = 30 * time.Second

	var lastErr error
	delay := base
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		lastErr = err
		var transient *errs.TransientBrokerError
		if !errors.As(err, &transient) {
			return err
		}
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > cap_ {
			delay = cap_
		}
	}
	return lastErr
}
