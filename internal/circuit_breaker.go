package internal

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lychee-technology/legacybridge"
	"go.uber.org/zap"
)

// CircuitBreaker stops repositories from sending statements to the legacy
// store after threshold failures within window. A nil breaker never opens.
type CircuitBreaker struct {
	mu           sync.Mutex
	failures     []time.Time
	threshold    int
	window       time.Duration
	openUntil    time.Time
	openDuration time.Duration
	now          func() time.Time
}

// NewCircuitBreaker creates a breaker, or returns nil when threshold is not
// positive.
func NewCircuitBreaker(threshold int, window, openDuration time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		return nil
	}
	return &CircuitBreaker{
		threshold:    threshold,
		window:       window,
		openDuration: openDuration,
		failures:     make([]time.Time, 0, threshold),
		now:          time.Now,
	}
}

// RecordFailure records a failure and opens the breaker once the window holds
// threshold failures.
func (cb *CircuitBreaker) RecordFailure() {
	if cb == nil {
		return
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.now()
	cutoff := now.Add(-cb.window)
	kept := cb.failures[:0]
	for _, at := range cb.failures {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	cb.failures = append(kept, now)

	if len(cb.failures) >= cb.threshold {
		cb.openUntil = now.Add(cb.openDuration)
		cb.failures = cb.failures[:0]
		zap.S().Warnw("legacy store circuit opened", "until", cb.openUntil, "threshold", cb.threshold)
	}
}

// RecordSuccess clears the failure history.
func (cb *CircuitBreaker) RecordSuccess() {
	if cb == nil {
		return
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = cb.failures[:0]
	cb.openUntil = time.Time{}
}

// IsOpen reports whether statements are currently refused.
func (cb *CircuitBreaker) IsOpen() bool {
	if cb == nil {
		return false
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.now().Before(cb.openUntil)
}

func (cb *CircuitBreaker) allow(table string) error {
	if cb.IsOpen() {
		return legacybridge.NewConnectionError("legacy store circuit is open", nil).WithTable(table)
	}
	return nil
}

// record counts err against the store. Cancellation by the caller says
// nothing about the store's health and is ignored.
func (cb *CircuitBreaker) record(err error) {
	switch {
	case err == nil:
		cb.RecordSuccess()
	case errors.Is(err, context.Canceled):
	default:
		cb.RecordFailure()
	}
}
