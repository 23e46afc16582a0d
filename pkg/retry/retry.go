// Package retry implements a bounded exponential backoff policy for
// read paths that must tolerate transient backend failures.
package retry

import (
	"context"
	"errors"
	"time"
)

// Policy bounds how often and how long an operation is retried.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
}

// DefaultPolicy matches the conservative read-retry behavior of the UI layer:
// up to 3 attempts with a doubling delay starting at 250ms.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   250 * time.Millisecond,
		Multiplier:  2,
	}
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 250 * time.Millisecond
	}
	if p.Multiplier < 1 {
		p.Multiplier = 1
	}
	return p
}

type stopError struct {
	err error
}

func (e *stopError) Error() string { return e.err.Error() }
func (e *stopError) Unwrap() error { return e.err }

// Stop marks err as non-retryable. Do returns the wrapped error
// immediately without consuming further attempts.
func Stop(err error) error {
	if err == nil {
		return nil
	}
	return &stopError{err: err}
}

// Do runs fn up to MaxAttempts times, sleeping between attempts.
// It returns nil on the first success, and unwraps Stop-marked errors
// without retrying them. Sleeps are context-aware: a canceled context
// aborts the loop and returns the context error.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	p = p.normalized()

	var lastErr error
	delay := p.BaseDelay
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		var stop *stopError
		if errors.As(lastErr, &stop) {
			return stop.err
		}
		if attempt == p.MaxAttempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay = time.Duration(float64(delay) * p.Multiplier)
	}
	return lastErr
}
