// Package retry provides the attempt policy and drivers shared by the search,
// text and image cascades.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrExhausted is returned when every attempt or every item failed.
	ErrExhausted = errors.New("all attempts exhausted")
	// ErrEmpty signals an attempt that completed but produced nothing usable.
	ErrEmpty = errors.New("empty result")
	// ErrRateLimited marks an attempt refused by a quota. Policies may back off
	// longer after it.
	ErrRateLimited = errors.New("rate limited")
	// ErrPermanent marks a failure that will not change on retry.
	ErrPermanent = errors.New("permanent failure")
)

// Permanent wraps err so Do stops retrying immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// BackoffFunc returns the delay to wait after the given failed attempt (1-based).
type BackoffFunc func(attempt int) time.Duration

// Fixed waits the same delay after every failed attempt.
func Fixed(d time.Duration) BackoffFunc {
	return func(int) time.Duration { return d }
}

// Linear waits step*attempt after each failed attempt.
func Linear(step time.Duration) BackoffFunc {
	return func(attempt int) time.Duration { return step * time.Duration(attempt) }
}

// None never waits.
func None() BackoffFunc {
	return func(int) time.Duration { return 0 }
}

// ParseBackoff builds a BackoffFunc from a config kind ("fixed", "linear", "none").
func ParseBackoff(kind string, d time.Duration) (BackoffFunc, error) {
	switch kind {
	case "fixed":
		return Fixed(d), nil
	case "linear", "":
		return Linear(d), nil
	case "none":
		return None(), nil
	default:
		return nil, fmt.Errorf("unknown backoff kind %q", kind)
	}
}

// Policy describes how many times to try and how long to wait in between.
type Policy struct {
	MaxAttempts int
	Backoff     BackoffFunc
	// RateLimitBackoff replaces Backoff after an attempt failing with ErrRateLimited.
	RateLimitBackoff BackoffFunc
	// Sleep defaults to time.Sleep. Tests inject a recorder.
	Sleep func(time.Duration)
}

// Once is a single attempt with no backoff.
func Once() Policy {
	return Policy{MaxAttempts: 1, Backoff: None()}
}

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

func (p Policy) wait(attempt int, err error) {
	backoff := p.Backoff
	if p.RateLimitBackoff != nil && errors.Is(err, ErrRateLimited) {
		backoff = p.RateLimitBackoff
	}
	if backoff == nil {
		return
	}
	d := backoff(attempt)
	if d <= 0 {
		return
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	sleep(d)
}

// Do calls fn until it returns nil or the policy's attempts are used up.
// Sleeps are plain blocking waits; ctx is checked between attempts only.
// The returned error wraps ErrExhausted and the last attempt's error.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) error) error {
	var lastErr error
	limit := p.attempts()
	for attempt := 1; attempt <= limit; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr == nil {
				return err
			}
			return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempt-1, err)
		}

		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, ErrPermanent) {
			return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempt, lastErr)
		}
		if attempt < limit {
			p.wait(attempt, lastErr)
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, limit, lastErr)
}

// FirstSuccess tries each item in order and returns the first successful result
// together with the index of the item that produced it. Items are never tried
// concurrently. When all fail the error wraps ErrExhausted and the last failure.
func FirstSuccess[T, R any](ctx context.Context, items []T, try func(ctx context.Context, item T) (R, error)) (R, int, error) {
	var zero R
	var lastErr error
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return zero, -1, err
		}
		result, err := try(ctx, item)
		if err == nil {
			return result, i, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		return zero, -1, fmt.Errorf("%w: no items", ErrExhausted)
	}
	return zero, -1, fmt.Errorf("%w: %w", ErrExhausted, lastErr)
}
