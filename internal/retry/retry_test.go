package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) sleep(d time.Duration) {
	s.delays = append(s.delays, d)
}

func TestDoSucceedsAfterRetries(t *testing.T) {
	rec := &sleepRecorder{}
	policy := Policy{MaxAttempts: 3, Backoff: Linear(2 * time.Second), Sleep: rec.sleep}

	calls := 0
	err := Do(context.Background(), policy, func(ctx context.Context, attempt int) error {
		calls++
		if attempt < 3 {
			return ErrEmpty
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
	expected := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(rec.delays) != len(expected) {
		t.Fatalf("Expected %d sleeps, got %d", len(expected), len(rec.delays))
	}
	for i, d := range expected {
		if rec.delays[i] != d {
			t.Errorf("Sleep %d: expected %v, got %v", i, d, rec.delays[i])
		}
	}
}

func TestDoExhausted(t *testing.T) {
	rec := &sleepRecorder{}
	policy := Policy{MaxAttempts: 2, Backoff: Fixed(time.Second), Sleep: rec.sleep}
	boom := errors.New("boom")

	err := Do(context.Background(), policy, func(ctx context.Context, attempt int) error {
		return boom
	})
	if !errors.Is(err, ErrExhausted) {
		t.Errorf("Expected ErrExhausted, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("Expected last error to be wrapped, got %v", err)
	}
	// No sleep after the final attempt.
	if len(rec.delays) != 1 {
		t.Errorf("Expected 1 sleep, got %d", len(rec.delays))
	}
}

func TestDoStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := Policy{MaxAttempts: 5, Backoff: None()}

	calls := 0
	err := Do(ctx, policy, func(ctx context.Context, attempt int) error {
		calls++
		cancel()
		return ErrEmpty
	})
	if calls != 1 {
		t.Errorf("Expected 1 call before cancellation was observed, got %d", calls)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestZeroPolicyRunsOnce(t *testing.T) {
	calls := 0
	_ = Do(context.Background(), Policy{}, func(ctx context.Context, attempt int) error {
		calls++
		return ErrEmpty
	})
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestFirstSuccess(t *testing.T) {
	items := []string{"a", "b", "c"}
	var tried []string

	got, idx, err := FirstSuccess(context.Background(), items, func(ctx context.Context, item string) (string, error) {
		tried = append(tried, item)
		if item == "b" {
			return "from-b", nil
		}
		return "", ErrEmpty
	})
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if got != "from-b" || idx != 1 {
		t.Errorf("Expected (from-b, 1), got (%s, %d)", got, idx)
	}
	if len(tried) != 2 {
		t.Errorf("Expected c never to be tried, got %v", tried)
	}
}

func TestFirstSuccessExhausted(t *testing.T) {
	_, idx, err := FirstSuccess(context.Background(), []int{1, 2}, func(ctx context.Context, item int) (int, error) {
		return 0, ErrEmpty
	})
	if !errors.Is(err, ErrExhausted) || !errors.Is(err, ErrEmpty) {
		t.Errorf("Expected ErrExhausted wrapping ErrEmpty, got %v", err)
	}
	if idx != -1 {
		t.Errorf("Expected index -1, got %d", idx)
	}

	_, _, err = FirstSuccess(context.Background(), []int{}, func(ctx context.Context, item int) (int, error) {
		return 1, nil
	})
	if !errors.Is(err, ErrExhausted) {
		t.Errorf("Expected ErrExhausted for no items, got %v", err)
	}
}

func TestParseBackoff(t *testing.T) {
	b, err := ParseBackoff("fixed", 3*time.Second)
	if err != nil || b(4) != 3*time.Second {
		t.Errorf("Expected fixed 3s, got %v (%v)", b(4), err)
	}
	b, err = ParseBackoff("linear", 5*time.Second)
	if err != nil || b(2) != 10*time.Second {
		t.Errorf("Expected linear 10s on attempt 2, got %v (%v)", b(2), err)
	}
	if _, err := ParseBackoff("exponential", time.Second); err == nil {
		t.Error("Expected error for unknown kind")
	}
}

func TestDoRateLimitBackoff(t *testing.T) {
	rec := &sleepRecorder{}
	policy := Policy{
		MaxAttempts:      3,
		Backoff:          Linear(2 * time.Second),
		RateLimitBackoff: Linear(5 * time.Second),
		Sleep:            rec.sleep,
	}

	_ = Do(context.Background(), policy, func(ctx context.Context, attempt int) error {
		if attempt == 1 {
			return fmt.Errorf("status 429: %w", ErrRateLimited)
		}
		return ErrEmpty
	})

	expected := []time.Duration{5 * time.Second, 4 * time.Second}
	if len(rec.delays) != len(expected) {
		t.Fatalf("Expected %d sleeps, got %d", len(expected), len(rec.delays))
	}
	for i, d := range expected {
		if rec.delays[i] != d {
			t.Errorf("Sleep %d: expected %v, got %v", i, d, rec.delays[i])
		}
	}
}

func TestDoStopsOnPermanent(t *testing.T) {
	rec := &sleepRecorder{}
	policy := Policy{MaxAttempts: 4, Backoff: Fixed(time.Second), Sleep: rec.sleep}
	notFound := errors.New("model not found")

	calls := 0
	err := Do(context.Background(), policy, func(ctx context.Context, attempt int) error {
		calls++
		return Permanent(notFound)
	})
	if calls != 1 || len(rec.delays) != 0 {
		t.Errorf("Expected a single attempt without sleeping, got %d calls %d sleeps", calls, len(rec.delays))
	}
	if !errors.Is(err, ErrExhausted) || !errors.Is(err, notFound) {
		t.Errorf("Expected exhausted error wrapping the cause, got %v", err)
	}
	if Permanent(nil) != nil {
		t.Error("Expected Permanent(nil) to be nil")
	}
}
