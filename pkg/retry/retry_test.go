package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"tweetbot/pkg/config"
	errs "tweetbot/pkg/errors"
	"tweetbot/pkg/logger"
)

func constant(d time.Duration) func(error) BackoffStrategy {
	return func(error) BackoffStrategy { return &ConstantBackoff{Delay: d} }
}

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   1 * time.Second,
		Multiplier: 2.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 0},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, 1 * time.Second},
		{6, 1 * time.Second},
	}

	for _, tt := range tests {
		if got := backoff.NextDelay(tt.attempt); got != tt.expected {
			t.Errorf("NextDelay(%d) = %v, want %v", tt.attempt, got, tt.expected)
		}
	}
}

func TestExponentialBackoffJitterStaysInRange(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.3,
	}

	for i := 0; i < 50; i++ {
		d := backoff.NextDelay(2)
		if d < 140*time.Millisecond || d > 260*time.Millisecond {
			t.Fatalf("delay %v outside 200ms ±30%%", d)
		}
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	attempts := 0
	var retried []int

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     constant(time.Millisecond),
		RetryIf:     func(err error) bool { return true },
		OnRetry:     func(attempt int, err error, delay time.Duration) { retried = append(retried, attempt) },
	}

	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}, cfg)

	if err != nil {
		t.Fatalf("Expected success after retries, got error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
	if len(retried) != 2 || retried[0] != 1 || retried[1] != 2 {
		t.Errorf("OnRetry attempts = %v", retried)
	}
}

func TestDoStopsAtMaxAttempts(t *testing.T) {
	attempts := 0
	tl := logger.NewTestLogger()
	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     constant(time.Millisecond),
		Logger:      tl,
	}

	persistent := errs.New(errs.ErrorTypeServerError, 503, "over capacity")
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return persistent
	}, cfg)

	if err == nil {
		t.Fatal("Expected error when max attempts exceeded")
	}
	if !errors.Is(err, persistent) {
		t.Errorf("returned error does not wrap the last failure: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
	if len(tl.GetMessagesByLevel("WARN")) != 2 || !tl.HasError() {
		t.Errorf("unexpected log output:\n%s", tl.String())
	}
}

func TestDoDoesNotRetryPermanentErrors(t *testing.T) {
	for _, typ := range []errs.ErrorType{errs.ErrorTypeAuth, errs.ErrorTypeDuplicate, errs.ErrorTypeNotFound} {
		attempts := 0
		permanent := errs.New(typ, 403, "no")
		err := Do(context.Background(), func(ctx context.Context) error {
			attempts++
			return permanent
		}, &Config{MaxAttempts: 5, Backoff: constant(time.Millisecond)})

		if err != permanent {
			t.Errorf("%s: expected the original error back, got %v", typ, err)
		}
		if attempts != 1 {
			t.Errorf("%s: expected 1 attempt, got %d", typ, attempts)
		}
	}
}

func TestDoHonoursContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	err := Do(ctx, func(ctx context.Context) error {
		attempts++
		cancel()
		return errs.New(errs.ErrorTypeNetwork, 0, "connection reset")
	}, &Config{MaxAttempts: 5, Backoff: constant(time.Hour)})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts)
	}
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	got, err := DoWithResult(context.Background(), func(ctx context.Context) (string, error) {
		attempts++
		if attempts == 1 {
			return "", errors.New("flaky")
		}
		return "ok", nil
	}, &Config{MaxAttempts: 2, Backoff: constant(time.Millisecond)})

	if err != nil || got != "ok" {
		t.Errorf("DoWithResult() = %q, %v", got, err)
	}
}

func TestDefaultRetryIf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain transport error", errors.New("dial tcp: refused"), true},
		{"rate limited", errs.New(errs.ErrorTypeRateLimit, 429, ""), true},
		{"server error", errs.New(errs.ErrorTypeServerError, 500, ""), true},
		{"auth", errs.New(errs.ErrorTypeAuth, 401, ""), false},
		{"parsing", errs.New(errs.ErrorTypeParsing, 200, ""), false},
		{"cancelled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
	}
	for _, tt := range tests {
		if got := DefaultRetryIf(tt.err); got != tt.want {
			t.Errorf("%s: DefaultRetryIf() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestErrorTypeBackoff(t *testing.T) {
	etb := NewErrorTypeBackoff()
	now := time.Unix(1_700_000_000, 0)
	etb.now = func() time.Time { return now }

	if etb.ForError(errors.New("eof")) != etb.NetworkErrorBackoff {
		t.Error("untyped errors should use the network backoff")
	}
	if etb.ForError(errs.New(errs.ErrorTypeServerError, 502, "")) != etb.ServerErrorBackoff {
		t.Error("server errors should use the server backoff")
	}
	if etb.ForError(errs.New(errs.ErrorTypeRateLimit, 429, "")) != etb.RateLimitBackoff {
		t.Error("rate limit without reset should use the rate limit backoff")
	}

	limited := &errs.Error{Type: errs.ErrorTypeRateLimit, Code: 429, Reset: now.Add(42 * time.Second)}
	if d := etb.ForError(limited).NextDelay(1); d != 42*time.Second {
		t.Errorf("rate limit with reset should wait until reset, got %v", d)
	}

	farOff := &errs.Error{Type: errs.ErrorTypeRateLimit, Code: 429, Reset: now.Add(3 * time.Hour)}
	if d := etb.ForError(farOff).NextDelay(1); d != etb.MaxResetWait {
		t.Errorf("reset wait should be capped, got %v", d)
	}
}

func TestFromConfig(t *testing.T) {
	rc := config.RetryConfig{Enabled: true, MaxAttempts: 4, BaseDelay: 10 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2}
	cfg := FromConfig(rc, logger.NewNopLogger())
	if cfg.MaxAttempts != 4 {
		t.Errorf("MaxAttempts = %d", cfg.MaxAttempts)
	}
	if d := cfg.Backoff(errs.New(errs.ErrorTypeServerError, 500, "")).NextDelay(2); d != 20*time.Millisecond {
		t.Errorf("server error delay = %v, want 20ms", d)
	}

	rc.Enabled = false
	if FromConfig(rc, nil).MaxAttempts != 1 {
		t.Error("disabled retry should allow exactly one attempt")
	}
}
