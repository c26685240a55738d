package ratelimit

import "time"

// Window is one endpoint's entry from the rate-limit status call.
type Window struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

// Budget decides whether the server-side quota allows another call.
type Budget struct {
	// MinRemaining is the lowest remaining count at which calls still proceed.
	MinRemaining int
	// Fallback is the wait used when the reset time is unknown or already past.
	Fallback time.Duration
	// MaxWait caps a wait derived from the reset time. Zero means no cap.
	MaxWait time.Duration
	// Slack is added to reset-derived waits to absorb clock skew.
	Slack time.Duration
}

// Check returns how long to wait before calling again, or zero when
// w.Remaining >= MinRemaining.
func (b Budget) Check(w Window, now time.Time) time.Duration {
	if w.Remaining >= b.MinRemaining {
		return 0
	}

	if w.Reset.IsZero() || !w.Reset.After(now) {
		return b.Fallback
	}

	wait := w.Reset.Sub(now) + b.Slack
	if b.MaxWait > 0 && wait > b.MaxWait {
		wait = b.MaxWait
	}
	return wait
}
