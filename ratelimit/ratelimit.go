package ratelimit

import (
	"context"
	"time"
)

/* Decision is the answer of a limiter for a single admission attempt
 * Remaining is the count of slots left after the call
 * ResetAt is when the oldest counted admission leaves the window
 */
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns how long a denied caller should wait, never less than a second
func (d Decision) RetryAfter(now time.Time) time.Duration {
	wait := d.ResetAt.Sub(now)
	if wait < time.Second {
		return time.Second
	}
	return wait.Round(time.Second)
}

// Limiter admits or rejects an attempt by identity at instant now
type Limiter interface {
	Admit(ctx context.Context, identity string, now time.Time) (Decision, error)
}
