// Package ratelimit implements the tiered sliding-window quota limiter for
// the data API. The limiter itself holds no tier knowledge: the ceiling is
// supplied per call by the tier resolver, so a subscription change takes
// effect on the very next request without re-provisioning limiter state.
package ratelimit

import (
	"context"
	"time"
)

// DefaultWindow is the quota accounting window.
const DefaultWindow = 10 * time.Second

// Result is the outcome of a quota check. Remaining is clamped to >= 0 and
// ResetAt is the moment the oldest in-window request ages out, on both
// allowed and denied outcomes.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Counter is the shared counting backend, keyed by rate-limit key. Incr is
// the atomic increment-and-check: when the in-window count is below limit
// the hit is recorded and allowed is true, otherwise nothing is recorded.
// Two near-simultaneous requests under the same key must never both observe
// "allowed" when only one slot remains, so implementations serialize the
// counting step per key.
//
// used is the number of recorded in-window hits after the call and oldest
// the timestamp of the oldest recorded hit (zero time when none).
type Counter interface {
	Incr(ctx context.Context, key string, limit int, now time.Time) (allowed bool, used int, oldest time.Time, err error)

	// Window returns the accounting window the counter prunes against.
	Window() time.Duration
}

// Limiter evaluates sliding-window quotas against a Counter backend. It is
// constructed explicitly and injected where needed; there is deliberately
// no package-level default instance.
type Limiter struct {
	counter Counter
	window  time.Duration

	now func() time.Time // overridable in tests
}

func New(counter Counter) *Limiter {
	return &Limiter{
		counter: counter,
		window:  counter.Window(),
		now:     time.Now,
	}
}

// Check counts one request for key against the given ceiling. The request
// is allowed iff the number of requests already attributed to the key
// within the trailing window is below the ceiling; denied requests do not
// consume window slots.
func (l *Limiter) Check(ctx context.Context, key string, ceiling int) (Result, error) {
	now := l.now()

	allowed, used, oldest, err := l.counter.Incr(ctx, key, ceiling, now)
	if err != nil {
		return Result{}, err
	}

	remaining := ceiling - used
	if remaining < 0 {
		remaining = 0
	}

	resetAt := now.Add(l.window)
	if !oldest.IsZero() {
		resetAt = oldest.Add(l.window)
	}

	return Result{
		Allowed:   allowed,
		Limit:     ceiling,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

// Window returns the limiter's accounting window.
func (l *Limiter) Window() time.Duration { return l.window }

// KeyFor derives the rate-limit key for a request. Verified callers are
// limited per API key; everything else is limited per remote address, so
// every request has an identity for limiting even without a resolvable
// caller.
func KeyFor(apiKeyID, ip string) string {
	if apiKeyID != "" {
		return "key:" + apiKeyID
	}
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}
