// Package retry implements the Backoff Calculator and Retry Controller
// (spec.md §4.B/§4.C): computing the delay before a retry attempt and
// deciding, for a failing node, whether to retry, fall back to a
// default, skip, or fail.
package retry

import (
	"math"
	"math/rand"
	"time"

	"github.com/sipsyai/flowengine/classify"
	"github.com/sipsyai/flowengine/flow"
)

// Backoff computes retry delays. It wraps a *rand.Rand so jitter is
// seedable and therefore deterministic in tests, the same pattern the
// teacher's computeBackoff(attempt, base, maxDelay, rng) uses.
type Backoff struct {
	rng *rand.Rand
}

// NewBackoff returns a Backoff whose jitter source is seeded
// deterministically. Pass a fixed seed in tests; production callers
// can seed from time.Now().UnixNano().
func NewBackoff(seed int64) *Backoff {
	return &Backoff{rng: rand.New(rand.NewSource(seed))}
}

// Delay computes the delay that should precede the given 1-based
// attempt number, per spec.md invariant 5:
//
//	clamp(initial * multiplier^(n-1), 0, maxDelay) ± jitter if enabled
func (b *Backoff) Delay(attempt int, policy flow.RetryConfig) time.Duration {
	base := delayBase(attempt, policy)

	if !policy.UseJitter {
		return time.Duration(math.Round(float64(base)))
	}

	baseF := float64(base)
	// symmetric ±25% jitter: base + U(-1,+1) * 0.25 * base
	u := b.rng.Float64()*2 - 1
	jittered := baseF + u*0.25*baseF
	if jittered < 0 {
		jittered = 0
	}
	return time.Duration(math.Round(jittered))
}

// delayBase computes the unjittered, clamped exponential delay for an
// attempt number (1-based), used both by Delay and by tests asserting
// the pure formula (spec.md P2).
func delayBase(attempt int, policy flow.RetryConfig) time.Duration {
	exp := math.Pow(policy.BackoffMultiplier, float64(attempt-1))
	base := float64(policy.InitialDelay) * exp
	max := float64(policy.MaxDelay)
	if max > 0 && base > max {
		base = max
	}
	return time.Duration(base)
}

// DelayBase exposes the pure, unjittered formula for property tests
// (spec.md P2/P3 reference min(initial*multiplier^(n-1), maxDelay)).
func DelayBase(attempt int, policy flow.RetryConfig) time.Duration {
	return delayBase(attempt, policy)
}

// categoryAllowed looks a classify.Category up in the string-keyed
// set RetryConfig.RetryOnCategories uses; a nil set allows any.
func categoryAllowed(policy flow.RetryConfig, cat classify.Category) bool {
	if policy.RetryOnCategories == nil {
		return true
	}
	return policy.RetryOnCategories[string(cat)]
}
