package retry_test

import (
	"math"
	"testing"
	"time"

	"github.com/sipsyai/flowengine/flow"
	"github.com/sipsyai/flowengine/retry"
)

func policy(initial time.Duration, multiplier float64, maxDelay time.Duration, jitter bool) flow.RetryConfig {
	return flow.RetryConfig{
		Enabled:           true,
		MaxRetries:        5,
		InitialDelay:      initial,
		MaxDelay:          maxDelay,
		BackoffMultiplier: multiplier,
		UseJitter:         jitter,
	}
}

// TestDelayFormula covers P2: with jitter disabled, delayFor(n) equals
// min(initial*multiplier^(n-1), maxDelay) for every attempt in range.
func TestDelayFormula(t *testing.T) {
	p := policy(10*time.Millisecond, 2, 1*time.Second, false)
	b := retry.NewBackoff(1)

	for n := 1; n <= p.MaxRetries; n++ {
		want := retry.DelayBase(n, p)
		got := b.Delay(n, p)
		if got != want {
			t.Fatalf("attempt %d: got %v, want %v", n, got, want)
		}
	}
}

func TestDelayFormulaClampsToMax(t *testing.T) {
	p := policy(100*time.Millisecond, 10, 200*time.Millisecond, false)
	b := retry.NewBackoff(1)

	got := b.Delay(3, p) // 100 * 10^2 = 10000ms, clamped to 200ms
	if got != 200*time.Millisecond {
		t.Fatalf("got %v, want 200ms", got)
	}
}

// TestJitterBound covers P3: with jitter enabled, delayFor(n) stays
// within [0.75*base, 1.25*base] across many seeds.
func TestJitterBound(t *testing.T) {
	p := policy(50*time.Millisecond, 2, 5*time.Second, true)
	base := retry.DelayBase(3, p)
	lo := time.Duration(math.Floor(float64(base) * 0.75))
	hi := time.Duration(math.Ceil(float64(base) * 1.25))

	for seed := int64(0); seed < 200; seed++ {
		b := retry.NewBackoff(seed)
		got := b.Delay(3, p)
		if got < lo || got > hi {
			t.Fatalf("seed %d: delay %v outside [%v, %v]", seed, got, lo, hi)
		}
	}
}

func TestDelayDeterministicForFixedSeed(t *testing.T) {
	p := policy(20*time.Millisecond, 2, 1*time.Second, true)
	a := retry.NewBackoff(42).Delay(2, p)
	b := retry.NewBackoff(42).Delay(2, p)
	if a != b {
		t.Fatalf("same seed produced different delays: %v vs %v", a, b)
	}
}
