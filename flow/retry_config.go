package flow

import "time"

// RetryConfig governs whether and how a failing node is retried.
// Defaults mirror spec.md §3: enabled, 3 retries, 1s initial delay
// capped at 30s, multiplier 2, jitter on, transient+unknown retried.
type RetryConfig struct {
	Enabled           bool
	MaxRetries        int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	UseJitter         bool
	RetryOnCategories map[string]bool // keyed by ErrorCategory string; nil means "any"
	RetryOnCodes      map[string]bool // nil means "unset" (no code filter)
}

// DefaultRetryConfig returns the default policy described in spec.md §3.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Enabled:           true,
		MaxRetries:        3,
		InitialDelay:      1 * time.Second,
		MaxDelay:          30 * time.Second,
		BackoffMultiplier: 2,
		UseJitter:         true,
		RetryOnCategories: map[string]bool{
			"transient": true,
			"unknown":   true,
		},
	}
}

// PolicyFor computes the effective retry policy for a node (spec.md
// §4.C policyFor). Agent nodes overlay RetryOnError/MaxRetries on the
// defaults; every other node type gets retries disabled.
func PolicyFor(n Node) RetryConfig {
	if n.Type != TypeAgent {
		cfg := DefaultRetryConfig()
		cfg.Enabled = false
		cfg.MaxRetries = 0
		return cfg
	}

	cfg := DefaultRetryConfig()
	cfg.Enabled = n.RetryOnError
	cfg.MaxRetries = n.MaxRetries
	return cfg
}
