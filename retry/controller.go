package retry

import (
	"time"

	"github.com/sipsyai/flowengine/classify"
	"github.com/sipsyai/flowengine/flow"
)

// Attempt records one retry attempt's outcome (spec.md RetryAttempt).
type Attempt struct {
	AttemptNumber int
	StartedAt     time.Time
	CompletedAt   time.Time
	DelayMs       int64
	Success       bool
	Error         string
}

// State is the per-node retry bookkeeping (spec.md NodeRetryState).
// The controller is stateless across nodes: every node owns its own
// State value, threaded through by the engine.
type State struct {
	RetryCount        int
	MaxRetries        int
	Attempts          []Attempt
	IsWaitingForRetry bool
	NextRetryAt       *time.Time
	LastError         *classify.FlowError
	TotalRetryTime    time.Duration
}

// NewState returns an empty retry state for a node with the given
// retry ceiling.
func NewState(maxRetries int) State {
	return State{MaxRetries: maxRetries}
}

// RecordAttempt appends a completed attempt, increments retryCount,
// accumulates the delay that preceded it, and clears the waiting flag.
func RecordAttempt(s State, success bool, delay time.Duration, errMsg string) State {
	s.Attempts = append(append([]Attempt(nil), s.Attempts...), Attempt{
		AttemptNumber: len(s.Attempts) + 1,
		StartedAt:     time.Now(),
		CompletedAt:   time.Now(),
		DelayMs:       delay.Milliseconds(),
		Success:       success,
		Error:         errMsg,
	})
	s.RetryCount++
	s.TotalRetryTime += delay
	s.IsWaitingForRetry = false
	return s
}

// MarkWaiting flags the node as currently sleeping before its next
// retry attempt.
func MarkWaiting(s State, nextRetryAt time.Time, lastError *classify.FlowError) State {
	s.IsWaitingForRetry = true
	s.NextRetryAt = &nextRetryAt
	s.LastError = lastError
	return s
}

// Controller implements the Retry Controller contract (spec.md §4.C).
// It holds no per-node state itself; every method is a pure function
// of its arguments so callers (the Flow Engine) own the state.
type Controller struct {
	Backoff *Backoff
}

// NewController returns a Controller using the given Backoff
// calculator for delay computation.
func NewController(b *Backoff) *Controller {
	return &Controller{Backoff: b}
}

// ShouldRetry implements spec.md §4.C shouldRetry: true iff the policy
// is enabled, the retry budget is not exhausted, the error's category
// and (if configured) code are allowed, and the error is retryable.
func (c *Controller) ShouldRetry(n flow.Node, err *classify.FlowError, s State, policy flow.RetryConfig) bool {
	if !policy.Enabled {
		return false
	}
	if s.RetryCount >= policy.MaxRetries {
		return false
	}
	if !categoryAllowed(policy, err.Category) {
		return false
	}
	if policy.RetryOnCodes != nil && err.Code != "" {
		if !policy.RetryOnCodes[err.Code] {
			return false
		}
	}
	if !err.IsRetryable {
		return false
	}
	return true
}

// RecoveryAction implements spec.md §4.C recoveryAction's four-step
// precedence: retry, else use_default, else skip, else fail.
func (c *Controller) RecoveryAction(n flow.Node, err *classify.FlowError, s State, policy flow.RetryConfig) classify.Action {
	if c.ShouldRetry(n, err, s, policy) {
		return classify.ActionRetry
	}
	if _, ok := n.DefaultOnError(); ok {
		return classify.ActionUseDefault
	}
	if n.IsOptional() {
		return classify.ActionSkip
	}
	return classify.ActionFail
}
