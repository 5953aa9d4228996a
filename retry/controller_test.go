package retry_test

import (
	"testing"
	"time"

	"github.com/sipsyai/flowengine/classify"
	"github.com/sipsyai/flowengine/flow"
	"github.com/sipsyai/flowengine/retry"
)

func agentNode(retryOnError bool, maxRetries int, metadata map[string]any) flow.Node {
	return flow.Node{
		NodeID:       "n1",
		Type:         flow.TypeAgent,
		RetryOnError: retryOnError,
		MaxRetries:   maxRetries,
		Metadata:     metadata,
	}
}

// TestRetryBound covers P1: retryCount never exceeds policy.MaxRetries.
func TestRetryBound(t *testing.T) {
	node := agentNode(true, 2, nil)
	policy := flow.PolicyFor(node)
	c := retry.NewController(retry.NewBackoff(1))
	s := retry.NewState(policy.MaxRetries)
	err := classify.Classify("connection reset", 0)

	for i := 0; i < 10; i++ {
		if !c.ShouldRetry(node, err, s, policy) {
			break
		}
		s = retry.RecordAttempt(s, false, time.Millisecond, err.Message)
	}

	if s.RetryCount > policy.MaxRetries {
		t.Fatalf("retryCount %d exceeds maxRetries %d", s.RetryCount, policy.MaxRetries)
	}
}

func TestShouldRetryRespectsCategory(t *testing.T) {
	node := agentNode(true, 3, nil)
	policy := flow.PolicyFor(node)
	c := retry.NewController(retry.NewBackoff(1))
	s := retry.NewState(policy.MaxRetries)

	permanent := classify.Classify("401 Unauthorized", 0)
	if c.ShouldRetry(node, permanent, s, policy) {
		t.Fatal("permanent error should not be retried")
	}

	transient := classify.Classify("connection reset", 0)
	if !c.ShouldRetry(node, transient, s, policy) {
		t.Fatal("transient error should be retried when budget remains")
	}
}

func TestShouldRetryDisabledForNonAgentNodes(t *testing.T) {
	node := flow.Node{NodeID: "n1", Type: flow.TypeInput}
	policy := flow.PolicyFor(node)
	c := retry.NewController(retry.NewBackoff(1))
	s := retry.NewState(policy.MaxRetries)
	err := classify.Classify("connection reset", 0)

	if c.ShouldRetry(node, err, s, policy) {
		t.Fatal("non-agent nodes never retry")
	}
}

// TestRecoveryPrecedence covers P8: retry beats use_default beats skip
// beats fail.
func TestRecoveryPrecedence(t *testing.T) {
	c := retry.NewController(retry.NewBackoff(1))
	transient := classify.Classify("connection reset", 0)
	permanent := classify.Classify("401 Unauthorized", 0)

	t.Run("retry wins when eligible", func(t *testing.T) {
		node := agentNode(true, 3, map[string]any{flow.MetaDefaultOnError: "fallback", flow.MetaOptional: true})
		policy := flow.PolicyFor(node)
		s := retry.NewState(policy.MaxRetries)
		if got := c.RecoveryAction(node, transient, s, policy); got != classify.ActionRetry {
			t.Fatalf("got %q, want retry", got)
		}
	})

	t.Run("use_default beats skip when retry exhausted", func(t *testing.T) {
		node := agentNode(true, 0, map[string]any{flow.MetaDefaultOnError: "fallback", flow.MetaOptional: true})
		policy := flow.PolicyFor(node)
		s := retry.NewState(policy.MaxRetries)
		if got := c.RecoveryAction(node, permanent, s, policy); got != classify.ActionUseDefault {
			t.Fatalf("got %q, want use_default", got)
		}
	})

	t.Run("skip beats fail with no default", func(t *testing.T) {
		node := agentNode(false, 0, map[string]any{flow.MetaOptional: true})
		policy := flow.PolicyFor(node)
		s := retry.NewState(policy.MaxRetries)
		if got := c.RecoveryAction(node, permanent, s, policy); got != classify.ActionSkip {
			t.Fatalf("got %q, want skip", got)
		}
	})

	t.Run("fail when nothing else applies", func(t *testing.T) {
		node := agentNode(false, 0, nil)
		policy := flow.PolicyFor(node)
		s := retry.NewState(policy.MaxRetries)
		if got := c.RecoveryAction(node, permanent, s, policy); got != classify.ActionFail {
			t.Fatalf("got %q, want fail", got)
		}
	})
}

func TestRecordAttemptAccumulatesState(t *testing.T) {
	s := retry.NewState(3)
	s = retry.RecordAttempt(s, false, 10*time.Millisecond, "boom")
	s = retry.RecordAttempt(s, false, 20*time.Millisecond, "boom again")

	if s.RetryCount != 2 {
		t.Fatalf("retryCount = %d, want 2", s.RetryCount)
	}
	if s.TotalRetryTime != 30*time.Millisecond {
		t.Fatalf("totalRetryTime = %v, want 30ms", s.TotalRetryTime)
	}
	if len(s.Attempts) != 2 {
		t.Fatalf("len(Attempts) = %d, want 2", len(s.Attempts))
	}
	if s.IsWaitingForRetry {
		t.Fatal("RecordAttempt should clear the waiting flag")
	}
}
