package store_test

import (
	"context"
	"testing"

	"github.com/sipsyai/flowengine/engine"
	"github.com/sipsyai/flowengine/flow"
	"github.com/sipsyai/flowengine/store"
)

func TestMemoryStoreGetFlowUnknownReturnsNil(t *testing.T) {
	s := store.NewMemoryStore()
	f, err := s.GetFlow(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f != nil {
		t.Fatalf("expected nil flow, got %+v", f)
	}
}

func TestMemoryStorePutAndGetFlow(t *testing.T) {
	s := store.NewMemoryStore()
	f := &flow.Flow{ID: "f1", Name: "test flow", IsActive: true, Nodes: []flow.Node{
		{NodeID: "n1", Type: flow.TypeInput, NextNodeID: "n2"},
		{NodeID: "n2", Type: flow.TypeOutput},
	}}
	s.PutFlow(f)

	got, err := s.GetFlow(context.Background(), "f1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.ID != "f1" || len(got.Nodes) != 2 {
		t.Fatalf("got %+v", got)
	}
}

func TestMemoryStoreExecutionRoundTripIsCloned(t *testing.T) {
	s := store.NewMemoryStore()
	fe := &engine.FlowExecution{ID: "e1", FlowID: "f1", Status: engine.ExecRunning, TokensUsed: 5}

	if err := s.CreateFlowExecution(context.Background(), fe); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Mutating the original after Create must not affect the stored copy.
	fe.TokensUsed = 999

	got, err := s.GetFlowExecution("e1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.TokensUsed != 5 {
		t.Fatalf("TokensUsed = %d, want 5 (stored copy should not alias the live record)", got.TokensUsed)
	}
}

func TestMemoryStoreUpdateFlowExecution(t *testing.T) {
	s := store.NewMemoryStore()
	fe := &engine.FlowExecution{ID: "e1", FlowID: "f1", Status: engine.ExecRunning}
	if err := s.CreateFlowExecution(context.Background(), fe); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fe.Status = engine.ExecCompleted
	if err := s.UpdateFlowExecution(context.Background(), fe); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.GetFlowExecution("e1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != engine.ExecCompleted {
		t.Fatalf("status = %q, want completed", got.Status)
	}
}

func TestMemoryStoreGetFlowExecutionNotFound(t *testing.T) {
	s := store.NewMemoryStore()
	if _, err := s.GetFlowExecution("missing"); err != store.ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}
